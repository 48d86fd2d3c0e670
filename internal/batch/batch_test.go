package batch

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/sigscan"
	"github.com/standardbeagle/sigscan/pattern"
	"github.com/standardbeagle/sigscan/signature"
)

func testClassifier(t *testing.T) *sigscan.Classifier {
	t.Helper()
	store := signature.NewStore()
	spec, err := store.AddSpecification("lnk")
	require.NoError(t, err)
	spec.AddSignature([]byte("lnk_MAGIC"), nil, false)

	c, err := sigscan.New(store, pattern.OffsetModePositiveStrict, sigscan.FullScan)
	require.NoError(t, err)
	return c
}

func writeTempFile(t *testing.T, dir, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, content, 0o644))
	return path
}

func TestRunClassifiesEveryPath(t *testing.T) {
	dir := t.TempDir()
	hit := writeTempFile(t, dir, "hit.bin", []byte("xxxlnk_MAGICxxx"))
	miss := writeTempFile(t, dir, "miss.bin", []byte("nothing-here"))

	c := testClassifier(t)
	results := Run(context.Background(), c, []string{hit, miss}, 2)

	require.Len(t, results, 2)
	assert.NoError(t, results[hit].Err)
	require.Len(t, results[hit].Result.Classifications, 1)
	assert.Equal(t, "lnk", results[hit].Result.Classifications[0].Identifier)

	assert.NoError(t, results[miss].Err)
	assert.Empty(t, results[miss].Result.Classifications)
}

func TestRunIsolatesPerPathErrors(t *testing.T) {
	dir := t.TempDir()
	hit := writeTempFile(t, dir, "hit.bin", []byte("lnk_MAGIC"))
	missing := filepath.Join(dir, "does-not-exist.bin")

	c := testClassifier(t)
	results := Run(context.Background(), c, []string{hit, missing}, 2)

	require.Len(t, results, 2)
	assert.NoError(t, results[hit].Err)
	assert.Error(t, results[missing].Err)
}

func TestRunCanonicalizesIdenticalClassificationsAcrossPaths(t *testing.T) {
	dir := t.TempDir()
	first := writeTempFile(t, dir, "first.bin", []byte("xxxlnk_MAGICxxx"))
	second := writeTempFile(t, dir, "second.bin", []byte("yyylnk_MAGICyyy"))

	c := testClassifier(t)
	results := Run(context.Background(), c, []string{first, second}, 2)

	require.NoError(t, results[first].Err)
	require.NoError(t, results[second].Err)
	assert.Equal(t, results[first].Result.Fingerprint(), results[second].Result.Fingerprint())

	// canonicalize hands out a Classifications slice over the very same
	// backing array to every path whose Result shares a fingerprint.
	assert.Same(t, &results[first].Result.Classifications[0], &results[second].Result.Classifications[0])
}

func TestRunClampsConcurrencyBelowOne(t *testing.T) {
	dir := t.TempDir()
	hit := writeTempFile(t, dir, "hit.bin", []byte("lnk_MAGIC"))

	c := testClassifier(t)
	results := Run(context.Background(), c, []string{hit}, 0)

	require.Len(t, results, 1)
	assert.NoError(t, results[hit].Err)
}
