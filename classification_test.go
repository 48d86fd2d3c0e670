package sigscan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/sigscan/pattern"
	"github.com/standardbeagle/sigscan/scanner"
	"github.com/standardbeagle/sigscan/signature"
)

func TestAggregateGroupsByIdentifierInFirstSeenOrder(t *testing.T) {
	specB := signature.NewSpecification("zip_eocd")
	specB.AddSignature([]byte("PK\x05\x06"), nil, false)
	specA := signature.NewSpecification("lnk")
	specA.AddSignature([]byte("lnkMAGIC"), nil, false)

	patternsB, _, err := pattern.Build([]*signature.Specification{specB}, pattern.OffsetModePositiveStrict)
	require.NoError(t, err)
	patternsA, _, err := pattern.Build([]*signature.Specification{specA}, pattern.OffsetModePositiveStrict)
	require.NoError(t, err)

	results := []scanner.Result{
		{FileOffset: 100, Pattern: patternsB[0]},
		{FileOffset: 0, Pattern: patternsA[0]},
		{FileOffset: 200, Pattern: patternsB[0]},
	}

	classifications := aggregate(results)
	require.Len(t, classifications, 2)
	assert.Equal(t, "zip_eocd", classifications[0].Identifier)
	assert.Len(t, classifications[0].ScanResults, 2)
	assert.Equal(t, "lnk", classifications[1].Identifier)
	assert.Len(t, classifications[1].ScanResults, 1)
}

func TestAggregateEmptyResultsYieldsEmptySlice(t *testing.T) {
	assert.Empty(t, aggregate(nil))
}

func TestAggregateFingerprintIsStableForIdenticalPatternSets(t *testing.T) {
	spec := signature.NewSpecification("lnk")
	spec.AddSignature([]byte("lnkMAGIC"), nil, false)
	patterns, _, err := pattern.Build([]*signature.Specification{spec}, pattern.OffsetModePositiveStrict)
	require.NoError(t, err)

	first := aggregate([]scanner.Result{{FileOffset: 3, Pattern: patterns[0]}})
	second := aggregate([]scanner.Result{{FileOffset: 99, Pattern: patterns[0]}})

	require.Len(t, first, 1)
	require.Len(t, second, 1)
	assert.Equal(t, first[0].Fingerprint, second[0].Fingerprint)
	assert.NotZero(t, first[0].Fingerprint)
}
