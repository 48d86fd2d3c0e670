package fuzzyhint

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/sigscan/signature"
)

func specWithUnbound(identifier string, expr string) *signature.Specification {
	spec := signature.NewSpecification(identifier)
	spec.AddSignature([]byte(expr), nil, false)
	return spec
}

func TestSuggestFindsCloseMatch(t *testing.T) {
	specs := []*signature.Specification{
		specWithUnbound("lnk", "ABCD"),
		specWithUnbound("regf", "WXYZ"),
	}

	hints := Suggest(specs, []byte("ABCE"))
	require.NotEmpty(t, hints)
	assert.Equal(t, "lnk", hints[0].Identifier)
	assert.Greater(t, hints[0].Score, Threshold)
}

func TestSuggestOmitsBelowThreshold(t *testing.T) {
	specs := []*signature.Specification{specWithUnbound("lnk", "ABCD")}

	hints := Suggest(specs, []byte("ZZZZ"))
	assert.Empty(t, hints)
}

func TestSuggestCapsAtMaxHints(t *testing.T) {
	var specs []*signature.Specification
	for i := 0; i < MaxHints+3; i++ {
		specs = append(specs, specWithUnbound(string(rune('a'+i)), "ABCD"))
	}

	hints := Suggest(specs, []byte("ABCD"))
	assert.Len(t, hints, MaxHints)
}

func TestSuggestIgnoresBoundSignatures(t *testing.T) {
	spec := signature.NewSpecification("bound-only")
	spec.AddSignature([]byte("ABCD"), new(int64), true)

	hints := Suggest([]*signature.Specification{spec}, []byte("ABCD"))
	assert.Empty(t, hints)
}
