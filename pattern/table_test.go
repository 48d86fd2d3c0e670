package pattern

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/sigscan/signature"
)

func buildPatterns(t *testing.T, specs ...*signature.Specification) []*Pattern {
	t.Helper()
	patterns, _, err := Build(specs, OffsetModePositiveStrict)
	require.NoError(t, err)
	return patterns
}

func TestBuildTableFiltersByBoundness(t *testing.T) {
	spec := specWith("mixed",
		signature.Signature{Expression: []byte("ABCD"), IsBound: true, Offset: offset(0)},
		signature.Signature{Expression: []byte("WXYZ"), IsBound: false},
	)
	patterns := buildPatterns(t, spec)

	bound, err := BuildTable(patterns, nil, FilterBound)
	require.NoError(t, err)
	assert.Len(t, bound.Patterns(), 1)

	unbound, err := BuildTable(patterns, nil, FilterUnbound)
	require.NoError(t, err)
	assert.Len(t, unbound.Patterns(), 1)
}

func TestBuildTableTracksSmallestAndLargestLength(t *testing.T) {
	spec := specWith("lengths",
		signature.Signature{Expression: []byte("ABCD"), IsBound: false},
		signature.Signature{Expression: []byte("ABCDEFGH"), IsBound: false},
	)
	patterns := buildPatterns(t, spec)

	table, err := BuildTable(patterns, nil, FilterUnbound)
	require.NoError(t, err)
	assert.Equal(t, 4, table.SmallestPatternLength())
	assert.Equal(t, 8, table.LargestPatternLength())
}

func TestBuildTableOffsetsAscendingForBound(t *testing.T) {
	spec := specWith("bound", signature.Signature{Expression: []byte("ABCD"), IsBound: true, Offset: offset(10)})
	patterns := buildPatterns(t, spec)

	table, err := BuildTable(patterns, nil, FilterBound)
	require.NoError(t, err)
	assert.Equal(t, []int64{10, 11, 12, 13}, table.Offsets())
}

func TestBuildTableSortedByteValues(t *testing.T) {
	spec := specWith("bytes",
		signature.Signature{Expression: []byte("ZBCD"), IsBound: false},
		signature.Signature{Expression: []byte("ABCD"), IsBound: false},
	)
	patterns := buildPatterns(t, spec)

	table, err := BuildTable(patterns, nil, FilterUnbound)
	require.NoError(t, err)
	assert.Equal(t, []byte{'A', 'Z'}, table.SortedByteValues(0))
}

func TestBuildTableIgnoresSpecifiedOffsets(t *testing.T) {
	spec := specWith("ignore", signature.Signature{Expression: []byte("ABCD"), IsBound: false})
	patterns := buildPatterns(t, spec)

	table, err := BuildTable(patterns, map[int64]bool{0: true}, FilterUnbound)
	require.NoError(t, err)
	assert.Nil(t, table.ByteValuesAt(0))
	assert.NotNil(t, table.ByteValuesAt(1))
}

func TestBuildTableSkipTableDelegates(t *testing.T) {
	spec := specWith("skip",
		signature.Signature{Expression: []byte("ABCD"), IsBound: false},
		signature.Signature{Expression: []byte("ABCE"), IsBound: false},
	)
	patterns := buildPatterns(t, spec)

	table, err := BuildTable(patterns, nil, FilterUnbound)
	require.NoError(t, err)
	skip := table.SkipTable()
	assert.Equal(t, 0, skip.Skip('D'))
	assert.Equal(t, 0, skip.Skip('E'))
}
