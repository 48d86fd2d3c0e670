package pattern

import (
	"fmt"
	"sort"

	"github.com/standardbeagle/sigscan/sigerrors"
	"github.com/standardbeagle/sigscan/skiptable"
)

// Filter selects which of a pattern set's members a Table indexes.
type Filter int

const (
	// FilterBound keeps only patterns whose signature is bound, and
	// indexes them starting at their signature's absolute offset.
	FilterBound Filter = iota
	// FilterUnbound keeps only patterns whose signature is unbound,
	// and indexes them starting at offset 0.
	FilterUnbound
	// FilterAny keeps every pattern regardless of bound-ness, indexing
	// each starting at offset 0.
	FilterAny
)

// Table indexes a set of patterns by (offset, byte value): for each
// byte position, which patterns exhibit which byte value there. It is
// specialised for exactly one of FilterBound or FilterUnbound (or
// FilterAny, used by callers that do not distinguish) -- a Table is
// never built from a mix it doesn't itself filter down.
type Table struct {
	patterns             []*Pattern
	byteValuesPerOffset   map[int64]map[byte][]*Pattern
	smallestPatternLength int
	largestPatternLength  int
}

// BuildTable indexes patterns (already produced by Build) into a Table,
// excluding any offsets present in ignore from the byte-value index.
func BuildTable(patterns []*Pattern, ignore map[int64]bool, filter Filter) (*Table, error) {
	t := &Table{byteValuesPerOffset: make(map[int64]map[byte][]*Pattern)}
	smallest := -1

	for _, p := range patterns {
		switch filter {
		case FilterBound:
			if !p.Signature.IsBound {
				continue
			}
		case FilterUnbound:
			if p.Signature.IsBound {
				continue
			}
		}

		expr := p.Signature.Expression
		length := len(expr)
		if length < 4 {
			return nil, sigerrors.New(sigerrors.KindPatternTooShort, "pattern.BuildTable",
				fmt.Sprintf("%s: expression shorter than 4 bytes", p.ID))
		}

		if smallest == -1 || length < smallest {
			smallest = length
		}
		if length > t.largestPatternLength {
			t.largestPatternLength = length
		}
		t.patterns = append(t.patterns, p)

		offset := int64(0)
		if filter == FilterBound && p.Signature.Offset != nil {
			offset = *p.Signature.Offset
		}

		for _, b := range expr {
			if !ignore[offset] {
				byteValues, ok := t.byteValuesPerOffset[offset]
				if !ok {
					byteValues = make(map[byte][]*Pattern)
					t.byteValuesPerOffset[offset] = byteValues
				}
				for _, existing := range byteValues[b] {
					if existing.ID == p.ID {
						return nil, sigerrors.New(sigerrors.KindDuplicateIdentifier, "pattern.BuildTable",
							fmt.Sprintf("pattern %s already indexed at offset %d byte 0x%02x", p.ID, offset, b))
					}
				}
				byteValues[b] = append(byteValues[b], p)
			}
			offset++
		}
	}

	if smallest == -1 {
		smallest = 0
	}
	t.smallestPatternLength = smallest

	return t, nil
}

// Patterns returns every pattern the table indexes.
func (t *Table) Patterns() []*Pattern {
	return t.patterns
}

// SmallestPatternLength is the shortest expression length across the
// table's patterns.
func (t *Table) SmallestPatternLength() int {
	return t.smallestPatternLength
}

// LargestPatternLength is the longest expression length across the
// table's patterns.
func (t *Table) LargestPatternLength() int {
	return t.largestPatternLength
}

// Offsets returns the indexed offsets, ascending.
func (t *Table) Offsets() []int64 {
	out := make([]int64, 0, len(t.byteValuesPerOffset))
	for off := range t.byteValuesPerOffset {
		out = append(out, off)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ByteValuesAt returns, for a given offset, the patterns indexed per
// byte value observed there.
func (t *Table) ByteValuesAt(offset int64) map[byte][]*Pattern {
	return t.byteValuesPerOffset[offset]
}

// SortedByteValues returns the byte values present at offset, ascending.
func (t *Table) SortedByteValues(offset int64) []byte {
	byteValues := t.byteValuesPerOffset[offset]
	out := make([]byte, 0, len(byteValues))
	for b := range byteValues {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// SkipTable derives the Boyer-Moore-Horspool skip table for this
// table's patterns, sized to SmallestPatternLength.
func (t *Table) SkipTable() *skiptable.Table {
	exprs := make([]skiptable.Expression, len(t.patterns))
	for i, p := range t.patterns {
		exprs[i] = p
	}
	return skiptable.Build(t.smallestPatternLength, exprs)
}
