// Package weights computes the three heuristics -- similarity,
// occurrence and value weight -- used to pick the most discriminating
// byte offset at each level of a scan tree.
package weights

import "sort"

// commonBytes are byte values considered too frequent across unrelated
// formats to carry much evidence: NUL, SOH, 0xFF, common whitespace, and
// ASCII alphanumerics.
var commonBytes = buildCommonBytes()

func buildCommonBytes() [256]bool {
	var set [256]bool
	for _, b := range []byte{0x00, 0x01, 0xFF, '\t', '\n', '\r', ' '} {
		set[b] = true
	}
	for b := byte('0'); b <= '9'; b++ {
		set[b] = true
	}
	for b := byte('A'); b <= 'Z'; b++ {
		set[b] = true
	}
	for b := byte('a'); b <= 'z'; b++ {
		set[b] = true
	}
	return set
}

// IsCommonByte reports whether b is in the common-byte set.
func IsCommonByte(b byte) bool {
	return commonBytes[b]
}

// Table is a per-offset weight map with an inverse offsets-by-weight
// index, so both "weight at this offset" and "offsets with this weight"
// are O(1) after construction.
type Table struct {
	weightByOffset  map[int64]int
	offsetsByWeight map[int][]int64
}

// New creates a weight table with every offset present and initialized
// to zero.
func New(offsets []int64) *Table {
	t := &Table{
		weightByOffset:  make(map[int64]int, len(offsets)),
		offsetsByWeight: make(map[int][]int64),
	}
	for _, off := range offsets {
		t.weightByOffset[off] = 0
	}
	t.offsetsByWeight[0] = append([]int64(nil), offsets...)
	sortInt64s(t.offsetsByWeight[0])
	return t
}

// Add increments the weight at offset by delta, moving offset into the
// bucket for its new weight.
func (t *Table) Add(offset int64, delta int) {
	t.Set(offset, t.weightByOffset[offset]+delta)
}

// Set assigns the weight at offset, moving offset into the bucket for
// the new weight. The previous bucket is left as-is (matching the
// source algorithm, which never needs to remove an offset from an old
// bucket: GetLargestWeight/GetOffsetsForWeight are only ever called
// with the current largest weight).
func (t *Table) Set(offset int64, weight int) {
	t.weightByOffset[offset] = weight
	t.offsetsByWeight[weight] = append(t.offsetsByWeight[weight], offset)
}

// Largest returns the largest weight recorded, or 0 if none.
func (t *Table) Largest() int {
	largest := 0
	found := false
	for w := range t.offsetsByWeight {
		if !found || w > largest {
			largest = w
			found = true
		}
	}
	return largest
}

// OffsetsForWeight returns the offsets, ascending, whose weight is
// exactly weight. The "ascending" part is the explicit sort the scan
// tree's tie-breaking needs for reproducible output (the original
// Python implementation relied on dict-insertion order, which doesn't
// exist in Go).
func (t *Table) OffsetsForWeight(weight int) []int64 {
	offs := t.offsetsByWeight[weight]
	out := make([]int64, 0, len(offs))
	seen := make(map[int64]bool, len(offs))
	for _, off := range offs {
		if t.weightByOffset[off] == weight && !seen[off] {
			out = append(out, off)
			seen[off] = true
		}
	}
	sortInt64s(out)
	return out
}

// WeightFor returns the weight recorded for offset.
func (t *Table) WeightFor(offset int64) int {
	return t.weightByOffset[offset]
}

func sortInt64s(s []int64) {
	sort.Slice(s, func(i, j int) bool { return s[i] < s[j] })
}
