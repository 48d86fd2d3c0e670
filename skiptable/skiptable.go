// Package skiptable implements the Boyer-Moore-Horspool shift table used
// by the streaming scanner to skip ahead when the byte under the scan
// tree's current offset does not lead to a match.
package skiptable

import "github.com/standardbeagle/sigscan/sigerrors"

// Expression is the minimal view of a pattern this package needs: its
// literal byte expression. Callers pass a slice of these rather than a
// concrete pattern type so that skiptable has no dependency on package
// pattern.
type Expression interface {
	Bytes() []byte
}

// Table is a BMH shift table: the skip distance for a byte not present
// in the map defaults to Length.
type Table struct {
	Length     int
	skipByByte map[byte]int
}

// Build derives a skip table from length (the shortest pattern length
// across the set) and patterns (every pattern that will share the
// table). For each pattern, the first Length bytes are walked
// left-to-right; at position i the candidate skip is Length-1-i, and it
// is only recorded if no smaller skip has already been recorded for
// that byte value -- the table always holds the smallest observed skip.
func Build(length int, patterns []Expression) *Table {
	t := &Table{Length: length, skipByByte: make(map[byte]int)}
	for _, p := range patterns {
		expr := p.Bytes()
		for i := 0; i < length && i < len(expr); i++ {
			skip := length - 1 - i
			t.setSkip(expr[i], skip)
		}
	}
	return t
}

func (t *Table) setSkip(b byte, skip int) {
	if skip < 0 || skip >= t.Length {
		panic(sigerrors.New(sigerrors.KindInvalidSkipValue, "skiptable.Table.setSkip", "skip value out of bounds"))
	}
	if existing, ok := t.skipByByte[b]; !ok || existing > skip {
		t.skipByByte[b] = skip
	}
}

// Skip returns the shift distance for b, or Length (the default BMH
// shift) if b was never observed in the table's patterns.
func (t *Table) Skip(b byte) int {
	if skip, ok := t.skipByByte[b]; ok {
		return skip
	}
	return t.Length
}
