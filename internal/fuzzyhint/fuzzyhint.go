// Package fuzzyhint offers an advisory "maybe this format?" suggestion
// when a scan produces zero classifications, using the same
// Jaro-Winkler algorithm the teacher's internal/semantic.FuzzyMatcher
// uses for term matching, applied here to leading-byte windows instead
// of strings.
package fuzzyhint

import (
	"sort"

	"github.com/hbollon/go-edlib"

	"github.com/standardbeagle/sigscan/signature"
)

// Threshold is the minimum similarity score a specification must clear
// to be surfaced as a hint.
const Threshold = 0.70

// MaxHints caps how many hints Suggest returns.
const MaxHints = 5

// Hint is one advisory near-miss suggestion.
type Hint struct {
	Identifier string
	Score      float64
}

// Suggest compares each specification's first unbound signature (the
// one with the smallest offset) against the window of data starting at
// that signature's offset (0 when it declares none), using normalized
// Jaro-Winkler similarity, byte-for-byte as strings of raw byte values. Specifications scoring above Threshold are returned
// sorted by descending score, capped at MaxHints.
func Suggest(specs []*signature.Specification, data []byte) []Hint {
	var hints []Hint

	for _, spec := range specs {
		sig, ok := smallestUnboundOffset(spec)
		if !ok {
			continue
		}

		expr := sig.Expression
		window := windowAt(data, offsetOf(sig), len(expr))
		if len(window) == 0 {
			continue
		}

		score, err := edlib.StringsSimilarity(string(window), string(expr), edlib.JaroWinkler)
		if err != nil {
			continue
		}
		if float64(score) > Threshold {
			hints = append(hints, Hint{Identifier: spec.Identifier, Score: float64(score)})
		}
	}

	sort.Slice(hints, func(i, j int) bool {
		if hints[i].Score != hints[j].Score {
			return hints[i].Score > hints[j].Score
		}
		return hints[i].Identifier < hints[j].Identifier
	})

	if len(hints) > MaxHints {
		hints = hints[:MaxHints]
	}
	return hints
}

func smallestUnboundOffset(spec *signature.Specification) (signature.Signature, bool) {
	best := signature.Signature{}
	found := false
	bestOffset := int64(0)

	for _, sig := range spec.Signatures {
		if sig.IsBound || len(sig.Expression) == 0 {
			continue
		}
		offset := offsetOf(sig)
		if !found || offset < bestOffset {
			best, bestOffset, found = sig, offset, true
		}
	}
	return best, found
}

func offsetOf(sig signature.Signature) int64 {
	if sig.Offset == nil {
		return 0
	}
	return *sig.Offset
}

func windowAt(data []byte, offset int64, length int) []byte {
	if offset < 0 || offset >= int64(len(data)) {
		return nil
	}
	end := offset + int64(length)
	if end > int64(len(data)) {
		end = int64(len(data))
	}
	return data[offset:end]
}
