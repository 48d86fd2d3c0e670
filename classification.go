// Package sigscan classifies byte streams against a store of file
// format signatures. It builds a Scanner from a signature.Store once,
// then lets a Classifier run any number of scans against it in
// FullScan or HeadTailScan mode, aggregating raw pattern matches into
// per-specification Classifications.
package sigscan

import (
	"github.com/standardbeagle/sigscan/pkg/xxhashid"
	"github.com/standardbeagle/sigscan/scanner"
	"github.com/standardbeagle/sigscan/signature"
)

// ScanResult is one accepted match, reduced to the fields a caller of
// Classify cares about: where it was found and which specification it
// belongs to. PatternID carries the matched pattern's NumericID so a
// caller (or the batch-classification result cache -- see
// internal/batch) can compare matches by a single uint64 instead of by
// Specification identity.
type ScanResult struct {
	FileOffset    int64
	Specification *signature.Specification
	PatternID     xxhashid.ID
}

// Classification aggregates every ScanResult for one matched
// specification. Fingerprint combines the NumericID of every distinct
// pattern matched in ScanResults via XOR (a pattern matched several
// times counts once): an order-independent, map-free
// identity for "did this classification match the same patterns as
// that one", collision-resistant in the same sense as the NumericIDs
// it is built from.
type Classification struct {
	Identifier  string
	MimeTypes   []string
	UTI         []string
	ScanResults []ScanResult
	Fingerprint xxhashid.ID
}

// aggregate groups raw scanner results by specification identifier,
// preserving each group's insertion order and emitting the groups in
// the order their identifiers were first seen in results.
func aggregate(results []scanner.Result) []Classification {
	order := make([]string, 0)
	byIdentifier := make(map[string]*Classification)
	fingerprinted := make(map[string]bool)

	for _, r := range results {
		spec := r.Pattern.Specification
		c, ok := byIdentifier[spec.Identifier]
		if !ok {
			c = &Classification{
				Identifier: spec.Identifier,
				MimeTypes:  spec.MimeTypes,
				UTI:        spec.UTI,
			}
			byIdentifier[spec.Identifier] = c
			order = append(order, spec.Identifier)
		}
		c.ScanResults = append(c.ScanResults, ScanResult{
			FileOffset:    r.FileOffset,
			Specification: spec,
			PatternID:     r.Pattern.NumericID,
		})
		if !fingerprinted[r.Pattern.ID] {
			fingerprinted[r.Pattern.ID] = true
			c.Fingerprint ^= r.Pattern.NumericID
		}
	}

	out := make([]Classification, 0, len(order))
	for _, id := range order {
		out = append(out, *byIdentifier[id])
	}
	return out
}
