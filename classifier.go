package sigscan

import (
	"context"
	"io"

	"github.com/standardbeagle/sigscan/internal/fuzzyhint"
	"github.com/standardbeagle/sigscan/pattern"
	"github.com/standardbeagle/sigscan/pkg/xxhashid"
	"github.com/standardbeagle/sigscan/scanner"
	"github.com/standardbeagle/sigscan/signature"
)

// BufferSize is the chunk size a Classifier reads at a time, and the
// size of each half of a HeadTailScan.
const BufferSize = 16 * 1024 * 1024

// Mode selects how a Classifier walks a stream.
type Mode int

const (
	// FullScan reads the entire stream in BufferSize chunks.
	FullScan Mode = iota
	// HeadTailScan reads only the first and last BufferSize bytes of
	// streams larger than 2*BufferSize, falling back to FullScan for
	// anything smaller.
	HeadTailScan
)

// Result is the outcome of one Classify* call: the classifications
// found, plus advisory fuzzy hints when fuzzy hinting is enabled and
// nothing matched.
type Result struct {
	Classifications []Classification
	Hints           []fuzzyhint.Hint
}

// Fingerprint combines every Classification's Fingerprint via XOR into
// one order-independent identity for this Result's classifications. It
// is the batch-classification result cache's lookup key (see
// internal/batch): two Results that matched the same patterns compare
// equal with a single uint64 comparison, without walking either one's
// Classifications slice. A Result with no classifications always
// fingerprints to zero and is never cached, since there's nothing to
// reuse.
func (r Result) Fingerprint() xxhashid.ID {
	var fp xxhashid.ID
	for _, c := range r.Classifications {
		fp ^= c.Fingerprint
	}
	return fp
}

// Classifier wraps a Scanner with a read strategy and result
// aggregation. Build one per signature.Store and reuse it across any
// number of concurrent classifications: a Classifier carries no
// per-call mutable state, matching the Scanner's own
// immutable-after-construction, freely-shareable contract.
type Classifier struct {
	scanner   *scanner.Scanner
	mode      Mode
	specs     []*signature.Specification
	fuzzyHint bool
}

// New lifts every specification in store into patterns (using
// offsetMode to resolve bound-signature offset signs -- see
// pattern.OffsetMode), builds a Scanner from them, and wraps it in a
// Classifier that scans in mode.
func New(store *signature.Store, offsetMode pattern.OffsetMode, mode Mode) (*Classifier, error) {
	specs := store.Specifications()
	patterns, _, err := pattern.Build(specs, offsetMode)
	if err != nil {
		return nil, err
	}
	sc, err := scanner.New(patterns)
	if err != nil {
		return nil, err
	}
	return &Classifier{scanner: sc, mode: mode, specs: specs}, nil
}

// WithFuzzyHint turns on the advisory near-miss suggestion described in
// SPEC_FULL.md §4.10: off by default, since it costs an extra
// Jaro-Winkler pass over every specification whenever a scan finds
// nothing. Returns c so it can be chained onto New.
func (c *Classifier) WithFuzzyHint(enabled bool) *Classifier {
	c.fuzzyHint = enabled
	return c
}

// ClassifyBuffer runs a single-buffer scan: feed, stop, aggregate.
func (c *Classifier) ClassifyBuffer(data []byte) Result {
	state := c.scanner.Start()
	c.scanner.Feed(state, 0, data)
	results := c.scanner.Stop(state)
	classifications := aggregate(results)
	return Result{Classifications: classifications, Hints: c.hints(classifications, data)}
}

func (c *Classifier) hints(classifications []Classification, leading []byte) []fuzzyhint.Hint {
	if !c.fuzzyHint || len(classifications) > 0 {
		return nil
	}
	return fuzzyhint.Suggest(c.specs, leading)
}

// ClassifyStream runs a full or head/tail scan over r, depending on
// the Classifier's Mode, and aggregates the results. r must support
// random access and report its size: *os.File satisfies this, as does
// any io.ReadSeeker wrapped appropriately by the caller.
func (c *Classifier) ClassifyStream(ctx context.Context, r io.ReadSeeker) (Result, error) {
	size, err := r.Seek(0, io.SeekEnd)
	if err != nil {
		return Result{}, err
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return Result{}, err
	}

	if c.mode == HeadTailScan && size > 2*BufferSize {
		return c.headTailScan(ctx, r, size)
	}
	return c.fullScan(ctx, r)
}

func (c *Classifier) fullScan(ctx context.Context, r io.Reader) (Result, error) {
	state := c.scanner.Start()
	buf := make([]byte, BufferSize)
	offset := int64(0)
	var leading []byte

	for {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		n, err := io.ReadFull(r, buf)
		if n > 0 {
			if leading == nil {
				leading = append([]byte(nil), buf[:n]...)
			}
			c.scanner.Feed(state, offset, buf[:n])
			offset += int64(n)
		}
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			break
		}
		if err != nil {
			return Result{}, err
		}
	}

	classifications := aggregate(c.scanner.Stop(state))
	return Result{Classifications: classifications, Hints: c.hints(classifications, leading)}, nil
}

func (c *Classifier) headTailScan(ctx context.Context, r io.ReadSeeker, size int64) (Result, error) {
	state := c.scanner.Start()

	head := make([]byte, BufferSize)
	if _, err := io.ReadFull(r, head); err != nil {
		return Result{}, err
	}
	c.scanner.Feed(state, 0, head)

	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	tailOffset := size - BufferSize
	if _, err := r.Seek(tailOffset, io.SeekStart); err != nil {
		return Result{}, err
	}
	tail := make([]byte, BufferSize)
	if _, err := io.ReadFull(r, tail); err != nil {
		return Result{}, err
	}
	c.scanner.Feed(state, tailOffset, tail)

	classifications := aggregate(c.scanner.Stop(state))
	return Result{Classifications: classifications, Hints: c.hints(classifications, head)}, nil
}
