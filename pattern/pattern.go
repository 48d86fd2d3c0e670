// Package pattern lifts signatures from a specification store into
// scannable Patterns, and indexes a set of patterns into a PatternTable
// keyed by (offset, byte value) -- the structure a scan tree is built
// from.
package pattern

import (
	"fmt"

	"github.com/standardbeagle/sigscan/pkg/xxhashid"
	"github.com/standardbeagle/sigscan/rangelist"
	"github.com/standardbeagle/sigscan/sigerrors"
	"github.com/standardbeagle/sigscan/signature"
)

// OffsetMode controls how a signature's offset sign is handled while
// building patterns.
type OffsetMode int

const (
	// OffsetModePositiveStrict requires every considered offset to be
	// >= 0; a negative offset aborts construction.
	OffsetModePositiveStrict OffsetMode = iota
	// OffsetModePositiveOnly silently drops signatures with a negative
	// offset.
	OffsetModePositiveOnly
	// OffsetModeNegativeStrict requires every considered offset to be
	// <= 0; a positive offset aborts construction.
	OffsetModeNegativeStrict
	// OffsetModeNegativeOnly silently drops signatures with a positive
	// offset.
	OffsetModeNegativeOnly
)

// Pattern is a Signature lifted for scanning, with a stable identifier
// derived from its owning specification and signature index.
type Pattern struct {
	ID            string
	NumericID     xxhashid.ID
	Signature     signature.Signature
	Specification *signature.Specification
}

// Bytes returns the pattern's literal expression. It satisfies
// skiptable.Expression.
func (p *Pattern) Bytes() []byte {
	return p.Signature.Expression
}

func (p *Pattern) String() string {
	return p.ID
}

// Build lifts every signature across every specification in specs into
// a Pattern, validating each signature's offset against offsetMode and
// its expression length (>= 4), and records the bound signatures'
// absolute byte ranges into a RangeList.
//
// A signature's offset only feeds the RangeList and the offset-mode
// check when the signature itself is bound; unbound signatures
// contribute a hint offset of 0 to the RangeList (their declared Offset
// field, if any, is a scan-time hint only -- see Signature.HasOffset).
//
// Build fails fast with sigerrors.KindPatternTooShort the first time it
// finds an expression under 4 bytes: a store that can't be fully lifted
// is not safely scannable.
func Build(specs []*signature.Specification, offsetMode OffsetMode) ([]*Pattern, *rangelist.List, error) {
	var out []*Pattern
	ranges := rangelist.New()

	for _, spec := range specs {
		for sigIndex, sig := range spec.Signatures {
			if len(sig.Expression) == 0 {
				continue
			}

			if len(sig.Expression) < 4 {
				return nil, nil, sigerrors.New(sigerrors.KindPatternTooShort, "pattern.Build",
					fmt.Sprintf("%s signature %d: expression shorter than 4 bytes", spec.Identifier, sigIndex))
			}

			var effectiveOffset int64
			if sig.IsBound && sig.Offset != nil {
				effectiveOffset = *sig.Offset
			}

			rangeOffset := effectiveOffset

			if sig.IsBound {
				switch {
				case effectiveOffset < 0:
					switch offsetMode {
					case OffsetModePositiveStrict:
						return nil, nil, sigerrors.New(sigerrors.KindInvalidOffset, "pattern.Build",
							fmt.Sprintf("%s signature %d: offset %d is negative", spec.Identifier, sigIndex, effectiveOffset))
					case OffsetModePositiveOnly:
						continue
					default:
						rangeOffset = -effectiveOffset
					}
				case effectiveOffset > 0:
					switch offsetMode {
					case OffsetModeNegativeStrict:
						return nil, nil, sigerrors.New(sigerrors.KindInvalidOffset, "pattern.Build",
							fmt.Sprintf("%s signature %d: offset %d is positive", spec.Identifier, sigIndex, effectiveOffset))
					case OffsetModeNegativeOnly:
						continue
					}
				}
			}

			id := fmt.Sprintf("%s_%d", spec.Identifier, sigIndex)
			p := &Pattern{
				ID:            id,
				NumericID:     xxhashid.Of(id),
				Signature:     sig,
				Specification: spec,
			}
			out = append(out, p)
			ranges.Insert(rangeOffset, int64(len(sig.Expression)))
		}
	}

	return out, ranges, nil
}
