// Package sigerrors defines the tagged error kinds raised by the scan-tree
// signature scanner and its supporting packages.
//
// Construction-time kinds (PatternTooShort, DuplicateIdentifier,
// InvalidOffset, NoDiscriminator, InvariantBroken) are fatal to the object
// being built. DataOffsetOutOfBounds is a scan-time kind, fatal only to
// the scan in progress; the Scanner or Classifier remains usable for
// further scans. IoError reports a specification catalog that could not
// be loaded.
package sigerrors

import (
	"errors"
	"fmt"
)

// Kind tags the category of a classifier error.
type Kind string

const (
	// KindPatternTooShort is raised when a signature expression is
	// shorter than 4 bytes.
	KindPatternTooShort Kind = "pattern_too_short"
	// KindDuplicateIdentifier is raised when a specification store
	// already holds a specification (or pattern) with the given
	// identifier.
	KindDuplicateIdentifier Kind = "duplicate_identifier"
	// KindInvalidOffset is raised when a signature offset's sign
	// violates the configured offset mode.
	KindInvalidOffset Kind = "invalid_offset"
	// KindInvalidByteValue is raised for a byte value outside [0, 256).
	KindInvalidByteValue Kind = "invalid_byte_value"
	// KindInvalidSkipValue is raised for a skip value outside
	// [0, skip_pattern_length).
	KindInvalidSkipValue Kind = "invalid_skip_value"
	// KindNoDiscriminator is raised when value-weight selection finds
	// no positive weight for a set of patterns that must be
	// distinguished.
	KindNoDiscriminator Kind = "no_discriminator"
	// KindDataOffsetOutOfBounds is raised when the scanner's internal
	// bookkeeping would read outside of the buffer it was given.
	KindDataOffsetOutOfBounds Kind = "data_offset_out_of_bounds"
	// KindInvariantBroken is raised when a structural invariant
	// (e.g. an empty byte-value pattern set while building a scan
	// tree node) is violated.
	KindInvariantBroken Kind = "invariant_broken"
	// KindIoError wraps a failure to read or parse a specification
	// catalog (package internal/sigconfig). Reader errors from
	// Classifier.ClassifyStream are returned as they are, unwrapped.
	KindIoError Kind = "io_error"
)

// Error is the carrier type for every error this module raises. Op
// names the operation that failed (e.g. "pattern.Build",
// "scantree.Build"); Detail gives a short human-readable reason; Err,
// when set, is the underlying cause and is reachable through Unwrap.
type Error struct {
	Kind   Kind
	Op     string
	Detail string
	Err    error
}

func (e *Error) Error() string {
	if e.Detail != "" {
		if e.Err != nil {
			return fmt.Sprintf("%s: %s: %s: %v", e.Op, e.Kind, e.Detail, e.Err)
		}
		return fmt.Sprintf("%s: %s: %s", e.Op, e.Kind, e.Detail)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is a *Error of the same Kind; Op, Detail
// and Err are not compared, so errors.Is(err, sigerrors.New(KindX, "", ""))
// matches any error of kind KindX. The package-level Is helper below
// is the simpler form of the same check.
func (e *Error) Is(target error) bool {
	var other *Error
	if errors.As(target, &other) {
		return e.Kind == other.Kind
	}
	return false
}

// New creates a new *Error with the given kind, operation and detail.
func New(kind Kind, op, detail string) *Error {
	return &Error{Kind: kind, Op: op, Detail: detail}
}

// Wrap creates a new *Error that carries an underlying cause.
func Wrap(kind Kind, op, detail string, err error) *Error {
	return &Error{Kind: kind, Op: op, Detail: detail, Err: err}
}

// Is reports whether err is a sigerrors.Error of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}
