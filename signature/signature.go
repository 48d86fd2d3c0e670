// Package signature holds the immutable data model for format
// specifications: a Signature is a literal byte pattern with an optional
// offset hint, a Specification groups signatures under one format
// identifier, and a Store keys specifications by identifier.
//
// Nothing in this package validates signature length or offset sign --
// those rules depend on how a signature will be used (bound vs unbound,
// which offset mode) and are enforced when patterns are built from a
// store, in package pattern.
package signature

import (
	"fmt"
	"sort"

	"github.com/standardbeagle/sigscan/sigerrors"
)

// Signature is a literal byte expression, optionally anchored to an
// offset from the start (positive) or end (negative) of a stream.
type Signature struct {
	Expression []byte
	Offset     *int64
	IsBound    bool
}

// HasOffset reports whether the signature declares an offset.
func (s Signature) HasOffset() bool {
	return s.Offset != nil
}

// Specification is a named collection of signatures describing one file
// format, plus passthrough metadata the core scanner never consults.
type Specification struct {
	Identifier string
	Signatures []Signature
	MimeTypes  []string
	UTI        []string
}

// NewSpecification creates an empty specification. Specifications are
// normally obtained from Store.AddSpecification rather than constructed
// directly, so the identifier is unique within its store.
func NewSpecification(identifier string) *Specification {
	return &Specification{Identifier: identifier}
}

// AddSignature appends a signature to the specification. offset is nil
// for a signature with no declared offset.
func (s *Specification) AddSignature(expression []byte, offset *int64, isBound bool) *Specification {
	s.Signatures = append(s.Signatures, Signature{
		Expression: expression,
		Offset:     offset,
		IsBound:    isBound,
	})
	return s
}

// AddMimeType records a downstream MIME type hint. Not consulted by the
// core scanner.
func (s *Specification) AddMimeType(mimeType string) *Specification {
	s.MimeTypes = append(s.MimeTypes, mimeType)
	return s
}

// AddUTI records a downstream Uniform Type Identifier hint. Not
// consulted by the core scanner.
func (s *Specification) AddUTI(uti string) *Specification {
	s.UTI = append(s.UTI, uti)
	return s
}

// Store keys specifications by identifier. Iteration order of the
// underlying map is not observable: Specifications returns entries
// sorted by identifier so that scan-tree construction built on top of a
// Store is reproducible.
type Store struct {
	specs map[string]*Specification
}

// NewStore creates an empty specification store.
func NewStore() *Store {
	return &Store{specs: make(map[string]*Specification)}
}

// AddSpecification creates and registers a new specification. It fails
// with sigerrors.KindDuplicateIdentifier if identifier is already
// present.
func (st *Store) AddSpecification(identifier string) (*Specification, error) {
	if _, exists := st.specs[identifier]; exists {
		return nil, sigerrors.New(sigerrors.KindDuplicateIdentifier, "signature.Store.AddSpecification",
			fmt.Sprintf("specification %q is already defined in store", identifier))
	}
	spec := NewSpecification(identifier)
	st.specs[identifier] = spec
	return spec, nil
}

// Specification looks up a specification by identifier.
func (st *Store) Specification(identifier string) (*Specification, bool) {
	spec, ok := st.specs[identifier]
	return spec, ok
}

// Specifications returns every specification in the store, sorted
// ascending by identifier for deterministic downstream processing.
func (st *Store) Specifications() []*Specification {
	out := make([]*Specification, 0, len(st.specs))
	for _, spec := range st.specs {
		out = append(out, spec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Identifier < out[j].Identifier })
	return out
}

// Len reports the number of specifications in the store.
func (st *Store) Len() int {
	return len(st.specs)
}
