// Package xxhashid derives stable 64-bit identifiers for patterns and
// specifications from their string identifiers, so maps and caches that
// key on a pattern can compare a uint64 instead of hashing a string on
// every lookup.
package xxhashid

import "github.com/cespare/xxhash/v2"

// ID is a 64-bit identifier derived from a pattern_id or specification
// identifier string.
type ID uint64

// Of hashes the given identifier string into an ID.
func Of(identifier string) ID {
	return ID(xxhash.Sum64String(identifier))
}
