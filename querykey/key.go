// Package querykey defines the hierarchical keys used to address cache entries.
//
// A Key is an immutable, ordered tuple of string segments. Keys compare
// structurally, and a key that is a prefix of another is its ancestor for
// invalidation: invalidating ["tasks"] reaches ["tasks", "status", "pending"].
//
// Keys should only be built through the registries in registry.go so that
// reads and invalidations always agree on the shape of a key.
package querykey

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/cespare/xxhash/v2"
)

// Key is an immutable ordered sequence of segments.
type Key struct {
	segments []string
}

// New builds a Key from the given segments. The slice is copied.
func New(segments ...string) Key {
	return Key{segments: slices.Clone(segments)}
}

// Parse is the inverse of Key.String.
func Parse(s string) (Key, error) {
	var segments []string
	if err := json.Unmarshal([]byte(s), &segments); err != nil {
		return Key{}, fmt.Errorf("parse query key %q: %w", s, err)
	}
	return Key{segments: segments}, nil
}

// Segments returns a copy of the key segments.
func (k Key) Segments() []string {
	return slices.Clone(k.segments)
}

// Len returns the number of segments.
func (k Key) Len() int {
	return len(k.segments)
}

// IsZero reports whether the key has no segments.
func (k Key) IsZero() bool {
	return len(k.segments) == 0
}

// Resource returns the first segment, the resource domain of the key.
func (k Key) Resource() string {
	if len(k.segments) == 0 {
		return ""
	}
	return k.segments[0]
}

// Append returns a new key extending k with the given segments.
func (k Key) Append(segments ...string) Key {
	out := make([]string, 0, len(k.segments)+len(segments))
	out = append(out, k.segments...)
	out = append(out, segments...)
	return Key{segments: out}
}

// Equal reports element-wise equality.
func (k Key) Equal(other Key) bool {
	return slices.Equal(k.segments, other.segments)
}

// HasPrefix reports whether prefix is an ancestor of (or equal to) k.
// The empty key is a prefix of every key.
func (k Key) HasPrefix(prefix Key) bool {
	if len(prefix.segments) > len(k.segments) {
		return false
	}
	return slices.Equal(k.segments[:len(prefix.segments)], prefix.segments)
}

// String returns the stable JSON array encoding of the key, e.g.
// ["tasks","status","pending"]. It is used as the storage address.
func (k Key) String() string {
	segments := k.segments
	if segments == nil {
		segments = []string{}
	}
	// json.Marshal on []string cannot fail
	data, _ := json.Marshal(segments)
	return string(data)
}

// Hash returns a 64-bit fingerprint of the stable encoding.
func (k Key) Hash() uint64 {
	return xxhash.Sum64String(k.String())
}

// MarshalJSON encodes the key as its segment array.
func (k Key) MarshalJSON() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalJSON decodes a segment array.
func (k *Key) UnmarshalJSON(data []byte) error {
	parsed, err := Parse(string(data))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
