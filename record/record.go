// Package record provides the Record value type shared by both relational
// evaluators (plain and lineage-tracking) and by every example state
// machine's input/output types.
package record

import "strings"

// fieldSeparator joins a Record's fields into a single comparable string
// key. The ASCII unit separator is used instead of a visible character
// (e.g. a comma) because field values are not restricted to any particular
// alphabet and must not collide with a separator that could also occur
// inside a field.
const fieldSeparator = "\x1f"

// Record is an ordered tuple of string-valued fields, matching the
// original system's convention that stored values are strings (callers
// encode richer types as strings at the boundary). Two records are equal
// when they have the same arity and identical fields in the same order.
type Record []string

// Key returns a canonical string suitable for use as a map key, giving
// Record set semantics (two records with the same Key are the same tuple).
func (r Record) Key() string {
	return strings.Join(r, fieldSeparator)
}

// Equal reports whether r and other have the same arity and fields.
func (r Record) Equal(other Record) bool {
	if len(r) != len(other) {
		return false
	}

	for i := range r {
		if r[i] != other[i] {
			return false
		}
	}

	return true
}

// Project returns a new Record containing only the fields at the given
// column indices, in the order given. It is the Record-level primitive
// behind the query.Project operator.
func Project(r Record, indices []int) Record {
	out := make(Record, len(indices))
	for i, idx := range indices {
		out[i] = r[idx]
	}

	return out
}

// Concat returns a new Record formed by appending b's fields after a's,
// the Record-level primitive behind the query.Cross operator.
func Concat(a, b Record) Record {
	out := make(Record, 0, len(a)+len(b))
	out = append(out, a...)
	out = append(out, b...)

	return out
}

// Set is a set of Records, keyed by Record.Key().
type Set map[string]Record

// NewSet builds a Set from a slice of records.
func NewSet(records ...Record) Set {
	s := make(Set, len(records))
	for _, r := range records {
		s[r.Key()] = r
	}

	return s
}

// Add inserts r into s.
func (s Set) Add(r Record) {
	s[r.Key()] = r
}

// Contains reports whether r is a member of s.
func (s Set) Contains(r Record) bool {
	_, ok := s[r.Key()]

	return ok
}

// Slice returns the records of s in no particular order.
func (s Set) Slice() []Record {
	out := make([]Record, 0, len(s))
	for _, r := range s {
		out = append(out, r)
	}

	return out
}

// Union returns a new Set containing every record in either s or other.
func (s Set) Union(other Set) Set {
	out := make(Set, len(s)+len(other))

	for k, r := range s {
		out[k] = r
	}

	for k, r := range other {
		out[k] = r
	}

	return out
}

// Diff returns a new Set containing the records of s whose Key is absent
// from other.
func (s Set) Diff(other Set) Set {
	out := make(Set, len(s))

	for k, r := range s {
		if _, ok := other[k]; !ok {
			out[k] = r
		}
	}

	return out
}
