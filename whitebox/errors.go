package whitebox

import "errors"

// Sentinel errors for white-box construction and transition failures. All
// of these represent invariant violations: callers must not continue
// calling Transition after one is returned.
var (
	ErrDuplicateTable     = errors.New("relation already has a table")
	ErrDuplicateRules     = errors.New("relation already has rules registered")
	ErrMissingRules       = errors.New("rules must be non-empty")
	ErrUnknownRelation    = errors.New("unknown relation")
	ErrArityMismatch      = errors.New("record arity does not match relation schema")
	ErrRulesNotRegistered = errors.New("no rules registered for relation")
	ErrNoOutputLineage    = errors.New("no recorded output lineage at index")
	ErrUnrecognizedInput  = errors.New("unrecognized input")
)
