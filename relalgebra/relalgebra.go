// Package relalgebra evaluates query.Node trees over a plain relational
// database, returning a set of records with no lineage attached. This is
// the evaluator the "db" example machine uses directly; package lineage
// provides the lineage-tracking counterpart consumed internally by the
// white-box machine.
package relalgebra

import (
	"errors"
	"fmt"

	"github.com/correlator-io/wat/query"
	"github.com/correlator-io/wat/record"
)

// ErrUnknownRelation is returned when a query.Relation names a relation
// absent from the Database it is evaluated against.
var ErrUnknownRelation = errors.New("unknown relation")

// ErrRecordLitUnsupported is returned when a query.RecordLit node is
// evaluated by this package. The plain evaluator has no singleton-relation
// constructor; RecordLit exists only for the lineage-tracking evaluator,
// where it models a derived fact asserted by a rule.
var ErrRecordLitUnsupported = errors.New("RecordLit is not supported by the plain evaluator")

// RelationSet is a named relation's current contents.
type RelationSet = record.Set

// Schema maps each relation name to its arity, used to validate that
// queries and inserts agree on column count.
type Schema map[string]int

// Database is a snapshot of every relation's contents at some instant,
// keyed by relation name.
type Database map[string]RelationSet

// Eval evaluates node against db, returning the resulting set of records.
// An error is returned in exactly two cases: a query.Relation names a
// relation absent from db (ErrUnknownRelation), or the tree contains a
// query.RecordLit (ErrRecordLitUnsupported). Both are caught by callers
// that need query-domain errors to be recoverable rather than fatal; see
// examples/db.
func Eval(node query.Node, db Database) (RelationSet, error) {
	switch n := node.(type) {
	case query.Relation:
		rel, ok := db[n.Name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownRelation, n.Name)
		}

		return rel, nil

	case query.RecordLit:
		return nil, fmt.Errorf("%w: %v", ErrRecordLitUnsupported, n.Value)

	case query.Select:
		input, err := Eval(n.Input, db)
		if err != nil {
			return nil, err
		}

		out := make(RelationSet)

		for _, r := range input {
			if n.Pred.Match(r) {
				out.Add(r)
			}
		}

		return out, nil

	case query.Project:
		input, err := Eval(n.Input, db)
		if err != nil {
			return nil, err
		}

		out := make(RelationSet)

		for _, r := range input {
			out.Add(record.Project(r, n.Indices))
		}

		return out, nil

	case query.Cross:
		left, err := Eval(n.Left, db)
		if err != nil {
			return nil, err
		}

		right, err := Eval(n.Right, db)
		if err != nil {
			return nil, err
		}

		out := make(RelationSet, len(left)*len(right))

		for _, l := range left {
			for _, r := range right {
				out.Add(record.Concat(l, r))
			}
		}

		return out, nil

	case query.Cup:
		left, err := Eval(n.Left, db)
		if err != nil {
			return nil, err
		}

		right, err := Eval(n.Right, db)
		if err != nil {
			return nil, err
		}

		return left.Union(right), nil

	case query.Diff:
		left, err := Eval(n.Left, db)
		if err != nil {
			return nil, err
		}

		right, err := Eval(n.Right, db)
		if err != nil {
			return nil, err
		}

		return left.Diff(right), nil

	default:
		return nil, fmt.Errorf("unrecognized query node: %T", node)
	}
}
