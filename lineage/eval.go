package lineage

import (
	"errors"
	"fmt"

	"github.com/correlator-io/wat/query"
	"github.com/correlator-io/wat/record"
)

// ErrUnknownRelation is returned when a query.Relation names a relation
// absent from the Database it is evaluated against. Unlike the plain
// evaluator, this is always a fatal, unrecoverable error here: the
// white-box machine is expected to maintain a schema that guarantees every
// relation a rule references already exists.
var ErrUnknownRelation = errors.New("unknown relation")

// Eval evaluates node against db, returning a set of (record, witness)
// pairs. Each node type contributes lineage as follows:
//
//   - Relation: each tuple is tagged with a singleton witness naming its
//     own RecordId.
//   - RecordLit: the literal record is tagged with an empty witness (true
//     unconditionally); used by rules to assert a derived fact that does
//     not depend on any other tuple's presence.
//   - Select, Project: pass the input witness through unchanged.
//   - Cross: the witness of a combined row is the union (conjunction) of
//     both sides' witnesses.
//   - Cup: pairs from both sides are kept; the same record reached through
//     two different witnesses yields two distinct result entries.
//   - Diff: left-hand pairs are kept when their record is absent from the
//     right-hand side's records; right-hand witnesses are not consulted
//     (the one place this evaluator cannot explain an absence).
func Eval(node query.Node, db Database) (Result, error) {
	switch n := node.(type) {
	case query.Relation:
		rel, ok := db[n.Name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownRelation, n.Name)
		}

		out := make(Result, len(rel))

		for _, tr := range rel {
			id := RecordId{Relation: n.Name, Record: tr.Record, Timestamp: tr.Timestamp}
			out.Add(Pair{Record: tr.Record, Witness: NewWitness(id)})
		}

		return out, nil

	case query.RecordLit:
		return NewResult(Pair{Record: n.Value, Witness: NewWitness()}), nil

	case query.Select:
		input, err := Eval(n.Input, db)
		if err != nil {
			return nil, err
		}

		out := make(Result)

		for _, p := range input {
			if n.Pred.Match(p.Record) {
				out.Add(p)
			}
		}

		return out, nil

	case query.Project:
		input, err := Eval(n.Input, db)
		if err != nil {
			return nil, err
		}

		out := make(Result)

		for _, p := range input {
			out.Add(Pair{Record: record.Project(p.Record, n.Indices), Witness: p.Witness})
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

		out := make(Result, len(left)*len(right))

		for _, l := range left {
			for _, r := range right {
				out.Add(Pair{
					Record:  record.Concat(l.Record, r.Record),
					Witness: l.Witness.Union(r.Witness),
				})
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

		rightRecords := right.Records()
		out := make(Result)

		for _, p := range left {
			if !rightRecords.Contains(p.Record) {
				out.Add(p)
			}
		}

		return out, nil

	default:
		return nil, fmt.Errorf("unrecognized query node: %T", node)
	}
}
