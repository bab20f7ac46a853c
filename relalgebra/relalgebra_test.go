package relalgebra_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/correlator-io/wat/query"
	"github.com/correlator-io/wat/record"
	"github.com/correlator-io/wat/relalgebra"
)

func TestEvalUnknownRelation(t *testing.T) {
	_, err := relalgebra.Eval(query.NewRelation("missing"), relalgebra.Database{})
	require.True(t, errors.Is(err, relalgebra.ErrUnknownRelation))
}

func TestEvalRecordLitUnsupported(t *testing.T) {
	_, err := relalgebra.Eval(query.NewRecord(record.Record{"x"}), relalgebra.Database{})
	require.True(t, errors.Is(err, relalgebra.ErrRecordLitUnsupported))
}

func TestEvalCrossSelectProject(t *testing.T) {
	db := relalgebra.Database{
		"left":  record.NewSet(record.Record{"1", "a"}, record.Record{"2", "b"}),
		"right": record.NewSet(record.Record{"1", "x"}, record.Record{"2", "y"}),
	}

	q := query.NewProject(
		query.NewSelect(
			query.NewCross(query.NewRelation("left"), query.NewRelation("right")),
			query.Predicate{Name: "keys match", Match: func(r record.Record) bool { return r[0] == r[2] }},
		),
		[]int{1, 3},
	)

	result, err := relalgebra.Eval(q, db)
	require.NoError(t, err)
	require.True(t, result.Contains(record.Record{"a", "x"}))
	require.True(t, result.Contains(record.Record{"b", "y"}))
	require.Len(t, result, 2)
}

func TestEvalCupAndDiff(t *testing.T) {
	db := relalgebra.Database{
		"r": record.NewSet(record.Record{"a"}, record.Record{"b"}),
		"s": record.NewSet(record.Record{"b"}, record.Record{"c"}),
	}

	union, err := relalgebra.Eval(query.NewCup(query.NewRelation("r"), query.NewRelation("s")), db)
	require.NoError(t, err)
	require.Len(t, union, 3)

	diff, err := relalgebra.Eval(query.NewDiff(query.NewRelation("r"), query.NewRelation("s")), db)
	require.NoError(t, err)
	require.Len(t, diff, 1)
	require.True(t, diff.Contains(record.Record{"a"}))
}

// TestProjectFullArityIsIdentity covers the round-trip property: projecting
// every column in order reproduces the input set exactly.
func TestProjectFullArityIsIdentity(t *testing.T) {
	db := relalgebra.Database{
		"r": record.NewSet(record.Record{"a", "1"}, record.Record{"b", "2"}),
	}

	result, err := relalgebra.Eval(query.NewProject(query.NewRelation("r"), []int{0, 1}), db)
	require.NoError(t, err)
	require.Equal(t, db["r"], result)
}

// TestCupIsIdempotent covers the round-trip property Cup(q, q) = q.
func TestCupIsIdempotent(t *testing.T) {
	db := relalgebra.Database{
		"r": record.NewSet(record.Record{"a"}, record.Record{"b"}),
	}

	result, err := relalgebra.Eval(query.NewCup(query.NewRelation("r"), query.NewRelation("r")), db)
	require.NoError(t, err)
	require.Equal(t, db["r"], result)
}

// TestDiffOfSetWithItselfIsEmpty covers the round-trip property Diff(q, q) = ∅.
func TestDiffOfSetWithItselfIsEmpty(t *testing.T) {
	db := relalgebra.Database{
		"r": record.NewSet(record.Record{"a"}, record.Record{"b"}),
	}

	result, err := relalgebra.Eval(query.NewDiff(query.NewRelation("r"), query.NewRelation("r")), db)
	require.NoError(t, err)
	require.Empty(t, result)
}
