// Package query defines the relational-algebra expression grammar shared by
// the plain evaluator (package relalgebra) and the lineage-tracking
// evaluator (package lineage). Both evaluators walk the same Node tree;
// only what they accumulate alongside each output record differs.
package query

import "github.com/correlator-io/wat/record"

// Node is the marker interface implemented by every query expression node.
// Its method is unexported so that only the node types in this package can
// implement it, the same closed-grammar discipline the original
// system enforces through its own base query class.
type Node interface {
	node()
}

// Predicate is a host-language boolean test used by Select. Name exists
// purely so two Select nodes can carry a stable, log-friendly label even
// though Go function values are not comparable; it has no effect on
// evaluation.
type Predicate struct {
	Name  string
	Match func(record.Record) bool
}

// Relation references a named relation in the database the query is
// evaluated against.
type Relation struct {
	Name string
}

func (Relation) node() {}

// NewRelation builds a Relation node.
func NewRelation(name string) Relation {
	return Relation{Name: name}
}

// RecordLit is a singleton relation containing exactly one literal record.
// It has no representation in the plain evaluator's grammar (the plain
// evaluator only ever starts from named relations); only the
// lineage-tracking evaluator accepts it, where it models a derived fact
// asserted by a rule rather than read from a base relation.
type RecordLit struct {
	Value record.Record
}

func (RecordLit) node() {}

// NewRecord builds a RecordLit node.
func NewRecord(value record.Record) RecordLit {
	return RecordLit{Value: value}
}

// Select filters the rows of Input by Pred.
type Select struct {
	Input Node
	Pred  Predicate
}

func (Select) node() {}

// NewSelect builds a Select node.
func NewSelect(input Node, pred Predicate) Select {
	return Select{Input: input, Pred: pred}
}

// Project keeps only the columns at Indices, in that order.
type Project struct {
	Input   Node
	Indices []int
}

func (Project) node() {}

// NewProject builds a Project node.
func NewProject(input Node, indices []int) Project {
	return Project{Input: input, Indices: indices}
}

// Cross is the cartesian product of Left and Right: every row of Left
// concatenated with every row of Right.
type Cross struct {
	Left, Right Node
}

func (Cross) node() {}

// NewCross builds a Cross node.
func NewCross(left, right Node) Cross {
	return Cross{Left: left, Right: right}
}

// Cup is set union of Left and Right.
type Cup struct {
	Left, Right Node
}

func (Cup) node() {}

// NewCup builds a Cup node.
func NewCup(left, right Node) Cup {
	return Cup{Left: left, Right: right}
}

// Diff is set difference: rows of Left whose tuple does not appear in
// Right.
type Diff struct {
	Left, Right Node
}

func (Diff) node() {}

// NewDiff builds a Diff node.
func NewDiff(left, right Node) Diff {
	return Diff{Left: left, Right: right}
}
