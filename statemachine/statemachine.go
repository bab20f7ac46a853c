// Package statemachine defines the generic StateMachine abstraction every
// example machine and provenance engine in this module is built against.
package statemachine

import "reflect"

// StateMachine is a deterministic transition function: Reset returns the
// machine to its initial state, and Transition applies one input, mutating
// internal state and returning the output that input produces.
//
// Implementations must be deterministic: calling Reset then replaying the
// same sequence of inputs must always produce the same sequence of
// outputs. The provenance engines in this module rely on that determinism
// to reproduce partial runs.
type StateMachine interface {
	Reset()
	Transition(input any) (any, error)
}

// WhiteBoxMachine is a StateMachine that additionally exposes its internal
// state, the capability the white-box provenance approach needs that a
// black-box StateMachine does not provide. Per-output lineage is not part of
// this interface; it is exposed by the concrete machine
// (whitebox.WhiteBox.GetOutputLineage).
type WhiteBoxMachine interface {
	StateMachine
	// State returns a snapshot of the machine's internal relations.
	State() map[string][]any
}

// IOPair is one (input, output) entry of a Trace.
type IOPair struct {
	Input  any
	Output any
}

// Trace is the ordered sequence of (input, output) pairs produced by
// running a StateMachine over a sequence of inputs.
type Trace []IOPair

// TraceEntry is one entry of an EnumeratedTrace: an IOPair tagged with its
// original index in the full trace it was drawn from.
type TraceEntry struct {
	Index int
	IOPair
}

// EnumeratedTrace is a subsequence of a Trace whose entries remember their
// original indices. The black-box provenance engine returns witnesses as
// EnumeratedTraces so callers can relate a witness back to the positions
// it occupied in the original trace.
type EnumeratedTrace []TraceEntry

// Indices returns the original trace indices of an EnumeratedTrace, in
// ascending order.
func (et EnumeratedTrace) Indices() []int {
	out := make([]int, len(et))
	for i, e := range et {
		out[i] = e.Index
	}

	return out
}

// Run resets m, then applies each input in order, building the resulting
// Trace. If Transition returns an error for any input, Run stops
// immediately and returns that error; no partial trace is returned, since
// a trace that silently drops the failing input and everything after it
// would misrepresent what actually happened.
func Run(m StateMachine, inputs []any) (Trace, error) {
	m.Reset()

	trace := make(Trace, 0, len(inputs))

	for _, input := range inputs {
		output, err := m.Transition(input)
		if err != nil {
			return nil, err
		}

		trace = append(trace, IOPair{Input: input, Output: output})
	}

	return trace, nil
}

// OutputsEqual reports whether two Transition outputs are equal. Because
// StateMachine outputs are typed `any` (spec'd as host-language values),
// structural deep equality is used rather than a hand-rolled comparison
// that would need one branch per example machine's output type.
func OutputsEqual(a, b any) bool {
	return reflect.DeepEqual(a, b)
}

// Enumerate tags each IOPair of trace with its index, producing an
// EnumeratedTrace covering the whole trace. Used as the starting point for
// the black-box engine's subset search.
func Enumerate(trace Trace) EnumeratedTrace {
	out := make(EnumeratedTrace, len(trace))
	for i, pair := range trace {
		out[i] = TraceEntry{Index: i, IOPair: pair}
	}

	return out
}
