// Package wat implements the black-box provenance engine: given a
// deterministic state machine, a trace, and an index into that trace, it
// enumerates the minimal, superset-closed, maximally-late sub-traces of the
// trace's prefix that reproduce the observed output at that index.
//
// The search is exponential in the length of the prefix by construction
// (every subset of the prefix is a candidate witness); this module makes no
// attempt to bound that cost, per its own design notes on long traces.
package wat

import (
	"context"
	"fmt"
	"sort"

	"github.com/correlator-io/wat/internal/diagnostics"
	"github.com/correlator-io/wat/statemachine"
)

// Wat enumerates the witnesses for trace[j] given the prefix trace[0:j].
//
// A witness is a sub-trace of trace[0:j] that is:
//   - superset-closed: replaying the witness followed by any extension back
//     up to the full prefix still reproduces trace[j]'s output when the
//     same input is applied next, and
//   - minimal: no strict sub-trace of the witness is itself closed.
//
// The returned witnesses are then filtered to keep only the maximally-late
// ones: a witness is dropped if some other witness starts strictly after it
// ends, since the later witness is considered to make the earlier one's
// explanation redundant.
//
// Wat calls m.Reset and m.Transition repeatedly while probing candidate
// sub-traces; m must not be shared with another goroutine while a call is
// in flight. Any error returned by m.Transition during a probe aborts the
// whole call and is returned unchanged.
func Wat(m statemachine.StateMachine, trace statemachine.Trace, j int) ([]statemachine.EnumeratedTrace, error) {
	if j < 0 || j >= len(trace) {
		return nil, fmt.Errorf("wat: index %d out of range for trace of length %d", j, len(trace))
	}

	prefix := statemachine.Enumerate(trace[:j])
	target := trace[j]

	corrID := diagnostics.CorrelationID()
	logger := diagnostics.NewLoggerFromEnv().With("correlation_id", corrID, "component", "wat")
	progress := diagnostics.NewProgressLimiterFromEnv()

	logger.Debug("starting black-box search", "prefix_length", len(prefix))

	s := &search{
		m:        m,
		prefix:   prefix,
		target:   target,
		full:     fullMask(len(prefix)),
		cache:    make(map[int]satisfyResult, 1<<len(prefix)),
		logger:   logger,
		progress: progress,
	}

	witnesses, err := s.witnesses(context.Background())
	if err != nil {
		return nil, err
	}

	filtered := happensBeforeFilter(witnesses)

	logger.Debug("finished black-box search", "witness_count", len(filtered))

	return filtered, nil
}

type satisfyResult struct {
	ok  bool
	err error
}

type search struct {
	m        statemachine.StateMachine
	prefix   statemachine.EnumeratedTrace
	target   statemachine.IOPair
	full     int
	cache    map[int]satisfyResult
	logger   interface{ Debug(string, ...any) }
	progress *diagnostics.ProgressLimiter
}

// witnesses returns every closed, minimal sub-trace of the prefix, in no
// particular order.
func (s *search) witnesses(ctx context.Context) ([]statemachine.EnumeratedTrace, error) {
	var out []statemachine.EnumeratedTrace

	evaluated := 0

	for mask := 0; mask <= s.full; mask++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		evaluated++

		if s.progress.Allow() {
			s.logger.Debug("black-box search progress", "masks_evaluated", evaluated, "masks_total", s.full+1)
		}

		closed, err := s.closedUnderSuperset(mask)
		if err != nil {
			return nil, err
		}

		if !closed {
			continue
		}

		minimal, err := s.isMinimal(mask)
		if err != nil {
			return nil, err
		}

		if minimal {
			out = append(out, s.subtrace(mask))
		}
	}

	return out, nil
}

// closedUnderSuperset reports whether every superset of mask (within the
// full prefix) satisfies the target (input, output) pair.
func (s *search) closedUnderSuperset(mask int) (bool, error) {
	for _, super := range supersets(mask, s.full) {
		ok, err := s.satisfiesIO(super)
		if err != nil {
			return false, err
		}

		if !ok {
			return false, nil
		}
	}

	return true, nil
}

// isMinimal reports whether no strict sub-mask of mask is itself closed
// under superset.
func (s *search) isMinimal(mask int) (bool, error) {
	for _, sub := range submasks(mask) {
		if sub == mask {
			continue
		}

		closed, err := s.closedUnderSuperset(sub)
		if err != nil {
			return false, err
		}

		if closed {
			return false, nil
		}
	}

	return true, nil
}

// satisfiesIO resets m, replays the inputs named by mask, then applies the
// target input and checks the result matches the target output. Results
// are memoized per mask since the same mask is probed repeatedly by
// overlapping closure checks.
func (s *search) satisfiesIO(mask int) (bool, error) {
	if cached, ok := s.cache[mask]; ok {
		return cached.ok, cached.err
	}

	inputs := make([]any, 0, popcount(mask))

	for _, entry := range s.subtrace(mask) {
		inputs = append(inputs, entry.Input)
	}

	if _, err := statemachine.Run(s.m, inputs); err != nil {
		s.cache[mask] = satisfyResult{ok: false, err: err}

		return false, err
	}

	output, err := s.m.Transition(s.target.Input)
	if err != nil {
		s.cache[mask] = satisfyResult{ok: false, err: err}

		return false, err
	}

	ok := statemachine.OutputsEqual(output, s.target.Output)
	s.cache[mask] = satisfyResult{ok: ok}

	return ok, nil
}

// subtrace returns the EnumeratedTrace named by mask, in ascending index
// order.
func (s *search) subtrace(mask int) statemachine.EnumeratedTrace {
	out := make(statemachine.EnumeratedTrace, 0, popcount(mask))

	for i, entry := range s.prefix {
		if mask&(1<<uint(i)) != 0 {
			out = append(out, entry)
		}
	}

	return out
}

// happensBeforeFilter keeps only the witnesses for which no other witness
// begins strictly after this one ends: the maximally-late witnesses.
func happensBeforeFilter(witnesses []statemachine.EnumeratedTrace) []statemachine.EnumeratedTrace {
	out := make([]statemachine.EnumeratedTrace, 0, len(witnesses))

	for i, w := range witnesses {
		dominated := false

		for k, other := range witnesses {
			if i == k {
				continue
			}

			if happensBefore(w, other) {
				dominated = true

				break
			}
		}

		if !dominated {
			out = append(out, w)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		return firstIndex(out[i]) < firstIndex(out[j])
	})

	return out
}

// happensBefore reports whether a ends strictly before b begins. An empty
// a is treated as ending before everything, since there is no last index to
// compare.
func happensBefore(a, b statemachine.EnumeratedTrace) bool {
	if len(a) == 0 || len(b) == 0 {
		return len(a) == 0
	}

	return a[len(a)-1].Index < b[0].Index
}

func firstIndex(et statemachine.EnumeratedTrace) int {
	if len(et) == 0 {
		return -1
	}

	return et[0].Index
}

func fullMask(n int) int {
	if n == 0 {
		return 0
	}

	return (1 << uint(n)) - 1
}

func popcount(mask int) int {
	count := 0
	for mask != 0 {
		mask &= mask - 1
		count++
	}

	return count
}

// submasks returns every mask' with mask'&mask == mask', starting with
// mask itself and ending with 0 (the classic "iterate over all submasks"
// bit trick).
func submasks(mask int) []int {
	out := []int{mask}

	for s := mask; s != 0; {
		s = (s - 1) & mask
		out = append(out, s)
	}

	return out
}

// supersets returns every mask' within full such that mask'&mask == mask,
// i.e. every superset of mask within the universe full. It is computed by
// enumerating the submasks of mask's complement within full and OR-ing each
// one back in.
func supersets(mask, full int) []int {
	free := full &^ mask

	out := []int{mask | free}

	for s := free; s != 0; {
		s = (s - 1) & free
		out = append(out, mask|s)
	}

	return out
}
