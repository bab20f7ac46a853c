// Package lineage implements per-tuple provenance tracking: a Timestamp and
// RecordId scheme, a Witness/Lineage representation (a disjunction of
// conjunctions of RecordIds), and a lineage-tracking relational-algebra
// evaluator consumed internally by the white-box state machine.
package lineage

import (
	"sort"
	"strconv"
	"strings"

	"github.com/correlator-io/wat/record"
)

// Timestamp identifies a moment within a white-box machine's execution: a
// tick (one external Transition call) and a step within that tick (one rule
// firing). Timestamps order lexicographically on (Tick, Step).
type Timestamp struct {
	Tick int
	Step int
}

// IncrementTick returns the timestamp for the first step of the next tick.
func (t Timestamp) IncrementTick() Timestamp {
	return Timestamp{Tick: t.Tick + 1, Step: 0}
}

// IncrementStep returns the timestamp for the next step within the same
// tick.
func (t Timestamp) IncrementStep() Timestamp {
	return Timestamp{Tick: t.Tick, Step: t.Step + 1}
}

// String renders a Timestamp as "tick.step", used only for log fields and
// fingerprinting input.
func (t Timestamp) String() string {
	return strconv.Itoa(t.Tick) + "." + strconv.Itoa(t.Step)
}

// RecordId names one specific tuple that existed in one specific relation
// at one specific timestamp. Two tuples with identical fields but distinct
// timestamps are distinct RecordIds (Invariant 1).
type RecordId struct {
	Relation  string
	Record    record.Record
	Timestamp Timestamp
}

// Key returns a canonical string for use as a map key.
func (id RecordId) Key() string {
	var b strings.Builder

	b.WriteString(id.Relation)
	b.WriteByte('\x1f')
	b.WriteString(id.Record.Key())
	b.WriteByte('\x1f')
	b.WriteString(id.Timestamp.String())

	return b.String()
}

// TimestampedRecord is a record as it exists in a lineage.Database: the
// tuple plus the timestamp at which it was asserted into its relation.
type TimestampedRecord struct {
	Record    record.Record
	Timestamp Timestamp
}

// Witness is one conjunction of RecordIds: the set of base facts whose
// simultaneous presence is sufficient to derive the record it is attached
// to. An empty Witness means "true unconditionally" (used by RecordLit).
type Witness map[string]RecordId

// NewWitness builds a Witness from zero or more RecordIds.
func NewWitness(ids ...RecordId) Witness {
	w := make(Witness, len(ids))
	for _, id := range ids {
		w[id.Key()] = id
	}

	return w
}

// Union returns a new Witness containing every RecordId in either w or
// other, i.e. the conjunction of both sets of evidence.
func (w Witness) Union(other Witness) Witness {
	out := make(Witness, len(w)+len(other))

	for k, id := range w {
		out[k] = id
	}

	for k, id := range other {
		out[k] = id
	}

	return out
}

// Key returns a canonical string identifying this Witness, built from the
// sorted keys of its members so that two Witnesses with the same members
// produce the same Key regardless of insertion order.
func (w Witness) Key() string {
	keys := make([]string, 0, len(w))
	for k := range w {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return strings.Join(keys, "\x1e")
}

// RecordIds returns the members of w as a slice, for callers that need to
// range over them deterministically (sorted by Key).
func (w Witness) RecordIds() []RecordId {
	out := make([]RecordId, 0, len(w))
	for _, id := range w {
		out = append(out, id)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Key() < out[j].Key() })

	return out
}

// Witnesses is a Lineage value: a disjunction of Witness conjunctions,
// keyed by Witness.Key so that adding the same conjunction twice is a
// no-op.
type Witnesses map[string]Witness

// NewWitnesses builds a Witnesses set from zero or more Witness values.
func NewWitnesses(ws ...Witness) Witnesses {
	out := make(Witnesses, len(ws))
	for _, w := range ws {
		out[w.Key()] = w
	}

	return out
}

// Add inserts w into ws.
func (ws Witnesses) Add(w Witness) {
	ws[w.Key()] = w
}

// Union returns a new Witnesses set containing every disjunct of either ws
// or other.
func (ws Witnesses) Union(other Witnesses) Witnesses {
	out := make(Witnesses, len(ws)+len(other))

	for k, w := range ws {
		out[k] = w
	}

	for k, w := range other {
		out[k] = w
	}

	return out
}

// Pair is one row of a lineage-tracking evaluator's result: a record and
// the single Witness conjunction under which it arose at this point in the
// expression tree.
type Pair struct {
	Record  record.Record
	Witness Witness
}

// Key returns a canonical string for use as a map key, combining the
// record's key and the witness's key so that the same record reached via
// two distinct witnesses (e.g. through a Cup) is kept as two entries.
func (p Pair) Key() string {
	return p.Record.Key() + "\x1d" + p.Witness.Key()
}

// Result is the output of evaluating a query.Node against a lineage
// Database: a set of (record, witness) pairs.
type Result map[string]Pair

// NewResult builds a Result from zero or more Pairs.
func NewResult(pairs ...Pair) Result {
	out := make(Result, len(pairs))
	for _, p := range pairs {
		out[p.Key()] = p
	}

	return out
}

// Add inserts p into r.
func (r Result) Add(p Pair) {
	r[p.Key()] = p
}

// Union returns a new Result containing every pair in either r or other.
func (r Result) Union(other Result) Result {
	out := make(Result, len(r)+len(other))

	for k, p := range r {
		out[k] = p
	}

	for k, p := range other {
		out[k] = p
	}

	return out
}

// Records returns the distinct records present in r, discarding witnesses.
// Used by Diff, which only consults the right-hand side's records, not its
// evidence (the documented limitation on Diff's lineage precision).
func (r Result) Records() record.Set {
	out := make(record.Set, len(r))
	for _, p := range r {
		out.Add(p.Record)
	}

	return out
}

// Key returns a canonical string for use as a map key. Unlike a plain
// record.Set, a lineage Relation is keyed by record *and* timestamp: the
// same record content asserted at two different timestamps are distinct
// entries, since a rule's re-derivation of a still-true fact produces a
// fresh RecordId worth its own lineage entry (Invariant 1).
func (tr TimestampedRecord) Key() string {
	return tr.Record.Key() + "\x1c" + tr.Timestamp.String()
}

// Relation is one relation's contents in a lineage Database: the set of
// (record, timestamp) entries currently asserted into it.
type Relation map[string]TimestampedRecord

// NewRelation builds a Relation from zero or more TimestampedRecords.
func NewRelation(trs ...TimestampedRecord) Relation {
	out := make(Relation, len(trs))
	for _, tr := range trs {
		out[tr.Key()] = tr
	}

	return out
}

// Add inserts tr into rel.
func (rel Relation) Add(tr TimestampedRecord) {
	rel[tr.Key()] = tr
}

// Records returns the distinct record values held in rel, discarding
// timestamps.
func (rel Relation) Records() record.Set {
	out := make(record.Set, len(rel))
	for _, tr := range rel {
		out.Add(tr.Record)
	}

	return out
}

// FilterByRecords returns a new Relation containing only the entries of
// rel whose record value is a member of keep.
func (rel Relation) FilterByRecords(keep record.Set) Relation {
	out := make(Relation)

	for k, tr := range rel {
		if keep.Contains(tr.Record) {
			out[k] = tr
		}
	}

	return out
}

// Database is a snapshot of every relation's lineage-tagged contents,
// keyed by relation name.
type Database map[string]Relation
