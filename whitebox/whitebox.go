// Package whitebox implements the rule-driven relational state machine used
// as the white-box provenance reference: every output tuple carries exact,
// per-rule-firing lineage back to the input tuples that caused it, rather
// than having that lineage inferred by search as the black-box engine does.
package whitebox

import (
	"fmt"
	"sort"

	"github.com/correlator-io/wat/internal/diagnostics"
	"github.com/correlator-io/wat/lineage"
	"github.com/correlator-io/wat/query"
	"github.com/correlator-io/wat/record"
	"github.com/correlator-io/wat/statemachine"
)

// Rule rewrites Relation on every tick by evaluating Query against the
// current database. A machine registers one non-empty, ordered list of
// Rules per externally-addressable input relation; every Rule but the last
// in that list persists its result back into Relation, while the last
// Rule's result becomes the tick's external Output without being written
// back to the database.
type Rule struct {
	Relation string
	Query    query.Node
}

// Input is one externally-applied tuple: a record asserted into Relation.
type Input struct {
	Relation string
	Record   record.Record
}

// Output is the set of records produced by a tick's final rule.
type Output struct {
	Reply record.Set
}

// LineageEntry pairs one output RecordId with the flattened, chronologically
// ordered trace of prior ticks whose inputs and outputs its lineage
// depends on.
type LineageEntry struct {
	RecordId lineage.RecordId
	Trace    statemachine.EnumeratedTrace
}

type lineageRecord struct {
	id        lineage.RecordId
	witnesses lineage.Witnesses
}

// WhiteBox is a rule-driven relational state machine with per-tuple
// lineage tracking. It does no locking: a WhiteBox must not be shared with
// another goroutine while a call on it is in flight.
type WhiteBox struct {
	timestamp lineage.Timestamp
	schema    map[string]int
	db        lineage.Database
	rules     map[string][]Rule

	lineageIndex  map[string]*lineageRecord
	inputs        map[int]Input
	outputs       map[int]Output
	outputLineage map[int]map[string]*lineageRecord

	logger interface {
		Debug(string, ...any)
		Error(string, ...any)
	}
}

var _ statemachine.WhiteBoxMachine = (*WhiteBox)(nil)

// New returns a WhiteBox with no tables and no rules.
func New() *WhiteBox {
	wb := &WhiteBox{
		schema: make(map[string]int),
		rules:  make(map[string][]Rule),
		logger: diagnostics.NewLoggerFromEnv().With("component", "whitebox"),
	}
	wb.Reset()

	return wb
}

// CreateTable declares a new relation with the given arity. It is an error
// to create the same relation twice.
func (wb *WhiteBox) CreateTable(name string, arity int) error {
	if _, exists := wb.schema[name]; exists {
		err := fmt.Errorf("%w: %s", ErrDuplicateTable, name)
		wb.logger.Error("create table failed", "error", err.Error())

		return err
	}

	wb.schema[name] = arity
	wb.db[name] = make(lineage.Relation)

	return nil
}

// RegisterRules registers the non-empty, ordered rule chain fired whenever
// an Input targets relationName. It is an error to register rules twice
// for the same relation, or to register an empty rule list.
func (wb *WhiteBox) RegisterRules(relationName string, rules []Rule) error {
	if _, exists := wb.rules[relationName]; exists {
		err := fmt.Errorf("%w: %s", ErrDuplicateRules, relationName)
		wb.logger.Error("register rules failed", "error", err.Error())

		return err
	}

	if len(rules) == 0 {
		err := fmt.Errorf("%w: %s", ErrMissingRules, relationName)
		wb.logger.Error("register rules failed", "error", err.Error())

		return err
	}

	wb.rules[relationName] = rules

	return nil
}

// Reset clears every relation's contents and the recorded lineage index,
// restarting the tick/step timestamp at (0, 0). Recorded inputs, outputs,
// and per-tick output lineage from any prior run are left untouched,
// matching the reference implementation's behavior: a subsequent run
// simply overwrites tick 0 onward as it proceeds.
func (wb *WhiteBox) Reset() {
	wb.timestamp = lineage.Timestamp{}

	wb.db = make(lineage.Database, len(wb.schema))
	for name := range wb.schema {
		wb.db[name] = make(lineage.Relation)
	}

	wb.lineageIndex = make(map[string]*lineageRecord)

	if wb.inputs == nil {
		wb.inputs = make(map[int]Input)
	}

	if wb.outputs == nil {
		wb.outputs = make(map[int]Output)
	}

	if wb.outputLineage == nil {
		wb.outputLineage = make(map[int]map[string]*lineageRecord)
	}
}

// Transition applies one Input: asserts its record into the target
// relation at the current timestamp, then fires every rule registered for
// that relation in order. Every rule but the last persists its result back
// into its own target relation, keeping timestamped entries whose record
// survived and adding a freshly timestamped entry for every record the
// rule produced. The last rule's result becomes the returned Output and is
// not written back to the database.
func (wb *WhiteBox) Transition(input any) (any, error) {
	i, ok := input.(Input)
	if !ok {
		return nil, fmt.Errorf("%w: %#v", ErrUnrecognizedInput, input)
	}

	arity, knownRelation := wb.schema[i.Relation]
	if !knownRelation {
		return nil, fmt.Errorf("%w: %s", ErrUnknownRelation, i.Relation)
	}

	rules, hasRules := wb.rules[i.Relation]
	if !hasRules {
		return nil, fmt.Errorf("%w: %s", ErrRulesNotRegistered, i.Relation)
	}

	if len(i.Record) != arity {
		return nil, fmt.Errorf("%w: relation %s expects arity %d, got %d",
			ErrArityMismatch, i.Relation, arity, len(i.Record))
	}

	correlationID := diagnostics.CorrelationID()
	tick := wb.timestamp.Tick
	wb.inputs[tick] = i

	requestRelation, err := wb.relation(i.Relation)
	if err != nil {
		return nil, err
	}

	requestRelation.Add(lineage.TimestampedRecord{Record: i.Record, Timestamp: wb.timestamp})

	var ans lineage.Result

	for idx, rule := range rules {
		wb.timestamp = wb.timestamp.IncrementStep()

		ans, err = lineage.Eval(rule.Query, wb.db)
		if err != nil {
			wb.logger.Error("rule evaluation failed", "correlation_id", correlationID, "error", err.Error())

			return nil, err
		}

		if idx == len(rules)-1 {
			break
		}

		if err := wb.persistRuleResult(rule.Relation, ans); err != nil {
			return nil, err
		}
	}

	output, outputLineage := wb.finalizeOutput(rules[len(rules)-1].Relation, ans)
	wb.outputs[tick] = output
	wb.outputLineage[tick] = outputLineage

	wb.logger.Debug("tick complete", "correlation_id", correlationID, "tick", tick, "reply_size", len(output.Reply))

	wb.timestamp = wb.timestamp.IncrementTick()
	wb.db[i.Relation] = make(lineage.Relation)

	return output, nil
}

// relation returns the named relation, which must already exist (created
// via CreateTable; a rule's target relation is not created implicitly).
func (wb *WhiteBox) relation(name string) (lineage.Relation, error) {
	rel, ok := wb.db[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownRelation, name)
	}

	return rel, nil
}

// persistRuleResult keeps the timestamped entries of relationName whose
// record survived in ans, adds a freshly timestamped entry for every
// record ans produced, and records each new entry's witness in the
// lineage index.
func (wb *WhiteBox) persistRuleResult(relationName string, ans lineage.Result) error {
	target, err := wb.relation(relationName)
	if err != nil {
		return err
	}

	survivingRecords := ans.Records()
	kept := target.FilterByRecords(survivingRecords)

	for _, pair := range ans {
		tr := lineage.TimestampedRecord{Record: pair.Record, Timestamp: wb.timestamp}
		kept.Add(tr)

		rid := lineage.RecordId{Relation: relationName, Record: pair.Record, Timestamp: wb.timestamp}
		wb.addLineage(rid, pair.Witness)
	}

	wb.db[relationName] = kept

	return nil
}

// finalizeOutput builds the Output and per-RecordId witness set for the
// tick's final rule, without persisting ans back into the database.
func (wb *WhiteBox) finalizeOutput(relationName string, ans lineage.Result) (Output, map[string]*lineageRecord) {
	reply := make(record.Set, len(ans))
	outputLineage := make(map[string]*lineageRecord, len(ans))

	for _, pair := range ans {
		reply.Add(pair.Record)

		rid := lineage.RecordId{Relation: relationName, Record: pair.Record, Timestamp: wb.timestamp}

		entry, exists := outputLineage[rid.Key()]
		if !exists {
			entry = &lineageRecord{id: rid, witnesses: lineage.NewWitnesses()}
			outputLineage[rid.Key()] = entry
		}

		entry.witnesses.Add(pair.Witness)
	}

	return Output{Reply: reply}, outputLineage
}

func (wb *WhiteBox) addLineage(rid lineage.RecordId, w lineage.Witness) {
	entry, exists := wb.lineageIndex[rid.Key()]
	if !exists {
		entry = &lineageRecord{id: rid, witnesses: lineage.NewWitnesses()}
		wb.lineageIndex[rid.Key()] = entry
	}

	entry.witnesses.Add(w)
}

// flattenLineage recursively expands every RecordId named by ws into the
// set of step-0 RecordIds (direct external inputs) it ultimately depends
// on. Because a rule chain's lineage graph only ever points to strictly
// earlier timestamps, this recursion always terminates (Invariant 2).
func (wb *WhiteBox) flattenLineage(ws lineage.Witnesses) map[string]lineage.RecordId {
	out := make(map[string]lineage.RecordId)

	for _, w := range ws {
		for _, rid := range w.RecordIds() {
			if rid.Timestamp.Step == 0 {
				out[rid.Key()] = rid

				continue
			}

			entry, ok := wb.lineageIndex[rid.Key()]
			if !ok {
				continue
			}

			for k, v := range wb.flattenLineage(entry.witnesses) {
				out[k] = v
			}
		}
	}

	return out
}

// GetOutputLineage flattens the lineage recorded for every output RecordId
// at tick j into the chronologically ordered sequence of earlier ticks
// (excluding j itself) whose (input, output) pairs it depends on.
func (wb *WhiteBox) GetOutputLineage(j int) ([]LineageEntry, error) {
	recorded, ok := wb.outputLineage[j]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrNoOutputLineage, j)
	}

	keys := make([]string, 0, len(recorded))
	for k := range recorded {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	out := make([]LineageEntry, 0, len(recorded))

	for _, k := range keys {
		entry := recorded[k]
		flat := wb.flattenLineage(entry.witnesses)

		ticks := make(map[int]struct{})
		for _, rid := range flat {
			if rid.Timestamp.Tick != j {
				ticks[rid.Timestamp.Tick] = struct{}{}
			}
		}

		sortedTicks := make([]int, 0, len(ticks))
		for t := range ticks {
			sortedTicks = append(sortedTicks, t)
		}

		sort.Ints(sortedTicks)

		trace := make(statemachine.EnumeratedTrace, 0, len(sortedTicks))
		for _, t := range sortedTicks {
			trace = append(trace, statemachine.TraceEntry{
				Index: t,
				IOPair: statemachine.IOPair{
					Input:  wb.inputs[t],
					Output: wb.outputs[t],
				},
			})
		}

		out = append(out, LineageEntry{RecordId: entry.id, Trace: trace})
	}

	return out, nil
}

// State returns a snapshot of every relation's current record contents,
// discarding timestamps and lineage.
func (wb *WhiteBox) State() map[string][]any {
	out := make(map[string][]any, len(wb.db))

	for name, rel := range wb.db {
		records := make([]any, 0, len(rel))
		for _, tr := range rel {
			records = append(records, tr.Record)
		}

		out[name] = records
	}

	return out
}
