// Package sched implements the condition-driven execution scheduler at the
// heart of synapse. Given an acyclic projection graph of mechanisms, the
// scheduler derives a consideration queue (topological layers), and a Run
// generator walks that queue pass by pass, asking each mechanism's
// Condition whether it may fire, until the trial's termination condition
// is satisfied. Each step of the generator yields one time-step's worth of
// fired mechanisms; mechanisms in the same layer may trigger one another
// within a single time step through the intra-layer fixed point.
//
// All counter state (the clock, per-scale firing totals, and the pairwise
// useable counts backing EveryNCalls) is owned by one Scheduler instance
// and mutated only while its Run generator executes. There is no locking:
// a Run is a single logical thread of control and must not be driven from
// more than one goroutine.
package sched

import (
	"errors"
	"fmt"
	"sort"

	"github.com/papapumpkin/synapse/internal/graph"
)

// ErrNilGraph is returned when constructing a scheduler without a graph.
var ErrNilGraph = errors.New("scheduler requires a graph")

// ErrMalformedLayers is returned when an explicit consideration-queue
// layering is missing, empty, or structurally invalid.
var ErrMalformedLayers = errors.New("malformed consideration-queue layers")

// ErrNoTrialTermination is returned when a caller-supplied termination
// mapping leaves the trial scale unresolved.
var ErrNoTrialTermination = errors.New("termination conditions must include the trial scale")

// NodeSet is one time-step's worth of fired mechanisms. Mechanisms within
// a set have no dependencies on one another; their relative execution
// order is undefined.
type NodeSet map[string]bool

// Sorted returns the set's members in alphabetical order.
func (ns NodeSet) Sorted() []string {
	ids := make([]string, 0, len(ns))
	for id := range ns {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Scheduler decides, for a network of mechanisms, in what order and how
// many times each fires. Construct with New (from a projection graph) or
// NewFromLayers (from a precomputed layering), register conditions, then
// call Run to obtain the time-step generator.
type Scheduler struct {
	nodes   []string
	nodeSet map[string]bool
	// queue is the consideration queue: ordered topological layers, each
	// sorted alphabetically.
	queue [][]string

	conditions  *ConditionSet
	termination map[TimeScale]Condition

	clock *Clock
	// countsTotal[scale][node] = firings of node within the current
	// period of scale.
	countsTotal map[TimeScale]map[string]int
	// countsUseable[a][b] = firings of a not yet consumed by b's
	// EveryNCalls-style conditions.
	countsUseable map[string]map[string]int

	// executionList is the append-only history of every yielded
	// time-step, across all runs of this scheduler.
	executionList []NodeSet
}

// New constructs a Scheduler whose consideration queue is derived from the
// projection graph via Kahn layering. Returns graph.ErrCycle (wrapped) if
// the graph is not acyclic.
func New(g *graph.Graph) (*Scheduler, error) {
	if g == nil {
		return nil, fmt.Errorf("%w: pass a graph or use NewFromLayers", ErrNilGraph)
	}
	layers, err := g.Layers()
	if err != nil {
		return nil, fmt.Errorf("building consideration queue: %w", err)
	}
	if layers == nil {
		// An empty graph yields an empty, valid consideration queue.
		layers = [][]string{}
	}
	return NewFromLayers(layers)
}

// NewFromLayers constructs a Scheduler from an explicit consideration
// queue. The caller asserts the layering is a valid topological ordering;
// structural problems (nil layering with no nodes, empty layers, a
// mechanism appearing twice) are rejected here, but dependency order
// within the layers is not re-derived.
func NewFromLayers(layers [][]string) (*Scheduler, error) {
	if layers == nil {
		return nil, fmt.Errorf("%w: no layering provided", ErrMalformedLayers)
	}
	s := &Scheduler{
		nodeSet:       make(map[string]bool),
		countsTotal:   make(map[TimeScale]map[string]int),
		countsUseable: make(map[string]map[string]int),
		clock:         newClock(),
	}
	s.conditions = newConditionSet(s)

	for i, layer := range layers {
		if len(layer) == 0 {
			return nil, fmt.Errorf("%w: layer %d is empty", ErrMalformedLayers, i)
		}
		sorted := make([]string, len(layer))
		copy(sorted, layer)
		sort.Strings(sorted)
		for _, id := range sorted {
			if id == "" {
				return nil, fmt.Errorf("%w: layer %d contains an empty mechanism name", ErrMalformedLayers, i)
			}
			if s.nodeSet[id] {
				return nil, fmt.Errorf("%w: mechanism %q appears in more than one layer", ErrMalformedLayers, id)
			}
			s.nodeSet[id] = true
			s.nodes = append(s.nodes, id)
		}
		s.queue = append(s.queue, sorted)
	}
	sort.Strings(s.nodes)

	s.initCounts()
	return s, nil
}

// initCounts zero-initializes every counter for every node and scale pair.
func (s *Scheduler) initCounts() {
	for _, scale := range Scales() {
		counts := make(map[string]int, len(s.nodes))
		for _, n := range s.nodes {
			counts[n] = 0
		}
		s.countsTotal[scale] = counts
	}
	for _, a := range s.nodes {
		row := make(map[string]int, len(s.nodes))
		for _, b := range s.nodes {
			row[b] = 0
		}
		s.countsUseable[a] = row
	}
}

// AddCondition registers cond as the firing condition for the given
// mechanism, overwriting any previous condition. The scheduler and owner
// references are injected into cond. Returns ErrUnknownNode if the
// mechanism is not scheduled.
func (s *Scheduler) AddCondition(owner string, cond Condition) error {
	if !s.nodeSet[owner] {
		return fmt.Errorf("AddCondition: %w: %s", ErrUnknownNode, owner)
	}
	s.conditions.Add(owner, cond)
	return nil
}

// AddConditionSet registers every condition in the mapping.
func (s *Scheduler) AddConditionSet(conds map[string]Condition) error {
	owners := make([]string, 0, len(conds))
	for owner := range conds {
		owners = append(owners, owner)
	}
	sort.Strings(owners)
	for _, owner := range owners {
		if err := s.AddCondition(owner, conds[owner]); err != nil {
			return err
		}
	}
	return nil
}

// HasCondition reports whether the mechanism has an explicit condition.
func (s *Scheduler) HasCondition(node string) bool {
	return s.conditions.Contains(node)
}

// Nodes returns the scheduled mechanism IDs, sorted alphabetically.
func (s *Scheduler) Nodes() []string {
	out := make([]string, len(s.nodes))
	copy(out, s.nodes)
	return out
}

// ConsiderationQueue returns a copy of the scheduler's topological layers.
func (s *Scheduler) ConsiderationQueue() [][]string {
	out := make([][]string, len(s.queue))
	for i, layer := range s.queue {
		out[i] = make([]string, len(layer))
		copy(out[i], layer)
	}
	return out
}

// Clock returns the scheduler's time registry for read access.
func (s *Scheduler) Clock() *Clock {
	return s.clock
}

// CountsTotal returns a copy of each mechanism's firing count within the
// current period of the given scale.
func (s *Scheduler) CountsTotal(scale TimeScale) map[string]int {
	counts := s.countsTotal[scale]
	out := make(map[string]int, len(counts))
	for n, c := range counts {
		out[n] = c
	}
	return out
}

// ExecutionList returns the history of every time-step yielded by this
// scheduler's runs, in yield order. The returned slice shares the
// underlying NodeSets; callers must treat them as read-only.
func (s *Scheduler) ExecutionList() []NodeSet {
	out := make([]NodeSet, len(s.executionList))
	copy(out, s.executionList)
	return out
}

// validate prepares the scheduler for a run: mechanisms without a
// condition are defaulted to Always (a diagnostic, not an error), and the
// termination mapping is resolved. A nil mapping defaults every scale to
// AllHaveRun; a partial mapping that leaves the trial scale unset is a
// hard error. Returned warnings describe the applied defaults.
func (s *Scheduler) validate(term map[TimeScale]Condition) ([]string, error) {
	var warnings []string

	var defaulted []string
	for _, node := range s.nodes {
		if !s.conditions.Contains(node) {
			s.conditions.Add(node, Always())
			defaulted = append(defaulted, node)
		}
	}
	if len(defaulted) > 0 {
		warnings = append(warnings, fmt.Sprintf(
			"mechanisms with no condition will be scheduled with Always: %v", defaulted))
	}

	if term == nil {
		warnings = append(warnings, "no termination conditions specified; defaulting every scale to AllHaveRun")
		term = make(map[TimeScale]Condition, numScales)
		for _, scale := range Scales() {
			term[scale] = AllHaveRun()
		}
	}
	if term[ScaleTrial] == nil {
		return nil, ErrNoTrialTermination
	}

	s.termination = make(map[TimeScale]Condition, len(term))
	for scale, cond := range term {
		if cond == nil {
			continue
		}
		cond.bind(s, "")
		s.termination[scale] = cond
	}
	return warnings, nil
}

// TerminationSatisfied evaluates the termination condition stored for the
// given scale. Scales with no stored condition report false.
func (s *Scheduler) TerminationSatisfied(scale TimeScale) (bool, error) {
	cond, ok := s.termination[scale]
	if !ok {
		return false, nil
	}
	return cond.Satisfied()
}

// resetCount zeroes every mechanism's firing count for the scale.
func (s *Scheduler) resetCount(scale TimeScale) {
	for n := range s.countsTotal[scale] {
		s.countsTotal[scale][n] = 0
	}
}

// resetUseable zeroes the pairwise unconsumed-firing counts.
func (s *Scheduler) resetUseable() {
	for a := range s.countsUseable {
		for b := range s.countsUseable[a] {
			s.countsUseable[a][b] = 0
		}
	}
}

// recordFiring applies the counter updates for a mechanism selected to
// fire: its total bumps at every scale, counts useable *by* it reset, and
// counts of it useable by every other mechanism grow by one.
func (s *Scheduler) recordFiring(node string) {
	for _, scale := range Scales() {
		s.countsTotal[scale][node]++
	}
	for a := range s.countsUseable {
		s.countsUseable[a][node] = 0
	}
	for b := range s.countsUseable[node] {
		s.countsUseable[node][b]++
	}
}
