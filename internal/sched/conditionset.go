package sched

import "sort"

// ConditionSet maps each mechanism to the condition gating its firing.
// Registration injects the owning scheduler and mechanism into the
// condition, so a registered condition is evaluable without further setup.
type ConditionSet struct {
	s          *Scheduler
	conditions map[string]Condition
}

func newConditionSet(s *Scheduler) *ConditionSet {
	return &ConditionSet{
		s:          s,
		conditions: make(map[string]Condition),
	}
}

// Add registers cond for owner, binding the scheduler and owner references
// into it. Any prior condition for owner is overwritten.
func (cs *ConditionSet) Add(owner string, cond Condition) {
	cond.bind(cs.s, owner)
	cs.conditions[owner] = cond
}

// AddSet registers every condition in the mapping, in sorted owner order.
func (cs *ConditionSet) AddSet(conds map[string]Condition) {
	owners := make([]string, 0, len(conds))
	for owner := range conds {
		owners = append(owners, owner)
	}
	sort.Strings(owners)
	for _, owner := range owners {
		cs.Add(owner, conds[owner])
	}
}

// Contains reports whether owner has a registered condition.
func (cs *ConditionSet) Contains(owner string) bool {
	_, ok := cs.conditions[owner]
	return ok
}

// Condition returns the condition registered for owner, or nil.
func (cs *ConditionSet) Condition(owner string) Condition {
	return cs.conditions[owner]
}
