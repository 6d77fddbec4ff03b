package model

import (
	"fmt"

	"github.com/papapumpkin/synapse/internal/graph"
	"github.com/papapumpkin/synapse/internal/sched"
)

// Graph constructs the projection graph declared by the model. It adds
// all mechanisms as nodes and all projections as edges; an edge closing
// a cycle fails with graph.ErrCycle.
func (m *Model) Graph() (*graph.Graph, error) {
	g := graph.New()
	for _, mech := range m.Mechanisms {
		g.AddNodeIdempotent(mech.Name)
	}
	for _, p := range m.Projections {
		if err := g.AddProjection(p.Sender, p.Receiver); err != nil {
			return nil, fmt.Errorf("projection %s → %s: %w", p.Sender, p.Receiver, err)
		}
	}
	return g, nil
}

// Build compiles the model into a ready scheduler and its termination
// conditions. A model with no [termination] table returns a nil mapping,
// which Scheduler.Run defaults to AllHaveRun at every scale.
func (m *Model) Build() (*sched.Scheduler, map[sched.TimeScale]sched.Condition, error) {
	g, err := m.Graph()
	if err != nil {
		return nil, nil, err
	}
	s, err := sched.New(g)
	if err != nil {
		return nil, nil, err
	}

	for _, mech := range m.Mechanisms {
		if mech.Condition == nil {
			continue
		}
		cond, err := mech.Condition.Compile()
		if err != nil {
			return nil, nil, fmt.Errorf("mechanism %q condition: %w", mech.Name, err)
		}
		if err := s.AddCondition(mech.Name, cond); err != nil {
			return nil, nil, fmt.Errorf("mechanism %q condition: %w", mech.Name, err)
		}
	}

	var term map[sched.TimeScale]sched.Condition
	if len(m.Termination) > 0 {
		term = make(map[sched.TimeScale]sched.Condition, len(m.Termination))
		for name, spec := range m.Termination {
			scale, err := sched.ParseScale(name)
			if err != nil {
				return nil, nil, fmt.Errorf("termination.%s: %w", name, err)
			}
			cond, err := spec.Compile()
			if err != nil {
				return nil, nil, fmt.Errorf("termination.%s: %w", name, err)
			}
			term[scale] = cond
		}
	}
	return s, term, nil
}
