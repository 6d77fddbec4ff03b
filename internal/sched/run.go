package sched

import "iter"

// Run drives one trial of scheduling as a pull-based generator. Each call
// to Next advances the underlying coroutine until one time-step's firing
// set has been determined, then suspends. The caller typically executes
// the fired mechanisms before pulling the next step:
//
//	run, err := s.Run(term)
//	if err != nil { ... }
//	for run.Next() {
//		fire(run.Fired())
//	}
//	if err := run.Err(); err != nil { ... }
//
// A Run is restartable only by calling Scheduler.Run again, which resets
// per-trial state; resuming an abandoned Run is not supported. A Run must
// not be driven from more than one goroutine.
type Run struct {
	s        *Scheduler
	next     func() (NodeSet, error, bool)
	stop     func()
	warnings []string

	cur  NodeSet
	err  error
	done bool
}

// Run validates the scheduler's state and begins a new trial, returning
// the generator of time-steps.
//
// Validation follows the rules of validate: mechanisms without conditions
// are defaulted to Always, a nil termination mapping defaults to
// AllHaveRun everywhere, and a partial mapping without a trial condition
// fails with ErrNoTrialTermination. Per-trial counters (the pairwise
// useable counts, trial firing totals, and the trial clock) are reset
// before the first step.
func (s *Scheduler) Run(term map[TimeScale]Condition) (*Run, error) {
	warnings, err := s.validate(term)
	if err != nil {
		return nil, err
	}

	s.resetUseable()
	s.resetCount(ScaleTrial)
	s.clock.reset(ScaleTrial)

	next, stop := iter.Pull2(s.trialSeq())
	return &Run{
		s:        s,
		next:     next,
		stop:     stop,
		warnings: warnings,
	}, nil
}

// Next advances the run to the next time-step. It returns false when the
// trial has terminated or an evaluation error occurred; check Err after
// the loop.
func (r *Run) Next() bool {
	if r.done {
		return false
	}
	set, err, ok := r.next()
	if !ok {
		r.done = true
		r.stop()
		return false
	}
	if err != nil {
		r.err = err
		r.done = true
		r.stop()
		return false
	}
	r.cur = set
	return true
}

// Fired returns the set of mechanisms selected to fire in the current
// time-step. The set may be empty when an entire pass produced no firing.
func (r *Run) Fired() NodeSet {
	return r.cur
}

// Err returns the first condition-evaluation error encountered, if any.
func (r *Run) Err() error {
	return r.err
}

// Warnings returns the diagnostic messages produced during run
// validation (defaulted conditions, defaulted termination).
func (r *Run) Warnings() []string {
	return r.warnings
}

// Stop releases the run's coroutine without draining it. Safe to call
// after the run is already done.
func (r *Run) Stop() {
	r.done = true
	r.stop()
}

// Drain pulls the run to completion and returns the yielded time-steps in
// order.
func (r *Run) Drain() ([]NodeSet, error) {
	var steps []NodeSet
	for r.Next() {
		steps = append(steps, r.Fired())
	}
	return steps, r.Err()
}

// trialSeq holds the scheduling algorithm proper. It loops passes until
// the trial termination condition is satisfied; within a pass it walks
// the consideration queue layer by layer, computing each layer's firing
// set as a fixed point so that a firing can immediately satisfy another
// mechanism's condition within the same layer and time step. Non-empty
// firing sets are yielded one per time step. A pass in which nothing
// fires yields a single empty time-step, so a trial whose conditions are
// never satisfiable still advances the clock instead of spinning
// silently.
func (s *Scheduler) trialSeq() iter.Seq2[NodeSet, error] {
	return func(yield func(NodeSet, error) bool) {
		for {
			done, err := s.termination[ScaleTrial].Satisfied()
			if err != nil {
				yield(nil, err)
				return
			}
			if done {
				break
			}

			s.resetCount(ScalePass)
			s.clock.reset(ScalePass)
			passFired := false

			for _, layer := range s.queue {
				done, err := s.termination[ScaleTrial].Satisfied()
				if err != nil {
					yield(nil, err)
					return
				}
				if done {
					break
				}

				fired, err := s.layerFixedPoint(layer)
				if err != nil {
					yield(nil, err)
					return
				}
				if len(fired) == 0 {
					continue
				}
				passFired = true
				s.executionList = append(s.executionList, fired)
				if !yield(fired, nil) {
					return
				}
				s.clock.increment(ScaleTimeStep)
			}

			if !passFired {
				empty := make(NodeSet)
				s.executionList = append(s.executionList, empty)
				if !yield(empty, nil) {
					return
				}
				s.clock.increment(ScaleTimeStep)
			}

			s.clock.increment(ScalePass)
		}

		s.clock.increment(ScaleTrial)
	}
}

// layerFixedPoint computes the set of mechanisms in one consideration set
// allowed to fire this time step. The layer is rescanned until a full
// scan adds nothing; each mechanism is added at most once, which bounds
// the cascade.
func (s *Scheduler) layerFixedPoint(layer []string) (NodeSet, error) {
	fired := make(NodeSet)
	for {
		changed := false
		for _, node := range layer {
			if fired[node] {
				continue
			}
			ok, err := s.conditions.Condition(node).Satisfied()
			if err != nil {
				return nil, err
			}
			if ok {
				fired[node] = true
				changed = true
				s.recordFiring(node)
			}
		}
		if !changed {
			return fired, nil
		}
	}
}
