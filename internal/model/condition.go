package model

import (
	"fmt"

	"github.com/papapumpkin/synapse/internal/sched"
)

// kindInfo records what a condition kind requires of its spec.
// needsOwner marks kinds that consume firings relative to an owner
// mechanism and therefore cannot serve as termination conditions.
type kindInfo struct {
	needsNode  bool
	needsOwner bool
	combinator bool
}

// conditionKinds is the vocabulary of the model file's condition table.
var conditionKinds = map[string]kindInfo{
	"always":         {},
	"never":          {},
	"all_have_run":   {},
	"every_n_calls":  {needsNode: true, needsOwner: true},
	"after_n_calls":  {needsNode: true},
	"at_pass":        {},
	"before_pass":    {},
	"after_pass":     {},
	"after_n_passes": {},
	"every_n_passes": {},
	"at_trial":       {},
	"at_time_step":   {},
	"all":            {combinator: true},
	"any":            {combinator: true},
	"not":            {combinator: true},
}

// Compile turns a validated condition spec into an unbound scheduler
// condition. The scale of after_n_calls defaults to trial.
func (c *ConditionSpec) Compile() (sched.Condition, error) {
	switch c.Kind {
	case "always":
		return sched.Always(), nil
	case "never":
		return sched.Never(), nil
	case "all_have_run":
		return sched.AllHaveRun(), nil
	case "every_n_calls":
		return sched.EveryNCalls(c.Node, c.N), nil
	case "after_n_calls":
		scale := sched.ScaleTrial
		if c.Scale != "" {
			var err error
			scale, err = sched.ParseScale(c.Scale)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrBadConditionSpec, err)
			}
		}
		return sched.AfterNCalls(c.Node, c.N, scale), nil
	case "at_pass":
		return sched.AtPass(c.N), nil
	case "before_pass":
		return sched.BeforePass(c.N), nil
	case "after_pass":
		return sched.AfterPass(c.N), nil
	case "after_n_passes":
		return sched.AfterNPasses(c.N), nil
	case "every_n_passes":
		if c.N < 1 {
			return nil, fmt.Errorf("%w: every_n_passes requires n >= 1, got %d", ErrBadConditionSpec, c.N)
		}
		return sched.EveryNPasses(c.N), nil
	case "at_trial":
		return sched.AtTrial(c.N), nil
	case "at_time_step":
		return sched.AtTimeStep(c.N), nil
	case "all", "any", "not":
		children := make([]sched.Condition, len(c.Of))
		for i := range c.Of {
			child, err := c.Of[i].Compile()
			if err != nil {
				return nil, err
			}
			children[i] = child
		}
		switch c.Kind {
		case "all":
			return sched.All(children...), nil
		case "any":
			return sched.Any(children...), nil
		default:
			if len(children) != 1 {
				return nil, fmt.Errorf("%w: \"not\" takes exactly one child, got %d", ErrBadConditionSpec, len(children))
			}
			return sched.Not(children[0]), nil
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownConditionKind, c.Kind)
	}
}
