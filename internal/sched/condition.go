package sched

import (
	"errors"
	"fmt"
)

// ErrUnboundCondition is returned when a condition is evaluated before it
// has been registered with a scheduler.
var ErrUnboundCondition = errors.New("condition is not bound to a scheduler")

// ErrNoOwner is returned when an owner-relative condition (EveryNCalls) is
// evaluated without an owning mechanism, e.g. when used as a termination
// condition.
var ErrNoOwner = errors.New("condition has no owner mechanism")

// ErrUnknownNode is returned when a condition or registration references a
// mechanism the scheduler does not know about.
var ErrUnknownNode = errors.New("unknown mechanism")

// ErrBadConditionArg is returned when a condition was constructed with an
// argument outside its valid range.
var ErrBadConditionArg = errors.New("invalid condition argument")

// Condition is a predicate gating whether a mechanism may fire when the
// scheduler considers it. Conditions read the owning scheduler's clock and
// firing counts; they never mutate them. A condition must be bound to a
// scheduler (and, for node-relative variants, an owner) before evaluation;
// binding happens when the condition is registered via AddCondition or
// passed as a termination condition.
type Condition interface {
	// Satisfied reports whether the condition currently holds. Evaluating
	// an unbound condition returns ErrUnboundCondition; no result is
	// cached between calls.
	Satisfied() (bool, error)

	bind(s *Scheduler, owner string)
}

// base carries the scheduler and owner references injected at registration.
type base struct {
	s     *Scheduler
	owner string
}

func (b *base) bind(s *Scheduler, owner string) {
	b.s = s
	b.owner = owner
}

func (b *base) scheduler() (*Scheduler, error) {
	if b.s == nil {
		return nil, fmt.Errorf("%w: register it with AddCondition or pass it as a termination condition before evaluating", ErrUnboundCondition)
	}
	return b.s, nil
}

func (b *base) ownerNode() (string, error) {
	if b.owner == "" {
		return "", fmt.Errorf("%w: owner-relative conditions must be registered for a mechanism via AddCondition", ErrNoOwner)
	}
	return b.owner, nil
}

// always is satisfied whenever it is evaluated.
type always struct{ base }

// Always returns a condition that is satisfied every time the mechanism is
// considered. It is the default for mechanisms with no explicit condition.
func Always() Condition { return &always{} }

func (c *always) Satisfied() (bool, error) { return true, nil }

// never is never satisfied.
type never struct{ base }

// Never returns a condition that never allows its mechanism to fire.
func Never() Condition { return &never{} }

func (c *never) Satisfied() (bool, error) { return false, nil }

// allHaveRun is satisfied once every mechanism has fired within the
// current period of its scale.
type allHaveRun struct {
	base
	scale TimeScale
}

// AllHaveRun returns a condition satisfied once every mechanism in the
// scheduler has fired at least once in the current trial. It is the
// default termination condition.
func AllHaveRun() Condition { return &allHaveRun{scale: ScaleTrial} }

func (c *allHaveRun) Satisfied() (bool, error) {
	s, err := c.scheduler()
	if err != nil {
		return false, err
	}
	for _, n := range s.nodes {
		if s.countsTotal[c.scale][n] < 1 {
			return false, nil
		}
	}
	return true, nil
}

// everyNCalls is satisfied when the owner has n unconsumed firings of the
// source mechanism available.
type everyNCalls struct {
	base
	node string
	n    int
}

// EveryNCalls returns a condition satisfied when the source mechanism has
// fired n times since the owning mechanism last fired. Firing the owner
// consumes the accumulated count.
func EveryNCalls(node string, n int) Condition {
	return &everyNCalls{node: node, n: n}
}

func (c *everyNCalls) Satisfied() (bool, error) {
	s, err := c.scheduler()
	if err != nil {
		return false, err
	}
	owner, err := c.ownerNode()
	if err != nil {
		return false, fmt.Errorf("EveryNCalls(%s, %d): %w", c.node, c.n, err)
	}
	useable, ok := s.countsUseable[c.node]
	if !ok {
		return false, fmt.Errorf("EveryNCalls for %s: %w: %s", owner, ErrUnknownNode, c.node)
	}
	return useable[owner] >= c.n, nil
}

// afterNCalls is satisfied once a mechanism's firing count within a scale
// reaches n.
type afterNCalls struct {
	base
	node  string
	n     int
	scale TimeScale
}

// AfterNCalls returns a condition satisfied once the given mechanism has
// fired at least n times within the current period of scale.
func AfterNCalls(node string, n int, scale TimeScale) Condition {
	return &afterNCalls{node: node, n: n, scale: scale}
}

func (c *afterNCalls) Satisfied() (bool, error) {
	s, err := c.scheduler()
	if err != nil {
		return false, err
	}
	counts, ok := s.countsTotal[c.scale]
	if !ok {
		return false, fmt.Errorf("AfterNCalls: no counts for scale %s", c.scale)
	}
	if !s.nodeSet[c.node] {
		return false, fmt.Errorf("AfterNCalls: %w: %s", ErrUnknownNode, c.node)
	}
	return counts[c.node] >= c.n, nil
}

// passCount reads the number of passes in the current trial.
func passCount(b *base) (int, error) {
	s, err := b.scheduler()
	if err != nil {
		return 0, err
	}
	return s.clock.Time(ScaleTrial, ScalePass), nil
}

// atPass is satisfied exactly during pass n of the current trial.
type atPass struct {
	base
	n int
}

// AtPass returns a condition satisfied only during pass n (0-based) of the
// current trial.
func AtPass(n int) Condition { return &atPass{n: n} }

func (c *atPass) Satisfied() (bool, error) {
	p, err := passCount(&c.base)
	return err == nil && p == c.n, err
}

// beforePass is satisfied during every pass up to but excluding pass n.
type beforePass struct {
	base
	n int
}

// BeforePass returns a condition satisfied during all passes before pass n
// of the current trial.
func BeforePass(n int) Condition { return &beforePass{n: n} }

func (c *beforePass) Satisfied() (bool, error) {
	p, err := passCount(&c.base)
	return err == nil && p < c.n, err
}

// afterPass is satisfied during every pass following pass n.
type afterPass struct {
	base
	n int
}

// AfterPass returns a condition satisfied during all passes after pass n
// of the current trial.
func AfterPass(n int) Condition { return &afterPass{n: n} }

func (c *afterPass) Satisfied() (bool, error) {
	p, err := passCount(&c.base)
	return err == nil && p > c.n, err
}

// afterNPasses is satisfied once n passes have completed in the trial.
type afterNPasses struct {
	base
	n int
}

// AfterNPasses returns a condition satisfied once at least n passes have
// occurred in the current trial.
func AfterNPasses(n int) Condition { return &afterNPasses{n: n} }

func (c *afterNPasses) Satisfied() (bool, error) {
	p, err := passCount(&c.base)
	return err == nil && p >= c.n, err
}

// everyNPasses is satisfied on every nth pass of the trial.
type everyNPasses struct {
	base
	n int
}

// EveryNPasses returns a condition satisfied during pass 0 and every nth
// pass thereafter. EveryNPasses(1) is satisfied on every pass.
func EveryNPasses(n int) Condition { return &everyNPasses{n: n} }

func (c *everyNPasses) Satisfied() (bool, error) {
	if c.n < 1 {
		return false, fmt.Errorf("%w: EveryNPasses requires n >= 1, got %d", ErrBadConditionArg, c.n)
	}
	p, err := passCount(&c.base)
	return err == nil && p%c.n == 0, err
}

// atTrial is satisfied exactly during trial n of the current run.
type atTrial struct {
	base
	n int
}

// AtTrial returns a condition satisfied only during trial n (0-based) of
// the current run.
func AtTrial(n int) Condition { return &atTrial{n: n} }

func (c *atTrial) Satisfied() (bool, error) {
	s, err := c.scheduler()
	if err != nil {
		return false, err
	}
	return s.clock.Time(ScaleRun, ScaleTrial) == c.n, nil
}

// atTimeStep is satisfied exactly during time step n of the current trial.
type atTimeStep struct {
	base
	n int
}

// AtTimeStep returns a condition satisfied only during time step n
// (0-based) of the current trial.
func AtTimeStep(n int) Condition { return &atTimeStep{n: n} }

func (c *atTimeStep) Satisfied() (bool, error) {
	s, err := c.scheduler()
	if err != nil {
		return false, err
	}
	return s.clock.Time(ScaleTrial, ScaleTimeStep) == c.n, nil
}

// all is the conjunction combinator.
type all struct {
	base
	conds []Condition
}

// All returns a condition satisfied iff every child condition is
// satisfied. Evaluation short-circuits on the first unsatisfied child.
func All(conds ...Condition) Condition { return &all{conds: conds} }

func (c *all) bind(s *Scheduler, owner string) {
	c.base.bind(s, owner)
	for _, child := range c.conds {
		child.bind(s, owner)
	}
}

func (c *all) Satisfied() (bool, error) {
	for _, child := range c.conds {
		ok, err := child.Satisfied()
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

// anyOf is the disjunction combinator.
type anyOf struct {
	base
	conds []Condition
}

// Any returns a condition satisfied iff at least one child condition is
// satisfied. Evaluation short-circuits on the first satisfied child.
func Any(conds ...Condition) Condition { return &anyOf{conds: conds} }

func (c *anyOf) bind(s *Scheduler, owner string) {
	c.base.bind(s, owner)
	for _, child := range c.conds {
		child.bind(s, owner)
	}
}

func (c *anyOf) Satisfied() (bool, error) {
	for _, child := range c.conds {
		ok, err := child.Satisfied()
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// not negates a condition.
type not struct {
	base
	cond Condition
}

// Not returns a condition satisfied iff the child condition is not.
func Not(cond Condition) Condition { return &not{cond: cond} }

func (c *not) bind(s *Scheduler, owner string) {
	c.base.bind(s, owner)
	c.cond.bind(s, owner)
}

func (c *not) Satisfied() (bool, error) {
	ok, err := c.cond.Satisfied()
	if err != nil {
		return false, err
	}
	return !ok, nil
}
