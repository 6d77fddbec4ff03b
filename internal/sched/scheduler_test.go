package sched

import (
	"errors"
	"reflect"
	"testing"

	"github.com/papapumpkin/synapse/internal/graph"
)

// chainGraph builds a linear chain a → b → c → ... over the given IDs.
func chainGraph(t *testing.T, ids ...string) *graph.Graph {
	t.Helper()
	g := graph.New()
	for _, id := range ids {
		if err := g.AddNode(id); err != nil {
			t.Fatalf("AddNode(%q): %v", id, err)
		}
	}
	for i := 1; i < len(ids); i++ {
		if err := g.AddProjection(ids[i-1], ids[i]); err != nil {
			t.Fatalf("AddProjection(%q, %q): %v", ids[i-1], ids[i], err)
		}
	}
	return g
}

// newScheduler builds a scheduler over the graph, failing the test on error.
func newScheduler(t *testing.T, g *graph.Graph) *Scheduler {
	t.Helper()
	s, err := New(g)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

// mustAdd registers a condition, failing the test on error.
func mustAdd(t *testing.T, s *Scheduler, owner string, cond Condition) {
	t.Helper()
	if err := s.AddCondition(owner, cond); err != nil {
		t.Fatalf("AddCondition(%q): %v", owner, err)
	}
}

// drain runs the scheduler to completion and returns each time-step as a
// sorted slice of mechanism IDs.
func drain(t *testing.T, s *Scheduler, term map[TimeScale]Condition) [][]string {
	t.Helper()
	run, err := s.Run(term)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	steps, err := run.Drain()
	if err != nil {
		t.Fatalf("Drain: %v", err)
	}
	out := make([][]string, len(steps))
	for i, set := range steps {
		out[i] = set.Sorted()
	}
	return out
}

func trialTerm(cond Condition) map[TimeScale]Condition {
	return map[TimeScale]Condition{ScaleTrial: cond}
}

func TestConstruction(t *testing.T) {
	t.Parallel()

	t.Run("nil graph", func(t *testing.T) {
		t.Parallel()
		if _, err := New(nil); !errors.Is(err, ErrNilGraph) {
			t.Errorf("got %v, want ErrNilGraph", err)
		}
	})

	t.Run("cyclic graph", func(t *testing.T) {
		t.Parallel()
		// AddProjection rejects the closing edge, so build the layering
		// path: a graph can only become cyclic through AddProjection,
		// which already fails with ErrCycle.
		g := graph.New()
		_ = g.AddNode("a")
		_ = g.AddNode("b")
		_ = g.AddProjection("a", "b")
		if err := g.AddProjection("b", "a"); !errors.Is(err, graph.ErrCycle) {
			t.Fatalf("got %v, want graph.ErrCycle", err)
		}
	})

	t.Run("nil layering", func(t *testing.T) {
		t.Parallel()
		if _, err := NewFromLayers(nil); !errors.Is(err, ErrMalformedLayers) {
			t.Errorf("got %v, want ErrMalformedLayers", err)
		}
	})

	t.Run("empty layer", func(t *testing.T) {
		t.Parallel()
		if _, err := NewFromLayers([][]string{{"a"}, {}}); !errors.Is(err, ErrMalformedLayers) {
			t.Errorf("got %v, want ErrMalformedLayers", err)
		}
	})

	t.Run("duplicate across layers", func(t *testing.T) {
		t.Parallel()
		if _, err := NewFromLayers([][]string{{"a"}, {"a"}}); !errors.Is(err, ErrMalformedLayers) {
			t.Errorf("got %v, want ErrMalformedLayers", err)
		}
	})

	t.Run("queue derived from graph", func(t *testing.T) {
		t.Parallel()
		s := newScheduler(t, chainGraph(t, "a", "b", "c"))
		want := [][]string{{"a"}, {"b"}, {"c"}}
		if got := s.ConsiderationQueue(); !reflect.DeepEqual(got, want) {
			t.Errorf("ConsiderationQueue() = %v, want %v", got, want)
		}
	})

	t.Run("counters zero after construction", func(t *testing.T) {
		t.Parallel()
		s := newScheduler(t, chainGraph(t, "a", "b"))
		for _, scale := range Scales() {
			for n, c := range s.CountsTotal(scale) {
				if c != 0 {
					t.Errorf("countsTotal[%s][%s] = %d, want 0", scale, n, c)
				}
			}
		}
		for _, outer := range Scales() {
			for _, inner := range Scales() {
				if got := s.Clock().Time(outer, inner); got != 0 {
					t.Errorf("Time(%s, %s) = %d, want 0", outer, inner, got)
				}
			}
		}
	})
}

func TestAddCondition(t *testing.T) {
	t.Parallel()

	t.Run("unknown mechanism", func(t *testing.T) {
		t.Parallel()
		s := newScheduler(t, chainGraph(t, "a"))
		if err := s.AddCondition("ghost", Always()); !errors.Is(err, ErrUnknownNode) {
			t.Errorf("got %v, want ErrUnknownNode", err)
		}
	})

	t.Run("registered condition is evaluable", func(t *testing.T) {
		t.Parallel()
		s := newScheduler(t, chainGraph(t, "a", "b"))
		mustAdd(t, s, "b", EveryNCalls("a", 2))
		if !s.HasCondition("b") {
			t.Fatal("HasCondition(b) = false after AddCondition")
		}
		ok, err := s.conditions.Condition("b").Satisfied()
		if err != nil {
			t.Fatalf("Satisfied: %v", err)
		}
		if ok {
			t.Error("EveryNCalls(a, 2) satisfied with no firings")
		}
	})

	t.Run("overwrite replaces prior condition", func(t *testing.T) {
		t.Parallel()
		s := newScheduler(t, chainGraph(t, "a"))
		mustAdd(t, s, "a", Never())
		mustAdd(t, s, "a", Always())
		ok, err := s.conditions.Condition("a").Satisfied()
		if err != nil {
			t.Fatalf("Satisfied: %v", err)
		}
		if !ok {
			t.Error("condition was not overwritten by Always")
		}
	})

	t.Run("bulk registration", func(t *testing.T) {
		t.Parallel()
		s := newScheduler(t, chainGraph(t, "a", "b"))
		err := s.AddConditionSet(map[string]Condition{
			"a": Always(),
			"b": Never(),
		})
		if err != nil {
			t.Fatalf("AddConditionSet: %v", err)
		}
		if !s.HasCondition("a") || !s.HasCondition("b") {
			t.Error("bulk registration missed a mechanism")
		}
	})
}

func TestRunValidation(t *testing.T) {
	t.Parallel()

	t.Run("partial termination without trial is fatal", func(t *testing.T) {
		t.Parallel()
		s := newScheduler(t, chainGraph(t, "a"))
		_, err := s.Run(map[TimeScale]Condition{ScaleRun: AfterNPasses(1)})
		if !errors.Is(err, ErrNoTrialTermination) {
			t.Errorf("got %v, want ErrNoTrialTermination", err)
		}
	})

	t.Run("explicit nil trial is fatal", func(t *testing.T) {
		t.Parallel()
		s := newScheduler(t, chainGraph(t, "a"))
		_, err := s.Run(map[TimeScale]Condition{ScaleTrial: nil})
		if !errors.Is(err, ErrNoTrialTermination) {
			t.Errorf("got %v, want ErrNoTrialTermination", err)
		}
	})

	t.Run("defaults produce warnings", func(t *testing.T) {
		t.Parallel()
		s := newScheduler(t, chainGraph(t, "a", "b"))
		mustAdd(t, s, "a", Always())
		run, err := s.Run(nil)
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
		defer run.Stop()
		if got := len(run.Warnings()); got != 2 {
			t.Fatalf("got %d warnings %v, want 2 (defaulted condition + defaulted termination)",
				got, run.Warnings())
		}
	})

	t.Run("fully specified run has no warnings", func(t *testing.T) {
		t.Parallel()
		s := newScheduler(t, chainGraph(t, "a"))
		mustAdd(t, s, "a", Always())
		run, err := s.Run(trialTerm(AllHaveRun()))
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
		defer run.Stop()
		if ws := run.Warnings(); len(ws) != 0 {
			t.Errorf("Warnings() = %v, want none", ws)
		}
	})
}

// The three firing sequences below are the documented behavior of the
// scheduling model; they exercise the consideration queue, the pairwise
// useable counts, and the intra-layer fixed point together.

func TestLinearChainPhasing(t *testing.T) {
	t.Parallel()

	// a → b → c; b fires every 2 a's, c every 3 b's; stop once all ran.
	s := newScheduler(t, chainGraph(t, "a", "b", "c"))
	mustAdd(t, s, "b", EveryNCalls("a", 2))
	mustAdd(t, s, "c", EveryNCalls("b", 3))

	got := drain(t, s, trialTerm(AllHaveRun()))
	want := [][]string{
		{"a"}, {"a"}, {"b"},
		{"a"}, {"a"}, {"b"},
		{"a"}, {"a"}, {"b"},
		{"c"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("firing sequence = %v, want %v", got, want)
	}
}

func TestAlternatingPhasing(t *testing.T) {
	t.Parallel()

	// a → b; a fires on pass 0 and after every 2 b's; b fires after any a
	// or after its own previous firing; stop after b's 4th firing.
	s := newScheduler(t, chainGraph(t, "a", "b"))
	mustAdd(t, s, "a", Any(AtPass(0), EveryNCalls("b", 2)))
	mustAdd(t, s, "b", Any(EveryNCalls("a", 1), EveryNCalls("b", 1)))

	got := drain(t, s, trialTerm(AfterNCalls("b", 4, ScaleTrial)))
	want := [][]string{
		{"a"}, {"b"}, {"b"},
		{"a"}, {"b"}, {"b"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("firing sequence = %v, want %v", got, want)
	}
}

func TestConvergingPathwaysPhasing(t *testing.T) {
	t.Parallel()

	// a → c and b → c; a fires every pass, b every 2 a's, c once either
	// input has fired 3 times; stop after c's 4th firing.
	g := graph.New()
	for _, id := range []string{"a", "b", "c"} {
		if err := g.AddNode(id); err != nil {
			t.Fatalf("AddNode: %v", err)
		}
	}
	if err := g.AddProjection("a", "c"); err != nil {
		t.Fatalf("AddProjection: %v", err)
	}
	if err := g.AddProjection("b", "c"); err != nil {
		t.Fatalf("AddProjection: %v", err)
	}

	s := newScheduler(t, g)
	mustAdd(t, s, "a", EveryNPasses(1))
	mustAdd(t, s, "b", EveryNCalls("a", 2))
	mustAdd(t, s, "c", Any(
		AfterNCalls("a", 3, ScaleTrial),
		AfterNCalls("b", 3, ScaleTrial),
	))

	got := drain(t, s, trialTerm(AfterNCalls("c", 4, ScaleTrial)))
	want := [][]string{
		{"a"},
		{"a", "b"},
		{"a"}, {"c"},
		{"a", "b"}, {"c"},
		{"a"}, {"c"},
		{"a", "b"}, {"c"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("firing sequence = %v, want %v", got, want)
	}
}

func TestIntraLayerCascade(t *testing.T) {
	t.Parallel()

	// a and b share a layer; b's condition is satisfied by a's firing in
	// the same time step.
	g := graph.New()
	_ = g.AddNode("a")
	_ = g.AddNode("b")

	s := newScheduler(t, g)
	mustAdd(t, s, "a", Always())
	mustAdd(t, s, "b", EveryNCalls("a", 1))

	got := drain(t, s, trialTerm(AllHaveRun()))
	want := [][]string{{"a", "b"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("firing sequence = %v, want %v", got, want)
	}
}

func TestCountsUseableInvariant(t *testing.T) {
	t.Parallel()

	s := newScheduler(t, chainGraph(t, "a", "b", "c"))
	run, err := s.Run(trialTerm(AllHaveRun()))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if _, err := run.Drain(); err != nil {
		t.Fatalf("Drain: %v", err)
	}

	// Every mechanism fired, and c fired last in the trial: upstream
	// counts useable by c were consumed, while c's own firing is useable
	// by everything, itself included.
	for _, src := range []string{"a", "b"} {
		if got := s.countsUseable[src]["c"]; got != 0 {
			t.Errorf("countsUseable[%s][c] = %d, want 0 after c fired", src, got)
		}
	}
	for _, dst := range s.Nodes() {
		if got := s.countsUseable["c"][dst]; got != 1 {
			t.Errorf("countsUseable[c][%s] = %d, want 1", dst, got)
		}
	}
}

func TestExecutionListMatchesYields(t *testing.T) {
	t.Parallel()

	s := newScheduler(t, chainGraph(t, "a", "b"))
	mustAdd(t, s, "b", EveryNCalls("a", 2))
	run, err := s.Run(trialTerm(AllHaveRun()))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	var yielded []NodeSet
	for run.Next() {
		yielded = append(yielded, run.Fired())
	}
	if err := run.Err(); err != nil {
		t.Fatalf("run error: %v", err)
	}

	history := s.ExecutionList()
	if !reflect.DeepEqual(history, yielded) {
		t.Errorf("ExecutionList() = %v, want yields %v", history, yielded)
	}
}

func TestEmptyConsiderationQueue(t *testing.T) {
	t.Parallel()

	s, err := NewFromLayers([][]string{})
	if err != nil {
		t.Fatalf("NewFromLayers: %v", err)
	}
	// AllHaveRun is vacuously true over zero mechanisms.
	got := drain(t, s, nil)
	if len(got) != 0 {
		t.Errorf("got %d time-steps, want 0", len(got))
	}
	if steps := s.ExecutionList(); len(steps) != 0 {
		t.Errorf("ExecutionList() = %v, want empty", steps)
	}
}

func TestStallGuard(t *testing.T) {
	t.Parallel()

	// A mechanism that can never fire: each pass produces exactly one
	// empty time-step, and the trial still terminates via pass count.
	s := newScheduler(t, chainGraph(t, "a"))
	mustAdd(t, s, "a", Never())

	got := drain(t, s, trialTerm(AfterNPasses(3)))
	want := [][]string{{}, {}, {}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("firing sequence = %v, want three empty time-steps", got)
	}
	if steps := s.Clock().Time(ScaleTrial, ScaleTimeStep); steps != 3 {
		t.Errorf("time steps in trial = %d, want 3", steps)
	}
}

func TestTrialCounterLifecycle(t *testing.T) {
	t.Parallel()

	s := newScheduler(t, chainGraph(t, "a", "b"))
	first := drain(t, s, trialTerm(AllHaveRun()))
	if len(first) == 0 {
		t.Fatal("first trial produced no time-steps")
	}
	if got := s.Clock().Time(ScaleRun, ScaleTrial); got != 1 {
		t.Errorf("trials in run = %d, want 1", got)
	}

	// A fresh Run resets per-trial counters; the same sequence repeats.
	second := drain(t, s, trialTerm(AllHaveRun()))
	if !reflect.DeepEqual(first, second) {
		t.Errorf("second trial = %v, want same as first %v", second, first)
	}
	if got := s.Clock().Time(ScaleRun, ScaleTrial); got != 2 {
		t.Errorf("trials in run = %d, want 2", got)
	}
	// History spans both trials.
	if got, want := len(s.ExecutionList()), len(first)+len(second); got != want {
		t.Errorf("ExecutionList() length = %d, want %d", got, want)
	}
}

func TestCountsTotalResetPerScale(t *testing.T) {
	t.Parallel()

	s := newScheduler(t, chainGraph(t, "a", "b"))
	mustAdd(t, s, "b", EveryNCalls("a", 2))
	_ = drain(t, s, trialTerm(AllHaveRun()))

	// The trial ended after b's first firing; trial counts survive until
	// the next Run, while pass counts reflect only the final pass.
	trial := s.CountsTotal(ScaleTrial)
	if trial["a"] != 2 || trial["b"] != 1 {
		t.Errorf("trial counts = %v, want a:2 b:1", trial)
	}
	pass := s.CountsTotal(ScalePass)
	if pass["a"] != 1 || pass["b"] != 1 {
		t.Errorf("final pass counts = %v, want a:1 b:1", pass)
	}
}

func TestConditionEvaluationErrorSurfacesInRun(t *testing.T) {
	t.Parallel()

	s := newScheduler(t, chainGraph(t, "a", "b"))
	mustAdd(t, s, "b", EveryNCalls("ghost", 1))

	run, err := s.Run(trialTerm(AllHaveRun()))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	_, err = run.Drain()
	if !errors.Is(err, ErrUnknownNode) {
		t.Errorf("got %v, want ErrUnknownNode", err)
	}
}

func TestRunStop(t *testing.T) {
	t.Parallel()

	s := newScheduler(t, chainGraph(t, "a", "b", "c"))
	mustAdd(t, s, "b", EveryNCalls("a", 2))
	mustAdd(t, s, "c", EveryNCalls("b", 3))
	run, err := s.Run(trialTerm(AllHaveRun()))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !run.Next() {
		t.Fatal("Next() = false on first step")
	}
	run.Stop()
	if run.Next() {
		t.Error("Next() = true after Stop")
	}
}
