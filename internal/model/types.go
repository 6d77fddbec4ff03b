// Package model loads network-model files: TOML documents declaring
// mechanisms, the projections between them, per-mechanism scheduling
// conditions, and termination rules. A loaded model compiles into a
// graph.Graph and a sched.Scheduler.
package model

// Model is the parsed representation of a *.synapse.toml file.
type Model struct {
	Network     Info                     `toml:"network"`
	Mechanisms  []MechanismSpec          `toml:"mechanism"`
	Projections []ProjectionSpec         `toml:"projection"`
	Termination map[string]ConditionSpec `toml:"termination"`

	// SourceFile is the path the model was loaded from, for error context.
	SourceFile string `toml:"-"`
}

// Info holds the network's name and description.
type Info struct {
	Name        string `toml:"name"`
	Description string `toml:"description"`
}

// MechanismSpec declares one mechanism and, optionally, the condition
// gating its firing. A mechanism without a condition fires whenever the
// scheduler considers it.
type MechanismSpec struct {
	Name      string         `toml:"name"`
	Condition *ConditionSpec `toml:"condition"`
}

// ProjectionSpec declares a directed sender → receiver dependency.
type ProjectionSpec struct {
	Sender   string `toml:"sender"`
	Receiver string `toml:"receiver"`
}

// ConditionSpec is the recursive TOML form of a scheduling condition.
// Which fields are required depends on Kind: node-relative kinds take
// Node and N, pass/trial/time-step kinds take N, and the combinators
// take Of.
type ConditionSpec struct {
	Kind  string          `toml:"kind"`
	Node  string          `toml:"node"`
	N     int             `toml:"n"`
	Scale string          `toml:"scale"`
	Of    []ConditionSpec `toml:"of"`
}
