package model

import (
	"fmt"
	"os"

	toml "github.com/pelletier/go-toml/v2"
)

// Load reads and parses a model file. It performs structural validation
// only (required fields, unique names, known references); compiling the
// conditions is deferred to Build so that Load stays cheap for tooling
// that only inspects the model.
func Load(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNoModel, path)
		}
		return nil, fmt.Errorf("reading model: %w", err)
	}

	var m Model
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	m.SourceFile = path

	if err := m.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &m, nil
}

// validate checks structural correctness: required fields, unique
// mechanism names, and projection references.
func (m *Model) validate() error {
	if len(m.Mechanisms) == 0 {
		return fmt.Errorf("%w: at least one [[mechanism]]", ErrMissingField)
	}

	seen := make(map[string]bool, len(m.Mechanisms))
	for i, mech := range m.Mechanisms {
		if mech.Name == "" {
			return fmt.Errorf("%w: mechanism %d has no name", ErrMissingField, i)
		}
		if seen[mech.Name] {
			return fmt.Errorf("%w: %q", ErrDuplicateMechanism, mech.Name)
		}
		seen[mech.Name] = true
	}

	for _, p := range m.Projections {
		if p.Sender == "" || p.Receiver == "" {
			return fmt.Errorf("%w: projection needs sender and receiver", ErrMissingField)
		}
		if !seen[p.Sender] {
			return fmt.Errorf("projection %s → %s: %w: %q", p.Sender, p.Receiver, ErrUnknownMechanism, p.Sender)
		}
		if !seen[p.Receiver] {
			return fmt.Errorf("projection %s → %s: %w: %q", p.Sender, p.Receiver, ErrUnknownMechanism, p.Receiver)
		}
	}

	for _, mech := range m.Mechanisms {
		if mech.Condition == nil {
			continue
		}
		if err := mech.Condition.check(seen); err != nil {
			return fmt.Errorf("mechanism %q condition: %w", mech.Name, err)
		}
	}
	for scale, spec := range m.Termination {
		if err := spec.check(seen); err != nil {
			return fmt.Errorf("termination.%s: %w", scale, err)
		}
		if kind := spec.ownerRelative(); kind != "" {
			return fmt.Errorf("termination.%s: %w: %q counts calls relative to an owner mechanism and cannot terminate a scale", scale, ErrBadConditionSpec, kind)
		}
	}
	return nil
}

// ownerRelative returns the first kind in the spec tree that only has
// meaning relative to an owner mechanism, or "" if there is none. Such
// kinds are valid on a mechanism but not in the termination table,
// where no owner exists.
func (c *ConditionSpec) ownerRelative() string {
	if conditionKinds[c.Kind].needsOwner {
		return c.Kind
	}
	for i := range c.Of {
		if kind := c.Of[i].ownerRelative(); kind != "" {
			return kind
		}
	}
	return ""
}

// check validates a condition spec tree against the declared mechanism
// names without compiling it.
func (c *ConditionSpec) check(known map[string]bool) error {
	kind, ok := conditionKinds[c.Kind]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownConditionKind, c.Kind)
	}
	if kind.needsNode {
		if c.Node == "" {
			return fmt.Errorf("%w: %q requires node", ErrBadConditionSpec, c.Kind)
		}
		if !known[c.Node] {
			return fmt.Errorf("%w: %q", ErrUnknownMechanism, c.Node)
		}
	}
	if kind.combinator {
		if len(c.Of) == 0 {
			return fmt.Errorf("%w: %q requires of = [...]", ErrBadConditionSpec, c.Kind)
		}
		if c.Kind == "not" && len(c.Of) != 1 {
			return fmt.Errorf("%w: \"not\" takes exactly one child, got %d", ErrBadConditionSpec, len(c.Of))
		}
		for i := range c.Of {
			if err := c.Of[i].check(known); err != nil {
				return err
			}
		}
	}
	return nil
}
