package sched

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownScale is returned when parsing an unrecognized time scale name.
var ErrUnknownScale = errors.New("unknown time scale")

// TimeScale identifies one level of the nested execution clock, finest to
// coarsest: a trial is made of passes, a pass of time steps; trials nest
// inside runs, runs inside the scheduler's whole life.
type TimeScale int

const (
	ScaleTimeStep TimeScale = iota
	ScalePass
	ScaleTrial
	ScaleRun
	ScaleLife

	numScales = int(ScaleLife) + 1
)

var scaleNames = [numScales]string{
	ScaleTimeStep: "time_step",
	ScalePass:     "pass",
	ScaleTrial:    "trial",
	ScaleRun:      "run",
	ScaleLife:     "life",
}

// String returns the snake_case name of the scale.
func (ts TimeScale) String() string {
	if ts < 0 || int(ts) >= numScales {
		return fmt.Sprintf("TimeScale(%d)", int(ts))
	}
	return scaleNames[ts]
}

// Scales returns all time scales, finest first.
func Scales() []TimeScale {
	return []TimeScale{ScaleTimeStep, ScalePass, ScaleTrial, ScaleRun, ScaleLife}
}

// ParseScale converts a scale name (as used in model files and flags) to a
// TimeScale. Matching is case-insensitive.
func ParseScale(name string) (TimeScale, error) {
	lower := strings.ToLower(strings.TrimSpace(name))
	for i, n := range scaleNames {
		if lower == n {
			return TimeScale(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownScale, name)
}
