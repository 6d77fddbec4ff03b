package model

import "errors"

// Sentinel errors for model loading and compilation.
var (
	// ErrNoModel indicates the model file does not exist.
	ErrNoModel = errors.New("model file not found")
	// ErrMissingField indicates a required field is empty.
	ErrMissingField = errors.New("required field missing")
	// ErrDuplicateMechanism indicates two mechanisms share a name.
	ErrDuplicateMechanism = errors.New("duplicate mechanism name")
	// ErrUnknownMechanism indicates a projection, condition, or
	// termination rule references a mechanism the model does not declare.
	ErrUnknownMechanism = errors.New("reference to unknown mechanism")
	// ErrUnknownConditionKind indicates an unrecognized condition kind.
	ErrUnknownConditionKind = errors.New("unknown condition kind")
	// ErrBadConditionSpec indicates a condition spec is missing a
	// required argument or carries one outside its valid range.
	ErrBadConditionSpec = errors.New("invalid condition spec")
)
