package ordering

import "errors"

var (
	ErrPositionOutOfRange = errors.New("position out of range")
	ErrInvariantViolation = errors.New("ordering invariant violated")
	ErrInvalidDescriptor  = errors.New("invalid order descriptor")
	ErrUnknownEntity      = errors.New("no descriptor for entity")
	ErrGroupMismatch      = errors.New("group does not match descriptor")
	ErrBuiltinOverride    = errors.New("descriptor changes the columns of a built-in entity")
)
