package hdl

import "errors"

var (
	// ErrInvalidWidth is returned when a signal or memory is declared with a
	// non-positive bit width.
	ErrInvalidWidth = errors.New("width must be at least 1")

	// ErrWidthMismatch is returned when the operands of a logic operation do
	// not have compatible widths.
	ErrWidthMismatch = errors.New("operand width mismatch")

	// ErrDuplicateName is returned when a signal or memory is registered
	// under a name that is already taken in the block.
	ErrDuplicateName = errors.New("name already in use")

	// ErrMultipleDrivers is returned when a node is added whose destination
	// signal is already driven by another node.
	ErrMultipleDrivers = errors.New("signal already driven")

	// ErrSliceRange is returned when a slice selects bits outside of the
	// source signal.
	ErrSliceRange = errors.New("slice range out of bounds")

	// ErrConstTooWide is returned when a constant value does not fit in the
	// declared width.
	ErrConstTooWide = errors.New("constant does not fit in width")

	// ErrNotRegister is returned when a next-value assignment targets a
	// signal that is not a register.
	ErrNotRegister = errors.New("next-value target is not a register")
)
