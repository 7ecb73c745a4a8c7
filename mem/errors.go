package mem

import "errors"

// Capacity errors signal a hardware-resource budget violation at
// construction time. The failed build already consumed the port counter;
// retrying against the same memory cannot succeed.
var (
	ErrReadPortLimit  = errors.New("maximum number of read ports exceeded")
	ErrWritePortLimit = errors.New("maximum number of write ports exceeded")
)

// Width-mismatch errors are caller bugs detected at construction time.
var (
	ErrAddressTooWide      = errors.New("address wider than memory address width")
	ErrDataWidthMismatch   = errors.New("write data width does not match memory bit width")
	ErrEnableWidthMismatch = errors.New("write enable is not exactly 1 bit")
)

// Syntax-misuse errors.
var (
	ErrInvalidAssignment    = errors.New("memory assignment must use Write or CondWrite")
	ErrPointlessRomIndex    = errors.New("indexing a ROM with a constant; use the source data instead")
	ErrWriteToRom           = errors.New("no writing to a read-only memory")
	ErrNoConditionalContext = errors.New("conditional write without a conditional updater")
)

// ROM content errors are raised during simulation, when contents are first
// evaluated against concrete addresses.
var (
	ErrInvalidAddress     = errors.New("address outside the ROM address space")
	ErrInvalidAddressType = errors.New("ROM address has an invalid type")
	ErrRomEvaluation      = errors.New("ROM data function failed")
	ErrRomUnmapped        = errors.New("ROM address not mapped; consider padding with zeros")
	ErrInvalidRomValue    = errors.New("ROM value does not fit the memory bit width")
)
