package hdl

import "math/big"

// Op identifies the operation a node performs.
type Op int

const (
	// OpCopy transfers its argument to its destination unchanged.
	OpCopy Op = iota
	// OpNot inverts every bit of its argument.
	OpNot
	// OpAnd computes the bitwise conjunction of its two arguments.
	OpAnd
	// OpOr computes the bitwise disjunction of its two arguments.
	OpOr
	// OpXor computes the bitwise exclusive-or of its two arguments.
	OpXor
	// OpMux selects its second argument when the one-bit first argument is 1,
	// and its third argument otherwise.
	OpMux
	// OpConcat concatenates its arguments, first argument in the most
	// significant position.
	OpConcat
	// OpSlice selects the bit range [Low, High] of its argument.
	OpSlice
	// OpRegNext latches its argument into the destination register at the
	// cycle boundary.
	OpRegNext
	// OpMemRead is a memory read port: one address argument, one data
	// destination.
	OpMemRead
	// OpMemWrite is a memory write port: address, data, and enable arguments,
	// no destination.
	OpMemWrite
)

func (o Op) String() string {
	switch o {
	case OpCopy:
		return "copy"
	case OpNot:
		return "not"
	case OpAnd:
		return "and"
	case OpOr:
		return "or"
	case OpXor:
		return "xor"
	case OpMux:
		return "mux"
	case OpConcat:
		return "concat"
	case OpSlice:
		return "slice"
	case OpRegNext:
		return "regnext"
	case OpMemRead:
		return "memread"
	case OpMemWrite:
		return "memwrite"
	}
	return "op?"
}

// A MemoryDecl is the view of a declared memory that the netlist, simulator,
// and export passes share. Concrete memories live in the mem package.
type MemoryDecl interface {
	Name() string
	Identity() int
	BitWidth() int
	AddrWidth() int
	Asynchronous() bool
}

// A ROMDecl is a read-only memory whose contents can be resolved against a
// concrete address. Resolve is only meaningful at simulation time and must be
// deterministic and side-effect free for fixed contents.
type ROMDecl interface {
	MemoryDecl
	Resolve(address any) (*big.Int, error)
}

// A Node is one logic operation in a netlist. Memory ports carry the owning
// memory declaration and its identity so that multiple memories of identical
// shape are never confused by downstream passes.
type Node struct {
	Op    Op
	Args  []*Signal
	Dests []*Signal

	// High and Low bound the selected bit range for OpSlice.
	High int
	Low  int

	// Mem and MemID identify the owning memory for OpMemRead and OpMemWrite.
	Mem   MemoryDecl
	MemID int
}
