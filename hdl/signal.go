package hdl

import (
	"fmt"
	"math/big"
)

// SignalKind distinguishes how a signal obtains its value during a cycle.
type SignalKind int

const (
	// KindWire is an intermediate signal driven by one logic node.
	KindWire SignalKind = iota
	// KindInput is a primary input fed by the simulator at each cycle.
	KindInput
	// KindOutput is a signal tracked by tracers and inspection.
	KindOutput
	// KindConst carries a fixed value.
	KindConst
	// KindRegister holds its value across cycles and latches a next value at
	// the cycle boundary.
	KindRegister
)

func (k SignalKind) String() string {
	switch k {
	case KindWire:
		return "wire"
	case KindInput:
		return "input"
	case KindOutput:
		return "output"
	case KindConst:
		return "const"
	case KindRegister:
		return "register"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// A Signal is a fixed-width bit vector in a netlist. Signals are created
// through a Block and are owned by it for their entire lifetime.
type Signal struct {
	name  string
	width int
	kind  SignalKind
	block *Block

	constVal *big.Int
}

// Name returns the block-unique name of the signal.
func (s *Signal) Name() string { return s.name }

// Width returns the number of bits in the signal.
func (s *Signal) Width() int { return s.width }

// Kind returns the kind of the signal.
func (s *Signal) Kind() SignalKind { return s.kind }

// Block returns the block that owns the signal.
func (s *Signal) Block() *Block { return s.block }

// ConstValue returns the value of a constant signal, or nil for any other
// kind.
func (s *Signal) ConstValue() *big.Int {
	if s.kind != KindConst {
		return nil
	}
	return new(big.Int).Set(s.constVal)
}

// Not builds a bitwise inversion of the signal.
func (s *Signal) Not() *Signal {
	return s.block.Not(s)
}

// And builds the bitwise conjunction of two same-width signals.
func (s *Signal) And(o *Signal) (*Signal, error) {
	return s.block.And(s, o)
}

// Or builds the bitwise disjunction of two same-width signals.
func (s *Signal) Or(o *Signal) (*Signal, error) {
	return s.block.Or(s, o)
}

// Xor builds the bitwise exclusive-or of two same-width signals.
func (s *Signal) Xor(o *Signal) (*Signal, error) {
	return s.block.Xor(s, o)
}

// Slice builds a sub-vector selecting bits high down to low, inclusive.
func (s *Signal) Slice(high, low int) (*Signal, error) {
	return s.block.Slice(s, high, low)
}
