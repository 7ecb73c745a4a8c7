// Package sim provides an interpreted cycle simulator for netlists. Within a
// cycle every memory read observes storage as of the start of the cycle;
// enabled writes and register updates are committed atomically at the cycle
// boundary, in port registration order.
package sim

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/wyrelab/wyre/hdl"
)

var (
	// ErrCombinationalLoop is returned at build time when the netlist's
	// combinational nodes cannot be ordered.
	ErrCombinationalLoop = errors.New("combinational loop in netlist")

	// ErrUnknownInput is returned when Step receives a name that is not a
	// declared input.
	ErrUnknownInput = errors.New("not a declared input")

	// ErrInputTooWide is returned when an input value does not fit the
	// declared input width.
	ErrInputTooWide = errors.New("input value wider than the input signal")

	// ErrUnknownSignal is returned when Inspect is given an unknown name.
	ErrUnknownSignal = errors.New("no signal with that name")
)

// A Simulator executes one netlist cycle by cycle.
type Simulator struct {
	block  *hdl.Block
	tracer Tracer

	order   []*hdl.Node // combinational nodes in evaluation order
	writes  []*hdl.Node // memory write ports in registration order
	regNext []*hdl.Node

	values   map[*hdl.Signal]*big.Int
	regState map[*hdl.Signal]*big.Int
	storage  map[int]*Storage

	cycle int
}

// Cycle returns the number of completed cycles.
func (s *Simulator) Cycle() int { return s.cycle }

// Step simulates one cycle with the given input values.
func (s *Simulator) Step(inputs map[string]uint64) error {
	big_ := make(map[string]*big.Int, len(inputs))
	for name, v := range inputs {
		big_[name] = new(big.Int).SetUint64(v)
	}
	return s.StepBig(big_)
}

// StepBig simulates one cycle with arbitrary-precision input values. Inputs
// not mentioned default to zero.
func (s *Simulator) StepBig(inputs map[string]*big.Int) error {
	if err := s.latch(inputs); err != nil {
		return err
	}

	for _, n := range s.order {
		if err := s.eval(n); err != nil {
			return err
		}
	}

	s.commit()
	s.cycle++
	s.trace()

	return nil
}

// latch assigns start-of-cycle values: constants, inputs, and register
// outputs.
func (s *Simulator) latch(inputs map[string]*big.Int) error {
	s.values = make(map[*hdl.Signal]*big.Int)

	for name := range inputs {
		sig := s.block.Signal(name)
		if sig == nil || sig.Kind() != hdl.KindInput {
			return fmt.Errorf("%w: %q", ErrUnknownInput, name)
		}
	}

	for _, sig := range s.block.Signals() {
		switch sig.Kind() {
		case hdl.KindConst:
			s.values[sig] = sig.ConstValue()
		case hdl.KindInput:
			v := inputs[sig.Name()]
			if v == nil {
				v = new(big.Int)
			}
			if v.Sign() < 0 || v.BitLen() > sig.Width() {
				return fmt.Errorf("%w: %s into %d-bit %s",
					ErrInputTooWide, v, sig.Width(), sig.Name())
			}
			s.values[sig] = new(big.Int).Set(v)
		case hdl.KindRegister:
			if v, ok := s.regState[sig]; ok {
				s.values[sig] = new(big.Int).Set(v)
			} else {
				s.values[sig] = new(big.Int)
			}
		}
	}

	return nil
}

func (s *Simulator) value(sig *hdl.Signal) *big.Int {
	if v, ok := s.values[sig]; ok {
		return v
	}
	// Undriven wires read as zero.
	return new(big.Int)
}

func widthMask(width int) *big.Int {
	m := new(big.Int).Lsh(big.NewInt(1), uint(width))
	return m.Sub(m, big.NewInt(1))
}

func (s *Simulator) eval(n *hdl.Node) error {
	switch n.Op {
	case hdl.OpCopy:
		s.values[n.Dests[0]] = new(big.Int).Set(s.value(n.Args[0]))

	case hdl.OpNot:
		v := new(big.Int).Not(s.value(n.Args[0]))
		s.values[n.Dests[0]] = v.And(v, widthMask(n.Dests[0].Width()))

	case hdl.OpAnd:
		s.values[n.Dests[0]] = new(big.Int).And(s.value(n.Args[0]), s.value(n.Args[1]))

	case hdl.OpOr:
		s.values[n.Dests[0]] = new(big.Int).Or(s.value(n.Args[0]), s.value(n.Args[1]))

	case hdl.OpXor:
		s.values[n.Dests[0]] = new(big.Int).Xor(s.value(n.Args[0]), s.value(n.Args[1]))

	case hdl.OpMux:
		if s.value(n.Args[0]).Sign() != 0 {
			s.values[n.Dests[0]] = new(big.Int).Set(s.value(n.Args[1]))
		} else {
			s.values[n.Dests[0]] = new(big.Int).Set(s.value(n.Args[2]))
		}

	case hdl.OpConcat:
		v := new(big.Int)
		for _, a := range n.Args {
			v.Lsh(v, uint(a.Width()))
			v.Or(v, s.value(a))
		}
		s.values[n.Dests[0]] = v

	case hdl.OpSlice:
		v := new(big.Int).Rsh(s.value(n.Args[0]), uint(n.Low))
		s.values[n.Dests[0]] = v.And(v, widthMask(n.High-n.Low+1))

	case hdl.OpMemRead:
		return s.evalMemRead(n)

	default:
		panic(fmt.Sprintf("sim: cannot evaluate %s node", n.Op))
	}

	return nil
}

// evalMemRead reads pre-cycle memory state: writes committed this cycle are
// never visible to this cycle's reads, even at the same address.
func (s *Simulator) evalMemRead(n *hdl.Node) error {
	addr := s.value(n.Args[0])

	if rom, ok := n.Mem.(hdl.ROMDecl); ok {
		v, err := rom.Resolve(addr)
		if err != nil {
			return err
		}
		s.values[n.Dests[0]] = v
		return nil
	}

	s.values[n.Dests[0]] = s.memStorage(n.MemID).Read(addr)

	return nil
}

func (s *Simulator) memStorage(id int) *Storage {
	st, ok := s.storage[id]
	if !ok {
		st = NewStorage()
		s.storage[id] = st
	}
	return st
}

// commit applies register updates and enabled memory writes at the cycle
// boundary. Write ports are applied in registration order, so the last
// registered port wins a same-address conflict.
func (s *Simulator) commit() {
	next := make(map[*hdl.Signal]*big.Int, len(s.regNext))
	for _, n := range s.regNext {
		next[n.Dests[0]] = new(big.Int).Set(s.value(n.Args[0]))
	}
	for reg, v := range next {
		s.regState[reg] = v
	}

	for _, n := range s.writes {
		enable := s.value(n.Args[2])
		if enable.Sign() == 0 {
			continue
		}
		addr := s.value(n.Args[0])
		data := s.value(n.Args[1])
		s.memStorage(n.MemID).Write(addr, data)
	}
}

func (s *Simulator) trace() {
	if s.tracer == nil {
		return
	}
	for _, sig := range s.block.Signals() {
		if sig.Kind() != hdl.KindOutput {
			continue
		}
		s.tracer.Trace(TraceEntry{
			Cycle:  s.cycle - 1,
			Signal: sig.Name(),
			Value:  s.value(sig).Text(16),
		})
	}
}

// Inspect returns the value a named signal held at the end of the last
// cycle.
func (s *Simulator) Inspect(name string) (*big.Int, error) {
	sig := s.block.Signal(name)
	if sig == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSignal, name)
	}
	return new(big.Int).Set(s.value(sig)), nil
}

// InspectUint is Inspect for values that fit a uint64.
func (s *Simulator) InspectUint(name string) (uint64, error) {
	v, err := s.Inspect(name)
	if err != nil {
		return 0, err
	}
	return v.Uint64(), nil
}

// ReadMemoryValue returns the current content of m at addr.
func (s *Simulator) ReadMemoryValue(m hdl.MemoryDecl, addr *big.Int) *big.Int {
	return s.memStorage(m.Identity()).Read(addr)
}

// InspectMemory returns the written locations of m that fit machine words.
// It mirrors the shape used by memory value maps in tests.
func (s *Simulator) InspectMemory(m hdl.MemoryDecl) map[uint64]uint64 {
	out := make(map[uint64]uint64)
	s.memStorage(m.Identity()).Each(func(addr, value *big.Int) {
		if addr.IsUint64() && value.IsUint64() {
			out[addr.Uint64()] = value.Uint64()
		}
	})
	return out
}
