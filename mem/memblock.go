package mem

import (
	"fmt"
	"math/bits"

	"github.com/wyrelab/wyre/hdl"
)

// Unlimited disables a port-count limit.
const Unlimited = -1

// An EnabledWrite pairs write data with a one-bit enable signal. The write
// only takes effect in cycles where the enable is 1.
type EnabledWrite struct {
	Data   *hdl.Signal
	Enable *hdl.Signal
}

// An Assignment is the transient write request produced by Write or
// CondWrite and consumed by Cell.Assign. Constructing one any other way is
// rejected.
type Assignment struct {
	rhs         any
	conditional bool
}

// Write builds an unconditional write request. The value may be a data
// signal or an EnabledWrite.
func Write(v any) Assignment {
	return Assignment{rhs: v}
}

// CondWrite builds a conditional write request, routed through the memory's
// conditional updater.
func CondWrite(v any) Assignment {
	return Assignment{rhs: v, conditional: true}
}

// An ArbitratedMemory accepts the single resolved write of a conditional
// arbitration round. The conditional updater calls BuildArbitratedWrite
// exactly once per resolved write port.
type ArbitratedMemory interface {
	BitWidth() int
	AddrWidth() int
	BuildArbitratedWrite(addr, data, enable *hdl.Signal) error
}

// A ConditionalUpdater merges guarded writes that share a destination memory
// into one arbitrated write port. The concrete implementation lives in the
// cond package.
type ConditionalUpdater interface {
	SubmitWrite(m ArbitratedMemory, addr, data, enable *hdl.Signal) error
}

// A MemBlock is a read/write block memory. Indexing it with At produces a
// Cell that builds read ports lazily and routes write requests into write
// ports. Each port is one logic node in the owning block.
//
// Port counters only ever increase. A build that fails its limit check has
// already consumed capacity; the caller must not retry against the same
// memory.
type MemBlock struct {
	ctx   *hdl.Context
	block *hdl.Block

	name      string
	identity  int
	bitWidth  int
	addrWidth int
	async     bool

	// decl is the declaration registered with the block. For a RomBlock it
	// holds the derived type, so port nodes expose the ROM interface.
	decl hdl.MemoryDecl

	maxReadPorts  int
	maxWritePorts int

	readPortCount  int
	writePortCount int
	readPorts      []*hdl.Node
	writePorts     []*hdl.Node

	updater ConditionalUpdater
}

// Name returns the block-unique name of the memory.
func (m *MemBlock) Name() string { return m.name }

// Identity returns the session-unique identity of the memory.
func (m *MemBlock) Identity() int { return m.identity }

// BitWidth returns the width of each stored element.
func (m *MemBlock) BitWidth() int { return m.bitWidth }

// AddrWidth returns the width of the address bus. The memory addresses
// 2^AddrWidth elements; storage is realized sparsely by the simulator.
func (m *MemBlock) AddrWidth() int { return m.addrWidth }

// Asynchronous reports whether the memory is exempt from the registered-input
// discipline. The timing-check pass consults this flag; the memory itself
// only records it.
func (m *MemBlock) Asynchronous() bool { return m.async }

// MaxReadPorts returns the read-port limit, or Unlimited.
func (m *MemBlock) MaxReadPorts() int { return m.maxReadPorts }

// MaxWritePorts returns the write-port limit, or Unlimited.
func (m *MemBlock) MaxWritePorts() int { return m.maxWritePorts }

// ReadPortCount returns the number of attempted read-port builds.
func (m *MemBlock) ReadPortCount() int { return m.readPortCount }

// WritePortCount returns the number of attempted write-port builds.
func (m *MemBlock) WritePortCount() int { return m.writePortCount }

// ReadPorts returns the built read-port nodes in build order, which is the
// order the simulator and exporters process them in.
func (m *MemBlock) ReadPorts() []*hdl.Node { return m.readPorts }

// WritePorts returns the built write-port nodes in build order.
func (m *MemBlock) WritePorts() []*hdl.Node { return m.writePorts }

// SetConditionalUpdater routes future conditional writes through u.
func (m *MemBlock) SetConditionalUpdater(u ConditionalUpdater) {
	m.updater = u
}

func (m *MemBlock) memDecl() hdl.MemoryDecl {
	if m.decl != nil {
		return m.decl
	}
	return m
}

// addressSignal coerces an address into a signal no wider than the address
// bus. Integers become constants of the full address width.
func (m *MemBlock) addressSignal(address any) (*hdl.Signal, error) {
	switch a := address.(type) {
	case *hdl.Signal:
		if a.Width() > m.addrWidth {
			return nil, fmt.Errorf("%w: %d-bit address %s into %q (addrwidth %d)",
				ErrAddressTooWide, a.Width(), a.Name(), m.name, m.addrWidth)
		}
		return a, nil
	case int:
		if a < 0 {
			return nil, fmt.Errorf("%w: negative address %d", ErrInvalidAddress, a)
		}
		return m.constAddress(uint64(a))
	case uint64:
		return m.constAddress(a)
	default:
		return nil, fmt.Errorf("%w: %T", ErrInvalidAddressType, address)
	}
}

func (m *MemBlock) constAddress(a uint64) (*hdl.Signal, error) {
	if bits.Len64(a) > m.addrWidth {
		return nil, fmt.Errorf("%w: address %d into %q (addrwidth %d)",
			ErrAddressTooWide, a, m.name, m.addrWidth)
	}
	return m.block.NewConst(a, m.addrWidth)
}

// At indexes the memory with an address, returning a Cell that can be read
// from or stored to. Taking a Cell does not build any port by itself.
func (m *MemBlock) At(address any) (*Cell, error) {
	addr, err := m.addressSignal(address)
	if err != nil {
		return nil, err
	}
	return &Cell{owner: m, addr: addr}, nil
}

// Read builds a read port for the given address and returns its fresh data
// signal. Every call creates a distinct port and a distinct output signal;
// identical addresses are not deduplicated.
func (m *MemBlock) Read(address any) (*hdl.Signal, error) {
	addr, err := m.addressSignal(address)
	if err != nil {
		return nil, err
	}
	return m.buildReadPort(addr)
}

func (m *MemBlock) buildReadPort(addr *hdl.Signal) (*hdl.Signal, error) {
	if addr.Width() > m.addrWidth {
		return nil, fmt.Errorf("%w: %d-bit address into %q (addrwidth %d)",
			ErrAddressTooWide, addr.Width(), m.name, m.addrWidth)
	}

	m.readPortCount++
	if m.maxReadPorts != Unlimited && m.readPortCount > m.maxReadPorts {
		return nil, fmt.Errorf("%w: %q allows %d",
			ErrReadPortLimit, m.name, m.maxReadPorts)
	}

	data, err := m.block.NewSignal(m.bitWidth)
	if err != nil {
		return nil, err
	}

	node := &hdl.Node{
		Op:    hdl.OpMemRead,
		Args:  []*hdl.Signal{addr},
		Dests: []*hdl.Signal{data},
		Mem:   m.memDecl(),
		MemID: m.identity,
	}
	if err := m.block.AddNode(node); err != nil {
		return nil, err
	}
	m.readPorts = append(m.readPorts, node)

	return data, nil
}

// assign resolves a write request against the memory: it normalizes the
// right-hand side, validates widths, and either builds a write port directly
// or hands the write to the conditional updater.
func (m *MemBlock) assign(addr *hdl.Signal, rhs any, conditional bool) error {
	var data, enable *hdl.Signal

	switch v := rhs.(type) {
	case EnabledWrite:
		data, enable = v.Data, v.Enable
	case *hdl.Signal:
		data = v
	default:
		return fmt.Errorf("%w: cannot write %T", ErrInvalidAssignment, rhs)
	}

	if data == nil {
		return fmt.Errorf("%w: nil write data", ErrInvalidAssignment)
	}
	if enable == nil {
		one, err := m.block.NewConst(1, 1)
		if err != nil {
			return err
		}
		enable = one
	}

	if data.Width() != m.bitWidth {
		return fmt.Errorf("%w: %d-bit data into %q (bitwidth %d)",
			ErrDataWidthMismatch, data.Width(), m.name, m.bitWidth)
	}
	if enable.Width() != 1 {
		return fmt.Errorf("%w: enable %s is %d bits",
			ErrEnableWidthMismatch, enable.Name(), enable.Width())
	}
	if addr.Width() > m.addrWidth {
		return fmt.Errorf("%w: %d-bit address into %q (addrwidth %d)",
			ErrAddressTooWide, addr.Width(), m.name, m.addrWidth)
	}

	if conditional {
		if m.updater == nil {
			return fmt.Errorf("%w: memory %q", ErrNoConditionalContext, m.name)
		}
		return m.updater.SubmitWrite(m, addr, data, enable)
	}

	return m.buildWritePort(addr, data, enable)
}

// BuildArbitratedWrite is the callback the conditional updater uses once a
// round of guarded writes has been resolved into a single port.
func (m *MemBlock) BuildArbitratedWrite(addr, data, enable *hdl.Signal) error {
	return m.buildWritePort(addr, data, enable)
}

func (m *MemBlock) buildWritePort(addr, data, enable *hdl.Signal) error {
	m.writePortCount++
	if m.maxWritePorts != Unlimited && m.writePortCount > m.maxWritePorts {
		return fmt.Errorf("%w: %q allows %d",
			ErrWritePortLimit, m.name, m.maxWritePorts)
	}

	node := &hdl.Node{
		Op:    hdl.OpMemWrite,
		Args:  []*hdl.Signal{addr, data, enable},
		Mem:   m.memDecl(),
		MemID: m.identity,
	}
	if err := m.block.AddNode(node); err != nil {
		return err
	}
	m.writePorts = append(m.writePorts, node)

	return nil
}
