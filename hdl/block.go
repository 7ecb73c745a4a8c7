package hdl

import (
	"fmt"
	"math/big"
	"strconv"
)

// A Block is the netlist container. It owns every declared signal, logic
// node, and memory of one circuit description. Blocks are built from a single
// goroutine; there is no internal locking.
type Block struct {
	signals       []*Signal
	signalsByName map[string]*Signal
	nodes         []*Node
	driver        map[*Signal]*Node

	memories     []MemoryDecl
	memoriesByID map[int]MemoryDecl

	nameCounters map[string]int
}

// NewBlock creates an empty netlist container.
func NewBlock() *Block {
	return &Block{
		signalsByName: make(map[string]*Signal),
		driver:        make(map[*Signal]*Node),
		memoriesByID:  make(map[int]MemoryDecl),
		nameCounters:  make(map[string]int),
	}
}

// AllocName returns a block-unique name derived from prefix.
func (b *Block) AllocName(prefix string) string {
	for {
		n := b.nameCounters[prefix]
		b.nameCounters[prefix] = n + 1
		name := prefix + strconv.Itoa(n)
		if _, taken := b.signalsByName[name]; !taken {
			return name
		}
	}
}

func (b *Block) addSignal(name string, width int, kind SignalKind) (*Signal, error) {
	if width < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidWidth, width)
	}
	if name == "" {
		name = b.AllocName("t")
	} else if _, taken := b.signalsByName[name]; taken {
		return nil, fmt.Errorf("%w: %q", ErrDuplicateName, name)
	}

	s := &Signal{name: name, width: width, kind: kind, block: b}
	b.signals = append(b.signals, s)
	b.signalsByName[name] = s

	return s, nil
}

// NewSignal creates an anonymous intermediate signal.
func (b *Block) NewSignal(width int) (*Signal, error) {
	return b.addSignal("", width, KindWire)
}

// NewInput declares a named primary input.
func (b *Block) NewInput(name string, width int) (*Signal, error) {
	return b.addSignal(name, width, KindInput)
}

// NewOutput declares a named output.
func (b *Block) NewOutput(name string, width int) (*Signal, error) {
	return b.addSignal(name, width, KindOutput)
}

// NewRegister declares a named register. Its value persists across cycles
// and is updated through SetRegNext.
func (b *Block) NewRegister(name string, width int) (*Signal, error) {
	return b.addSignal(name, width, KindRegister)
}

// NewConst declares a constant signal holding value in the given width.
func (b *Block) NewConst(value uint64, width int) (*Signal, error) {
	return b.NewConstBig(new(big.Int).SetUint64(value), width)
}

// NewConstBig declares a constant signal holding an arbitrary-precision
// value in the given width.
func (b *Block) NewConstBig(value *big.Int, width int) (*Signal, error) {
	if value.Sign() < 0 {
		return nil, fmt.Errorf("%w: negative value %s", ErrConstTooWide, value)
	}
	if value.BitLen() > width {
		return nil, fmt.Errorf("%w: %s needs %d bits, width is %d",
			ErrConstTooWide, value, value.BitLen(), width)
	}

	s, err := b.addSignal("", width, KindConst)
	if err != nil {
		return nil, err
	}
	s.constVal = new(big.Int).Set(value)

	return s, nil
}

// Signal returns the signal registered under name, or nil.
func (b *Block) Signal(name string) *Signal {
	return b.signalsByName[name]
}

// Signals returns every signal of the block in declaration order.
func (b *Block) Signals() []*Signal {
	return b.signals
}

// Nodes returns every logic node of the block in insertion order.
func (b *Block) Nodes() []*Node {
	return b.nodes
}

// Driver returns the node driving s, or nil if s is undriven.
func (b *Block) Driver(s *Signal) *Node {
	return b.driver[s]
}

// AddNode registers a logic node. Each destination signal may be driven by at
// most one node.
func (b *Block) AddNode(n *Node) error {
	for _, d := range n.Dests {
		if prev := b.driver[d]; prev != nil {
			return fmt.Errorf("%w: %s driven by %s and %s",
				ErrMultipleDrivers, d.Name(), prev.Op, n.Op)
		}
	}
	for _, d := range n.Dests {
		b.driver[d] = n
	}
	b.nodes = append(b.nodes, n)

	return nil
}

// RegisterMemory records a memory declaration with the block. The memory
// name must be unique among the block's memories.
func (b *Block) RegisterMemory(m MemoryDecl) error {
	for _, existing := range b.memories {
		if existing.Name() == m.Name() {
			return fmt.Errorf("%w: memory %q", ErrDuplicateName, m.Name())
		}
	}

	b.memories = append(b.memories, m)
	b.memoriesByID[m.Identity()] = m

	return nil
}

// Memories returns the declared memories in registration order.
func (b *Block) Memories() []MemoryDecl {
	return b.memories
}

// MemoryByID returns the memory with the given identity, or nil.
func (b *Block) MemoryByID(id int) MemoryDecl {
	return b.memoriesByID[id]
}

// AllocMemName returns a unique memory name derived from prefix.
func (b *Block) AllocMemName(prefix string) string {
	if prefix == "" {
		prefix = "mem"
	}
	name := prefix
	for i := 0; ; i++ {
		taken := false
		for _, m := range b.memories {
			if m.Name() == name {
				taken = true
				break
			}
		}
		if !taken {
			return name
		}
		name = prefix + "_" + strconv.Itoa(i)
	}
}
