package sim

import (
	"fmt"
	"math/big"

	"github.com/wyrelab/wyre/hdl"
)

type memoryInit struct {
	mem    hdl.MemoryDecl
	values map[uint64]uint64
}

// Builder builds Simulators.
type Builder struct {
	block    *hdl.Block
	tracer   Tracer
	memInits []memoryInit
}

// MakeBuilder returns a new Builder.
func MakeBuilder() Builder {
	return Builder{}
}

// WithBlock sets the netlist to simulate.
func (b Builder) WithBlock(block *hdl.Block) Builder {
	b.block = block
	return b
}

// WithTracer records output-signal values after every cycle.
func (b Builder) WithTracer(t Tracer) Builder {
	b.tracer = t
	return b
}

// WithMemoryValues seeds the initial contents of one memory. Unmentioned
// locations stay zero.
func (b Builder) WithMemoryValues(m hdl.MemoryDecl, values map[uint64]uint64) Builder {
	b.memInits = append(b.memInits, memoryInit{mem: m, values: values})
	return b
}

// Build orders the netlist for evaluation and creates a simulator with all
// storage zeroed except for the seeded memory values.
func (b Builder) Build() (*Simulator, error) {
	if b.block == nil {
		return nil, fmt.Errorf("sim: builder needs a block")
	}

	s := &Simulator{
		block:    b.block,
		tracer:   b.tracer,
		regState: make(map[*hdl.Signal]*big.Int),
		storage:  make(map[int]*Storage),
	}

	if err := s.levelize(); err != nil {
		return nil, err
	}

	for _, init := range b.memInits {
		st := s.memStorage(init.mem.Identity())
		for addr, value := range init.values {
			st.Write(new(big.Int).SetUint64(addr), new(big.Int).SetUint64(value))
		}
	}

	return s, nil
}

// levelize orders the combinational nodes so that every node is evaluated
// after the producers of its arguments. Register updates and memory writes
// are sequenced at the cycle boundary and are kept out of the ordering.
func (s *Simulator) levelize() error {
	var comb []*hdl.Node
	pending := make(map[*hdl.Signal]bool)

	for _, n := range s.block.Nodes() {
		switch n.Op {
		case hdl.OpRegNext:
			s.regNext = append(s.regNext, n)
		case hdl.OpMemWrite:
			s.writes = append(s.writes, n)
		default:
			comb = append(comb, n)
			for _, d := range n.Dests {
				pending[d] = true
			}
		}
	}

	scheduled := make(map[*hdl.Node]bool)
	for len(s.order) < len(comb) {
		progress := false

		for _, n := range comb {
			if scheduled[n] {
				continue
			}

			ready := true
			for _, a := range n.Args {
				if pending[a] {
					ready = false
					break
				}
			}
			if !ready {
				continue
			}

			scheduled[n] = true
			for _, d := range n.Dests {
				delete(pending, d)
			}
			s.order = append(s.order, n)
			progress = true
		}

		if !progress {
			return fmt.Errorf("%w: %d nodes unschedulable",
				ErrCombinationalLoop, len(comb)-len(s.order))
		}
	}

	return nil
}
