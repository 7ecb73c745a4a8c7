package mem

import (
	"fmt"
	"math/big"

	"github.com/wyrelab/wyre/hdl"
)

// A RomBlock is a read-only memory. It supports the same read interface as
// MemBlock but rejects all writes; its data comes from a Contents source
// resolved per access at simulation time.
type RomBlock struct {
	*MemBlock

	contents     Contents
	padWithZeros bool
	buildNewRoms bool

	pool *RomPool
}

// Contents returns the ROM's data source.
func (r *RomBlock) Contents() Contents { return r.contents }

// PadWithZeros reports whether unmapped addresses resolve to zero.
func (r *RomBlock) PadWithZeros() bool { return r.padWithZeros }

// Pool returns the active-copy pool that tracks the physical ROM instances
// backing this logical ROM.
func (r *RomBlock) Pool() *RomPool { return r.pool }

// At indexes the ROM with an address signal. Indexing with a concrete number
// is rejected: a constant address into a ROM should be expressed as a
// constant value taken from the source data.
func (r *RomBlock) At(address any) (*Cell, error) {
	addr, ok := address.(*hdl.Signal)
	if !ok {
		return nil, fmt.Errorf("%w: indexed with %T", ErrPointlessRomIndex, address)
	}
	if addr.Width() > r.addrWidth {
		return nil, fmt.Errorf("%w: %d-bit address %s into %q (addrwidth %d)",
			ErrAddressTooWide, addr.Width(), addr.Name(), r.name, r.addrWidth)
	}
	return &Cell{owner: r, addr: addr}, nil
}

// Read builds a read port for the given address signal, spilling into a
// fresh ROM copy when the active copy's capacity is exhausted and copying is
// enabled.
func (r *RomBlock) Read(address any) (*hdl.Signal, error) {
	cell, err := r.At(address)
	if err != nil {
		return nil, err
	}
	return cell.Signal()
}

func (r *RomBlock) buildReadPort(addr *hdl.Signal) (*hdl.Signal, error) {
	active, err := r.pool.acquire()
	if err != nil {
		return nil, err
	}
	return active.MemBlock.buildReadPort(addr)
}

func (r *RomBlock) assign(_ *hdl.Signal, _ any, _ bool) error {
	return fmt.Errorf("%w: %q", ErrWriteToRom, r.name)
}

// Resolve reports the ROM value stored at a concrete address. It is invoked
// by the simulator only; at netlist-construction time addresses are
// symbolic.
func (r *RomBlock) Resolve(address any) (*big.Int, error) {
	addr, err := r.concreteAddress(address)
	if err != nil {
		return nil, err
	}

	value, mapped, err := r.contents.Lookup(addr)
	if err != nil {
		return nil, err
	}
	if !mapped {
		if r.padWithZeros {
			return new(big.Int), nil
		}
		return nil, fmt.Errorf("%w: %q has no value at %s", ErrRomUnmapped, r.name, addr)
	}

	if value == nil || value.Sign() < 0 || value.BitLen() > r.bitWidth {
		return nil, fmt.Errorf("%w: value %v at address %s of %q (bitwidth %d)",
			ErrInvalidRomValue, value, addr, r.name, r.bitWidth)
	}

	return new(big.Int).Set(value), nil
}

func (r *RomBlock) concreteAddress(address any) (*big.Int, error) {
	var addr *big.Int

	switch a := address.(type) {
	case int:
		addr = big.NewInt(int64(a))
	case int64:
		addr = big.NewInt(a)
	case uint64:
		addr = new(big.Int).SetUint64(a)
	case *big.Int:
		if a == nil {
			return nil, fmt.Errorf("%w: nil address", ErrInvalidAddressType)
		}
		addr = new(big.Int).Set(a)
	default:
		return nil, fmt.Errorf("%w: %T", ErrInvalidAddressType, address)
	}

	if addr.Sign() < 0 || addr.BitLen() > r.addrWidth {
		return nil, fmt.Errorf("%w: %s is outside [0, 2^%d) of %q",
			ErrInvalidAddress, addr, r.addrWidth, r.name)
	}

	return addr, nil
}

// A RomPool tracks the physical ROM instances backing one logical ROM
// declaration. The handle the user holds never mutates; when copying is
// enabled and the active copy runs out of read ports, the pool registers a
// twin ROM with identical contents in the same block and makes it active.
type RomPool struct {
	original *RomBlock
	active   *RomBlock
	copies   []*RomBlock
}

// ActiveCopy returns the instance the next read port will be built on.
func (p *RomPool) ActiveCopy() *RomBlock { return p.active }

// Copies returns the spawned twin instances in creation order, excluding the
// original.
func (p *RomPool) Copies() []*RomBlock { return p.copies }

// Size returns the total number of physical instances, the original
// included.
func (p *RomPool) Size() int { return len(p.copies) + 1 }

func (p *RomPool) acquire() (*RomBlock, error) {
	r := p.active
	if !r.buildNewRoms {
		return r, nil
	}
	if r.maxReadPorts == Unlimited || r.readPortCount < r.maxReadPorts {
		return r, nil
	}

	twin, err := p.original.makeCopy()
	if err != nil {
		return nil, err
	}
	p.copies = append(p.copies, twin)
	p.active = twin

	return twin, nil
}

// makeCopy registers a twin ROM with identical shape and contents in the
// same block. The twin gets its own identity and never spawns copies of its
// own; spilling stays under the original pool's control.
func (r *RomBlock) makeCopy() (*RomBlock, error) {
	return MakeRomBuilder().
		WithContext(r.ctx).
		WithBitWidth(r.bitWidth).
		WithAddrWidth(r.addrWidth).
		WithContents(r.contents).
		WithMaxReadPorts(r.maxReadPorts).
		WithAsynchronous(r.async).
		WithPadWithZeros(r.padWithZeros).
		Build(r.block.AllocMemName(r.name + "_copy"))
}
