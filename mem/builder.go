package mem

import (
	"fmt"

	"github.com/wyrelab/wyre/hdl"
)

// DefaultMaxReadPorts and DefaultMaxWritePorts keep designs efficient by
// default; memories with many ports rarely map to physical RAM macros.
const (
	DefaultMaxReadPorts  = 2
	DefaultMaxWritePorts = 1
)

// Builder builds MemBlocks.
type Builder struct {
	ctx           *hdl.Context
	bitWidth      int
	addrWidth     int
	maxReadPorts  int
	maxWritePorts int
	asynchronous  bool
	updater       ConditionalUpdater
}

// MakeBuilder returns a Builder with the default port limits.
func MakeBuilder() Builder {
	return Builder{
		maxReadPorts:  DefaultMaxReadPorts,
		maxWritePorts: DefaultMaxWritePorts,
	}
}

// WithContext sets the construction context that owns the memory.
func (b Builder) WithContext(ctx *hdl.Context) Builder {
	b.ctx = ctx
	return b
}

// WithBitWidth sets the width of each stored element.
func (b Builder) WithBitWidth(w int) Builder {
	b.bitWidth = w
	return b
}

// WithAddrWidth sets the width of the address bus.
func (b Builder) WithAddrWidth(w int) Builder {
	b.addrWidth = w
	return b
}

// WithMaxReadPorts sets the read-port limit; pass Unlimited for none.
func (b Builder) WithMaxReadPorts(n int) Builder {
	b.maxReadPorts = n
	return b
}

// WithMaxWritePorts sets the write-port limit; pass Unlimited for none.
func (b Builder) WithMaxWritePorts(n int) Builder {
	b.maxWritePorts = n
	return b
}

// WithAsynchronous exempts the memory from the registered-input discipline.
// Asynchronous memories rarely map to efficient hardware; prefer the
// default.
func (b Builder) WithAsynchronous(async bool) Builder {
	b.asynchronous = async
	return b
}

// WithConditionalUpdater routes the memory's conditional writes through u.
func (b Builder) WithConditionalUpdater(u ConditionalUpdater) Builder {
	b.updater = u
	return b
}

// Build validates the configuration and registers the memory with the active
// block. An empty name is auto-generated.
func (b Builder) Build(name string) (*MemBlock, error) {
	m, err := b.buildUnregistered(name, "mem")
	if err != nil {
		return nil, err
	}
	m.decl = m
	if err := m.block.RegisterMemory(m); err != nil {
		return nil, err
	}
	return m, nil
}

// RomBuilder builds RomBlocks.
type RomBuilder struct {
	ctx          *hdl.Context
	bitWidth     int
	addrWidth    int
	maxReadPorts int
	asynchronous bool
	contents     Contents
	padWithZeros bool
	buildNewRoms bool
}

// MakeRomBuilder returns a RomBuilder with the default read-port limit.
func MakeRomBuilder() RomBuilder {
	return RomBuilder{maxReadPorts: DefaultMaxReadPorts}
}

// WithContext sets the construction context that owns the ROM.
func (b RomBuilder) WithContext(ctx *hdl.Context) RomBuilder {
	b.ctx = ctx
	return b
}

// WithBitWidth sets the width of each stored element.
func (b RomBuilder) WithBitWidth(w int) RomBuilder {
	b.bitWidth = w
	return b
}

// WithAddrWidth sets the width of the address bus.
func (b RomBuilder) WithAddrWidth(w int) RomBuilder {
	b.addrWidth = w
	return b
}

// WithMaxReadPorts sets the read-port limit; pass Unlimited for none.
func (b RomBuilder) WithMaxReadPorts(n int) RomBuilder {
	b.maxReadPorts = n
	return b
}

// WithAsynchronous exempts the ROM from the registered-input discipline.
func (b RomBuilder) WithAsynchronous(async bool) RomBuilder {
	b.asynchronous = async
	return b
}

// WithContents sets the ROM's data source.
func (b RomBuilder) WithContents(c Contents) RomBuilder {
	b.contents = c
	return b
}

// WithPadWithZeros makes unmapped addresses resolve to zero instead of
// failing. Useful when every address must be defined, e.g. for export;
// leaving it off surfaces accesses to unspecified data during simulation.
func (b RomBuilder) WithPadWithZeros(pad bool) RomBuilder {
	b.padWithZeros = pad
	return b
}

// WithBuildNewRoms makes read-port overflow spawn a twin ROM instead of
// failing. A single logical ROM can then fan out into several physical
// instances; callers needing a hard port cap must leave this off.
func (b RomBuilder) WithBuildNewRoms(build bool) RomBuilder {
	b.buildNewRoms = build
	return b
}

// Build validates the configuration and registers the ROM with the active
// block. An empty name is auto-generated.
func (b RomBuilder) Build(name string) (*RomBlock, error) {
	if b.contents == nil {
		return nil, fmt.Errorf("mem: ROM needs contents")
	}

	base, err := Builder{
		ctx:           b.ctx,
		bitWidth:      b.bitWidth,
		addrWidth:     b.addrWidth,
		maxReadPorts:  b.maxReadPorts,
		maxWritePorts: 0,
		asynchronous:  b.asynchronous,
	}.buildUnregistered(name, "rom")
	if err != nil {
		return nil, err
	}

	r := &RomBlock{
		MemBlock:     base,
		contents:     b.contents,
		padWithZeros: b.padWithZeros,
		buildNewRoms: b.buildNewRoms,
	}
	base.decl = r
	r.pool = &RomPool{original: r, active: r}

	if err := base.block.RegisterMemory(r); err != nil {
		return nil, err
	}

	return r, nil
}

// buildUnregistered builds the MemBlock without registering it, so RomBlock
// can register the derived type instead.
func (b Builder) buildUnregistered(name, prefix string) (*MemBlock, error) {
	if b.ctx == nil {
		return nil, fmt.Errorf("mem: builder needs a construction context")
	}
	if b.bitWidth < 1 {
		return nil, fmt.Errorf("%w: bitwidth %d", hdl.ErrInvalidWidth, b.bitWidth)
	}
	if b.addrWidth < 1 {
		return nil, fmt.Errorf("%w: addrwidth %d", hdl.ErrInvalidWidth, b.addrWidth)
	}

	block := b.ctx.Block()
	if name == "" {
		name = block.AllocMemName(prefix)
	}

	return &MemBlock{
		ctx:           b.ctx,
		block:         block,
		name:          name,
		identity:      b.ctx.NextMemoryID(),
		bitWidth:      b.bitWidth,
		addrWidth:     b.addrWidth,
		async:         b.asynchronous,
		maxReadPorts:  b.maxReadPorts,
		maxWritePorts: b.maxWritePorts,
		updater:       b.updater,
	}, nil
}
