package mem

import "github.com/wyrelab/wyre/hdl"

// cellOwner is the slice of memory behavior a Cell needs. RomBlock overrides
// both methods to add pooling and to reject writes.
type cellOwner interface {
	BitWidth() int
	buildReadPort(addr *hdl.Signal) (*hdl.Signal, error)
	assign(addr *hdl.Signal, rhs any, conditional bool) error
}

// A Cell is the view returned by indexing a memory with an address. It is a
// read handle and a write target at once, but performs no mutation by
// itself: the read port is built lazily on first materialization, and write
// requests are routed into the owning memory when a Store method is called.
type Cell struct {
	owner cellOwner
	addr  *hdl.Signal

	signal *hdl.Signal
}

// Address returns the address signal the cell was indexed with.
func (c *Cell) Address() *hdl.Signal { return c.addr }

// Width returns the element width without materializing the read port.
func (c *Cell) Width() int { return c.owner.BitWidth() }

// Signal materializes the cell as a data signal, building the read port on
// first use. Repeated calls return the same signal; one Cell never consumes
// more than one read port.
func (c *Cell) Signal() (*hdl.Signal, error) {
	if c.signal == nil {
		s, err := c.owner.buildReadPort(c.addr)
		if err != nil {
			return nil, err
		}
		c.signal = s
	}
	return c.signal, nil
}

// Not forwards bitwise inversion to the materialized read signal.
func (c *Cell) Not() (*hdl.Signal, error) {
	s, err := c.Signal()
	if err != nil {
		return nil, err
	}
	return s.Not(), nil
}

// And forwards bitwise conjunction to the materialized read signal.
func (c *Cell) And(o *hdl.Signal) (*hdl.Signal, error) {
	s, err := c.Signal()
	if err != nil {
		return nil, err
	}
	return s.And(o)
}

// Or forwards bitwise disjunction to the materialized read signal.
func (c *Cell) Or(o *hdl.Signal) (*hdl.Signal, error) {
	s, err := c.Signal()
	if err != nil {
		return nil, err
	}
	return s.Or(o)
}

// Xor forwards bitwise exclusive-or to the materialized read signal.
func (c *Cell) Xor(o *hdl.Signal) (*hdl.Signal, error) {
	s, err := c.Signal()
	if err != nil {
		return nil, err
	}
	return s.Xor(o)
}

// Slice forwards bit selection to the materialized read signal.
func (c *Cell) Slice(high, low int) (*hdl.Signal, error) {
	s, err := c.Signal()
	if err != nil {
		return nil, err
	}
	return s.Slice(high, low)
}

// Assign consumes a write request produced by Write or CondWrite. Any other
// value is a misuse of the assignment surface.
func (c *Cell) Assign(v any) error {
	a, ok := v.(Assignment)
	if !ok {
		return ErrInvalidAssignment
	}
	return c.owner.assign(c.addr, a.rhs, a.conditional)
}

// Store builds an unconditional write of v to the cell's address. v is a
// data signal or an EnabledWrite.
func (c *Cell) Store(v any) error {
	return c.Assign(Write(v))
}

// StoreEnabled builds an unconditional write gated by a one-bit enable.
func (c *Cell) StoreEnabled(data, enable *hdl.Signal) error {
	return c.Assign(Write(EnabledWrite{Data: data, Enable: enable}))
}

// StoreConditional routes a guarded write of v through the memory's
// conditional updater.
func (c *Cell) StoreConditional(v any) error {
	return c.Assign(CondWrite(v))
}
