package hdl

import "fmt"

func (b *Block) mustSignal(width int) *Signal {
	s, err := b.NewSignal(width)
	if err != nil {
		panic(err)
	}
	return s
}

func (b *Block) mustAddNode(n *Node) {
	if err := b.AddNode(n); err != nil {
		panic(err)
	}
}

// Connect drives dst with src. Both signals must have the same width.
func (b *Block) Connect(dst, src *Signal) error {
	if dst.Width() != src.Width() {
		return fmt.Errorf("%w: connecting %d-bit %s to %d-bit %s",
			ErrWidthMismatch, src.Width(), src.Name(), dst.Width(), dst.Name())
	}
	return b.AddNode(&Node{Op: OpCopy, Args: []*Signal{src}, Dests: []*Signal{dst}})
}

// Not builds a bitwise inversion of a.
func (b *Block) Not(a *Signal) *Signal {
	out := b.mustSignal(a.Width())
	b.mustAddNode(&Node{Op: OpNot, Args: []*Signal{a}, Dests: []*Signal{out}})
	return out
}

func (b *Block) binaryOp(op Op, x, y *Signal) (*Signal, error) {
	if x.Width() != y.Width() {
		return nil, fmt.Errorf("%w: %s is %d bits, %s is %d bits",
			ErrWidthMismatch, x.Name(), x.Width(), y.Name(), y.Width())
	}

	out := b.mustSignal(x.Width())
	b.mustAddNode(&Node{Op: op, Args: []*Signal{x, y}, Dests: []*Signal{out}})

	return out, nil
}

// And builds the bitwise conjunction of two same-width signals.
func (b *Block) And(x, y *Signal) (*Signal, error) {
	return b.binaryOp(OpAnd, x, y)
}

// Or builds the bitwise disjunction of two same-width signals.
func (b *Block) Or(x, y *Signal) (*Signal, error) {
	return b.binaryOp(OpOr, x, y)
}

// Xor builds the bitwise exclusive-or of two same-width signals.
func (b *Block) Xor(x, y *Signal) (*Signal, error) {
	return b.binaryOp(OpXor, x, y)
}

// Mux selects x when the one-bit sel is 1 and y otherwise. x and y must have
// the same width.
func (b *Block) Mux(sel, x, y *Signal) (*Signal, error) {
	if sel.Width() != 1 {
		return nil, fmt.Errorf("%w: mux select %s is %d bits, want 1",
			ErrWidthMismatch, sel.Name(), sel.Width())
	}
	if x.Width() != y.Width() {
		return nil, fmt.Errorf("%w: mux inputs %s (%d bits) and %s (%d bits)",
			ErrWidthMismatch, x.Name(), x.Width(), y.Name(), y.Width())
	}

	out := b.mustSignal(x.Width())
	b.mustAddNode(&Node{Op: OpMux, Args: []*Signal{sel, x, y}, Dests: []*Signal{out}})

	return out, nil
}

// Concat concatenates signals, the first argument becoming the most
// significant bits of the result.
func (b *Block) Concat(parts ...*Signal) (*Signal, error) {
	if len(parts) == 0 {
		return nil, fmt.Errorf("%w: concat needs at least one part", ErrInvalidWidth)
	}

	width := 0
	for _, p := range parts {
		width += p.Width()
	}

	out := b.mustSignal(width)
	args := make([]*Signal, len(parts))
	copy(args, parts)
	b.mustAddNode(&Node{Op: OpConcat, Args: args, Dests: []*Signal{out}})

	return out, nil
}

// Slice selects bits high down to low of a, inclusive.
func (b *Block) Slice(a *Signal, high, low int) (*Signal, error) {
	if low < 0 || high >= a.Width() || low > high {
		return nil, fmt.Errorf("%w: [%d:%d] of %d-bit %s",
			ErrSliceRange, high, low, a.Width(), a.Name())
	}

	out := b.mustSignal(high - low + 1)
	b.mustAddNode(&Node{
		Op:    OpSlice,
		Args:  []*Signal{a},
		Dests: []*Signal{out},
		High:  high,
		Low:   low,
	})

	return out, nil
}

// SetRegNext assigns the value reg latches at the next cycle boundary.
func (b *Block) SetRegNext(reg, next *Signal) error {
	if reg.Kind() != KindRegister {
		return fmt.Errorf("%w: %s is a %s", ErrNotRegister, reg.Name(), reg.Kind())
	}
	if reg.Width() != next.Width() {
		return fmt.Errorf("%w: register %s is %d bits, next value is %d bits",
			ErrWidthMismatch, reg.Name(), reg.Width(), next.Width())
	}
	return b.AddNode(&Node{Op: OpRegNext, Args: []*Signal{next}, Dests: []*Signal{reg}})
}
