// Package cond implements the conditional-assignment subsystem: it collects
// writes guarded by user-level conditions and merges all guarded writes that
// share a destination memory into one arbitrated write port.
package cond

import (
	"errors"
	"fmt"

	"github.com/wyrelab/wyre/hdl"
	"github.com/wyrelab/wyre/mem"
)

var (
	// ErrNoActiveCondition is returned when a conditional write is submitted
	// outside of any When or Otherwise scope.
	ErrNoActiveCondition = errors.New("conditional write outside of a condition scope")

	// ErrFinalized is returned when an updater is used after Finalize.
	ErrFinalized = errors.New("conditional updater already finalized")

	// ErrBadGuard is returned when a guard signal is not exactly 1 bit.
	ErrBadGuard = errors.New("guard signal must be 1 bit")
)

type guardedWrite struct {
	target mem.ArbitratedMemory
	addr   *hdl.Signal
	data   *hdl.Signal
	enable *hdl.Signal
	guard  *hdl.Signal
}

// frame tracks one nesting level of condition scopes. covered accumulates
// the guards of earlier siblings so that When branches at the same level are
// mutually exclusive, like a chain of elifs.
type frame struct {
	effective *hdl.Signal // guard in force for writes at this level; nil at top
	covered   *hdl.Signal
	sealed    bool // an Otherwise has closed this level
}

// An Updater collects guarded writes and resolves them at Finalize. Guards
// at the same nesting level are made mutually exclusive by construction;
// each destination memory receives exactly one write port per Finalize, with
// a priority mux favoring the earliest submitted write for any residual
// overlap across nesting levels.
type Updater struct {
	ctx   *hdl.Context
	block *hdl.Block

	frames    []*frame
	writes    []guardedWrite
	targets   []mem.ArbitratedMemory
	finalized bool
}

// NewUpdater creates an updater bound to the context's active block.
func NewUpdater(ctx *hdl.Context) *Updater {
	return &Updater{
		ctx:    ctx,
		block:  ctx.Block(),
		frames: []*frame{{}},
	}
}

func (u *Updater) top() *frame {
	return u.frames[len(u.frames)-1]
}

// When runs body with guard in force. Sibling When calls at the same level
// are mutually exclusive in declaration order.
func (u *Updater) When(guard *hdl.Signal, body func() error) error {
	if u.finalized {
		return ErrFinalized
	}
	if guard.Width() != 1 {
		return fmt.Errorf("%w: %s is %d bits", ErrBadGuard, guard.Name(), guard.Width())
	}

	parent := u.top()
	if parent.sealed {
		return fmt.Errorf("cond: no conditions after an Otherwise at the same level")
	}

	eff, err := u.effectiveGuard(parent, guard)
	if err != nil {
		return err
	}

	if err := u.runScope(eff, body); err != nil {
		return err
	}

	return u.accumulate(parent, guard)
}

// Otherwise runs body when none of the earlier sibling guards held. It
// closes its nesting level.
func (u *Updater) Otherwise(body func() error) error {
	if u.finalized {
		return ErrFinalized
	}

	parent := u.top()
	if parent.sealed {
		return fmt.Errorf("cond: duplicate Otherwise at the same level")
	}
	if parent.covered == nil {
		return fmt.Errorf("cond: Otherwise without a preceding When")
	}

	eff := u.block.Not(parent.covered)
	if parent.effective != nil {
		var err error
		eff, err = u.block.And(eff, parent.effective)
		if err != nil {
			return err
		}
	}

	if err := u.runScope(eff, body); err != nil {
		return err
	}
	parent.sealed = true

	return nil
}

func (u *Updater) effectiveGuard(parent *frame, guard *hdl.Signal) (*hdl.Signal, error) {
	eff := guard
	var err error

	if parent.covered != nil {
		eff, err = u.block.And(eff, u.block.Not(parent.covered))
		if err != nil {
			return nil, err
		}
	}
	if parent.effective != nil {
		eff, err = u.block.And(eff, parent.effective)
		if err != nil {
			return nil, err
		}
	}

	return eff, nil
}

func (u *Updater) accumulate(parent *frame, guard *hdl.Signal) error {
	if parent.covered == nil {
		parent.covered = guard
		return nil
	}

	covered, err := u.block.Or(parent.covered, guard)
	if err != nil {
		return err
	}
	parent.covered = covered

	return nil
}

func (u *Updater) runScope(eff *hdl.Signal, body func() error) error {
	u.frames = append(u.frames, &frame{effective: eff})
	defer func() { u.frames = u.frames[:len(u.frames)-1] }()
	return body()
}

// SubmitWrite records a guarded write against m. It is called by the memory
// when a conditional write request reaches it inside a condition scope.
func (u *Updater) SubmitWrite(m mem.ArbitratedMemory, addr, data, enable *hdl.Signal) error {
	if u.finalized {
		return ErrFinalized
	}

	guard := u.top().effective
	if guard == nil {
		return ErrNoActiveCondition
	}

	seen := false
	for _, t := range u.targets {
		if t == m {
			seen = true
			break
		}
	}
	if !seen {
		u.targets = append(u.targets, m)
	}

	u.writes = append(u.writes, guardedWrite{
		target: m,
		addr:   addr,
		data:   data,
		enable: enable,
		guard:  guard,
	})

	return nil
}

// Finalize resolves the collected writes: every destination memory receives
// exactly one arbitrated write port combining its guarded writes. The
// updater cannot be used afterwards.
func (u *Updater) Finalize() error {
	if u.finalized {
		return ErrFinalized
	}
	u.finalized = true

	for _, target := range u.targets {
		if err := u.resolveTarget(target); err != nil {
			return err
		}
	}

	return nil
}

func (u *Updater) resolveTarget(target mem.ArbitratedMemory) error {
	var writes []guardedWrite
	for _, w := range u.writes {
		if w.target == target {
			writes = append(writes, w)
		}
	}

	fires := make([]*hdl.Signal, len(writes))
	for i, w := range writes {
		f, err := u.block.And(w.guard, w.enable)
		if err != nil {
			return err
		}
		fires[i] = f
	}

	enable := fires[0]
	for _, f := range fires[1:] {
		var err error
		enable, err = u.block.Or(enable, f)
		if err != nil {
			return err
		}
	}

	addr, err := u.prioritySelect(writes, fires, target.AddrWidth(),
		func(w guardedWrite) *hdl.Signal { return w.addr })
	if err != nil {
		return err
	}
	data, err := u.prioritySelect(writes, fires, target.BitWidth(),
		func(w guardedWrite) *hdl.Signal { return w.data })
	if err != nil {
		return err
	}

	return target.BuildArbitratedWrite(addr, data, enable)
}

// prioritySelect folds the candidate values into a mux chain. The earliest
// submitted write ends up outermost, so it wins if guards ever overlap.
func (u *Updater) prioritySelect(
	writes []guardedWrite,
	fires []*hdl.Signal,
	width int,
	pick func(guardedWrite) *hdl.Signal,
) (*hdl.Signal, error) {
	if len(writes) == 1 {
		return u.extend(pick(writes[0]), width)
	}

	acc, err := u.block.NewConst(0, width)
	if err != nil {
		return nil, err
	}

	for i := len(writes) - 1; i >= 0; i-- {
		v, err := u.extend(pick(writes[i]), width)
		if err != nil {
			return nil, err
		}
		acc, err = u.block.Mux(fires[i], v, acc)
		if err != nil {
			return nil, err
		}
	}

	return acc, nil
}

// extend zero-extends s to width. Addresses narrower than the address bus
// are legal; mux inputs are not allowed to disagree on width.
func (u *Updater) extend(s *hdl.Signal, width int) (*hdl.Signal, error) {
	if s.Width() == width {
		return s, nil
	}

	zeros, err := u.block.NewConst(0, width-s.Width())
	if err != nil {
		return nil, err
	}

	return u.block.Concat(zeros, s)
}
