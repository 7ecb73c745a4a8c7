package mem

import (
	"fmt"
	"math/big"
)

// Contents is the source of truth for a RomBlock's data. Lookup reports the
// value stored at a concrete address, whether the address is mapped at all,
// and any evaluation failure. Lookup must be deterministic and side-effect
// free; it is re-invoked on every simulated access.
type Contents interface {
	Lookup(address *big.Int) (value *big.Int, mapped bool, err error)
}

type tableContents struct {
	values []*big.Int
}

func (t tableContents) Lookup(address *big.Int) (*big.Int, bool, error) {
	if !address.IsUint64() || address.Uint64() >= uint64(len(t.values)) {
		return nil, false, nil
	}
	return t.values[address.Uint64()], true, nil
}

// TableOf builds ROM contents from a dense table; the slice index is the
// address. Addresses past the end of the table are unmapped.
func TableOf(values []uint64) Contents {
	t := tableContents{values: make([]*big.Int, len(values))}
	for i, v := range values {
		t.values[i] = new(big.Int).SetUint64(v)
	}
	return t
}

// BigTableOf builds ROM contents from a dense table of arbitrary-precision
// values.
func BigTableOf(values []*big.Int) Contents {
	t := tableContents{values: make([]*big.Int, len(values))}
	for i, v := range values {
		t.values[i] = new(big.Int).Set(v)
	}
	return t
}

type mapContents struct {
	values map[uint64]*big.Int
}

func (m mapContents) Lookup(address *big.Int) (*big.Int, bool, error) {
	if !address.IsUint64() {
		return nil, false, nil
	}
	v, ok := m.values[address.Uint64()]
	return v, ok, nil
}

// MapOf builds sparse ROM contents from an address-to-value map.
func MapOf(values map[uint64]uint64) Contents {
	m := mapContents{values: make(map[uint64]*big.Int, len(values))}
	for a, v := range values {
		m.values[a] = new(big.Int).SetUint64(v)
	}
	return m
}

type funcContents struct {
	fn func(address uint64) (uint64, error)
}

func (f funcContents) Lookup(address *big.Int) (v *big.Int, mapped bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			v, mapped = nil, false
			err = fmt.Errorf("%w: %v", ErrRomEvaluation, r)
		}
	}()

	if !address.IsUint64() {
		return nil, false, fmt.Errorf("%w: address %s exceeds 64 bits",
			ErrRomEvaluation, address)
	}

	value, err := f.fn(address.Uint64())
	if err != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrRomEvaluation, err)
	}

	return new(big.Int).SetUint64(value), true, nil
}

// FuncOf builds ROM contents from a total function of the address. A panic
// or error from the function surfaces as a ROM evaluation error.
func FuncOf(fn func(address uint64) (uint64, error)) Contents {
	return funcContents{fn: fn}
}

type bigFuncContents struct {
	fn func(address *big.Int) (*big.Int, error)
}

func (f bigFuncContents) Lookup(address *big.Int) (v *big.Int, mapped bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			v, mapped = nil, false
			err = fmt.Errorf("%w: %v", ErrRomEvaluation, r)
		}
	}()

	value, err := f.fn(new(big.Int).Set(address))
	if err != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrRomEvaluation, err)
	}

	return value, true, nil
}

// BigFuncOf builds ROM contents from a total function over arbitrary-width
// addresses and values.
func BigFuncOf(fn func(address *big.Int) (*big.Int, error)) Contents {
	return bigFuncContents{fn: fn}
}
