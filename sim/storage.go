package sim

import "math/big"

// A Storage holds the contents of one simulated memory as a sparse mapping
// from arbitrary-width address to arbitrary-precision value. Locations that
// were never written read as zero and consume no space; values wider than
// the host machine word are supported throughout.
type Storage struct {
	entries map[string]storageEntry
}

type storageEntry struct {
	addr  *big.Int
	value *big.Int
}

// NewStorage creates an empty storage.
func NewStorage() *Storage {
	return &Storage{entries: make(map[string]storageEntry)}
}

func storageKey(addr *big.Int) string {
	return addr.Text(16)
}

// Read returns the value stored at addr, or zero if the location was never
// written. The returned value is a private copy.
func (s *Storage) Read(addr *big.Int) *big.Int {
	if e, ok := s.entries[storageKey(addr)]; ok {
		return new(big.Int).Set(e.value)
	}
	return new(big.Int)
}

// Write stores value at addr.
func (s *Storage) Write(addr, value *big.Int) {
	s.entries[storageKey(addr)] = storageEntry{
		addr:  new(big.Int).Set(addr),
		value: new(big.Int).Set(value),
	}
}

// Len returns the number of locations that have been written.
func (s *Storage) Len() int {
	return len(s.entries)
}

// Each calls fn for every written location. Iteration order is unspecified.
func (s *Storage) Each(fn func(addr, value *big.Int)) {
	for _, e := range s.entries {
		fn(new(big.Int).Set(e.addr), new(big.Int).Set(e.value))
	}
}
