// Package mem provides the addressable-memory abstraction of the netlist
// toolkit: read/write block memories (MemBlock) and read-only memories
// (RomBlock) that lower array-style access into discrete read and write
// ports, each represented as one logic node with validated port counts,
// bitwidths, and write semantics.
package mem
