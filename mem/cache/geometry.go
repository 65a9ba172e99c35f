// Package cache provides the address geometry shared by every cache variant.
//
// The cache controllers themselves live in the sub-packages blocking,
// nonblocking, and directmapped.
package cache

import (
	"fmt"
	"math/bits"
)

// A Geometry describes how a cache of a given organization partitions an
// address into Tag | Index | Offset. The three fields partition the address
// exactly: OffsetBits + IndexBits + TagBits == AddrWidth.
type Geometry struct {
	TotalByteSize uint64
	LineSize      int
	Ways          int
	AddrWidth     int

	NumLines   int
	NumSets    int
	OffsetBits int
	IndexBits  int
	TagBits    int
	IndexMask  uint64
}

// MakeGeometry derives the line, set, and bit-field organization of a cache
// from its total size in bytes, its line size in bytes, its way count, and
// the requester's address width in bits.
func MakeGeometry(
	totalByteSize uint64,
	lineSize, ways, addrWidth int,
) (Geometry, error) {
	g := Geometry{
		TotalByteSize: totalByteSize,
		LineSize:      lineSize,
		Ways:          ways,
		AddrWidth:     addrWidth,
	}

	if err := g.validate(); err != nil {
		return Geometry{}, err
	}

	g.NumLines = int(totalByteSize) / lineSize
	g.NumSets = g.NumLines / ways
	g.OffsetBits = bits.Len(uint(lineSize)) - 1
	g.IndexBits = bits.Len(uint(g.NumSets)) - 1
	g.TagBits = addrWidth - g.IndexBits - g.OffsetBits
	g.IndexMask = uint64(g.NumSets) - 1

	if g.TagBits <= 0 {
		return Geometry{}, fmt.Errorf(
			"address width %d leaves no room for tag bits", addrWidth)
	}

	return g, nil
}

func (g Geometry) validate() error {
	if !isPowerOfTwo(uint64(g.LineSize)) {
		return fmt.Errorf("line size %d is not a power of two", g.LineSize)
	}

	if !isPowerOfTwo(g.TotalByteSize) {
		return fmt.Errorf(
			"total size %d is not a power of two", g.TotalByteSize)
	}

	if !isPowerOfTwo(uint64(g.Ways)) {
		return fmt.Errorf("way count %d is not a power of two", g.Ways)
	}

	if g.TotalByteSize < uint64(g.LineSize) {
		return fmt.Errorf(
			"total size %d is smaller than the line size %d",
			g.TotalByteSize, g.LineSize)
	}

	numLines := int(g.TotalByteSize) / g.LineSize
	if numLines%g.Ways != 0 {
		return fmt.Errorf(
			"way count %d does not evenly divide %d lines", g.Ways, numLines)
	}

	return nil
}

func isPowerOfTwo(n uint64) bool {
	return n != 0 && n&(n-1) == 0
}

// Index returns the set number of an address.
func (g Geometry) Index(address uint64) int {
	return int((address >> g.OffsetBits) & g.IndexMask)
}

// Offset returns the position of an address within its line.
func (g Geometry) Offset(address uint64) int {
	return int(address & uint64(g.LineSize-1))
}

// Tag returns the tag bits of an address.
func (g Geometry) Tag(address uint64) uint64 {
	return address >> (g.AddrWidth - g.TagBits)
}

// BlockAddr returns the line-aligned base address of an address.
func (g Geometry) BlockAddr(address uint64) uint64 {
	return address &^ uint64(g.LineSize-1)
}

// LineAddr reconstructs the base address of the block a line holds from the
// line's stored tag and its set number. It is used to compute the
// destination of a write-back.
func (g Geometry) LineAddr(tag uint64, setID int) uint64 {
	return tag<<(g.AddrWidth-g.TagBits) | uint64(setID)<<g.OffsetBits
}

// LineIndex returns the position of a way of a set in line-indexed storage.
func (g Geometry) LineIndex(setID, wayID int) int {
	return setID*g.Ways + wayID
}
