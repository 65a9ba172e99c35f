// Package nonblocking implements a write-back set-associative cache with a
// fixed-depth MSHR table, so several misses can be outstanding at once.
package nonblocking

import (
	"log"
	"slices"

	"github.com/sarchlab/csim/mem"
	"github.com/sarchlab/csim/mem/cache"
	"github.com/sarchlab/csim/mem/cache/internal/mshr"
	"github.com/sarchlab/csim/mem/cache/internal/tagging"
)

// A Comp is a non-blocking cache. Up to depth-1 misses can be outstanding
// without blocking; the last MSHR slot is the reserved blocking sentinel,
// and occupying it makes the cache refuse requests until any outstanding
// miss resolves.
//
// Completions are matched to MSHR slots by request ID, so they may arrive
// in any order. Requesters must keep IDs unique among concurrently
// outstanding requests.
type Comp struct {
	name string

	geometry     cache.Geometry
	tags         *tagging.Tags
	storage      *mem.Storage
	victimFinder tagging.VictimFinder

	top    mem.Requester
	bottom mem.BackingStore

	mshrs   *mshr.Table
	blocked bool

	numHit       uint64
	numMiss      uint64
	numWriteBack uint64
}

// Name returns the name of the cache.
func (c *Comp) Name() string {
	return c.name
}

// SetTop connects the cache to the requester above it.
func (c *Comp) SetTop(top mem.Requester) {
	c.top = top
}

// SetBottom connects the cache to the backing store below it.
func (c *Comp) SetBottom(bottom mem.BackingStore) {
	c.bottom = bottom
}

// Geometry returns the address organization of the cache.
func (c *Comp) Geometry() cache.Geometry {
	return c.geometry
}

// IsBlocked reports whether the MSHR table is exhausted.
func (c *Comp) IsBlocked() bool {
	return c.blocked
}

// Hits returns the number of requests served without a fill.
func (c *Comp) Hits() uint64 {
	return c.numHit
}

// Misses returns the number of requests that required a fill.
func (c *Comp) Misses() uint64 {
	return c.numMiss
}

// WriteBacks returns the number of dirty lines written back on eviction.
func (c *Comp) WriteBacks() uint64 {
	return c.numWriteBack
}

// ReceiveRequest handles one load or store from the requester. Hits are
// served synchronously even while misses are outstanding. It returns false,
// leaving all state untouched, only when the MSHR table is exhausted.
func (c *Comp) ReceiveRequest(
	address uint64,
	size int,
	data []byte,
	requestID int,
) bool {
	c.mustBeValidRequest(address, size)

	if c.blocked {
		return false
	}

	setID := c.geometry.Index(address)
	lineIndex, found := c.tags.Lookup(setID, c.geometry.Tag(address))

	if found {
		c.numHit++
		c.serveHit(lineIndex, address, size, data, requestID)

		return true
	}

	c.numMiss++
	c.startMiss(address, size, data, requestID)

	return true
}

func (c *Comp) mustBeValidRequest(address uint64, size int) {
	if size <= 0 || size > c.geometry.LineSize {
		log.Panicf("request size %d exceeds the line size %d",
			size, c.geometry.LineSize)
	}

	if address >= uint64(1)<<c.geometry.AddrWidth {
		log.Panicf("address 0x%x is outside the %d-bit address space",
			address, c.geometry.AddrWidth)
	}

	if address&uint64(size-1) != 0 {
		log.Panicf("address 0x%x is not aligned to the request size %d",
			address, size)
	}
}

func (c *Comp) serveHit(
	lineIndex int,
	address uint64,
	size int,
	data []byte,
	requestID int,
) {
	lineAddr := uint64(lineIndex) << c.geometry.OffsetBits
	byteAddr := lineAddr + uint64(c.geometry.Offset(address))

	if data != nil {
		if err := c.storage.Write(byteAddr, data[:size]); err != nil {
			panic(err)
		}

		c.tags.SetState(lineIndex, tagging.StateDirty)
		c.top.SendResponse(requestID, nil)

		return
	}

	bytes, err := c.storage.Read(byteAddr, uint64(size))
	if err != nil {
		panic(err)
	}

	c.top.SendResponse(requestID, bytes)
}

// startMiss allocates a destination line and an MSHR slot, issuing a
// write-back first when the whole set is dirty. Occupying the last slot
// blocks the cache.
func (c *Comp) startMiss(address uint64, size int, data []byte, requestID int) {
	lineIndex := c.allocateLine(address, requestID)

	c.tags.SetState(lineIndex, tagging.StateInvalid)
	c.bottom.SendMemRequest(
		c.geometry.BlockAddr(address), c.geometry.LineSize, nil, requestID)

	slot := c.mshrs.Allocate()
	c.mshrs.Set(slot, mshr.Entry{
		RequesterID: requestID,
		Address:     address,
		Size:        size,
		Data:        slices.Clone(data),
		LineIndex:   lineIndex,
	})

	if slot == c.mshrs.Depth()-1 {
		c.blocked = true
	}
}

func (c *Comp) allocateLine(address uint64, requestID int) int {
	setID := c.geometry.Index(address)

	lineIndex, ok := c.tags.FindNonDirty(setID)
	if ok {
		return lineIndex
	}

	wayID := c.victimFinder.FindVictim(c.geometry.Ways)
	lineIndex = c.geometry.LineIndex(setID, wayID)
	c.writeBack(lineIndex, setID, requestID)

	return lineIndex
}

func (c *Comp) writeBack(lineIndex, setID, requestID int) {
	lineAddr := uint64(lineIndex) << c.geometry.OffsetBits

	bytes, err := c.storage.Read(lineAddr, uint64(c.geometry.LineSize))
	if err != nil {
		panic(err)
	}

	victimAddr := c.geometry.LineAddr(c.tags.Tag(lineIndex), setID)
	c.bottom.SendMemRequest(victimAddr, c.geometry.LineSize, bytes, requestID)
	c.numWriteBack++
}

// ReceiveMemResponse completes the outstanding miss recorded under
// requestID. Resolving any miss unblocks the cache: the freed slot, not
// necessarily the sentinel, is available to the next miss.
func (c *Comp) ReceiveMemResponse(requestID int, data []byte) {
	slot, found := c.mshrs.FindByID(requestID)
	if !found {
		log.Panicf("response id %d does not match any outstanding miss",
			requestID)
	}

	if len(data) != c.geometry.LineSize {
		log.Panicf("fill data is %d bytes, want one line of %d",
			len(data), c.geometry.LineSize)
	}

	c.fillAndRespond(c.mshrs.At(slot), data)

	c.mshrs.Clear(slot)
	c.blocked = false
}

// fillAndRespond copies the fetched block into the destination line and
// then serves the recorded request as a hit.
func (c *Comp) fillAndRespond(e mshr.Entry, data []byte) {
	lineAddr := uint64(e.LineIndex) << c.geometry.OffsetBits

	if err := c.storage.Write(lineAddr, data); err != nil {
		panic(err)
	}

	c.tags.SetState(e.LineIndex, tagging.StateValid)
	c.tags.SetTag(e.LineIndex, c.geometry.Tag(e.Address))

	byteAddr := lineAddr + uint64(c.geometry.Offset(e.Address))

	if e.Data != nil {
		if err := c.storage.Write(byteAddr, e.Data[:e.Size]); err != nil {
			panic(err)
		}

		c.tags.SetState(e.LineIndex, tagging.StateDirty)
		c.top.SendResponse(e.RequesterID, nil)

		return
	}

	bytes, err := c.storage.Read(byteAddr, uint64(e.Size))
	if err != nil {
		panic(err)
	}

	c.top.SendResponse(e.RequesterID, bytes)
}
