// Package idealmemcontroller models the memory below a cache: a backing
// store that serves every request after a fixed latency.
package idealmemcontroller

import (
	"log"
	"reflect"
	"slices"

	"github.com/sarchlab/csim/mem"
	"github.com/sarchlab/csim/sim"
)

type fillRespondEvent struct {
	*sim.EventBase

	requestID int
	address   uint64
}

func newFillRespondEvent(
	time sim.VTimeInSec,
	handler sim.Handler,
	requestID int,
	address uint64,
) *fillRespondEvent {
	return &fillRespondEvent{
		EventBase: sim.NewEventBase(time, handler),
		requestID: requestID,
		address:   address,
	}
}

type writeBackEvent struct {
	*sim.EventBase

	address uint64
	data    []byte
}

func newWriteBackEvent(
	time sim.VTimeInSec,
	handler sim.Handler,
	address uint64,
	data []byte,
) *writeBackEvent {
	return &writeBackEvent{
		EventBase: sim.NewEventBase(time, handler),
		address:   address,
		data:      data,
	}
}

// A Comp is an ideal memory controller that serves fills and write-backs in
// a fixed number of cycles. There is no limit on its concurrency. Fills are
// answered with exactly one ReceiveMemResponse callback per request;
// write-backs are absorbed silently.
type Comp struct {
	name string

	engine   sim.Engine
	freq     sim.Freq
	latency  int
	lineSize int

	storage *mem.Storage
	top     mem.Cache
}

// Name returns the name of the controller.
func (c *Comp) Name() string {
	return c.name
}

// SetTop connects the controller to the cache above it.
func (c *Comp) SetTop(top mem.Cache) {
	c.top = top
}

// Storage exposes the memory image, so drivers can preload or inspect it.
func (c *Comp) Storage() *mem.Storage {
	return c.storage
}

// SendMemRequest accepts a fire-and-forget request from the cache. A nil
// data slice is a fill read for one full line; a non-nil data slice is a
// write-back.
func (c *Comp) SendMemRequest(
	address uint64,
	size int,
	data []byte,
	requestID int,
) {
	when := c.freq.NCyclesLater(c.latency, c.engine.CurrentTime())

	if data != nil {
		if len(data) != size {
			log.Panicf("write-back carries %d bytes, header says %d",
				len(data), size)
		}

		c.engine.Schedule(
			newWriteBackEvent(when, c, address, slices.Clone(data)))

		return
	}

	if size != c.lineSize {
		log.Panicf("fill request for %d bytes, line size is %d",
			size, c.lineSize)
	}

	c.engine.Schedule(newFillRespondEvent(when, c, requestID, address))
}

// Handle defines how the Comp handles events.
func (c *Comp) Handle(e sim.Event) error {
	switch e := e.(type) {
	case *fillRespondEvent:
		return c.handleFillRespondEvent(e)
	case *writeBackEvent:
		return c.handleWriteBackEvent(e)
	default:
		log.Panicf("cannot handle event of %s", reflect.TypeOf(e))
	}

	return nil
}

func (c *Comp) handleFillRespondEvent(e *fillRespondEvent) error {
	data, err := c.storage.Read(e.address, uint64(c.lineSize))
	if err != nil {
		return err
	}

	c.top.ReceiveMemResponse(e.requestID, data)

	return nil
}

func (c *Comp) handleWriteBackEvent(e *writeBackEvent) error {
	return c.storage.Write(e.address, e.data)
}
