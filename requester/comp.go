package requester

import (
	"log"
	"reflect"

	"github.com/sarchlab/csim/datarecording"
	"github.com/sarchlab/csim/mem"
	"github.com/sarchlab/csim/sim"
)

// accessTableName is the table completed accesses are recorded into.
const accessTableName = "access"

// An accessRow is one completed access as stored by the data recorder.
type accessRow struct {
	RequestID    int
	Write        bool
	Address      uint64
	Size         int
	IssueTime    float64
	CompleteTime float64
}

type access struct {
	rec       Record
	requestID int
	data      []byte
	issueTime sim.VTimeInSec
}

type issueEvent struct {
	*sim.EventBase

	acc *access
}

func newIssueEvent(
	time sim.VTimeInSec,
	handler sim.Handler,
	acc *access,
) *issueEvent {
	return &issueEvent{
		EventBase: sim.NewEventBase(time, handler),
		acc:       acc,
	}
}

// A Comp replays trace records against a cache. Each record is issued at
// its tick; a refused request is retried one cycle later until the cache
// accepts it. Completed reads are verified against a shadow copy of the
// data written so far.
type Comp struct {
	name string

	engine sim.Engine
	freq   sim.Freq
	cache  mem.Cache

	recorder datarecording.DataRecorder

	nextRequestID int
	inflight      map[int]*access
	shadow        map[uint64]byte

	numIssued       uint64
	numRetried      uint64
	numCompleted    uint64
	numReadMismatch uint64
}

// Name returns the name of the requester.
func (c *Comp) Name() string {
	return c.name
}

// Issued returns the number of requests the cache accepted.
func (c *Comp) Issued() uint64 {
	return c.numIssued
}

// Retried returns the number of times a request was refused and rescheduled.
func (c *Comp) Retried() uint64 {
	return c.numRetried
}

// Completed returns the number of responses received.
func (c *Comp) Completed() uint64 {
	return c.numCompleted
}

// ReadMismatches returns the number of reads that disagreed with the shadow
// copy.
func (c *Comp) ReadMismatches() uint64 {
	return c.numReadMismatch
}

// ScheduleAll schedules one issue event per record at the record's tick.
func (c *Comp) ScheduleAll(records []Record) {
	for _, rec := range records {
		acc := &access{
			rec:       rec,
			requestID: c.nextRequestID,
		}
		c.nextRequestID++

		if rec.Write {
			acc.data = c.writeData(rec)
		}

		when := c.freq.NCyclesLater(int(rec.Tick), 0)
		c.engine.Schedule(newIssueEvent(when, c, acc))
	}
}

// writeData returns the bytes a write record stores: the record's own data
// when present, deterministic address-derived bytes otherwise.
func (c *Comp) writeData(rec Record) []byte {
	if rec.Data != nil {
		return rec.Data
	}

	data := make([]byte, rec.Size)
	for i := range data {
		data[i] = byte(rec.Address + uint64(i))
	}

	return data
}

// Handle issues the event's access, retrying one cycle later if the cache
// is blocked.
func (c *Comp) Handle(e sim.Event) error {
	evt, ok := e.(*issueEvent)
	if !ok {
		log.Panicf("cannot handle event of %s", reflect.TypeOf(e))
	}

	acc := evt.acc
	acc.issueTime = e.Time()

	// Responses to hits arrive synchronously inside ReceiveRequest, so the
	// access must be registered before the call.
	c.inflight[acc.requestID] = acc

	accepted := c.cache.ReceiveRequest(
		acc.rec.Address, acc.rec.Size, acc.data, acc.requestID)
	if !accepted {
		delete(c.inflight, acc.requestID)
		c.numRetried++
		c.engine.Schedule(newIssueEvent(c.freq.NextTick(e.Time()), c, acc))

		return nil
	}

	c.numIssued++

	return nil
}

// SendResponse receives the acknowledgement for one request: nil data for a
// completed write, the requested bytes for a completed read.
func (c *Comp) SendResponse(requestID int, data []byte) {
	acc, ok := c.inflight[requestID]
	if !ok {
		log.Panicf("response for unknown request %d", requestID)
	}

	delete(c.inflight, requestID)
	c.numCompleted++

	if acc.rec.Write {
		for i, b := range acc.data {
			c.shadow[acc.rec.Address+uint64(i)] = b
		}
	} else {
		c.verifyRead(acc, data)
	}

	if c.recorder != nil {
		c.recorder.InsertData(accessTableName, accessRow{
			RequestID:    acc.requestID,
			Write:        acc.rec.Write,
			Address:      acc.rec.Address,
			Size:         acc.rec.Size,
			IssueTime:    float64(acc.issueTime),
			CompleteTime: float64(c.engine.CurrentTime()),
		})
	}
}

// verifyRead compares a completed read against the shadow copy. Bytes never
// written, and reads overlapping a still-in-flight write, are not checked.
func (c *Comp) verifyRead(acc *access, data []byte) {
	if len(data) != acc.rec.Size {
		log.Panicf("read %d returned %d bytes, want %d",
			acc.requestID, len(data), acc.rec.Size)
	}

	if c.hasInflightWriteOverlap(acc.rec.Address, acc.rec.Size) {
		return
	}

	for i := 0; i < acc.rec.Size; i++ {
		want, known := c.shadow[acc.rec.Address+uint64(i)]
		if !known {
			continue
		}

		if data[i] != want {
			c.numReadMismatch++
			log.Printf("read mismatch at 0x%x: got 0x%02x, want 0x%02x",
				acc.rec.Address+uint64(i), data[i], want)

			return
		}
	}
}

func (c *Comp) hasInflightWriteOverlap(address uint64, size int) bool {
	for _, other := range c.inflight {
		if !other.rec.Write {
			continue
		}

		if other.rec.Address < address+uint64(size) &&
			address < other.rec.Address+uint64(other.rec.Size) {
			return true
		}
	}

	return false
}
