package requester

import (
	"github.com/sarchlab/csim/datarecording"
	"github.com/sarchlab/csim/mem"
	"github.com/sarchlab/csim/sim"
)

// Builder can build trace-replaying requesters.
type Builder struct {
	engine   sim.Engine
	freq     sim.Freq
	cache    mem.Cache
	recorder datarecording.DataRecorder
}

// MakeBuilder creates a Builder running at 1GHz.
func MakeBuilder() Builder {
	return Builder{
		freq: 1 * sim.GHz,
	}
}

// WithEngine sets the engine that schedules the issue events.
func (b Builder) WithEngine(engine sim.Engine) Builder {
	b.engine = engine
	return b
}

// WithFreq sets the frequency the trace ticks are counted in.
func (b Builder) WithFreq(freq sim.Freq) Builder {
	b.freq = freq
	return b
}

// WithCache sets the cache the requests are issued to.
func (b Builder) WithCache(cache mem.Cache) Builder {
	b.cache = cache
	return b
}

// WithRecorder attaches a data recorder that stores one row per completed
// access.
func (b Builder) WithRecorder(recorder datarecording.DataRecorder) Builder {
	b.recorder = recorder
	return b
}

// Build builds a requester.
func (b Builder) Build(name string) *Comp {
	if b.engine == nil {
		panic("requester requires an engine")
	}

	if b.cache == nil {
		panic("requester requires a cache")
	}

	c := &Comp{
		name:     name,
		engine:   b.engine,
		freq:     b.freq,
		cache:    b.cache,
		recorder: b.recorder,
		inflight: make(map[int]*access),
		shadow:   make(map[uint64]byte),
	}

	if c.recorder != nil {
		c.recorder.CreateTable(accessTableName, accessRow{})
	}

	return c
}
