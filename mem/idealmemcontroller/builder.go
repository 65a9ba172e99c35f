package idealmemcontroller

import (
	"github.com/sarchlab/csim/mem"
	"github.com/sarchlab/csim/sim"
)

// Builder can build ideal memory controllers.
type Builder struct {
	engine   sim.Engine
	freq     sim.Freq
	latency  int
	lineSize int
	capacity uint64
}

// MakeBuilder creates a Builder with default parameters: 100-cycle latency
// at 1GHz, 8-byte lines, and a 4GB address space.
func MakeBuilder() Builder {
	return Builder{
		freq:     1 * sim.GHz,
		latency:  100,
		lineSize: 8,
		capacity: 1 << 32,
	}
}

// WithEngine sets the engine that schedules the completions.
func (b Builder) WithEngine(engine sim.Engine) Builder {
	b.engine = engine
	return b
}

// WithFreq sets the frequency the latency is counted in.
func (b Builder) WithFreq(freq sim.Freq) Builder {
	b.freq = freq
	return b
}

// WithLatency sets the number of cycles before a request completes.
func (b Builder) WithLatency(latency int) Builder {
	b.latency = latency
	return b
}

// WithLineSize sets the line size in bytes.
func (b Builder) WithLineSize(lineSize int) Builder {
	b.lineSize = lineSize
	return b
}

// WithCapacity sets the capacity of the memory in bytes.
func (b Builder) WithCapacity(capacity uint64) Builder {
	b.capacity = capacity
	return b
}

// Build builds an ideal memory controller.
func (b Builder) Build(name string) *Comp {
	if b.engine == nil {
		panic("idealmemcontroller requires an engine")
	}

	return &Comp{
		name:     name,
		engine:   b.engine,
		freq:     b.freq,
		latency:  b.latency,
		lineSize: b.lineSize,
		storage:  mem.NewStorage(b.capacity),
	}
}
