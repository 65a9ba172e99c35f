package blocking

import (
	"math/rand"
	"time"

	"github.com/sarchlab/csim/mem"
	"github.com/sarchlab/csim/mem/cache"
	"github.com/sarchlab/csim/mem/cache/internal/mshr"
	"github.com/sarchlab/csim/mem/cache/internal/tagging"
)

// Builder can build blocking set-associative caches.
type Builder struct {
	totalByteSize    uint64
	lineSize         int
	wayAssociativity int
	addrWidth        int

	victimFinder     tagging.VictimFinder
	capacityRecorder *mem.CapacityRecorder
}

// MakeBuilder creates a Builder with default parameters: a 1KB, 4-way cache
// with 8-byte lines in a 32-bit address space.
func MakeBuilder() Builder {
	return Builder{
		totalByteSize:    1 << 10,
		lineSize:         8,
		wayAssociativity: 4,
		addrWidth:        32,
	}
}

// WithTotalByteSize sets the total size of the cache in bytes.
func (b Builder) WithTotalByteSize(totalByteSize uint64) Builder {
	b.totalByteSize = totalByteSize
	return b
}

// WithLineSize sets the line size of the cache in bytes.
func (b Builder) WithLineSize(lineSize int) Builder {
	b.lineSize = lineSize
	return b
}

// WithWayAssociativity sets the number of ways of each set.
func (b Builder) WithWayAssociativity(ways int) Builder {
	b.wayAssociativity = ways
	return b
}

// WithAddrWidth sets the width of the requester's addresses in bits.
func (b Builder) WithAddrWidth(addrWidth int) Builder {
	b.addrWidth = addrWidth
	return b
}

// WithVictimFinder sets the policy that picks the victim among the ways of
// a fully-dirty set. The default picks uniformly at random.
func (b Builder) WithVictimFinder(vf tagging.VictimFinder) Builder {
	b.victimFinder = vf
	return b
}

// WithCapacityRecorder sets the recorder that accumulates the storage
// footprint of the caches built.
func (b Builder) WithCapacityRecorder(r *mem.CapacityRecorder) Builder {
	b.capacityRecorder = r
	return b
}

// Build builds a blocking cache. Invalid organization parameters are fatal.
func (b Builder) Build(name string) *Comp {
	geometry, err := cache.MakeGeometry(
		b.totalByteSize, b.lineSize, b.wayAssociativity, b.addrWidth)
	if err != nil {
		panic(err)
	}

	vf := b.victimFinder
	if vf == nil {
		vf = tagging.NewRandomVictimFinder(
			rand.NewSource(time.Now().UnixNano()))
	}

	c := &Comp{
		name:         name,
		geometry:     geometry,
		tags:         tagging.NewTags(geometry.NumSets, geometry.Ways, geometry.TagBits),
		storage:      mem.NewStorage(geometry.TotalByteSize),
		victimFinder: vf,
		entry:        mshr.EmptyEntry(),
	}

	if b.capacityRecorder != nil {
		b.capacityRecorder.AddDataBytes(geometry.TotalByteSize)
		b.capacityRecorder.AddTagBytes(c.tags.ByteSize())
	}

	return c
}
