// Package directmapped builds direct-mapped caches as the ways = 1 instance
// of the blocking set-associative design. The sole line of each set is
// either reused directly or written back first when dirty; no victim choice
// is involved.
package directmapped

import (
	"github.com/sarchlab/csim/mem"
	"github.com/sarchlab/csim/mem/cache/blocking"
)

// Builder can build direct-mapped caches.
type Builder struct {
	inner blocking.Builder
}

// MakeBuilder creates a Builder with default parameters: a 1KB cache with
// 8-byte lines in a 32-bit address space.
func MakeBuilder() Builder {
	return Builder{
		inner: blocking.MakeBuilder().WithWayAssociativity(1),
	}
}

// WithTotalByteSize sets the total size of the cache in bytes.
func (b Builder) WithTotalByteSize(totalByteSize uint64) Builder {
	b.inner = b.inner.WithTotalByteSize(totalByteSize)
	return b
}

// WithLineSize sets the line size of the cache in bytes.
func (b Builder) WithLineSize(lineSize int) Builder {
	b.inner = b.inner.WithLineSize(lineSize)
	return b
}

// WithAddrWidth sets the width of the requester's addresses in bits.
func (b Builder) WithAddrWidth(addrWidth int) Builder {
	b.inner = b.inner.WithAddrWidth(addrWidth)
	return b
}

// WithCapacityRecorder sets the recorder that accumulates the storage
// footprint of the caches built.
func (b Builder) WithCapacityRecorder(r *mem.CapacityRecorder) Builder {
	b.inner = b.inner.WithCapacityRecorder(r)
	return b
}

// Build builds a direct-mapped cache.
func (b Builder) Build(name string) *blocking.Comp {
	return b.inner.Build(name)
}
