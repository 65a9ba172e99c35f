package mem

import "sync"

// A CapacityRecorder accumulates the byte footprint of the data and tag
// storage of every cache built against it, so the total can be reported at
// the end of a run.
type CapacityRecorder struct {
	mu        sync.Mutex
	dataBytes uint64
	tagBytes  uint64
}

// NewCapacityRecorder creates an empty CapacityRecorder.
func NewCapacityRecorder() *CapacityRecorder {
	return &CapacityRecorder{}
}

// AddDataBytes records n bytes of data storage.
func (r *CapacityRecorder) AddDataBytes(n uint64) {
	r.mu.Lock()
	r.dataBytes += n
	r.mu.Unlock()
}

// AddTagBytes records n bytes of tag storage.
func (r *CapacityRecorder) AddTagBytes(n uint64) {
	r.mu.Lock()
	r.tagBytes += n
	r.mu.Unlock()
}

// DataBytes returns the accumulated data storage footprint.
func (r *CapacityRecorder) DataBytes() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.dataBytes
}

// TagBytes returns the accumulated tag storage footprint.
func (r *CapacityRecorder) TagBytes() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.tagBytes
}
