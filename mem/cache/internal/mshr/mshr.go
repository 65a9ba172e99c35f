// Package mshr holds the miss-status-holding registers that record requests
// waiting for a fill or write-back to finish.
package mshr

import "log"

// An Entry records one request that cannot complete until a pending fill
// finishes. A cleared entry holds the empty sentinel pattern: requester ID
// and line index at -1, every other field at its zero value.
type Entry struct {
	RequesterID int
	Address     uint64
	Size        int
	Data        []byte
	LineIndex   int
}

// EmptyEntry returns the sentinel pattern of an unoccupied entry.
func EmptyEntry() Entry {
	return Entry{RequesterID: -1, LineIndex: -1}
}

// IsEmpty reports whether the entry holds the sentinel pattern.
func (e Entry) IsEmpty() bool {
	return e.RequesterID == -1 &&
		e.Address == 0 &&
		e.Size == 0 &&
		e.Data == nil &&
		e.LineIndex == -1
}

// A Table is a fixed-depth MSHR table. The slots are allocated once at
// construction and reused in place. The last slot is the reserved blocking
// sentinel: allocating it means the table is exhausted and the cache must
// stop accepting requests.
type Table struct {
	entries []Entry
}

// NewTable creates a table with the given number of slots. The depth is
// fixed for the lifetime of the table.
func NewTable(depth int) *Table {
	if depth < 1 {
		log.Panicf("MSHR table depth must be at least 1, got %d", depth)
	}

	t := &Table{entries: make([]Entry, depth)}
	for i := range t.entries {
		t.entries[i] = EmptyEntry()
	}

	return t
}

// Depth returns the number of slots in the table.
func (t *Table) Depth() int {
	return len(t.entries)
}

// Allocate returns the slot the next miss should occupy: the first empty
// slot among [0, depth-2], or the reserved last slot if none is empty.
func (t *Table) Allocate() int {
	for i := 0; i < len(t.entries)-1; i++ {
		if t.entries[i].IsEmpty() {
			return i
		}
	}

	return len(t.entries) - 1
}

// At returns the entry in a slot.
func (t *Table) At(slot int) Entry {
	return t.entries[slot]
}

// Set records an entry in a slot.
func (t *Table) Set(slot int, e Entry) {
	t.entries[slot] = e
}

// Clear resets a slot to the empty sentinel.
func (t *Table) Clear(slot int) {
	t.entries[slot] = EmptyEntry()
}

// FindByID returns the first slot whose stored requester ID matches id.
// Callers must guarantee unique IDs among concurrently outstanding misses.
func (t *Table) FindByID(id int) (int, bool) {
	for i, e := range t.entries {
		if !e.IsEmpty() && e.RequesterID == id {
			return i, true
		}
	}

	return -1, false
}
