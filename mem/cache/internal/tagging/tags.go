// Package tagging keeps the per-line state and tag of a cache.
package tagging

// A State is the life-cycle state of one cache line.
type State int

// The states a line can be in. StateDirty implies the line is also valid;
// the tag of a line is meaningful only when the line is not StateInvalid.
const (
	StateInvalid State = iota
	StateValid
	StateDirty
)

type line struct {
	state State
	tag   uint64
}

// Tags is the tag store of one cache: per-line state and tag, indexed by
// line number. A set occupies Ways consecutive lines.
type Tags struct {
	numSets int
	numWays int
	tagBits int
	lines   []line
}

// NewTags creates a tag store for numSets sets of numWays lines, holding
// tags of tagBits bits. All lines start invalid.
func NewTags(numSets, numWays, tagBits int) *Tags {
	return &Tags{
		numSets: numSets,
		numWays: numWays,
		tagBits: tagBits,
		lines:   make([]line, numSets*numWays),
	}
}

// State returns the state of a line.
func (t *Tags) State(lineIndex int) State {
	return t.lines[lineIndex].state
}

// SetState sets the state of a line.
func (t *Tags) SetState(lineIndex int, s State) {
	t.lines[lineIndex].state = s
}

// Tag returns the stored tag of a line.
func (t *Tags) Tag(lineIndex int) uint64 {
	return t.lines[lineIndex].tag
}

// SetTag stores the tag of a line.
func (t *Tags) SetTag(lineIndex int, tag uint64) {
	t.lines[lineIndex].tag = tag
}

// Lookup scans the ways of a set for a valid or dirty line holding tag. It
// returns the line index of the hit, or false on a miss.
func (t *Tags) Lookup(setID int, tag uint64) (int, bool) {
	base := setID * t.numWays

	for way := 0; way < t.numWays; way++ {
		l := t.lines[base+way]
		if l.state != StateInvalid && l.tag == tag {
			return base + way, true
		}
	}

	return -1, false
}

// FindNonDirty scans the ways of a set for a line that can be reused without
// a write-back, invalid or clean valid. It returns false if every line in
// the set is dirty.
func (t *Tags) FindNonDirty(setID int) (int, bool) {
	base := setID * t.numWays

	for way := 0; way < t.numWays; way++ {
		if t.lines[base+way].state != StateDirty {
			return base + way, true
		}
	}

	return -1, false
}

// ByteSize returns the footprint of the tag store, counting two state bits
// plus the tag for each line, the way a bit-packed tag SRAM would store
// them.
func (t *Tags) ByteSize() uint64 {
	totalBits := uint64(t.numSets) * uint64(t.numWays) * uint64(2+t.tagBits)
	return (totalBits + 7) / 8
}
