package video

import (
	"fmt"
	"sort"
)

// NoParent marks an entry that is itself a keyframe.
const NoParent = -1

// Entry is the probe record for one frame, in decode order.
type Entry struct {
	PTS int64
	DTS int64
	// ParentKeyframe is the index of the nearest keyframe strictly before
	// this entry, or NoParent when the entry is a keyframe.
	ParentKeyframe int
}

// Keyframe reports whether the entry can be decoded without references.
func (e Entry) Keyframe() bool {
	return e.ParentKeyframe == NoParent
}

// Index is the immutable frame index built by the probe pass. It may be
// shared by any number of clips.
type Index struct {
	entries   []Entry
	keyframes []int
	sortedPTS []int64
}

// Len returns the number of indexed frames.
func (ix *Index) Len() int {
	return len(ix.entries)
}

// Entry returns the i-th entry in decode order.
func (ix *Index) Entry(i int) Entry {
	return ix.entries[i]
}

// Keyframes returns the indices of all keyframe entries in ascending order.
// The slice must not be modified.
func (ix *Index) Keyframes() []int {
	return ix.keyframes
}

// SortedPTS returns the PTS of the i-th frame in presentation order.
func (ix *Index) SortedPTS(i int) int64 {
	return ix.sortedPTS[i]
}

// Ancestor returns the keyframe a decoder must start from to reach entry i.
func (ix *Index) Ancestor(i int) int {
	if ix.entries[i].Keyframe() {
		return i
	}
	return ix.entries[i].ParentKeyframe
}

// FrameForPTS returns the presentation-order frame number holding pts.
func (ix *Index) FrameForPTS(pts int64) (int, bool) {
	i := sort.Search(len(ix.sortedPTS), func(i int) bool { return ix.sortedPTS[i] >= pts })
	if i < len(ix.sortedPTS) && ix.sortedPTS[i] == pts {
		return i, true
	}
	return 0, false
}

// FrameAtOrBefore returns the last presentation-order frame whose PTS does
// not exceed pts, clamped to the first frame.
func (ix *Index) FrameAtOrBefore(pts int64) int {
	i := sort.Search(len(ix.sortedPTS), func(i int) bool { return ix.sortedPTS[i] > pts })
	if i == 0 {
		return 0
	}
	return i - 1
}

// GOPs returns the length of each group of pictures in decode order.
func (ix *Index) GOPs() []int {
	gops := make([]int, 0, len(ix.keyframes))
	for n, k := range ix.keyframes {
		end := len(ix.entries)
		if n+1 < len(ix.keyframes) {
			end = ix.keyframes[n+1]
		}
		gops = append(gops, end-k)
	}
	return gops
}

// Validate checks the structural invariants of the index.
func (ix *Index) Validate() error {
	if len(ix.entries) == 0 {
		return fmt.Errorf("index is empty")
	}
	if ix.entries[0].ParentKeyframe != NoParent {
		return fmt.Errorf("entry 0 is not a keyframe")
	}
	if len(ix.sortedPTS) != len(ix.entries) {
		return fmt.Errorf("sorted pts has %d values for %d entries", len(ix.sortedPTS), len(ix.entries))
	}

	k := 0
	last := NoParent
	for i, e := range ix.entries {
		if i > 0 && e.DTS < ix.entries[i-1].DTS {
			return fmt.Errorf("entry %d: dts %d decreases", i, e.DTS)
		}
		if e.Keyframe() {
			if k >= len(ix.keyframes) || ix.keyframes[k] != i {
				return fmt.Errorf("entry %d: keyframe missing from keyframe list", i)
			}
			k++
			last = i
			continue
		}
		if e.ParentKeyframe != last {
			return fmt.Errorf("entry %d: parent %d, want %d", i, e.ParentKeyframe, last)
		}
	}
	if k != len(ix.keyframes) {
		return fmt.Errorf("keyframe list has %d extra values", len(ix.keyframes)-k)
	}

	for i := 1; i < len(ix.sortedPTS); i++ {
		if ix.sortedPTS[i] < ix.sortedPTS[i-1] {
			return fmt.Errorf("sorted pts not ascending at %d", i)
		}
	}
	return nil
}

// indexBuilder accumulates entries during the probe pass.
type indexBuilder struct {
	entries  []Entry
	capacity int
	parent   int
}

func newIndexBuilder(capacity int) *indexBuilder {
	return &indexBuilder{
		entries:  make([]Entry, 0, capacity),
		capacity: capacity,
		parent:   NoParent,
	}
}

// add records the next packet. The first entry is always indexed as a
// keyframe since decoding can only begin there.
func (b *indexBuilder) add(pts, dts int64, keyframe bool) error {
	if len(b.entries) >= b.capacity {
		return fmt.Errorf("%w: more than %d frames, exceeds estimated capacity", ErrProbe, b.capacity)
	}
	i := len(b.entries)
	if keyframe || i == 0 {
		b.entries = append(b.entries, Entry{PTS: pts, DTS: dts, ParentKeyframe: NoParent})
		b.parent = i
		return nil
	}
	b.entries = append(b.entries, Entry{PTS: pts, DTS: dts, ParentKeyframe: b.parent})
	return nil
}

func (b *indexBuilder) build() (*Index, error) {
	if len(b.entries) == 0 {
		return nil, fmt.Errorf("%w: no video packets", ErrProbe)
	}
	ix := &Index{
		entries:   b.entries,
		sortedPTS: make([]int64, len(b.entries)),
	}
	for i, e := range b.entries {
		ix.sortedPTS[i] = e.PTS
		if e.Keyframe() {
			ix.keyframes = append(ix.keyframes, i)
		}
	}
	sort.Slice(ix.sortedPTS, func(i, j int) bool { return ix.sortedPTS[i] < ix.sortedPTS[j] })
	return ix, nil
}

// NewIndex builds an index from decode-ordered entries. Parent links are
// recomputed from the keyframe flags given by keyframe.
func NewIndex(pts, dts []int64, keyframe []bool) (*Index, error) {
	if len(pts) != len(dts) || len(pts) != len(keyframe) {
		return nil, fmt.Errorf("mismatched entry slices")
	}
	b := newIndexBuilder(len(pts))
	for i := range pts {
		if err := b.add(pts[i], dts[i], keyframe[i]); err != nil {
			return nil, err
		}
	}
	return b.build()
}
