// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package activity

// Item is a single sampled entity's payload within an activity: a CPU, a
// disk, a network interface. Name is the identity key the matcher (D)
// resolves across ticks; U64, U32 and U hold the raw encoded counters in
// the order FieldWidth describes (U64 fields, then U32, then U).
type Item struct {
	Name  string
	U64   []uint64
	U32   []uint32
	U     []uint32
	Stale bool // true if this slot held an item that vanished this tick
	IsNew bool // true if this item was not present in the previous tick
}

func newItem(layout FieldWidth) Item {
	return Item{
		U64: make([]uint64, layout.U64),
		U32: make([]uint32, layout.U32),
		U:   make([]uint32, layout.U),
	}
}

func (it *Item) reset() {
	for i := range it.U64 {
		it.U64[i] = 0
	}
	for i := range it.U32 {
		it.U32[i] = 0
	}
	for i := range it.U {
		it.U[i] = 0
	}
	it.Name = ""
	it.Stale = false
	it.IsNew = false
}

// Buffer is the double-buffered (curr/prev) plus optional summary item
// store for one activity. Growth doubles capacity up to the caller-
// supplied max passed to NewBuffer, matching the original's
// realloc-by-doubling reallocation strategy rather than growing by exact
// need on every tick (which would thrash on noisy item counts).
type Buffer struct {
	desc    *Descriptor
	max     int
	curr    []Item
	prev    []Item
	summary []Item
}

// NewBuffer allocates a buffer for desc with an initial capacity of
// initCap items (rounded up to at least 1) and a hard ceiling of max
// items (0 means unbounded).
func NewBuffer(desc *Descriptor, initCap, max int) *Buffer {
	if initCap < 1 {
		initCap = 1
	}
	b := &Buffer{desc: desc, max: max}
	b.curr = allocItems(desc.Layout, initCap)
	b.prev = allocItems(desc.Layout, initCap)
	return b
}

func allocItems(layout FieldWidth, n int) []Item {
	items := make([]Item, n)
	for i := range items {
		items[i] = newItem(layout)
	}
	return items
}

// Cap returns the currently allocated item capacity of curr/prev.
func (b *Buffer) Cap() int { return len(b.curr) }

// EnsureCapacity grows curr and prev to hold at least n items, doubling
// the existing capacity until it suffices. Returns ErrOutOfCapacity if
// that would exceed the configured Max.
func (b *Buffer) EnsureCapacity(n int) error {
	if n <= len(b.curr) {
		return nil
	}
	if b.max > 0 && n > b.max {
		return ErrOutOfCapacity
	}
	newCap := len(b.curr)
	if newCap < 1 {
		newCap = 1
	}
	for newCap < n {
		newCap *= 2
	}
	if b.max > 0 && newCap > b.max {
		newCap = b.max
	}
	b.curr = growItems(b.curr, newCap, b.desc.Layout)
	b.prev = growItems(b.prev, newCap, b.desc.Layout)
	return nil
}

func growItems(items []Item, newCap int, layout FieldWidth) []Item {
	if newCap <= len(items) {
		return items
	}
	grown := make([]Item, newCap)
	copy(grown, items)
	for i := len(items); i < newCap; i++ {
		grown[i] = newItem(layout)
	}
	return grown
}

// Curr returns the slice of currently-allocated curr-slot items. Only the
// first n (as tracked by the caller's ItemCounts.Curr) are meaningful;
// the rest are zeroed scratch space.
func (b *Buffer) Curr() []Item { return b.curr }

// Prev returns the slice of currently-allocated prev-slot items.
func (b *Buffer) Prev() []Item { return b.prev }

// Summary returns the averaged/summary-slot items, allocating it lazily
// on first use since most activities never render an average row.
func (b *Buffer) Summary() []Item {
	if b.summary == nil {
		b.summary = allocItems(b.desc.Layout, len(b.curr))
	}
	return b.summary
}

// Swap exchanges curr and prev, the per-tick rotation that makes the
// just-read sample become the baseline for the next delta computation.
// The new curr (old prev) is zeroed so the next read starts clean.
func (b *Buffer) Swap() {
	b.curr, b.prev = b.prev, b.curr
	for i := range b.curr {
		b.curr[i].reset()
	}
}

// ZeroFill clears every item in curr, used when an activity is read but
// reports zero items this tick (e.g. a PSI file absent on this kernel).
func (b *Buffer) ZeroFill() {
	for i := range b.curr {
		b.curr[i].reset()
	}
}
