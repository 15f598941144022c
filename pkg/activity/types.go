// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

// Package activity defines the activity descriptor table at the heart of
// the collection/reporting engine: the fixed set of statistics domains
// (CPU, disk, network, ...), their behavioral flags, and the per-item
// payload layout each one uses on the wire and in memory.
package activity

import "fmt"

// ID is the stable, small-integer wire identity of an activity. Ordering
// in the descriptor table defines archive position, not semantics.
type ID uint8

const (
	CPU ID = iota
	PCSW
	Interrupts
	Memory
	Swap
	Disk
	Network
	NetworkSNMP
	Filesystem
	FibreChannel
	Serial
	Power
	PSI
	KernelLog
	maxID
)

func (id ID) String() string {
	if name, ok := idNames[id]; ok {
		return name
	}
	return fmt.Sprintf("activity(%d)", id)
}

var idNames = map[ID]string{
	CPU:          "cpu",
	PCSW:         "pcsw",
	Interrupts:   "interrupts",
	Memory:       "memory",
	Swap:         "swap",
	Disk:         "disk",
	Network:      "network",
	NetworkSNMP:  "network_snmp",
	Filesystem:   "filesystem",
	FibreChannel: "fibre_channel",
	Serial:       "serial",
	Power:        "power",
	PSI:          "psi",
	KernelLog:    "kernel_log",
}

// Group is the coarse bucket used for default-enablement decisions.
type Group uint8

const (
	GDefault Group = iota
	GDisk
	GSNMP
	GIPv6
	GPower
	GXDisk
	GInt
)

// Flags is a bitset drawn from the capability vocabulary a descriptor can
// advertise.
type Flags uint16

const (
	// Collected activities are read by the sampler every tick.
	Collected Flags = 1 << iota
	// Counted activities participate in uptime/interval bookkeeping even
	// when their own output is disabled. CPU is the canonical example:
	// its interval is the common rate denominator for every other
	// activity.
	Counted
	// Persistent activities keep their item registry across a RESTART
	// boundary instead of being reset (rare; most activities reset).
	Persistent
	// MultipleOutputs activities have more than one column layout
	// selectable at render time (e.g. a short vs. extended CPU report).
	MultipleOutputs
	// GraphPerItem activities get one SVG view per item instead of one
	// shared view with all items overlaid.
	GraphPerItem
	// Matrix activities have a secondary per-item axis (nr2), e.g.
	// per-CPU frequency histogram bins.
	Matrix
	// CloseMarkup marks the last activity of a structured XML/JSON
	// grouping (<network>, <power-management>, <psi>).
	CloseMarkup
	// Detected activities are only enabled when the OS adapter reports
	// the underlying kernel feature is present.
	Detected
	// AlwaysCounted activities are Counted unconditionally and cannot be
	// disabled by the user (CPU only).
	AlwaysCounted
)

func (f Flags) Has(bit Flags) bool { return f&bit != 0 }

// FieldWidth groups how many fields of each concatenated width an item
// payload carries, standing in for the original's gtypes_nr triple. The
// archive codec and the report engine use it to size and walk a payload
// without hand-written per-activity accessors.
type FieldWidth struct {
	U64 int // count of uint64 fields, first in the payload
	U32 int // count of uint32 fields, second
	U   int // count of "unsigned" (uint32-on-the-wire) fields, last
}

// Size returns the encoded byte size of a payload with this layout.
func (w FieldWidth) Size() int {
	return w.U64*8 + w.U32*4 + w.U*4
}

// FieldCount is the total number of scalar fields in the layout.
func (w FieldWidth) FieldCount() int { return w.U64 + w.U32 + w.U }

// ItemCounts tracks the bookkeeping the spec calls nr_ini/nr/nr_allocated/
// nr_max/nr2.
type ItemCounts struct {
	Ini       int // item count snapshot taken at file/session open
	Curr      int // item count observed in the curr slot
	Prev      int // item count observed in the prev slot
	Summary   int // item count observed in the summary slot
	Allocated int // capacity reserved in curr and prev buffers
	Max       int // domain-wide hard cap
	Secondary int // nr2: secondary axis size for Matrix activities
}

// RenderHooks is the polymorphic per-format dispatch table. Any field may
// be nil, meaning that (activity, format) pair is unsupported. This
// stands in for the original's six-plus function pointers per
// descriptor; Go represents the same "optional virtual method" shape as
// an enum (ID) plus a struct of optional closures rather than a vtable.
type RenderHooks struct {
	Column func(w Writer, ctx *RenderContext) error
	Avg    func(w Writer, ctx *RenderContext) error
	SVG    func(w Writer, ctx *RenderContext) error
	Raw    func(w Writer, ctx *RenderContext) error
	Push   func(w Writer, ctx *RenderContext) error
}

// Writer is the minimal sink every renderer writes through. Defined here
// (rather than imported from pkg/render) so activity descriptors can
// reference render hooks without creating an import cycle; pkg/render
// implements it.
type Writer interface {
	WriteString(s string) (int, error)
}

// Descriptor is one immutable row of the process-global activity table.
// Descriptors() builds the table and NewRegistry takes it; afterwards
// only Hooks is filled in (by render.WireHooks), and only the bookkeeping
// fields inside an Activity instance (counts, buffers) mutate per tick.
type Descriptor struct {
	ID      ID
	Magic   uint16 // per-domain schema version
	Group   Group
	Flags   Flags
	FSize   int // file-encoded per-item payload size
	MSize   int // in-memory per-item payload size
	Layout  FieldWidth
	HdrLine string // ';'-delimited (not tab-delimited) metric name template; |, &, * extensions
	// HasBitmap indicates this activity is indexed by CPU or IRQ and
	// needs a Bitmap selector (component H).
	HasBitmap bool
	Hooks     RenderHooks
	// ItemList optionally restricts collection/rendering to a named
	// subset of items (e.g. only "sda", "eth0").
	ItemList []string
}

// Activity is the live, mutable state for one descriptor: item counts
// and buffer handles. The Descriptor it points to is shared and
// read-only; Activity is per-session state.
type Activity struct {
	Desc   *Descriptor
	Counts ItemCounts
	// Enabled reflects runtime group selection and explicit --select.
	Enabled bool
}

func NewActivity(desc *Descriptor) *Activity {
	return &Activity{Desc: desc}
}

// RenderContext threads the per-tick, caller-supplied values a renderer
// needs without relying on package-level globals (the original's global
// mutable flags/timestamp/dish/xinit/avg_count). It is constructed fresh
// by the caller (reporter) for each render call.
type RenderContext struct {
	Timestamp  string // formatted HH:MM:SS or ISO timestamp for the row
	ItemName   string
	IsAverage  bool // true when rendering the --pretty averaged row
	MinMax     bool // --minmax comparison mode toggled the header
	ZeroOmit   bool
	Pretty     bool
	IWidth     int     // item-name column width
	VWidth     int     // value column width
	OffsetSecs float64 // seconds since file/stream start, for SVG time axis
	Unix       int64   // tick's unix timestamp, for the push dialect

	// IsHeader selects a header call (Labels holds the column names,
	// Values/ItemName are unused) instead of a data row.
	IsHeader bool
	// Values holds this row's already rate-computed fields, one per
	// Labels entry, in order.
	Values []float64
	// Labels names each Values field (or, on a header call, the column
	// header text), shared by the column and raw dialects.
	Labels []string
	// Tag carries the raw dialect's per-row state-transition
	// annotation (see render.RawTag); other dialects ignore it.
	Tag string
}
