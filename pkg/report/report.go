// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

// Package report ties the item-registry matcher, rate engine, and
// column renderer together into the one operation every reporting
// binary needs: given a tick's raw samples and the previous tick's,
// print one rate-computed row per item for every collected activity.
// cmd/sar drives this from a live in-process sampler; cmd/sadf drives it
// from decoded archive STATS records. Either caller supplies the same
// shape of input (archive.ActivitySnapshot per activity, keyed by ID),
// so the two binaries share this package rather than duplicating the
// matching/rate/render wiring.
package report

import (
	"fmt"

	"github.com/sysstatgo/satop/pkg/activity"
	"github.com/sysstatgo/satop/pkg/archive"
	"github.com/sysstatgo/satop/pkg/itemreg"
	"github.com/sysstatgo/satop/pkg/rate"
	"github.com/sysstatgo/satop/pkg/render"
)

// Engine holds the long-lived, per-activity state a reporting session
// carries across ticks: each activity's item-identity matcher, its
// minmax extrema store, and the output dialect rows render through.
type Engine struct {
	registry *activity.Registry
	matchers map[activity.ID]*itemreg.Matcher
	extrema  map[activity.ID]*rate.Store
	dialect  render.Dialect

	zeroOmit bool
	minMax   bool

	startUnix int64
}

// New builds a reporting Engine over reg's collected activities.
// persisted, if non-nil, is given to every activity's matcher as its
// persisted-key tie-break tier. RenderTick passes no composite keys to
// the matchers, so neither the composite-key tier nor the persisted tier
// is consulted: items are matched by exact name or registered as new.
// dialect selects which of each
// descriptor's Hooks fields RenderTick calls; the caller must have
// already populated Hooks via render.WireHooks before any tick is
// rendered.
func New(reg *activity.Registry, persisted itemreg.PersistedLookup, zeroOmit, minMax bool, dialect render.Dialect) *Engine {
	e := &Engine{
		registry: reg,
		matchers: make(map[activity.ID]*itemreg.Matcher),
		extrema:  make(map[activity.ID]*rate.Store),
		dialect:  dialect,
		zeroOmit: zeroOmit,
		minMax:   minMax,
	}
	for _, act := range reg.All() {
		e.matchers[act.Desc.ID] = itemreg.New(persisted)
		e.extrema[act.Desc.ID] = rate.NewStore()
	}
	return e
}

// HandleRestart clears every activity's item-identity matcher and rate
// extrema. Callers invoke this whenever a RESTART record is written or
// replayed, so a CPU hot-add/-remove or a sampler restart doesn't leave
// stale "missing" item state or pre-boundary extrema bleeding into
// samples taken after the boundary.
func (e *Engine) HandleRestart() {
	for id, m := range e.matchers {
		m.Forget()
		e.extrema[id].ResetAll()
	}
}

// RenderTick prints one tick's rows for every activity present in curr.
// prev supplies the preceding tick's samples for rate computation
// (absent or nil entries are treated as "every item new"). unixTS is the
// tick's unix timestamp (used by the push dialect, and to derive the SVG
// dialect's time-since-start X axis); elapsedSecs is the wall-clock gap
// between prev and curr, the denominator every non-CPU rate divides by;
// CPU computes its own percentages from the raw jiffy deltas instead
// (see cpuValues).
func (e *Engine) RenderTick(w render.Writer, timestamp string, unixTS int64, elapsedSecs float64, curr, prev map[activity.ID]archive.ActivitySnapshot) error {
	if e.startUnix == 0 {
		e.startUnix = unixTS
	}
	offsetSecs := float64(unixTS - e.startUnix)

	for _, act := range e.registry.Collected() {
		snap, ok := curr[act.Desc.ID]
		if !ok {
			continue
		}
		if err := e.renderActivity(w, timestamp, unixTS, offsetSecs, elapsedSecs, act, snap, prev[act.Desc.ID]); err != nil {
			return fmt.Errorf("report: render %s: %w", act.Desc.ID, err)
		}
	}
	return nil
}

func (e *Engine) hookFor(h activity.RenderHooks) func(activity.Writer, *activity.RenderContext) error {
	switch e.dialect {
	case render.SVG:
		return h.SVG
	case render.Raw:
		return h.Raw
	case render.Push:
		return h.Push
	default:
		return h.Column
	}
}

func (e *Engine) renderActivity(w render.Writer, timestamp string, unixTS int64, offsetSecs, elapsedSecs float64, act *activity.Activity, curr, prev archive.ActivitySnapshot) error {
	hook := e.hookFor(act.Desc.Hooks)
	if hook == nil {
		return fmt.Errorf("no %v renderer wired for this activity", e.dialect)
	}

	labels := render.ValueLabels(act.Desc, nil)
	if err := hook(w, &activity.RenderContext{
		Timestamp: timestamp,
		MinMax:    e.minMax,
		ZeroOmit:  e.zeroOmit,
		Labels:    labels,
		IsHeader:  true,
		Unix:      unixTS,
	}); err != nil {
		return err
	}

	currNames := itemNames(curr.Items)
	prevNames := itemNames(prev.Items)
	matcher := e.matchers[act.Desc.ID]
	matches := matcher.Reconcile(currNames, prevNames, nil)
	extrema := e.extrema[act.Desc.ID]
	generic := isGenericLabelSet(labels, act.Desc.Layout.FieldCount())

	for i, item := range curr.Items {
		m := matches[i]
		var values []float64
		switch {
		case act.Desc.ID == activity.CPU:
			values = cpuValues(item, prevItemFor(m, prev.Items))
		case generic || m.IsNew:
			values = rawValues(item)
		default:
			values = rateValues(item, prev.Items[m.PrevIndex], elapsedSecs)
		}

		if e.zeroOmit && allZero(values) {
			continue
		}
		if err := hook(w, &activity.RenderContext{
			Timestamp:  timestamp,
			ItemName:   item.Name,
			MinMax:     e.minMax,
			ZeroOmit:   e.zeroOmit,
			Values:     values,
			Labels:     labels,
			OffsetSecs: offsetSecs,
			Unix:       unixTS,
			Tag:        string(rawTagFor(m)),
		}); err != nil {
			return err
		}
		if e.minMax {
			for fi, v := range values {
				extrema.Update(seriesKey(item.Name, fi), v)
			}
		}
	}
	return nil
}

// rawTagFor maps an item-matcher result onto the raw dialect's
// state-transition annotation; other dialects ignore RenderContext.Tag.
func rawTagFor(m itemreg.Match) render.RawTag {
	switch {
	case m.Restart:
		return render.TagBack
	case m.IsNew:
		return render.TagNew
	default:
		return render.TagNone
	}
}

// Extrema exposes the accumulated min/max series for activity id, keyed
// by seriesKey(itemName, fieldIndex); used by a --minmax summary pass
// after the last tick.
func (e *Engine) Extrema(id activity.ID) *rate.Store {
	return e.extrema[id]
}

func seriesKey(item string, fieldIndex int) string {
	return fmt.Sprintf("%s.%d", item, fieldIndex)
}

func itemNames(items []activity.Item) []string {
	names := make([]string, len(items))
	for i, it := range items {
		names[i] = it.Name
	}
	return names
}

func prevItemFor(m itemreg.Match, prevItems []activity.Item) activity.Item {
	if m.IsNew || m.PrevIndex < 0 || m.PrevIndex >= len(prevItems) {
		return activity.Item{}
	}
	return prevItems[m.PrevIndex]
}

// isGenericLabelSet reports whether ValueLabels fell back to the
// generic "fld%d" naming, the signal that this activity's raw fields
// don't map cleanly onto rate-able display columns (e.g. memory's
// derived percentages); those activities are shown as raw counters
// rather than guessed-at rates.
func isGenericLabelSet(labels []string, n int) bool {
	if len(labels) != n {
		return true
	}
	for i, l := range labels {
		if l != fmt.Sprintf("fld%d", i) {
			return false
		}
	}
	return n > 0
}

// rawValues renders every concatenated U64/U32/U field as-is, used for
// new items (no predecessor to diff against) and for activities whose
// fields aren't rate-able.
func rawValues(item activity.Item) []float64 {
	out := make([]float64, 0, len(item.U64)+len(item.U32)+len(item.U))
	for _, v := range item.U64 {
		out = append(out, float64(v))
	}
	for _, v := range item.U32 {
		out = append(out, float64(v))
	}
	for _, v := range item.U {
		out = append(out, float64(v))
	}
	return out
}

// rateValues computes a per-second rate for every concatenated field,
// dividing by the tick's elapsed wall-clock seconds rather than a
// jiffy-based interval; CPU is the only activity with its own
// jiffy-denominated percentage math (see cpuValues).
func rateValues(curr, prev activity.Item, elapsedSecs float64) []float64 {
	out := make([]float64, 0, len(curr.U64)+len(curr.U32)+len(curr.U))
	for i, v := range curr.U64 {
		var p uint64
		if i < len(prev.U64) {
			p = prev.U64[i]
		}
		out = append(out, rate.SValue(p, v, elapsedSecs, 1.0))
	}
	for i, v := range curr.U32 {
		var p uint32
		if i < len(prev.U32) {
			p = prev.U32[i]
		}
		out = append(out, rate.SValue(uint64(p), uint64(v), elapsedSecs, 1.0))
	}
	for i, v := range curr.U {
		var p uint32
		if i < len(prev.U) {
			p = prev.U[i]
		}
		out = append(out, rate.SValue(uint64(p), uint64(v), elapsedSecs, 1.0))
	}
	return out
}

// cpuValues renders CPU's six layout fields (user, nice, system, iowait,
// steal, idle, in that order, see activity.cpuDescriptor) as percentages
// via the dedicated jiffy-interval rate math rather than the generic
// per-second rate every other activity uses.
func cpuValues(curr, prev activity.Item) []float64 {
	toSample := func(it activity.Item) rate.CPUSample {
		var s rate.CPUSample
		if len(it.U64) >= 6 {
			s.User, s.Nice, s.System, s.IOWait, s.Steal, s.Idle =
				it.U64[0], it.U64[1], it.U64[2], it.U64[3], it.U64[4], it.U64[5]
		}
		return s
	}
	r := rate.PerCPURates(toSample(prev), toSample(curr))
	return []float64{r.User, r.Nice, r.System, r.IOWait, r.Steal, r.Idle}
}

func allZero(values []float64) bool {
	for _, v := range values {
		if v != 0 {
			return false
		}
	}
	return true
}
