// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package rate

import (
	"math"
	"sort"
)

// Extrema tracks the minimum and maximum ever observed for one named
// series (e.g. "cpu0.%user"). Sentinel values (+Inf for min, -Inf for
// max) mean "never updated" and must never be rendered directly —
// callers check Valid() and emit a "No data" placeholder instead.
type Extrema struct {
	min float64
	max float64
	set bool
}

// NewExtrema returns an Extrema at its reset sentinels.
func NewExtrema() Extrema {
	return Extrema{min: math.Inf(1), max: math.Inf(-1)}
}

// Update folds v into the running min/max.
func (e *Extrema) Update(v float64) {
	if v < e.min {
		e.min = v
	}
	if v > e.max {
		e.max = v
	}
	e.set = true
}

// Reset restores the sentinel state; Store.ResetAll calls it for every
// series at a RESTART boundary.
func (e *Extrema) Reset() {
	*e = NewExtrema()
}

// Valid reports whether at least one sample has been folded in.
func (e Extrema) Valid() bool { return e.set }

// Min returns the minimum observed value. Callers must check Valid()
// first; an unset Extrema returns +Inf.
func (e Extrema) Min() float64 { return e.min }

// Max returns the maximum observed value. Callers must check Valid()
// first; an unset Extrema returns -Inf.
func (e Extrema) Max() float64 { return e.max }

// Store holds one Extrema per named series within an activity, e.g. one
// per (item name, field name) pair for a multi-item activity like disk
// or network.
type Store struct {
	series map[string]*Extrema
}

// NewStore creates an empty extrema store.
func NewStore() *Store {
	return &Store{series: make(map[string]*Extrema)}
}

// Update folds v into the named series' running extrema, creating it on
// first use.
func (s *Store) Update(key string, v float64) {
	e, ok := s.series[key]
	if !ok {
		ex := NewExtrema()
		e = &ex
		s.series[key] = e
	}
	e.Update(v)
}

// Get returns the Extrema for key, or a fresh unset Extrema if key has
// never been updated.
func (s *Store) Get(key string) Extrema {
	if e, ok := s.series[key]; ok {
		return *e
	}
	return NewExtrema()
}

// Keys returns every series name currently tracked, in sorted order, for
// a caller printing a full --minmax summary at end of run.
func (s *Store) Keys() []string {
	keys := make([]string, 0, len(s.series))
	for k := range s.series {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ResetAll restores every tracked series to its sentinel state, used on
// RESTART (see report.Engine.HandleRestart).
func (s *Store) ResetAll() {
	for _, e := range s.series {
		e.Reset()
	}
}

// Format renders an extrema value for display, returning the
// placeholder when the series has never been updated.
func Format(e Extrema, noData string) string {
	if !e.Valid() {
		return noData
	}
	return formatFloat(e.Min()) + ".." + formatFloat(e.Max())
}

func formatFloat(v float64) string {
	// Two-decimal formatting matches the column renderer's convention
	// for %util/%idle-style fields (see pkg/render).
	neg := v < 0
	if neg {
		v = -v
	}
	scaled := int64(v*100 + 0.5)
	whole := scaled / 100
	frac := scaled % 100
	s := itoa(whole) + "." + pad2(frac)
	if neg {
		s = "-" + s
	}
	return s
}

func itoa(n int64) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

func pad2(n int64) string {
	if n < 10 {
		return "0" + itoa(n)
	}
	return itoa(n)
}
