// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package rate

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtremaSentinelsUntilUpdated(t *testing.T) {
	e := NewExtrema()
	assert.False(t, e.Valid())
	assert.Equal(t, math.Inf(1), e.Min())
	assert.Equal(t, math.Inf(-1), e.Max())
}

func TestExtremaUpdateTracksMinMax(t *testing.T) {
	e := NewExtrema()
	e.Update(5.0)
	e.Update(1.0)
	e.Update(9.0)

	require.True(t, e.Valid())
	assert.Equal(t, 1.0, e.Min())
	assert.Equal(t, 9.0, e.Max())
	// invariant: min must never exceed max
	assert.LessOrEqual(t, e.Min(), e.Max())
}

// TestExtremaResetOnRestart covers scenario E5: a RESTART boundary must
// restore the sentinel state so stale extrema from before the boundary
// never leak into the next reporting window.
func TestExtremaResetOnRestart(t *testing.T) {
	e := NewExtrema()
	e.Update(42.0)
	require.True(t, e.Valid())

	e.Reset()
	assert.False(t, e.Valid())
	assert.Equal(t, math.Inf(1), e.Min())
	assert.Equal(t, math.Inf(-1), e.Max())
}

func TestStoreTracksIndependentSeries(t *testing.T) {
	s := NewStore()
	s.Update("cpu0.%user", 10.0)
	s.Update("cpu0.%user", 20.0)
	s.Update("cpu1.%user", 99.0)

	got := s.Get("cpu0.%user")
	assert.Equal(t, 10.0, got.Min())
	assert.Equal(t, 20.0, got.Max())

	got1 := s.Get("cpu1.%user")
	assert.Equal(t, 99.0, got1.Min())
	assert.Equal(t, 99.0, got1.Max())

	// An untouched series reports invalid, not a zero value.
	unseen := s.Get("cpu2.%user")
	assert.False(t, unseen.Valid())
}

func TestStoreResetAll(t *testing.T) {
	s := NewStore()
	s.Update("a", 1.0)
	s.Update("b", 2.0)
	s.ResetAll()

	assert.False(t, s.Get("a").Valid())
	assert.False(t, s.Get("b").Valid())
}

func TestFormatNoDataPlaceholder(t *testing.T) {
	e := NewExtrema()
	assert.Equal(t, "No data", Format(e, "No data"))
}

func TestFormatRendersTwoDecimals(t *testing.T) {
	e := NewExtrema()
	e.Update(1.5)
	e.Update(99.999)
	got := Format(e, "No data")
	assert.Equal(t, "1.50..100.00", got)
}
