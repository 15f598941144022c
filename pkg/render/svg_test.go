// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package render

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAutoscaleFactorPicksLargestPowerOfTenBelowHalfMax(t *testing.T) {
	assert.Equal(t, 1.0, AutoscaleFactor(0))
	assert.Equal(t, 1.0, AutoscaleFactor(1.5))
	assert.Equal(t, 10.0, AutoscaleFactor(25))
	assert.Equal(t, 100.0, AutoscaleFactor(250))
}

func TestSVGViewEmptyUntilPointAdded(t *testing.T) {
	v := BeginSVGView("cpu.user")
	assert.True(t, v.Empty())
	v.AddPoint(0, 5)
	assert.False(t, v.Empty())
}

func TestSVGViewEndSkipsEmptyView(t *testing.T) {
	v := BeginSVGView("cpu.user")
	var buf strings.Builder
	require.NoError(t, v.End(&buf, "view-0", 0, 0))
	assert.Empty(t, buf.String())
}

func TestSVGViewEndEmitsPolylineAndLegend(t *testing.T) {
	v := BeginSVGView("cpu.user")
	v.AddPoint(0, 10)
	v.AddPoint(1, 20)
	var buf strings.Builder
	require.NoError(t, v.End(&buf, "view-0", 0, 0))
	out := buf.String()
	assert.Contains(t, out, `id="view-0"`)
	assert.Contains(t, out, "<title>cpu.user</title>")
	assert.Contains(t, out, "<polyline")
	assert.Contains(t, out, "min=10.00 max=20.00")
}

func TestSVGDocumentWrapsViewsAndSkipsEmpty(t *testing.T) {
	full := BeginSVGView("cpu.user")
	full.AddPoint(0, 1)
	empty := BeginSVGView("cpu.nice")

	var buf strings.Builder
	require.NoError(t, SVGDocument(&buf, []*SVGView{full, empty}, true, true))
	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "<svg"))
	assert.True(t, strings.HasSuffix(out, "</svg>\n"))
	assert.Contains(t, out, "cpu.user")
	assert.NotContains(t, out, "cpu.nice")
}

func TestSVGSinkAccumulatesPerKeyAcrossTicks(t *testing.T) {
	sink := NewSVGSink()
	sink.Point("cpu.user", "cpu.user", 0, 10)
	sink.Point("cpu.user", "cpu.user", 1, 20)
	sink.Point("cpu.nice", "cpu.nice", 0, 1)

	var buf strings.Builder
	require.NoError(t, sink.Flush(&buf, true, false))
	out := buf.String()
	assert.Contains(t, out, "cpu.user")
	assert.Contains(t, out, "cpu.nice")
	// insertion order preserved: cpu.user appears before cpu.nice.
	assert.Less(t, strings.Index(out, "cpu.user"), strings.Index(out, "cpu.nice"))
}
