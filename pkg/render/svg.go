// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package render

import (
	"fmt"
	"math"
	"strings"
)

// SVGView accumulates one activity-item's plotted series across the
// three-phase SVG rendering cycle: Begin allocates the accumulator,
// Point appends samples, End emits the finished polyline/bar group.
type SVGView struct {
	Title  string
	points []svgPoint
	min    float64
	max    float64
}

type svgPoint struct {
	X, Y float64
}

// BeginSVGView starts accumulating a new view (F_BEGIN phase).
func BeginSVGView(title string) *SVGView {
	return &SVGView{Title: title, min: math.Inf(1), max: math.Inf(-1)}
}

// AddPoint appends one X,Y vertex and folds Y into the view's min/max
// (F_MAIN phase, called once per sample).
func (v *SVGView) AddPoint(x, y float64) {
	v.points = append(v.points, svgPoint{X: x, Y: y})
	if y < v.min {
		v.min = y
	}
	if y > v.max {
		v.max = y
	}
}

// Empty reports whether no samples were ever added, letting the caller
// honor SKIP_EMPTY_VIEWS.
func (v *SVGView) Empty() bool { return len(v.points) == 0 }

// AutoscaleFactor picks the largest power of ten that is <= max/2, the
// scaling rule co-plotted curves use so the tallest curve sets the Y
// axis and shorter curves are visually scaled up to use the available
// height; ties round down to the smaller power of ten.
func AutoscaleFactor(max float64) float64 {
	if max <= 0 {
		return 1
	}
	target := max / 2
	if target < 1 {
		return 1
	}
	factor := 1.0
	for factor*10 <= target {
		factor *= 10
	}
	return factor
}

// End emits the finished `<g>` element for this view: title, polyline,
// and a legend showing min/max and the scale factor (F_END phase); no
// axis labels are drawn. graphID is a
// caller-assigned unique identifier for the SVG document.
func (v *SVGView) End(w Writer, graphID string, offsetX, offsetY int) error {
	if v.Empty() {
		return nil
	}
	scale := AutoscaleFactor(v.max)

	var sb strings.Builder
	fmt.Fprintf(&sb, "<g id=%q class=\"view\" transform=\"translate(%d,%d)\">\n", graphID, offsetX, offsetY)
	fmt.Fprintf(&sb, "  <title>%s</title>\n", escapeXML(v.Title))
	sb.WriteString("  <polyline points=\"")
	for i, p := range v.points {
		if i > 0 {
			sb.WriteString(" ")
		}
		fmt.Fprintf(&sb, "%.2f,%.2f", p.X, (p.Y/scale))
	}
	sb.WriteString("\"/>\n")
	if v.min > v.max {
		// never-updated sentinel state; should not happen once Empty()
		// guards this path, defensive only against future callers.
		v.min, v.max = 0, 0
	}
	fmt.Fprintf(&sb, "  <text class=\"legend\">min=%.2f max=%.2f scale=%.0f</text>\n", v.min, v.max, scale)
	sb.WriteString("</g>\n")
	_, err := w.WriteString(sb.String())
	return err
}

func escapeXML(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", "\"", "&quot;")
	return r.Replace(s)
}

// SVGDocument wraps a set of views into the single top-level <svg>
// element an invocation produces. packHorizontally corresponds to the
// PACK_VIEWS flag; when false, views stack vertically instead.
func SVGDocument(w Writer, views []*SVGView, packHorizontally bool, skipEmpty bool) error {
	if _, err := w.WriteString("<svg xmlns=\"http://www.w3.org/2000/svg\">\n"); err != nil {
		return err
	}
	const viewWidth, viewHeight = 400, 300
	x, y := 0, 0
	for i, v := range views {
		if skipEmpty && v.Empty() {
			continue
		}
		if err := v.End(w, fmt.Sprintf("view-%d", i), x, y); err != nil {
			return err
		}
		if packHorizontally {
			x += viewWidth
		} else {
			y += viewHeight
		}
	}
	_, err := w.WriteString("</svg>\n")
	return err
}

// SVGSink accumulates one view per series across every tick of a run,
// keyed by an arbitrary caller-chosen string (activity+item, typically),
// so a long-running report can fold in one AddPoint per tick and emit
// the whole document once at the end rather than needing a fixed,
// known-up-front view count.
type SVGSink struct {
	views map[string]*SVGView
	order []string
}

// NewSVGSink returns an empty sink.
func NewSVGSink() *SVGSink {
	return &SVGSink{views: make(map[string]*SVGView)}
}

// Point folds one sample into the named series, creating its view (with
// the given title) on first use.
func (s *SVGSink) Point(key, title string, x, y float64) {
	v, ok := s.views[key]
	if !ok {
		v = BeginSVGView(title)
		s.views[key] = v
		s.order = append(s.order, key)
	}
	v.AddPoint(x, y)
}

// Flush writes every accumulated view as a single SVG document, in the
// order each series was first seen.
func (s *SVGSink) Flush(w Writer, packHorizontally, skipEmpty bool) error {
	views := make([]*SVGView, 0, len(s.order))
	for _, k := range s.order {
		views = append(views, s.views[k])
	}
	return SVGDocument(w, views, packHorizontally, skipEmpty)
}
