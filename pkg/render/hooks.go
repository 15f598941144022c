// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package render

import (
	"fmt"

	"github.com/sysstatgo/satop/pkg/activity"
	"github.com/sysstatgo/satop/pkg/push"
)

// WireHooks populates every descriptor in reg with the closures that
// actually drive this package's four dialects, turning Descriptor.Hooks
// from a declared-but-unpopulated dispatch table into the call path
// report.Engine selects by Dialect. Each descriptor gets its own
// ColumnRenderer/RawRenderer so header-repeat dedup (column) stays
// correctly scoped per activity rather than churning against whichever
// activity rendered most recently.
//
// pushClient may be nil, meaning this run has no push target configured
// for its --format; in that case Hooks.Push is left nil and a run
// selecting the push dialect fails loudly instead of silently dropping
// samples (see report.Engine.hookFor).
//
// The returned SVGSink accumulates every AddPoint call the SVG dialect
// makes across the run's ticks; the caller flushes it once at the end.
func WireHooks(reg *activity.Registry, pushClient *push.Client) *SVGSink {
	sink := NewSVGSink()

	for _, act := range reg.All() {
		desc := act.Desc
		id := desc.ID
		col := &ColumnRenderer{}
		raw := &RawRenderer{}

		desc.Hooks.Column = func(w Writer, ctx *activity.RenderContext) error {
			if ctx.IsHeader {
				return col.WriteHeader(w, ctx.Labels)
			}
			return col.WriteRow(w, ctx.Timestamp, ctx.ItemName, ctx.Values)
		}

		desc.Hooks.Raw = func(w Writer, ctx *activity.RenderContext) error {
			if ctx.IsHeader {
				return raw.WriteHeader(w, id.String(), ctx.Labels)
			}
			return raw.WriteRow(w, ctx.Timestamp, id.String(), ctx.ItemName, ctx.Values, RawTag(ctx.Tag))
		}

		desc.Hooks.SVG = func(w Writer, ctx *activity.RenderContext) error {
			if ctx.IsHeader || len(ctx.Values) == 0 {
				return nil
			}
			title := id.String()
			if ctx.ItemName != "" {
				title = fmt.Sprintf("%s.%s", id, ctx.ItemName)
			}
			sink.Point(title, title, ctx.OffsetSecs, ctx.Values[0])
			return nil
		}

		if pushClient != nil {
			desc.Hooks.Push = func(w Writer, ctx *activity.RenderContext) error {
				if ctx.IsHeader {
					return nil
				}
				for i, v := range ctx.Values {
					name := id.String()
					if i < len(ctx.Labels) {
						name = fmt.Sprintf("%s.%s", id, ctx.Labels[i])
					}
					pushClient.Enqueue(push.Metric{Name: name, Instance: ctx.ItemName, Value: v, Unix: ctx.Unix})
				}
				return nil
			}
		}
	}

	return sink
}
