// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

// Package render implements the output dialects (column, SVG, raw-debug,
// metric-push) that walk the activity registry and print one row per
// sampled item, sharing a header-template helper across dialects so each
// dialect's own code stays narrow.
package render

import (
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/sysstatgo/satop/pkg/activity"
)

// Row is one already rate-computed sample ready to print: an item name
// (empty for single-item activities like memory) plus one value per
// field in the activity's HdrLine, in order.
type Row struct {
	ItemName string
	Values   []float64
	// Annotations carries per-row tags the raw dialect surfaces
	// ([NEW], [OFF], [TLS], [BCK], [DEC]); other dialects ignore it.
	Annotations []string
}

// HeaderVariant selects which alternate header text a '|'-delimited
// hdr_line resolves to. Most activities have only one variant.
type HeaderVariant int

const (
	VariantDefault HeaderVariant = iota
	VariantExtended
)

// ParseHdrLine splits an activity's HdrLine template on '|' into its
// alternate variants, then on ';' into individual field labels for the
// selected variant. The '&' token inside a variant marks a field as
// extended-mode-only (included only when variant is VariantExtended,
// where it is spliced in after its preceding field); the '*' token marks
// a field repeated once per set bit of the supplied bitmap (used by
// per-CPU and per-IRQ headers).
func ParseHdrLine(tmpl string, variant HeaderVariant, bitmap *activity.Bitmap) []string {
	variants := strings.Split(tmpl, "|")
	idx := 0
	if variant == VariantExtended && len(variants) > 1 {
		idx = 1
	}
	if idx >= len(variants) {
		idx = 0
	}

	var fields []string
	for _, raw := range strings.Split(variants[idx], ";") {
		if raw == "" {
			continue
		}
		if strings.Contains(raw, "&") {
			parts := strings.SplitN(raw, "&", 2)
			fields = append(fields, parts[0])
			if variant == VariantExtended {
				fields = append(fields, parts[1])
			}
			continue
		}
		if strings.HasSuffix(raw, "*") && bitmap != nil {
			base := strings.TrimSuffix(raw, "*")
			for i := 0; i < bitmap.Size(); i++ {
				if bitmap.IsSet(i) {
					fields = append(fields, base)
				}
			}
			continue
		}
		fields = append(fields, raw)
	}
	return fields
}

// Writer is the sink every dialect writes through; activity.Writer is
// reused here to avoid a second near-identical interface.
type Writer = activity.Writer

// Dialect identifies one output format.
type Dialect int

const (
	Column Dialect = iota
	SVG
	Raw
	Push
)

func (d Dialect) String() string {
	switch d {
	case Column:
		return "column"
	case SVG:
		return "svg"
	case Raw:
		return "raw"
	case Push:
		return "push"
	default:
		return fmt.Sprintf("dialect(%d)", int(d))
	}
}

// ParseDialect maps a --format flag value onto a Dialect, the sadf
// -g/-r/-x-equivalent selector every reporting binary exposes.
func ParseDialect(s string) (Dialect, error) {
	switch s {
	case "", "column":
		return Column, nil
	case "svg":
		return SVG, nil
	case "raw":
		return Raw, nil
	case "push":
		return Push, nil
	default:
		return Column, fmt.Errorf("render: unknown format %q (want column, svg, raw, or push)", s)
	}
}

// MultiRender fans a single already-captured snapshot out to several
// sinks concurrently. This only ever runs at render time over immutable
// data, never during sampling, so it does not threaten the single-
// threaded-per-tick guarantee the collector side depends on.
func MultiRender(renders ...func() error) error {
	var g errgroup.Group
	for _, r := range renders {
		r := r
		g.Go(r)
	}
	return g.Wait()
}
