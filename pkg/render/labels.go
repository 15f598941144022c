// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package render

import (
	"fmt"

	"github.com/sysstatgo/satop/pkg/activity"
)

// ValueLabels resolves an activity's per-field column labels for the
// column/raw dialects. Most built-in HdrLine templates prefix their
// value labels with one non-value token naming the item-name column
// itself (CPU, INTR, IFACE, ...); since the column renderer already
// prints its own generic "ITEM" header, that leading token is dropped
// whenever doing so makes the remaining label count match the
// descriptor's raw field count exactly. A small minority of activities
// (memory, disk, kernel_log) mix derived/non-numeric columns into their
// HdrLine that don't correspond 1:1 with raw stored fields at all; for
// those, ValueLabels falls back to generic "fld0", "fld1", ... labels
// rather than guess at a mapping.
func ValueLabels(desc *activity.Descriptor, bitmap *activity.Bitmap) []string {
	fields := ParseHdrLine(desc.HdrLine, VariantDefault, bitmap)
	n := desc.Layout.FieldCount()

	if len(fields) == n {
		return fields
	}
	if len(fields) == n+1 {
		return fields[1:]
	}
	return genericLabels(n)
}

func genericLabels(n int) []string {
	labels := make([]string, n)
	for i := range labels {
		labels[i] = fmt.Sprintf("fld%d", i)
	}
	return labels
}
