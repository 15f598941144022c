// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package render

import (
	"fmt"
	"strings"
)

// ColumnWidth is the fixed field width every column renderer aligns to,
// including the timestamp and item-name columns.
const ColumnWidth = 9

// ColumnRenderer prints `HH:MM:SS ITEM field1 field2 ...` lines, with a
// header repeated whenever the field set changes (first use, or a
// MINMAX-mode toggle).
type ColumnRenderer struct {
	lastHeader string
}

// WriteHeader prints the column header if it differs from the last one
// written (tracking state so repeated identical headers are skipped, and
// a changed one — e.g. a MINMAX toggle — triggers a reprint with a
// blank separator line first).
func (c *ColumnRenderer) WriteHeader(w Writer, fields []string) error {
	header := "Timestamp" + strings.Repeat(" ", ColumnWidth-9) + " " + padRight("ITEM", ColumnWidth)
	for _, f := range fields {
		header += " " + padRight(f, ColumnWidth)
	}
	if header == c.lastHeader {
		return nil
	}
	if c.lastHeader != "" {
		if _, err := w.WriteString("\n"); err != nil {
			return err
		}
	}
	if _, err := w.WriteString(header + "\n"); err != nil {
		return err
	}
	c.lastHeader = header
	return nil
}

// WriteRow prints one data row, with %-suffixed field labels in the
// header implying two-decimal formatting for every value (the column
// dialect never distinguishes counts from percentages at render time;
// callers are expected to have already computed ratios as float64).
func (c *ColumnRenderer) WriteRow(w Writer, timestamp, item string, values []float64) error {
	line := padRight(timestamp, ColumnWidth) + " " + padRight(item, ColumnWidth)
	for _, v := range values {
		line += " " + padRight(fmt.Sprintf("%.2f", v), ColumnWidth)
	}
	_, err := w.WriteString(line + "\n")
	return err
}

func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}
