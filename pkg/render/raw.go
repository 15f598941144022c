// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package render

import (
	"fmt"
	"strconv"
	"strings"
)

// RawTag annotates a raw-debug row with the state transition the item
// matcher (pkg/itemreg) observed this tick.
type RawTag string

const (
	TagNone           RawTag = ""
	TagNew            RawTag = "[NEW]"
	TagOffline        RawTag = "[OFF]"
	TagTickless       RawTag = "[TLS]"
	TagBack           RawTag = "[BCK]"
	TagDecommissioned RawTag = "[DEC]"
)

// RawRenderer prints the raw-debug dialect: `;`-delimited fields
// terminated with a trailing `;`, one line per item per tick, with an
// optional tag appended when the matcher or rate engine flagged
// something noteworthy about this sample.
type RawRenderer struct{}

// WriteRow prints one raw-debug line.
func (RawRenderer) WriteRow(w Writer, timestamp string, activityName string, item string, values []float64, tag RawTag) error {
	var sb strings.Builder
	sb.WriteString(timestamp)
	sb.WriteString(";")
	sb.WriteString(activityName)
	sb.WriteString(";")
	if item != "" {
		sb.WriteString(item)
		sb.WriteString(";")
	}
	for _, v := range values {
		sb.WriteString(strconv.FormatFloat(v, 'f', 2, 64))
		sb.WriteString(";")
	}
	if tag != TagNone {
		sb.WriteString(string(tag))
		sb.WriteString(";")
	}
	_, err := w.WriteString(sb.String() + "\n")
	return err
}

// WriteHeader prints the field-name header line in the same `;`
// delimited form, used once per activity before its rows.
func (RawRenderer) WriteHeader(w Writer, activityName string, fields []string) error {
	line := fmt.Sprintf("#;%s;%s;", "timestamp", activityName)
	for _, f := range fields {
		line += f + ";"
	}
	_, err := w.WriteString(line + "\n")
	return err
}
