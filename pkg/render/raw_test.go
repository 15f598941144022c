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

func TestRawRendererWriteHeader(t *testing.T) {
	var buf strings.Builder
	r := RawRenderer{}
	require.NoError(t, r.WriteHeader(&buf, "cpu", []string{"%user", "%system"}))
	assert.Equal(t, "#;timestamp;cpu;%user;%system;\n", buf.String())
}

func TestRawRendererWriteRowWithoutTag(t *testing.T) {
	var buf strings.Builder
	r := RawRenderer{}
	require.NoError(t, r.WriteRow(&buf, "10:00:00", "cpu", "all", []float64{12.5, 0.25}, TagNone))
	assert.Equal(t, "10:00:00;cpu;all;12.50;0.25;\n", buf.String())
}

func TestRawRendererWriteRowOmitsEmptyItem(t *testing.T) {
	var buf strings.Builder
	r := RawRenderer{}
	require.NoError(t, r.WriteRow(&buf, "10:00:00", "mem", "", []float64{1024}, TagNone))
	assert.Equal(t, "10:00:00;mem;1024.00;\n", buf.String())
}

func TestRawRendererWriteRowAppendsTag(t *testing.T) {
	var buf strings.Builder
	r := RawRenderer{}
	require.NoError(t, r.WriteRow(&buf, "10:00:00", "disk", "sda", []float64{3.0}, TagNew))
	assert.Equal(t, "10:00:00;disk;sda;3.00;[NEW];\n", buf.String())
}
