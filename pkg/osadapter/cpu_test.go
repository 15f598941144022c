// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package osadapter

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sysstatgo/satop/pkg/activity"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestCPUReaderCountsAggregateAndPerCPULines(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "stat"), "cpu  100 20 30 400 5 6 7 0 0 0\n"+
		"cpu0 50 10 15 200 2 3 3 0 0 0\n"+
		"cpu1 50 10 15 200 3 3 4 0 0 0\n"+
		"intr 12345 0 0\n")

	r := newCPUReader(dir)
	n, ok, err := r.CountItems(nil)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 3, n)
}

func TestCPUReaderReadsAggregateLineIntoFirstItem(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "stat"), "cpu  100 20 30 400 5 6 7 8 0 0\n")

	r := newCPUReader(dir)
	desc := &activity.Descriptor{Layout: activity.FieldWidth{U64: 6}}
	buf := activity.NewBuffer(desc, 1, 0)

	require.NoError(t, r.Read(desc, buf))

	item := buf.Curr()[0]
	require.Equal(t, "all", item.Name)
	require.Equal(t, uint64(100), item.U64[0]) // user
	require.Equal(t, uint64(20), item.U64[1])  // nice
	require.Equal(t, uint64(30), item.U64[2])  // system
	require.Equal(t, uint64(5), item.U64[3])   // iowait
	require.Equal(t, uint64(8), item.U64[4])   // steal
	require.Equal(t, uint64(400), item.U64[5]) // idle
}
