// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package osadapter

import (
	"bufio"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sysstatgo/satop/pkg/activity"
)

// cpuReader reads per-CPU and aggregate tick counters from /proc/stat's
// "cpu"/"cpuN" lines: user nice system idle iowait irq softirq [steal
// guest guest_nice]. The aggregate line is always item 0, named "all";
// each "cpuN" line follows as item N+1.
type cpuReader struct {
	statPath string
}

func newCPUReader(procPath string) *cpuReader {
	return &cpuReader{statPath: filepath.Join(procPath, "stat")}
}

func (r *cpuReader) CountItems(desc *activity.Descriptor) (int, bool, error) {
	f, err := os.Open(r.statPath)
	if err != nil {
		return 0, false, errOpen(r.statPath, err)
	}
	defer f.Close()

	n := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 || !strings.HasPrefix(fields[0], "cpu") {
			continue
		}
		n++
	}
	return n, true, scanner.Err()
}

func (r *cpuReader) Read(desc *activity.Descriptor, buf *activity.Buffer) error {
	f, err := os.Open(r.statPath)
	if err != nil {
		return errOpen(r.statPath, err)
	}
	defer f.Close()

	curr := buf.Curr()
	i := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 8 || !strings.HasPrefix(fields[0], "cpu") {
			continue
		}
		if i >= len(curr) {
			break
		}
		item := &curr[i]
		item.Name = "all"
		if fields[0] != "cpu" {
			item.Name = fields[0]
		}
		user, _ := strconv.ParseUint(fields[1], 10, 64)
		nice, _ := strconv.ParseUint(fields[2], 10, 64)
		system, _ := strconv.ParseUint(fields[3], 10, 64)
		iowait, _ := strconv.ParseUint(fields[5], 10, 64)
		var steal uint64
		if len(fields) > 8 {
			steal, _ = strconv.ParseUint(fields[8], 10, 64)
		}
		idle, _ := strconv.ParseUint(fields[4], 10, 64)

		item.U64[0] = user
		item.U64[1] = nice
		item.U64[2] = system
		item.U64[3] = iowait
		item.U64[4] = steal
		item.U64[5] = idle
		i++
	}
	return scanner.Err()
}
