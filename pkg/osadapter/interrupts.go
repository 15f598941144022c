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

// interruptsReader reads the system-wide cumulative interrupt count off
// /proc/stat's "intr" line (its first field is the running total across
// all IRQ lines; the remainder, per-IRQ breakdown, is left to the
// bitmap-selected detail view a future --select=INT extension would add).
type interruptsReader struct {
	statPath string
}

func newInterruptsReader(procPath string) *interruptsReader {
	return &interruptsReader{statPath: filepath.Join(procPath, "stat")}
}

func (r *interruptsReader) CountItems(desc *activity.Descriptor) (int, bool, error) {
	return 1, true, nil
}

func (r *interruptsReader) Read(desc *activity.Descriptor, buf *activity.Buffer) error {
	f, err := os.Open(r.statPath)
	if err != nil {
		return errOpen(r.statPath, err)
	}
	defer f.Close()

	item := &buf.Curr()[0]
	item.Name = "sum"

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 || fields[0] != "intr" {
			continue
		}
		v, _ := strconv.ParseUint(fields[1], 10, 64)
		item.U64[0] = v
		break
	}
	return scanner.Err()
}
