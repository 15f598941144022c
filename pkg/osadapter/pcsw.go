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

// pcswReader reads the cumulative process-creation and context-switch
// counters off /proc/stat's "processes" and "ctxt" lines. There is
// exactly one item ("system"), since these are whole-system totals.
type pcswReader struct {
	statPath string
}

func newPCSWReader(procPath string) *pcswReader {
	return &pcswReader{statPath: filepath.Join(procPath, "stat")}
}

func (r *pcswReader) CountItems(desc *activity.Descriptor) (int, bool, error) {
	return 1, true, nil
}

func (r *pcswReader) Read(desc *activity.Descriptor, buf *activity.Buffer) error {
	f, err := os.Open(r.statPath)
	if err != nil {
		return errOpen(r.statPath, err)
	}
	defer f.Close()

	item := &buf.Curr()[0]
	item.Name = "system"

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 {
			continue
		}
		switch fields[0] {
		case "processes":
			v, _ := strconv.ParseUint(fields[1], 10, 64)
			item.U64[0] = v
		case "ctxt":
			v, _ := strconv.ParseUint(fields[1], 10, 64)
			item.U64[1] = v
		}
	}
	return scanner.Err()
}
