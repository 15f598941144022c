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

// swapReader reads the cumulative swap-in/swap-out page counters off
// /proc/vmstat's "pswpin"/"pswpout" lines.
type swapReader struct {
	vmstatPath string
}

func newSwapReader(procPath string) *swapReader {
	return &swapReader{vmstatPath: filepath.Join(procPath, "vmstat")}
}

func (r *swapReader) CountItems(desc *activity.Descriptor) (int, bool, error) {
	return 1, true, nil
}

func (r *swapReader) Read(desc *activity.Descriptor, buf *activity.Buffer) error {
	f, err := os.Open(r.vmstatPath)
	if err != nil {
		return errOpen(r.vmstatPath, err)
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
		case "pswpin":
			v, _ := strconv.ParseUint(fields[1], 10, 32)
			item.U32[0] = uint32(v)
		case "pswpout":
			v, _ := strconv.ParseUint(fields[1], 10, 32)
			item.U32[1] = uint32(v)
		}
	}
	return scanner.Err()
}
