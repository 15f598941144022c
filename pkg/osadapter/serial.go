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

// serialReader reads /proc/tty/driver/serial, one line per UART with
// "key:value" tokens (tx, rx, fe, pe, brk, oe among them). Layout:
// U32[0..5] = rx, tx, fe, pe, brk, oe (framerr/parityerr/break/overrun).
type serialReader struct {
	serialPath string
}

func newSerialReader(procPath string) *serialReader {
	return &serialReader{serialPath: filepath.Join(procPath, "tty", "driver", "serial")}
}

func (r *serialReader) lines() ([]string, error) {
	f, err := os.Open(r.serialPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errOpen(r.serialPath, err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	return lines, scanner.Err()
}

func (r *serialReader) CountItems(desc *activity.Descriptor) (int, bool, error) {
	lines, err := r.lines()
	if err != nil {
		return 0, false, err
	}
	if len(lines) == 0 {
		return 0, false, nil
	}
	return len(lines), true, nil
}

func (r *serialReader) Read(desc *activity.Descriptor, buf *activity.Buffer) error {
	lines, err := r.lines()
	if err != nil {
		return err
	}
	curr := buf.Curr()
	for i, line := range lines {
		if i >= len(curr) {
			break
		}
		item := &curr[i]
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		item.Name = strings.TrimSuffix(fields[0], ":")
		tokens := make(map[string]uint32)
		for _, f := range fields[1:] {
			kv := strings.SplitN(f, ":", 2)
			if len(kv) != 2 {
				continue
			}
			v, err := strconv.ParseUint(kv[1], 10, 32)
			if err != nil {
				continue
			}
			tokens[kv[0]] = uint32(v)
		}
		item.U32[0] = tokens["rx"]
		item.U32[1] = tokens["tx"]
		item.U32[2] = tokens["fe"]
		item.U32[3] = tokens["pe"]
		item.U32[4] = tokens["brk"]
		item.U32[5] = tokens["oe"]
	}
	return nil
}
