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

// networkReader reads /proc/net/dev's per-interface counters. Layout:
// U64[0..5] = rx bytes, tx bytes, rx packets, tx packets, rx compressed,
// tx compressed; U32[0] = rx multicast, U32[1] reserved for a future
// interface-speed-derived %ifutil once sysfs link speed is wired in.
type networkReader struct {
	devPath string
}

func newNetworkReader(procPath string) *networkReader {
	return &networkReader{devPath: filepath.Join(procPath, "net", "dev")}
}

func (r *networkReader) CountItems(desc *activity.Descriptor) (int, bool, error) {
	lines, err := r.ifaceLines()
	if err != nil {
		return 0, false, err
	}
	return len(lines), true, nil
}

func (r *networkReader) Read(desc *activity.Descriptor, buf *activity.Buffer) error {
	lines, err := r.ifaceLines()
	if err != nil {
		return err
	}
	curr := buf.Curr()
	for i, l := range lines {
		if i >= len(curr) {
			break
		}
		name, fields := l.name, l.fields
		if len(fields) < 16 {
			continue
		}
		item := &curr[i]
		item.Name = name

		rxBytes, _ := strconv.ParseUint(fields[0], 10, 64)
		rxPackets, _ := strconv.ParseUint(fields[1], 10, 64)
		rxCompressed, _ := strconv.ParseUint(fields[6], 10, 64)
		rxMulticast, _ := strconv.ParseUint(fields[7], 10, 32)
		txBytes, _ := strconv.ParseUint(fields[8], 10, 64)
		txPackets, _ := strconv.ParseUint(fields[9], 10, 64)
		txCompressed, _ := strconv.ParseUint(fields[15], 10, 64)

		item.U64[0] = rxBytes
		item.U64[1] = txBytes
		item.U64[2] = rxPackets
		item.U64[3] = txPackets
		item.U64[4] = rxCompressed
		item.U64[5] = txCompressed
		item.U32[0] = uint32(rxMulticast)
	}
	return nil
}

type ifaceLine struct {
	name   string
	fields []string
}

func (r *networkReader) ifaceLines() ([]ifaceLine, error) {
	f, err := os.Open(r.devPath)
	if err != nil {
		return nil, errOpen(r.devPath, err)
	}
	defer f.Close()

	var lines []ifaceLine
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		if lineNo <= 2 {
			continue // header lines
		}
		text := scanner.Text()
		colon := strings.IndexByte(text, ':')
		if colon < 0 {
			continue
		}
		name := strings.TrimSpace(text[:colon])
		fields := strings.Fields(text[colon+1:])
		lines = append(lines, ifaceLine{name: name, fields: fields})
	}
	return lines, scanner.Err()
}
