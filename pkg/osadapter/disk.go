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

const diskstatsFieldCount = 14

// diskReader reads /proc/diskstats, reporting whole disks only
// (partitions are filtered by isPartition, matching the kernel's own
// "whole disk" convention). Layout: U64[0..3] = reads completed, sectors
// read, writes completed, sectors written; U32[0..2] = I/Os in progress,
// I/O time ms, weighted I/O time ms.
type diskReader struct {
	diskstatsPath string
}

func newDiskReader(procPath string) *diskReader {
	return &diskReader{diskstatsPath: filepath.Join(procPath, "diskstats")}
}

func (r *diskReader) CountItems(desc *activity.Descriptor) (int, bool, error) {
	lines, err := r.wholeDiskLines()
	if err != nil {
		return 0, false, err
	}
	return len(lines), true, nil
}

func (r *diskReader) Read(desc *activity.Descriptor, buf *activity.Buffer) error {
	lines, err := r.wholeDiskLines()
	if err != nil {
		return err
	}
	curr := buf.Curr()
	for i, fields := range lines {
		if i >= len(curr) {
			break
		}
		item := &curr[i]
		item.Name = fields[2]

		reads, _ := strconv.ParseUint(fields[3], 10, 64)
		sectorsRead, _ := strconv.ParseUint(fields[5], 10, 64)
		writes, _ := strconv.ParseUint(fields[7], 10, 64)
		sectorsWritten, _ := strconv.ParseUint(fields[9], 10, 64)
		iosInProgress, _ := strconv.ParseUint(fields[11], 10, 32)
		ioTime, _ := strconv.ParseUint(fields[12], 10, 32)
		weightedIOTime, _ := strconv.ParseUint(fields[13], 10, 32)

		item.U64[0] = reads
		item.U64[1] = sectorsRead
		item.U64[2] = writes
		item.U64[3] = sectorsWritten
		item.U32[0] = uint32(iosInProgress)
		item.U32[1] = uint32(ioTime)
		item.U32[2] = uint32(weightedIOTime)
	}
	return nil
}

// DeviceIdentity re-reads /proc/diskstats' major:minor for name, the
// composite key pkg/itemreg consults for rule 2 (disk renamed across a
// reboot keeps the same major:minor until the kernel reassigns it).
func (r *diskReader) DeviceIdentity() (map[string]string, error) {
	lines, err := r.wholeDiskLines()
	if err != nil {
		return nil, err
	}
	keys := make(map[string]string, len(lines))
	for _, fields := range lines {
		keys[fields[2]] = fields[0] + ":" + fields[1]
	}
	return keys, nil
}

func (r *diskReader) wholeDiskLines() ([][]string, error) {
	f, err := os.Open(r.diskstatsPath)
	if err != nil {
		return nil, errOpen(r.diskstatsPath, err)
	}
	defer f.Close()

	var lines [][]string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < diskstatsFieldCount {
			continue
		}
		if isPartition(fields[2]) {
			continue
		}
		lines = append(lines, fields)
	}
	return lines, scanner.Err()
}

// isPartition reports whether device looks like a partition rather than
// a whole disk: loop and device-mapper devices are always whole disks;
// NVMe/MMC devices use a "pN" suffix; everything else is a partition if
// it ends in a digit.
func isPartition(device string) bool {
	if device == "" {
		return false
	}
	if strings.HasPrefix(device, "loop") || strings.HasPrefix(device, "dm-") {
		return false
	}
	if strings.Contains(device, "nvme") || strings.Contains(device, "mmcblk") {
		idx := strings.LastIndex(device, "p")
		if idx <= 0 || idx >= len(device)-1 {
			return false
		}
		for _, ch := range device[idx+1:] {
			if ch < '0' || ch > '9' {
				return false
			}
		}
		return true
	}
	last := device[len(device)-1]
	return last >= '0' && last <= '9'
}
