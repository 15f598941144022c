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

// memoryReader reads /proc/meminfo's "Field:  value kB" lines into one
// whole-system item. Layout: U64[0..8] = MemFree, MemAvailable,
// MemTotal, Buffers, Cached, Committed_AS, Active, Inactive, Dirty;
// U32[0..5] = Shmem, Slab, SwapTotal, SwapFree, Mapped, KReclaimable.
type memoryReader struct {
	meminfoPath string
}

func newMemoryReader(procPath string) *memoryReader {
	return &memoryReader{meminfoPath: filepath.Join(procPath, "meminfo")}
}

var memU64Fields = []string{
	"MemFree", "MemAvailable", "MemTotal", "Buffers", "Cached",
	"Committed_AS", "Active", "Inactive", "Dirty",
}

var memU32Fields = []string{
	"Shmem", "Slab", "SwapTotal", "SwapFree", "Mapped", "KReclaimable",
}

func (r *memoryReader) CountItems(desc *activity.Descriptor) (int, bool, error) {
	return 1, true, nil
}

func (r *memoryReader) Read(desc *activity.Descriptor, buf *activity.Buffer) error {
	values, err := readMeminfo(r.meminfoPath)
	if err != nil {
		return err
	}
	item := &buf.Curr()[0]
	item.Name = "system"
	for i, name := range memU64Fields {
		item.U64[i] = values[name]
	}
	for i, name := range memU32Fields {
		item.U32[i] = uint32(values[name])
	}
	return nil
}

// readMeminfo parses /proc/meminfo into a field-name -> kB value map.
func readMeminfo(path string) (map[string]uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errOpen(path, err)
	}
	defer f.Close()

	values := make(map[string]uint64)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		colon := strings.IndexByte(line, ':')
		if colon < 0 {
			continue
		}
		name := line[:colon]
		fields := strings.Fields(line[colon+1:])
		if len(fields) == 0 {
			continue
		}
		v, err := strconv.ParseUint(fields[0], 10, 64)
		if err != nil {
			continue
		}
		values[name] = v
	}
	return values, scanner.Err()
}
