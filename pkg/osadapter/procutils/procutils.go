// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

// Package procutils reads the small set of host-wide facts (boot time,
// USER_HZ, page size) the rate engine and the sampling scheduler need
// once per process lifetime, rather than once per tick.
package procutils

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Facts caches the host facts that never change for the life of the
// process: boot time, USER_HZ, and page size. Each is read lazily and
// memoized with sync.Once, since a failed read (missing auxv, e.g. under
// an unusual container runtime) falls back to a standard default rather
// than erroring the whole collection run.
type Facts struct {
	procPath string

	bootTime     time.Time
	bootTimeOnce sync.Once
	bootTimeErr  error

	hz     int64
	hzOnce sync.Once

	pageSize     int64
	pageSizeOnce sync.Once
}

// New returns a Facts reader rooted at procPath (typically "/proc", or
// --proc-path's value).
func New(procPath string) *Facts {
	return &Facts{procPath: procPath}
}

// BootTime returns the system boot time read from /proc/stat's "btime"
// line, memoized after the first read (a failed read's error included).
func (f *Facts) BootTime() (time.Time, error) {
	f.bootTimeOnce.Do(func() {
		f.bootTime, f.bootTimeErr = f.readBootTime()
	})
	return f.bootTime, f.bootTimeErr
}

func (f *Facts) readBootTime() (time.Time, error) {
	statPath := filepath.Join(f.procPath, "stat")
	data, err := os.ReadFile(statPath)
	if err != nil {
		return time.Time{}, fmt.Errorf("procutils: read %s: %w", statPath, err)
	}
	for _, line := range strings.Split(string(data), "\n") {
		if !strings.HasPrefix(line, "btime ") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			break
		}
		btime, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			return time.Time{}, fmt.Errorf("procutils: parse btime: %w", err)
		}
		return time.Unix(btime, 0), nil
	}
	return time.Time{}, fmt.Errorf("procutils: btime not found in %s", statPath)
}

// HZ returns USER_HZ, the kernel tick rate the rate engine divides
// jiffy deltas by, read from /proc/self/auxv's AT_CLKTCK entry and
// falling back to the near-universal default of 100 when auxv is
// unavailable.
func (f *Facts) HZ() int64 {
	f.hzOnce.Do(func() {
		f.hz = f.readAuxvOrDefault(atClktck, 100)
	})
	return f.hz
}

// PageSize returns the system page size in bytes, read from
// /proc/self/auxv's AT_PAGESZ entry, falling back to 4096.
func (f *Facts) PageSize() int64 {
	f.pageSizeOnce.Do(func() {
		f.pageSize = f.readAuxvOrDefault(atPagesz, 4096)
	})
	return f.pageSize
}

const (
	atPagesz = 6  // AT_PAGESZ, from <asm/auxvec.h>
	atClktck = 17 // AT_CLKTCK, from <asm/auxvec.h>
)

// readAuxvOrDefault scans /proc/self/auxv's 8-byte key/value pairs for
// key, returning fallback if it isn't present or the file can't be read.
func (f *Facts) readAuxvOrDefault(key uint64, fallback int64) int64 {
	data, err := os.ReadFile(filepath.Join(f.procPath, "self", "auxv"))
	if err != nil {
		return fallback
	}
	for i := 0; i+16 <= len(data); i += 16 {
		k := binary.LittleEndian.Uint64(data[i : i+8])
		v := binary.LittleEndian.Uint64(data[i+8 : i+16])
		if k == key {
			return int64(v)
		}
		if k == 0 { // AT_NULL
			break
		}
	}
	return fallback
}
