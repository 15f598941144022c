// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package osadapter

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sysstatgo/satop/pkg/activity"
)

// filesystemReader reads the kernel's small set of /proc/sys/fs table-
// utilization counters. Layout: U64[0..3] = dentunusd, file-nr, inode-nr,
// pty-nr.
type filesystemReader struct {
	dentryStatePath string
	fileNrPath      string
	inodeNrPath     string
	ptyNrPath       string
}

func newFilesystemReader(procPath string) *filesystemReader {
	return &filesystemReader{
		dentryStatePath: filepath.Join(procPath, "sys", "fs", "dentry-state"),
		fileNrPath:      filepath.Join(procPath, "sys", "fs", "file-nr"),
		inodeNrPath:     filepath.Join(procPath, "sys", "fs", "inode-nr"),
		ptyNrPath:       filepath.Join(procPath, "sys", "kernel", "pty", "nr"),
	}
}

func (r *filesystemReader) CountItems(desc *activity.Descriptor) (int, bool, error) {
	return 1, true, nil
}

func (r *filesystemReader) Read(desc *activity.Descriptor, buf *activity.Buffer) error {
	item := &buf.Curr()[0]
	item.Name = "system"

	item.U64[0] = firstField(r.dentryStatePath)
	item.U64[1] = firstField(r.fileNrPath)
	item.U64[2] = firstField(r.inodeNrPath)
	item.U64[3] = firstField(r.ptyNrPath)
	return nil
}

// firstField returns the first whitespace-delimited uint64 field of
// path's single line, or 0 if the file is absent or unparsable — several
// of these /proc/sys files only exist on kernels built with the
// corresponding feature.
func firstField(path string) uint64 {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0
	}
	fields := strings.Fields(string(data))
	if len(fields) == 0 {
		return 0
	}
	v, _ := strconv.ParseUint(fields[0], 10, 64)
	return v
}
