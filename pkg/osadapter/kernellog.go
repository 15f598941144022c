// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package osadapter

import (
	"bufio"
	"errors"
	"io"
	"os"
	"path/filepath"
	"syscall"

	"github.com/sysstatgo/satop/pkg/activity"
)

// kernelLogReader counts kernel log records emitted since the last tick
// by keeping a single open, non-blocking handle on /dev/kmsg: each read
// off that handle only ever returns records produced after the point the
// handle was opened (or last read), so counting records seen since the
// previous call is exactly "new records this tick". Layout: U64[0] =
// record count this tick.
type kernelLogReader struct {
	kmsgPath string
	f        *os.File
	opened   bool
}

func newKernelLogReader(devPath string) *kernelLogReader {
	return &kernelLogReader{kmsgPath: filepath.Join(devPath, "kmsg")}
}

func (r *kernelLogReader) ensureOpen() error {
	if r.opened {
		return nil
	}
	f, err := os.OpenFile(r.kmsgPath, os.O_RDONLY|syscall.O_NONBLOCK, 0)
	if err != nil {
		r.opened = true // don't retry every tick on a permanently-absent file
		return err
	}
	r.f = f
	r.opened = true
	return nil
}

func (r *kernelLogReader) drain() (int, error) {
	if err := r.ensureOpen(); err != nil || r.f == nil {
		return 0, err
	}
	count := 0
	reader := bufio.NewReader(r.f)
	for {
		_, err := reader.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, syscall.EAGAIN) {
				break
			}
			return count, err
		}
		count++
	}
	return count, nil
}

func (r *kernelLogReader) CountItems(desc *activity.Descriptor) (int, bool, error) {
	if err := r.ensureOpen(); err != nil || r.f == nil {
		return 0, false, nil
	}
	return 1, true, nil
}

func (r *kernelLogReader) Read(desc *activity.Descriptor, buf *activity.Buffer) error {
	n, err := r.drain()
	if err != nil {
		return err
	}
	item := &buf.Curr()[0]
	item.Name = "kernel"
	item.U64[0] = uint64(n)
	return nil
}
