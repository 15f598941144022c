// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package osadapter

import (
	"os"
	"path/filepath"

	"github.com/go-logr/logr"

	"github.com/sysstatgo/satop/pkg/activity"
)

// fibreChannelReader reads per-host frame/word counters from
// /sys/class/fc_host/hostN/statistics, the Detected activity that is
// only enabled when that sysfs tree exists (most hosts have no FC HBA).
// Layout: U64[0..3] = rx_frames, tx_frames, rx_words, tx_words.
type fibreChannelReader struct {
	fcHostDir string
	logger    logr.Logger
}

func newFibreChannelReader(sysPath string, logger logr.Logger) *fibreChannelReader {
	return &fibreChannelReader{fcHostDir: filepath.Join(sysPath, "class", "fc_host"), logger: logger}
}

func (r *fibreChannelReader) hosts() ([]string, error) {
	entries, err := os.ReadDir(r.fcHostDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errOpen(r.fcHostDir, err)
	}
	hosts := make([]string, 0, len(entries))
	for _, e := range entries {
		hosts = append(hosts, e.Name())
	}
	return hosts, nil
}

func (r *fibreChannelReader) CountItems(desc *activity.Descriptor) (int, bool, error) {
	hosts, err := r.hosts()
	if err != nil {
		return 0, false, err
	}
	if len(hosts) == 0 {
		return 0, false, nil
	}
	return len(hosts), true, nil
}

func (r *fibreChannelReader) Read(desc *activity.Descriptor, buf *activity.Buffer) error {
	hosts, err := r.hosts()
	if err != nil {
		return err
	}
	curr := buf.Curr()
	for i, host := range hosts {
		if i >= len(curr) {
			break
		}
		item := &curr[i]
		item.Name = host
		statDir := filepath.Join(r.fcHostDir, host, "statistics")
		item.U64[0] = firstField(filepath.Join(statDir, "rx_frames"))
		item.U64[1] = firstField(filepath.Join(statDir, "tx_frames"))
		item.U64[2] = firstField(filepath.Join(statDir, "rx_words"))
		item.U64[3] = firstField(filepath.Join(statDir, "tx_words"))
	}
	return nil
}
