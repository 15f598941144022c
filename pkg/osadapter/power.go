// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package osadapter

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sysstatgo/satop/pkg/activity"
)

// powerReader reads each CPU's current frequency from
// /sys/devices/system/cpu/cpuN/cpufreq/scaling_cur_freq (kHz), one item
// per detected CPU. Layout: U32[0] = frequency in MHz.
type powerReader struct {
	cpuDir string
}

func newPowerReader(sysPath string) *powerReader {
	return &powerReader{cpuDir: filepath.Join(sysPath, "devices", "system", "cpu")}
}

func (r *powerReader) cpus() ([]string, error) {
	entries, err := os.ReadDir(r.cpuDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errOpen(r.cpuDir, err)
	}
	var cpus []string
	for _, e := range entries {
		name := e.Name()
		if strings.HasPrefix(name, "cpu") && len(name) > 3 {
			if _, err := os.Stat(filepath.Join(r.cpuDir, name, "cpufreq", "scaling_cur_freq")); err == nil {
				cpus = append(cpus, name)
			}
		}
	}
	sort.Strings(cpus)
	return cpus, nil
}

func (r *powerReader) CountItems(desc *activity.Descriptor) (int, bool, error) {
	cpus, err := r.cpus()
	if err != nil {
		return 0, false, err
	}
	if len(cpus) == 0 {
		return 0, false, nil
	}
	return len(cpus), true, nil
}

func (r *powerReader) Read(desc *activity.Descriptor, buf *activity.Buffer) error {
	cpus, err := r.cpus()
	if err != nil {
		return err
	}
	curr := buf.Curr()
	for i, cpu := range cpus {
		if i >= len(curr) {
			break
		}
		item := &curr[i]
		item.Name = cpu
		khz := firstField(filepath.Join(r.cpuDir, cpu, "cpufreq", "scaling_cur_freq"))
		item.U32[0] = uint32(khz / 1000)
	}
	return nil
}
