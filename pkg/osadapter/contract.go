// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

// Package osadapter implements the sampler's ItemReader contract against
// the real Linux /proc and /sys filesystems: one reader per built-in
// activity, each responsible for counting this tick's items and filling
// an activity.Buffer's curr slots with the raw counters the rate engine
// later diffs.
package osadapter

import (
	"fmt"
	"time"

	"github.com/go-logr/logr"

	"github.com/sysstatgo/satop/pkg/activity"
	"github.com/sysstatgo/satop/pkg/osadapter/procutils"
)

// Paths collects the three host mount points every reader resolves its
// files against, set from --proc-path/--sys-path/--dev-path.
type Paths struct {
	Proc string
	Sys  string
	Dev  string
}

// Reader is the per-activity implementation of sampler.ItemReader:
// CountItems reports how many item slots this tick needs (so the
// scheduler can grow the buffer first), Read fills buf.Curr()'s first n
// slots with this tick's raw counters. Every concrete Reader below
// satisfies this exact shape, matching pkg/sampler.ItemReader structurally
// so the Set below can be passed straight into sampler.Options.Readers.
type Reader interface {
	CountItems(desc *activity.Descriptor) (int, bool, error)
	Read(desc *activity.Descriptor, buf *activity.Buffer) error
}

// Set maps each collectible activity.ID to the Reader that services it.
// A sampler built from a Set only needs the IDs present in the caller's
// enabled Registry; an ID with no Reader is simply never sampled.
type Set map[activity.ID]Reader

// New builds the full built-in Reader Set rooted at paths.
func New(paths Paths, logger logr.Logger) Set {
	return Set{
		activity.CPU:          newCPUReader(paths.Proc),
		activity.PCSW:         newPCSWReader(paths.Proc),
		activity.Interrupts:   newInterruptsReader(paths.Proc),
		activity.Memory:       newMemoryReader(paths.Proc),
		activity.Swap:         newSwapReader(paths.Proc),
		activity.Disk:         newDiskReader(paths.Proc),
		activity.Network:      newNetworkReader(paths.Proc),
		activity.NetworkSNMP:  newNetworkSNMPReader(paths.Proc),
		activity.Filesystem:   newFilesystemReader(paths.Proc),
		activity.FibreChannel: newFibreChannelReader(paths.Sys, logger),
		activity.Serial:       newSerialReader(paths.Proc),
		activity.Power:        newPowerReader(paths.Sys),
		activity.PSI:          newPSIReader(paths.Proc),
		activity.KernelLog:    newKernelLogReader(paths.Dev),
	}
}

// Facts wraps procutils.Facts behind the small surface the sampler and
// rate engine need: HZ, and a sampler.RebootDetector-shaped BootTime.
type Facts struct {
	f *procutils.Facts
}

// NewFacts returns the host-fact reader rooted at paths.Proc.
func NewFacts(paths Paths) *Facts {
	return &Facts{f: procutils.New(paths.Proc)}
}

// HZ returns USER_HZ.
func (fc *Facts) HZ() int64 { return fc.f.HZ() }

// RebootDetector satisfies sampler.RebootDetector, reporting the boot
// time procutils.Facts read on first use; that value is memoized, so it
// does not change for the life of the process.
func (fc *Facts) RebootDetector() (time.Time, error) {
	return fc.f.BootTime()
}

func errParse(path string, err error) error {
	return fmt.Errorf("osadapter: parse %s: %w", path, err)
}

func errOpen(path string, err error) error {
	return fmt.Errorf("osadapter: open %s: %w", path, err)
}
