// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

// Command sadc is the collector: it samples the enabled activities on
// every tick of --interval and appends STATS/RESTART records to an
// archive file, until --count samples have been written or it is
// interrupted.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sys/unix"

	"github.com/sysstatgo/satop/pkg/activity"
	"github.com/sysstatgo/satop/pkg/archive"
	"github.com/sysstatgo/satop/pkg/config"
	"github.com/sysstatgo/satop/pkg/osadapter"
	"github.com/sysstatgo/satop/pkg/sampler"
)

func main() {
	cfg := config.CollectionConfig{}
	fs := flag.NewFlagSet("sadc", flag.ExitOnError)
	config.RegisterFlags(fs, &cfg)
	outPath := fs.String("o", "", "archive output file (required)")
	fs.Parse(os.Args[1:])

	logger := config.NewLogger(cfg.Debug)

	if *outPath == "" {
		fmt.Fprintln(os.Stderr, "sadc: -o output path is required")
		os.Exit(2)
	}

	reg := activity.NewRegistry(activity.Descriptors())
	if cfg.Select == "" {
		reg.EnableGroup(activity.GDefault)
	} else {
		reg.DisableAll()
		for _, name := range strings.Split(cfg.Select, ",") {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			if err := reg.EnableByName(name); err != nil {
				fmt.Fprintf(os.Stderr, "sadc: unknown activity %q (available: %s)\n", name, strings.Join(reg.Names(), ", "))
				os.Exit(2)
			}
		}
	}

	paths := osadapter.Paths{Proc: cfg.ProcPath, Sys: cfg.SysPath, Dev: cfg.DevPath}
	readers := osadapter.New(paths, logger)
	facts := osadapter.NewFacts(paths)

	bootTime, err := facts.RebootDetector()
	if err != nil {
		logger.Error(err, "unable to read boot time; reboot detection disabled")
	}

	f, err := os.Create(*outPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sadc: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	order := archive.HostEndian()
	cpuCount := uint32(runtime.NumCPU())
	hz := uint32(facts.HZ())

	table := make([]archive.ActivityTableEntry, 0, len(reg.All()))
	buffers := make(map[activity.ID]*activity.Buffer, len(reg.All()))
	for _, act := range reg.All() {
		initCap := 16
		if act.Desc.ID == activity.CPU {
			initCap = int(cpuCount) + 1
		}
		buf := activity.NewBuffer(act.Desc, initCap, 0)
		buffers[act.Desc.ID] = buf
		table = append(table, archive.ActivityTableEntry{
			ID:    act.Desc.ID,
			Magic: act.Desc.Magic,
			FSize: uint32(act.Desc.Layout.Size()),
		})
	}

	hostname, _ := os.Hostname()
	if err := archive.WriteFileHeader(f, archive.FileHeader{
		Version:  archive.FormatVersion,
		Endian:   order,
		HZ:       hz,
		CPUCount: cpuCount,
		Hostname: hostname,
		Release:  kernelRelease(),
	}, table); err != nil {
		fmt.Fprintf(os.Stderr, "sadc: write file header: %v\n", err)
		os.Exit(1)
	}

	writer := archive.NewWriter(f, order.ByteOrder())

	itemReaders := make(map[activity.ID]sampler.ItemReader, len(readers))
	for id, r := range readers {
		itemReaders[id] = r
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ticks := 0
	var onTick func(time.Time)
	if cfg.Count > 0 {
		onTick = func(time.Time) {
			ticks++
			if ticks >= cfg.Count {
				stop()
			}
		}
	}

	sched, err := sampler.New(sampler.Options{
		Registry: reg,
		Readers:  itemReaders,
		Buffers:  buffers,
		Writer:   writer,
		Order:    order.ByteOrder(),
		Clock:    sampler.RealClock{},
		Interval: cfg.Interval,
		HZ:       hz,
		CPUCount: cpuCount,
		BootTime: bootTime,
		Reboot:   facts.RebootDetector,
		Logger:   logger,
		OnTick:   onTick,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "sadc: %v\n", err)
		os.Exit(1)
	}

	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	go func() {
		for range hup {
			sched.RequestRestart()
		}
	}()

	if err := sched.Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "sadc: %v\n", err)
		os.Exit(1)
	}
}

func kernelRelease() string {
	var uts unix.Utsname
	if err := unix.Uname(&uts); err != nil {
		return runtime.GOOS
	}
	return cstring(uts.Release[:])
}

func cstring(b []byte) string {
	n := 0
	for n < len(b) && b[n] != 0 {
		n++
	}
	return string(b[:n])
}
