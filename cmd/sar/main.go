// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

// Command sar is the live reporter: it samples the enabled activities on
// every tick of --interval and renders each tick's rates to stdout as it
// goes, optionally tee-ing the same STATS/RESTART stream to an archive
// file via -o.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/sysstatgo/satop/pkg/activity"
	"github.com/sysstatgo/satop/pkg/archive"
	"github.com/sysstatgo/satop/pkg/config"
	"github.com/sysstatgo/satop/pkg/itemreg"
	"github.com/sysstatgo/satop/pkg/osadapter"
	"github.com/sysstatgo/satop/pkg/persist"
	"github.com/sysstatgo/satop/pkg/push"
	"github.com/sysstatgo/satop/pkg/rate"
	"github.com/sysstatgo/satop/pkg/render"
	"github.com/sysstatgo/satop/pkg/report"
	"github.com/sysstatgo/satop/pkg/sampler"
)

func main() {
	cfg := config.CollectionConfig{}
	fs := flag.NewFlagSet("sar", flag.ExitOnError)
	config.RegisterFlags(fs, &cfg)
	outPath := fs.String("o", "", "also write the sampled STATS/RESTART stream to this archive file")
	fs.Parse(os.Args[1:])

	logger := config.NewLogger(cfg.Debug)

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
				fmt.Fprintf(os.Stderr, "sar: unknown activity %q (available: %s)\n", name, strings.Join(reg.Names(), ", "))
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

	var archFile *os.File
	var writer *archive.Writer
	order := archive.HostEndian()
	cpuCount := uint32(runtime.NumCPU())
	hz := uint32(facts.HZ())

	buffers := make(map[activity.ID]*activity.Buffer, len(reg.All()))
	table := make([]archive.ActivityTableEntry, 0, len(reg.All()))
	for _, act := range reg.All() {
		initCap := 16
		if act.Desc.ID == activity.CPU {
			initCap = int(cpuCount) + 1
		}
		buffers[act.Desc.ID] = activity.NewBuffer(act.Desc, initCap, 0)
		table = append(table, archive.ActivityTableEntry{
			ID:    act.Desc.ID,
			Magic: act.Desc.Magic,
			FSize: uint32(act.Desc.Layout.Size()),
		})
	}

	if *outPath != "" {
		archFile, err = os.Create(*outPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "sar: %v\n", err)
			os.Exit(1)
		}
		defer archFile.Close()

		hostname, _ := os.Hostname()
		if err := archive.WriteFileHeader(archFile, archive.FileHeader{
			Version:  archive.FormatVersion,
			Endian:   order,
			HZ:       hz,
			CPUCount: cpuCount,
			Hostname: hostname,
		}, table); err != nil {
			fmt.Fprintf(os.Stderr, "sar: write file header: %v\n", err)
			os.Exit(1)
		}
		writer = archive.NewWriter(archFile, order.ByteOrder())
	} else {
		writer = archive.NewWriter(io.Discard, order.ByteOrder())
	}

	itemReaders := make(map[activity.ID]sampler.ItemReader, len(readers))
	for id, r := range readers {
		itemReaders[id] = r
	}

	var cache *persist.Cache
	if cfg.PersistNamePath != "" {
		cache, err = persist.Open(cfg.PersistNamePath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "sar: open persist cache: %v\n", err)
			os.Exit(1)
		}
		defer cache.Close()
	}
	var persisted itemreg.PersistedLookup
	if cache != nil {
		persisted = cache
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dialect, err := render.ParseDialect(cfg.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sar: %v\n", err)
		os.Exit(2)
	}

	var pushClient *push.Client
	if dialect == render.Push {
		if cfg.PushURL == "" {
			fmt.Fprintln(os.Stderr, "sar: -format push requires -push-url")
			os.Exit(2)
		}
		pushClient, err = push.New(push.NewHTTPTransport(cfg.PushURL), push.WithLogger(logger))
		if err != nil {
			fmt.Fprintf(os.Stderr, "sar: %v\n", err)
			os.Exit(1)
		}
		go pushClient.Run(ctx)
	}
	svgSink := render.WireHooks(reg, pushClient)

	eng := report.New(reg, persisted, cfg.ZeroOmit, cfg.MinMax, dialect)
	out := bufio.NewWriter(os.Stdout)
	defer out.Flush()

	// prev holds the last rendered tick's snapshot, deep-copied out of
	// the scheduler's buffers since Buffer.Swap reuses and zeroes the
	// same backing arrays on the very next tick (see Buffer.Swap).
	prev := make(map[activity.ID]archive.ActivitySnapshot)
	var prevTime time.Time
	ticks := 0

	onTick := func(ts time.Time) {
		curr := make(map[activity.ID]archive.ActivitySnapshot, len(reg.Collected()))
		for _, act := range reg.Collected() {
			buf, ok := buffers[act.Desc.ID]
			if !ok {
				continue
			}
			// Swap already ran for this tick by the time OnTick fires, so
			// the sample just taken now lives in Prev(), not Curr().
			n := act.Counts.Curr
			items := buf.Prev()
			if n > len(items) {
				n = len(items)
			}
			curr[act.Desc.ID] = archive.ActivitySnapshot{ID: act.Desc.ID, Items: cloneItems(items[:n])}
		}

		elapsed := cfg.Interval.Seconds()
		if !prevTime.IsZero() {
			elapsed = ts.Sub(prevTime).Seconds()
		}
		if elapsed <= 0 {
			elapsed = cfg.Interval.Seconds()
		}

		if err := eng.RenderTick(out, ts.Format("15:04:05"), ts.Unix(), elapsed, curr, prev); err != nil {
			logger.Error(err, "render tick failed")
		}
		out.Flush()

		prev = curr
		prevTime = ts

		ticks++
		if cfg.Count > 0 && ticks >= cfg.Count {
			stop()
		}
	}

	sched, err := sampler.New(sampler.Options{
		Registry:  reg,
		Readers:   itemReaders,
		Buffers:   buffers,
		Writer:    writer,
		Order:     order.ByteOrder(),
		Clock:     sampler.RealClock{},
		Interval:  cfg.Interval,
		HZ:        hz,
		CPUCount:  cpuCount,
		BootTime:  bootTime,
		Reboot:    facts.RebootDetector,
		Logger:    logger,
		OnTick:    onTick,
		OnRestart: eng.HandleRestart,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "sar: %v\n", err)
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
		fmt.Fprintf(os.Stderr, "sar: %v\n", err)
		os.Exit(1)
	}

	if dialect == render.SVG {
		if err := svgSink.Flush(out, true, true); err != nil {
			fmt.Fprintf(os.Stderr, "sar: write svg document: %v\n", err)
			os.Exit(1)
		}
		out.Flush()
	}

	if cfg.MinMax {
		for _, act := range reg.Collected() {
			store := eng.Extrema(act.Desc.ID)
			for _, key := range store.Keys() {
				ex := store.Get(key)
				if !ex.Valid() {
					continue
				}
				fmt.Fprintf(out, "%s %s %s\n", act.Desc.ID, key, rate.Format(ex, "no data"))
			}
		}
		out.Flush()
	}
}

func cloneItems(items []activity.Item) []activity.Item {
	out := make([]activity.Item, len(items))
	for i, it := range items {
		out[i] = activity.Item{Name: it.Name}
		if it.U64 != nil {
			out[i].U64 = append([]uint64(nil), it.U64...)
		}
		if it.U32 != nil {
			out[i].U32 = append([]uint32(nil), it.U32...)
		}
		if it.U != nil {
			out[i].U = append([]uint32(nil), it.U...)
		}
	}
	return out
}
