// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

// Command sadf replays an archive file written by sadc: it decodes each
// STATS/RESTART/COMMENT record in turn and renders every STATS tick
// against the one before it, the same rate computation a live reporter
// would perform, just fed from disk instead of from a running sampler.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/sysstatgo/satop/pkg/activity"
	"github.com/sysstatgo/satop/pkg/archive"
	"github.com/sysstatgo/satop/pkg/config"
	"github.com/sysstatgo/satop/pkg/itemreg"
	"github.com/sysstatgo/satop/pkg/persist"
	"github.com/sysstatgo/satop/pkg/push"
	"github.com/sysstatgo/satop/pkg/rate"
	"github.com/sysstatgo/satop/pkg/render"
	"github.com/sysstatgo/satop/pkg/report"
)

func main() {
	cfg := config.CollectionConfig{}
	fs := flag.NewFlagSet("sadf", flag.ExitOnError)
	config.RegisterFlags(fs, &cfg)
	fs.Parse(os.Args[1:])

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "sadf: archive file argument is required")
		os.Exit(2)
	}

	logger := config.NewLogger(cfg.Debug)

	f, err := os.Open(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "sadf: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	hdr, table, err := archive.ReadFileHeader(f, archive.HostEndian(), true)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sadf: read file header: %v\n", err)
		os.Exit(1)
	}
	order := hdr.Endian.ByteOrder()

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
				fmt.Fprintf(os.Stderr, "sadf: unknown activity %q (available: %s)\n", name, strings.Join(reg.Names(), ", "))
				os.Exit(2)
			}
		}
	}

	layouts := make(map[activity.ID]activity.FieldWidth, len(table))
	sizes := make(map[activity.ID]int, len(table))
	for _, entry := range table {
		sizes[entry.ID] = int(entry.FSize)

		act, err := reg.Get(entry.ID)
		if err != nil {
			logger.Info("archive references unknown activity, skipping its records", "id", entry.ID)
			continue
		}
		if entry.Magic != act.Desc.Magic {
			fmt.Fprintf(os.Stderr, "sadf: %s: archive magic %d does not match this build's magic %d; skipping\n", entry.ID, entry.Magic, act.Desc.Magic)
			continue
		}
		layouts[entry.ID] = act.Desc.Layout
	}

	var cache *persist.Cache
	if cfg.PersistNamePath != "" {
		cache, err = persist.Open(cfg.PersistNamePath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "sadf: open persist cache: %v\n", err)
			os.Exit(1)
		}
		defer cache.Close()
	}
	var persisted itemreg.PersistedLookup
	if cache != nil {
		persisted = cache
	}

	dialect, err := render.ParseDialect(cfg.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sadf: %v\n", err)
		os.Exit(2)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var pushClient *push.Client
	if dialect == render.Push {
		if cfg.PushURL == "" {
			fmt.Fprintln(os.Stderr, "sadf: -format push requires -push-url")
			os.Exit(2)
		}
		pushClient, err = push.New(push.NewHTTPTransport(cfg.PushURL), push.WithLogger(logger))
		if err != nil {
			fmt.Fprintf(os.Stderr, "sadf: %v\n", err)
			os.Exit(1)
		}
		go pushClient.Run(ctx)
	}
	svgSink := render.WireHooks(reg, pushClient)

	eng := report.New(reg, persisted, cfg.ZeroOmit, cfg.MinMax, dialect)
	out := bufio.NewWriter(os.Stdout)
	defer out.Flush()

	reader := archive.NewReader(f, order)
	prev := make(map[activity.ID]archive.ActivitySnapshot)
	var prevTime time.Time

	for {
		rhdr, payload, err := reader.ReadRecord()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			fmt.Fprintf(os.Stderr, "sadf: read record: %v\n", err)
			os.Exit(1)
		}

		ts := time.Unix(rhdr.Timestamp, 0)
		if cfg.UTC {
			ts = ts.UTC()
		} else {
			ts = ts.Local()
		}

		switch rhdr.Kind {
		case archive.KindRestart:
			prev = make(map[activity.ID]archive.ActivitySnapshot)
			prevTime = time.Time{}
			eng.HandleRestart()

		case archive.KindComment:
			// COMMENT records carry no sample data to render.

		case archive.KindStats:
			if !inWindow(ts, cfg.From, cfg.To) {
				continue
			}
			snapshots, err := archive.DecodeStats(order, payload, layouts, sizes)
			if err != nil {
				fmt.Fprintf(os.Stderr, "sadf: decode STATS record %d: %v\n", rhdr.Index, err)
				os.Exit(1)
			}

			curr := make(map[activity.ID]archive.ActivitySnapshot, len(snapshots))
			for _, s := range snapshots {
				curr[s.ID] = s
			}

			elapsed := 1.0
			if !prevTime.IsZero() {
				elapsed = ts.Sub(prevTime).Seconds()
				if elapsed <= 0 {
					elapsed = 1.0
				}
			}

			if err := eng.RenderTick(out, ts.Format("15:04:05"), rhdr.Timestamp, elapsed, curr, prev); err != nil {
				fmt.Fprintf(os.Stderr, "sadf: %v\n", err)
				os.Exit(1)
			}

			prev = curr
			prevTime = ts
		}
	}

	if dialect == render.SVG {
		if err := svgSink.Flush(out, true, true); err != nil {
			fmt.Fprintf(os.Stderr, "sadf: write svg document: %v\n", err)
			os.Exit(1)
		}
	}

	if cfg.MinMax {
		printExtrema(out, reg, eng)
	}
}

func inWindow(ts, from, to time.Time) bool {
	if !from.IsZero() && ts.Before(from) {
		return false
	}
	if !to.IsZero() && ts.After(to) {
		return false
	}
	return true
}

func printExtrema(out io.Writer, reg *activity.Registry, eng *report.Engine) {
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
}
