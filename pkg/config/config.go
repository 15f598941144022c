// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

// Package config parses the command-line flags shared by the sadc, sar
// and sadf binaries and builds the logr.Logger every other package is
// handed.
package config

import (
	"flag"
	"time"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
)

// CollectionConfig describes one invocation's sampling and I/O
// parameters, independent of which binary (sadc/sar/sadf) is driving it.
type CollectionConfig struct {
	// Select is the raw --select argument (e.g. "cpu,disk,network");
	// empty enables the default activity group only.
	Select string
	// Interval between ticks.
	Interval time.Duration
	// Count caps the number of ticks taken; 0 means unbounded.
	Count int
	// From/To bound replay (sadf) to a timestamp window; zero value
	// means unbounded on that side.
	From, To time.Time
	// UTC renders timestamps in UTC instead of local time.
	UTC bool
	// Pretty is set by --pretty; no binary reads it, and the output
	// dialect is chosen by Format alone.
	Pretty bool
	// PersistNamePath, if non-empty, enables the durable device-name
	// cache (pkg/persist) at this path; empty disables it.
	PersistNamePath string
	// Debug enables verbose (zap development) logging.
	Debug bool
	// ZeroOmit skips emitting rows that are entirely zero.
	ZeroOmit bool
	// MinMax enables the extrema (min/max) summary line per series.
	MinMax bool
	// Format selects the output dialect: "column" (default), "svg",
	// "raw", or "push" (see render.ParseDialect).
	Format string
	// PushURL is the HTTP sink the push dialect posts batches to;
	// required when Format is "push".
	PushURL string

	ProcPath string
	SysPath  string
	DevPath  string
}

// RegisterFlags binds CollectionConfig's fields onto fs so each binary
// can add its own flags alongside the shared set before calling
// fs.Parse.
func RegisterFlags(fs *flag.FlagSet, cfg *CollectionConfig) {
	fs.StringVar(&cfg.Select, "select", "", "comma-separated activities to collect, e.g. \"cpu,disk\" (default: the default activity group)")
	fs.DurationVar(&cfg.Interval, "interval", time.Second, "sampling interval")
	fs.IntVar(&cfg.Count, "count", 0, "number of samples to take (0 = unbounded)")
	fs.BoolVar(&cfg.UTC, "utc", false, "render timestamps in UTC")
	fs.BoolVar(&cfg.Pretty, "pretty", false, "has no effect on output; -format selects the dialect")
	fs.StringVar(&cfg.PersistNamePath, "persist-name", "", "path to a durable device-name cache (empty disables persistence)")
	fs.BoolVar(&cfg.Debug, "debug", false, "enable verbose logging")
	fs.BoolVar(&cfg.ZeroOmit, "zero-omit", false, "omit rows whose values are all zero")
	fs.BoolVar(&cfg.MinMax, "minmax", false, "print a min/max summary line per series")
	fs.StringVar(&cfg.Format, "format", "column", "output dialect: column, svg, raw, or push")
	fs.StringVar(&cfg.PushURL, "push-url", "", "HTTP sink the push dialect posts metric batches to (required when -format=push)")

	fs.StringVar(&cfg.ProcPath, "proc-path", "/proc", "path to the procfs mount")
	fs.StringVar(&cfg.SysPath, "sys-path", "/sys", "path to the sysfs mount")
	fs.StringVar(&cfg.DevPath, "dev-path", "/dev", "path to the dev tree")

	fs.Func("from", "only render samples at or after this RFC3339 timestamp", func(s string) error {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return err
		}
		cfg.From = t
		return nil
	})
	fs.Func("to", "only render samples at or before this RFC3339 timestamp", func(s string) error {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return err
		}
		cfg.To = t
		return nil
	})
}

// NewLogger builds a logr.Logger backed by zap, verbose when debug is
// set and otherwise quiet — mirroring the teacher's own choice of a zap
// development logger under a verbose flag and logr.Discard() otherwise.
func NewLogger(debug bool) logr.Logger {
	if !debug {
		return logr.Discard()
	}
	zapLog, err := zap.NewDevelopment()
	if err != nil {
		return logr.Discard()
	}
	return zapr.NewLogger(zapLog)
}
