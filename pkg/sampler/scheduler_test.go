// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package sampler

import (
	"bytes"
	"context"
	"encoding/binary"
	"testing"
	"time"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sysstatgo/satop/pkg/activity"
	"github.com/sysstatgo/satop/pkg/archive"
)

// fakeClock advances instantly on Sleep, letting tests run many ticks
// without real delay.
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	c.now = c.now.Add(d)
	return nil
}

type countingReader struct {
	reads int
}

func (r *countingReader) CountItems(desc *activity.Descriptor) (int, bool, error) {
	return 1, true, nil
}

func (r *countingReader) Read(desc *activity.Descriptor, buf *activity.Buffer) error {
	r.reads++
	buf.Curr()[0].Name = "cpu0"
	return nil
}

func newTestRegistry() *activity.Registry {
	r := activity.NewRegistry(activity.Descriptors())
	r.EnableGroup(activity.GDefault)
	return r
}

func TestSchedulerWritesInitialRestartThenStatsRecords(t *testing.T) {
	reg := newTestRegistry()
	cpuAct, err := reg.Get(activity.CPU)
	require.NoError(t, err)
	buf := activity.NewBuffer(cpuAct.Desc, 4, 0)

	var wireBuf bytes.Buffer
	w := archive.NewWriter(&wireBuf, binary.LittleEndian)
	reader := &countingReader{}

	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	sched, err := New(Options{
		Registry: reg,
		Readers:  map[activity.ID]ItemReader{activity.CPU: reader},
		Buffers:  map[activity.ID]*activity.Buffer{activity.CPU: buf},
		Writer:   w,
		Clock:    clock,
		Interval: time.Second,
		HZ:       100,
		CPUCount: 1,
		Logger:   logr.Discard(),
	})
	require.NoError(t, err)
	assert.Equal(t, StateRunningTick, sched.State())

	ctx, cancel := context.WithCancel(context.Background())
	tickCount := 0
	sched.opts.OnTick = func(time.Time) {
		tickCount++
		if tickCount == 3 {
			cancel()
		}
	}

	err = sched.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, reader.reads)
	require.NoError(t, w.Flush())

	r := archive.NewReader(&wireBuf, binary.LittleEndian)
	hdr, _, err := r.ReadRecord()
	require.NoError(t, err)
	assert.Equal(t, archive.KindRestart, hdr.Kind)

	for i := 0; i < 3; i++ {
		hdr, _, err := r.ReadRecord()
		require.NoError(t, err)
		assert.Equal(t, archive.KindStats, hdr.Kind)
	}
}

func TestSchedulerRequestRestartEmitsRestartRecord(t *testing.T) {
	reg := newTestRegistry()
	cpuAct, err := reg.Get(activity.CPU)
	require.NoError(t, err)
	buf := activity.NewBuffer(cpuAct.Desc, 4, 0)

	var wireBuf bytes.Buffer
	w := archive.NewWriter(&wireBuf, binary.LittleEndian)
	reader := &countingReader{}
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}

	sched, err := New(Options{
		Registry: reg,
		Readers:  map[activity.ID]ItemReader{activity.CPU: reader},
		Buffers:  map[activity.ID]*activity.Buffer{activity.CPU: buf},
		Writer:   w,
		Clock:    clock,
		Interval: time.Second,
		HZ:       100,
		CPUCount: 1,
		Logger:   logr.Discard(),
	})
	require.NoError(t, err)

	sched.RequestRestart()
	assert.True(t, sched.HupRequested())

	ctx, cancel := context.WithCancel(context.Background())
	sched.opts.OnTick = func(time.Time) { cancel() }
	require.NoError(t, sched.Run(ctx))
	assert.False(t, sched.HupRequested(), "restart flag should clear after being honored")

	require.NoError(t, w.Flush())
	r := archive.NewReader(&wireBuf, binary.LittleEndian)

	hdr, _, err := r.ReadRecord()
	require.NoError(t, err)
	assert.Equal(t, archive.KindRestart, hdr.Kind, "initial restart")

	hdr, _, err = r.ReadRecord()
	require.NoError(t, err)
	assert.Equal(t, archive.KindRestart, hdr.Kind, "SIGHUP-triggered restart precedes the next STATS")

	hdr, _, err = r.ReadRecord()
	require.NoError(t, err)
	assert.Equal(t, archive.KindStats, hdr.Kind)
}

func TestSchedulerInvokesOnRestartForInitialAndTriggeredRestarts(t *testing.T) {
	reg := newTestRegistry()
	cpuAct, err := reg.Get(activity.CPU)
	require.NoError(t, err)
	buf := activity.NewBuffer(cpuAct.Desc, 4, 0)

	var wireBuf bytes.Buffer
	w := archive.NewWriter(&wireBuf, binary.LittleEndian)
	reader := &countingReader{}
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}

	restarts := 0
	sched, err := New(Options{
		Registry:  reg,
		Readers:   map[activity.ID]ItemReader{activity.CPU: reader},
		Buffers:   map[activity.ID]*activity.Buffer{activity.CPU: buf},
		Writer:    w,
		Clock:     clock,
		Interval:  time.Second,
		HZ:        100,
		CPUCount:  1,
		Logger:    logr.Discard(),
		OnRestart: func() { restarts++ },
	})
	require.NoError(t, err)
	assert.Equal(t, 1, restarts, "New's initial restart record should fire OnRestart")

	sched.RequestRestart()

	ctx, cancel := context.WithCancel(context.Background())
	sched.opts.OnTick = func(time.Time) { cancel() }
	require.NoError(t, sched.Run(ctx))

	assert.Equal(t, 2, restarts, "the SIGHUP-triggered restart should fire OnRestart again")
}
