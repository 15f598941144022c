// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

// Package sampler runs the collector's single-threaded cooperative tick
// loop: sleep until the next deadline, read every enabled activity,
// write a STATS record, and roll the item buffers forward.
package sampler

import (
	"context"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/go-logr/logr"

	"github.com/sysstatgo/satop/pkg/activity"
	"github.com/sysstatgo/satop/pkg/archive"
	serrors "github.com/sysstatgo/satop/pkg/errors"
)

// State names the scheduler's current phase, exposed for logging and
// tests rather than as a type other packages branch on.
type State int

const (
	StateInit State = iota
	StateRunningTick
	StateWrite
	StateEnd
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateRunningTick:
		return "running_tick"
	case StateWrite:
		return "write"
	case StateEnd:
		return "end"
	default:
		return "unknown"
	}
}

// Clock abstracts the monotonic timing the scheduler sleeps against, so
// tests can drive ticks without real wall-clock delays.
type Clock interface {
	Now() time.Time
	Sleep(ctx context.Context, d time.Duration) error
}

// ItemReader is the OS-adapter boundary: for one activity, fill its curr
// buffer with this tick's sample. Implementations must not allocate per
// call; pkg/osadapter provides the reference Linux implementations.
type ItemReader interface {
	CountItems(desc *activity.Descriptor) (int, bool, error)
	Read(desc *activity.Descriptor, buf *activity.Buffer) error
}

// ErrAdapterFailure wraps an ItemReader error that the sampler treats as
// "skip this activity's reading for this tick" rather than fatal,
// distinguished from other failures via errors.Retryable.
var ErrAdapterFailure = serrors.NewRetryable("sampler: adapter read failed")

// RebootDetector reports the system's current boot time so the scheduler
// can detect a reboot between ticks (btime mismatch) and emit a RESTART.
type RebootDetector func() (time.Time, error)

// Options configures a Scheduler.
type Options struct {
	Registry  *activity.Registry
	Readers   map[activity.ID]ItemReader
	Buffers   map[activity.ID]*activity.Buffer
	Writer    *archive.Writer
	// Order must match the byte order the Writer's owning file header
	// declares, since STATS payloads are encoded with it directly.
	Order binary.ByteOrder
	Clock Clock
	Interval  time.Duration
	HZ        uint32
	CPUCount  uint32
	BootTime  time.Time
	Reboot    RebootDetector
	Logger    logr.Logger
	// OnTick, if set, is called after every completed tick with the
	// tick's timestamp; used by tests and by the reporter side's
	// in-process "tail -f" mode.
	OnTick func(ts time.Time)
	// OnRestart, if set, is called whenever a RESTART record is written
	// (the initial one New emits, a reboot detected between ticks, or a
	// SIGHUP-requested one), so a co-located reporter can reset its
	// per-activity item registries and extrema in lockstep with the
	// boundary it is itself writing.
	OnRestart func()
}

// Scheduler runs the Init -> RunningTick -> (Write|End) loop described
// for the collector process. One Scheduler instance corresponds to one
// archive file; date rollover closes it and the caller constructs a new
// Scheduler for the next file with a fresh Writer.
type Scheduler struct {
	opts         Options
	state        State
	bootTime     time.Time
	hupRequested bool
}

// New constructs a Scheduler. The caller must have already written the
// file header (magic + FileHeader + activity table) to the stream
// backing opts.Writer; New itself writes the initial RESTART record that
// establishes the file's starting CPU count and HZ.
func New(opts Options) (*Scheduler, error) {
	if opts.Registry == nil || opts.Writer == nil || opts.Clock == nil {
		return nil, serrors.New("sampler: Registry, Writer, and Clock are required")
	}
	s := &Scheduler{opts: opts, state: StateInit, bootTime: opts.BootTime}
	if _, err := opts.Writer.WriteRestart(opts.Clock.Now().Unix(), archive.RestartPayload{
		CPUCount: opts.CPUCount,
		HZ:       opts.HZ,
	}); err != nil {
		return nil, fmt.Errorf("sampler: write initial restart: %w", err)
	}
	if opts.OnRestart != nil {
		opts.OnRestart()
	}
	s.state = StateRunningTick
	return s, nil
}

// State reports the scheduler's current phase.
func (s *Scheduler) State() State { return s.state }

// HupRequested reports whether a SIGHUP-triggered RESTART is pending for
// the next tick.
func (s *Scheduler) HupRequested() bool { return s.hupRequested }

// RequestRestart asks the scheduler to emit a RESTART boundary at the
// start of its next tick, used by the SIGHUP handler.
func (s *Scheduler) RequestRestart() { s.hupRequested = true }

// Run executes the RunningTick loop until ctx is canceled (SIGINT/
// SIGTERM) or a fatal error occurs. On cancellation, the in-progress
// tick finishes, is flushed, and Run returns nil. A non-nil error means
// the scheduler transitioned to StateEnd due to a fatal condition
// (OutOfCapacity from the buffer manager, or a non-retryable adapter
// failure).
func (s *Scheduler) Run(ctx context.Context) error {
	next := s.opts.Clock.Now().Add(s.opts.Interval)
	for {
		if err := s.opts.Clock.Sleep(ctx, time.Until(next)); err != nil {
			// Context canceled mid-sleep: finish cleanly, no partial tick
			// was started.
			s.state = StateEnd
			return s.finish()
		}
		next = next.Add(s.opts.Interval)

		if err := s.runTick(ctx); err != nil {
			s.state = StateEnd
			return err
		}

		if s.opts.OnTick != nil {
			s.opts.OnTick(s.opts.Clock.Now())
		}

		select {
		case <-ctx.Done():
			s.state = StateEnd
			return s.finish()
		default:
		}
	}
}

func (s *Scheduler) finish() error {
	s.state = StateEnd
	return s.opts.Writer.Flush()
}

// runTick executes one full RunningTick cycle: reboot/SIGHUP check,
// per-activity read, STATS write, buffer swap.
func (s *Scheduler) runTick(ctx context.Context) error {
	s.state = StateRunningTick
	now := s.opts.Clock.Now()

	if err := s.checkRestartTriggers(now); err != nil {
		return err
	}

	for _, act := range s.opts.Registry.Collected() {
		reader, ok := s.opts.Readers[act.Desc.ID]
		if !ok {
			continue
		}
		buf, ok := s.opts.Buffers[act.Desc.ID]
		if !ok {
			continue
		}
		if err := s.readActivity(act, reader, buf); err != nil {
			if serrors.Retryable(err) {
				s.opts.Logger.V(1).Info("skipping activity this tick", "activity", act.Desc.ID, "error", err.Error())
				continue
			}
			return fmt.Errorf("sampler: fatal adapter failure for %s: %w", act.Desc.ID, err)
		}
	}

	s.state = StateWrite
	payload, err := s.encodeStats()
	if err != nil {
		return fmt.Errorf("sampler: encode stats record: %w", err)
	}
	if _, err := s.opts.Writer.WriteRecord(archive.KindStats, now.Unix(), payload); err != nil {
		return fmt.Errorf("sampler: write stats record: %w", err)
	}

	for _, buf := range s.opts.Buffers {
		buf.Swap()
	}
	return nil
}

// encodeStats snapshots every collected activity's curr slots (trimmed
// to this tick's observed item count) into one STATS record payload.
func (s *Scheduler) encodeStats() ([]byte, error) {
	collected := s.opts.Registry.Collected()
	snapshots := make([]archive.ActivitySnapshot, 0, len(collected))
	layouts := make(map[activity.ID]activity.FieldWidth, len(collected))

	for _, act := range collected {
		buf, ok := s.opts.Buffers[act.Desc.ID]
		if !ok {
			continue
		}
		layouts[act.Desc.ID] = act.Desc.Layout
		curr := buf.Curr()
		n := act.Counts.Curr
		if n > len(curr) {
			n = len(curr)
		}
		snapshots = append(snapshots, archive.ActivitySnapshot{ID: act.Desc.ID, Items: curr[:n]})
	}
	return archive.EncodeStats(s.opts.Order, snapshots, layouts)
}

func (s *Scheduler) readActivity(act *activity.Activity, reader ItemReader, buf *activity.Buffer) error {
	if n, ok, err := reader.CountItems(act.Desc); err == nil && ok {
		if err := buf.EnsureCapacity(n); err != nil {
			return fmt.Errorf("grow buffer: %w", err)
		}
		act.Counts.Curr = n
	}
	if err := reader.Read(act.Desc, buf); err != nil {
		return fmt.Errorf("%w: %w", ErrAdapterFailure, err)
	}
	return nil
}

// checkRestartTriggers writes a RESTART record if a reboot was detected
// (boot time changed since the file was opened) or SIGHUP was requested,
// then clears the SIGHUP flag.
func (s *Scheduler) checkRestartTriggers(now time.Time) error {
	rebooted := false
	if s.opts.Reboot != nil {
		bt, err := s.opts.Reboot()
		if err == nil && !bt.Equal(s.bootTime) {
			rebooted = true
			s.bootTime = bt
		}
	}

	if !rebooted && !s.hupRequested {
		return nil
	}

	if _, err := s.opts.Writer.WriteRestart(now.Unix(), archive.RestartPayload{
		CPUCount: s.opts.CPUCount,
		HZ:       s.opts.HZ,
	}); err != nil {
		return fmt.Errorf("sampler: write restart record: %w", err)
	}
	if s.opts.OnRestart != nil {
		s.opts.OnRestart()
	}
	s.hupRequested = false
	return nil
}
