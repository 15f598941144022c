// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

// Package rate computes per-second rates and percentages from successive
// raw counter samples, the same arithmetic every reporting dialect needs
// regardless of how it renders the result.
package rate

// SValue computes (curr-prev) * hz / itv, the canonical per-second rate
// used for most counters (context switches, page faults, disk I/O).
// Saturates to 0.0 on counter rollback (curr < prev), which typically
// indicates a counter reset from unmount or hotplug rather than a real
// negative rate.
func SValue(prev, curr uint64, itv float64, hz float64) float64 {
	if curr < prev || itv <= 0 {
		return 0.0
	}
	return float64(curr-prev) * hz / itv
}

// LLSPValue computes (curr-prev) * 100 / total, the percentage-of-total
// form used for CPU utilization breakdowns and memory-used percentages.
// Saturates to 0.0 under the same underflow policy as SValue.
func LLSPValue(prev, curr uint64, total float64) float64 {
	if curr < prev || total <= 0 {
		return 0.0
	}
	return float64(curr-prev) * 100.0 / total
}

// CPUSample holds one tick's raw jiffy counters for a single CPU, in the
// conventional /proc/stat column order. Guest time is already included
// in User per kernel convention; GuestUser/GuestNice are broken out
// separately because the %user/%nice counter-reset quirk needs them.
type CPUSample struct {
	User      uint64
	Nice      uint64
	System    uint64
	IOWait    uint64
	Steal     uint64
	Idle      uint64
	IRQ       uint64
	SoftIRQ   uint64
	GuestUser uint64
	GuestNice uint64
}

// Total returns the sum of every jiffy field, the denominator for
// per-CPU percentage computations.
func (s CPUSample) Total() uint64 {
	return s.User + s.Nice + s.System + s.IOWait + s.Steal + s.Idle + s.IRQ + s.SoftIRQ
}

// CPURates is the rendered percentage breakdown for one CPU's tick.
type CPURates struct {
	User     float64
	Nice     float64
	System   float64
	IOWait   float64
	Steal    float64
	Idle     float64
	Tickless bool
}

// GlobalInterval computes the itv used for per-second rate computations:
// the sum of every field's delta on the aggregate "all" CPU sample,
// divided by the number of CPUs (the SMP multiplier), matching the
// original's global interval derivation from the "cpu" line of
// /proc/stat rather than any single CPU's own delta.
func GlobalInterval(prevAll, currAll CPUSample, numCPUs int) float64 {
	if numCPUs <= 0 {
		numCPUs = 1
	}
	deltot := deltaTotal(prevAll, currAll)
	return deltot / float64(numCPUs)
}

func deltaTotal(prev, curr CPUSample) float64 {
	total := int64(curr.Total()) - int64(prev.Total())
	if total < 0 {
		return 0
	}
	return float64(total)
}

// PerCPURates computes the %user/%nice/%system/%iowait/%steal/%idle
// breakdown for a single CPU between two samples.
//
// deltot_jiffies is the sum of this CPU's own field deltas between the
// two samples. A zero deltot_jiffies means a tickless CPU: the engine
// must report %idle=100 and every other ratio 0 without dividing by
// zero, rather than propagating a NaN.
//
// The %user/%nice counter-reset quirk: if (curr.User-curr.GuestUser) <
// (prev.User-prev.GuestUser), user and nice are both forced to 0 for
// this tick, protecting against the kernel's historical one-tick-lagged
// guest-time subtraction from user.
func PerCPURates(prev, curr CPUSample) CPURates {
	deltotJiffies := deltaTotal(prev, curr)
	if deltotJiffies == 0 {
		return CPURates{Idle: 100.0, Tickless: true}
	}

	userAdjFaulty := (int64(curr.User) - int64(curr.GuestUser)) < (int64(prev.User) - int64(prev.GuestUser))

	r := CPURates{
		System: LLSPValue(prev.System, curr.System, deltotJiffies),
		IOWait: clampIOWait(prev, curr, deltotJiffies),
		Steal:  LLSPValue(prev.Steal, curr.Steal, deltotJiffies),
		Idle:   clampIdle(prev, curr, deltotJiffies),
	}
	if !userAdjFaulty {
		r.User = LLSPValue(prev.User, curr.User, deltotJiffies)
		r.Nice = LLSPValue(prev.Nice, curr.Nice, deltotJiffies)
	}
	return r
}

// clampIdle guards against the well-known kernel quirk where idle can
// tick backwards by a jiffy under heavy IRQ load; any such underflow is
// reported as 0 idle for this tick rather than negative.
func clampIdle(prev, curr CPUSample, deltot float64) float64 {
	if curr.Idle < prev.Idle {
		return 0.0
	}
	return LLSPValue(prev.Idle, curr.Idle, deltot)
}

func clampIOWait(prev, curr CPUSample, deltot float64) float64 {
	if curr.IOWait < prev.IOWait {
		return 0.0
	}
	return LLSPValue(prev.IOWait, curr.IOWait, deltot)
}
