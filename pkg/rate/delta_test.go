// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package rate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestSValueTwoSampleCPURate covers scenario E1: a straightforward
// two-sample rate computation.
func TestSValueTwoSampleCPURate(t *testing.T) {
	v := SValue(1000, 1100, 10.0, 100.0)
	assert.InDelta(t, 1000.0, v, 0.0001)
}

func TestSValueSaturatesOnCounterRollback(t *testing.T) {
	// Scenario E3: counter rollback (unmount/hotplug) must saturate to 0,
	// never go negative.
	v := SValue(500, 200, 10.0, 100.0)
	assert.Equal(t, 0.0, v)
}

func TestSValueZeroIntervalIsZero(t *testing.T) {
	v := SValue(100, 200, 0, 100.0)
	assert.Equal(t, 0.0, v)
}

func TestLLSPValueBasic(t *testing.T) {
	v := LLSPValue(200, 300, 1000)
	assert.InDelta(t, 10.0, v, 0.0001)
}

func TestLLSPValueSaturatesOnRollback(t *testing.T) {
	v := LLSPValue(300, 200, 1000)
	assert.Equal(t, 0.0, v)
}

// TestPerCPURatesTickless covers scenario E2: a CPU that accumulated no
// jiffies at all between samples (offline or parked) must report
// %idle=100 and every other field 0, without dividing by zero.
func TestPerCPURatesTickless(t *testing.T) {
	sample := CPUSample{User: 500, System: 200, Idle: 9300}
	rates := PerCPURates(sample, sample)
	assert.True(t, rates.Tickless)
	assert.Equal(t, 100.0, rates.Idle)
	assert.Equal(t, 0.0, rates.User)
	assert.Equal(t, 0.0, rates.System)
	assert.Equal(t, 0.0, rates.Nice)
	assert.Equal(t, 0.0, rates.Steal)
	assert.Equal(t, 0.0, rates.IOWait)
}

func TestPerCPURatesBasic(t *testing.T) {
	prev := CPUSample{User: 100, Nice: 10, System: 50, IOWait: 5, Steal: 0, Idle: 835}
	curr := CPUSample{User: 150, Nice: 20, System: 80, IOWait: 10, Steal: 0, Idle: 1740}
	rates := PerCPURates(prev, curr)

	deltot := deltaTotal(prev, curr)
	assert.Greater(t, deltot, 0.0)

	// No value may be negative (invariant: no negative rates).
	assert.GreaterOrEqual(t, rates.User, 0.0)
	assert.GreaterOrEqual(t, rates.Nice, 0.0)
	assert.GreaterOrEqual(t, rates.System, 0.0)
	assert.GreaterOrEqual(t, rates.IOWait, 0.0)
	assert.GreaterOrEqual(t, rates.Steal, 0.0)
	assert.GreaterOrEqual(t, rates.Idle, 0.0)
}

// TestPerCPURatesGuestTimeQuirk covers the %user/%nice counter-reset
// quirk: when curr.User-curr.GuestUser regresses versus
// prev.User-prev.GuestUser, user and nice must both report 0 rather than
// a spurious value derived from the lagged kernel accounting.
func TestPerCPURatesGuestTimeQuirk(t *testing.T) {
	prev := CPUSample{User: 1000, GuestUser: 200, Nice: 50, System: 100, Idle: 8000}
	// curr.User - curr.GuestUser = 1050 - 300 = 750, which is less than
	// prev.User - prev.GuestUser = 1000 - 200 = 800: the quirk case.
	curr := CPUSample{User: 1050, GuestUser: 300, Nice: 60, System: 120, Idle: 8500}

	rates := PerCPURates(prev, curr)
	assert.Equal(t, 0.0, rates.User)
	assert.Equal(t, 0.0, rates.Nice)
	// Other fields are unaffected by the quirk.
	assert.Greater(t, rates.System, 0.0)
}

func TestGlobalIntervalDividesBySMPCount(t *testing.T) {
	prevAll := CPUSample{User: 1000, Idle: 9000}
	currAll := CPUSample{User: 1200, Idle: 10800}
	itv := GlobalInterval(prevAll, currAll, 4)
	assert.InDelta(t, 500.0, itv, 0.0001)
}

func TestGlobalIntervalGuardsZeroCPUCount(t *testing.T) {
	prevAll := CPUSample{Idle: 100}
	currAll := CPUSample{Idle: 200}
	itv := GlobalInterval(prevAll, currAll, 0)
	assert.InDelta(t, 100.0, itv, 0.0001)
}
