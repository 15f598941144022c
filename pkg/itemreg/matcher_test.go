// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package itemreg

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconcileExactNameMatch(t *testing.T) {
	m := New(nil)
	prev := []string{"eth0", "eth1"}
	curr := []string{"eth0", "eth1"}

	results := m.Reconcile(curr, prev, nil)
	require.Len(t, results, 2)
	assert.Equal(t, 0, results[0].PrevIndex)
	assert.False(t, results[0].IsNew)
	assert.Equal(t, 1, results[1].PrevIndex)
	assert.False(t, results[1].IsNew)
}

func TestReconcileNewItemIsMiss(t *testing.T) {
	m := New(nil)
	prev := []string{"eth0"}
	curr := []string{"eth0", "eth1"}

	results := m.Reconcile(curr, prev, nil)
	assert.False(t, results[0].IsNew)
	assert.True(t, results[1].IsNew)
	assert.Equal(t, -1, results[1].PrevIndex)
}

// TestReconcileIdentityStableOver1000Ticks models the "identity stable"
// invariant: a fixed set of items reconciled against itself across many
// ticks never flips IsNew or Restart.
func TestReconcileIdentityStableOver1000Ticks(t *testing.T) {
	m := New(nil)
	names := []string{"cpu0", "cpu1", "cpu2", "cpu3"}
	prev := names

	for tick := 0; tick < 1000; tick++ {
		results := m.Reconcile(names, prev, nil)
		for i, r := range results {
			assert.Falsef(t, r.IsNew, "tick %d item %d should not be new", tick, i)
			assert.Falsef(t, r.Restart, "tick %d item %d should not restart", tick, i)
			assert.Equal(t, i, r.PrevIndex, "tick %d item %d", tick, i)
		}
		prev = names
	}
}

// TestReconcileOrphanReappearsWithRestart covers rule 4: an item that
// vanishes for one tick and comes back must be flagged Restart=true.
func TestReconcileOrphanReappearsWithRestart(t *testing.T) {
	m := New(nil)

	// Tick 1: both present.
	prev := []string{"sda", "sdb"}
	r1 := m.Reconcile(prev, nil, nil)
	require.Len(t, r1, 2)

	// Tick 2: sdb vanishes (unplugged).
	curr2 := []string{"sda"}
	r2 := m.Reconcile(curr2, prev, nil)
	assert.False(t, r2[0].Restart)

	// Tick 3: sdb reappears — must carry Restart=true.
	curr3 := []string{"sda", "sdb"}
	r3 := m.Reconcile(curr3, curr2, nil)
	require.Len(t, r3, 2)
	assert.False(t, r3[0].Restart)
	assert.True(t, r3[1].Restart, "sdb should resume with a restart flag after its absence")
}

// TestReconcileNewNICMidRunTagsNew models scenario E4: a new NIC appears
// at tick k partway through a run and must be tagged as new, not matched
// to an unrelated prior item.
func TestReconcileNewNICMidRunTagsNew(t *testing.T) {
	m := New(nil)
	prev := []string{"eth0"}
	for tick := 0; tick < 5; tick++ {
		r := m.Reconcile(prev, prev, nil)
		require.False(t, r[0].IsNew)
	}

	curr := []string{"eth0", "eth1"}
	r := m.Reconcile(curr, prev, nil)
	assert.False(t, r[0].IsNew)
	assert.True(t, r[1].IsNew, "eth1 appearing mid-run must be tagged new")
}

func TestReconcileCompositeKeyMatchAcrossRename(t *testing.T) {
	m := New(nil)
	keyOf := func(disks []string, wwn string) KeyFunc {
		return func(i int) (string, bool) {
			return fmt.Sprintf("8:%d:%s:0", i, wwn), true
		}
	}

	prev := []string{"sda"}
	_ = m.Reconcile(prev, nil, keyOf(prev, "wwn-1"))

	// Device renamed to sdb after a reboot, but its composite key
	// (major/minor/wwn/part) is unchanged.
	curr := []string{"sdb"}
	results := m.Reconcile(curr, prev, keyOf(curr, "wwn-1"))
	require.Len(t, results, 1)
	assert.Equal(t, 0, results[0].PrevIndex, "composite key should resolve the rename to the prior slot")
	assert.False(t, results[0].IsNew)
}

type fakePersist struct {
	store map[string]string
}

func newFakePersist() *fakePersist { return &fakePersist{store: map[string]string{}} }

func (f *fakePersist) Lookup(key string) (string, bool) {
	name, ok := f.store[key]
	return name, ok
}

func (f *fakePersist) Remember(key, name string) {
	f.store[key] = name
}

func TestReconcilePersistedTieBreakRecoversNameAcrossMatcherReset(t *testing.T) {
	persist := newFakePersist()
	m := New(persist)

	prev := []string{"sda"}
	key := func(i int) (string, bool) { return "8:0::0", true }
	_ = m.Reconcile(prev, nil, key)

	// Simulate a fresh matcher (process restart) with no in-memory
	// identity state, but the persisted cache survives.
	m2 := New(persist)
	curr := []string{"sdx"}
	results := m2.Reconcile(curr, nil, key)
	// With no prevNames at all, persisted lookup alone cannot resolve a
	// PrevIndex (there is nothing to index into), so this is correctly
	// reported as new; the persisted tier only helps when the renamed
	// predecessor is present in prevNames under its last known name.
	assert.True(t, results[0].IsNew)
}
