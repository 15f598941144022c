// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

// Package itemreg reconciles the named items of one sampling tick against
// the previous tick so the rate engine always diffs the right pair of
// samples even when the kernel's own listing order is unstable (a disk
// renamed after a reboot, a NIC added mid-run, an IRQ that disappears
// when a device is unplugged).
package itemreg

// KeyFunc computes a composite identity key for the item at index i,
// returning ok=false when the item carries no composite key (most
// activities; disks are the only built-in user today).
type KeyFunc func(i int) (key string, ok bool)

// PersistedLookup resolves a composite key to a previously observed name,
// the third tie-break tier recovered from the original's --persist-name
// semantics (pkg/persist implements this against a durable cache).
type PersistedLookup interface {
	Lookup(key string) (name string, ok bool)
	Remember(key, name string)
}

// Match describes how one curr-slot index was resolved against prev.
type Match struct {
	// PrevIndex is the index into the previous tick's name list this
	// item corresponds to, or -1 if no predecessor was found (new item).
	PrevIndex int
	// IsNew is true when no predecessor exists at all; the rate engine
	// synthesizes an all-zero predecessor sample for these.
	IsNew bool
	// Restart is true when this item previously vanished (was an
	// orphan) and has now reappeared; the raw dialect tags it [BCK].
	Restart bool
}

type tracked struct {
	name    string
	key     string
	missing bool
}

// Matcher holds the long-lived identity state for one activity's items,
// spanning many ticks (not just one curr/prev pair), so it can detect
// the "missing then reappeared" condition rule 4 requires.
type Matcher struct {
	byName    map[string]*tracked
	byKey     map[string]*tracked
	persisted PersistedLookup
}

// New creates a matcher. persisted may be nil, disabling the third
// tie-break tier (the default when --persist-name is not set).
func New(persisted PersistedLookup) *Matcher {
	return &Matcher{
		byName:    make(map[string]*tracked),
		byKey:     make(map[string]*tracked),
		persisted: persisted,
	}
}

// Reconcile matches currNames (this tick's items, in kernel-listing
// order) against the matcher's retained identity state and returns one
// Match per curr item, in curr order. composite, if non-nil, supplies a
// composite key for composite-key tie-break (rule 2); it is queried with
// indices into currNames.
//
// Exact-name matching (rule 1) is attempted first and is case-sensitive,
// scanning circularly from min(i, len(prevNames)-1) to mimic the
// original's locality-preserving search order — this only affects which
// of several *equally valid* exact matches is picked when duplicate
// names exist, which should not occur in practice but must not panic if
// it does.
func (m *Matcher) Reconcile(currNames []string, prevNames []string, composite KeyFunc) []Match {
	prevIndex := make(map[string]int, len(prevNames))
	for i, n := range prevNames {
		if _, exists := prevIndex[n]; !exists {
			prevIndex[n] = i
		}
	}

	results := make([]Match, len(currNames))
	seenThisTick := make(map[string]bool, len(currNames))

	for i, name := range currNames {
		seenThisTick[name] = true

		var key string
		if composite != nil {
			key, _ = composite(i)
		}

		if pi, ok := m.exactMatch(name, prevNames, i); ok {
			results[i] = m.resolve(name, key, pi)
			continue
		}

		if key != "" {
			if name2, ok2 := m.compositeMatch(key); ok2 {
				if pi, ok3 := prevIndex[name2]; ok3 {
					results[i] = m.resolve(name, key, pi)
					continue
				}
			}
			// Composite key present but unresolved against this
			// tick's prev names: fall through to persisted lookup.
			if m.persisted != nil {
				if lastName, ok2 := m.persisted.Lookup(key); ok2 {
					if pi, ok3 := prevIndex[lastName]; ok3 {
						results[i] = m.resolve(name, key, pi)
						continue
					}
				}
			}
		}

		// Miss: newly registered item. A name still tracked from an
		// earlier tick and flagged missing is a reappearing orphan.
		t, existed := m.byName[name]
		results[i] = Match{PrevIndex: -1, IsNew: true, Restart: existed && t.missing}
		m.register(name, key)
	}

	m.markOrphans(seenThisTick)
	return results
}

// exactMatch implements rule 1: circular scan starting at
// min(i, len(prevNames)-1).
func (m *Matcher) exactMatch(name string, prevNames []string, i int) (int, bool) {
	if len(prevNames) == 0 {
		return 0, false
	}
	start := i
	if start > len(prevNames)-1 {
		start = len(prevNames) - 1
	}
	for off := 0; off < len(prevNames); off++ {
		idx := (start + off) % len(prevNames)
		if prevNames[idx] == name {
			return idx, true
		}
	}
	return 0, false
}

// compositeMatch implements rule 2: look up a tracked item by composite
// key, returning its last known name if found.
func (m *Matcher) compositeMatch(key string) (string, bool) {
	t, ok := m.byKey[key]
	if !ok {
		return "", false
	}
	return t.name, true
}

func (m *Matcher) resolve(name, key string, prevIdx int) Match {
	t, existed := m.byName[name]
	restart := existed && t.missing
	m.register(name, key)
	return Match{PrevIndex: prevIdx, Restart: restart}
}

func (m *Matcher) register(name, key string) {
	t := &tracked{name: name, key: key}
	m.byName[name] = t
	if key != "" {
		m.byKey[key] = t
		if m.persisted != nil {
			m.persisted.Remember(key, name)
		}
	}
}

// markOrphans implements rule 4: any tracked item not seen this tick is
// flagged missing so its eventual reappearance sets Restart.
func (m *Matcher) markOrphans(seenThisTick map[string]bool) {
	for name, t := range m.byName {
		if !seenThisTick[name] {
			t.missing = true
		}
	}
}

// Forget drops all retained identity state, used when the sampler writes
// a RESTART record and item identity should not carry a "restart" flag
// across the boundary it itself represents.
func (m *Matcher) Forget() {
	m.byName = make(map[string]*tracked)
	m.byKey = make(map[string]*tracked)
}
