// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package activity

import "sort"

// Registry holds the process-wide fixed descriptor table plus the live,
// per-session Activity state (enablement, item counts) derived from it.
// The table itself is built once at construction and never mutated
// afterward; only the Activity wrappers change per tick.
type Registry struct {
	order []*Activity
	byID  map[ID]*Activity
}

// NewRegistry builds a registry from the given descriptors, in the order
// given. Order is significant: it is the archive's on-disk activity
// table order and the default render order.
func NewRegistry(descs []*Descriptor) *Registry {
	r := &Registry{byID: make(map[ID]*Activity, len(descs))}
	for _, d := range descs {
		act := NewActivity(d)
		r.order = append(r.order, act)
		r.byID[d.ID] = act
	}
	return r
}

// Get returns the Activity for id, or ErrUnknownID if id is not in the
// table.
func (r *Registry) Get(id ID) (*Activity, error) {
	a, ok := r.byID[id]
	if !ok {
		return nil, ErrUnknownID
	}
	return a, nil
}

// All returns every activity in table order.
func (r *Registry) All() []*Activity {
	return r.order
}

// Enabled returns activities currently enabled, in table order.
func (r *Registry) Enabled() []*Activity {
	out := make([]*Activity, 0, len(r.order))
	for _, a := range r.order {
		if a.Enabled {
			out = append(out, a)
		}
	}
	return out
}

// Collected returns enabled activities that also carry the Collected
// flag, i.e. the set the sampler must read every tick. AlwaysCounted
// activities are included even when not explicitly enabled, since their
// interval anchors every other activity's rate computation.
func (r *Registry) Collected() []*Activity {
	out := make([]*Activity, 0, len(r.order))
	for _, a := range r.order {
		if !a.Desc.Flags.Has(Collected) {
			continue
		}
		if a.Enabled || a.Desc.Flags.Has(AlwaysCounted) {
			out = append(out, a)
		}
	}
	return out
}

// EnableGroup enables every activity belonging to group g.
func (r *Registry) EnableGroup(g Group) {
	for _, a := range r.order {
		if a.Desc.Group == g {
			a.Enabled = true
		}
	}
}

// EnableByName enables a single activity by its ID.String() name,
// supporting --select's comma-separated activity list. Returns
// ErrUnknownID if name does not match any descriptor.
func (r *Registry) EnableByName(name string) error {
	for _, a := range r.order {
		if a.Desc.ID.String() == name {
			a.Enabled = true
			return nil
		}
	}
	return ErrUnknownID
}

// DisableAll clears every activity's Enabled flag; used before applying
// an explicit --select list so the default group selection doesn't leak
// through.
func (r *Registry) DisableAll() {
	for _, a := range r.order {
		a.Enabled = false
	}
}

// Names returns the sorted list of every activity's string name, useful
// for --help text and validation error messages.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.order))
	for _, a := range r.order {
		names = append(names, a.Desc.ID.String())
	}
	sort.Strings(names)
	return names
}
