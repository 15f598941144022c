// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package activity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryGetUnknownID(t *testing.T) {
	r := NewRegistry(Descriptors())
	_, err := r.Get(ID(255))
	assert.ErrorIs(t, err, ErrUnknownID)
}

func TestRegistryCollectedIncludesAlwaysCounted(t *testing.T) {
	r := NewRegistry(Descriptors())
	// Nothing explicitly enabled yet; CPU is AlwaysCounted so it must
	// still show up in Collected().
	collected := r.Collected()
	require.NotEmpty(t, collected)
	found := false
	for _, a := range collected {
		if a.Desc.ID == CPU {
			found = true
		}
	}
	assert.True(t, found, "CPU activity must always be collected")
}

func TestRegistryEnableGroupAndSelect(t *testing.T) {
	r := NewRegistry(Descriptors())
	r.EnableGroup(GDisk)

	enabled := r.Enabled()
	require.Len(t, enabled, 1)
	assert.Equal(t, Disk, enabled[0].Desc.ID)

	r.DisableAll()
	assert.Empty(t, r.Enabled())

	require.NoError(t, r.EnableByName("network"))
	enabled = r.Enabled()
	require.Len(t, enabled, 1)
	assert.Equal(t, Network, enabled[0].Desc.ID)

	err := r.EnableByName("not-a-real-activity")
	assert.ErrorIs(t, err, ErrUnknownID)
}

func TestRegistryNamesSorted(t *testing.T) {
	r := NewRegistry(Descriptors())
	names := r.Names()
	for i := 1; i < len(names); i++ {
		assert.LessOrEqual(t, names[i-1], names[i])
	}
	assert.Contains(t, names, "cpu")
	assert.Contains(t, names, "disk")
}
