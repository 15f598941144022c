// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package persist

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sysstatgo/satop/pkg/itemreg"
)

func TestCacheRememberThenLookup(t *testing.T) {
	c, err := Open("")
	require.NoError(t, err)
	defer c.Close()

	_, ok := c.Lookup("8:0:wwn-abc:1")
	assert.False(t, ok)

	c.Remember("8:0:wwn-abc:1", "sda1")

	name, ok := c.Lookup("8:0:wwn-abc:1")
	require.True(t, ok)
	assert.Equal(t, "sda1", name)
}

func TestCacheRememberOverwrites(t *testing.T) {
	c, err := Open("")
	require.NoError(t, err)
	defer c.Close()

	c.Remember("8:0:wwn-abc:1", "sda1")
	c.Remember("8:0:wwn-abc:1", "sda1-renamed")

	name, ok := c.Lookup("8:0:wwn-abc:1")
	require.True(t, ok)
	assert.Equal(t, "sda1-renamed", name)
}

func TestCacheSatisfiesPersistedLookup(t *testing.T) {
	c, err := Open("")
	require.NoError(t, err)
	defer c.Close()

	var _ itemreg.PersistedLookup = c
}
