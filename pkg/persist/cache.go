// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

// Package persist durably remembers the last known name for a device
// identity (major, minor number) so the item-registry matcher can
// recover a device's name across a process restart or reboot even when
// its composite key alone (wwn can be empty on older kernels) is
// ambiguous.
package persist

import (
	"fmt"

	badger "github.com/dgraph-io/badger/v4"
)

// Cache is a badger-backed key/value store mapping a device's composite
// identity key to its last observed name.
type Cache struct {
	db *badger.DB
}

// Open opens (creating if necessary) a persistence cache at path. An
// empty path opens an in-memory cache.
func Open(path string) (*Cache, error) {
	opts := badger.DefaultOptions(path)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	opts = opts.WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("persist: open cache: %w", err)
	}
	return &Cache{db: db}, nil
}

// Lookup resolves key (a composite device identity key, e.g.
// "major:minor:wwn:part") to its last remembered name.
func (c *Cache) Lookup(key string) (string, bool) {
	var name string
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			name = string(val)
			return nil
		})
	})
	if err != nil {
		return "", false
	}
	return name, true
}

// Remember persists name as key's current resolution, overwriting any
// previous value.
func (c *Cache) Remember(key, name string) {
	_ = c.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), []byte(name))
	})
}

// Close releases the underlying database.
func (c *Cache) Close() error {
	return c.db.Close()
}
