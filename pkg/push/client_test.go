// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package push

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTransport struct {
	mu  sync.Mutex
	got [][]Metric
}

func (f *fakeTransport) Send(ctx context.Context, metrics []Metric) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	batch := make([]Metric, len(metrics))
	copy(batch, metrics)
	f.got = append(f.got, batch)
	return nil
}

func (f *fakeTransport) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.got)
}

func TestClientFlushesOnMaxBatchSize(t *testing.T) {
	transport := &fakeTransport{}
	c, err := New(transport, WithMaxBatchSize(2), WithFlushPeriod(time.Hour))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = c.Run(ctx) }()
	defer cancel()

	c.Enqueue(Metric{Name: "cpu.user", Value: 1})
	c.Enqueue(Metric{Name: "cpu.user", Value: 2})

	require.Eventually(t, func() bool { return transport.count() >= 1 }, time.Second, 5*time.Millisecond)
}

func TestClientFlushesOnTicker(t *testing.T) {
	transport := &fakeTransport{}
	c, err := New(transport, WithMaxBatchSize(1000), WithFlushPeriod(10*time.Millisecond))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = c.Run(ctx) }()
	defer cancel()

	c.Enqueue(Metric{Name: "mem.used", Value: 42})

	require.Eventually(t, func() bool { return transport.count() >= 1 }, time.Second, 5*time.Millisecond)
}

func TestNewRejectsNilTransport(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)
}
