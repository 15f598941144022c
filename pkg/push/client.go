// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

// Package push batches metric samples destined for an external sink and
// retries delivery with backoff, so the push renderer (pkg/render) only
// ever has to call Enqueue and never deals with batching or transport
// failure itself.
package push

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/go-logr/logr"
	"k8s.io/client-go/util/workqueue"
)

const (
	clientName          = "push-client"
	defaultMaxBatchSize = 200
	defaultFlushPeriod  = time.Second
)

// Metric is one sampled value destined for the external sink.
type Metric struct {
	Name     string
	Instance string
	Value    float64
	Unix     int64
}

// Transport delivers one batch of metrics. Implementations should return
// an error for any failure that should be retried; Client treats every
// Transport error as retryable.
type Transport interface {
	Send(ctx context.Context, metrics []Metric) error
}

type batch struct {
	metrics []Metric
	id      uint64
}

var batchCounter uint64

func newBatch(metrics []Metric) *batch {
	return &batch{metrics: metrics, id: atomic.AddUint64(&batchCounter, 1)}
}

// Client batches Enqueue'd metrics and flushes them through a Transport,
// either when a batch reaches MaxBatchSize or on a FlushPeriod ticker,
// retrying failed sends with exponential backoff.
type Client struct {
	transport Transport
	logger    logr.Logger
	queue     workqueue.TypedRateLimitingInterface[*batch]

	mu      sync.Mutex
	pending []Metric

	maxBatchSize int
	flushPeriod  time.Duration
}

// Option configures a Client.
type Option func(*Client)

func WithLogger(logger logr.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

func WithMaxBatchSize(n int) Option {
	return func(c *Client) { c.maxBatchSize = n }
}

func WithFlushPeriod(d time.Duration) Option {
	return func(c *Client) { c.flushPeriod = d }
}

// New creates a Client delivering batches through transport.
func New(transport Transport, opts ...Option) (*Client, error) {
	if transport == nil {
		return nil, fmt.Errorf("push: transport can't be nil")
	}
	ratelimiter := workqueue.DefaultTypedControllerRateLimiter[*batch]()
	queue := workqueue.NewTypedRateLimitingQueueWithConfig(ratelimiter,
		workqueue.TypedRateLimitingQueueConfig[*batch]{Name: clientName},
	)

	c := &Client{
		transport:    transport,
		logger:       logr.Discard(),
		queue:        queue,
		maxBatchSize: defaultMaxBatchSize,
		flushPeriod:  defaultFlushPeriod,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Enqueue adds one metric sample to the pending batch, flushing
// immediately if MaxBatchSize is reached.
func (c *Client) Enqueue(m Metric) {
	c.mu.Lock()
	c.pending = append(c.pending, m)
	shouldFlush := len(c.pending) >= c.maxBatchSize
	c.mu.Unlock()

	if shouldFlush {
		c.flush()
	}
}

func (c *Client) flush() {
	c.mu.Lock()
	if len(c.pending) == 0 {
		c.mu.Unlock()
		return
	}
	pending := c.pending
	c.pending = nil
	c.mu.Unlock()

	c.queue.AddRateLimited(newBatch(pending))
}

// Run drives the flush ticker and the send worker until ctx is canceled,
// draining any still-queued batches before returning.
func (c *Client) Run(ctx context.Context) error {
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		c.sendLoop(ctx)
	}()

	ticker := time.NewTicker(c.flushPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			c.flush()
			c.queue.ShutDownWithDrain()
			wg.Wait()
			return nil
		case <-ticker.C:
			c.flush()
		}
	}
}

func (c *Client) sendLoop(ctx context.Context) {
	for {
		b, shutdown := c.queue.Get()
		if shutdown {
			return
		}
		c.send(ctx, b)
		c.queue.Done(b)
	}
}

func (c *Client) send(ctx context.Context, b *batch) {
	_, err := backoff.Retry(ctx, func() (bool, error) {
		if err := c.transport.Send(ctx, b.metrics); err != nil {
			return false, err
		}
		return true, nil
	}, backoff.WithBackOff(backoff.NewExponentialBackOff()))

	if err != nil {
		c.logger.Error(err, "failed to deliver metric batch, re-queueing", "batchID", b.id, "numMetrics", len(b.metrics))
		if !c.queue.ShuttingDown() {
			c.queue.AddRateLimited(b)
		}
		return
	}
	c.queue.Forget(b)
}
