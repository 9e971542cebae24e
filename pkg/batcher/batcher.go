// Package batcher groups queued items into size or time bounded batches and hands them
// to a flush function at a limited rate.
package batcher

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/ratelimit"
	"go.uber.org/zap"
)

// FlushFunc receives one batch. The slice is reused after it returns.
type FlushFunc[T any] func(ctx context.Context, items []T) error

// Config bounds batch size, batch age and flush rate. The queue holds 2*Size items.
type Config struct {
	Size             int
	Interval         time.Duration
	FlushesPerSecond int
}

// Stats counts flush outcomes since construction.
type Stats struct {
	Batches uint64
	Items   uint64
	Failed  uint64
}

// Batcher runs a single background flusher fed by TryAdd.
type Batcher[T any] struct {
	logger  *zap.Logger
	flushFn FlushFunc[T]
	cfg     Config
	queue   chan T
	limiter ratelimit.Limiter
	buf     []T

	batches atomic.Uint64
	items   atomic.Uint64
	failed  atomic.Uint64

	wg       sync.WaitGroup
	stop     chan struct{}
	stopOnce sync.Once
}

// New constructs a Batcher; call Start to begin flushing.
func New[T any](logger *zap.Logger, flush FlushFunc[T], cfg Config) *Batcher[T] {
	if cfg.Size <= 0 {
		cfg.Size = 1
	}
	if cfg.Interval <= 0 {
		cfg.Interval = time.Second
	}
	limiter := ratelimit.NewUnlimited()
	if cfg.FlushesPerSecond > 0 {
		limiter = ratelimit.New(cfg.FlushesPerSecond)
	}
	return &Batcher[T]{
		logger:  logger,
		flushFn: flush,
		cfg:     cfg,
		queue:   make(chan T, cfg.Size*2),
		limiter: limiter,
		buf:     make([]T, 0, cfg.Size),
		stop:    make(chan struct{}),
	}
}

// Start launches the flusher. It exits when ctx is done or Stop is called.
func (b *Batcher[T]) Start(ctx context.Context) {
	b.wg.Add(1)
	go b.run(ctx)
}

// Stop drains the queue into final batches and waits for the flusher. It is idempotent.
func (b *Batcher[T]) Stop() {
	b.stopOnce.Do(func() {
		close(b.stop)
	})
	b.wg.Wait()
}

// TryAdd queues item only if there is room. It reports false when the queue is full or
// the batcher is stopped.
func (b *Batcher[T]) TryAdd(item T) bool {
	if b.stopped() {
		return false
	}
	select {
	case b.queue <- item:
		return true
	default:
		return false
	}
}

// Stats returns flush counters.
func (b *Batcher[T]) Stats() Stats {
	return Stats{
		Batches: b.batches.Load(),
		Items:   b.items.Load(),
		Failed:  b.failed.Load(),
	}
}

func (b *Batcher[T]) stopped() bool {
	select {
	case <-b.stop:
		return true
	default:
		return false
	}
}

func (b *Batcher[T]) run(ctx context.Context) {
	defer b.wg.Done()

	ticker := time.NewTicker(b.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			b.flush(ctx)
			return
		case <-b.stop:
			b.drain(ctx)
			return
		case item := <-b.queue:
			b.push(ctx, item)
		case <-ticker.C:
			b.flush(ctx)
		}
	}
}

func (b *Batcher[T]) push(ctx context.Context, item T) {
	b.buf = append(b.buf, item)
	if len(b.buf) >= b.cfg.Size {
		b.flush(ctx)
	}
}

func (b *Batcher[T]) drain(ctx context.Context) {
	for {
		select {
		case item := <-b.queue:
			b.push(ctx, item)
		default:
			b.flush(ctx)
			return
		}
	}
}

func (b *Batcher[T]) flush(ctx context.Context) {
	if len(b.buf) == 0 {
		return
	}
	b.limiter.Take()

	size := len(b.buf)
	if err := b.flushFn(ctx, b.buf); err != nil {
		b.failed.Add(1)
		b.logger.Error("batch not flushed", zap.Int("size", size), zap.Error(err))
	} else {
		b.batches.Add(1)
		b.items.Add(uint64(size))
		b.logger.Debug("batch flushed", zap.Int("size", size))
	}
	b.buf = b.buf[:0]
}
