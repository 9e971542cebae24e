// Package archive dumps fetched blocks to a JSON lines side file. The file is a
// diagnostic aid only and is never read back by the ingester.
package archive

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"github.com/goodnatureofminers/blockinsight7000-evm/internal/evm/model"
	"github.com/goodnatureofminers/blockinsight7000-evm/pkg/batcher"
	"go.uber.org/zap"
)

const (
	batchSize     = 64
	flushInterval = time.Second
	flushesPerSec = 20
)

// Entry is one archived line.
type Entry struct {
	Height  uint64            `json:"height"`
	Block   json.RawMessage   `json:"block"`
	Records model.LedgerBlock `json:"records"`
}

// Sink appends entries to a file in the background. Add never blocks; entries
// are dropped when the queue is full.
type Sink struct {
	logger  *zap.Logger
	file    *os.File
	writer  *bufio.Writer
	batcher *batcher.Batcher[Entry]
	dropped atomic.Uint64
}

// Open creates or appends to the archive file at path.
func Open(path string, logger *zap.Logger) (*Sink, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open archive %s: %w", path, err)
	}
	s := &Sink{
		logger: logger,
		file:   file,
		writer: bufio.NewWriter(file),
	}
	s.batcher = batcher.New[Entry](logger.Named("batcher"), s.flush, batcher.Config{
		Size:             batchSize,
		Interval:         flushInterval,
		FlushesPerSecond: flushesPerSec,
	})
	return s, nil
}

// Start launches the background writer.
func (s *Sink) Start(ctx context.Context) {
	s.batcher.Start(ctx)
}

// Add queues a block for archiving.
func (s *Sink) Add(height uint64, raw json.RawMessage, records model.LedgerBlock) {
	if s.batcher.TryAdd(Entry{Height: height, Block: raw, Records: records}) {
		return
	}
	dropped := s.dropped.Add(1)
	s.logger.Debug("archive queue full, entry dropped", zap.Uint64("height", height), zap.Uint64("dropped", dropped))
}

// Dropped returns how many entries were discarded because the queue was full.
func (s *Sink) Dropped() uint64 {
	return s.dropped.Load()
}

// Close drains queued entries and closes the file.
func (s *Sink) Close() error {
	s.batcher.Stop()
	stats := s.batcher.Stats()
	s.logger.Debug("archive drained",
		zap.Uint64("entries", stats.Items),
		zap.Uint64("failed_batches", stats.Failed),
		zap.Uint64("dropped", s.dropped.Load()))
	if err := s.writer.Flush(); err != nil {
		_ = s.file.Close()
		return fmt.Errorf("flush archive: %w", err)
	}
	return s.file.Close()
}

func (s *Sink) flush(_ context.Context, entries []Entry) error {
	enc := json.NewEncoder(s.writer)
	for i := range entries {
		if err := enc.Encode(&entries[i]); err != nil {
			return fmt.Errorf("encode height %d: %w", entries[i].Height, err)
		}
	}
	return s.writer.Flush()
}
