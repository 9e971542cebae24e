package ingester

import (
	"context"
	"fmt"
	"time"

	"github.com/goodnatureofminers/blockinsight7000-evm/internal/evm/chain"
	"github.com/goodnatureofminers/blockinsight7000-evm/internal/evm/model"
)

type blockProcessor struct {
	reader       ChainReader
	store        LedgerStore
	archive      Archive
	convert      func(*chain.RawBlock) (model.LedgerBlock, error)
	writeTimeout time.Duration
}

// Process fetches, normalizes and stores one height. Failures are returned for the loop to
// report. Once the fetch has succeeded the write is detached from ctx so a shutdown never
// abandons a height halfway.
func (p *blockProcessor) Process(ctx context.Context, height uint64) error {
	raw, err := p.reader.FetchBlock(ctx, height)
	if err != nil {
		return fmt.Errorf("fetch block %d: %w", height, err)
	}

	records, err := p.convert(raw)
	if err != nil {
		return fmt.Errorf("normalize block %d: %w", height, err)
	}

	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.writeTimeout)
	defer cancel()
	if err := p.store.WriteBlock(writeCtx, records); err != nil {
		return fmt.Errorf("write block %d: %w: %w", height, chain.ErrStorageUnavailable, err)
	}

	if p.archive != nil {
		p.archive.Add(height, raw.Raw, records)
	}
	return nil
}
