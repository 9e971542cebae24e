package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/goodnatureofminers/blockinsight7000-evm/internal/evm/model"
)

const insertBlocksQuery = `
INSERT INTO evm_blocks (
	hash,
	parent_hash,
	height,
	timestamp,
	nonce,
	difficulty,
	gas_limit,
	gas_used,
	miner,
	extra_data,
	tx_count
) VALUES`

// InsertBlocks stores block rows in ClickHouse.
func (r *Repository) InsertBlocks(ctx context.Context, blocks []model.Block) error {
	start := time.Now()
	var err error
	defer func() {
		r.metrics.Observe("insert_blocks", err, start)
	}()

	if len(blocks) == 0 {
		return nil
	}

	batch, err := r.conn.PrepareBatch(ctx, insertBlocksQuery)
	if err != nil {
		return fmt.Errorf("prepare blocks batch: %w", err)
	}
	defer func() {
		if !batch.IsSent() {
			_ = batch.Abort()
		}
	}()

	for _, block := range blocks {
		if err = batch.Append(
			block.Hash,
			block.ParentHash,
			block.Height,
			block.Timestamp,
			block.Nonce,
			block.Difficulty,
			block.GasLimit,
			block.GasUsed,
			block.Miner,
			block.ExtraData,
			block.TxCount,
		); err != nil {
			return fmt.Errorf("append block %d: %w", block.Height, err)
		}
	}

	if err = batch.Send(); err != nil {
		return fmt.Errorf("insert blocks: %w", err)
	}
	return nil
}
