package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/goodnatureofminers/blockinsight7000-evm/internal/evm/model"
	"github.com/goodnatureofminers/blockinsight7000-evm/pkg/safe"
	"github.com/jackc/pgx/v5"
)

const insertTransactionQuery = `
INSERT INTO evm_transactions (
	hash,
	type,
	access_list,
	block_hash,
	block_height,
	timestamp,
	transaction_index,
	from_address,
	to_address,
	value,
	gas_price,
	gas_limit,
	nonce,
	data,
	creates,
	chain_id
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
ON CONFLICT (hash) DO NOTHING`

const insertBlockQuery = `
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
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
ON CONFLICT (hash) DO NOTHING`

// WriteBlock stores a block and its transactions in one implicit transaction.
// Transactions are queued before the block; rows that already exist are kept.
func (r *Repository) WriteBlock(ctx context.Context, b model.LedgerBlock) (err error) {
	start := time.Now()
	defer func() {
		r.metrics.Observe("write_block", err, start)
	}()

	batch := &pgx.Batch{}
	for _, tx := range b.Txs {
		args, err := transactionArgs(tx)
		if err != nil {
			return err
		}
		batch.Queue(insertTransactionQuery, args...)
	}
	args, err := blockArgs(b.Block)
	if err != nil {
		return err
	}
	batch.Queue(insertBlockQuery, args...)

	results := r.db.SendBatch(ctx, batch)
	for i := 0; i < batch.Len(); i++ {
		if _, err = results.Exec(); err != nil {
			_ = results.Close()
			return fmt.Errorf("write block %d statement %d: %w", b.Block.Height, i, err)
		}
	}
	if err = results.Close(); err != nil {
		return fmt.Errorf("write block %d: %w", b.Block.Height, err)
	}
	return nil
}

func blockArgs(block model.Block) ([]any, error) {
	height, err := safe.Int64(block.Height)
	if err != nil {
		return nil, fmt.Errorf("block %s height: %w", block.Hash, err)
	}
	gasLimit, err := safe.Int64(block.GasLimit)
	if err != nil {
		return nil, fmt.Errorf("block %d gas limit: %w", block.Height, err)
	}
	gasUsed, err := safe.Int64(block.GasUsed)
	if err != nil {
		return nil, fmt.Errorf("block %d gas used: %w", block.Height, err)
	}
	return []any{
		block.Hash,
		block.ParentHash,
		height,
		block.Timestamp,
		block.Nonce,
		block.Difficulty,
		gasLimit,
		gasUsed,
		block.Miner,
		block.ExtraData,
		int64(block.TxCount),
	}, nil
}

func transactionArgs(tx model.Transaction) ([]any, error) {
	height, err := safe.Int64(tx.BlockHeight)
	if err != nil {
		return nil, fmt.Errorf("transaction %s block height: %w", tx.Hash, err)
	}
	gasLimit, err := safe.Int64(tx.GasLimit)
	if err != nil {
		return nil, fmt.Errorf("transaction %s gas limit: %w", tx.Hash, err)
	}
	nonce, err := safe.Int64(tx.Nonce)
	if err != nil {
		return nil, fmt.Errorf("transaction %s nonce: %w", tx.Hash, err)
	}
	chainID, err := safe.Int64(tx.ChainID)
	if err != nil {
		return nil, fmt.Errorf("transaction %s chain id: %w", tx.Hash, err)
	}
	return []any{
		tx.Hash,
		int16(tx.Type),
		tx.AccessList,
		tx.BlockHash,
		height,
		tx.Timestamp,
		int64(tx.TransactionIndex),
		tx.From,
		tx.To,
		tx.Value,
		tx.GasPrice,
		gasLimit,
		nonce,
		tx.Data,
		tx.Creates,
		chainID,
	}, nil
}
