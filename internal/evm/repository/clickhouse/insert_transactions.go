package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/goodnatureofminers/blockinsight7000-evm/internal/evm/model"
)

const insertTransactionsQuery = `
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
) VALUES`

// InsertTransactions stores transaction rows in ClickHouse.
func (r *Repository) InsertTransactions(ctx context.Context, txs []model.Transaction) error {
	start := time.Now()
	var err error
	defer func() {
		r.metrics.Observe("insert_transactions", err, start)
	}()

	if len(txs) == 0 {
		return nil
	}

	batch, err := r.conn.PrepareBatch(ctx, insertTransactionsQuery)
	if err != nil {
		return fmt.Errorf("prepare transactions batch: %w", err)
	}
	defer func() {
		if !batch.IsSent() {
			_ = batch.Abort()
		}
	}()

	for _, tx := range txs {
		if err = batch.Append(
			tx.Hash,
			tx.Type,
			tx.AccessList,
			tx.BlockHash,
			tx.BlockHeight,
			tx.Timestamp,
			tx.TransactionIndex,
			tx.From,
			tx.To,
			tx.Value,
			tx.GasPrice,
			tx.GasLimit,
			tx.Nonce,
			tx.Data,
			tx.Creates,
			tx.ChainID,
		); err != nil {
			return fmt.Errorf("append transaction %s: %w", tx.Hash, err)
		}
	}

	if err = batch.Send(); err != nil {
		return fmt.Errorf("insert transactions: %w", err)
	}
	return nil
}
