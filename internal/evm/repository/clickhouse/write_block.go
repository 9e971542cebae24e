package clickhouse

import (
	"context"

	"github.com/goodnatureofminers/blockinsight7000-evm/internal/evm/model"
)

// WriteBlock stores a block and its transactions. Transactions go first so the
// block row, which drives MaxBlockHeight, only appears once they are durable.
// Repeating an identical write leaves a single row per hash.
func (r *Repository) WriteBlock(ctx context.Context, b model.LedgerBlock) error {
	if err := r.InsertTransactions(ctx, b.Txs); err != nil {
		return err
	}
	return r.InsertBlocks(ctx, []model.Block{b.Block})
}
