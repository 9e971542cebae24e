package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/goodnatureofminers/blockinsight7000-evm/pkg/safe"
)

const maxBlockHeightQuery = `SELECT max(height) FROM evm_blocks`

// MaxBlockHeight returns the highest stored height. found is false for an empty table.
func (r *Repository) MaxBlockHeight(ctx context.Context) (height uint64, found bool, err error) {
	start := time.Now()
	defer func() {
		r.metrics.Observe("max_block_height", err, start)
	}()

	var maxHeight *int64
	if err = r.db.QueryRow(ctx, maxBlockHeightQuery).Scan(&maxHeight); err != nil {
		return 0, false, fmt.Errorf("query max block height: %w", err)
	}
	if maxHeight == nil {
		return 0, false, nil
	}
	height, err = safe.Uint64(*maxHeight)
	if err != nil {
		return 0, false, fmt.Errorf("max block height: %w", err)
	}
	return height, true, nil
}
