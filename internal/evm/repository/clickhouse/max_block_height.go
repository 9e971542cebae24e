package clickhouse

import (
	"context"
	"fmt"
	"time"
)

// Duplicate rows share hash and therefore height, so the query reads parts as they are.
const maxBlockHeightQuery = `
SELECT count() AS blocks, max(height) AS max_height
FROM evm_blocks`

// MaxBlockHeight returns the highest stored height. found is false for an empty table.
func (r *Repository) MaxBlockHeight(ctx context.Context) (height uint64, found bool, err error) {
	start := time.Now()
	defer func() {
		r.metrics.Observe("max_block_height", err, start)
	}()

	rows, err := r.conn.Query(ctx, maxBlockHeightQuery)
	if err != nil {
		return 0, false, fmt.Errorf("query max block height: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close rows: %w", closeErr)
		}
	}()

	if !rows.Next() {
		if err = rows.Err(); err != nil {
			return 0, false, fmt.Errorf("iterate max block height: %w", err)
		}
		return 0, false, fmt.Errorf("max block height not found")
	}

	var blocks uint64
	if err = rows.Scan(&blocks, &height); err != nil {
		return 0, false, fmt.Errorf("scan max block height: %w", err)
	}
	if err = rows.Err(); err != nil {
		return 0, false, fmt.Errorf("iterate max block height: %w", err)
	}

	if blocks == 0 {
		return 0, false, nil
	}
	return height, true, nil
}
