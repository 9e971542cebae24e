package ingester

import (
	"context"
	"fmt"

	"github.com/goodnatureofminers/blockinsight7000-evm/internal/evm/chain"
)

type progressTracker struct {
	store   LedgerStore
	genesis uint64
}

// Next returns the lowest height not yet stored. An empty store, or one whose highest
// height is below the configured genesis, starts at genesis.
func (t *progressTracker) Next(ctx context.Context) (uint64, error) {
	height, found, err := t.store.MaxBlockHeight(ctx)
	if err != nil {
		return 0, fmt.Errorf("read progress: %w: %w", chain.ErrStorageUnavailable, err)
	}
	if !found || height+1 < t.genesis {
		return t.genesis, nil
	}
	return height + 1, nil
}
