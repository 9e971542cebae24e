package ethereum

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/goodnatureofminers/blockinsight7000-evm/internal/evm/chain"
	"github.com/goodnatureofminers/blockinsight7000-evm/internal/evm/normalize"
)

var nullResult = []byte("null")

// Reader implements chain.Reader over an EVM JSON-RPC node.
type Reader struct {
	client NodeClient

	mu      sync.Mutex
	chainID string
}

// NewReader creates a Reader backed by the given node client.
func NewReader(client NodeClient) *Reader {
	return &Reader{client: client}
}

// CurrentHeight returns the node's tip height.
func (r *Reader) CurrentHeight(ctx context.Context) (uint64, error) {
	height, err := r.client.BlockNumber(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: block number: %v", chain.ErrNodeUnavailable, err)
	}
	return height, nil
}

// FetchBlock returns the block at height with its transactions, or chain.ErrNotYetAvailable
// when the node has not produced it yet.
func (r *Reader) FetchBlock(ctx context.Context, height uint64) (*chain.RawBlock, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	raw, err := r.client.GetBlockByNumber(ctx, height)
	if err != nil {
		return nil, fmt.Errorf("%w: get block %d: %v", chain.ErrNodeUnavailable, height, err)
	}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, nullResult) {
		return nil, fmt.Errorf("block %d: %w", height, chain.ErrNotYetAvailable)
	}

	var block chain.RawBlock
	if err := json.Unmarshal(trimmed, &block); err != nil {
		return nil, fmt.Errorf("%w: decode block %d: %v", chain.ErrMalformedResponse, height, err)
	}
	number, err := normalize.HexToUint64(block.Number)
	if err != nil {
		return nil, fmt.Errorf("%w: block %d number: %v", chain.ErrMalformedResponse, height, err)
	}
	if number != height {
		return nil, fmt.Errorf("%w: requested block %d, node returned %d", chain.ErrMalformedResponse, height, number)
	}
	block.Raw = trimmed

	if err := r.fillChainID(ctx, block.Transactions); err != nil {
		return nil, err
	}
	return &block, nil
}

// fillChainID sets the node's chain id on transactions that do not carry one (pre EIP-155).
func (r *Reader) fillChainID(ctx context.Context, txs []chain.RawTransaction) error {
	for i := range txs {
		if txs[i].ChainID != "" {
			continue
		}
		id, err := r.nodeChainID(ctx)
		if err != nil {
			return err
		}
		txs[i].ChainID = id
	}
	return nil
}

func (r *Reader) nodeChainID(ctx context.Context) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.chainID != "" {
		return r.chainID, nil
	}
	id, err := r.client.ChainID(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: chain id: %v", chain.ErrNodeUnavailable, err)
	}
	r.chainID = hexutil.EncodeBig(id)
	return r.chainID, nil
}
