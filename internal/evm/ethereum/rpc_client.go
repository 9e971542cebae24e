package ethereum

import (
	"context"
	"encoding/json"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/ethclient"
)

// RPCClient wraps go-ethereum's client with metrics instrumentation.
type RPCClient struct {
	client     *ethclient.Client
	rpcMetrics RPCMetrics
}

// NewRPCClient constructs an instrumented RPC client.
func NewRPCClient(client *ethclient.Client, rpcMetrics RPCMetrics) *RPCClient {
	return &RPCClient{
		client:     client,
		rpcMetrics: rpcMetrics,
	}
}

// BlockNumber returns the most recent block number reported by the node.
func (r *RPCClient) BlockNumber(ctx context.Context) (number uint64, err error) {
	started := time.Now()
	defer func() {
		r.rpcMetrics.Observe("eth_block_number", err, started)
	}()
	return r.client.BlockNumber(ctx)
}

// ChainID returns the chain id the node is configured for.
func (r *RPCClient) ChainID(ctx context.Context) (id *big.Int, err error) {
	started := time.Now()
	defer func() {
		r.rpcMetrics.Observe("eth_chain_id", err, started)
	}()
	return r.client.ChainID(ctx)
}

// GetBlockByNumber returns the undecoded block with full transaction objects.
// A nil or "null" result means the node has no block at that height yet.
func (r *RPCClient) GetBlockByNumber(ctx context.Context, height uint64) (raw json.RawMessage, err error) {
	started := time.Now()
	defer func() {
		r.rpcMetrics.Observe("eth_get_block_by_number", err, started)
	}()
	err = r.client.Client().CallContext(ctx, &raw, "eth_getBlockByNumber", hexutil.EncodeUint64(height), true)
	return raw, err
}
