// Package ethereum implements the chain reader and block conversion for EVM JSON-RPC nodes.
package ethereum

import (
	"context"
	"encoding/json"
	"math/big"
	"time"
)

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=$GOPACKAGE

type (
	// RPCMetrics records metrics for RPC calls.
	RPCMetrics interface {
		Observe(operation string, err error, started time.Time)
	}
	// NodeClient is the subset of node RPC calls the Reader depends on.
	NodeClient interface {
		BlockNumber(ctx context.Context) (uint64, error)
		ChainID(ctx context.Context) (*big.Int, error)
		GetBlockByNumber(ctx context.Context, height uint64) (json.RawMessage, error)
	}
)
