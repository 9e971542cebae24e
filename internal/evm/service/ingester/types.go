package ingester

import (
	"context"
	"encoding/json"
	"time"

	"github.com/goodnatureofminers/blockinsight7000-evm/internal/evm/chain"
	"github.com/goodnatureofminers/blockinsight7000-evm/internal/evm/model"
)

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=$GOPACKAGE

type (
	ChainReader interface {
		CurrentHeight(ctx context.Context) (uint64, error)
		FetchBlock(ctx context.Context, height uint64) (*chain.RawBlock, error)
	}
	LedgerStore interface {
		WriteBlock(ctx context.Context, b model.LedgerBlock) error
		MaxBlockHeight(ctx context.Context) (uint64, bool, error)
	}
	Archive interface {
		Add(height uint64, raw json.RawMessage, records model.LedgerBlock)
	}
	Metrics interface {
		ObserveProcessHeight(err error, height uint64, started time.Time)
		SetTipHeight(height uint64)
		SetNextHeight(height uint64)
		SetState(state string)
		ObserveFault(kind string)
	}
	ProgressTracker interface {
		Next(ctx context.Context) (uint64, error)
	}
	BlockProcessor interface {
		Process(ctx context.Context, height uint64) error
	}
)
