package main

import (
	"context"
	"fmt"
	"time"

	goethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/goodnatureofminers/blockinsight7000-evm/internal/clock"
	"go.uber.org/zap"
)

const resubscribeDelay = 5 * time.Second

// startHeadSignal subscribes to new heads over a websocket endpoint and coalesces them
// into a one-slot channel. An empty url disables the signal.
func startHeadSignal(ctx context.Context, wsURL string, logger *zap.Logger) (<-chan struct{}, error) {
	if wsURL == "" {
		return nil, nil
	}

	client, err := ethclient.DialContext(ctx, wsURL)
	if err != nil {
		return nil, fmt.Errorf("dial websocket: %w", err)
	}

	heads := make(chan *types.Header, 16)
	sub, err := client.SubscribeNewHead(ctx, heads)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("subscribe new heads: %w", err)
	}

	notify := make(chan struct{}, 1)

	go func() {
		defer client.Close()
		for {
			select {
			case <-ctx.Done():
				sub.Unsubscribe()
				return
			case err := <-sub.Err():
				logger.Warn("new head subscription dropped", zap.Error(err))
				if sub = resubscribe(ctx, client, heads, logger); sub == nil {
					return
				}
			case head := <-heads:
				logger.Debug("new head", zap.Stringer("height", head.Number))
				select {
				case notify <- struct{}{}:
				default:
				}
			}
		}
	}()

	return notify, nil
}

func resubscribe(ctx context.Context, client *ethclient.Client, heads chan<- *types.Header, logger *zap.Logger) goethereum.Subscription {
	for {
		if err := clock.SleepWithContext(ctx, resubscribeDelay); err != nil {
			return nil
		}
		sub, err := client.SubscribeNewHead(ctx, heads)
		if err != nil {
			logger.Warn("resubscribe new heads failed", zap.Error(err))
			continue
		}
		logger.Info("new head subscription restored")
		return sub
	}
}
