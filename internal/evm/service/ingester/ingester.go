// Package ingester follows an EVM chain height by height and persists every block to the ledger.
package ingester

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/goodnatureofminers/blockinsight7000-evm/internal/clock"
	"github.com/goodnatureofminers/blockinsight7000-evm/internal/evm/chain"
	"github.com/goodnatureofminers/blockinsight7000-evm/internal/evm/ethereum"
	"github.com/goodnatureofminers/blockinsight7000-evm/internal/evm/model"
	"go.uber.org/zap"
)

type state int

const (
	stateStarting state = iota
	stateCatchingUp
	stateWaitingForNextBlock
	stateBackoff
)

func (s state) String() string {
	switch s {
	case stateStarting:
		return "starting"
	case stateCatchingUp:
		return "catching_up"
	case stateWaitingForNextBlock:
		return "waiting_for_next_block"
	case stateBackoff:
		return "backoff"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Config tunes the indexing loop. Zero durations fall back to the defaults.
type Config struct {
	Chain         model.Chain
	GenesisHeight uint64
	// TipPollInterval bounds the wait for a block above the tip.
	TipPollInterval time.Duration
	// FaultInterval is the first delay after a node or storage fault. When FaultMaxInterval
	// is larger, consecutive faults back off exponentially up to it.
	FaultInterval    time.Duration
	FaultMaxInterval time.Duration
	// HeadSignal, when set, ends a tip wait as soon as the node announces a new head.
	HeadSignal <-chan struct{}
}

// Service ingests contiguous heights starting from the ledger's progress marker.
type Service struct {
	logger          *zap.Logger
	metrics         Metrics
	sleep           func(context.Context, time.Duration, <-chan struct{}) error
	tipPollInterval time.Duration
	faultBackoff    backoff.BackOff
	headSignal      <-chan struct{}
	reader          ChainReader
	tracker         ProgressTracker
	blockProcessor  BlockProcessor
	state           state
	ingested        uint64
}

// NewService wires the indexing loop. archive may be nil.
func NewService(
	reader ChainReader,
	store LedgerStore,
	archive Archive,
	metrics Metrics,
	logger *zap.Logger,
	cfg Config,
) (*Service, error) {
	if reader == nil {
		return nil, errors.New("ingester chain reader is required")
	}
	if store == nil {
		return nil, errors.New("ingester ledger store is required")
	}
	if metrics == nil {
		return nil, errors.New("ingester metrics is required")
	}
	if cfg.TipPollInterval <= 0 {
		cfg.TipPollInterval = tipPollInterval
	}
	if cfg.FaultInterval <= 0 {
		cfg.FaultInterval = faultInterval
	}

	logger = logger.With(zap.String("chain", string(cfg.Chain)))

	return &Service{
		logger:          logger,
		metrics:         metrics,
		sleep:           clock.SleepOrSignal,
		tipPollInterval: cfg.TipPollInterval,
		faultBackoff:    newFaultBackoff(cfg.FaultInterval, cfg.FaultMaxInterval),
		headSignal:      cfg.HeadSignal,
		reader:          reader,
		tracker: &progressTracker{
			store:   store,
			genesis: cfg.GenesisHeight,
		},
		blockProcessor: &blockProcessor{
			reader:       reader,
			store:        store,
			archive:      archive,
			convert:      ethereum.ConvertBlock,
			writeTimeout: writeTimeout,
		},
	}, nil
}

func newFaultBackoff(interval, maxInterval time.Duration) backoff.BackOff {
	if maxInterval <= interval {
		return backoff.NewConstantBackOff(interval)
	}
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = interval
	b.MaxInterval = maxInterval
	b.Multiplier = faultMultiplier
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}

// Run ingests heights until ctx is canceled. Cancellation is observed between heights only.
func (s *Service) Run(ctx context.Context) error {
	s.logger.Info("ingester started")
	defer func() {
		s.logger.Info("ingester stopped", zap.Uint64("ingested", s.ingested))
	}()
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := s.run(ctx)
		switch {
		case err == nil:
			s.faultBackoff.Reset()
		case ctx.Err() != nil:
			return ctx.Err()
		case errors.Is(err, chain.ErrNotYetAvailable):
			s.setState(stateWaitingForNextBlock)
			if sleepErr := s.sleep(ctx, s.tipPollInterval, s.headSignal); sleepErr != nil {
				return sleepErr
			}
		default:
			kind := faultKind(err)
			s.metrics.ObserveFault(kind)
			delay := s.faultBackoff.NextBackOff()
			if delay == backoff.Stop {
				delay = s.tipPollInterval
			}
			s.setState(stateBackoff)
			s.logger.Warn("run iteration failed, backing off",
				zap.String("fault", kind), zap.Error(err), zap.Duration("sleep", delay))
			if sleepErr := s.sleep(ctx, delay, nil); sleepErr != nil {
				return sleepErr
			}
		}
	}
}

func (s *Service) run(ctx context.Context) error {
	s.setState(stateCatchingUp)

	next, err := s.tracker.Next(ctx)
	if err != nil {
		return err
	}
	s.metrics.SetNextHeight(next)

	tip, err := s.reader.CurrentHeight(ctx)
	if err != nil {
		return fmt.Errorf("current height: %w", err)
	}
	s.metrics.SetTipHeight(tip)

	started := time.Now()
	err = s.blockProcessor.Process(ctx, next)
	if errors.Is(err, chain.ErrNotYetAvailable) {
		s.logger.Debug("next block not yet available", zap.Uint64("height", next), zap.Uint64("tip", tip))
		return err
	}
	s.metrics.ObserveProcessHeight(err, next, started)
	if err != nil {
		return err
	}

	s.ingested++
	if next >= tip || s.ingested%progressLogEvery == 0 {
		s.logger.Info("block ingested", zap.Uint64("height", next), zap.Uint64("tip", tip), zap.Uint64("ingested", s.ingested))
	} else {
		s.logger.Debug("block ingested", zap.Uint64("height", next), zap.Uint64("tip", tip))
	}
	return nil
}

func (s *Service) setState(next state) {
	if s.state == next {
		return
	}
	s.logger.Debug("state transition", zap.Stringer("from", s.state), zap.Stringer("to", next))
	s.state = next
	s.metrics.SetState(next.String())
}

func faultKind(err error) string {
	switch {
	case errors.Is(err, chain.ErrNodeUnavailable):
		return "node_unavailable"
	case errors.Is(err, chain.ErrMalformedResponse):
		return "malformed_response"
	case errors.Is(err, chain.ErrStorageUnavailable):
		return "storage_unavailable"
	default:
		return "unknown"
	}
}
