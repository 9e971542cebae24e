package main

import (
	"context"
	"fmt"

	"github.com/goodnatureofminers/blockinsight7000-evm/internal/evm/repository/clickhouse"
	"github.com/goodnatureofminers/blockinsight7000-evm/internal/evm/repository/postgres"
	"github.com/goodnatureofminers/blockinsight7000-evm/internal/evm/service/ingester"
	"github.com/goodnatureofminers/blockinsight7000-evm/internal/metrics"
	"github.com/goodnatureofminers/blockinsight7000-evm/internal/migrations"
)

type ledgerStore interface {
	ingester.LedgerStore
	Close() error
}

func openLedgerStore(ctx context.Context, backend, dsn string) (ledgerStore, error) {
	storeMetrics := metrics.NewLedgerStore(backend)
	switch backend {
	case migrations.BackendClickHouse:
		repo, err := clickhouse.NewRepository(dsn, storeMetrics)
		if err != nil {
			return nil, fmt.Errorf("init clickhouse repository: %w", err)
		}
		if err := repo.Ping(ctx); err != nil {
			_ = repo.Close()
			return nil, err
		}
		return repo, nil
	case migrations.BackendPostgres:
		repo, err := postgres.NewRepository(ctx, dsn, storeMetrics)
		if err != nil {
			return nil, fmt.Errorf("init postgres repository: %w", err)
		}
		return repo, nil
	default:
		return nil, fmt.Errorf("ledger backend %q not supported", backend)
	}
}
