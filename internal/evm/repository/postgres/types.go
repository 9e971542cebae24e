package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=$GOPACKAGE
//go:generate mockgen -destination=pgx_mocks_test.go -package=$GOPACKAGE github.com/jackc/pgx/v5 BatchResults,Row

type (
	// Metrics records repository operation outcomes.
	Metrics interface {
		Observe(operation string, err error, started time.Time)
	}
	// DB is the part of *pgxpool.Pool the repository uses.
	DB interface {
		Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
		QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
		SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
		Ping(ctx context.Context) error
		Close()
	}
)
