// Package migrations applies the ledger schema with golang-migrate.
package migrations

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/ClickHouse/clickhouse-go/v2"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/clickhouse"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"go.uber.org/zap"
)

const (
	BackendClickHouse = "clickhouse"
	BackendPostgres   = "postgres"
)

// Backend reports which ledger store a DSN addresses.
func Backend(dsn string) (string, error) {
	u, err := url.Parse(dsn)
	if err != nil {
		return "", fmt.Errorf("parse ledger dsn: %w", err)
	}
	switch u.Scheme {
	case "clickhouse":
		return BackendClickHouse, nil
	case "postgres", "postgresql":
		return BackendPostgres, nil
	default:
		return "", fmt.Errorf("ledger dsn scheme %q not supported, use clickhouse:// or postgres://", u.Scheme)
	}
}

// Dir returns the migrations directory of a backend below root.
func Dir(root, backend string) string {
	return filepath.Join(root, backend)
}

// Up applies every pending migration in dir to the ledger at dsn.
func Up(dsn, dir string, logger *zap.Logger) error {
	m, err := newMigrator(dsn, dir)
	if err != nil {
		return err
	}
	defer func() {
		srcErr, dbErr := m.Close()
		if srcErr != nil {
			logger.Warn("migration source close error", zap.Error(srcErr))
		}
		if dbErr != nil {
			logger.Warn("migration database close error", zap.Error(dbErr))
		}
	}()

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			logger.Info("no migrations to apply", zap.String("dir", dir))
			return nil
		}
		return fmt.Errorf("migrate up: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil {
		return fmt.Errorf("read migration version: %w", err)
	}
	logger.Info("migrations applied", zap.String("dir", dir), zap.Uint("version", version), zap.Bool("dirty", dirty))
	return nil
}

func newMigrator(dsn, dir string) (*migrate.Migrate, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve migrations dir: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("stat migrations dir %s: %w", abs, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", abs)
	}

	databaseURL, err := DatabaseURL(dsn)
	if err != nil {
		return nil, err
	}

	sourceURL := fmt.Sprintf("file://%s", filepath.ToSlash(abs))
	m, err := migrate.New(sourceURL, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("init migrate: %w", err)
	}
	return m, nil
}

// DatabaseURL rewrites a ledger DSN into the URL the matching migrate driver expects.
// ClickHouse migrations hold several statements per file; PostgreSQL goes through pgx v5.
func DatabaseURL(dsn string) (string, error) {
	backend, err := Backend(dsn)
	if err != nil {
		return "", err
	}
	switch backend {
	case BackendClickHouse:
		if strings.Contains(dsn, "x-multi-statement=") {
			return dsn, nil
		}
		separator := "?"
		if strings.Contains(dsn, "?") {
			separator = "&"
		}
		return dsn + separator + "x-multi-statement=true", nil
	default:
		_, rest, _ := strings.Cut(dsn, "://")
		return "pgx5://" + rest, nil
	}
}
