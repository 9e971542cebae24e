// Package main runs the EVM ledger ingester.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/goodnatureofminers/blockinsight7000-evm/internal/evm/archive"
	"github.com/goodnatureofminers/blockinsight7000-evm/internal/evm/ethereum"
	"github.com/goodnatureofminers/blockinsight7000-evm/internal/evm/model"
	"github.com/goodnatureofminers/blockinsight7000-evm/internal/evm/service/ingester"
	"github.com/goodnatureofminers/blockinsight7000-evm/internal/metrics"
	"github.com/goodnatureofminers/blockinsight7000-evm/internal/migrations"
	"github.com/jessevdk/go-flags"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type config struct {
	RPCURL           string        `long:"rpc-url" env:"EVM_INGESTER_RPC_URL" description:"JSON-RPC endpoint of the chain node (http, https, ws or wss)" default:"http://127.0.0.1:8545"`
	RPCTimeout       time.Duration `long:"rpc-timeout" env:"EVM_INGESTER_RPC_TIMEOUT" description:"HTTP timeout for RPC requests" default:"30s"`
	WSURL            string        `long:"ws-url" env:"EVM_INGESTER_WS_URL" description:"optional websocket endpoint for new head notifications"`
	LedgerDSN        string        `long:"ledger-dsn" env:"EVM_INGESTER_LEDGER_DSN" description:"ledger DSN, clickhouse:// or postgres://" required:"true"`
	Chain            model.Chain   `long:"chain" env:"EVM_INGESTER_CHAIN" description:"chain name used in logs and metrics" default:"scroll"`
	GenesisHeight    uint64        `long:"genesis-height" env:"EVM_INGESTER_GENESIS_HEIGHT" description:"first height to ingest into an empty ledger" default:"0"`
	ArchivePath      string        `long:"archive-path" env:"EVM_INGESTER_ARCHIVE_PATH" description:"optional JSON lines file receiving every ingested raw block"`
	MetricsAddr      string        `long:"metrics-addr" env:"EVM_INGESTER_METRICS_ADDR" description:"address for metrics server" default:":2112"`
	LogJSON          bool          `long:"log-json" env:"EVM_INGESTER_LOG_JSON" description:"emit production JSON logs"`
	Migrate          bool          `long:"migrate" env:"EVM_INGESTER_MIGRATE" description:"apply ledger migrations before ingesting"`
	MigrationsDir    string        `long:"migrations-dir" env:"EVM_INGESTER_MIGRATIONS_DIR" description:"root of the migration files" default:"migrations"`
	TipPollInterval  time.Duration `long:"tip-poll-interval" env:"EVM_INGESTER_TIP_POLL_INTERVAL" description:"wait before retrying a height above the tip" default:"2s"`
	FaultInterval    time.Duration `long:"fault-interval" env:"EVM_INGESTER_FAULT_INTERVAL" description:"wait after a node or storage fault" default:"2s"`
	FaultMaxInterval time.Duration `long:"fault-max-interval" env:"EVM_INGESTER_FAULT_MAX_INTERVAL" description:"cap for exponential fault backoff; constant backoff when not above fault-interval" default:"0s"`
}

func main() {
	cfg := config{}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if _, err := flags.Parse(&cfg); err != nil {
		var ferr *flags.Error
		if errors.As(err, &ferr) && ferr.Type == flags.ErrHelp {
			return
		}
		os.Exit(2)
	}

	logger, err := newLogger(cfg.LogJSON)
	if err != nil {
		panic("can't initialize zap logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync()
	}()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("evm ingester failed", zap.Error(err))
	}
}

func newLogger(production bool) (*zap.Logger, error) {
	if production {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

func run(ctx context.Context, cfg config, logger *zap.Logger) error {
	logger = logger.With(zap.String("chain", string(cfg.Chain)))
	startMetricsServer(ctx, cfg.MetricsAddr, logger)

	backend, err := migrations.Backend(cfg.LedgerDSN)
	if err != nil {
		return err
	}
	if cfg.Migrate {
		dir := migrations.Dir(cfg.MigrationsDir, backend)
		if err := migrations.Up(cfg.LedgerDSN, dir, logger.Named("migrations")); err != nil {
			return fmt.Errorf("apply migrations: %w", err)
		}
	}

	store, err := openLedgerStore(ctx, backend, cfg.LedgerDSN)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warn("close ledger store", zap.Error(err))
		}
	}()

	client, err := dialNode(ctx, cfg.RPCURL, cfg.RPCTimeout)
	if err != nil {
		return fmt.Errorf("init evm rpc client: %w", err)
	}
	defer client.Close()

	rpcClient := ethereum.NewRPCClient(client, metrics.NewRPCClient(cfg.Chain))
	chainID, err := rpcClient.ChainID(ctx)
	if err != nil {
		return fmt.Errorf("query chain id: %w", err)
	}
	logger.Info("connected to node", zap.String("backend", backend), zap.Stringer("chain_id", chainID))

	var sink ingester.Archive
	if cfg.ArchivePath != "" {
		a, err := archive.Open(cfg.ArchivePath, logger.Named("archive"))
		if err != nil {
			return err
		}
		a.Start(context.WithoutCancel(ctx))
		defer func() {
			if err := a.Close(); err != nil {
				logger.Warn("close archive", zap.Error(err))
			}
			logger.Info("archive closed", zap.Uint64("dropped", a.Dropped()))
		}()
		sink = a
	}

	headSignal, err := startHeadSignal(ctx, cfg.WSURL, logger.Named("headSignal"))
	if err != nil {
		return err
	}

	svc, err := ingester.NewService(
		ethereum.NewReader(rpcClient),
		store,
		sink,
		metrics.NewIngester(cfg.Chain),
		logger.Named("ingester"),
		ingester.Config{
			Chain:            cfg.Chain,
			GenesisHeight:    cfg.GenesisHeight,
			TipPollInterval:  cfg.TipPollInterval,
			FaultInterval:    cfg.FaultInterval,
			FaultMaxInterval: cfg.FaultMaxInterval,
			HeadSignal:       headSignal,
		},
	)
	if err != nil {
		return err
	}
	if err := svc.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func dialNode(ctx context.Context, rawURL string, timeout time.Duration) (*ethclient.Client, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse rpc url: %w", err)
	}
	if parsed.Host == "" {
		return nil, errors.New("rpc url missing host")
	}

	var opts []rpc.ClientOption
	switch parsed.Scheme {
	case "http", "https":
		opts = append(opts, rpc.WithHTTPClient(&http.Client{Timeout: timeout}))
	case "ws", "wss":
	default:
		return nil, fmt.Errorf("rpc url scheme %q not supported, use http(s) or ws(s)", parsed.Scheme)
	}

	c, err := rpc.DialOptions(ctx, rawURL, opts...)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", parsed.Redacted(), err)
	}
	return ethclient.NewClient(c), nil
}

func startMetricsServer(ctx context.Context, addr string, logger *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", handleHealthz)

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("starting metrics server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", zap.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("failed to shutdown metrics server", zap.Error(err))
		}
	}()
}

func handleHealthz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
