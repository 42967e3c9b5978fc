package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	apihttp "github.com/ejspeight/fooswap-backend/internal/api/http"
	"github.com/ejspeight/fooswap-backend/internal/config"
	"github.com/ejspeight/fooswap-backend/internal/indexer"
	"github.com/ejspeight/fooswap-backend/internal/storage/postgres"
	"github.com/ejspeight/fooswap-backend/internal/sui"
)

func main() {
	root := &cobra.Command{
		Use:          "fooswap",
		Short:        "Fooswap DEX indexer and query API",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the event indexer and the HTTP API",
		RunE:  runServe,
	}
	addCommonFlags(serveCmd)
	serveCmd.Flags().String("listen", "127.0.0.1:3000", "HTTP listen address")

	root.AddCommand(serveCmd)

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema and exit",
		RunE:  runMigrate,
	}
	addCommonFlags(migrateCmd)

	root.AddCommand(migrateCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func addCommonFlags(cmd *cobra.Command) {
	cmd.Flags().String("rpc", "https://fullnode.devnet.sui.io:443", "ledger RPC URL")
	cmd.Flags().String("package-id", "", "fooswap contract package ID to filter events by")
	cmd.Flags().String("pg-dsn", "", "Postgres DSN")
	cmd.Flags().Int("page-size", indexer.DefaultPageSize, "events per fetch")
	cmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.PackageID == "" {
		return fmt.Errorf("package id is required")
	}
	if cfg.PGDSN == "" {
		return fmt.Errorf("pg dsn is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := postgres.NewStore(ctx, cfg.PGDSN)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer store.Close()

	if err := store.Ping(ctx); err != nil {
		return fmt.Errorf("ping postgres: %w", err)
	}
	if err := store.Migrate(ctx); err != nil {
		return err
	}

	source, err := sui.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return fmt.Errorf("connect rpc: %w", err)
	}
	defer source.Close()

	runner := indexer.NewRunner(indexer.RunConfig{
		PackageID:    cfg.PackageID,
		PageSize:     cfg.PageSize,
		PollInterval: indexer.DefaultPollInterval,
	}, source, store, logger.Named("indexer"))

	handler := apihttp.NewHandler(store, logger.Named("api"))
	server := apihttp.NewServer(cfg.Listen, apihttp.BuildRouter(handler, logger.Named("http")), logger)

	logger.Info("fooswap backend start",
		zap.String("rpc", cfg.RPCURL),
		zap.String("package_id", cfg.PackageID),
		zap.String("pg_dsn", redactDSN(cfg.PGDSN)),
		zap.String("listen", cfg.Listen),
		zap.Int("page_size", cfg.PageSize),
	)

	go func() {
		if err := runner.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("indexer stopped", zap.Error(err))
		}
	}()

	return server.Run(ctx)
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.PGDSN == "" {
		return fmt.Errorf("pg dsn is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := postgres.NewStore(ctx, cfg.PGDSN)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer store.Close()

	if err := store.Migrate(ctx); err != nil {
		return err
	}

	logger.Info("schema applied", zap.String("pg_dsn", redactDSN(cfg.PGDSN)))
	return nil
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}

func redactDSN(dsn string) string {
	if dsn == "" {
		return dsn
	}
	return "***"
}
