package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/polyglot-labs/award-watcher/internal/adapter"
	"github.com/polyglot-labs/award-watcher/internal/chain"
	"github.com/polyglot-labs/award-watcher/internal/config"
	"github.com/polyglot-labs/award-watcher/internal/logger"
	"github.com/polyglot-labs/award-watcher/internal/registry"
	"github.com/polyglot-labs/award-watcher/internal/resolver"
	"github.com/polyglot-labs/award-watcher/internal/store"
	"github.com/polyglot-labs/award-watcher/internal/watcher"
)

var (
	configFile = flag.String("config", "", "Path to configuration file")
	envPath    = flag.String("env", "config/", "Path to environment files")
)

func main() {
	flag.Parse()

	// Load configuration
	config.ChdirRepoRoot()
	cfg, err := config.LoadWatcherConfig(*configFile, *envPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize logger with sentry integration
	err = logger.Initialize(logger.Config{
		Debug:     cfg.Debug,
		SentryDSN: cfg.SentryDSN,
		Tags: map[string]string{
			"service": "award-watcher",
		},
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Flush(2 * time.Second)
	logger.InfoCtx(ctx, "Starting Award Watcher")

	// Build the contract registry
	entries := make([]registry.MonitoredContract, 0, len(cfg.Watcher.Contracts))
	for _, c := range cfg.Watcher.Contracts {
		entries = append(entries, registry.MonitoredContract{
			Address: c.Address,
			Kind:    c.Kind,
			Level:   c.Level,
		})
	}
	contractRegistry, err := registry.New(entries)
	if err != nil {
		logger.FatalCtx(ctx, "Invalid contract registry", zap.Error(err))
	}

	// Connect to database
	db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{})
	if err != nil {
		logger.FatalCtx(ctx, "Failed to connect to database", zap.Error(err))
	}
	if err := store.ConfigureConnectionPool(db,
		cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns,
		cfg.Database.ConnMaxLifetime, cfg.Database.ConnMaxIdleTime); err != nil {
		logger.FatalCtx(ctx, "Failed to configure connection pool", zap.Error(err))
	}
	logger.InfoCtx(ctx, "Connected to database")

	dataStore := store.NewPGStore(db)
	clockAdapter := adapter.NewClock()

	// Dial the chain
	ethDialer := adapter.NewEthClientDialer()
	ethClient, err := ethDialer.Dial(ctx, cfg.Ethereum.WebSocketURL)
	if err != nil {
		logger.FatalCtx(ctx, "Failed to dial Ethereum RPC", zap.Error(err), zap.String("websocket_url", cfg.Ethereum.WebSocketURL))
	}
	chainClient := chain.NewClient(ethClient)
	defer chainClient.Close()
	logger.InfoCtx(ctx, "Connected to Ethereum WebSocket")

	// Assemble the reconciliation pipeline
	userResolver := resolver.New(dataStore)
	handler := watcher.NewHandler(userResolver, dataStore, clockAdapter, cfg.Watcher.WriteTimeout)
	supervisor := watcher.NewSupervisor(
		contractRegistry,
		chainClient,
		handler,
		dataStore,
		watcher.Config{
			StartBlock:      cfg.Ethereum.StartBlock,
			CursorSaveFreq:  cfg.Watcher.CursorSaveFreq,
			CursorSaveDelay: cfg.Watcher.CursorSaveDelay,
		},
		clockAdapter,
	)

	// Setup signal handling
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// Channel for supervisor completion
	doneCh := make(chan error, 1)
	go func() {
		doneCh <- supervisor.Run(ctx)
	}()

	// Wait for shutdown signal or supervisor exit
	select {
	case sig := <-sigCh:
		logger.InfoCtx(ctx, "Received shutdown signal", zap.String("signal", sig.String()))
		cancel()
		<-doneCh
	case err := <-doneCh:
		if err != nil {
			logger.ErrorCtx(ctx, err, zap.String("component", "supervisor"))
		}
		cancel()
	}

	// Use non-context logger for the final message since context is canceled
	logger.Info("Award Watcher stopped")
}
