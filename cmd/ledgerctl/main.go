// ledgerctl is the operator tool for a tam-ledger data directory.
//
// Usage:
//
//	ledgerctl stats    print the system-wide account and activity snapshot
//	ledgerctl verify   recompute every balance from the transaction log
//	                   and report drift (exit code 1 when drift is found)
package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/tambank/tam-ledger-go/internal/config"
	"github.com/tambank/tam-ledger-go/internal/domain"
	"github.com/tambank/tam-ledger-go/internal/infra/cache"
	"github.com/tambank/tam-ledger-go/internal/infra/filestore"
	"github.com/tambank/tam-ledger-go/internal/infra/observability"
	"github.com/tambank/tam-ledger-go/internal/infra/password"
	"github.com/tambank/tam-ledger-go/internal/infra/resilience"
	"github.com/tambank/tam-ledger-go/internal/service"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: ledgerctl <stats|verify>")
		os.Exit(2)
	}
	cmd := os.Args[1]

	// --- Load .env file (for local development) ---
	_ = config.LoadDotEnv(".env")

	// --- Config ---
	cfg := config.Load()

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.String("data_dir", cfg.DataDir),
		zap.String("log_level", cfg.LogLevel),
		zap.Duration("dormancy_window", cfg.DormancyWindow),
		zap.Duration("stats_window", cfg.StatsWindow),
		zap.Duration("history_cache_ttl", cfg.HistoryCacheTTL),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Duration("initial_backoff", cfg.InitialBackoff),
	)

	// --- Tracing ---
	shutdown, err := observability.InitTracer(cfg.OTLPEndpoint, "tam-ledger")
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdown(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Storage ---
	store := filestore.New(cfg.DataDir, logger)

	// --- Service ---
	settings := service.DefaultSettings()
	settings.DormancyWindow = cfg.DormancyWindow
	settings.StatsWindow = cfg.StatsWindow
	settings.AccountNumberMin = cfg.AccountNumberMin
	settings.AccountNumberMax = cfg.AccountNumberMax
	settings.MaxNumberRetries = cfg.MaxNumberRetries
	settings.Retry = resilience.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
	}

	ctx := context.Background()
	ledger, err := service.NewLedgerService(
		ctx,
		store,
		store,
		password.NewHasher(),
		cache.NewHistory(cfg.HistoryCacheTTL),
		settings,
		metrics,
		logger,
	)
	if err != nil {
		logger.Fatal("failed to load ledger", zap.Error(err))
	}

	switch cmd {
	case "stats":
		runStats(ctx, ledger, logger)
	case "verify":
		runVerify(ctx, ledger, logger)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\nusage: ledgerctl <stats|verify>\n", cmd)
		os.Exit(2)
	}
}

func runStats(ctx context.Context, ledger *service.LedgerService, logger *zap.Logger) {
	stats, err := ledger.GetSystemStatistics(ctx)
	if err != nil {
		logger.Fatal("stats failed", zap.Error(err))
	}

	fmt.Printf("Accounts:            %d\n", stats.TotalAccounts)
	for _, st := range []domain.Status{domain.StatusActive, domain.StatusInactive, domain.StatusSuspended, domain.StatusClosed} {
		fmt.Printf("  %-18s %d\n", string(st)+":", stats.CountsByStatus[st])
	}
	fmt.Printf("Total balance:       PHP %s\n", stats.TotalBalance.StringFixed(2))
	fmt.Printf("Transactions (%dd):   %d\n", stats.RecentWindowDays, stats.RecentTransactions)
}

func runVerify(ctx context.Context, ledger *service.LedgerService, logger *zap.Logger) {
	drifts, err := ledger.VerifyBalances(ctx)
	if err != nil {
		logger.Fatal("verify failed", zap.Error(err))
	}
	if len(drifts) == 0 {
		fmt.Println("OK: all cached balances match the transaction log")
		return
	}

	fmt.Printf("DRIFT: %d account(s) disagree with the transaction log\n", len(drifts))
	for _, d := range drifts {
		fmt.Printf("  %s cached=%s recomputed=%s diff=%s\n",
			d.AccountNumber, d.Cached.StringFixed(2), d.Recomputed.StringFixed(2), d.Diff().StringFixed(2))
	}
	os.Exit(1)
}
