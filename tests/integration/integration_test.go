package integration_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tambank/tam-ledger-go/internal/domain"
	"github.com/tambank/tam-ledger-go/internal/infra/cache"
	"github.com/tambank/tam-ledger-go/internal/infra/filestore"
	"github.com/tambank/tam-ledger-go/internal/infra/observability"
	"github.com/tambank/tam-ledger-go/internal/infra/password"
	"github.com/tambank/tam-ledger-go/internal/infra/resilience"
	"github.com/tambank/tam-ledger-go/internal/service"
)

// TestIntegration_FullFlow drives a customer lifecycle end to end against
// a real data directory: open, log in, move money, go dormant, come back,
// close, and confirm everything survives a restart.
func TestIntegration_FullFlow(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	current := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	settings := service.DefaultSettings()
	settings.Retry = resilience.Config{MaxRetries: 1, InitialBackoff: 10 * time.Millisecond}
	settings.Now = func() time.Time { return current }

	newLedger := func() *service.LedgerService {
		logger := zap.NewNop()
		store := filestore.New(dir, logger)
		ledger, err := service.NewLedgerService(
			ctx,
			store,
			store,
			password.NewHasher(),
			cache.NewHistory(5*time.Minute),
			settings,
			observability.NewMetrics(),
			logger,
		)
		require.NoError(t, err)
		return ledger
	}

	ledger := newLedger()

	// --- Open two accounts ---
	alice, err := ledger.CreateAccount(ctx, domain.CreateAccountRequest{
		FirstName:      "Alice",
		LastName:       "Reyes",
		InitialBalance: decimal.NewFromInt(1000),
		MobileNumber:   "09170000001",
		Email:          "alice@example.com",
		Password:       "alice-pw",
	})
	require.NoError(t, err)

	bob, err := ledger.CreateAccount(ctx, domain.CreateAccountRequest{
		FirstName:      "Bob",
		LastName:       "Lim",
		InitialBalance: decimal.NewFromInt(200),
		MobileNumber:   "09170000002",
		Email:          "bob@example.com",
		Password:       "bob-pw",
	})
	require.NoError(t, err)
	require.NotEqual(t, alice, bob)

	// --- Log in and move money ---
	greeting, err := ledger.Authenticate(ctx, alice, "alice-pw")
	require.NoError(t, err)
	assert.Equal(t, "Welcome, Alice Reyes", greeting)

	current = current.Add(time.Hour)
	_, err = ledger.Deposit(ctx, alice, decimal.NewFromInt(500))
	require.NoError(t, err)
	_, err = ledger.Transfer(ctx, alice, bob, decimal.NewFromInt(300), "Dinner split")
	require.NoError(t, err)
	_, err = ledger.Withdraw(ctx, bob, decimal.NewFromInt(100))
	require.NoError(t, err)

	// --- Dormancy: Alice disappears for four months ---
	current = current.Add(120 * 24 * time.Hour)
	_, err = ledger.Authenticate(ctx, alice, "alice-pw")
	require.NoError(t, err)

	acct, err := ledger.GetAccount(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusInactive, acct.Status)

	require.NoError(t, ledger.ReactivateAccount(ctx, alice))

	// --- Drain and close Bob ---
	_, err = ledger.Withdraw(ctx, bob, decimal.NewFromInt(400))
	require.NoError(t, err)
	require.NoError(t, ledger.CloseAccount(ctx, bob))

	// --- The books balance ---
	drifts, err := ledger.VerifyBalances(ctx)
	require.NoError(t, err)
	assert.Empty(t, drifts)

	stats, err := ledger.GetSystemStatistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalAccounts)
	assert.Equal(t, 1, stats.CountsByStatus[domain.StatusActive])
	assert.Equal(t, 1, stats.CountsByStatus[domain.StatusClosed])
	assert.True(t, stats.TotalBalance.Equal(decimal.NewFromInt(1200)))

	// --- Restart: everything is on disk ---
	restarted := newLedger()

	acct, err = restarted.GetAccount(ctx, alice)
	require.NoError(t, err)
	assert.True(t, acct.Balance.Equal(decimal.NewFromInt(1200)))
	assert.Equal(t, domain.StatusActive, acct.Status)

	acct, err = restarted.GetAccount(ctx, bob)
	require.NoError(t, err)
	assert.True(t, acct.Balance.IsZero())
	assert.Equal(t, domain.StatusClosed, acct.Status)

	entries, err := restarted.GetAccountTransactions(ctx, alice)
	require.NoError(t, err)
	assert.NotEmpty(t, entries)

	drifts, err = restarted.VerifyBalances(ctx)
	require.NoError(t, err)
	assert.Empty(t, drifts)
}
