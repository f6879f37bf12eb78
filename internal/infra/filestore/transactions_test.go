package filestore_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tambank/tam-ledger-go/internal/domain"
)

func at(day int) time.Time {
	return time.Date(2025, 5, day, 12, 0, 0, 0, time.UTC)
}

func TestAppendAndLoadForAccount(t *testing.T) {
	store, dir := newStore(t)
	ctx := context.Background()

	amt := decimal.NewFromInt(250)
	require.NoError(t, store.Append(ctx,
		domain.NewDeposit("20211111", amt, "Deposit", at(1)),
		domain.NewTransfer("20211111", "20212222", decimal.NewFromInt(100), "Rent", at(2)),
		domain.NewWithdrawal("20213333", decimal.NewFromInt(40), at(3)),
	))
	// Second append must not duplicate the header row.
	require.NoError(t, store.Append(ctx,
		domain.NewDeposit("20212222", decimal.NewFromInt(5), "Deposit", at(4)),
	))

	raw, err := os.ReadFile(filepath.Join(dir, "transactions.csv"))
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(raw), "TransactionId"), "exactly one header row")

	recs, err := store.LoadForAccount(ctx, "20211111")
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.True(t, recs[0].Amount.Equal(amt))
	assert.Equal(t, "Rent", recs[1].Description)

	recs, err = store.LoadForAccount(ctx, "20212222")
	require.NoError(t, err)
	require.Len(t, recs, 2, "transfer counterparty and own deposit")

	recs, err = store.LoadForAccount(ctx, "99999999")
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestLoadForAccount_MissingFileIsEmpty(t *testing.T) {
	store, _ := newStore(t)

	recs, err := store.LoadForAccount(context.Background(), "20211111")
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestLoadForAccount_SkipsUnparsableAmount(t *testing.T) {
	store, dir := newStore(t)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, domain.NewDeposit("20211111", decimal.NewFromInt(10), "Deposit", at(1))))

	path := filepath.Join(dir, "transactions.csv")
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	bad := append(raw, []byte("tx-bad,2025-05-02 12:00:00,20211111,20211111,not-money,Deposit\n")...)
	require.NoError(t, os.WriteFile(path, bad, 0o644))

	recs, err := store.LoadForAccount(ctx, "20211111")
	require.NoError(t, err)
	require.Len(t, recs, 1, "row with unparsable amount is skipped, not fatal")
}

func TestLoadForAccount_BadDateSubstituted(t *testing.T) {
	store, dir := newStore(t)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, domain.NewDeposit("20211111", decimal.NewFromInt(10), "Deposit", at(1))))

	path := filepath.Join(dir, "transactions.csv")
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	bad := append(raw, []byte("tx-odd,yesterday-ish,20211111,20211111,5,Deposit\n")...)
	require.NoError(t, os.WriteFile(path, bad, 0o644))

	recs, err := store.LoadForAccount(ctx, "20211111")
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.True(t, recs[1].Date.After(at(1)), "unparsable date falls back to load time")
}

func TestCountSince(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx,
		domain.NewDeposit("20211111", decimal.NewFromInt(1), "Deposit", at(1)),
		domain.NewDeposit("20211111", decimal.NewFromInt(2), "Deposit", at(10)),
		domain.NewDeposit("20211111", decimal.NewFromInt(3), "Deposit", at(20)),
	))

	n, err := store.CountSince(ctx, at(10))
	require.NoError(t, err)
	assert.Equal(t, 2, n, "boundary date is inclusive")

	n, err = store.CountSince(ctx, at(25))
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestRedactAccount(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx,
		domain.NewTransfer("20211111", "20212222", decimal.NewFromInt(50), "Gift", at(1)),
		domain.NewDeposit("20212222", decimal.NewFromInt(10), "Deposit", at(2)),
		domain.NewWithdrawal("20213333", decimal.NewFromInt(5), at(3)),
	))

	require.NoError(t, store.RedactAccount(ctx, "20212222"))

	// The redacted number must be gone from the log entirely.
	recs, err := store.LoadForAccount(ctx, "20212222")
	require.NoError(t, err)
	assert.Empty(t, recs)

	// History rows survive, attributed to the placeholder.
	recs, err = store.LoadForAccount(ctx, domain.CounterpartyRedacted)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "Gift", recs[0].Description)

	// Untouched accounts still see their side of history.
	recs, err = store.LoadForAccount(ctx, "20211111")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, domain.CounterpartyRedacted, recs[0].ToAccount)
}

func TestRedactAccount_NoLogIsNoop(t *testing.T) {
	store, _ := newStore(t)
	require.NoError(t, store.RedactAccount(context.Background(), "20210000"))
}
