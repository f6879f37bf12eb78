package filestore_test

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/tambank/tam-ledger-go/internal/domain"
	"github.com/tambank/tam-ledger-go/internal/infra/filestore"
)

func newStore(t *testing.T) (*filestore.Store, string) {
	t.Helper()
	dir := t.TempDir()
	return filestore.New(dir, zaptest.NewLogger(t)), dir
}

func sampleAccount(number string, balance string) *domain.Account {
	bal, _ := decimal.NewFromString(balance)
	return &domain.Account{
		AccountNumber: number,
		FirstName:     "Maria",
		LastName:      "Santos",
		MobileNumber:  "09171234567",
		Email:         "maria@example.com",
		Balance:       bal,
		Status:        domain.StatusActive,
		DateOpened:    time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC),
		PasswordHash:  "deadbeef",
	}
}

func TestLoadAccounts_MissingFileIsEmptyState(t *testing.T) {
	store, _ := newStore(t)

	accounts, err := store.LoadAccounts(context.Background())
	require.NoError(t, err)
	assert.Empty(t, accounts)
}

func TestSaveLoadAccounts_RoundTrip(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()

	in := []*domain.Account{
		sampleAccount("20213344", "1250.50"),
		sampleAccount("20219876", "0"),
	}
	in[1].Status = domain.StatusClosed
	in[1].PasswordHash = ""

	require.NoError(t, store.SaveAccounts(ctx, in))

	out, err := store.LoadAccounts(ctx)
	require.NoError(t, err)
	require.Len(t, out, 2)

	for i := range in {
		assert.Equal(t, in[i].AccountNumber, out[i].AccountNumber)
		assert.Equal(t, in[i].FirstName, out[i].FirstName)
		assert.Equal(t, in[i].LastName, out[i].LastName)
		assert.Equal(t, in[i].MobileNumber, out[i].MobileNumber)
		assert.Equal(t, in[i].Email, out[i].Email)
		assert.True(t, in[i].Balance.Equal(out[i].Balance), "balance mismatch for %s", in[i].AccountNumber)
		assert.Equal(t, in[i].Status, out[i].Status)
		assert.Equal(t, in[i].PasswordHash, out[i].PasswordHash)
		assert.True(t, in[i].DateOpened.Equal(out[i].DateOpened.UTC()))
	}
}

func TestSaveLoadAccounts_EmptySet(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveAccounts(ctx, nil))

	out, err := store.LoadAccounts(ctx)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestLoadAccounts_SkipsCorruptRow(t *testing.T) {
	store, dir := newStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveAccounts(ctx, []*domain.Account{
		sampleAccount("20211111", "100"),
		sampleAccount("20212222", "200"),
	}))

	// Corrupt the middle of the file: balance that is not a number.
	path := filepath.Join(dir, "accounts.csv")
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	corrupted := append(raw, []byte("20213333,Juan,Cruz,0917,juan@x.com,NOT_A_NUMBER,2024-01-01 00:00:00,Active,\n")...)
	require.NoError(t, os.WriteFile(path, corrupted, 0o644))

	out, err := store.LoadAccounts(ctx)
	require.NoError(t, err, "one bad row must not fail the whole load")
	require.Len(t, out, 2)
	assert.Equal(t, "20211111", out[0].AccountNumber)
	assert.Equal(t, "20212222", out[1].AccountNumber)
}

func TestLoadAccounts_HeaderReorderTolerated(t *testing.T) {
	store, dir := newStore(t)
	ctx := context.Background()

	// Hand-write a table with shuffled columns and missing optional ones.
	path := filepath.Join(dir, "accounts.csv")
	f, err := os.Create(path)
	require.NoError(t, err)
	w := csv.NewWriter(f)
	require.NoError(t, w.Write([]string{"Balance", "AccountNumber", "FirstName", "LastName", "DateOpened"}))
	require.NoError(t, w.Write([]string{"75.25", "20214455", "Ana", "Reyes", "2023-06-01 09:00:00"}))
	w.Flush()
	require.NoError(t, f.Close())

	out, err := store.LoadAccounts(ctx)
	require.NoError(t, err)
	require.Len(t, out, 1)

	a := out[0]
	assert.Equal(t, "20214455", a.AccountNumber)
	assert.Equal(t, "Ana", a.FirstName)
	assert.True(t, a.Balance.Equal(decimal.RequireFromString("75.25")))
	assert.Equal(t, domain.StatusActive, a.Status, "missing status column defaults to Active")
	assert.Empty(t, a.PasswordHash, "missing hash column defaults to empty")
}

func TestLoadAccounts_BadDateSubstituted(t *testing.T) {
	store, dir := newStore(t)
	ctx := context.Background()

	path := filepath.Join(dir, "accounts.csv")
	f, err := os.Create(path)
	require.NoError(t, err)
	w := csv.NewWriter(f)
	require.NoError(t, w.Write([]string{"AccountNumber", "FirstName", "LastName", "Balance", "DateOpened", "Status"}))
	require.NoError(t, w.Write([]string{"20217777", "Jose", "Rizal", "10", "last tuesday", "Active"}))
	w.Flush()
	require.NoError(t, f.Close())

	before := time.Now().Add(-time.Minute)
	out, err := store.LoadAccounts(ctx)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.True(t, out[0].DateOpened.After(before), "unparsable date falls back to load time")
}
