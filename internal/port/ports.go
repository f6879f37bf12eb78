// Package port defines the interfaces (ports) for the ledger's external
// dependencies. Following hexagonal architecture, these ports decouple the
// service layer from the concrete file-backed implementations.
package port

import (
	"context"
	"time"

	"github.com/tambank/tam-ledger-go/internal/domain"
)

// AccountStore persists the full account table.
// Loads tolerate partial corruption (bad rows are skipped, not fatal);
// saves are atomic full-table rewrites.
type AccountStore interface {
	LoadAccounts(ctx context.Context) ([]*domain.Account, error)
	SaveAccounts(ctx context.Context, accounts []*domain.Account) error
}

// TransactionLog is the append-only journal of balance movements.
// Existing rows are never mutated; a hard-deleted account's number may be
// redacted in place, but rows are never removed.
type TransactionLog interface {
	Append(ctx context.Context, records ...domain.TransactionRecord) error
	LoadForAccount(ctx context.Context, accountNumber string) ([]domain.TransactionRecord, error)
	CountSince(ctx context.Context, t time.Time) (int, error)
	RedactAccount(ctx context.Context, accountNumber string) error
}

// CredentialHasher produces and checks salted one-way password tokens.
// Verify must be total: malformed tokens yield false, never an error.
type CredentialHasher interface {
	Hash(password string) (string, error)
	Verify(password, token string) bool
}

// HistoryCache caches per-account transaction history between appends.
type HistoryCache interface {
	Get(accountNumber string) ([]domain.TransactionRecord, bool)
	Set(accountNumber string, records []domain.TransactionRecord)
	Invalidate(accountNumber string)
}
