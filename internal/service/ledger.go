// Package service provides the business logic layer (use cases).
// LedgerService is the single authority over the account collection:
// all cross-account operations and all persistence timing live here.
package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/tambank/tam-ledger-go/internal/domain"
	"github.com/tambank/tam-ledger-go/internal/infra/observability"
	"github.com/tambank/tam-ledger-go/internal/infra/resilience"
	"github.com/tambank/tam-ledger-go/internal/port"
)

var ledgerTracer = otel.Tracer("service/ledger")

// AdminAccountNumber is the reserved identifier that bypasses status
// gating and dormancy and is excluded from customer-facing figures.
const AdminAccountNumber = "admin"

// Settings tunes the ledger's behavioral knobs.
type Settings struct {
	DormancyWindow   time.Duration
	StatsWindow      time.Duration
	AccountNumberMin int
	AccountNumberMax int
	MaxNumberRetries int
	Retry            resilience.Config

	// Now overrides the clock; nil means time.Now. Tests use it to
	// exercise time-dependent rules like dormancy.
	Now func() time.Time
}

// DefaultSettings mirrors the production configuration defaults.
func DefaultSettings() Settings {
	return Settings{
		DormancyWindow:   90 * 24 * time.Hour,
		StatsWindow:      7 * 24 * time.Hour,
		AccountNumberMin: 20210000,
		AccountNumberMax: 20230000,
		MaxNumberRetries: 1000,
		Retry:            resilience.Config{MaxRetries: 2, InitialBackoff: 50 * time.Millisecond},
	}
}

// LedgerService owns the in-memory account map, loaded once at startup
// and treated as authoritative until each mutating call re-persists it.
// A single mutex serializes every mutation: contention is negligible at
// this scale and the global lock makes transfers trivially deadlock-free.
type LedgerService struct {
	mu       sync.Mutex
	accounts map[string]*domain.Account

	store   port.AccountStore
	journal port.TransactionLog
	hasher  port.CredentialHasher
	history port.HistoryCache

	settings Settings
	metrics  *observability.Metrics
	logger   *zap.Logger
	now      func() time.Time
}

// NewLedgerService loads the full account set via the durable store and
// returns the ready service. A missing accounts table is the normal
// empty state, not an error.
func NewLedgerService(
	ctx context.Context,
	store port.AccountStore,
	journal port.TransactionLog,
	hasher port.CredentialHasher,
	history port.HistoryCache,
	settings Settings,
	metrics *observability.Metrics,
	logger *zap.Logger,
) (*LedgerService, error) {
	accounts, err := store.LoadAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("load accounts: %w", err)
	}

	byNumber := make(map[string]*domain.Account, len(accounts))
	for _, a := range accounts {
		byNumber[a.AccountNumber] = a
	}

	now := settings.Now
	if now == nil {
		now = time.Now
	}

	s := &LedgerService{
		accounts: byNumber,
		store:    store,
		journal:  journal,
		hasher:   hasher,
		history:  history,
		settings: settings,
		metrics:  metrics,
		logger:   logger,
		now:      now,
	}

	logger.Info("ledger loaded", zap.Int("accounts", len(byNumber)))
	return s, nil
}

// ============================================================
// Money movement
// ============================================================

// Deposit credits an account from outside the ledger. Success is not
// reported until the transaction row and the account table are durable.
func (s *LedgerService) Deposit(ctx context.Context, accountNumber string, amount decimal.Decimal) (string, error) {
	ctx, span := ledgerTracer.Start(ctx, "LedgerService.Deposit")
	defer span.End()
	span.SetAttributes(attribute.String("account.number", accountNumber))
	defer s.track("deposit")()

	s.mu.Lock()
	defer s.mu.Unlock()

	acct, ok := s.accounts[accountNumber]
	if !ok {
		return "", &domain.ErrNotFound{Resource: "account", ID: accountNumber}
	}

	before := acct.Balance
	newBalance, err := acct.Deposit(amount)
	if err != nil {
		return "", err
	}

	rec := domain.NewDeposit(accountNumber, amount, "Deposit", s.now())
	if err := s.commitLocked(ctx, "deposit", &rec, func() { acct.Balance = before }); err != nil {
		return "", err
	}

	s.logger.Info("deposit",
		zap.String("account_number", accountNumber),
		zap.String("amount", amount.String()),
	)
	return fmt.Sprintf("Deposited PHP %s. New balance: PHP %s.", amount.StringFixed(2), newBalance.StringFixed(2)), nil
}

// Withdraw debits an account, paying out as cash.
func (s *LedgerService) Withdraw(ctx context.Context, accountNumber string, amount decimal.Decimal) (string, error) {
	ctx, span := ledgerTracer.Start(ctx, "LedgerService.Withdraw")
	defer span.End()
	span.SetAttributes(attribute.String("account.number", accountNumber))
	defer s.track("withdraw")()

	s.mu.Lock()
	defer s.mu.Unlock()

	acct, ok := s.accounts[accountNumber]
	if !ok {
		return "", &domain.ErrNotFound{Resource: "account", ID: accountNumber}
	}

	before := acct.Balance
	newBalance, err := acct.Withdraw(amount)
	if err != nil {
		return "", err
	}

	rec := domain.NewWithdrawal(accountNumber, amount, s.now())
	if err := s.commitLocked(ctx, "withdraw", &rec, func() { acct.Balance = before }); err != nil {
		return "", err
	}

	s.logger.Info("withdrawal",
		zap.String("account_number", accountNumber),
		zap.String("amount", amount.String()),
	)
	return fmt.Sprintf("Withdrew PHP %s. New balance: PHP %s.", amount.StringFixed(2), newBalance.StringFixed(2)), nil
}

// Transfer moves money between two accounts, all or nothing: either both
// balance changes and the single transaction record commit, or neither
// does. Both sides are validated before either is touched, and the
// whole mutation happens inside one critical section.
func (s *LedgerService) Transfer(ctx context.Context, fromNumber, toNumber string, amount decimal.Decimal, description string) (string, error) {
	ctx, span := ledgerTracer.Start(ctx, "LedgerService.Transfer")
	defer span.End()
	span.SetAttributes(
		attribute.String("account.from", fromNumber),
		attribute.String("account.to", toNumber),
	)
	defer s.track("transfer")()

	if !amount.IsPositive() {
		return "", &domain.ErrInvalidAmount{Amount: amount}
	}
	if fromNumber == toNumber {
		return "", &domain.ErrSelfTransfer{AccountNumber: fromNumber}
	}
	if description == "" {
		description = "Transfer"
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	from, ok := s.accounts[fromNumber]
	if !ok {
		return "", &domain.ErrNotFound{Resource: "sender account", ID: fromNumber}
	}
	to, ok := s.accounts[toNumber]
	if !ok {
		return "", &domain.ErrNotFound{Resource: "recipient account", ID: toNumber}
	}

	if !from.Status.CanTransact() {
		return "", &domain.ErrAccountNotActive{AccountNumber: fromNumber, Status: from.Status}
	}
	if !to.Status.CanTransact() {
		return "", &domain.ErrAccountNotActive{AccountNumber: toNumber, Status: to.Status}
	}
	if amount.GreaterThan(from.Balance) {
		return "", &domain.ErrInsufficientFunds{Available: from.Balance, Required: amount}
	}

	fromBefore, toBefore := from.Balance, to.Balance
	from.Balance = from.Balance.Sub(amount)
	to.Balance = to.Balance.Add(amount)

	rec := domain.NewTransfer(fromNumber, toNumber, amount, description, s.now())
	rollback := func() {
		from.Balance = fromBefore
		to.Balance = toBefore
	}
	if err := s.commitLocked(ctx, "transfer", &rec, rollback); err != nil {
		return "", err
	}

	s.logger.Info("transfer",
		zap.String("from", fromNumber),
		zap.String("to", toNumber),
		zap.String("amount", amount.String()),
	)
	return fmt.Sprintf("Successfully transferred PHP %s to account %s.", amount.StringFixed(2), toNumber), nil
}

// ============================================================
// Persistence protocol
// ============================================================

// commitLocked makes a mutation durable: it rewrites the account table,
// then appends the transaction record (when there is one). Failure at
// any point runs rollback and reports ErrPersistence — the caller must
// treat the operation as if it never happened. Callers hold s.mu.
func (s *LedgerService) commitLocked(ctx context.Context, op string, rec *domain.TransactionRecord, rollback func()) error {
	if err := s.saveAccountsLocked(ctx); err != nil {
		rollback()
		s.metrics.IncrPersistenceError(op)
		s.logger.Error("account save failed, mutation rolled back",
			zap.String("op", op), zap.Error(err),
		)
		return &domain.ErrPersistence{Op: op, Err: err}
	}

	if rec == nil {
		return nil
	}

	err := resilience.RetryWithBackoff(ctx, s.settings.Retry, func() error {
		return s.journal.Append(ctx, *rec)
	})
	if err != nil {
		rollback()
		// Compensating re-save keeps the table consistent with memory.
		if err2 := s.saveAccountsLocked(ctx); err2 != nil {
			s.logger.Error("compensating account save failed after append failure",
				zap.String("op", op), zap.Error(err2),
			)
		}
		s.metrics.IncrPersistenceError(op)
		return &domain.ErrPersistence{Op: op, Err: err}
	}

	s.history.Invalidate(rec.FromAccount)
	if rec.ToAccount != rec.FromAccount {
		s.history.Invalidate(rec.ToAccount)
	}
	s.metrics.IncrTransaction(op)
	return nil
}

// saveAccountsLocked rewrites the full account table, retrying transient
// I/O errors. Rows are sorted by number so diffs stay readable.
func (s *LedgerService) saveAccountsLocked(ctx context.Context) error {
	snapshot := make([]*domain.Account, 0, len(s.accounts))
	for _, a := range s.accounts {
		snapshot = append(snapshot, a)
	}
	sort.Slice(snapshot, func(i, j int) bool {
		return snapshot[i].AccountNumber < snapshot[j].AccountNumber
	})

	return resilience.RetryWithBackoff(ctx, s.settings.Retry, func() error {
		return s.store.SaveAccounts(ctx, snapshot)
	})
}

// historyLocked returns an account's raw transaction history, serving
// from the cache between appends. Callers hold s.mu.
func (s *LedgerService) historyLocked(ctx context.Context, accountNumber string) ([]domain.TransactionRecord, error) {
	if recs, ok := s.history.Get(accountNumber); ok {
		return recs, nil
	}
	recs, err := s.journal.LoadForAccount(ctx, accountNumber)
	if err != nil {
		return nil, err
	}
	s.history.Set(accountNumber, recs)
	return recs, nil
}

func (s *LedgerService) track(op string) func() {
	start := time.Now()
	return func() { s.metrics.RecordOperationDuration(op, time.Since(start)) }
}

func isAdmin(accountNumber string) bool {
	return accountNumber == AdminAccountNumber
}
