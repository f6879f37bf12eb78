package service

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"strconv"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/tambank/tam-ledger-go/internal/domain"
)

// StatementEntry is one line of an account's statement: the underlying
// record plus the amount as seen from the viewing account (negative when
// money left it).
type StatementEntry struct {
	Record domain.TransactionRecord
	Amount decimal.Decimal
}

// CreateAccount opens a new account: allocates a fresh number, hashes the
// password, records the opening deposit when the initial balance is
// positive, and persists before returning the new account number.
func (s *LedgerService) CreateAccount(ctx context.Context, req domain.CreateAccountRequest) (string, error) {
	ctx, span := ledgerTracer.Start(ctx, "LedgerService.CreateAccount")
	defer span.End()
	defer s.track("create_account")()

	if req.InitialBalance.IsNegative() {
		return "", &domain.ErrInvalidAmount{Amount: req.InitialBalance}
	}

	var hash string
	if req.Password != "" {
		var err error
		hash, err = s.hasher.Hash(req.Password)
		if err != nil {
			return "", fmt.Errorf("hash password: %w", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	number, err := s.allocateNumberLocked()
	if err != nil {
		return "", err
	}
	span.SetAttributes(attribute.String("account.number", number))

	now := s.now()
	acct := domain.NewAccount(number, req.FirstName, req.LastName, req.MobileNumber, req.Email, req.InitialBalance, now)
	acct.PasswordHash = hash
	s.accounts[number] = acct

	var rec *domain.TransactionRecord
	if req.InitialBalance.IsPositive() {
		r := domain.NewDeposit(number, req.InitialBalance, "Initial deposit", now)
		rec = &r
	}
	rollback := func() { delete(s.accounts, number) }
	if err := s.commitLocked(ctx, "create_account", rec, rollback); err != nil {
		return "", err
	}

	s.logger.Info("account created",
		zap.String("account_number", number),
		zap.String("initial_balance", req.InitialBalance.String()),
	)
	return number, nil
}

// allocateNumberLocked draws random numbers from the configured range
// until it finds a free one. The range holds tens of thousands of
// numbers, so the bounded retry loop fails only when the space is close
// to exhausted.
func (s *LedgerService) allocateNumberLocked() (string, error) {
	width := s.settings.AccountNumberMax - s.settings.AccountNumberMin
	for i := 0; i < s.settings.MaxNumberRetries; i++ {
		n := s.settings.AccountNumberMin + rand.Intn(width+1)
		number := strconv.Itoa(n)
		if _, taken := s.accounts[number]; !taken {
			return number, nil
		}
	}
	return "", &domain.ErrIdentifierSpaceExhausted{Attempts: s.settings.MaxNumberRetries}
}

// UpdateAccountProfile applies a partial profile update. Blank fields in
// the update mean "leave unchanged"; balances and status are untouched.
func (s *LedgerService) UpdateAccountProfile(ctx context.Context, accountNumber string, upd domain.ProfileUpdate) error {
	ctx, span := ledgerTracer.Start(ctx, "LedgerService.UpdateAccountProfile")
	defer span.End()
	span.SetAttributes(attribute.String("account.number", accountNumber))
	defer s.track("update_profile")()

	if upd.IsEmpty() {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	acct, ok := s.accounts[accountNumber]
	if !ok {
		return &domain.ErrNotFound{Resource: "account", ID: accountNumber}
	}

	before := *acct
	if upd.FirstName != "" {
		acct.FirstName = upd.FirstName
	}
	if upd.LastName != "" {
		acct.LastName = upd.LastName
	}
	if upd.MobileNumber != "" {
		acct.MobileNumber = upd.MobileNumber
	}
	if upd.Email != "" {
		acct.Email = upd.Email
	}

	rollback := func() { *acct = before }
	if err := s.commitLocked(ctx, "update_profile", nil, rollback); err != nil {
		return err
	}

	s.logger.Info("profile updated", zap.String("account_number", accountNumber))
	return nil
}

// CloseAccount marks an account Closed. The balance must be zero first:
// the caller withdraws or transfers remaining funds before closing.
// Closed is terminal; the account and its history remain on record.
func (s *LedgerService) CloseAccount(ctx context.Context, accountNumber string) error {
	ctx, span := ledgerTracer.Start(ctx, "LedgerService.CloseAccount")
	defer span.End()
	span.SetAttributes(attribute.String("account.number", accountNumber))
	defer s.track("close_account")()

	s.mu.Lock()
	defer s.mu.Unlock()

	acct, ok := s.accounts[accountNumber]
	if !ok {
		return &domain.ErrNotFound{Resource: "account", ID: accountNumber}
	}
	if acct.Status == domain.StatusClosed {
		return &domain.ErrStatusTransition{AccountNumber: accountNumber, From: acct.Status, To: domain.StatusClosed}
	}

	before := acct.Status
	if err := acct.Close(); err != nil {
		return err
	}

	rec := domain.NewSystemEvent(accountNumber, "Account closed", s.now())
	rollback := func() { acct.Status = before }
	if err := s.commitLocked(ctx, "close_account", &rec, rollback); err != nil {
		return err
	}

	s.logger.Info("account closed", zap.String("account_number", accountNumber))
	return nil
}

// DeleteAccount removes a zero-balance account entirely and redacts its
// number from the transaction log, leaving the rows themselves in place
// so other accounts' histories stay complete. The presentation layer
// restricts this to the admin identity.
func (s *LedgerService) DeleteAccount(ctx context.Context, accountNumber string) error {
	ctx, span := ledgerTracer.Start(ctx, "LedgerService.DeleteAccount")
	defer span.End()
	span.SetAttributes(attribute.String("account.number", accountNumber))
	defer s.track("delete_account")()

	s.mu.Lock()
	defer s.mu.Unlock()

	acct, ok := s.accounts[accountNumber]
	if !ok {
		return &domain.ErrNotFound{Resource: "account", ID: accountNumber}
	}
	if !acct.Balance.IsZero() {
		return &domain.ErrNonZeroBalance{AccountNumber: accountNumber, Balance: acct.Balance}
	}

	delete(s.accounts, accountNumber)
	rollback := func() { s.accounts[accountNumber] = acct }
	if err := s.commitLocked(ctx, "delete_account", nil, rollback); err != nil {
		return err
	}

	// Redaction is best effort: the account row is already gone, and a
	// partially redacted log is still append-only and consistent.
	if err := s.journal.RedactAccount(ctx, accountNumber); err != nil {
		s.metrics.IncrPersistenceError("redact_account")
		s.logger.Error("transaction redaction failed",
			zap.String("account_number", accountNumber), zap.Error(err),
		)
	}
	s.history.Invalidate(accountNumber)

	s.logger.Info("account deleted", zap.String("account_number", accountNumber))
	return nil
}

// SuspendAccount freezes an account administratively. Active and
// Inactive accounts may be suspended; Closed is terminal.
func (s *LedgerService) SuspendAccount(ctx context.Context, accountNumber string) error {
	return s.transition(ctx, "suspend_account", accountNumber, domain.StatusSuspended,
		"Account suspended", domain.StatusActive, domain.StatusInactive)
}

// RestoreAccount lifts an administrative suspension.
func (s *LedgerService) RestoreAccount(ctx context.Context, accountNumber string) error {
	return s.transition(ctx, "restore_account", accountNumber, domain.StatusActive,
		"Account restored", domain.StatusSuspended)
}

// ReactivateAccount returns a dormant account to Active so it can move
// money again.
func (s *LedgerService) ReactivateAccount(ctx context.Context, accountNumber string) error {
	return s.transition(ctx, "reactivate_account", accountNumber, domain.StatusActive,
		"Account reactivated", domain.StatusInactive)
}

// transition applies a status change that is only legal from the given
// source statuses, narrating it with a zero-amount SYSTEM record.
func (s *LedgerService) transition(ctx context.Context, op, accountNumber string, to domain.Status, narration string, from ...domain.Status) error {
	ctx, span := ledgerTracer.Start(ctx, "LedgerService."+op)
	defer span.End()
	span.SetAttributes(attribute.String("account.number", accountNumber))
	defer s.track(op)()

	s.mu.Lock()
	defer s.mu.Unlock()

	acct, ok := s.accounts[accountNumber]
	if !ok {
		return &domain.ErrNotFound{Resource: "account", ID: accountNumber}
	}

	legal := false
	for _, f := range from {
		if acct.Status == f {
			legal = true
			break
		}
	}
	if !legal {
		return &domain.ErrStatusTransition{AccountNumber: accountNumber, From: acct.Status, To: to}
	}

	before := acct.Status
	acct.Status = to
	rec := domain.NewSystemEvent(accountNumber, narration, s.now())
	rollback := func() { acct.Status = before }
	if err := s.commitLocked(ctx, op, &rec, rollback); err != nil {
		return err
	}

	s.logger.Info("status changed",
		zap.String("account_number", accountNumber),
		zap.String("from", string(before)),
		zap.String("to", string(to)),
	)
	return nil
}

// GetAccount returns a copy of one account.
func (s *LedgerService) GetAccount(ctx context.Context, accountNumber string) (*domain.Account, error) {
	_, span := ledgerTracer.Start(ctx, "LedgerService.GetAccount")
	defer span.End()
	span.SetAttributes(attribute.String("account.number", accountNumber))

	s.mu.Lock()
	defer s.mu.Unlock()

	acct, ok := s.accounts[accountNumber]
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "account", ID: accountNumber}
	}
	return acct.Clone(), nil
}

// GetAllAccounts returns copies of every customer account, sorted by
// number. The admin identity is not a customer and is left out.
func (s *LedgerService) GetAllAccounts(ctx context.Context) []*domain.Account {
	_, span := ledgerTracer.Start(ctx, "LedgerService.GetAllAccounts")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*domain.Account, 0, len(s.accounts))
	for _, a := range s.accounts {
		if isAdmin(a.AccountNumber) {
			continue
		}
		out = append(out, a.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].AccountNumber < out[j].AccountNumber
	})
	return out
}

// GetAccountTransactions returns the account's statement, newest first,
// with each amount signed from the account's own point of view.
func (s *LedgerService) GetAccountTransactions(ctx context.Context, accountNumber string) ([]StatementEntry, error) {
	ctx, span := ledgerTracer.Start(ctx, "LedgerService.GetAccountTransactions")
	defer span.End()
	span.SetAttributes(attribute.String("account.number", accountNumber))
	defer s.track("get_transactions")()

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[accountNumber]; !ok {
		return nil, &domain.ErrNotFound{Resource: "account", ID: accountNumber}
	}

	recs, err := s.historyLocked(ctx, accountNumber)
	if err != nil {
		return nil, &domain.ErrPersistence{Op: "load transactions", Err: err}
	}

	entries := make([]StatementEntry, 0, len(recs))
	for _, r := range recs {
		entries = append(entries, StatementEntry{
			Record: r,
			Amount: r.SignedAmountFor(accountNumber),
		})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Record.Date.After(entries[j].Record.Date)
	})
	return entries, nil
}
