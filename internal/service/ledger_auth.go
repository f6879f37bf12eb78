package service

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/tambank/tam-ledger-go/internal/domain"
)

// Authenticate checks an account's credential and returns a greeting for
// the session. Dormancy is evaluated lazily here: an Active account whose
// last recorded activity is older than the dormancy window is flipped to
// Inactive before the session starts. Inactive accounts may still log in
// (to reactivate); Suspended and Closed accounts may not. The admin
// identity bypasses both rules.
func (s *LedgerService) Authenticate(ctx context.Context, accountNumber, password string) (string, error) {
	ctx, span := ledgerTracer.Start(ctx, "LedgerService.Authenticate")
	defer span.End()
	span.SetAttributes(attribute.String("account.number", accountNumber))
	defer s.track("authenticate")()

	s.mu.Lock()
	defer s.mu.Unlock()

	acct, ok := s.accounts[accountNumber]
	if !ok {
		return "", &domain.ErrNotFound{Resource: "account", ID: accountNumber}
	}
	if acct.PasswordHash == "" {
		return "", &domain.ErrNoPassword{AccountNumber: accountNumber}
	}
	if !s.hasher.Verify(password, acct.PasswordHash) {
		s.logger.Warn("failed login", zap.String("account_number", accountNumber))
		return "", &domain.ErrWrongCredential{}
	}

	if !isAdmin(accountNumber) {
		if err := s.applyDormancyLocked(ctx, acct); err != nil {
			return "", err
		}
		if !acct.Status.CanAuthenticate() {
			return "", &domain.ErrAccountNotActive{AccountNumber: accountNumber, Status: acct.Status}
		}
	}

	s.logger.Info("login", zap.String("account_number", accountNumber))
	return fmt.Sprintf("Welcome, %s", acct.FullName()), nil
}

// applyDormancyLocked flips an Active account to Inactive when its last
// activity predates the dormancy window, narrating the flip in the log.
// Callers hold s.mu.
func (s *LedgerService) applyDormancyLocked(ctx context.Context, acct *domain.Account) error {
	if acct.Status != domain.StatusActive || s.settings.DormancyWindow <= 0 {
		return nil
	}

	last, err := s.lastActivityLocked(ctx, acct)
	if err != nil {
		// History being unreadable must not block login; the flip will
		// happen on a later attempt.
		s.logger.Warn("dormancy check skipped",
			zap.String("account_number", acct.AccountNumber), zap.Error(err),
		)
		return nil
	}
	if s.now().Sub(last) < s.settings.DormancyWindow {
		return nil
	}

	acct.Status = domain.StatusInactive
	rec := domain.NewSystemEvent(acct.AccountNumber, "Account marked inactive due to dormancy", s.now())
	rollback := func() { acct.Status = domain.StatusActive }
	if err := s.commitLocked(ctx, "dormancy_flip", &rec, rollback); err != nil {
		return err
	}

	s.metrics.IncrDormancyFlip()
	s.logger.Info("account dormant",
		zap.String("account_number", acct.AccountNumber),
		zap.Time("last_activity", last),
	)
	return nil
}

// lastActivityLocked returns the newest transaction date touching the
// account, falling back to the opening date for accounts with no history.
func (s *LedgerService) lastActivityLocked(ctx context.Context, acct *domain.Account) (time.Time, error) {
	recs, err := s.historyLocked(ctx, acct.AccountNumber)
	if err != nil {
		return time.Time{}, err
	}
	last := acct.DateOpened
	for _, r := range recs {
		if r.Date.After(last) {
			last = r.Date
		}
	}
	return last, nil
}

// ChangePassword replaces an account's credential after verifying the
// current one. An account created without a password sets its first
// credential with an empty current password.
func (s *LedgerService) ChangePassword(ctx context.Context, accountNumber, current, next string) error {
	ctx, span := ledgerTracer.Start(ctx, "LedgerService.ChangePassword")
	defer span.End()
	span.SetAttributes(attribute.String("account.number", accountNumber))
	defer s.track("change_password")()

	if next == "" {
		return fmt.Errorf("new password must not be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	acct, ok := s.accounts[accountNumber]
	if !ok {
		return &domain.ErrNotFound{Resource: "account", ID: accountNumber}
	}
	if acct.PasswordHash != "" && !s.hasher.Verify(current, acct.PasswordHash) {
		return &domain.ErrWrongCredential{}
	}

	hash, err := s.hasher.Hash(next)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	before := acct.PasswordHash
	acct.PasswordHash = hash
	rollback := func() { acct.PasswordHash = before }
	if err := s.commitLocked(ctx, "change_password", nil, rollback); err != nil {
		return err
	}

	s.logger.Info("password changed", zap.String("account_number", accountNumber))
	return nil
}
