package service

import (
	"context"
	"sort"
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/tambank/tam-ledger-go/internal/domain"
)

// GetSystemStatistics aggregates the system-wide snapshot served to the
// admin view. The in-memory aggregation and the journal scan for recent
// activity run concurrently. The admin account is excluded from every
// figure.
func (s *LedgerService) GetSystemStatistics(ctx context.Context) (domain.SystemStats, error) {
	ctx, span := ledgerTracer.Start(ctx, "LedgerService.GetSystemStatistics")
	defer span.End()
	defer s.track("system_stats")()

	s.mu.Lock()
	snapshot := make([]*domain.Account, 0, len(s.accounts))
	for _, a := range s.accounts {
		if isAdmin(a.AccountNumber) {
			continue
		}
		snapshot = append(snapshot, a.Clone())
	}
	s.mu.Unlock()

	stats := domain.SystemStats{
		CountsByStatus:   make(map[domain.Status]int),
		TotalBalance:     decimal.Zero,
		RecentWindowDays: int(s.settings.StatsWindow.Hours() / 24),
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := s.journal.CountSince(ctx, s.now().Add(-s.settings.StatsWindow))
		if err != nil {
			return err
		}
		stats.RecentTransactions = n
		return nil
	})
	g.Go(func() error {
		for _, a := range snapshot {
			stats.TotalAccounts++
			stats.CountsByStatus[a.Status]++
			stats.TotalBalance = stats.TotalBalance.Add(a.Balance)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return domain.SystemStats{}, &domain.ErrPersistence{Op: "system stats", Err: err}
	}

	for _, st := range []domain.Status{domain.StatusActive, domain.StatusInactive, domain.StatusSuspended, domain.StatusClosed} {
		s.metrics.SetAccountCount(string(st), stats.CountsByStatus[st])
	}
	return stats, nil
}

// VerifyBalances recomputes every account's balance from the signed sum
// of its transaction log and reports the accounts whose cached balance
// disagrees. The per-account scans run concurrently; the journal is
// read-only here so no lock is held across the scans.
func (s *LedgerService) VerifyBalances(ctx context.Context) ([]domain.BalanceDrift, error) {
	ctx, span := ledgerTracer.Start(ctx, "LedgerService.VerifyBalances")
	defer span.End()
	defer s.track("verify_balances")()

	s.mu.Lock()
	snapshot := make([]*domain.Account, 0, len(s.accounts))
	for _, a := range s.accounts {
		if isAdmin(a.AccountNumber) {
			continue
		}
		snapshot = append(snapshot, a.Clone())
	}
	s.mu.Unlock()

	var (
		mu     sync.Mutex
		drifts []domain.BalanceDrift
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for _, acct := range snapshot {
		acct := acct
		g.Go(func() error {
			recs, err := s.journal.LoadForAccount(ctx, acct.AccountNumber)
			if err != nil {
				return err
			}
			recomputed := decimal.Zero
			for _, r := range recs {
				recomputed = recomputed.Add(r.SignedAmountFor(acct.AccountNumber))
			}
			if !recomputed.Equal(acct.Balance) {
				mu.Lock()
				drifts = append(drifts, domain.BalanceDrift{
					AccountNumber: acct.AccountNumber,
					Cached:        acct.Balance,
					Recomputed:    recomputed,
				})
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, &domain.ErrPersistence{Op: "verify balances", Err: err}
	}

	sort.Slice(drifts, func(i, j int) bool {
		return drifts[i].AccountNumber < drifts[j].AccountNumber
	})
	if len(drifts) > 0 {
		s.logger.Warn("balance drift detected", zap.Int("accounts", len(drifts)))
	}
	return drifts, nil
}
