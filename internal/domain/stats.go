package domain

import "github.com/shopspring/decimal"

// SystemStats is the aggregate snapshot served to admin dashboards.
// The reserved admin account is excluded from every figure.
type SystemStats struct {
	TotalAccounts      int
	CountsByStatus     map[Status]int
	TotalBalance       decimal.Decimal
	RecentTransactions int
	RecentWindowDays   int
}

// BalanceDrift reports one account whose cached balance disagrees with
// the signed sum of its transaction log.
type BalanceDrift struct {
	AccountNumber string
	Cached        decimal.Decimal
	Recomputed    decimal.Decimal
}

// Diff returns cached minus recomputed.
func (d BalanceDrift) Diff() decimal.Decimal {
	return d.Cached.Sub(d.Recomputed)
}
