package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Counterparty sentinels used in the transaction log.
const (
	// CounterpartyCash marks a withdrawal paid out as cash.
	CounterpartyCash = "CASH"
	// CounterpartySystem marks a zero-amount status-change narration.
	CounterpartySystem = "SYSTEM"
	// CounterpartyRedacted replaces the number of a hard-deleted account.
	CounterpartyRedacted = "[DELETED]"
)

// TransactionRecord is one append-only row of the transaction log.
// Amount is always the positive magnitude of the movement; the sign is
// derived per viewing account, never stored.
type TransactionRecord struct {
	TransactionID string
	Date          time.Time
	FromAccount   string
	ToAccount     string
	Amount        decimal.Decimal
	Description   string
}

// NewDeposit records external cash-in: from == to denotes the account
// funding itself from outside the ledger.
func NewDeposit(accountNumber string, amount decimal.Decimal, description string, at time.Time) TransactionRecord {
	return TransactionRecord{
		TransactionID: uuid.New().String(),
		Date:          at,
		FromAccount:   accountNumber,
		ToAccount:     accountNumber,
		Amount:        amount,
		Description:   description,
	}
}

// NewWithdrawal records cash leaving the ledger.
func NewWithdrawal(accountNumber string, amount decimal.Decimal, at time.Time) TransactionRecord {
	return TransactionRecord{
		TransactionID: uuid.New().String(),
		Date:          at,
		FromAccount:   accountNumber,
		ToAccount:     CounterpartyCash,
		Amount:        amount,
		Description:   "Withdrawal",
	}
}

// NewTransfer records an atomic two-account movement as a single row.
func NewTransfer(fromAccount, toAccount string, amount decimal.Decimal, description string, at time.Time) TransactionRecord {
	return TransactionRecord{
		TransactionID: uuid.New().String(),
		Date:          at,
		FromAccount:   fromAccount,
		ToAccount:     toAccount,
		Amount:        amount,
		Description:   description,
	}
}

// NewSystemEvent records a zero-amount narration of a system-driven
// status change (dormancy flip, reactivation).
func NewSystemEvent(accountNumber, description string, at time.Time) TransactionRecord {
	return TransactionRecord{
		TransactionID: uuid.New().String(),
		Date:          at,
		FromAccount:   accountNumber,
		ToAccount:     CounterpartySystem,
		Amount:        decimal.Zero,
		Description:   description,
	}
}

// Touches reports whether the record affects the given account.
func (r TransactionRecord) Touches(accountNumber string) bool {
	return r.FromAccount == accountNumber || r.ToAccount == accountNumber
}

// SignedAmountFor returns the amount as seen from the given account:
// negative when money left it, positive when money arrived. A deposit
// (from == to) and a SYSTEM event are non-negative by construction.
func (r TransactionRecord) SignedAmountFor(accountNumber string) decimal.Decimal {
	if r.FromAccount == accountNumber && r.FromAccount != r.ToAccount && r.ToAccount != CounterpartySystem {
		return r.Amount.Neg()
	}
	return r.Amount
}
