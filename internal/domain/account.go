// Package domain defines the core ledger model: accounts, transaction
// records, account status, and the typed errors shared across layers.
// No persistence or presentation concerns live here.
package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Status is the lifecycle state of an account.
type Status string

const (
	StatusActive    Status = "Active"
	StatusInactive  Status = "Inactive"
	StatusSuspended Status = "Suspended"
	StatusClosed    Status = "Closed"
)

// ParseStatus maps a stored status string to a Status, defaulting to
// Active for unknown or empty values (legacy rows carry no status column).
func ParseStatus(s string) Status {
	switch Status(s) {
	case StatusInactive, StatusSuspended, StatusClosed:
		return Status(s)
	default:
		return StatusActive
	}
}

// CanTransact reports whether money movement is permitted in this status.
// Only Active accounts move money; Inactive permits login but nothing else.
func (s Status) CanTransact() bool {
	return s == StatusActive
}

// CanAuthenticate reports whether login is permitted in this status.
func (s Status) CanAuthenticate() bool {
	return s == StatusActive || s == StatusInactive
}

// Account is the in-memory representation of one bank account.
// Balance is a cached value derived from the transaction log; the log is
// the source of truth for balance history.
type Account struct {
	AccountNumber string
	FirstName     string
	LastName      string
	MobileNumber  string
	Email         string
	Balance       decimal.Decimal
	Status        Status
	DateOpened    time.Time
	PasswordHash  string
}

// NewAccount builds an Active account with the given profile and number.
// The caller validates the initial balance and records the opening
// transaction; this stays a pure constructor.
func NewAccount(accountNumber, firstName, lastName, mobile, email string, balance decimal.Decimal, opened time.Time) *Account {
	return &Account{
		AccountNumber: accountNumber,
		FirstName:     firstName,
		LastName:      lastName,
		MobileNumber:  mobile,
		Email:         email,
		Balance:       balance,
		Status:        StatusActive,
		DateOpened:    opened,
	}
}

// FullName returns the display name used in welcome messages.
func (a *Account) FullName() string {
	return fmt.Sprintf("%s %s", a.FirstName, a.LastName)
}

// Deposit increases the balance. Rejects non-positive amounts and any
// status other than Active. Returns the new balance.
func (a *Account) Deposit(amount decimal.Decimal) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return a.Balance, &ErrInvalidAmount{Amount: amount}
	}
	if !a.Status.CanTransact() {
		return a.Balance, &ErrAccountNotActive{AccountNumber: a.AccountNumber, Status: a.Status}
	}
	a.Balance = a.Balance.Add(amount)
	return a.Balance, nil
}

// Withdraw decreases the balance. Rejects non-positive amounts, non-Active
// status, and amounts exceeding the balance — the balance never goes
// negative. Returns the new balance.
func (a *Account) Withdraw(amount decimal.Decimal) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return a.Balance, &ErrInvalidAmount{Amount: amount}
	}
	if !a.Status.CanTransact() {
		return a.Balance, &ErrAccountNotActive{AccountNumber: a.AccountNumber, Status: a.Status}
	}
	if amount.GreaterThan(a.Balance) {
		return a.Balance, &ErrInsufficientFunds{Available: a.Balance, Required: amount}
	}
	a.Balance = a.Balance.Sub(amount)
	return a.Balance, nil
}

// Close marks the account Closed. Only a zero-balance account may close;
// Closed is terminal and blocks all further money movement.
func (a *Account) Close() error {
	if !a.Balance.IsZero() {
		return &ErrNonZeroBalance{AccountNumber: a.AccountNumber, Balance: a.Balance}
	}
	a.Status = StatusClosed
	return nil
}

// Clone returns a copy so callers outside the service's critical section
// never hold a pointer into shared mutable state.
func (a *Account) Clone() *Account {
	cp := *a
	return &cp
}
