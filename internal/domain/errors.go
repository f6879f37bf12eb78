package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Error types for consistent error handling across the ledger.
// Validation failures are values returned to the caller — never panics —
// so presentation layers can render the message verbatim.

// ErrNotFound indicates an account (or other resource) does not exist.
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ErrInvalidAmount indicates a non-positive or unparsable money amount.
type ErrInvalidAmount struct {
	Amount decimal.Decimal
}

func (e *ErrInvalidAmount) Error() string {
	return fmt.Sprintf("amount must be greater than 0, got %s", e.Amount)
}

// ErrInsufficientFunds indicates not enough balance for the operation.
type ErrInsufficientFunds struct {
	Available decimal.Decimal
	Required  decimal.Decimal
}

func (e *ErrInsufficientFunds) Error() string {
	return fmt.Sprintf("insufficient funds: available=%s required=%s", e.Available, e.Required)
}

// ErrAccountNotActive indicates a money movement was attempted on an
// account whose status gates it. Carries the specific status.
type ErrAccountNotActive struct {
	AccountNumber string
	Status        Status
}

func (e *ErrAccountNotActive) Error() string {
	return fmt.Sprintf("account %s is %s", e.AccountNumber, e.Status)
}

// ErrNonZeroBalance indicates a close or delete on a funded account.
type ErrNonZeroBalance struct {
	AccountNumber string
	Balance       decimal.Decimal
}

func (e *ErrNonZeroBalance) Error() string {
	return fmt.Sprintf("account %s still holds PHP %s; withdraw all funds first", e.AccountNumber, e.Balance.StringFixed(2))
}

// ErrNoPassword indicates an authentication attempt against an account
// that never had a credential set.
type ErrNoPassword struct {
	AccountNumber string
}

func (e *ErrNoPassword) Error() string {
	return fmt.Sprintf("account %s has no password set", e.AccountNumber)
}

// ErrWrongCredential indicates a failed password check.
type ErrWrongCredential struct{}

func (e *ErrWrongCredential) Error() string {
	return "invalid password"
}

// ErrPersistence indicates a durable write failed; the triggering
// mutation was rolled back and must not be considered committed.
type ErrPersistence struct {
	Op  string
	Err error
}

func (e *ErrPersistence) Error() string {
	return fmt.Sprintf("persistence failure during %s: %v", e.Op, e.Err)
}

func (e *ErrPersistence) Unwrap() error {
	return e.Err
}

// ErrIdentifierSpaceExhausted indicates account-number generation gave up
// after the bounded number of collision retries.
type ErrIdentifierSpaceExhausted struct {
	Attempts int
}

func (e *ErrIdentifierSpaceExhausted) Error() string {
	return fmt.Sprintf("could not allocate a free account number after %d attempts", e.Attempts)
}

// ErrSelfTransfer indicates a transfer whose source and destination are
// the same account (that shape is reserved for deposits in the log).
type ErrSelfTransfer struct {
	AccountNumber string
}

func (e *ErrSelfTransfer) Error() string {
	return fmt.Sprintf("cannot transfer from account %s to itself", e.AccountNumber)
}

// ErrStatusTransition indicates an admin status edit that the account
// state machine does not allow (e.g. suspending a Closed account).
type ErrStatusTransition struct {
	AccountNumber string
	From          Status
	To            Status
}

func (e *ErrStatusTransition) Error() string {
	return fmt.Sprintf("account %s cannot move from %s to %s", e.AccountNumber, e.From, e.To)
}
