package filestore

import (
	"context"
	"encoding/csv"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/tambank/tam-ledger-go/internal/domain"
)

var accountColumns = []string{
	"AccountNumber", "FirstName", "LastName", "MobileNumber", "Email",
	"Balance", "DateOpened", "Status", "PasswordHash",
}

// LoadAccounts parses the accounts table. A missing file is the normal
// empty state. One corrupt row must never prevent loading the rest: rows
// with no account number or an unparsable balance are logged and skipped;
// a missing status defaults to Active, a missing hash to empty, and an
// unparsable DateOpened is replaced with the load time.
func (s *Store) LoadAccounts(ctx context.Context) ([]*domain.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	idx, rows, err := s.readAll(s.accountsPath)
	if err != nil {
		return nil, err
	}

	accounts := make([]*domain.Account, 0, len(rows))
	for i, row := range rows {
		number := field(row, idx, "AccountNumber")
		if number == "" {
			s.logger.Warn("skipping account row without account number",
				zap.Int("row", i+2),
			)
			continue
		}

		balance, err := decimal.NewFromString(field(row, idx, "Balance"))
		if err != nil {
			// Money is never guessed: a row with an unreadable balance
			// is dropped rather than defaulted.
			s.logger.Warn("skipping account row with unparsable balance",
				zap.String("account_number", number),
				zap.String("balance", field(row, idx, "Balance")),
				zap.Int("row", i+2),
			)
			continue
		}

		opened, err := time.Parse(TimeLayout, field(row, idx, "DateOpened"))
		if err != nil {
			opened = s.now()
			s.logger.Warn("unparsable DateOpened, substituting load time",
				zap.String("account_number", number),
				zap.String("date_opened", field(row, idx, "DateOpened")),
			)
		}

		accounts = append(accounts, &domain.Account{
			AccountNumber: number,
			FirstName:     field(row, idx, "FirstName"),
			LastName:      field(row, idx, "LastName"),
			MobileNumber:  field(row, idx, "MobileNumber"),
			Email:         field(row, idx, "Email"),
			Balance:       balance,
			DateOpened:    opened,
			Status:        domain.ParseStatus(field(row, idx, "Status")),
			PasswordHash:  field(row, idx, "PasswordHash"),
		})
	}

	s.logger.Info("accounts loaded",
		zap.Int("count", len(accounts)),
		zap.Int("rows", len(rows)),
	)
	return accounts, nil
}

// SaveAccounts rewrites the whole accounts table atomically. Full-file
// rewrite is acceptable here: the account set is small and changes far
// less often than the transaction log grows.
func (s *Store) SaveAccounts(ctx context.Context, accounts []*domain.Account) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.atomicWrite(s.accountsPath, func(w *csv.Writer) error {
		if err := w.Write(accountColumns); err != nil {
			return err
		}
		for _, a := range accounts {
			row := []string{
				a.AccountNumber,
				a.FirstName,
				a.LastName,
				a.MobileNumber,
				a.Email,
				a.Balance.String(),
				a.DateOpened.Format(TimeLayout),
				string(a.Status),
				a.PasswordHash,
			}
			if err := w.Write(row); err != nil {
				return err
			}
		}
		return nil
	})
}
