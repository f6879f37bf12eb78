package filestore

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/tambank/tam-ledger-go/internal/domain"
)

var transactionColumns = []string{
	"TransactionId", "Date", "FromAccount", "ToAccount", "Amount", "Description",
}

// Append adds rows to the transaction log, creating the file and header
// on first use. Existing rows are never rewritten: a crash mid-append at
// most loses the newest record, it can never corrupt history.
func (s *Store) Append(ctx context.Context, records ...domain.TransactionRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(records) == 0 {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(s.transactionsPath), 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	f, err := os.OpenFile(s.transactionsPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open transactions table: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat transactions table: %w", err)
	}

	w := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := w.Write(transactionColumns); err != nil {
			return fmt.Errorf("write transactions header: %w", err)
		}
	}
	for _, r := range records {
		row := []string{
			r.TransactionID,
			r.Date.Format(TimeLayout),
			r.FromAccount,
			r.ToAccount,
			r.Amount.String(),
			r.Description,
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("append transaction %s: %w", r.TransactionID, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush transactions table: %w", err)
	}
	return f.Sync()
}

// LoadForAccount scans the log for rows touching the given account.
// Rows with an unparsable amount are logged and skipped; an unparsable
// date is replaced with the load time rather than aborting the scan.
func (s *Store) LoadForAccount(ctx context.Context, accountNumber string) ([]domain.TransactionRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	idx, rows, err := s.readAll(s.transactionsPath)
	if err != nil {
		return nil, err
	}

	var records []domain.TransactionRecord
	for i, row := range rows {
		from := field(row, idx, "FromAccount")
		to := field(row, idx, "ToAccount")
		if from != accountNumber && to != accountNumber {
			continue
		}

		amount, err := decimal.NewFromString(field(row, idx, "Amount"))
		if err != nil {
			s.logger.Warn("skipping transaction row with unparsable amount",
				zap.String("transaction_id", field(row, idx, "TransactionId")),
				zap.Int("row", i+2),
			)
			continue
		}

		date, err := time.Parse(TimeLayout, field(row, idx, "Date"))
		if err != nil {
			date = s.now()
			s.logger.Warn("unparsable transaction date, substituting load time",
				zap.String("transaction_id", field(row, idx, "TransactionId")),
				zap.String("date", field(row, idx, "Date")),
			)
		}

		records = append(records, domain.TransactionRecord{
			TransactionID: field(row, idx, "TransactionId"),
			Date:          date,
			FromAccount:   from,
			ToAccount:     to,
			Amount:        amount,
			Description:   field(row, idx, "Description"),
		})
	}
	return records, nil
}

// CountSince counts log rows dated at or after t. Rows whose date cannot
// be parsed are not counted.
func (s *Store) CountSince(ctx context.Context, t time.Time) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	idx, rows, err := s.readAll(s.transactionsPath)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, row := range rows {
		date, err := time.Parse(TimeLayout, field(row, idx, "Date"))
		if err != nil {
			continue
		}
		if !date.Before(t) {
			count++
		}
	}
	return count, nil
}

// RedactAccount replaces the given account number with the [DELETED]
// placeholder wherever it appears in the log. History is immutable —
// rows are kept, only the identity within them is scrubbed.
func (s *Store) RedactAccount(ctx context.Context, accountNumber string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	idx, rows, err := s.readAll(s.transactionsPath)
	if err != nil {
		return err
	}
	if rows == nil {
		return nil // nothing ever logged
	}

	fromIdx, okFrom := idx["FromAccount"]
	toIdx, okTo := idx["ToAccount"]
	if !okFrom || !okTo {
		return fmt.Errorf("transactions table missing account columns")
	}

	redacted := 0
	for _, row := range rows {
		if fromIdx < len(row) && row[fromIdx] == accountNumber {
			row[fromIdx] = domain.CounterpartyRedacted
			redacted++
		}
		if toIdx < len(row) && row[toIdx] == accountNumber {
			row[toIdx] = domain.CounterpartyRedacted
			redacted++
		}
	}
	if redacted == 0 {
		return nil
	}

	header := make([]string, len(idx))
	for name, i := range idx {
		if i < len(header) {
			header[i] = name
		}
	}

	err = s.atomicWrite(s.transactionsPath, func(w *csv.Writer) error {
		if err := w.Write(header); err != nil {
			return err
		}
		return w.WriteAll(rows)
	})
	if err != nil {
		return err
	}

	s.logger.Info("account number redacted from transaction history",
		zap.String("account_number", accountNumber),
		zap.Int("fields", redacted),
	)
	return nil
}
