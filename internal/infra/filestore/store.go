// Package filestore is the durable store: it translates between the
// in-memory ledger model and two flat CSV tables (accounts, transactions).
// Both tables carry a self-describing header row and are read by column
// name, so reordering or adding optional columns does not break old files.
package filestore

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

// TimeLayout is the single timestamp format written and parsed everywhere.
const TimeLayout = "2006-01-02 15:04:05"

const (
	accountsFile     = "accounts.csv"
	transactionsFile = "transactions.csv"
)

// Store reads and writes the two ledger tables under one data directory.
type Store struct {
	accountsPath     string
	transactionsPath string
	logger           *zap.Logger
	now              func() time.Time
}

// New creates a Store rooted at dataDir. The directory is created lazily
// on first write; a missing directory on load is the normal empty state.
func New(dataDir string, logger *zap.Logger) *Store {
	return &Store{
		accountsPath:     filepath.Join(dataDir, accountsFile),
		transactionsPath: filepath.Join(dataDir, transactionsFile),
		logger:           logger,
		now:              time.Now,
	}
}

// headerIndex maps column names to positions for name-indexed lookup.
func headerIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[name] = i
	}
	return idx
}

// field returns the named column of row, or "" when the column is absent
// or the row is short — optional columns degrade to defaults, not errors.
func field(row []string, idx map[string]int, name string) string {
	i, ok := idx[name]
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}

// atomicWrite rewrites path via a temp file in the same directory followed
// by a rename, so a crash mid-write never leaves a half-written table.
func (s *Store) atomicWrite(path string, write func(w *csv.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name()) // no-op after a successful rename

	w := csv.NewWriter(tmp)
	if err := write(w); err != nil {
		tmp.Close()
		return err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace %s: %w", filepath.Base(path), err)
	}
	return nil
}

// readAll opens a CSV table and returns its header index and data rows.
// A missing file yields (nil, nil, nil): the normal empty state.
func (s *Store) readAll(path string) (map[string]int, [][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("open %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1 // tolerate short/long rows; handled per field

	rows, err := r.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	if len(rows) == 0 {
		return nil, nil, nil
	}
	return headerIndex(rows[0]), rows[1:], nil
}
