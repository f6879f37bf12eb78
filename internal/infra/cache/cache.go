// Package cache provides an in-memory TTL cache for per-account
// transaction history, so repeated history reads (statements, dormancy
// checks) do not rescan the whole log file between appends.
package cache

import (
	"sync"
	"time"

	"github.com/tambank/tam-ledger-go/internal/domain"
)

type entry struct {
	records   []domain.TransactionRecord
	expiresAt time.Time
}

// History is a thread-safe history cache keyed by account number.
// Entries expire after the configured TTL as a backstop; the service
// invalidates explicitly whenever it appends to the log.
type History struct {
	mu    sync.RWMutex
	items map[string]entry
	ttl   time.Duration
}

// NewHistory creates a history cache with the given TTL.
func NewHistory(ttl time.Duration) *History {
	c := &History{
		items: make(map[string]entry),
		ttl:   ttl,
	}
	go c.cleanup()
	return c
}

// Get returns the cached history for an account, or false when absent
// or expired.
func (c *History) Get(accountNumber string) ([]domain.TransactionRecord, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.items[accountNumber]
	if !ok || time.Now().After(e.expiresAt) {
		return nil, false
	}
	return e.records, true
}

// Set stores an account's history with the configured TTL.
func (c *History) Set(accountNumber string, records []domain.TransactionRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[accountNumber] = entry{
		records:   records,
		expiresAt: time.Now().Add(c.ttl),
	}
}

// Invalidate drops an account's cached history. Called after every
// append that touches the account.
func (c *History) Invalidate(accountNumber string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.items, accountNumber)
}

// cleanup periodically removes expired entries.
func (c *History) cleanup() {
	ticker := time.NewTicker(c.ttl)
	defer ticker.Stop()

	for range ticker.C {
		c.mu.Lock()
		now := time.Now()
		for k, v := range c.items {
			if now.After(v.expiresAt) {
				delete(c.items, k)
			}
		}
		c.mu.Unlock()
	}
}
