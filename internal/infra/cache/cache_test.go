package cache_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tambank/tam-ledger-go/internal/domain"
	"github.com/tambank/tam-ledger-go/internal/infra/cache"
)

func records(n int) []domain.TransactionRecord {
	out := make([]domain.TransactionRecord, n)
	for i := range out {
		out[i] = domain.NewDeposit("20211111", decimal.NewFromInt(int64(i+1)), "Deposit", time.Now())
	}
	return out
}

func TestHistory_SetAndGet(t *testing.T) {
	c := cache.NewHistory(5 * time.Minute)

	c.Set("20211111", records(3))
	got, ok := c.Get("20211111")
	if !ok {
		t.Fatal("expected cached history")
	}
	if len(got) != 3 {
		t.Errorf("expected 3 records, got %d", len(got))
	}
}

func TestHistory_GetMiss(t *testing.T) {
	c := cache.NewHistory(5 * time.Minute)

	if _, ok := c.Get("99999999"); ok {
		t.Fatal("expected miss for unknown account")
	}
}

func TestHistory_Expiration(t *testing.T) {
	c := cache.NewHistory(50 * time.Millisecond)

	c.Set("20211111", records(1))
	time.Sleep(100 * time.Millisecond)

	if _, ok := c.Get("20211111"); ok {
		t.Fatal("expected entry to be expired")
	}
}

func TestHistory_Invalidate(t *testing.T) {
	c := cache.NewHistory(5 * time.Minute)

	c.Set("20211111", records(2))
	c.Invalidate("20211111")

	if _, ok := c.Get("20211111"); ok {
		t.Fatal("expected entry to be invalidated")
	}
}
