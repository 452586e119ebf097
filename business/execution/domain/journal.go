package domain

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"

	arbDomain "github.com/fd1az/venue-arbitrage/business/arbitrage/domain"
	pricingDomain "github.com/fd1az/venue-arbitrage/business/pricing/domain"
)

// RecordType classifies journal entries.
type RecordType string

const (
	RecordArbitrageTrade   RecordType = "arbitrage_trade"
	RecordArbitrageFailure RecordType = "arbitrage_failure"
)

// TransactionRecord is an append-only journal entry for an applied execution.
type TransactionRecord struct {
	ID        string
	Type      RecordType
	Asset     string
	BuyVenue  pricingDomain.Venue
	SellVenue pricingDomain.Venue
	Amount    decimal.Decimal
	Fees      arbDomain.FeeBreakdown
	Slippage  decimal.Decimal
	Latency   time.Duration
	Profit    decimal.Decimal // signed balance delta
	Message   string
	Timestamp time.Time
}

// Journal keeps transaction records in memory, newest last.
type Journal struct {
	mu      sync.RWMutex
	records []TransactionRecord
}

// NewJournal creates an empty journal.
func NewJournal() *Journal {
	return &Journal{}
}

// Append adds a record.
func (j *Journal) Append(r TransactionRecord) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.records = append(j.records, r)
}

// Recent returns up to limit records, newest first. limit <= 0 returns all.
func (j *Journal) Recent(limit int) []TransactionRecord {
	j.mu.RLock()
	defer j.mu.RUnlock()

	n := len(j.records)
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]TransactionRecord, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		out = append(out, j.records[i])
	}
	return out
}

// Len returns the number of records.
func (j *Journal) Len() int {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return len(j.records)
}
