// Package domain contains the core domain types for the execution context.
package domain

import (
	"sort"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/fd1az/venue-arbitrage/internal/apperror"
)

// Wallet is a point-in-time view of a ledger.
type Wallet struct {
	Balance  decimal.Decimal            // quote currency
	Holdings map[string]decimal.Decimal // upper-case symbol -> units
}

// Holding returns the units held of asset.
func (w Wallet) Holding(asset string) decimal.Decimal {
	if h, ok := w.Holdings[strings.ToUpper(asset)]; ok {
		return h
	}
	return decimal.Zero
}

// Assets returns the held symbols in sorted order.
func (w Wallet) Assets() []string {
	out := make([]string, 0, len(w.Holdings))
	for k := range w.Holdings {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Credit adds units of asset to the holdings.
func (w *Wallet) Credit(asset string, units decimal.Decimal) {
	if w.Holdings == nil {
		w.Holdings = make(map[string]decimal.Decimal)
	}
	key := strings.ToUpper(asset)
	w.Holdings[key] = w.Holding(key).Add(units)
}

func (w Wallet) clone() Wallet {
	c := Wallet{
		Balance:  w.Balance,
		Holdings: make(map[string]decimal.Decimal, len(w.Holdings)),
	}
	for k, v := range w.Holdings {
		c.Holdings[k] = v
	}
	return c
}

func (w Wallet) validate() error {
	if w.Balance.IsNegative() {
		return apperror.New(apperror.CodeInternalError,
			apperror.WithContext("ledger balance would become "+w.Balance.String()))
	}
	for k, v := range w.Holdings {
		if v.IsNegative() {
			return apperror.New(apperror.CodeInternalError,
				apperror.WithContext("ledger holding "+k+" would become "+v.String()))
		}
	}
	return nil
}

// Ledger owns a wallet and serializes every mutation of it.
type Ledger struct {
	mu    sync.Mutex
	state Wallet
}

// NewLedger creates a ledger with a starting balance and holdings.
func NewLedger(balance decimal.Decimal, holdings map[string]decimal.Decimal) (*Ledger, error) {
	w := Wallet{Balance: balance, Holdings: make(map[string]decimal.Decimal, len(holdings))}
	for k, v := range holdings {
		w.Holdings[strings.ToUpper(k)] = v
	}
	if err := w.validate(); err != nil {
		return nil, apperror.New(apperror.CodeInvalidInput,
			apperror.WithContext("starting ledger"),
			apperror.WithCause(err))
	}
	return &Ledger{state: w}, nil
}

// Snapshot returns a copy of the current wallet.
func (l *Ledger) Snapshot() Wallet {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state.clone()
}

// Transact runs fn against a private copy of the wallet while holding the
// ledger lock. The copy replaces the state only if fn succeeds and leaves
// no negative balance or holding; otherwise nothing changes.
func (l *Ledger) Transact(fn func(w *Wallet) error) (Wallet, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	next := l.state.clone()
	if err := fn(&next); err != nil {
		return l.state.clone(), err
	}
	if err := next.validate(); err != nil {
		return l.state.clone(), err
	}

	l.state = next
	return next.clone(), nil
}
