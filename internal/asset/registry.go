package asset

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/fd1az/venue-arbitrage/internal/apperror"
)

// Registry is a thread-safe catalogue of known assets.
type Registry struct {
	bySymbol map[string]*Asset
	byAlias  map[string]*Asset
	mu       sync.RWMutex
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		bySymbol: make(map[string]*Asset),
		byAlias:  make(map[string]*Asset),
	}
}

// Register adds an asset. Panics on duplicate symbols or aliases.
func (r *Registry) Register(a *Asset) {
	if a == nil {
		panic("asset: cannot register nil asset")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.bySymbol[a.symbol]; exists {
		panic(fmt.Sprintf("asset: %s already registered", a.symbol))
	}
	r.bySymbol[a.symbol] = a

	for _, alias := range a.aliases {
		if other, exists := r.byAlias[alias]; exists {
			panic(fmt.Sprintf("asset: alias %q already used by %s", alias, other.symbol))
		}
		r.byAlias[alias] = a
	}
}

// AddAlias maps an extra name onto a registered symbol.
func (r *Registry) AddAlias(alias, symbol string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.bySymbol[strings.ToUpper(symbol)]
	if !ok {
		return apperror.New(apperror.CodeAssetNotSupported, apperror.WithContext(symbol))
	}
	r.byAlias[strings.ToLower(alias)] = a
	return nil
}

// Resolve accepts a symbol ("btc", "BTC") or an alias ("bitcoin").
func (r *Registry) Resolve(input string) (*Asset, error) {
	key := strings.TrimSpace(input)
	if key == "" {
		return nil, apperror.Validation(apperror.CodeInvalidInput, "empty asset")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if a, ok := r.bySymbol[strings.ToUpper(key)]; ok {
		return a, nil
	}
	if a, ok := r.byAlias[strings.ToLower(key)]; ok {
		return a, nil
	}
	return nil, apperror.New(apperror.CodeAssetNotSupported, apperror.WithContext(input))
}

// MustResolve is Resolve for static wiring.
func (r *Registry) MustResolve(input string) *Asset {
	a, err := r.Resolve(input)
	if err != nil {
		panic(err)
	}
	return a
}

// All returns the registered assets ordered by symbol.
func (r *Registry) All() []*Asset {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*Asset, 0, len(r.bySymbol))
	for _, a := range r.bySymbol {
		result = append(result, a)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].symbol < result[j].symbol })
	return result
}

// Count returns the number of registered assets.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.bySymbol)
}
