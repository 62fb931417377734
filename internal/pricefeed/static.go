package pricefeed

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// StaticFeed serves quotes from an in-memory table. Used in development mode
// and in tests where no market connection exists.
type StaticFeed struct {
	mu     sync.RWMutex
	quotes map[string]Quote
}

// NewStaticFeed creates an empty static feed
func NewStaticFeed() *StaticFeed {
	return &StaticFeed{quotes: make(map[string]Quote)}
}

// SetQuote stores or replaces the quote for a symbol
func (f *StaticFeed) SetQuote(symbol string, price, changePercent decimal.Decimal) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.quotes[symbol] = Quote{
		Symbol:        symbol,
		Price:         price,
		ChangePercent: changePercent,
		UpdatedAt:     time.Now(),
	}
}

// RemoveQuote drops a symbol from the feed
func (f *StaticFeed) RemoveQuote(symbol string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.quotes, symbol)
}

// GetCurrentPrice returns the stored quote for a symbol
func (f *StaticFeed) GetCurrentPrice(_ context.Context, symbol string) (*Quote, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	quote, ok := f.quotes[symbol]
	if !ok {
		return nil, ErrSymbolNotFound
	}
	return &quote, nil
}
