package pricefeed

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// ErrSymbolNotFound is returned when the feed has no quote for a symbol.
var ErrSymbolNotFound = errors.New("symbol not found")

// Quote is a point-in-time observation for one symbol.
type Quote struct {
	Symbol        string          `json:"symbol"`
	Price         decimal.Decimal `json:"price"`
	ChangePercent decimal.Decimal `json:"change_percent"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// Feed supplies the current price and 24h percent change for a symbol.
type Feed interface {
	GetCurrentPrice(ctx context.Context, symbol string) (*Quote, error)
}
