package pricefeed

import (
	"context"
	"fmt"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/shopspring/decimal"
)

// BinanceFeed serves quotes from the Binance 24h ticker statistics endpoint
type BinanceFeed struct {
	client *binance.Client
}

// NewBinanceFeed creates a Binance-backed price feed. Market data endpoints
// work without credentials; keys are only needed to share a client with
// authenticated calls.
func NewBinanceFeed(apiKey, secretKey string) *BinanceFeed {
	return &BinanceFeed{
		client: binance.NewClient(apiKey, secretKey),
	}
}

// GetCurrentPrice fetches the last price and 24h change percent for a symbol
func (f *BinanceFeed) GetCurrentPrice(ctx context.Context, symbol string) (*Quote, error) {
	stats, err := f.client.NewListPriceChangeStatsService().Symbol(symbol).Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("binance ticker request failed for %s: %w", symbol, err)
	}
	if len(stats) == 0 {
		return nil, ErrSymbolNotFound
	}

	price, err := decimal.NewFromString(stats[0].LastPrice)
	if err != nil {
		return nil, fmt.Errorf("invalid last price %q for %s: %w", stats[0].LastPrice, symbol, err)
	}
	changePercent, err := decimal.NewFromString(stats[0].PriceChangePercent)
	if err != nil {
		return nil, fmt.Errorf("invalid change percent %q for %s: %w", stats[0].PriceChangePercent, symbol, err)
	}

	return &Quote{
		Symbol:        symbol,
		Price:         price,
		ChangePercent: changePercent,
		UpdatedAt:     time.UnixMilli(stats[0].CloseTime),
	}, nil
}
