package exchange

import (
	"context"
	"time"

	"github.com/ducminhle1904/crypto-hedge-bot/pkg/types"
)

// OrderSide is the direction of an order in exchange terms
type OrderSide string

const (
	OrderSideBuy  OrderSide = "Buy"
	OrderSideSell OrderSide = "Sell"
)

// Opposite returns the closing side for a position opened with this side
func (s OrderSide) Opposite() OrderSide {
	if s == OrderSideBuy {
		return OrderSideSell
	}
	return OrderSideBuy
}

// OrderRequest describes a market order to place
type OrderRequest struct {
	Symbol     string
	Side       OrderSide
	Quantity   float64
	ReduceOnly bool
}

// OrderResult is the exchange's confirmation of a filled or accepted order
type OrderResult struct {
	OrderID  string
	Symbol   string
	Side     OrderSide
	Quantity float64
	AvgPrice float64
	PlacedAt time.Time
}

// Position is an open derivatives position as reported by the exchange
type Position struct {
	Symbol        string
	Side          OrderSide
	Size          float64
	EntryPrice    float64
	MarkPrice     float64
	UnrealizedPnL float64
}

// Exchange is the surface the trading loop needs from a venue
type Exchange interface {
	GetName() string

	// Market data
	GetKlines(ctx context.Context, symbol, interval string, limit int) ([]types.OHLCV, error)
	GetLatestPrice(ctx context.Context, symbol string) (float64, error)

	// Trading
	PlaceMarketOrder(ctx context.Context, req OrderRequest) (*OrderResult, error)
	SetLeverage(ctx context.Context, symbol string, leverage float64) error
	// EnableHedgeMode puts the symbol into hedge position mode so a long
	// and a short can be held at the same time
	EnableHedgeMode(ctx context.Context, symbol string) error
	GetPositions(ctx context.Context, symbol string) ([]Position, error)

	// Account
	GetAvailableBalance(ctx context.Context, coin string) (float64, error)
}
