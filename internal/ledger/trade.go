package ledger

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TradeSide is the direction of a trade. Immutable after creation.
type TradeSide string

const (
	SideLong  TradeSide = "long"
	SideShort TradeSide = "short"
)

// Trade is one position in the ledger. ExitPrice and ClosedAt are both set on
// exit or both absent; trades are closed once and never deleted.
type Trade struct {
	ID                  string             `json:"id"`
	Symbol              string             `json:"symbol"`
	Side                TradeSide          `json:"side"`
	EntryPrice          float64            `json:"entry_price"`
	ExitPrice           float64            `json:"exit_price,omitempty"`
	Size                float64            `json:"size"` // notional in quote currency
	Leverage            float64            `json:"leverage"`
	OpenedAt            time.Time          `json:"opened_at"`
	ClosedAt            *time.Time         `json:"closed_at,omitempty"`
	EntryReason         string             `json:"entry_reason"`
	ExitReason          string             `json:"exit_reason,omitempty"`
	TechnicalIndicators map[string]float64 `json:"technical_indicators,omitempty"`
	MarketConditions    map[string]string  `json:"market_conditions,omitempty"`
	RealizedPnL         *float64           `json:"realized_pnl,omitempty"`
	OrderID             string             `json:"order_id,omitempty"`
}

// NewTrade creates an open trade with a fresh ID
func NewTrade(symbol string, side TradeSide, entryPrice, size, leverage float64, openedAt time.Time, entryReason string) *Trade {
	return &Trade{
		ID:          uuid.NewString(),
		Symbol:      symbol,
		Side:        side,
		EntryPrice:  entryPrice,
		Size:        size,
		Leverage:    leverage,
		OpenedAt:    openedAt,
		EntryReason: entryReason,
	}
}

// IsOpen reports whether the trade has not exited yet
func (t *Trade) IsOpen() bool {
	return t.ClosedAt == nil
}

// Quantity returns the base-asset quantity the notional bought at entry
func (t *Trade) Quantity() float64 {
	if t.EntryPrice == 0 {
		return 0
	}
	return t.Size / t.EntryPrice
}

// UnrealizedPnL computes the open profit in quote currency at the given price.
// Closed trades report their realized figure instead.
func (t *Trade) UnrealizedPnL(currentPrice float64) float64 {
	if !t.IsOpen() {
		if t.RealizedPnL != nil {
			return *t.RealizedPnL
		}
		return 0
	}
	if t.Side == SideShort {
		return (t.EntryPrice - currentPrice) * t.Quantity()
	}
	return (currentPrice - t.EntryPrice) * t.Quantity()
}

// UnrealizedPnLFraction returns the leverage-adjusted profit fraction at the
// given price, e.g. -0.05 for a 5% drawdown on margin.
func (t *Trade) UnrealizedPnLFraction(currentPrice float64) float64 {
	if t.EntryPrice == 0 {
		return 0
	}
	raw := (currentPrice - t.EntryPrice) / t.EntryPrice
	if t.Side == SideShort {
		raw = -raw
	}
	leverage := t.Leverage
	if leverage <= 0 {
		leverage = 1
	}
	return raw * leverage
}

// Close sets the exit fields and computes the realized P&L. It is an error to
// close a trade twice.
func (t *Trade) Close(exitPrice float64, closedAt time.Time, reason string) error {
	if !t.IsOpen() {
		return fmt.Errorf("trade %s already closed at %s", t.ID, t.ClosedAt.Format(time.RFC3339))
	}

	t.ExitPrice = exitPrice
	t.ClosedAt = &closedAt
	t.ExitReason = reason

	pnl := t.UnrealizedPnLAt(exitPrice)
	t.RealizedPnL = &pnl
	return nil
}

// UnrealizedPnLAt is UnrealizedPnL without the closed-trade shortcut; used at
// close time to settle the final figure.
func (t *Trade) UnrealizedPnLAt(price float64) float64 {
	if t.Side == SideShort {
		return (t.EntryPrice - price) * t.Quantity()
	}
	return (price - t.EntryPrice) * t.Quantity()
}

// HoldingTime returns how long the trade has been (or was) open
func (t *Trade) HoldingTime(now time.Time) time.Duration {
	if t.ClosedAt != nil {
		return t.ClosedAt.Sub(t.OpenedAt)
	}
	return now.Sub(t.OpenedAt)
}
