package hedge

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ducminhle1904/crypto-hedge-bot/internal/ledger"
)

// PairStatus is the lifecycle state of a hedge pair
type PairStatus string

const (
	StatusLongOpen PairStatus = "LONG_OPEN"
	StatusHedged   PairStatus = "HEDGED"
	StatusClosed   PairStatus = "CLOSED" // terminal
)

// Pair is a long position and its later offsetting short on the same symbol,
// managed as one lifecycle unit. ShortTrade is set exactly when the status
// leaves LONG_OPEN; a closed pair is never reopened.
type Pair struct {
	ID         string        `json:"id"`
	Symbol     string        `json:"symbol"`
	Status     PairStatus    `json:"status"`
	LongTrade  *ledger.Trade `json:"long_trade"`
	ShortTrade *ledger.Trade `json:"short_trade,omitempty"`
	CreatedAt  time.Time     `json:"created_at"`
	HedgedAt   *time.Time    `json:"hedged_at,omitempty"`
	ClosedAt   *time.Time    `json:"closed_at,omitempty"`

	// Last observed short-profit / long-loss ratio; observability only.
	CoverageRatio float64 `json:"coverage_ratio,omitempty"`
}

// NewPair creates a pair in LONG_OPEN for a freshly opened long trade
func NewPair(longTrade *ledger.Trade) *Pair {
	return &Pair{
		ID:        uuid.NewString(),
		Symbol:    longTrade.Symbol,
		Status:    StatusLongOpen,
		LongTrade: longTrade,
		CreatedAt: longTrade.OpenedAt,
	}
}

// IsActive reports whether the pair still holds exchange exposure
func (p *Pair) IsActive() bool {
	return p.Status != StatusClosed
}

// Validate checks the structural invariants of the pair
func (p *Pair) Validate() error {
	if p.LongTrade == nil {
		return fmt.Errorf("pair %s has no long trade", p.ID)
	}
	switch p.Status {
	case StatusLongOpen:
		if p.ShortTrade != nil {
			return fmt.Errorf("pair %s is LONG_OPEN but carries a short trade", p.ID)
		}
	case StatusHedged:
		if p.ShortTrade == nil {
			return fmt.Errorf("pair %s is HEDGED without a short trade", p.ID)
		}
	case StatusClosed:
		// a pair retired before its hedge triggered has no short leg
	default:
		return fmt.Errorf("pair %s has unknown status %q", p.ID, p.Status)
	}
	return nil
}

// markHedged transitions LONG_OPEN -> HEDGED with the opened short leg
func (p *Pair) markHedged(shortTrade *ledger.Trade, at time.Time) error {
	if p.Status != StatusLongOpen {
		return fmt.Errorf("pair %s cannot hedge from status %s", p.ID, p.Status)
	}
	p.ShortTrade = shortTrade
	p.Status = StatusHedged
	p.HedgedAt = &at
	return nil
}

// markClosed transitions to CLOSED
func (p *Pair) markClosed(at time.Time) {
	p.Status = StatusClosed
	p.ClosedAt = &at
}
