package strategy

import (
	"time"

	"github.com/ducminhle1904/crypto-hedge-bot/pkg/types"
)

// Strategy defines the interface for signal evaluators
type Strategy interface {
	// Evaluate analyzes market data and returns a trading decision
	Evaluate(data []types.OHLCV) (*TradeDecision, error)

	// GetName returns the name of the strategy
	GetName() string

	// GetRequiredPeriods returns the minimum candle count the strategy needs
	GetRequiredPeriods() int
}

// TradeDecision represents a decision made by a strategy for one evaluation.
// Indicators and MarketConditions are snapshots recorded on the trade at entry.
type TradeDecision struct {
	Action           TradeAction
	Reason           string
	Indicators       map[string]float64
	MarketConditions map[string]string
	Timestamp        time.Time
}

// TradeAction represents the type of trading action
type TradeAction int

const (
	ActionHold TradeAction = iota
	ActionBuy
	ActionSell
)

func (ta TradeAction) String() string {
	switch ta {
	case ActionHold:
		return "HOLD"
	case ActionBuy:
		return "BUY"
	case ActionSell:
		return "SELL"
	default:
		return "UNKNOWN"
	}
}
