package indicators

import (
	"github.com/ducminhle1904/crypto-hedge-bot/pkg/types"
)

// TechnicalIndicator is implemented by all indicators used by the signal evaluator.
// Calculate is a pure function of the candle series; indicators must return an
// error when the series is too short rather than fabricate a value.
type TechnicalIndicator interface {
	Calculate(data []types.OHLCV) (float64, error)
	GetName() string
	GetRequiredPeriods() int
}
