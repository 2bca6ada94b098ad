package indicators

import (
	"errors"
	"fmt"

	"github.com/ducminhle1904/crypto-hedge-bot/pkg/types"
)

// EMA represents the Exponential Moving Average technical indicator
type EMA struct {
	period int
	alpha  float64
}

// NewEMA creates a new EMA indicator
func NewEMA(period int) *EMA {
	return &EMA{
		period: period,
		alpha:  2.0 / float64(period+1), // Standard EMA alpha calculation
	}
}

// Calculate computes the EMA over the full series, seeded with the SMA of the
// first period closes. Stateless so the same series always yields the same value.
func (e *EMA) Calculate(data []types.OHLCV) (float64, error) {
	if len(data) < e.period {
		return 0, errors.New("insufficient data for EMA calculation")
	}

	// Seed with SMA of the first 'period' values
	sum := 0.0
	for i := 0; i < e.period; i++ {
		sum += data[i].Close
	}
	ema := sum / float64(e.period)

	// EMA = (Close * Alpha) + (Previous EMA * (1 - Alpha))
	for i := e.period; i < len(data); i++ {
		ema = (data[i].Close * e.alpha) + (ema * (1 - e.alpha))
	}

	return ema, nil
}

// GetName returns the indicator name
func (e *EMA) GetName() string {
	return fmt.Sprintf("EMA_%d", e.period)
}

// GetRequiredPeriods returns the minimum number of periods needed
func (e *EMA) GetRequiredPeriods() int {
	return e.period
}
