package indicators

import (
	"errors"
	"math"

	"github.com/ducminhle1904/crypto-hedge-bot/pkg/types"
)

// RSI calculates the Relative Strength Index over candle closes
type RSI struct {
	period int
}

// NewRSI creates a new RSI instance with the given period
func NewRSI(period int) *RSI {
	return &RSI{
		period: period,
	}
}

// Calculate computes the RSI value from the most recent period price changes
func (r *RSI) Calculate(data []types.OHLCV) (float64, error) {
	if len(data) < r.period+1 {
		return 0, errors.New("insufficient data for RSI calculation")
	}

	// Calculate price changes
	changes := make([]float64, len(data)-1)
	for i := 1; i < len(data); i++ {
		changes[i-1] = data[i].Close - data[i-1].Close
	}

	// Separate gains and losses
	gains := make([]float64, len(changes))
	losses := make([]float64, len(changes))
	for i, change := range changes {
		if change > 0 {
			gains[i] = change
		} else {
			losses[i] = math.Abs(change)
		}
	}

	avgGain := mean(gains[len(gains)-r.period:])
	avgLoss := mean(losses[len(losses)-r.period:])

	if avgLoss == 0 {
		return 100, nil
	}

	rs := avgGain / avgLoss
	rsi := 100 - (100 / (1 + rs))

	return rsi, nil
}

// GetName returns the indicator name
func (r *RSI) GetName() string {
	return "RSI"
}

// GetRequiredPeriods returns the minimum number of periods needed
func (r *RSI) GetRequiredPeriods() int {
	return r.period + 1
}

func mean(values []float64) float64 {
	sum := 0.0
	for _, value := range values {
		sum += value
	}
	return sum / float64(len(values))
}
