package indicators

import (
	"errors"

	"github.com/ducminhle1904/crypto-hedge-bot/pkg/types"
)

// EWO is the Elliott Wave Oscillator: the spread between a fast and a slow
// simple moving average, expressed as a percentage of the latest close.
type EWO struct {
	fast *SMA
	slow *SMA
}

// NewEWO creates a new Elliott Wave Oscillator with the given MA periods
func NewEWO(fastPeriod, slowPeriod int) *EWO {
	return &EWO{
		fast: NewSMA(fastPeriod),
		slow: NewSMA(slowPeriod),
	}
}

// Calculate computes (SMA(fast) - SMA(slow)) / close * 100 for the latest candle
func (e *EWO) Calculate(data []types.OHLCV) (float64, error) {
	if len(data) < e.GetRequiredPeriods() {
		return 0, errors.New("insufficient data for EWO calculation")
	}

	fastMA, err := e.fast.Calculate(data)
	if err != nil {
		return 0, err
	}
	slowMA, err := e.slow.Calculate(data)
	if err != nil {
		return 0, err
	}

	close := data[len(data)-1].Close
	if close == 0 {
		return 0, errors.New("zero close price in EWO calculation")
	}

	return (fastMA - slowMA) / close * 100, nil
}

// GetName returns the indicator name
func (e *EWO) GetName() string {
	return "EWO"
}

// GetRequiredPeriods returns the minimum number of periods needed
func (e *EWO) GetRequiredPeriods() int {
	if e.fast.GetRequiredPeriods() > e.slow.GetRequiredPeriods() {
		return e.fast.GetRequiredPeriods()
	}
	return e.slow.GetRequiredPeriods()
}
