package strategy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ducminhle1904/crypto-hedge-bot/pkg/types"
)

// testParams shrinks the indicator windows so scenarios stay readable
func testParams() ElliotParams {
	return ElliotParams{
		BaseNbCandlesBuy:  5,
		BaseNbCandlesSell: 8,
		LowOffset:         0.978,
		HighOffset:        1.019,
		EWOHigh:           3.34,
		EWOLow:            -17.457,
		RSIBuy:            65,
		FastEWO:           5,
		SlowEWO:           20,
		RSIPeriod:         5,
	}
}

func candles(closes []float64, volume float64) []types.OHLCV {
	data := make([]types.OHLCV, len(closes))
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	for i, c := range closes {
		data[i] = types.OHLCV{
			Open:      c,
			High:      c * 1.005,
			Low:       c * 0.995,
			Close:     c,
			Volume:    volume,
			Timestamp: base.Add(time.Duration(i) * 5 * time.Minute),
		}
	}
	return data
}

func TestElliot_HoldOnFlatMarket(t *testing.T) {
	s := NewElliotStrategy(testParams())

	closes := make([]float64, 40)
	for i := range closes {
		closes[i] = 100
	}
	decision, err := s.Evaluate(candles(closes, 1000))
	require.NoError(t, err)

	assert.Equal(t, ActionHold, decision.Action)
	assert.NotEmpty(t, decision.Reason)
}

func TestElliot_SellAboveEnvelope(t *testing.T) {
	s := NewElliotStrategy(testParams())

	// Slow grind up, then a spike well above the sell envelope
	closes := make([]float64, 40)
	for i := range closes {
		closes[i] = 100 + float64(i)*0.1
	}
	closes[len(closes)-1] = 130

	decision, err := s.Evaluate(candles(closes, 1000))
	require.NoError(t, err)

	assert.Equal(t, ActionSell, decision.Action)
	assert.Contains(t, decision.Reason, "MA sell signal")
}

func TestElliot_BuyOnCapitulation(t *testing.T) {
	s := NewElliotStrategy(testParams())

	// Sustained collapse: close far below the buy envelope with deeply negative EWO
	closes := make([]float64, 40)
	for i := range closes {
		closes[i] = 100
	}
	for i := 25; i < 40; i++ {
		closes[i] = closes[i-1] * 0.93
	}

	decision, err := s.Evaluate(candles(closes, 1000))
	require.NoError(t, err)

	assert.Equal(t, ActionBuy, decision.Action)
	assert.Contains(t, decision.Reason, "EWO low entry")
}

func TestElliot_NoEntryWithoutVolume(t *testing.T) {
	s := NewElliotStrategy(testParams())

	closes := make([]float64, 40)
	for i := range closes {
		closes[i] = 100
	}
	for i := 25; i < 40; i++ {
		closes[i] = closes[i-1] * 0.93
	}

	decision, err := s.Evaluate(candles(closes, 0))
	require.NoError(t, err)
	assert.Equal(t, ActionHold, decision.Action)
}

func TestElliot_NoEntryBelowDustPrice(t *testing.T) {
	s := NewElliotStrategy(testParams())

	// Same capitulation shape but quoting in fractions of a cent
	closes := make([]float64, 40)
	for i := range closes {
		closes[i] = 0.004
	}
	for i := 25; i < 40; i++ {
		closes[i] = closes[i-1] * 0.93
	}

	decision, err := s.Evaluate(candles(closes, 1000))
	require.NoError(t, err)
	assert.Equal(t, ActionHold, decision.Action)
}

func TestElliot_SnapshotCarriesIndicators(t *testing.T) {
	s := NewElliotStrategy(testParams())

	closes := make([]float64, 40)
	for i := range closes {
		closes[i] = 100 + float64(i%3)
	}
	decision, err := s.Evaluate(candles(closes, 1000))
	require.NoError(t, err)

	for _, key := range []string{"EWO", "RSI", "close"} {
		assert.Contains(t, decision.Indicators, key)
	}
	for _, key := range []string{"trend", "volatility", "volume"} {
		assert.Contains(t, decision.MarketConditions, key)
	}
}

func TestElliot_InsufficientData(t *testing.T) {
	s := NewElliotStrategy(DefaultElliotParams())

	_, err := s.Evaluate(candles([]float64{100, 101, 102}, 1000))
	assert.Error(t, err)
}
