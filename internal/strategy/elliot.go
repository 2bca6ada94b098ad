package strategy

import (
	"fmt"
	"math"

	"github.com/ducminhle1904/crypto-hedge-bot/internal/indicators"
	"github.com/ducminhle1904/crypto-hedge-bot/pkg/types"
)

// ElliotParams holds the fixed thresholds of the ElliotV5 SMA strategy
type ElliotParams struct {
	BaseNbCandlesBuy  int     // EMA period for the buy envelope
	BaseNbCandlesSell int     // EMA period for the sell envelope
	LowOffset         float64 // entry: close below buyMA * LowOffset
	HighOffset        float64 // exit: close above sellMA * HighOffset
	EWOHigh           float64
	EWOLow            float64
	RSIBuy            float64
	FastEWO           int
	SlowEWO           int
	RSIPeriod         int
}

// DefaultElliotParams returns the tuned parameter set the bot ships with
func DefaultElliotParams() ElliotParams {
	return ElliotParams{
		BaseNbCandlesBuy:  17,
		BaseNbCandlesSell: 49,
		LowOffset:         0.978,
		HighOffset:        1.019,
		EWOHigh:           3.34,
		EWOLow:            -17.457,
		RSIBuy:            65,
		FastEWO:           50,
		SlowEWO:           200,
		RSIPeriod:         14,
	}
}

// ElliotStrategy combines an EMA envelope, the Elliott Wave Oscillator and RSI
// into long entry/exit signals with fixed threshold rules.
type ElliotStrategy struct {
	params ElliotParams
	buyMA  *indicators.EMA
	sellMA *indicators.EMA
	ewo    *indicators.EWO
	rsi    *indicators.RSI
}

// NewElliotStrategy creates a strategy instance for the given parameter set
func NewElliotStrategy(params ElliotParams) *ElliotStrategy {
	return &ElliotStrategy{
		params: params,
		buyMA:  indicators.NewEMA(params.BaseNbCandlesBuy),
		sellMA: indicators.NewEMA(params.BaseNbCandlesSell),
		ewo:    indicators.NewEWO(params.FastEWO, params.SlowEWO),
		rsi:    indicators.NewRSI(params.RSIPeriod),
	}
}

// Evaluate computes the indicators on the series and applies the entry/exit rules
func (s *ElliotStrategy) Evaluate(data []types.OHLCV) (*TradeDecision, error) {
	if len(data) < s.GetRequiredPeriods() {
		return nil, fmt.Errorf("insufficient candles for %s: have %d, need %d",
			s.GetName(), len(data), s.GetRequiredPeriods())
	}

	latest := data[len(data)-1]
	close := latest.Close

	buyMA, err := s.buyMA.Calculate(data)
	if err != nil {
		return nil, fmt.Errorf("buy MA: %w", err)
	}
	sellMA, err := s.sellMA.Calculate(data)
	if err != nil {
		return nil, fmt.Errorf("sell MA: %w", err)
	}
	ewo, err := s.ewo.Calculate(data)
	if err != nil {
		return nil, fmt.Errorf("EWO: %w", err)
	}
	rsi, err := s.rsi.Calculate(data)
	if err != nil {
		return nil, fmt.Errorf("RSI: %w", err)
	}

	snapshot := map[string]float64{
		s.buyMA.GetName():  buyMA,
		s.sellMA.GetName(): sellMA,
		"EWO":              ewo,
		"RSI":              rsi,
		"close":            close,
	}

	decision := &TradeDecision{
		Action:           ActionHold,
		Indicators:       snapshot,
		MarketConditions: classifyMarket(data, ewo),
		Timestamp:        latest.Timestamp,
	}

	// Dead candle: no volume, no signal
	if latest.Volume <= 0 {
		decision.Reason = "filtered: no volume on latest candle"
		return decision, nil
	}

	// Dust filter applies to entries only: instruments quoting below $0.50 are skipped
	belowBuyEnvelope := close > 0.5 && close < buyMA*s.params.LowOffset

	switch {
	case belowBuyEnvelope && ewo > s.params.EWOHigh && rsi < s.params.RSIBuy:
		decision.Action = ActionBuy
		decision.Reason = fmt.Sprintf("EWO high entry: close %.4f < EMA%d*%.3f, EWO %.2f > %.2f, RSI %.1f < %.0f",
			close, s.params.BaseNbCandlesBuy, s.params.LowOffset, ewo, s.params.EWOHigh, rsi, s.params.RSIBuy)
	case belowBuyEnvelope && ewo < s.params.EWOLow:
		decision.Action = ActionBuy
		decision.Reason = fmt.Sprintf("EWO low entry: close %.4f < EMA%d*%.3f, EWO %.2f < %.2f",
			close, s.params.BaseNbCandlesBuy, s.params.LowOffset, ewo, s.params.EWOLow)
	case close > sellMA*s.params.HighOffset:
		decision.Action = ActionSell
		decision.Reason = fmt.Sprintf("MA sell signal: close %.4f > EMA%d*%.3f",
			close, s.params.BaseNbCandlesSell, s.params.HighOffset)
	default:
		decision.Reason = fmt.Sprintf("no signal: EWO %.2f, RSI %.1f", ewo, rsi)
	}

	return decision, nil
}

// classifyMarket buckets trend, volatility and volume for the trade snapshot
func classifyMarket(data []types.OHLCV, ewo float64) map[string]string {
	conditions := map[string]string{
		"trend":      "sideways",
		"volatility": "normal",
		"volume":     "normal",
	}

	if ewo > 1.0 {
		conditions["trend"] = "up"
	} else if ewo < -1.0 {
		conditions["trend"] = "down"
	}

	// Range of the last 20 candles relative to the latest close
	window := data
	if len(window) > 20 {
		window = window[len(window)-20:]
	}
	high, low := window[0].High, window[0].Low
	volSum := 0.0
	for _, c := range window {
		high = math.Max(high, c.High)
		low = math.Min(low, c.Low)
		volSum += c.Volume
	}
	close := window[len(window)-1].Close
	if close > 0 {
		rangePct := (high - low) / close
		if rangePct > 0.05 {
			conditions["volatility"] = "high"
		} else if rangePct < 0.01 {
			conditions["volatility"] = "low"
		}
	}

	avgVol := volSum / float64(len(window))
	lastVol := window[len(window)-1].Volume
	if avgVol > 0 {
		if lastVol > avgVol*1.5 {
			conditions["volume"] = "high"
		} else if lastVol < avgVol*0.5 {
			conditions["volume"] = "low"
		}
	}

	return conditions
}

// GetName returns the strategy name
func (s *ElliotStrategy) GetName() string {
	return "ElliotV5_SMA"
}

// GetRequiredPeriods returns the minimum candle count the strategy needs
func (s *ElliotStrategy) GetRequiredPeriods() int {
	required := s.params.SlowEWO
	for _, p := range []int{s.params.FastEWO, s.params.BaseNbCandlesBuy, s.params.BaseNbCandlesSell, s.params.RSIPeriod + 1} {
		if p > required {
			required = p
		}
	}
	return required
}

var _ Strategy = (*ElliotStrategy)(nil)
