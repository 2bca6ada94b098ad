package types

import "time"

// OHLCV is one closed candle. Series are ordered oldest first.
type OHLCV struct {
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
	Timestamp time.Time
}

// Ticker is a point-in-time price snapshot for a symbol.
type Ticker struct {
	Symbol    string
	Price     float64
	Volume    float64
	Timestamp time.Time
}

// Balance is the free and locked amount of one asset on the venue.
type Balance struct {
	Asset  string
	Free   float64
	Locked float64
}

// LastClose returns the close of the most recent candle, or 0 for an empty series.
func LastClose(data []OHLCV) float64 {
	if len(data) == 0 {
		return 0
	}
	return data[len(data)-1].Close
}
