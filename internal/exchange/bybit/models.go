package bybit

import (
	"strconv"
	"time"
)

func parseFloat64(s string) float64 {
	if s == "" {
		return 0
	}
	val, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return val
}

func parseInt64(s string) int64 {
	if s == "" {
		return 0
	}
	val, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return val
}

func parseTimestamp(ts string) time.Time {
	ms := parseInt64(ts)
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}
