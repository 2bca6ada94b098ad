package exchange

import (
	"strconv"

	"github.com/ducminhle1904/crypto-hedge-bot/internal/config"
	"github.com/ducminhle1904/crypto-hedge-bot/internal/exchange/bybit"
)

// NewFromConfig builds the venue the configuration asks for: the paper
// exchange for dry runs, Bybit otherwise.
func NewFromConfig(cfg *config.Config) Exchange {
	if cfg.Trading.DryRun {
		return NewPaperExchange(cfg.Trading.InitialBalance)
	}
	return NewBybitExchange(bybit.Config{
		APIKey:    cfg.Exchange.APIKey,
		APISecret: cfg.Exchange.APISecret,
		Testnet:   cfg.Exchange.Testnet,
		Demo:      cfg.Exchange.Demo,
	})
}

func parseFloat(s string) float64 {
	if s == "" {
		return 0
	}
	val, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return val
}
