package bybit

import (
	bybit_api "github.com/bybit-exchange/bybit.go.api"
)

// Client wraps the Bybit v5 API client for linear perpetual trading
type Client struct {
	httpClient *bybit_api.Client
	testnet    bool
	demo       bool
}

// Config holds the Bybit connection settings
type Config struct {
	APIKey    string
	APISecret string
	Testnet   bool
	Demo      bool // demo trading environment (paper fills, real market data)
}

// NewClient creates a Bybit client against mainnet, testnet or demo
func NewClient(config Config) *Client {
	var baseURL string
	switch {
	case config.Demo:
		baseURL = "https://api-demo.bybit.com"
	case config.Testnet:
		baseURL = bybit_api.TESTNET
	default:
		baseURL = bybit_api.MAINNET
	}

	httpClient := bybit_api.NewBybitHttpClient(
		config.APIKey,
		config.APISecret,
		bybit_api.WithBaseURL(baseURL),
	)

	return &Client{
		httpClient: httpClient,
		testnet:    config.Testnet,
		demo:       config.Demo,
	}
}

// Environment describes which Bybit environment the client talks to
func (c *Client) Environment() string {
	switch {
	case c.demo:
		return "demo"
	case c.testnet:
		return "testnet"
	default:
		return "mainnet"
	}
}
