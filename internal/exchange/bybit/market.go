package bybit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	bybit_api "github.com/bybit-exchange/bybit.go.api"

	"github.com/ducminhle1904/crypto-hedge-bot/pkg/types"
)

// GetKlines fetches linear perpetual candles, oldest first. Bybit returns
// newest first, so the order is reversed before handing them to indicators.
func (c *Client) GetKlines(ctx context.Context, symbol, interval string, limit int) ([]types.OHLCV, error) {
	if limit <= 0 {
		limit = 200
	}
	if limit > 1000 {
		limit = 1000
	}

	params := map[string]interface{}{
		"category": "linear",
		"symbol":   symbol,
		"interval": interval,
		"limit":    limit,
	}

	result, err := c.httpClient.NewUtaBybitServiceWithParams(params).GetMarketKline(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get klines: %w", err)
	}

	return parseKlineResponse(result)
}

func parseKlineResponse(response interface{}) ([]types.OHLCV, error) {
	result, err := unwrapResult(response)
	if err != nil {
		return nil, err
	}

	var klineResult struct {
		Symbol string     `json:"symbol"`
		List   [][]string `json:"list"`
	}
	if err := json.Unmarshal(result, &klineResult); err != nil {
		return nil, fmt.Errorf("failed to unmarshal kline result: %w", err)
	}

	// format: [startTime, open, high, low, close, volume, turnover]
	candles := make([]types.OHLCV, 0, len(klineResult.List))
	for i := len(klineResult.List) - 1; i >= 0; i-- {
		item := klineResult.List[i]
		if len(item) < 6 {
			continue
		}
		candles = append(candles, types.OHLCV{
			Timestamp: time.UnixMilli(parseInt64(item[0])),
			Open:      parseFloat64(item[1]),
			High:      parseFloat64(item[2]),
			Low:       parseFloat64(item[3]),
			Close:     parseFloat64(item[4]),
			Volume:    parseFloat64(item[5]),
		})
	}
	return candles, nil
}

// GetLatestPrice returns the last traded price for a linear symbol
func (c *Client) GetLatestPrice(ctx context.Context, symbol string) (float64, error) {
	params := map[string]interface{}{
		"category": "linear",
		"symbol":   symbol,
	}

	result, err := c.httpClient.NewUtaBybitServiceWithParams(params).GetMarketTickers(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to get latest price: %w", err)
	}

	return parseLatestPriceResponse(result)
}

func parseLatestPriceResponse(response interface{}) (float64, error) {
	result, err := unwrapResult(response)
	if err != nil {
		return 0, err
	}

	var tickerResult struct {
		List []struct {
			Symbol    string `json:"symbol"`
			LastPrice string `json:"lastPrice"`
		} `json:"list"`
	}
	if err := json.Unmarshal(result, &tickerResult); err != nil {
		return 0, fmt.Errorf("failed to unmarshal ticker result: %w", err)
	}
	if len(tickerResult.List) == 0 {
		return 0, fmt.Errorf("no ticker data found")
	}
	return parseFloat64(tickerResult.List[0].LastPrice), nil
}

// unwrapResult validates the API envelope and re-marshals its payload
func unwrapResult(response interface{}) ([]byte, error) {
	serverResp, ok := response.(*bybit_api.ServerResponse)
	if !ok {
		return nil, fmt.Errorf("invalid response type")
	}
	if serverResp.RetCode != 0 {
		return nil, ParseAPIError(serverResp.RetCode, serverResp.RetMsg)
	}
	resultBytes, err := json.Marshal(serverResp.Result)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}
	return resultBytes, nil
}
