package bybit

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// OrderSide represents the direction of an order
type OrderSide string

const (
	SideBuy  OrderSide = "Buy"
	SideSell OrderSide = "Sell"
)

// Order is the subset of Bybit's order fields the bot tracks
type Order struct {
	OrderID     string    `json:"orderId"`
	OrderLinkID string    `json:"orderLinkId"`
	Symbol      string    `json:"symbol"`
	Side        OrderSide `json:"side"`
	Qty         string    `json:"qty"`
	AvgPrice    string    `json:"avgPrice"`
	OrderStatus string    `json:"orderStatus"`
	CreatedTime time.Time `json:"createdTime"`
}

// MarketOrderParams describes a linear perpetual market order
type MarketOrderParams struct {
	Symbol     string
	Side       OrderSide
	Qty        float64
	ReduceOnly bool
}

// PlaceMarketOrder places a market order on linear perpetuals. ReduceOnly
// orders close existing exposure and never open a new position.
func (c *Client) PlaceMarketOrder(ctx context.Context, params MarketOrderParams) (*Order, error) {
	if params.Symbol == "" {
		return nil, fmt.Errorf("symbol is required")
	}
	if params.Qty <= 0 {
		return nil, fmt.Errorf("qty must be positive, got %f", params.Qty)
	}

	apiParams := map[string]interface{}{
		"category":  "linear",
		"symbol":    params.Symbol,
		"side":      string(params.Side),
		"orderType": "Market",
		"qty":       formatQty(params.Qty),
	}
	if params.ReduceOnly {
		apiParams["reduceOnly"] = true
	}

	result, err := c.httpClient.NewUtaBybitServiceWithParams(apiParams).PlaceOrder(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to place market order: %w", err)
	}

	return parseOrderResponse(result)
}

func parseOrderResponse(response interface{}) (*Order, error) {
	result, err := unwrapResult(response)
	if err != nil {
		return nil, err
	}

	var orderResult struct {
		OrderID     string `json:"orderId"`
		OrderLinkID string `json:"orderLinkId"`
		Symbol      string `json:"symbol"`
		Side        string `json:"side"`
		Qty         string `json:"qty"`
		AvgPrice    string `json:"avgPrice"`
		OrderStatus string `json:"orderStatus"`
		CreatedTime string `json:"createdTime"`
	}
	if err := json.Unmarshal(result, &orderResult); err != nil {
		return nil, fmt.Errorf("failed to unmarshal order result: %w", err)
	}

	return &Order{
		OrderID:     orderResult.OrderID,
		OrderLinkID: orderResult.OrderLinkID,
		Symbol:      orderResult.Symbol,
		Side:        OrderSide(orderResult.Side),
		Qty:         orderResult.Qty,
		AvgPrice:    orderResult.AvgPrice,
		OrderStatus: orderResult.OrderStatus,
		CreatedTime: parseTimestamp(orderResult.CreatedTime),
	}, nil
}

// PositionInfo is an open linear position as reported by the exchange
type PositionInfo struct {
	Symbol        string `json:"symbol"`
	Side          string `json:"side"`
	Size          string `json:"size"`
	EntryPrice    string `json:"avgPrice"`
	MarkPrice     string `json:"markPrice"`
	UnrealisedPnl string `json:"unrealisedPnl"`
	PositionIdx   int    `json:"positionIdx"`
}

// GetPositions returns open positions; empty symbol lists every USDT position
func (c *Client) GetPositions(ctx context.Context, symbol string) ([]PositionInfo, error) {
	params := map[string]interface{}{
		"category": "linear",
	}
	if symbol != "" {
		params["symbol"] = symbol
	} else {
		params["settleCoin"] = "USDT"
	}

	result, err := c.httpClient.NewUtaBybitServiceWithParams(params).GetPositionList(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get positions: %w", err)
	}

	resultBytes, err := unwrapResult(result)
	if err != nil {
		return nil, err
	}

	var positionResult struct {
		List []PositionInfo `json:"list"`
	}
	if err := json.Unmarshal(resultBytes, &positionResult); err != nil {
		return nil, fmt.Errorf("failed to unmarshal position result: %w", err)
	}

	// zero-size rows are liquidated or closed slots
	positions := make([]PositionInfo, 0, len(positionResult.List))
	for _, pos := range positionResult.List {
		if parseFloat64(pos.Size) > 0 {
			positions = append(positions, pos)
		}
	}
	return positions, nil
}

// SetLeverage sets symmetric buy/sell leverage for a linear symbol.
// Bybit returns 110043 when the leverage is already set; that is not an error.
func (c *Client) SetLeverage(ctx context.Context, symbol string, leverage float64) error {
	lev := strconv.FormatFloat(leverage, 'f', -1, 64)
	params := map[string]interface{}{
		"category":     "linear",
		"symbol":       symbol,
		"buyLeverage":  lev,
		"sellLeverage": lev,
	}

	result, err := c.httpClient.NewUtaBybitServiceWithParams(params).SetPositionLeverage(ctx)
	if err != nil {
		return fmt.Errorf("failed to set leverage: %w", err)
	}
	if _, err := unwrapResult(result); err != nil {
		if bybitErr, ok := err.(*BybitError); ok && bybitErr.Code == ErrCodeLeverageNotModified {
			return nil
		}
		return err
	}
	return nil
}

// Position modes for SwitchPositionMode
const (
	PositionModeOneWay = "0"
	PositionModeHedge  = "3"
)

// SwitchPositionMode switches a linear symbol between one-way and hedge
// position modes. Holding a long and a short on the same symbol at once
// requires hedge mode. Bybit returns 110025 when the mode is already set;
// that is not an error.
func (c *Client) SwitchPositionMode(ctx context.Context, symbol, mode string) error {
	params := map[string]interface{}{
		"category": "linear",
		"symbol":   symbol,
		"mode":     mode,
	}

	result, err := c.httpClient.NewUtaBybitServiceWithParams(params).SwitchPositionMode(ctx)
	if err != nil {
		return fmt.Errorf("failed to switch position mode: %w", err)
	}
	if _, err := unwrapResult(result); err != nil {
		if bybitErr, ok := err.(*BybitError); ok && bybitErr.Code == ErrCodePositionModeNotModified {
			return nil
		}
		return err
	}
	return nil
}

func formatQty(qty float64) string {
	return strconv.FormatFloat(qty, 'f', -1, 64)
}
