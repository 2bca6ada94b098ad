package exchange

import (
	"context"

	boterrors "github.com/ducminhle1904/crypto-hedge-bot/internal/errors"
	"github.com/ducminhle1904/crypto-hedge-bot/internal/exchange/bybit"
	"github.com/ducminhle1904/crypto-hedge-bot/pkg/types"
)

// BybitExchange adapts the Bybit client to the Exchange interface and maps
// venue errors onto the bot's error categories.
type BybitExchange struct {
	client *bybit.Client
}

// NewBybitExchange creates an adapter over a configured Bybit client
func NewBybitExchange(cfg bybit.Config) *BybitExchange {
	return &BybitExchange{client: bybit.NewClient(cfg)}
}

func (e *BybitExchange) GetName() string {
	return "bybit-" + e.client.Environment()
}

func (e *BybitExchange) GetKlines(ctx context.Context, symbol, interval string, limit int) ([]types.OHLCV, error) {
	candles, err := e.client.GetKlines(ctx, symbol, interval, limit)
	if err != nil {
		return nil, boterrors.NewDataUnavailable("bybit", "get_klines", err).WithSymbol(symbol)
	}
	return candles, nil
}

func (e *BybitExchange) GetLatestPrice(ctx context.Context, symbol string) (float64, error) {
	price, err := e.client.GetLatestPrice(ctx, symbol)
	if err != nil {
		return 0, boterrors.NewDataUnavailable("bybit", "get_latest_price", err).WithSymbol(symbol)
	}
	return price, nil
}

func (e *BybitExchange) PlaceMarketOrder(ctx context.Context, req OrderRequest) (*OrderResult, error) {
	order, err := e.client.PlaceMarketOrder(ctx, bybit.MarketOrderParams{
		Symbol:     req.Symbol,
		Side:       bybit.OrderSide(req.Side),
		Qty:        req.Quantity,
		ReduceOnly: req.ReduceOnly,
	})
	if err != nil {
		return nil, boterrors.NewOrderRejected("bybit", "place_market_order", err).WithSymbol(req.Symbol)
	}
	return &OrderResult{
		OrderID:  order.OrderID,
		Symbol:   order.Symbol,
		Side:     OrderSide(order.Side),
		Quantity: req.Quantity,
		AvgPrice: parseFloat(order.AvgPrice),
		PlacedAt: order.CreatedTime,
	}, nil
}

func (e *BybitExchange) SetLeverage(ctx context.Context, symbol string, leverage float64) error {
	if err := e.client.SetLeverage(ctx, symbol, leverage); err != nil {
		return boterrors.NewOrderRejected("bybit", "set_leverage", err).WithSymbol(symbol)
	}
	return nil
}

func (e *BybitExchange) EnableHedgeMode(ctx context.Context, symbol string) error {
	if err := e.client.SwitchPositionMode(ctx, symbol, bybit.PositionModeHedge); err != nil {
		return boterrors.NewOrderRejected("bybit", "switch_position_mode", err).WithSymbol(symbol)
	}
	return nil
}

func (e *BybitExchange) GetPositions(ctx context.Context, symbol string) ([]Position, error) {
	raw, err := e.client.GetPositions(ctx, symbol)
	if err != nil {
		return nil, boterrors.NewDataUnavailable("bybit", "get_positions", err).WithSymbol(symbol)
	}
	positions := make([]Position, 0, len(raw))
	for _, pos := range raw {
		positions = append(positions, Position{
			Symbol:        pos.Symbol,
			Side:          OrderSide(pos.Side),
			Size:          parseFloat(pos.Size),
			EntryPrice:    parseFloat(pos.EntryPrice),
			MarkPrice:     parseFloat(pos.MarkPrice),
			UnrealizedPnL: parseFloat(pos.UnrealisedPnl),
		})
	}
	return positions, nil
}

func (e *BybitExchange) GetAvailableBalance(ctx context.Context, coin string) (float64, error) {
	balance, err := e.client.GetAvailableBalance(ctx, coin)
	if err != nil {
		return 0, boterrors.NewDataUnavailable("bybit", "get_wallet_balance", err)
	}
	return balance, nil
}
