package exchange

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	boterrors "github.com/ducminhle1904/crypto-hedge-bot/internal/errors"
	"github.com/ducminhle1904/crypto-hedge-bot/pkg/types"
)

// PaperExchange simulates a venue in memory for dry runs. Orders always fill
// at the last fed price; klines and prices are set by the data feeder.
type PaperExchange struct {
	mu        sync.RWMutex
	prices    map[string]float64
	klines    map[string][]types.OHLCV
	orders    []OrderResult
	positions map[string]*Position
	leverages map[string]float64
	hedged    map[string]bool
	balance   float64
}

// NewPaperExchange creates a paper venue with the given quote balance
func NewPaperExchange(balance float64) *PaperExchange {
	return &PaperExchange{
		prices:    make(map[string]float64),
		klines:    make(map[string][]types.OHLCV),
		positions: make(map[string]*Position),
		leverages: make(map[string]float64),
		hedged:    make(map[string]bool),
		balance:   balance,
	}
}

func (p *PaperExchange) GetName() string { return "paper" }

// SetPrice feeds the current price for a symbol
func (p *PaperExchange) SetPrice(symbol string, price float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.prices[symbol] = price
}

// SetKlines feeds candle history for a symbol
func (p *PaperExchange) SetKlines(symbol string, candles []types.OHLCV) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.klines[symbol] = candles
	if len(candles) > 0 {
		p.prices[symbol] = candles[len(candles)-1].Close
	}
}

func (p *PaperExchange) GetKlines(_ context.Context, symbol, _ string, limit int) ([]types.OHLCV, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	candles, ok := p.klines[symbol]
	if !ok {
		return nil, boterrors.NewDataUnavailable("paper", "get_klines",
			fmt.Errorf("no kline data fed for %s", symbol))
	}
	if limit > 0 && len(candles) > limit {
		candles = candles[len(candles)-limit:]
	}
	out := make([]types.OHLCV, len(candles))
	copy(out, candles)
	return out, nil
}

func (p *PaperExchange) GetLatestPrice(_ context.Context, symbol string) (float64, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	price, ok := p.prices[symbol]
	if !ok {
		return 0, boterrors.NewDataUnavailable("paper", "get_latest_price",
			fmt.Errorf("no price fed for %s", symbol))
	}
	return price, nil
}

func (p *PaperExchange) PlaceMarketOrder(_ context.Context, req OrderRequest) (*OrderResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	price, ok := p.prices[req.Symbol]
	if !ok {
		return nil, boterrors.NewDataUnavailable("paper", "place_market_order",
			fmt.Errorf("no price fed for %s", req.Symbol))
	}
	if req.Quantity <= 0 {
		return nil, boterrors.NewOrderRejected("paper", "place_market_order",
			fmt.Errorf("quantity must be positive, got %f", req.Quantity))
	}

	result := OrderResult{
		OrderID:  uuid.NewString(),
		Symbol:   req.Symbol,
		Side:     req.Side,
		Quantity: req.Quantity,
		AvgPrice: price,
		PlacedAt: time.Now(),
	}
	p.orders = append(p.orders, result)
	p.applyFill(req, price)
	return &result, nil
}

func (p *PaperExchange) applyFill(req OrderRequest, price float64) {
	key := req.Symbol + "/" + string(req.Side)
	if req.ReduceOnly {
		key = req.Symbol + "/" + string(req.Side.Opposite())
		if pos, ok := p.positions[key]; ok {
			pos.Size -= req.Quantity
			if pos.Size <= 1e-12 {
				delete(p.positions, key)
			}
		}
		return
	}
	if pos, ok := p.positions[key]; ok {
		total := pos.Size + req.Quantity
		pos.EntryPrice = (pos.EntryPrice*pos.Size + price*req.Quantity) / total
		pos.Size = total
		return
	}
	p.positions[key] = &Position{
		Symbol:     req.Symbol,
		Side:       req.Side,
		Size:       req.Quantity,
		EntryPrice: price,
	}
}

func (p *PaperExchange) SetLeverage(_ context.Context, symbol string, leverage float64) error {
	if leverage < 1 {
		return boterrors.NewOrderRejected("paper", "set_leverage", fmt.Errorf("leverage %f below 1", leverage))
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.leverages[symbol] = leverage
	return nil
}

func (p *PaperExchange) EnableHedgeMode(_ context.Context, symbol string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.hedged[symbol] = true
	return nil
}

// Leverage reports the last leverage set for a symbol, or zero
func (p *PaperExchange) Leverage(symbol string) float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.leverages[symbol]
}

// HedgeModeEnabled reports whether hedge mode was switched on for a symbol
func (p *PaperExchange) HedgeModeEnabled(symbol string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.hedged[symbol]
}

func (p *PaperExchange) GetPositions(_ context.Context, symbol string) ([]Position, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	var out []Position
	for _, pos := range p.positions {
		if symbol != "" && pos.Symbol != symbol {
			continue
		}
		snapshot := *pos
		if mark, ok := p.prices[pos.Symbol]; ok {
			snapshot.MarkPrice = mark
			direction := 1.0
			if pos.Side == OrderSideSell {
				direction = -1.0
			}
			snapshot.UnrealizedPnL = direction * (mark - pos.EntryPrice) * pos.Size
		}
		out = append(out, snapshot)
	}
	return out, nil
}

func (p *PaperExchange) GetAvailableBalance(_ context.Context, _ string) (float64, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.balance, nil
}

// Orders returns every order placed so far, oldest first
func (p *PaperExchange) Orders() []OrderResult {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]OrderResult, len(p.orders))
	copy(out, p.orders)
	return out
}
