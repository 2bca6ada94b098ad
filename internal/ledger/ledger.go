package ledger

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// PriceLookup resolves the current price for a symbol. Portfolio snapshots use
// it to compute unrealized P&L on demand; values are never cached here.
type PriceLookup func(symbol string) (float64, bool)

// Ledger is the in-memory record of all trades, open and closed. Trades are
// appended on entry, mutated exactly once on exit and retained for history.
type Ledger struct {
	mu             sync.RWMutex
	trades         map[string]*Trade
	order          []string // insertion order, for stable history listings
	initialBalance float64
	balance        float64
}

// Portfolio is a derived aggregate; it is recomputed from the ledger on every
// call and never independently mutated.
type Portfolio struct {
	InitialBalance float64   `json:"initial_balance"`
	Balance        float64   `json:"balance"`
	TotalPnL       float64   `json:"total_pnl"`
	UnrealizedPnL  float64   `json:"unrealized_pnl"`
	OpenTrades     []*Trade  `json:"open_trades"`
	ClosedTrades   int       `json:"closed_trades"`
	TotalTrades    int       `json:"total_trades"`
	GeneratedAt    time.Time `json:"generated_at"`
}

// NewLedger creates a ledger starting from the given balance
func NewLedger(initialBalance float64) *Ledger {
	return &Ledger{
		trades:         make(map[string]*Trade),
		initialBalance: initialBalance,
		balance:        initialBalance,
	}
}

// RecordEntry adds a newly opened trade to the ledger
func (l *Ledger) RecordEntry(trade *Trade) error {
	if trade == nil {
		return fmt.Errorf("cannot record nil trade")
	}
	if trade.ID == "" {
		return fmt.Errorf("trade has no ID")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.trades[trade.ID]; exists {
		return fmt.Errorf("trade %s already recorded", trade.ID)
	}
	l.trades[trade.ID] = trade
	l.order = append(l.order, trade.ID)
	return nil
}

// RecordExit closes an open trade and settles its P&L into the balance
func (l *Ledger) RecordExit(tradeID string, exitPrice float64, closedAt time.Time, reason string) (*Trade, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	trade, ok := l.trades[tradeID]
	if !ok {
		return nil, fmt.Errorf("unknown trade %s", tradeID)
	}
	if err := trade.Close(exitPrice, closedAt, reason); err != nil {
		return nil, err
	}
	l.balance += *trade.RealizedPnL
	return trade, nil
}

// Get returns the trade with the given ID
func (l *Ledger) Get(tradeID string) (*Trade, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	trade, ok := l.trades[tradeID]
	return trade, ok
}

// OpenTrades returns open trades in entry order
func (l *Ledger) OpenTrades() []*Trade {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var open []*Trade
	for _, id := range l.order {
		if t := l.trades[id]; t.IsOpen() {
			open = append(open, t)
		}
	}
	return open
}

// OpenTradesForSymbol returns open trades for one symbol in entry order
func (l *Ledger) OpenTradesForSymbol(symbol string) []*Trade {
	var open []*Trade
	for _, t := range l.OpenTrades() {
		if t.Symbol == symbol {
			open = append(open, t)
		}
	}
	return open
}

// AllTrades returns every trade in entry order
func (l *Ledger) AllTrades() []*Trade {
	l.mu.RLock()
	defer l.mu.RUnlock()

	all := make([]*Trade, 0, len(l.order))
	for _, id := range l.order {
		all = append(all, l.trades[id])
	}
	return all
}

// ClosedTrades returns closed trades sorted by close time
func (l *Ledger) ClosedTrades() []*Trade {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var closed []*Trade
	for _, id := range l.order {
		if t := l.trades[id]; !t.IsOpen() {
			closed = append(closed, t)
		}
	}
	sort.Slice(closed, func(i, j int) bool {
		return closed[i].ClosedAt.Before(*closed[j].ClosedAt)
	})
	return closed
}

// Balance returns the current settled balance
func (l *Ledger) Balance() float64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.balance
}

// Restore rehydrates the ledger from persisted trades and balance
func (l *Ledger) Restore(trades []*Trade, balance float64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.trades = make(map[string]*Trade, len(trades))
	l.order = l.order[:0]
	for _, t := range trades {
		l.trades[t.ID] = t
		l.order = append(l.order, t.ID)
	}
	l.balance = balance
}

// Snapshot computes the current portfolio. Unrealized P&L is derived from the
// supplied price lookup; symbols without a price contribute zero.
func (l *Ledger) Snapshot(prices PriceLookup) *Portfolio {
	l.mu.RLock()
	defer l.mu.RUnlock()

	p := &Portfolio{
		InitialBalance: l.initialBalance,
		Balance:        l.balance,
		GeneratedAt:    time.Now(),
	}

	for _, id := range l.order {
		t := l.trades[id]
		p.TotalTrades++
		if t.IsOpen() {
			p.OpenTrades = append(p.OpenTrades, t)
			if prices != nil {
				if price, ok := prices(t.Symbol); ok {
					p.UnrealizedPnL += t.UnrealizedPnL(price)
				}
			}
		} else {
			p.ClosedTrades++
			if t.RealizedPnL != nil {
				p.TotalPnL += *t.RealizedPnL
			}
		}
	}
	return p
}
