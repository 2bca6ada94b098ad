package hedge

import (
	"fmt"
	"math"
	"sync"
	"time"

	boterrors "github.com/ducminhle1904/crypto-hedge-bot/internal/errors"
	"github.com/ducminhle1904/crypto-hedge-bot/internal/ledger"
)

// Config holds the hedge state machine parameters
type Config struct {
	// TriggerLoss is the negative price-change fraction of the long leg that
	// opens the hedge, e.g. -0.05 for a 5% drawdown. Leverage-independent.
	TriggerLoss float64

	// LongNotional and ShortNotional are fixed position sizes in quote
	// currency; the short is typically larger than the long.
	LongNotional  float64
	ShortNotional float64

	// MinCoverageRatio gates the pair close: short profit / |long loss| must
	// reach this value. 1.0 means the short exactly covers the loss.
	MinCoverageRatio float64
}

// Validate checks the hedge parameters
func (c Config) Validate() error {
	if c.TriggerLoss >= 0 {
		return fmt.Errorf("hedge trigger loss must be negative, got %.4f", c.TriggerLoss)
	}
	if c.LongNotional <= 0 || c.ShortNotional <= 0 {
		return fmt.Errorf("hedge notionals must be positive")
	}
	if c.MinCoverageRatio < 1 {
		return fmt.Errorf("minimum coverage ratio must be at least 1, got %.4f", c.MinCoverageRatio)
	}
	return nil
}

// Manager owns every hedge pair and enforces the LONG_OPEN -> HEDGED -> CLOSED
// lifecycle. Checks are separated from commits so the orchestrator can place
// the exchange order between them: a rejected order commits nothing.
type Manager struct {
	mu     sync.RWMutex
	cfg    Config
	ledger *ledger.Ledger
	active map[string]*Pair // at most one active pair per symbol
	closed []*Pair
}

// NewManager creates a hedge manager over the given ledger
func NewManager(cfg Config, led *ledger.Ledger) *Manager {
	return &Manager{
		cfg:    cfg,
		ledger: led,
		active: make(map[string]*Pair),
	}
}

// CanEnter reports whether a new long entry is allowed for the symbol.
// A symbol with an active pair rejects new entries.
func (m *Manager) CanEnter(symbol string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, exists := m.active[symbol]
	return !exists
}

// OpenLong registers a freshly opened long trade as a LONG_OPEN pair
func (m *Manager) OpenLong(longTrade *ledger.Trade) (*Pair, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, exists := m.active[longTrade.Symbol]; exists {
		return nil, boterrors.NewInvariantViolation("hedge", "open_long",
			fmt.Sprintf("symbol %s already has active pair %s in %s", longTrade.Symbol, existing.ID, existing.Status))
	}

	pair := NewPair(longTrade)
	m.active[longTrade.Symbol] = pair
	return pair, nil
}

// ActivePair returns the non-CLOSED pair for a symbol, if any
func (m *Manager) ActivePair(symbol string) (*Pair, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	pair, ok := m.active[symbol]
	return pair, ok
}

// ActivePairs returns all non-CLOSED pairs
func (m *Manager) ActivePairs() []*Pair {
	m.mu.RLock()
	defer m.mu.RUnlock()

	pairs := make([]*Pair, 0, len(m.active))
	for _, pair := range m.active {
		pairs = append(pairs, pair)
	}
	return pairs
}

// AllPairs returns active pairs followed by closed history
func (m *Manager) AllPairs() []*Pair {
	m.mu.RLock()
	defer m.mu.RUnlock()

	pairs := make([]*Pair, 0, len(m.active)+len(m.closed))
	for _, pair := range m.active {
		pairs = append(pairs, pair)
	}
	pairs = append(pairs, m.closed...)
	return pairs
}

// NeedsHedge reports whether the drawdown trigger fires for the symbol at the
// current price. Only LONG_OPEN pairs can trigger; the state check is the
// re-entrancy guard that guarantees at most one hedge per pair.
func (m *Manager) NeedsHedge(symbol string, currentPrice float64) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	pair, ok := m.active[symbol]
	if !ok || pair.Status != StatusLongOpen {
		return false
	}
	return m.longDrawdown(pair, currentPrice) <= m.cfg.TriggerLoss
}

// longDrawdown is the raw price-change fraction of the long leg
func (m *Manager) longDrawdown(pair *Pair, currentPrice float64) float64 {
	entry := pair.LongTrade.EntryPrice
	if entry == 0 {
		return 0
	}
	return (currentPrice - entry) / entry
}

// CommitHedge attaches the filled short leg and transitions the pair to
// HEDGED. Called only after the exchange confirmed the short order.
func (m *Manager) CommitHedge(symbol string, shortTrade *ledger.Trade, at time.Time) (*Pair, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	pair, ok := m.active[symbol]
	if !ok {
		return nil, boterrors.NewInvariantViolation("hedge", "commit_hedge",
			fmt.Sprintf("no active pair for %s", symbol))
	}
	if err := pair.markHedged(shortTrade, at); err != nil {
		return nil, boterrors.NewInvariantViolation("hedge", "commit_hedge", err.Error())
	}
	return pair, nil
}

// Coverage computes the short-profit / long-loss ratio for a HEDGED pair at
// the current price and whether the close condition is met. For a recovered
// long (no loss) any non-negative combined P&L closes the pair.
func (m *Manager) Coverage(symbol string, currentPrice float64) (ratio float64, covered bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	pair, ok := m.active[symbol]
	if !ok || pair.Status != StatusHedged {
		return 0, false
	}
	return m.coverageLocked(pair, currentPrice)
}

func (m *Manager) coverageLocked(pair *Pair, currentPrice float64) (float64, bool) {
	longPnL := pair.LongTrade.UnrealizedPnLAt(currentPrice)
	shortPnL := pair.ShortTrade.UnrealizedPnLAt(currentPrice)

	if longPnL >= 0 {
		// Long recovered; the pair closes as soon as the short is not a net drag
		if longPnL+shortPnL >= 0 {
			return math.Inf(1), true
		}
		return math.Inf(1), false
	}

	longLoss := -longPnL
	ratio := shortPnL / longLoss
	return ratio, ratio >= m.cfg.MinCoverageRatio
}

// CommitClose closes both legs of a HEDGED pair at the given price, settles
// their P&L in the ledger and transitions the pair to CLOSED.
func (m *Manager) CommitClose(symbol string, currentPrice float64, at time.Time) (*Pair, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	pair, ok := m.active[symbol]
	if !ok {
		return nil, boterrors.NewInvariantViolation("hedge", "commit_close",
			fmt.Sprintf("no active pair for %s", symbol))
	}
	if pair.Status != StatusHedged {
		return nil, boterrors.NewInvariantViolation("hedge", "commit_close",
			fmt.Sprintf("pair %s is %s, not HEDGED", pair.ID, pair.Status))
	}

	ratio, _ := m.coverageLocked(pair, currentPrice)
	pair.CoverageRatio = ratio

	if _, err := m.ledger.RecordExit(pair.LongTrade.ID, currentPrice, at, "hedge coverage reached"); err != nil {
		return nil, fmt.Errorf("close long leg: %w", err)
	}
	if _, err := m.ledger.RecordExit(pair.ShortTrade.ID, currentPrice, at, "hedge coverage reached"); err != nil {
		return nil, fmt.Errorf("close short leg: %w", err)
	}

	pair.markClosed(at)
	delete(m.active, symbol)
	m.closed = append(m.closed, pair)
	return pair, nil
}

// OnLongExit retires a LONG_OPEN pair whose long leg was closed by the ROI
// rule, a strategy exit or the stop loss. LONG_OPEN -> CLOSED is the one
// permitted shortcut; a HEDGED pair's legs exit only via CommitClose.
func (m *Manager) OnLongExit(symbol, tradeID string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	pair, ok := m.active[symbol]
	if !ok || pair.LongTrade.ID != tradeID {
		return nil // not a pair leg, nothing to retire
	}
	if pair.Status != StatusLongOpen {
		return boterrors.NewInvariantViolation("hedge", "on_long_exit",
			fmt.Sprintf("long leg of pair %s exited while %s", pair.ID, pair.Status))
	}

	pair.markClosed(at)
	delete(m.active, symbol)
	m.closed = append(m.closed, pair)
	return nil
}

// IsHedgedLeg reports whether the trade belongs to a HEDGED pair. The ROI exit
// rule skips such trades: two exit authorities for one position would race.
func (m *Manager) IsHedgedLeg(tradeID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, pair := range m.active {
		if pair.Status != StatusHedged {
			continue
		}
		if pair.LongTrade.ID == tradeID || (pair.ShortTrade != nil && pair.ShortTrade.ID == tradeID) {
			return true
		}
	}
	return false
}

// Restore rehydrates pairs from a persisted snapshot
func (m *Manager) Restore(pairs []*Pair) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.active = make(map[string]*Pair)
	m.closed = nil
	for _, pair := range pairs {
		if err := pair.Validate(); err != nil {
			return err
		}
		if pair.IsActive() {
			if _, dup := m.active[pair.Symbol]; dup {
				return boterrors.NewInvariantViolation("hedge", "restore",
					fmt.Sprintf("two active pairs for %s in snapshot", pair.Symbol))
			}
			m.active[pair.Symbol] = pair
		} else {
			m.closed = append(m.closed, pair)
		}
	}
	return nil
}

// Config returns the manager's parameters
func (m *Manager) Config() Config {
	return m.cfg
}
