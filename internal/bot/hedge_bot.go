package bot

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/ducminhle1904/crypto-hedge-bot/internal/config"
	boterrors "github.com/ducminhle1904/crypto-hedge-bot/internal/errors"
	"github.com/ducminhle1904/crypto-hedge-bot/internal/exchange"
	"github.com/ducminhle1904/crypto-hedge-bot/internal/hedge"
	"github.com/ducminhle1904/crypto-hedge-bot/internal/ledger"
	"github.com/ducminhle1904/crypto-hedge-bot/internal/logger"
	"github.com/ducminhle1904/crypto-hedge-bot/internal/monitoring"
	"github.com/ducminhle1904/crypto-hedge-bot/internal/notifications"
	"github.com/ducminhle1904/crypto-hedge-bot/internal/state"
	"github.com/ducminhle1904/crypto-hedge-bot/internal/strategy"
	"github.com/ducminhle1904/crypto-hedge-bot/pkg/reporting"
)

// HedgeBot runs the trading loop: one evaluation pass over every configured
// symbol per cycle, sequentially. Each pass works through exits first, then
// hedge triggers, then new entries, so a freshly opened position is never
// acted on again within the same pass.
type HedgeBot struct {
	cfg      *config.Config
	exchange exchange.Exchange
	strategy strategy.Strategy
	ledger   *ledger.Ledger
	hedgeMgr *hedge.Manager
	roiTable *hedge.ROITable
	log      *logger.Logger
	notify   *notifications.Dispatcher
	store    *state.Store
	health   *monitoring.HealthChecker
	console  *reporting.ConsoleReporter

	sessionStart time.Time
	stopChan     chan struct{}
}

// New wires a bot from configuration and an exchange
func New(cfg *config.Config, venue exchange.Exchange, log *logger.Logger, notify *notifications.Dispatcher) (*HedgeBot, error) {
	strat := strategy.NewElliotStrategy(cfg.Strategy)
	led := ledger.NewLedger(cfg.Trading.InitialBalance)
	bot := &HedgeBot{
		cfg:          cfg,
		exchange:     venue,
		strategy:     strat,
		ledger:       led,
		hedgeMgr:     hedge.NewManager(cfg.HedgeManagerConfig(), led),
		roiTable:     cfg.Trading.ROITable,
		log:          log,
		notify:       notify,
		store:        state.NewStore(cfg.State.FilePath),
		health:       monitoring.NewHealthChecker(),
		console:      reporting.NewConsoleReporter(),
		sessionStart: time.Now(),
		stopChan:     make(chan struct{}),
	}

	if err := bot.restoreState(); err != nil {
		return nil, err
	}
	return bot, nil
}

// Health returns the bot's liveness tracker for the health endpoint
func (bot *HedgeBot) Health() *monitoring.HealthChecker {
	return bot.health
}

// Ledger exposes the trade ledger for the dashboard
func (bot *HedgeBot) Ledger() *ledger.Ledger {
	return bot.ledger
}

// HedgeManager exposes the pair state machine for the dashboard
func (bot *HedgeBot) HedgeManager() *hedge.Manager {
	return bot.hedgeMgr
}

// PriceLookup resolves current prices for portfolio snapshots
func (bot *HedgeBot) PriceLookup() ledger.PriceLookup {
	return func(symbol string) (float64, bool) {
		price, err := bot.exchange.GetLatestPrice(context.Background(), symbol)
		if err != nil {
			return 0, false
		}
		return price, true
	}
}

// Run executes evaluation cycles until the context is cancelled or Stop is
// called, then saves state and shuts down.
func (bot *HedgeBot) Run(ctx context.Context) error {
	bot.log.Info("starting hedge bot on %s, %d symbols, cycle %s",
		bot.exchange.GetName(), len(bot.cfg.Trading.Symbols), bot.cfg.Trading.CycleInterval)

	if err := bot.prepareSymbols(ctx); err != nil {
		return err
	}
	bot.notify.Publish(notifications.LevelInfo, fmt.Sprintf("Bot started on %s", bot.exchange.GetName()))

	ticker := time.NewTicker(bot.cfg.Trading.CycleInterval)
	defer ticker.Stop()

	bot.RunCycle(ctx)
	bot.printCycleSummary()
	for {
		select {
		case <-ctx.Done():
			return bot.shutdown()
		case <-bot.stopChan:
			return bot.shutdown()
		case <-ticker.C:
			bot.RunCycle(ctx)
			bot.printCycleSummary()
		}
	}
}

// printCycleSummary renders the portfolio and pair tables after a live pass
func (bot *HedgeBot) printCycleSummary() {
	bot.console.PrintPortfolio(bot.ledger.Snapshot(bot.PriceLookup()))
	if pairs := bot.hedgeMgr.ActivePairs(); len(pairs) > 0 {
		bot.console.PrintPairs(pairs)
	}
}

// Stop asks a running bot to finish its current cycle and exit
func (bot *HedgeBot) Stop() {
	select {
	case <-bot.stopChan:
	default:
		close(bot.stopChan)
	}
}

func (bot *HedgeBot) shutdown() error {
	bot.log.Info("shutting down, saving state")
	if err := bot.saveState(); err != nil {
		bot.log.Error("failed to save state on shutdown: %v", err)
	}
	if err := bot.exportHistory(); err != nil {
		bot.log.Error("failed to export trade history: %v", err)
	}
	bot.notify.Publish(notifications.LevelWarning, "Bot stopped")
	return nil
}

// exportHistory writes the session's trades and pairs to an Excel workbook
// next to the state snapshot
func (bot *HedgeBot) exportHistory() error {
	path := filepath.Join(filepath.Dir(bot.store.Path()), "trade_history.xlsx")
	return reporting.NewExcelReporter().WriteHistory(bot.ledger.AllTrades(), bot.hedgeMgr.AllPairs(), path)
}

// prepareSymbols switches every configured symbol to hedge position mode and
// sets its leverage before trading. Holding the long and the short leg at the
// same time requires hedge mode on the venue.
func (bot *HedgeBot) prepareSymbols(ctx context.Context) error {
	for _, symbol := range bot.cfg.Trading.Symbols {
		if err := bot.exchange.EnableHedgeMode(ctx, symbol); err != nil {
			bot.log.Warning("failed to enable hedge mode for %s: %v", symbol, err)
		}
		if err := bot.exchange.SetLeverage(ctx, symbol, bot.cfg.Trading.Leverage); err != nil {
			bot.log.Warning("failed to set leverage for %s: %v", symbol, err)
		}
	}
	return nil
}

// RunCycle runs one evaluation pass over all symbols. A failing symbol is
// logged and skipped; it never stops the pass for the others.
func (bot *HedgeBot) RunCycle(ctx context.Context) {
	var lastPrice float64
	for _, symbol := range bot.cfg.Trading.Symbols {
		price, err := bot.processSymbol(ctx, symbol)
		if err != nil {
			category := string(boterrors.CategoryOf(err))
			if category == "" {
				category = "unknown"
			}
			monitoring.RecordError(category)
			bot.health.MarkError(fmt.Sprintf("%s: %v", symbol, err))
			bot.log.Error("pass failed for %s: %v", symbol, err)
			bot.notify.Publish(notifications.LevelError, fmt.Sprintf("Pass failed for %s: %v", symbol, err))
			continue
		}
		lastPrice = price
	}

	monitoring.SetActivePairs(len(bot.hedgeMgr.ActivePairs()))
	bot.health.MarkCycle(lastPrice)

	if err := bot.saveState(); err != nil {
		bot.log.Error("failed to save state: %v", err)
	}
}

// processSymbol runs the per-symbol pass: exits, then the hedge trigger, then
// entries. It returns the price used for the pass.
func (bot *HedgeBot) processSymbol(ctx context.Context, symbol string) (float64, error) {
	price, err := bot.exchange.GetLatestPrice(ctx, symbol)
	if err != nil {
		return 0, err
	}
	monitoring.UpdatePrice(symbol, price)

	decision := bot.evaluateStrategy(ctx, symbol)

	now := time.Now()
	exited, err := bot.checkExits(ctx, symbol, price, decision, now)
	if err != nil {
		return price, err
	}
	if err := bot.checkHedgeTrigger(ctx, symbol, price, now); err != nil {
		return price, err
	}
	// a symbol that just closed sits out the rest of the pass; the signal
	// may re-enter on the next one
	if !exited {
		if err := bot.checkEntry(ctx, symbol, price, decision, now); err != nil {
			return price, err
		}
	}

	bot.logSymbolStatus(symbol, price)
	return price, nil
}

// evaluateStrategy fetches candles and runs the signal evaluator. Data
// problems degrade to a hold decision: exits and hedge checks below only need
// the price and must not be blocked by a kline gap.
func (bot *HedgeBot) evaluateStrategy(ctx context.Context, symbol string) *strategy.TradeDecision {
	candles, err := bot.exchange.GetKlines(ctx, symbol, bot.cfg.Trading.Interval, bot.cfg.Trading.WindowSize)
	if err != nil {
		bot.log.Warning("no kline data for %s: %v", symbol, err)
		return nil
	}
	decision, err := bot.strategy.Evaluate(candles)
	if err != nil {
		bot.log.Warning("strategy evaluation failed for %s: %v", symbol, err)
		return nil
	}
	return decision
}

// checkExits closes positions whose exit condition fired: coverage for HEDGED
// pairs; ROI, stop loss or a sell signal for LONG_OPEN longs. It reports
// whether anything was closed this pass.
func (bot *HedgeBot) checkExits(ctx context.Context, symbol string, price float64, decision *strategy.TradeDecision, now time.Time) (bool, error) {
	pair, ok := bot.hedgeMgr.ActivePair(symbol)
	if !ok {
		return false, nil
	}

	switch pair.Status {
	case hedge.StatusHedged:
		return bot.checkCoverageExit(ctx, symbol, pair, price, now)
	case hedge.StatusLongOpen:
		return bot.checkLongExit(ctx, symbol, pair, price, decision, now)
	}
	return false, nil
}

func (bot *HedgeBot) checkCoverageExit(ctx context.Context, symbol string, pair *hedge.Pair, price float64, now time.Time) (bool, error) {
	ratio, covered := bot.hedgeMgr.Coverage(symbol, price)
	monitoring.SetCoverageRatio(symbol, ratio)
	if !covered {
		return false, nil
	}

	// both legs close reduce-only; orders first, state second
	longQty := pair.LongTrade.Quantity()
	shortQty := pair.ShortTrade.Quantity()
	if _, err := bot.exchange.PlaceMarketOrder(ctx, exchange.OrderRequest{
		Symbol: symbol, Side: exchange.OrderSideSell, Quantity: longQty, ReduceOnly: true,
	}); err != nil {
		return false, err
	}
	if _, err := bot.exchange.PlaceMarketOrder(ctx, exchange.OrderRequest{
		Symbol: symbol, Side: exchange.OrderSideBuy, Quantity: shortQty, ReduceOnly: true,
	}); err != nil {
		return false, err
	}

	closed, err := bot.hedgeMgr.CommitClose(symbol, price, now)
	if err != nil {
		return false, err
	}

	combined := *closed.LongTrade.RealizedPnL + *closed.ShortTrade.RealizedPnL
	monitoring.RecordPairClose(symbol, "coverage")
	monitoring.RecordRealizedPnL(symbol, "hedge_close", combined)
	bot.log.Hedge("%s pair closed at $%.4f, coverage %.2f, combined P&L $%.2f",
		symbol, price, closed.CoverageRatio, combined)
	bot.notify.Publish(notifications.LevelSuccess, fmt.Sprintf(
		"Hedge pair closed on %s\nCoverage: %.2f\nCombined P&L: $%.2f", symbol, closed.CoverageRatio, combined))
	return true, nil
}

func (bot *HedgeBot) checkLongExit(ctx context.Context, symbol string, pair *hedge.Pair, price float64, decision *strategy.TradeDecision, now time.Time) (bool, error) {
	long := pair.LongTrade

	reason := ""
	switch {
	case bot.roiTable.ShouldExit(long.HoldingTime(now), long.UnrealizedPnLFraction(price)):
		reason = fmt.Sprintf("roi target reached after %s", long.HoldingTime(now).Round(time.Second))
	case bot.rawDrawdown(long, price) <= bot.cfg.Trading.Stoploss:
		reason = fmt.Sprintf("stop loss at %.2f%%", bot.rawDrawdown(long, price)*100)
	case decision != nil && decision.Action == strategy.ActionSell:
		reason = decision.Reason
	default:
		return false, nil
	}

	if _, err := bot.exchange.PlaceMarketOrder(ctx, exchange.OrderRequest{
		Symbol: symbol, Side: exchange.OrderSideSell, Quantity: long.Quantity(), ReduceOnly: true,
	}); err != nil {
		return false, err
	}

	closed, err := bot.ledger.RecordExit(long.ID, price, now, reason)
	if err != nil {
		return false, err
	}
	if err := bot.hedgeMgr.OnLongExit(symbol, long.ID, now); err != nil {
		return false, err
	}

	monitoring.RecordPairClose(symbol, "long_exit")
	monitoring.RecordRealizedPnL(symbol, "long_exit", *closed.RealizedPnL)
	bot.log.Trade("%s long closed at $%.4f (%s), P&L $%.2f", symbol, price, reason, *closed.RealizedPnL)
	bot.notify.Publish(notifications.LevelSuccess, fmt.Sprintf(
		"Long closed on %s at $%.4f\n%s\nP&L: $%.2f", symbol, price, reason, *closed.RealizedPnL))
	return true, nil
}

// checkHedgeTrigger opens the short leg when the long's drawdown crosses the
// threshold. The order is placed before any state changes; a rejected order
// leaves the pair LONG_OPEN so the trigger fires again next pass.
func (bot *HedgeBot) checkHedgeTrigger(ctx context.Context, symbol string, price float64, now time.Time) error {
	if !bot.hedgeMgr.NeedsHedge(symbol, price) {
		return nil
	}

	notional := bot.cfg.Hedge.ShortNotional
	qty := notional / price
	order, err := bot.exchange.PlaceMarketOrder(ctx, exchange.OrderRequest{
		Symbol: symbol, Side: exchange.OrderSideSell, Quantity: qty,
	})
	if err != nil {
		return err
	}

	short := ledger.NewTrade(symbol, ledger.SideShort, price, notional, bot.cfg.Trading.Leverage, now,
		fmt.Sprintf("drawdown hedge at $%.4f", price))
	short.OrderID = order.OrderID
	if err := bot.ledger.RecordEntry(short); err != nil {
		return err
	}
	pair, err := bot.hedgeMgr.CommitHedge(symbol, short, now)
	if err != nil {
		return err
	}

	monitoring.RecordHedgeTrigger(symbol)
	monitoring.RecordTrade(symbol, string(ledger.SideShort), notional)
	bot.log.Hedge("%s hedge triggered: short $%.2f at $%.4f, long entry $%.4f",
		symbol, notional, price, pair.LongTrade.EntryPrice)
	bot.notify.Publish(notifications.LevelWarning, fmt.Sprintf(
		"Hedge triggered on %s\nLong entry: $%.4f\nShort opened: $%.2f at $%.4f",
		symbol, pair.LongTrade.EntryPrice, notional, price))
	return nil
}

// checkEntry opens a new long when the strategy signals one and the symbol
// has no active pair
func (bot *HedgeBot) checkEntry(ctx context.Context, symbol string, price float64, decision *strategy.TradeDecision, now time.Time) error {
	if decision == nil || decision.Action != strategy.ActionBuy {
		return nil
	}
	if !bot.hedgeMgr.CanEnter(symbol) {
		return nil
	}
	if len(bot.hedgeMgr.ActivePairs()) >= bot.cfg.Trading.MaxPairs {
		bot.log.Info("%s entry skipped, max pairs reached", symbol)
		return nil
	}

	notional := bot.cfg.Hedge.LongNotional
	qty := notional / price
	order, err := bot.exchange.PlaceMarketOrder(ctx, exchange.OrderRequest{
		Symbol: symbol, Side: exchange.OrderSideBuy, Quantity: qty,
	})
	if err != nil {
		return err
	}

	long := ledger.NewTrade(symbol, ledger.SideLong, price, notional, bot.cfg.Trading.Leverage, now, decision.Reason)
	long.OrderID = order.OrderID
	long.TechnicalIndicators = decision.Indicators
	long.MarketConditions = decision.MarketConditions
	if err := bot.ledger.RecordEntry(long); err != nil {
		return err
	}
	if _, err := bot.hedgeMgr.OpenLong(long); err != nil {
		return err
	}

	monitoring.RecordTrade(symbol, string(ledger.SideLong), notional)
	bot.log.Trade("%s long opened: $%.2f at $%.4f (%s)", symbol, notional, price, decision.Reason)
	bot.notify.Publish(notifications.LevelInfo, fmt.Sprintf(
		"Long opened on %s\n$%.2f at $%.4f\n%s", symbol, notional, price, decision.Reason))
	return nil
}

func (bot *HedgeBot) rawDrawdown(trade *ledger.Trade, price float64) float64 {
	if trade.EntryPrice == 0 {
		return 0
	}
	return (price - trade.EntryPrice) / trade.EntryPrice
}

func (bot *HedgeBot) logSymbolStatus(symbol string, price float64) {
	pair, ok := bot.hedgeMgr.ActivePair(symbol)
	if !ok {
		bot.log.LogSymbolStatus(symbol, price, "", 0, 0)
		return
	}
	ratio := pair.CoverageRatio
	if pair.Status == hedge.StatusHedged {
		ratio, _ = bot.hedgeMgr.Coverage(symbol, price)
	}
	bot.log.LogSymbolStatus(symbol, price, string(pair.Status), pair.LongTrade.UnrealizedPnLFraction(price)*100, ratio)
}
