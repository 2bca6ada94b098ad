package bot

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ducminhle1904/crypto-hedge-bot/internal/config"
	boterrors "github.com/ducminhle1904/crypto-hedge-bot/internal/errors"
	"github.com/ducminhle1904/crypto-hedge-bot/internal/exchange"
	"github.com/ducminhle1904/crypto-hedge-bot/internal/hedge"
	"github.com/ducminhle1904/crypto-hedge-bot/internal/ledger"
	"github.com/ducminhle1904/crypto-hedge-bot/internal/logger"
	"github.com/ducminhle1904/crypto-hedge-bot/internal/notifications"
	"github.com/ducminhle1904/crypto-hedge-bot/internal/strategy"
	"github.com/ducminhle1904/crypto-hedge-bot/pkg/types"
)

func testBotConfig(t *testing.T, symbols ...string) *config.Config {
	t.Helper()
	roi := hedge.DefaultROITable()
	return &config.Config{
		Environment: "test",
		Trading: config.TradingConfig{
			Symbols:        symbols,
			Interval:       "5",
			CycleInterval:  time.Second,
			WindowSize:     60,
			Leverage:       10,
			InitialBalance: 100,
			MaxPairs:       2,
			Stoploss:       -0.189,
			ROITable:       roi,
			DryRun:         true,
		},
		Hedge: config.HedgeConfig{
			TriggerLoss:      -0.05,
			LongNotional:     5,
			ShortNotional:    10,
			MinCoverageRatio: 1,
		},
		Strategy: strategy.ElliotParams{
			BaseNbCandlesBuy:  5,
			BaseNbCandlesSell: 8,
			LowOffset:         0.978,
			HighOffset:        1.019,
			EWOHigh:           3.34,
			EWOLow:            -17.457,
			RSIBuy:            65,
			FastEWO:           5,
			SlowEWO:           20,
			RSIPeriod:         5,
		},
		State: config.StateConfig{
			FilePath:     filepath.Join(t.TempDir(), "state.json"),
			SaveInterval: time.Minute,
		},
	}
}

func newTestBot(t *testing.T, cfg *config.Config, venue exchange.Exchange) *HedgeBot {
	t.Helper()
	log, err := logger.NewLogger(t.TempDir(), "test")
	require.NoError(t, err)
	t.Cleanup(func() { log.Close() })

	notify := notifications.NewDispatcher(8, nil)
	t.Cleanup(notify.Close)

	bot, err := New(cfg, venue, log, notify)
	require.NoError(t, err)
	return bot
}

// capitulationCandles builds a flat stretch followed by a steep decline that
// satisfies the EWO-low entry condition of the small test parameter set.
func capitulationCandles() []types.OHLCV {
	candles := make([]types.OHLCV, 0, 60)
	ts := time.Now().Add(-60 * 5 * time.Minute)
	price := 100.0
	for i := 0; i < 45; i++ {
		candles = append(candles, types.OHLCV{
			Open: price, High: price, Low: price, Close: price,
			Volume: 1000, Timestamp: ts.Add(time.Duration(i) * 5 * time.Minute),
		})
	}
	for i := 45; i < 60; i++ {
		price *= 0.93
		candles = append(candles, types.OHLCV{
			Open: price / 0.93, High: price / 0.93, Low: price, Close: price,
			Volume: 1000, Timestamp: ts.Add(time.Duration(i) * 5 * time.Minute),
		})
	}
	return candles
}

func TestHedgeBot_FullPairLifecycle(t *testing.T) {
	cfg := testBotConfig(t, "BTCUSDT")
	paper := exchange.NewPaperExchange(100)
	paper.SetKlines("BTCUSDT", capitulationCandles())
	bot := newTestBot(t, cfg, paper)
	ctx := context.Background()

	// cycle 1: capitulation entry
	bot.RunCycle(ctx)
	pair, ok := bot.HedgeManager().ActivePair("BTCUSDT")
	require.True(t, ok, "entry signal should open a pair")
	assert.Equal(t, hedge.StatusLongOpen, pair.Status)
	entryPrice := pair.LongTrade.EntryPrice

	// cycle 2: -6% drawdown fires the hedge trigger
	paper.SetPrice("BTCUSDT", entryPrice*0.94)
	bot.RunCycle(ctx)
	assert.Equal(t, hedge.StatusHedged, pair.Status)
	require.NotNil(t, pair.ShortTrade)
	assert.InDelta(t, entryPrice*0.94, pair.ShortTrade.EntryPrice, entryPrice*0.001)

	// cycle 3: deep drop, 2x short over-covers the long loss
	paper.SetPrice("BTCUSDT", entryPrice*0.80)
	bot.RunCycle(ctx)
	assert.Equal(t, hedge.StatusClosed, pair.Status)
	assert.False(t, pair.LongTrade.IsOpen())
	assert.False(t, pair.ShortTrade.IsOpen())
	combined := *pair.LongTrade.RealizedPnL + *pair.ShortTrade.RealizedPnL
	assert.GreaterOrEqual(t, combined, 0.0)

	// pair retired, entry allowed again
	assert.True(t, bot.HedgeManager().CanEnter("BTCUSDT"))
}

func TestHedgeBot_ExactlyOneHedgePerPair(t *testing.T) {
	cfg := testBotConfig(t, "BTCUSDT")
	paper := exchange.NewPaperExchange(100)
	paper.SetKlines("BTCUSDT", capitulationCandles())
	bot := newTestBot(t, cfg, paper)
	ctx := context.Background()

	bot.RunCycle(ctx)
	pair, ok := bot.HedgeManager().ActivePair("BTCUSDT")
	require.True(t, ok)
	entryPrice := pair.LongTrade.EntryPrice

	// drawdown deepens across several passes; only one short may open
	for _, factor := range []float64{0.94, 0.92, 0.90} {
		paper.SetPrice("BTCUSDT", entryPrice*factor)
		bot.RunCycle(ctx)
	}

	shorts := 0
	for _, trade := range bot.Ledger().AllTrades() {
		if trade.Side == ledger.SideShort {
			shorts++
		}
	}
	assert.Equal(t, 1, shorts)
}

func TestHedgeBot_ReentryWaitsForNextPass(t *testing.T) {
	cfg := testBotConfig(t, "BTCUSDT")
	paper := exchange.NewPaperExchange(100)
	paper.SetKlines("BTCUSDT", capitulationCandles())
	bot := newTestBot(t, cfg, paper)
	ctx := context.Background()

	bot.RunCycle(ctx)
	pair, ok := bot.HedgeManager().ActivePair("BTCUSDT")
	require.True(t, ok)
	entryPrice := pair.LongTrade.EntryPrice

	paper.SetPrice("BTCUSDT", entryPrice*0.94)
	bot.RunCycle(ctx)
	paper.SetPrice("BTCUSDT", entryPrice*0.80)
	bot.RunCycle(ctx)

	// the closing pass places entry, hedge and the two closing orders,
	// but no fresh entry for the still-standing buy signal
	require.Equal(t, hedge.StatusClosed, pair.Status)
	assert.Len(t, paper.Orders(), 4)
	_, ok = bot.HedgeManager().ActivePair("BTCUSDT")
	assert.False(t, ok)

	// the next pass may act on the signal again
	bot.RunCycle(ctx)
	fresh, ok := bot.HedgeManager().ActivePair("BTCUSDT")
	require.True(t, ok)
	assert.NotEqual(t, pair.ID, fresh.ID)
	assert.Len(t, paper.Orders(), 5)
}

func TestHedgeBot_PassIdempotence(t *testing.T) {
	cfg := testBotConfig(t, "BTCUSDT")
	paper := exchange.NewPaperExchange(100)
	paper.SetKlines("BTCUSDT", capitulationCandles())
	bot := newTestBot(t, cfg, paper)
	ctx := context.Background()

	bot.RunCycle(ctx)
	ordersAfterEntry := len(paper.Orders())
	require.Equal(t, 1, ordersAfterEntry)

	// same prices, same state: repeated passes place nothing
	bot.RunCycle(ctx)
	bot.RunCycle(ctx)
	assert.Equal(t, ordersAfterEntry, len(paper.Orders()))
	assert.Len(t, bot.Ledger().AllTrades(), 1)
}

func TestHedgeBot_PrepareSymbolsEnablesHedgeModeAndLeverage(t *testing.T) {
	cfg := testBotConfig(t, "BTCUSDT", "ETHUSDT")
	paper := exchange.NewPaperExchange(100)
	bot := newTestBot(t, cfg, paper)

	require.NoError(t, bot.prepareSymbols(context.Background()))

	for _, symbol := range []string{"BTCUSDT", "ETHUSDT"} {
		assert.True(t, paper.HedgeModeEnabled(symbol), "hedge mode not enabled for %s", symbol)
		assert.Equal(t, cfg.Trading.Leverage, paper.Leverage(symbol))
	}
}

func TestHedgeBot_ROIExitClosesLong(t *testing.T) {
	cfg := testBotConfig(t, "BTCUSDT")
	paper := exchange.NewPaperExchange(100)
	paper.SetKlines("BTCUSDT", capitulationCandles())
	bot := newTestBot(t, cfg, paper)
	ctx := context.Background()

	bot.RunCycle(ctx)
	pair, ok := bot.HedgeManager().ActivePair("BTCUSDT")
	require.True(t, ok)
	entryPrice := pair.LongTrade.EntryPrice

	// +8% raw at 10x leverage is +80% on margin, above the 70% zero-minute bucket
	paper.SetPrice("BTCUSDT", entryPrice*1.08)
	bot.RunCycle(ctx)

	assert.Equal(t, hedge.StatusClosed, pair.Status)
	assert.Nil(t, pair.ShortTrade)
	require.NotNil(t, pair.LongTrade.RealizedPnL)
	assert.Positive(t, *pair.LongTrade.RealizedPnL)
	assert.Contains(t, pair.LongTrade.ExitReason, "roi")
}

func TestHedgeBot_StopLossBeatsHedgeOnGapDown(t *testing.T) {
	cfg := testBotConfig(t, "BTCUSDT")
	paper := exchange.NewPaperExchange(100)
	paper.SetKlines("BTCUSDT", capitulationCandles())
	bot := newTestBot(t, cfg, paper)
	ctx := context.Background()

	bot.RunCycle(ctx)
	pair, ok := bot.HedgeManager().ActivePair("BTCUSDT")
	require.True(t, ok)
	entryPrice := pair.LongTrade.EntryPrice

	// a single gap past the stop loss closes the long before the hedge
	// trigger is even consulted; no short ever opens
	paper.SetPrice("BTCUSDT", entryPrice*0.80)
	bot.RunCycle(ctx)

	assert.Equal(t, hedge.StatusClosed, pair.Status)
	assert.Nil(t, pair.ShortTrade)
	assert.Contains(t, pair.LongTrade.ExitReason, "stop loss")
	require.NotNil(t, pair.LongTrade.RealizedPnL)
	assert.Negative(t, *pair.LongTrade.RealizedPnL)
}

func TestHedgeBot_ErrorIsolationBetweenSymbols(t *testing.T) {
	cfg := testBotConfig(t, "NODATA", "BTCUSDT")
	paper := exchange.NewPaperExchange(100)
	paper.SetKlines("BTCUSDT", capitulationCandles())
	// NODATA has neither price nor klines; its pass fails every cycle
	bot := newTestBot(t, cfg, paper)

	bot.RunCycle(context.Background())

	_, ok := bot.HedgeManager().ActivePair("BTCUSDT")
	assert.True(t, ok, "healthy symbol must still trade")
	_, ok = bot.HedgeManager().ActivePair("NODATA")
	assert.False(t, ok)
}

type orderRejectingExchange struct {
	*exchange.PaperExchange
}

func (o *orderRejectingExchange) PlaceMarketOrder(context.Context, exchange.OrderRequest) (*exchange.OrderResult, error) {
	return nil, boterrors.NewOrderRejected("test", "place_market_order", fmt.Errorf("venue rejected"))
}

func TestHedgeBot_RejectedOrderLeavesStateUntouched(t *testing.T) {
	cfg := testBotConfig(t, "BTCUSDT")
	paper := exchange.NewPaperExchange(100)
	paper.SetKlines("BTCUSDT", capitulationCandles())
	bot := newTestBot(t, cfg, &orderRejectingExchange{PaperExchange: paper})

	bot.RunCycle(context.Background())

	// entry order rejected: no trade, no pair
	assert.Empty(t, bot.Ledger().AllTrades())
	_, ok := bot.HedgeManager().ActivePair("BTCUSDT")
	assert.False(t, ok)
}

func TestHedgeBot_StatePersistsAcrossRestarts(t *testing.T) {
	cfg := testBotConfig(t, "BTCUSDT")
	paper := exchange.NewPaperExchange(100)
	paper.SetKlines("BTCUSDT", capitulationCandles())

	first := newTestBot(t, cfg, paper)
	first.RunCycle(context.Background())
	pair, ok := first.HedgeManager().ActivePair("BTCUSDT")
	require.True(t, ok)

	// a second bot over the same state file resumes the pair
	second := newTestBot(t, cfg, paper)
	restored, ok := second.HedgeManager().ActivePair("BTCUSDT")
	require.True(t, ok)
	assert.Equal(t, pair.ID, restored.ID)
	assert.Equal(t, pair.LongTrade.ID, restored.LongTrade.ID)

	// restored legs are the ledger's instances, not detached copies
	ledgerTrade, ok := second.Ledger().Get(restored.LongTrade.ID)
	require.True(t, ok)
	assert.Same(t, ledgerTrade, restored.LongTrade)
}
