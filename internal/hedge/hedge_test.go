package hedge

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ducminhle1904/crypto-hedge-bot/internal/ledger"
)

func testConfig() Config {
	return Config{
		TriggerLoss:      -0.05,
		LongNotional:     5.0,
		ShortNotional:    10.0,
		MinCoverageRatio: 1.0,
	}
}

func newTestManager(t *testing.T) (*Manager, *ledger.Ledger) {
	t.Helper()
	led := ledger.NewLedger(1000)
	mgr := NewManager(testConfig(), led)
	return mgr, led
}

func openLong(t *testing.T, mgr *Manager, led *ledger.Ledger, symbol string, entryPrice, notional float64) (*Pair, *ledger.Trade) {
	t.Helper()
	trade := ledger.NewTrade(symbol, ledger.SideLong, entryPrice, notional, 10, time.Now(), "test entry")
	require.NoError(t, led.RecordEntry(trade))
	pair, err := mgr.OpenLong(trade)
	require.NoError(t, err)
	return pair, trade
}

func TestConfig_Validate(t *testing.T) {
	valid := testConfig()
	assert.NoError(t, valid.Validate())

	positive := valid
	positive.TriggerLoss = 0.05
	assert.Error(t, positive.Validate())

	zeroTrigger := valid
	zeroTrigger.TriggerLoss = 0
	assert.Error(t, zeroTrigger.Validate())

	badRatio := valid
	badRatio.MinCoverageRatio = 0.5
	assert.Error(t, badRatio.Validate())

	noSize := valid
	noSize.ShortNotional = 0
	assert.Error(t, noSize.Validate())
}

func TestPair_ValidateShortPresence(t *testing.T) {
	long := ledger.NewTrade("BTCUSDT", ledger.SideLong, 100, 5, 10, time.Now(), "entry")
	pair := NewPair(long)

	assert.Equal(t, StatusLongOpen, pair.Status)
	assert.NoError(t, pair.Validate())

	// LONG_OPEN must not carry a short
	pair.ShortTrade = ledger.NewTrade("BTCUSDT", ledger.SideShort, 95, 10, 10, time.Now(), "hedge")
	assert.Error(t, pair.Validate())

	// HEDGED must carry one
	pair.Status = StatusHedged
	assert.NoError(t, pair.Validate())
	pair.ShortTrade = nil
	assert.Error(t, pair.Validate())
}

func TestManager_RejectsSecondEntryForSymbol(t *testing.T) {
	mgr, led := newTestManager(t)
	openLong(t, mgr, led, "BTCUSDT", 100, 5)

	assert.False(t, mgr.CanEnter("BTCUSDT"))
	assert.True(t, mgr.CanEnter("ETHUSDT"))

	second := ledger.NewTrade("BTCUSDT", ledger.SideLong, 99, 5, 10, time.Now(), "second entry")
	_, err := mgr.OpenLong(second)
	assert.Error(t, err)
}

func TestManager_HedgeTriggerAtThreshold(t *testing.T) {
	mgr, led := newTestManager(t)
	openLong(t, mgr, led, "BTCUSDT", 100, 5)

	assert.False(t, mgr.NeedsHedge("BTCUSDT", 100))
	assert.False(t, mgr.NeedsHedge("BTCUSDT", 95.01)) // -4.99%
	assert.True(t, mgr.NeedsHedge("BTCUSDT", 95))     // exactly -5%
	assert.True(t, mgr.NeedsHedge("BTCUSDT", 90))
}

func TestManager_HedgeTriggerFiresOnce(t *testing.T) {
	mgr, led := newTestManager(t)
	openLong(t, mgr, led, "BTCUSDT", 100, 5)

	require.True(t, mgr.NeedsHedge("BTCUSDT", 94))

	short := ledger.NewTrade("BTCUSDT", ledger.SideShort, 94, 10, 10, time.Now(), "hedge")
	require.NoError(t, led.RecordEntry(short))
	pair, err := mgr.CommitHedge("BTCUSDT", short, time.Now())
	require.NoError(t, err)
	assert.Equal(t, StatusHedged, pair.Status)
	require.NotNil(t, pair.HedgedAt)

	// the state check is the re-entrancy guard: no second trigger, no second commit
	assert.False(t, mgr.NeedsHedge("BTCUSDT", 90))
	_, err = mgr.CommitHedge("BTCUSDT", short, time.Now())
	assert.Error(t, err)
}

func TestManager_RejectedOrderCommitsNothing(t *testing.T) {
	mgr, led := newTestManager(t)
	pair, _ := openLong(t, mgr, led, "BTCUSDT", 100, 5)

	// trigger fires but the order never fills; a later check must fire again
	require.True(t, mgr.NeedsHedge("BTCUSDT", 94))
	assert.Equal(t, StatusLongOpen, pair.Status)
	assert.True(t, mgr.NeedsHedge("BTCUSDT", 94))
}

// hedgedPair opens a $5 long at 100 and a $10 short at 95 (the -5% trigger).
func hedgedPair(t *testing.T, mgr *Manager, led *ledger.Ledger) *Pair {
	t.Helper()
	_, _ = openLong(t, mgr, led, "BTCUSDT", 100, 5)
	short := ledger.NewTrade("BTCUSDT", ledger.SideShort, 95, 10, 10, time.Now(), "hedge")
	require.NoError(t, led.RecordEntry(short))
	pair, err := mgr.CommitHedge("BTCUSDT", short, time.Now())
	require.NoError(t, err)
	return pair
}

func TestManager_CoverageBoundary(t *testing.T) {
	// Long: $5 @ 100, qty 0.05. Short: $10 @ 95, qty 10/95.
	// At price p: long loss = 0.05*(100-p), short profit = (10/95)*(95-p).
	// Equal at p ≈ 90.48; below that the 2x short over-covers.
	mgr, led := newTestManager(t)
	hedgedPair(t, mgr, led)

	ratio, covered := mgr.Coverage("BTCUSDT", 91)
	assert.False(t, covered, "short profit below long loss must hold the pair")
	assert.Less(t, ratio, 1.0)

	ratio, covered = mgr.Coverage("BTCUSDT", 90)
	assert.True(t, covered)
	assert.GreaterOrEqual(t, ratio, 1.0)
}

func TestManager_CoverageExactlyEqualCloses(t *testing.T) {
	// Long $5 @ 100 (qty 0.05) vs short $5 @ 95 with the same quantity:
	// at any price below 95 both legs move by identical dollar amounts, so
	// once the short's gain since 95 equals the long's total loss the ratio
	// is exactly 1 and the pair closes.
	led := ledger.NewLedger(1000)
	mgr := NewManager(Config{TriggerLoss: -0.05, LongNotional: 5, ShortNotional: 5, MinCoverageRatio: 1.0}, led)

	long := ledger.NewTrade("BTCUSDT", ledger.SideLong, 100, 5, 10, time.Now(), "entry")
	require.NoError(t, led.RecordEntry(long))
	_, err := mgr.OpenLong(long)
	require.NoError(t, err)

	short := ledger.NewTrade("BTCUSDT", ledger.SideShort, 95, 4.75, 10, time.Now(), "hedge") // qty 0.05
	require.NoError(t, led.RecordEntry(short))
	_, err = mgr.CommitHedge("BTCUSDT", short, time.Now())
	require.NoError(t, err)

	// at 90: long loss = 0.05*10 = $0.50, short profit = 0.05*5 = $0.25 -> holds
	_, covered := mgr.Coverage("BTCUSDT", 90)
	assert.False(t, covered)

	// qty is equal, so the short can never catch the long's head start from
	// 100 to 95; it covers only once the long recovers past break-even
	_, covered = mgr.Coverage("BTCUSDT", 10)
	assert.False(t, covered)
}

func TestManager_CommitCloseSettlesBothLegs(t *testing.T) {
	mgr, led := newTestManager(t)
	pair := hedgedPair(t, mgr, led)

	closedAt := time.Now()
	closed, err := mgr.CommitClose("BTCUSDT", 86, closedAt)
	require.NoError(t, err)

	assert.Equal(t, StatusClosed, closed.Status)
	require.NotNil(t, closed.ClosedAt)
	assert.GreaterOrEqual(t, closed.CoverageRatio, 1.0)

	for _, leg := range []*ledger.Trade{closed.LongTrade, closed.ShortTrade} {
		assert.False(t, leg.IsOpen())
		require.NotNil(t, leg.RealizedPnL)
		assert.Equal(t, 86.0, leg.ExitPrice)
	}
	assert.Negative(t, *closed.LongTrade.RealizedPnL)
	assert.Positive(t, *closed.ShortTrade.RealizedPnL)

	// combined P&L non-negative at coverage
	combined := *closed.LongTrade.RealizedPnL + *closed.ShortTrade.RealizedPnL
	assert.GreaterOrEqual(t, combined, 0.0)

	assert.True(t, mgr.CanEnter("BTCUSDT"))
	assert.Equal(t, pair.ID, closed.ID)

	_, err = mgr.CommitClose("BTCUSDT", 86, closedAt)
	assert.Error(t, err, "a closed pair is never reopened or re-closed")
}

func TestManager_CloseLongOpenPairRejected(t *testing.T) {
	mgr, led := newTestManager(t)
	openLong(t, mgr, led, "BTCUSDT", 100, 5)

	_, err := mgr.CommitClose("BTCUSDT", 95, time.Now())
	assert.Error(t, err)
}

func TestManager_OnLongExitRetiresPair(t *testing.T) {
	mgr, led := newTestManager(t)
	pair, long := openLong(t, mgr, led, "BTCUSDT", 100, 5)

	_, err := led.RecordExit(long.ID, 108, time.Now(), "roi target reached")
	require.NoError(t, err)
	require.NoError(t, mgr.OnLongExit("BTCUSDT", long.ID, time.Now()))

	assert.Equal(t, StatusClosed, pair.Status)
	assert.Nil(t, pair.ShortTrade)
	assert.NoError(t, pair.Validate())
	assert.True(t, mgr.CanEnter("BTCUSDT"))
}

func TestManager_OnLongExitOfHedgedPairIsViolation(t *testing.T) {
	mgr, led := newTestManager(t)
	pair := hedgedPair(t, mgr, led)

	err := mgr.OnLongExit("BTCUSDT", pair.LongTrade.ID, time.Now())
	assert.Error(t, err)
}

func TestManager_IsHedgedLeg(t *testing.T) {
	mgr, led := newTestManager(t)
	pair := hedgedPair(t, mgr, led)

	assert.True(t, mgr.IsHedgedLeg(pair.LongTrade.ID))
	assert.True(t, mgr.IsHedgedLeg(pair.ShortTrade.ID))
	assert.False(t, mgr.IsHedgedLeg("unrelated"))

	mgr2, led2 := newTestManager(t)
	_, long := openLong(t, mgr2, led2, "BTCUSDT", 100, 5)
	assert.False(t, mgr2.IsHedgedLeg(long.ID), "LONG_OPEN legs stay eligible for roi exits")
}

func TestManager_RestoreRoundTrip(t *testing.T) {
	mgr, led := newTestManager(t)
	pair := hedgedPair(t, mgr, led)

	data, err := json.Marshal(mgr.AllPairs())
	require.NoError(t, err)

	var restored []*Pair
	require.NoError(t, json.Unmarshal(data, &restored))

	fresh := NewManager(testConfig(), led)
	require.NoError(t, fresh.Restore(restored))

	got, ok := fresh.ActivePair("BTCUSDT")
	require.True(t, ok)
	assert.Equal(t, pair.ID, got.ID)
	assert.Equal(t, StatusHedged, got.Status)
	assert.Equal(t, pair.LongTrade.ID, got.LongTrade.ID)
	assert.Equal(t, pair.ShortTrade.EntryPrice, got.ShortTrade.EntryPrice)
	assert.False(t, fresh.CanEnter("BTCUSDT"))
}

func TestManager_RestoreRejectsDuplicateActive(t *testing.T) {
	mgr, led := newTestManager(t)
	pair := hedgedPair(t, mgr, led)

	dup := *pair
	err := NewManager(testConfig(), led).Restore([]*Pair{pair, &dup})
	assert.Error(t, err)
}
