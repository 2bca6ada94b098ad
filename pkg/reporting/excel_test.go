package reporting

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ducminhle1904/crypto-hedge-bot/internal/hedge"
	"github.com/ducminhle1904/crypto-hedge-bot/internal/ledger"
)

func TestExcelReporter_WriteHistory(t *testing.T) {
	trade := ledger.NewTrade("BTCUSDT", ledger.SideLong, 50000, 5, 10, time.Now(), "ewo high entry")
	require.NoError(t, trade.Close(51000, time.Now(), "roi target reached"))
	pair := hedge.NewPair(ledger.NewTrade("ETHUSDT", ledger.SideLong, 3000, 5, 10, time.Now(), "entry"))

	path := filepath.Join(t.TempDir(), "reports", "history.xlsx")
	err := NewExcelReporter().WriteHistory([]*ledger.Trade{trade}, []*hedge.Pair{pair}, path)
	require.NoError(t, err)

	fx, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer fx.Close()

	symbol, err := fx.GetCellValue("Trades", "B2")
	require.NoError(t, err)
	assert.Equal(t, "BTCUSDT", symbol)

	exitReason, err := fx.GetCellValue("Trades", "K2")
	require.NoError(t, err)
	assert.Equal(t, "roi target reached", exitReason)

	status, err := fx.GetCellValue("Hedge Pairs", "C2")
	require.NoError(t, err)
	assert.Equal(t, "LONG_OPEN", status)
}
