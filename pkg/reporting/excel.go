package reporting

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/ducminhle1904/crypto-hedge-bot/internal/hedge"
	"github.com/ducminhle1904/crypto-hedge-bot/internal/ledger"
)

// ExcelReporter writes trade and hedge pair history to an Excel workbook
type ExcelReporter struct{}

// NewExcelReporter creates a new Excel reporter
func NewExcelReporter() *ExcelReporter {
	return &ExcelReporter{}
}

type excelStyles struct {
	Header   int
	Currency int
	Percent  int
}

// WriteHistory writes all trades and pairs to the given path
func (r *ExcelReporter) WriteHistory(trades []*ledger.Trade, pairs []*hedge.Pair, path string) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	fx := excelize.NewFile()
	defer fx.Close()

	const tradesSheet = "Trades"
	const pairsSheet = "Hedge Pairs"

	fx.SetSheetName(fx.GetSheetName(0), tradesSheet)
	fx.NewSheet(pairsSheet)

	styles, err := r.createStyles(fx)
	if err != nil {
		return err
	}

	if err := r.writeTradesSheet(fx, tradesSheet, trades, styles); err != nil {
		return err
	}
	if err := r.writePairsSheet(fx, pairsSheet, pairs, styles); err != nil {
		return err
	}

	return fx.SaveAs(path)
}

func (r *ExcelReporter) createStyles(fx *excelize.File) (excelStyles, error) {
	var styles excelStyles
	var err error

	styles.Header, err = fx.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		return styles, err
	}

	styles.Currency, err = fx.NewStyle(&excelize.Style{
		NumFmt:    177, // $#,##0.00
		Alignment: &excelize.Alignment{Horizontal: "right"},
	})
	if err != nil {
		return styles, err
	}

	styles.Percent, err = fx.NewStyle(&excelize.Style{
		NumFmt:    10, // 0.00%
		Alignment: &excelize.Alignment{Horizontal: "right"},
	})
	return styles, err
}

func (r *ExcelReporter) writeTradesSheet(fx *excelize.File, sheet string, trades []*ledger.Trade, styles excelStyles) error {
	headers := []string{
		"ID", "Symbol", "Side", "Entry Price", "Exit Price", "Notional",
		"Leverage", "Opened At", "Closed At", "Entry Reason", "Exit Reason", "Realized P&L",
	}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		fx.SetCellValue(sheet, cell, header)
		fx.SetCellStyle(sheet, cell, cell, styles.Header)
	}

	for row, trade := range trades {
		values := []interface{}{
			trade.ID,
			trade.Symbol,
			string(trade.Side),
			trade.EntryPrice,
			trade.ExitPrice,
			trade.Size,
			trade.Leverage,
			trade.OpenedAt.Format(time.RFC3339),
			formatClosedAt(trade.ClosedAt),
			trade.EntryReason,
			trade.ExitReason,
			formatRealized(trade.RealizedPnL),
		}
		for col, value := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			fx.SetCellValue(sheet, cell, value)
		}
		for _, col := range []int{4, 5, 6, 12} {
			cell, _ := excelize.CoordinatesToCellName(col, row+2)
			fx.SetCellStyle(sheet, cell, cell, styles.Currency)
		}
	}

	fx.SetColWidth(sheet, "A", "A", 38)
	fx.SetColWidth(sheet, "H", "I", 22)
	fx.SetColWidth(sheet, "J", "K", 40)
	return nil
}

func (r *ExcelReporter) writePairsSheet(fx *excelize.File, sheet string, pairs []*hedge.Pair, styles excelStyles) error {
	headers := []string{
		"ID", "Symbol", "Status", "Long Entry", "Short Entry",
		"Created At", "Hedged At", "Closed At", "Coverage Ratio",
	}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		fx.SetCellValue(sheet, cell, header)
		fx.SetCellStyle(sheet, cell, cell, styles.Header)
	}

	for row, pair := range pairs {
		shortEntry := 0.0
		if pair.ShortTrade != nil {
			shortEntry = pair.ShortTrade.EntryPrice
		}
		values := []interface{}{
			pair.ID,
			pair.Symbol,
			string(pair.Status),
			pair.LongTrade.EntryPrice,
			shortEntry,
			pair.CreatedAt.Format(time.RFC3339),
			formatOptionalTime(pair.HedgedAt),
			formatOptionalTime(pair.ClosedAt),
			pair.CoverageRatio,
		}
		for col, value := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			fx.SetCellValue(sheet, cell, value)
		}
		for _, col := range []int{4, 5} {
			cell, _ := excelize.CoordinatesToCellName(col, row+2)
			fx.SetCellStyle(sheet, cell, cell, styles.Currency)
		}
	}

	fx.SetColWidth(sheet, "A", "A", 38)
	fx.SetColWidth(sheet, "F", "H", 22)
	return nil
}

func formatClosedAt(closedAt *time.Time) string {
	if closedAt == nil {
		return ""
	}
	return closedAt.Format(time.RFC3339)
}

func formatOptionalTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}

func formatRealized(pnl *float64) interface{} {
	if pnl == nil {
		return ""
	}
	return *pnl
}
