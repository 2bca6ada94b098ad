package reporting

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/ducminhle1904/crypto-hedge-bot/internal/hedge"
	"github.com/ducminhle1904/crypto-hedge-bot/internal/ledger"
)

// ConsoleReporter renders portfolio and pair summaries as terminal tables
type ConsoleReporter struct{}

// NewConsoleReporter creates a new console reporter
func NewConsoleReporter() *ConsoleReporter {
	return &ConsoleReporter{}
}

// PrintPortfolio renders the portfolio snapshot
func (r *ConsoleReporter) PrintPortfolio(portfolio *ledger.Portfolio) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle("PORTFOLIO")
	t.SetStyle(table.StyleRounded)

	t.AppendRows([]table.Row{
		{"💰 Initial Balance", fmt.Sprintf("$%.2f", portfolio.InitialBalance)},
		{"💰 Balance", fmt.Sprintf("$%.2f", portfolio.Balance)},
		{"📈 Total P&L", fmt.Sprintf("$%.2f", portfolio.TotalPnL)},
		{"📈 Unrealized P&L", fmt.Sprintf("$%.2f", portfolio.UnrealizedPnL)},
		{"🔄 Open Trades", len(portfolio.OpenTrades)},
		{"🔄 Closed Trades", portfolio.ClosedTrades},
	})

	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, WidthMin: 20, WidthMax: 20, Align: text.AlignLeft},
		{Number: 2, WidthMin: 18, WidthMax: 30, Align: text.AlignLeft},
	})

	t.Render()
	fmt.Println()
}

// PrintPairs renders every hedge pair with its lifecycle state
func (r *ConsoleReporter) PrintPairs(pairs []*hedge.Pair) {
	if len(pairs) == 0 {
		fmt.Println("No hedge pairs.")
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle("HEDGE PAIRS")
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Symbol", "Status", "Long Entry", "Short Entry", "Coverage"})

	for _, pair := range pairs {
		shortEntry := "-"
		if pair.ShortTrade != nil {
			shortEntry = fmt.Sprintf("$%.4f", pair.ShortTrade.EntryPrice)
		}
		coverage := "-"
		if pair.CoverageRatio > 0 {
			coverage = fmt.Sprintf("%.2f", pair.CoverageRatio)
		}
		t.AppendRow(table.Row{
			pair.Symbol,
			string(pair.Status),
			fmt.Sprintf("$%.4f", pair.LongTrade.EntryPrice),
			shortEntry,
			coverage,
		})
	}

	t.Render()
	fmt.Println()
}
