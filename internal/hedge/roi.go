package hedge

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// ROIRow is one bucket of the time-to-minimum-profit table: once at least
// Minutes have elapsed, the required profit fraction drops to MinProfit.
type ROIRow struct {
	Minutes   int     `json:"minutes"`
	MinProfit float64 `json:"min_profit"`
}

// ROITable is an ordered sequence of ROI rows, ascending by elapsed time with
// non-increasing profit thresholds. A final zero threshold means "exit
// regardless of profit" once that much time has passed.
type ROITable struct {
	rows []ROIRow
}

// DefaultROITable returns the table the bot ships with
func DefaultROITable() *ROITable {
	table, _ := NewROITable([]ROIRow{
		{0, 0.70},
		{1, 0.65},
		{2, 0.60},
		{5, 0.45},
		{10, 0.20},
		{15, 0.15},
		{30, 0.07},
		{60, 0.03},
		{120, 0},
	})
	return table
}

// NewROITable validates and builds a table from the given rows
func NewROITable(rows []ROIRow) (*ROITable, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("ROI table must have at least one row")
	}

	sorted := make([]ROIRow, len(rows))
	copy(sorted, rows)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Minutes < sorted[j].Minutes })

	if sorted[0].Minutes != 0 {
		return nil, fmt.Errorf("ROI table must start at 0 minutes, starts at %d", sorted[0].Minutes)
	}
	if sorted[0].MinProfit < 0 {
		return nil, fmt.Errorf("ROI threshold at 0m is negative")
	}
	for i := 1; i < len(sorted); i++ {
		if sorted[i].Minutes == sorted[i-1].Minutes {
			return nil, fmt.Errorf("duplicate ROI bucket at %d minutes", sorted[i].Minutes)
		}
		if sorted[i].MinProfit > sorted[i-1].MinProfit {
			return nil, fmt.Errorf("ROI thresholds must be non-increasing: %.4f at %dm rises above %.4f at %dm",
				sorted[i].MinProfit, sorted[i].Minutes, sorted[i-1].MinProfit, sorted[i-1].Minutes)
		}
		if sorted[i].MinProfit < 0 {
			return nil, fmt.Errorf("ROI threshold at %dm is negative", sorted[i].Minutes)
		}
	}

	return &ROITable{rows: sorted}, nil
}

// ParseROITable parses the compact "0:0.70,10:0.20,120:0" form used in config
func ParseROITable(spec string) (*ROITable, error) {
	parts := strings.Split(spec, ",")
	rows := make([]ROIRow, 0, len(parts))
	for _, part := range parts {
		kv := strings.SplitN(strings.TrimSpace(part), ":", 2)
		if len(kv) != 2 {
			return nil, fmt.Errorf("invalid ROI entry %q, want minutes:fraction", part)
		}
		minutes, err := strconv.Atoi(strings.TrimSpace(kv[0]))
		if err != nil {
			return nil, fmt.Errorf("invalid ROI minutes %q: %w", kv[0], err)
		}
		fraction, err := strconv.ParseFloat(strings.TrimSpace(kv[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid ROI fraction %q: %w", kv[1], err)
		}
		rows = append(rows, ROIRow{Minutes: minutes, MinProfit: fraction})
	}
	return NewROITable(rows)
}

// ThresholdFor selects the row with the greatest minutes value not exceeding
// the elapsed time and returns its profit fraction.
func (t *ROITable) ThresholdFor(elapsed time.Duration) float64 {
	elapsedMinutes := elapsed.Minutes()
	threshold := t.rows[0].MinProfit
	for _, row := range t.rows {
		if float64(row.Minutes) <= elapsedMinutes {
			threshold = row.MinProfit
		} else {
			break
		}
	}
	return threshold
}

// ShouldExit reports whether the leverage-adjusted profit fraction qualifies
// for an ROI exit at the given holding time. A zero threshold forces the exit
// regardless of profit, losses included.
func (t *ROITable) ShouldExit(elapsed time.Duration, profitFraction float64) bool {
	threshold := t.ThresholdFor(elapsed)
	if threshold == 0 {
		return true
	}
	return profitFraction >= threshold
}

// Rows returns a copy of the table rows in ascending time order
func (t *ROITable) Rows() []ROIRow {
	rows := make([]ROIRow, len(t.rows))
	copy(rows, t.rows)
	return rows
}

// String renders the table in the compact config form
func (t *ROITable) String() string {
	parts := make([]string, len(t.rows))
	for i, row := range t.rows {
		parts[i] = fmt.Sprintf("%d:%g", row.Minutes, row.MinProfit)
	}
	return strings.Join(parts, ",")
}
