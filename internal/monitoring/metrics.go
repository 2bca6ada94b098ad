package monitoring

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Trading metrics
	tradesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hedge_bot_trades_total",
			Help: "Total number of trades executed",
		},
		[]string{"symbol", "side"},
	)

	tradeNotional = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hedge_bot_trade_notional",
			Help:    "Distribution of trade notional sizes",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"symbol"},
	)

	// Gauge, not counter: realized P&L goes down on losing exits
	realizedPnL = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "hedge_bot_realized_pnl",
			Help: "Cumulative realized P&L by exit kind",
		},
		[]string{"symbol", "exit"},
	)

	// Hedge pair metrics
	hedgeTriggersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hedge_bot_hedge_triggers_total",
			Help: "Total number of hedge triggers fired",
		},
		[]string{"symbol"},
	)

	pairClosesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hedge_bot_pair_closes_total",
			Help: "Total number of hedge pairs closed",
		},
		[]string{"symbol", "outcome"},
	)

	activePairs = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "hedge_bot_active_pairs",
			Help: "Number of non-closed hedge pairs",
		},
	)

	coverageRatio = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "hedge_bot_coverage_ratio",
			Help: "Short-profit to long-loss ratio of hedged pairs",
		},
		[]string{"symbol"},
	)

	// Market data metrics
	currentPrice = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "hedge_bot_current_price",
			Help: "Current price of trading symbol",
		},
		[]string{"symbol"},
	)

	// Error metrics
	errorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hedge_bot_errors_total",
			Help: "Total number of errors by category",
		},
		[]string{"category"},
	)
)

func init() {
	prometheus.MustRegister(tradesTotal)
	prometheus.MustRegister(tradeNotional)
	prometheus.MustRegister(realizedPnL)
	prometheus.MustRegister(hedgeTriggersTotal)
	prometheus.MustRegister(pairClosesTotal)
	prometheus.MustRegister(activePairs)
	prometheus.MustRegister(coverageRatio)
	prometheus.MustRegister(currentPrice)
	prometheus.MustRegister(errorsTotal)
}

// MetricsHandler handles the Prometheus metrics endpoint
type MetricsHandler struct{}

func NewMetricsHandler() *MetricsHandler {
	return &MetricsHandler{}
}

func (m *MetricsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// RecordTrade records an executed trade
func RecordTrade(symbol, side string, notional float64) {
	tradesTotal.WithLabelValues(symbol, side).Inc()
	tradeNotional.WithLabelValues(symbol).Observe(notional)
}

// RecordRealizedPnL accumulates realized P&L for an exit kind
func RecordRealizedPnL(symbol, exit string, pnl float64) {
	realizedPnL.WithLabelValues(symbol, exit).Add(pnl)
}

// RecordHedgeTrigger records a fired drawdown trigger
func RecordHedgeTrigger(symbol string) {
	hedgeTriggersTotal.WithLabelValues(symbol).Inc()
}

// RecordPairClose records a pair reaching CLOSED
func RecordPairClose(symbol, outcome string) {
	pairClosesTotal.WithLabelValues(symbol, outcome).Inc()
}

// SetActivePairs updates the count of non-closed pairs
func SetActivePairs(count int) {
	activePairs.Set(float64(count))
}

// SetCoverageRatio updates the observed coverage ratio of a hedged pair
func SetCoverageRatio(symbol string, ratio float64) {
	coverageRatio.WithLabelValues(symbol).Set(ratio)
}

// UpdatePrice updates the current price metric
func UpdatePrice(symbol string, price float64) {
	currentPrice.WithLabelValues(symbol).Set(price)
}

// RecordError records an error by category
func RecordError(category string) {
	errorsTotal.WithLabelValues(category).Inc()
}
