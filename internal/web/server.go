package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/ducminhle1904/crypto-hedge-bot/internal/hedge"
	"github.com/ducminhle1904/crypto-hedge-bot/internal/ledger"
)

// Server exposes a read-only JSON view of the bot: portfolio, trades and
// hedge pairs. It never mutates state; every response is computed from the
// live ledger at request time.
type Server struct {
	ledger   *ledger.Ledger
	hedgeMgr *hedge.Manager
	prices   ledger.PriceLookup
	mux      *http.ServeMux
}

// NewServer builds the dashboard API over the given ledger and hedge manager.
// prices resolves current prices for unrealized P&L; it may return ok=false
// for symbols with no fresh data.
func NewServer(led *ledger.Ledger, hedgeMgr *hedge.Manager, prices ledger.PriceLookup) *Server {
	s := &Server{
		ledger:   led,
		hedgeMgr: hedgeMgr,
		prices:   prices,
		mux:      http.NewServeMux(),
	}
	s.mux.HandleFunc("/api/portfolio", s.handlePortfolio)
	s.mux.HandleFunc("/api/trades", s.handleTrades)
	s.mux.HandleFunc("/api/pairs", s.handlePairs)
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// ListenAndServe runs the dashboard on the given port
func (s *Server) ListenAndServe(port int) error {
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      s,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	return server.ListenAndServe()
}

func (s *Server) handlePortfolio(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, s.ledger.Snapshot(s.prices))
}

func (s *Server) handleTrades(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var trades []*ledger.Trade
	switch r.URL.Query().Get("status") {
	case "open":
		trades = s.ledger.OpenTrades()
	case "closed":
		trades = s.ledger.ClosedTrades()
	default:
		trades = s.ledger.AllTrades()
	}
	writeJSON(w, trades)
}

func (s *Server) handlePairs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var pairs []*hedge.Pair
	if r.URL.Query().Get("status") == "active" {
		pairs = s.hedgeMgr.ActivePairs()
	} else {
		pairs = s.hedgeMgr.AllPairs()
	}
	writeJSON(w, pairs)
}

func writeJSON(w http.ResponseWriter, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
	}
}
