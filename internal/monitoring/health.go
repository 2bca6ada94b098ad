package monitoring

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

var startTime = time.Now()

// HealthChecker tracks liveness signals from the trading loop and serves them
// as a health endpoint
type HealthChecker struct {
	mu          sync.RWMutex
	lastCycle   time.Time
	lastPrice   float64
	isConnected bool
	errors      []string
}

type HealthStatus struct {
	Status      string    `json:"status"`
	Timestamp   time.Time `json:"timestamp"`
	LastCycle   time.Time `json:"last_cycle"`
	LastPrice   float64   `json:"last_price"`
	IsConnected bool      `json:"is_connected"`
	Uptime      string    `json:"uptime"`
	Errors      []string  `json:"errors,omitempty"`
}

func NewHealthChecker() *HealthChecker {
	return &HealthChecker{
		errors: make([]string, 0),
	}
}

// MarkCycle records a completed evaluation pass
func (h *HealthChecker) MarkCycle(lastPrice float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.lastCycle = time.Now()
	h.lastPrice = lastPrice
	h.isConnected = true
	h.errors = h.errors[:0]
}

// MarkError records an error surfaced by the loop
func (h *HealthChecker) MarkError(message string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.errors = append(h.errors, message)
	if len(h.errors) > 10 {
		h.errors = h.errors[len(h.errors)-10:]
	}
}

// MarkDisconnected flags lost exchange connectivity
func (h *HealthChecker) MarkDisconnected() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.isConnected = false
}

func (h *HealthChecker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	status := "healthy"
	if !h.isConnected || time.Since(h.lastCycle) > 10*time.Minute {
		status = "degraded"
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	if len(h.errors) > 0 {
		status = "unhealthy"
		w.WriteHeader(http.StatusInternalServerError)
	}

	health := HealthStatus{
		Status:      status,
		Timestamp:   time.Now(),
		LastCycle:   h.lastCycle,
		LastPrice:   h.lastPrice,
		IsConnected: h.isConnected,
		Uptime:      time.Since(startTime).String(),
		Errors:      h.errors,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(health)
}
