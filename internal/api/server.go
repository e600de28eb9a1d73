// Package api provides the HTTP API for observing the bakery.
// GET endpoints are public (read-only observation).
// POST endpoints require a bearer token (admin control plane).
package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/talgya/bakerysim/internal/engine"
	"github.com/talgya/bakerysim/internal/persistence"
)

// Server serves the bakery state over HTTP.
type Server struct {
	Sim      *engine.Simulation
	Eng      *engine.Engine
	DB       *persistence.DB
	Port     int
	AdminKey string // Bearer token for POST endpoints. Empty = POST disabled.
}

// Start begins serving the HTTP API in a goroutine.
func (s *Server) Start() {
	saveLimiter := NewRateLimiter(30, time.Hour)

	mux := http.NewServeMux()

	// Public endpoints (GET, read-only).
	mux.HandleFunc("/api/v1/status", s.handleStatus)
	mux.HandleFunc("/api/v1/units", s.handleUnits)
	mux.HandleFunc("/api/v1/recipes", s.handleRecipes)
	mux.HandleFunc("/api/v1/orders", s.handleOrders)
	mux.HandleFunc("/api/v1/suppliers", s.handleSuppliers)
	mux.HandleFunc("/api/v1/market", s.handleMarket)
	mux.HandleFunc("/api/v1/stats", s.handleStats)
	mux.HandleFunc("/api/v1/events", s.handleEvents)

	// Admin endpoints (POST, require bearer token).
	mux.HandleFunc("/api/v1/speed", s.adminOnly(s.handleSpeed))
	mux.HandleFunc("/api/v1/save", s.adminOnly(RateLimitMiddleware(saveLimiter, s.handleSave)))

	addr := fmt.Sprintf(":%d", s.Port)
	slog.Info("HTTP API starting", "addr", addr, "admin_auth", s.AdminKey != "")

	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()
}

// checkBearerToken returns true if the request has a valid admin bearer token.
func (s *Server) checkBearerToken(r *http.Request) bool {
	auth := r.Header.Get("Authorization")
	return strings.HasPrefix(auth, "Bearer ") && strings.TrimPrefix(auth, "Bearer ") == s.AdminKey
}

// adminOnly wraps a handler to require bearer token auth on POST requests.
// GET requests pass through (for endpoints that support both).
func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			if s.AdminKey == "" {
				http.Error(w, "admin endpoints disabled (no admin key set)", http.StatusForbidden)
				return
			}
			if !s.checkBearerToken(r) {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
		}
		next(w, r)
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	v := s.Sim.StatusView(time.Now())
	c := v.Clock

	status := map[string]any{
		"name":            "Bakery Simulator",
		"tick":            v.Tick,
		"speed":           s.Eng.Speed(),
		"running":         s.Eng.Running(),
		"currency":        v.Currency,
		"currency_human":  humanize.CommafWithDigits(v.Currency, 0),
		"total_earned":    v.TotalEarned,
		"per_click":       v.PerClick,
		"production_rate": v.ProductionRate,
		"level":           v.Level,
		"experience":      v.Experience,
		"login_streak":    v.LoginStreak,
		"game_time": fmt.Sprintf("year %d, month %d, day %d, %02d:%02d",
			c.Year, c.Month, c.Day, int(c.HourOfDay), int(c.HourOfDay*60)%60),
		"weekend":          c.Weekend(),
		"inventory_stock":  v.InventoryStock,
		"inventory_cap":    v.InventoryCap,
		"storage_level":    v.StorageLevel,
		"active_orders":    v.ActiveOrders,
		"orders_completed": v.Completed,
		"best_seller":      v.BestSeller,
		"market_price":     v.MarketPrice,
		"market_coins":     v.MarketCoins,
	}
	writeJSON(w, status)
}

func (s *Server) handleUnits(w http.ResponseWriter, r *http.Request) {
	units, upgrades := s.Sim.ProductionView()
	writeJSON(w, map[string]any{"units": units, "upgrades": upgrades})
}

func (s *Server) handleRecipes(w http.ResponseWriter, r *http.Request) {
	recipes, cooking := s.Sim.KitchenView(time.Now())
	writeJSON(w, map[string]any{"recipes": recipes, "cooking": cooking})
}

func (s *Server) handleOrders(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Sim.OrdersView(time.Now()))
}

func (s *Server) handleSuppliers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Sim.SuppliersView())
}

func (s *Server) handleMarket(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Sim.MarketView())
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	raw, err := s.Sim.StatsJSON()
	if err != nil {
		http.Error(w, "stats unavailable", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(raw)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}

	events := s.Sim.RecentEvents(limit)

	// Optional category filter.
	if category := r.URL.Query().Get("category"); category != "" {
		var filtered []engine.Event
		for _, e := range events {
			if e.Category == category {
				filtered = append(filtered, e)
			}
		}
		events = filtered
	}

	writeJSON(w, events)
}

func (s *Server) handleSpeed(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodPost {
		var req struct {
			Speed float64 `json:"speed"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if req.Speed < 0 || req.Speed > 1000 {
			http.Error(w, "speed must be 0-1000", http.StatusBadRequest)
			return
		}
		s.Eng.SetSpeed(req.Speed)
		slog.Info("speed changed", "speed", req.Speed)
	}

	writeJSON(w, map[string]float64{"speed": s.Eng.Speed()})
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.DB == nil {
		http.Error(w, "database not available", http.StatusServiceUnavailable)
		return
	}

	if err := s.DB.SaveGame(s.Sim); err != nil {
		slog.Error("save failed", "error", err)
		http.Error(w, "save failed", http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]any{
		"tick":    s.Sim.CurrentTick(),
		"message": "game saved",
	})
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}
