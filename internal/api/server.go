// Package api serves a running match over HTTP.
// GET endpoints are public (read-only observation).
// POST endpoints require a bearer token (admin control plane).
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/talgya/contagion/internal/engine"
	"github.com/talgya/contagion/internal/journal"
)

const (
	defaultEventLimit = 100
	maxEventLimit     = 1000
	maxSpeed          = 100
)

// Server exposes one match. Every access to the simulation goes through
// Runner.Do.
type Server struct {
	Runner   *engine.Runner
	Hub      *Hub        // Nil disables /ws
	DB       *journal.DB // Nil disables match history
	MatchID  string      // Journal ID of the running match, if any
	Port     int
	AdminKey string // Bearer token for POST endpoints. Empty = POST disabled.

	adminLimiter *RateLimiter
}

// Handler builds the routed handler.
func (s *Server) Handler() http.Handler {
	if s.adminLimiter == nil {
		s.adminLimiter = NewRateLimiter(60, time.Minute)
	}
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/v1/status", s.handleStatus)
	mux.HandleFunc("GET /api/v1/snapshot", s.handleSnapshot)
	mux.HandleFunc("GET /api/v1/events", s.handleEvents)
	mux.HandleFunc("GET /api/v1/catalog", s.handleCatalog)
	mux.HandleFunc("GET /api/v1/matches", s.handleMatches)
	mux.HandleFunc("GET /api/v1/matches/{id}", s.handleMatch)
	mux.HandleFunc("GET /api/v1/matches/{id}/events", s.handleMatchEvents)
	mux.HandleFunc("GET /api/v1/matches/{id}/snapshots", s.handleMatchSnapshots)
	if s.Hub != nil {
		mux.HandleFunc("GET /ws", s.Hub.ServeWS)
	}

	mux.HandleFunc("POST /api/v1/speed", s.adminOnly(s.handleSpeed))
	mux.HandleFunc("POST /api/v1/pause", s.adminOnly(s.handlePause))
	mux.HandleFunc("POST /api/v1/event", s.adminOnly(s.handleForceEvent))

	return corsMiddleware(mux)
}

// Serve listens on Port until ctx is cancelled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", s.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	slog.Info("HTTP API starting", "addr", addr, "admin_auth", s.AdminKey != "", "journal", s.DB != nil)

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()

	select {
	case err := <-errc:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// corsMiddleware allows localhost dev servers plus any origin listed in
// the comma-separated CORS_ORIGINS env var.
func corsMiddleware(next http.Handler) http.Handler {
	allowed := map[string]bool{
		"http://localhost:5173": true,
		"http://localhost:3000": true,
	}
	for _, origin := range strings.Split(os.Getenv("CORS_ORIGINS"), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			allowed[origin] = true
		}
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if origin := r.Header.Get("Origin"); allowed[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) checkBearerToken(r *http.Request) bool {
	auth := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(auth, "Bearer ")
	return ok && token == s.AdminKey
}

func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	limited := RateLimitMiddleware(s.adminLimiter, next)
	return func(w http.ResponseWriter, r *http.Request) {
		if s.AdminKey == "" {
			http.Error(w, "admin endpoints disabled (no OUTBREAK_ADMIN_KEY set)", http.StatusForbidden)
			return
		}
		if !s.checkBearerToken(r) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		limited(w, r)
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status := map[string]any{
		"speed": s.Runner.Speed(),
	}
	s.Runner.Do(func(sim *engine.Simulation) {
		ctx := sim.Ctx
		status["difficulty"] = ctx.Difficulty.Key
		status["seed"] = sim.Seed
		status["tick"] = ctx.Tick
		status["elapsed"] = ctx.Elapsed
		status["outcome"] = ctx.Outcome
		status["paused"] = ctx.Paused
		status["frozen"] = ctx.Frozen
		status["population"] = ctx.Difficulty.Population
		if a, ok := sim.Events.Active(); ok {
			status["active_event"] = a.Spec.ID
		}
		status["next_event_in"] = sim.Events.NextAttemptIn()
	})
	if s.MatchID != "" {
		status["match_id"] = s.MatchID
	}
	if s.Hub != nil {
		status["ws_clients"] = s.Hub.Clients()
	}
	writeJSON(w, status)
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	var snap engine.Snapshot
	s.Runner.Do(func(sim *engine.Simulation) { snap = sim.Snapshot() })
	writeJSON(w, snap)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r, defaultEventLimit, maxEventLimit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	var events []engine.Event
	s.Runner.Do(func(sim *engine.Simulation) { events = sim.RecentEvents(limit) })
	writeJSON(w, events)
}

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	var catalog []engine.EventSpec
	s.Runner.Do(func(sim *engine.Simulation) { catalog = sim.Events.Catalog() })
	writeJSON(w, catalog)
}

func (s *Server) requireDB(w http.ResponseWriter) bool {
	if s.DB == nil {
		http.Error(w, "match journal disabled (no OUTBREAK_DB_PATH set)", http.StatusNotFound)
		return false
	}
	return true
}

func (s *Server) handleMatches(w http.ResponseWriter, r *http.Request) {
	if !s.requireDB(w) {
		return
	}
	limit, err := parseLimit(r, 20, 200)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	matches, err := s.DB.Matches(r.Context(), limit)
	if err != nil {
		slog.Error("list matches failed", "error", err)
		http.Error(w, "query failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, matches)
}

func (s *Server) handleMatch(w http.ResponseWriter, r *http.Request) {
	if !s.requireDB(w) {
		return
	}
	m, err := s.DB.Match(r.Context(), r.PathValue("id"))
	if err != nil {
		http.Error(w, "match not found", http.StatusNotFound)
		return
	}
	writeJSON(w, m)
}

func (s *Server) handleMatchEvents(w http.ResponseWriter, r *http.Request) {
	if !s.requireDB(w) {
		return
	}
	limit, err := parseLimit(r, defaultEventLimit, maxEventLimit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	rows, err := s.DB.Events(r.Context(), r.PathValue("id"), limit)
	if err != nil {
		slog.Error("match events query failed", "match", r.PathValue("id"), "error", err)
		http.Error(w, "query failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, rows)
}

func (s *Server) handleMatchSnapshots(w http.ResponseWriter, r *http.Request) {
	if !s.requireDB(w) {
		return
	}
	rows, err := s.DB.Snapshots(r.Context(), r.PathValue("id"))
	if err != nil {
		slog.Error("match snapshots query failed", "match", r.PathValue("id"), "error", err)
		http.Error(w, "query failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, rows)
}

func (s *Server) handleSpeed(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Speed float64 `json:"speed"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if req.Speed < 0 || req.Speed > maxSpeed {
		http.Error(w, fmt.Sprintf("speed must be 0-%d", maxSpeed), http.StatusBadRequest)
		return
	}
	s.Runner.SetSpeed(req.Speed)
	writeJSON(w, map[string]float64{"speed": s.Runner.Speed()})
}

func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Paused bool `json:"paused"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	var paused bool
	s.Runner.Do(func(sim *engine.Simulation) {
		sim.SetPaused(req.Paused)
		paused = sim.Ctx.Paused
	})
	slog.Info("pause changed via API", "paused", paused)
	writeJSON(w, map[string]bool{"paused": paused})
}

// handleForceEvent starts a catalog event by ID, or a weighted random
// available one when the ID is "random".
func (s *Server) handleForceEvent(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ID == "" {
		http.Error(w, `expected {"id": "<event id>" | "random"}`, http.StatusBadRequest)
		return
	}

	var started, known, decided bool
	s.Runner.Do(func(sim *engine.Simulation) {
		if !sim.Ctx.Playing() {
			decided = true
			return
		}
		if req.ID == "random" {
			known = true
			started = sim.Events.TriggerRandom()
			return
		}
		for _, spec := range sim.Events.Catalog() {
			if spec.ID == req.ID {
				known = true
			}
		}
		if known {
			started = sim.Events.ForceEvent(req.ID)
		}
	})

	switch {
	case decided:
		http.Error(w, "match is over", http.StatusConflict)
	case !known:
		http.Error(w, "unknown event "+strconv.Quote(req.ID), http.StatusNotFound)
	case !started:
		http.Error(w, "event not started (another event is active or none available)", http.StatusConflict)
	default:
		slog.Info("event forced via API", "id", req.ID)
		writeJSON(w, map[string]any{"started": true, "id": req.ID})
	}
}

func parseLimit(r *http.Request, def, hi int) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("limit must be a positive integer")
	}
	return min(n, hi), nil
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}
