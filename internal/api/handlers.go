package api

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"soccer-arena/internal/evaluator"
	"soccer-arena/internal/participant"
)

const (
	defaultLeaderboardLimit = 10
	defaultOutcomeLimit     = 20
	maxListLimit            = 100
	maxIDLength             = 64
)

// participantView is the JSON form of a population member
type participantView struct {
	ID      string  `json:"id"`
	Team    string  `json:"team"`
	Bot     bool    `json:"bot"`
	Energy  float64 `json:"energy"`
	Credits float64 `json:"credits"`
}

func viewOf(p participant.Participant) participantView {
	v := participantView{
		ID:     p.ID(),
		Team:   p.Team(),
		Bot:    participant.IsBot(p),
		Energy: participant.EnergyOf(p),
	}
	if c, ok := p.(interface{ ReproCredits() float64 }); ok {
		v.Credits = c.ReproCredits()
	}
	return v
}

func (h *routerHandlers) handleGetStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]interface{}{
		"arena":      h.arena.Stats(),
		"rateLimit":  h.limiter.Stats(),
		"frameCache": h.frames.Stats(),
	})
}

func (h *routerHandlers) handleGetLeague(w http.ResponseWriter, r *http.Request) {
	state, ok := h.arena.LeagueState()
	if !ok {
		writeError(w, "league disabled", http.StatusNotFound)
		return
	}
	writeJSON(w, state)
}

func (h *routerHandlers) handleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	state, ok := h.arena.LeagueState()
	if !ok {
		writeError(w, "league disabled", http.StatusNotFound)
		return
	}
	limit, err := queryLimit(r, defaultLeaderboardLimit)
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}
	rows := state.Leaderboard
	if len(rows) > limit {
		rows = rows[:limit]
	}
	writeJSON(w, rows)
}

func (h *routerHandlers) handleGetOutcomes(w http.ResponseWriter, r *http.Request) {
	limit, err := queryLimit(r, defaultOutcomeLimit)
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}
	out := h.arena.Recent(limit)
	if out == nil {
		out = []evaluator.Outcome{}
	}
	writeJSON(w, out)
}

func (h *routerHandlers) handleGetOutcome(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	o, ok := h.arena.Outcome(id)
	if !ok {
		writeError(w, "outcome not found", http.StatusNotFound)
		return
	}
	writeJSON(w, o)
}

func (h *routerHandlers) handleGetLive(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.arena.LiveSnapshot()
	if !ok {
		writeError(w, "no live match", http.StatusNotFound)
		return
	}
	writeJSON(w, snap)
}

func (h *routerHandlers) handleGetFrame(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.arena.LiveSnapshot()
	if !ok {
		writeError(w, "no live match", http.StatusNotFound)
		return
	}
	data, err := h.frames.PNG(snap)
	if err != nil {
		log.Printf("⚠️ Frame render failed: %v", err)
		writeError(w, "render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.Write(data)
}

func (h *routerHandlers) handleGetParticipants(w http.ResponseWriter, r *http.Request) {
	ps := h.arena.Participants()
	out := make([]participantView, 0, len(ps))
	for _, p := range ps {
		out = append(out, viewOf(p))
	}
	writeJSON(w, out)
}

func (h *routerHandlers) handleAddParticipant(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID   string `json:"id"`
		Team string `json:"team"`
	}

	r.Body = http.MaxBytesReader(w, r.Body, 4096)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request", http.StatusBadRequest)
		return
	}
	if req.ID == "" || req.Team == "" {
		writeError(w, "id and team are required", http.StatusBadRequest)
		return
	}
	if len(req.ID) > maxIDLength || len(req.Team) > maxIDLength {
		writeError(w, fmt.Sprintf("id and team are limited to %d bytes", maxIDLength), http.StatusBadRequest)
		return
	}

	agent := participant.NewAgent(req.ID, req.Team, h.agentEnergy, h.agentMax, nil)
	if err := h.arena.AddParticipant(agent); err != nil {
		writeError(w, err.Error(), http.StatusConflict)
		return
	}
	log.Printf("⚽ Participant %s joined team %s", req.ID, req.Team)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(viewOf(agent))
}

// queryLimit parses ?limit=, capped at maxListLimit
func queryLimit(r *http.Request, def int) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("limit must be a positive integer")
	}
	if n > maxListLimit {
		n = maxListLimit
	}
	return n, nil
}

// Helper functions (package-level for reuse)

func writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
