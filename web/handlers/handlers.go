// Package handlers provides the read-only HTTP API over the game archive.
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/GuilermoT/BlackStory2/internal/storage"
)

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	store storage.Store
}

// New creates a new Handler.
func New(store storage.Store) *Handler {
	return &Handler{store: store}
}

// Routes builds the router for the archive API.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/api/games", h.listGames)
	r.Get("/api/games/{id}", h.getGame)

	return r
}

func (h *Handler) listGames(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	games, err := h.store.ListGames(limit, offset)
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, "failed to list games", err)
		return
	}
	if games == nil {
		games = []*storage.GameSummary{}
	}
	h.respondJSON(w, http.StatusOK, map[string]any{"games": games})
}

func (h *Handler) getGame(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	conv, err := h.store.GetConversation(id)
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, "failed to load game", err)
		return
	}
	if conv == nil {
		h.respondError(w, http.StatusNotFound, "game not found", nil)
		return
	}
	h.respondJSON(w, http.StatusOK, conv)
}

func (h *Handler) respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func (h *Handler) respondError(w http.ResponseWriter, status int, msg string, err error) {
	if err != nil {
		slog.Error(msg, "error", err)
	}
	h.respondJSON(w, status, map[string]string{"error": msg})
}
