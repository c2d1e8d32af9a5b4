package http

import (
	"encoding/json"
	"net/http"

	"github.com/Imago-UoM-Student-Software-Company/socket.io.server/internal/pending"
	"github.com/Imago-UoM-Student-Software-Company/socket.io.server/internal/presence"
	"github.com/Imago-UoM-Student-Software-Company/socket.io.server/internal/registry"
)

// Handler serves the read-only admin mirrors of the diagnostic ws
// events. Nothing here mutates state.
type Handler struct {
	reg     *registry.Registry
	tracker *presence.Tracker
	cache   *pending.Cache
}

func NewHandler(reg *registry.Registry, tracker *presence.Tracker, cache *pending.Cache) *Handler {
	return &Handler{reg: reg, tracker: tracker, cache: cache}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// GET /api/connections
func (h *Handler) ListConnections(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.reg.ListAll())
}

// GET /api/rooms/open
func (h *Handler) ListOpenRooms(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.tracker.OpenRooms())
}

// GET /api/rooms/available
func (h *Handler) ListAvailableRooms(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.tracker.AvailableRooms())
}

// GET /api/visitors
func (h *Handler) ListVisitors(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.tracker.VisitorRooms())
}

// GET /api/pending
func (h *Handler) ListPending(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.cache.Snapshot())
}
