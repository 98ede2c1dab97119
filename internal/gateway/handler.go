package gateway

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/scopesprint/scopesprint/internal/catalog"
	"github.com/scopesprint/scopesprint/internal/workshop"
)

// Handler exposes the websocket endpoint and the small HTTP surface around
// it.
type Handler struct {
	connectionManager *ConnectionManager
	router            EventSink
}

// NewHandler creates the HTTP/WebSocket handler.
func NewHandler(cm *ConnectionManager, router EventSink) *Handler {
	return &Handler{
		connectionManager: cm,
		router:            router,
	}
}

// HandleWorkshopConnection upgrades a client connection for a room. The room
// code is required at connection time and binds the socket to its room for
// the whole session. When role and name are supplied as well, the connection
// auto-joins exactly as if it had sent a joinRoom event, matching the
// original handshake-query behavior.
func (h *Handler) HandleWorkshopConnection(w http.ResponseWriter, r *http.Request) {
	roomCode := r.URL.Query().Get("roomCode")
	if roomCode == "" {
		http.Error(w, "roomCode is required", http.StatusBadRequest)
		return
	}
	role := r.URL.Query().Get("role")
	name := r.URL.Query().Get("name")

	conn, err := h.connectionManager.UpgradeConnection(w, r, roomCode, h.router)
	if err != nil {
		log.Error().
			Err(err).
			Str("room_code", roomCode).
			Msg("failed to upgrade websocket connection")
		return
	}

	if role != "" && name != "" {
		data, err := json.Marshal(workshop.JoinRoomPayload{
			RoomCode: roomCode,
			Role:     workshop.Role(role),
			Name:     name,
		})
		if err != nil {
			log.Error().Err(err).Msg("failed to marshal auto-join payload")
			return
		}
		_ = h.router.HandleEvent(conn.ID, workshop.Event{
			Type: workshop.EventJoinRoom,
			Data: data,
		})
	}
}

// HandleConnectionStats reports active connection counts.
func (h *Handler) HandleConnectionStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(h.connectionManager.Stats()); err != nil {
		log.Error().Err(err).Msg("failed to encode connection stats")
	}
}

// HandleHealth is a liveness probe.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

// HandleCatalog serves the static feature catalog and the assessment
// vocabularies so clients render from the same data the server validates
// against.
func (h *Handler) HandleCatalog(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	err := json.NewEncoder(w).Encode(map[string]any{
		"features":   catalog.Features(),
		"efforts":    catalog.EffortOptions(),
		"priorities": catalog.PriorityOptions(),
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to encode catalog")
	}
}

// RegisterRoutes attaches all handlers to mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/ws", h.HandleWorkshopConnection)
	mux.HandleFunc("/ws/stats", h.HandleConnectionStats)
	mux.HandleFunc("/healthz", h.HandleHealth)
	mux.HandleFunc("/catalog", h.HandleCatalog)
}
