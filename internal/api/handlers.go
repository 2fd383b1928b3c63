package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/inklinehq/inkline/backend/internal/ws"
)

type API struct {
	hub    *ws.Hub
	logger *slog.Logger
}

func New(hub *ws.Hub, logger *slog.Logger) *API {
	if logger == nil {
		logger = slog.Default()
	}
	return &API{hub: hub, logger: logger}
}

func (a *API) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		a.logger.Error("encode response", "error", err)
	}
}

func (a *API) errorResponse(w http.ResponseWriter, status int, message string) {
	a.jsonResponse(w, status, map[string]string{"error": message})
}

func (a *API) HealthHandler(w http.ResponseWriter, r *http.Request) {
	a.jsonResponse(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (a *API) StatsHandler(w http.ResponseWriter, r *http.Request) {
	totalStrokes := 0
	for roomID := range a.hub.GetActiveRooms() {
		totalStrokes += a.hub.GetStrokeCount(roomID)
	}

	a.jsonResponse(w, http.StatusOK, map[string]any{
		"active_rooms":   a.hub.GetRoomCount(),
		"active_clients": a.hub.GetClientCount(),
		"total_strokes":  totalStrokes,
		"timestamp":      time.Now().UTC().Format(time.RFC3339),
	})
}

type RoomResponse struct {
	ID           string `json:"id"`
	Participants int    `json:"participants"`
	Strokes      int    `json:"strokes"`
}

// Lists the live rooms. Rooms exist only while someone is in them, so this is
// always a view of current activity, not an archive.
func (a *API) RoomsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		a.errorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	active := a.hub.GetActiveRooms()

	rooms := make([]RoomResponse, 0, len(active))
	for id, participants := range active {
		rooms = append(rooms, RoomResponse{
			ID:           id,
			Participants: participants,
			Strokes:      a.hub.GetStrokeCount(id),
		})
	}
	sort.Slice(rooms, func(i, j int) bool { return rooms[i].ID < rooms[j].ID })

	a.jsonResponse(w, http.StatusOK, map[string]any{
		"rooms": rooms,
		"count": len(rooms),
	})
}
