// Package network - replay.go
// Replay endpoint - JSON export of the plant's event history.
//
// Lets operators audit what was built, demolished or rejected, tick by
// tick, without touching the live simulation.
package network

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/dvaldano/heatworks/server/internal/events"
	"github.com/dvaldano/heatworks/server/internal/infra/storage"
	"github.com/dvaldano/heatworks/server/internal/platform/logger"
)

// ReplayHandler provides the replay and archive API.
type ReplayHandler struct {
	eventLog *events.EventLog
	archiver *storage.ArchiveWriter
	session  string
	logger   *logger.Logger
}

// NewReplayHandler creates a new replay handler. archiver may be nil when
// the server runs without a journal.
func NewReplayHandler(el *events.EventLog, archiver *storage.ArchiveWriter, session string, log *logger.Logger) *ReplayHandler {
	return &ReplayHandler{
		eventLog: el,
		archiver: archiver,
		session:  session,
		logger:   log,
	}
}

// ReplayResponse is the API response for event replay.
type ReplayResponse struct {
	SessionID   string              `json:"session_id"`
	TotalEvents int                 `json:"total_events"`
	FilteredBy  string              `json:"filtered_by,omitempty"`
	GeneratedAt string              `json:"generated_at"`
	Events      []events.PlantEvent `json:"events"`
}

// HandleReplay returns the event history.
// GET /api/replay?tick=N&type=STRUCTURE_BUILT
func (rh *ReplayHandler) HandleReplay(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		rh.jsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	tickStr := r.URL.Query().Get("tick")
	eventType := r.URL.Query().Get("type")

	allEvents := rh.eventLog.Replay()

	var filtered []events.PlantEvent
	filterDesc := ""

	for _, e := range allEvents {
		if tickStr != "" {
			tick, _ := strconv.ParseUint(tickStr, 10, 64)
			if e.Tick != tick {
				continue
			}
			filterDesc = "Tick " + tickStr
		}
		if eventType != "" && string(e.Type) != eventType {
			continue
		}
		filtered = append(filtered, e)
	}

	response := ReplayResponse{
		SessionID:   rh.session,
		TotalEvents: len(filtered),
		FilteredBy:  filterDesc,
		GeneratedAt: time.Now().Format(time.RFC3339),
		Events:      filtered,
	}

	rh.logger.Event("REPLAY", "OPERATOR", "Events:"+strconv.Itoa(len(filtered)))

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// HandleStats returns aggregate statistics over the event history.
// GET /api/replay/stats
func (rh *ReplayHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		rh.jsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	allEvents := rh.eventLog.Replay()

	stats := map[string]int{
		"total_events": len(allEvents),
		"ticks":        0,
		"builds":       0,
		"demolitions":  0,
		"rejections":   0,
		"tier_ups":     0,
	}

	for _, e := range allEvents {
		switch e.Type {
		case events.EventTypeTimeTick:
			stats["ticks"]++
		case events.EventTypeStructureBuilt:
			stats["builds"]++
		case events.EventTypeStructureDemolished:
			stats["demolitions"]++
		case events.EventTypeRequestRejected:
			stats["rejections"]++
		case events.EventTypeTierAdvanced:
			stats["tier_ups"]++
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"generated_at": time.Now().Format(time.RFC3339),
		"stats":        stats,
	})
}

// HandleArchiveExport writes the journaled session to a compressed archive.
// POST /api/archive/export
func (rh *ReplayHandler) HandleArchiveExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		rh.jsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if rh.archiver == nil {
		rh.jsonError(w, "No journal configured", http.StatusConflict)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	path, err := rh.archiver.Export(ctx, rh.session)
	if err != nil {
		rh.logger.Error("Archive export failed: " + err.Error())
		rh.jsonError(w, "Export failed", http.StatusInternalServerError)
		return
	}

	rh.logger.Event("ARCHIVE_EXPORT", "OPERATOR", path)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok", "archive": path})
}

// RegisterRoutes sets up the replay API routes.
func (rh *ReplayHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/replay", rh.HandleReplay)
	mux.HandleFunc("/api/replay/stats", rh.HandleStats)
	mux.HandleFunc("/api/archive/export", rh.HandleArchiveExport)
}

// jsonError sends an error response.
func (rh *ReplayHandler) jsonError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
