package network

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dvaldano/heatworks/server/internal/events"
	"github.com/dvaldano/heatworks/server/internal/platform/logger"
)

func newReplayFixture(t *testing.T) (*ReplayHandler, *events.EventLog) {
	t.Helper()
	el := events.NewEventLog(nil)
	rh := NewReplayHandler(el, nil, "TEST_SESSION", logger.NewLogger())

	for tick := uint64(1); tick <= 3; tick++ {
		el.Append(events.PlantEvent{
			ID:        events.GenerateEventID(),
			Timestamp: time.Now(),
			Type:      events.EventTypeTimeTick,
			ActorID:   "ENGINE",
			Tick:      tick,
		})
	}
	el.Append(events.PlantEvent{
		ID:        events.GenerateEventID(),
		Timestamp: time.Now(),
		Type:      events.EventTypeStructureBuilt,
		ActorID:   "OP_1",
		Tick:      2,
	})
	return rh, el
}

func TestHandleReplayReturnsHistory(t *testing.T) {
	rh, _ := newReplayFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/api/replay", nil)
	rec := httptest.NewRecorder()
	rh.HandleReplay(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	var resp ReplayResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.TotalEvents != 4 {
		t.Errorf("Expected 4 events, got %d", resp.TotalEvents)
	}
	if resp.SessionID != "TEST_SESSION" {
		t.Errorf("Expected session TEST_SESSION, got %s", resp.SessionID)
	}
}

func TestHandleReplayFilters(t *testing.T) {
	rh, _ := newReplayFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/api/replay?tick=2", nil)
	rec := httptest.NewRecorder()
	rh.HandleReplay(rec, req)

	var resp ReplayResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.TotalEvents != 2 {
		t.Errorf("Expected 2 events on tick 2, got %d", resp.TotalEvents)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/replay?type=STRUCTURE_BUILT", nil)
	rec = httptest.NewRecorder()
	rh.HandleReplay(rec, req)

	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.TotalEvents != 1 {
		t.Errorf("Expected 1 STRUCTURE_BUILT event, got %d", resp.TotalEvents)
	}
}

func TestHandleReplayRejectsPost(t *testing.T) {
	rh, _ := newReplayFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/api/replay", nil)
	rec := httptest.NewRecorder()
	rh.HandleReplay(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected 405, got %d", rec.Code)
	}
}

func TestHandleStatsCounts(t *testing.T) {
	rh, _ := newReplayFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/api/replay/stats", nil)
	rec := httptest.NewRecorder()
	rh.HandleStats(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	var resp struct {
		Stats map[string]int `json:"stats"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Stats["ticks"] != 3 {
		t.Errorf("Expected 3 ticks counted, got %d", resp.Stats["ticks"])
	}
	if resp.Stats["builds"] != 1 {
		t.Errorf("Expected 1 build counted, got %d", resp.Stats["builds"])
	}
}

func TestArchiveExportWithoutJournal(t *testing.T) {
	rh, _ := newReplayFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/api/archive/export", nil)
	rec := httptest.NewRecorder()
	rh.HandleArchiveExport(rec, req)

	if rec.Code != http.StatusConflict {
		t.Errorf("Expected 409 when no journal is configured, got %d", rec.Code)
	}
}
