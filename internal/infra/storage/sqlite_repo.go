// Package storage persists the event journal. It defines its own event
// shape so the domain packages stay free of database concerns.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// JournalEvent is the storage-side representation of a plant event.
type JournalEvent struct {
	ID        string
	SessionID string
	Timestamp time.Time
	EventType string
	ActorID   string
	Tick      uint64
	Payload   map[string]interface{}
}

// SQLiteEventRepository implements the event journal on SQLite.
type SQLiteEventRepository struct {
	db *sql.DB
}

func NewSQLiteEventRepository(db *sql.DB) *SQLiteEventRepository {
	return &SQLiteEventRepository{db: db}
}

func (r *SQLiteEventRepository) Append(ctx context.Context, event JournalEvent) error {
	payloadBytes, err := json.Marshal(event.Payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	query := `
		INSERT INTO events (id, session_id, timestamp, event_type, actor_id, tick, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err = r.db.ExecContext(ctx, query,
		event.ID, event.SessionID, event.Timestamp, event.EventType,
		event.ActorID, event.Tick, string(payloadBytes),
	)
	if err != nil {
		return fmt.Errorf("failed to append event: %w", err)
	}
	return nil
}

func (r *SQLiteEventRepository) getMany(ctx context.Context, query string, args ...interface{}) ([]JournalEvent, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []JournalEvent
	for rows.Next() {
		var e JournalEvent
		var payloadStr string
		err := rows.Scan(
			&e.ID, &e.SessionID, &e.Timestamp, &e.EventType, &e.ActorID, &e.Tick, &payloadStr,
		)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(payloadStr), &e.Payload); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (r *SQLiteEventRepository) GetBySession(ctx context.Context, sessionID string) ([]JournalEvent, error) {
	query := `SELECT id, session_id, timestamp, event_type, actor_id, tick, payload FROM events WHERE session_id = ? ORDER BY timestamp ASC`
	return r.getMany(ctx, query, sessionID)
}

func (r *SQLiteEventRepository) GetByEventType(ctx context.Context, sessionID string, eventType string) ([]JournalEvent, error) {
	query := `SELECT id, session_id, timestamp, event_type, actor_id, tick, payload FROM events WHERE session_id = ? AND event_type = ? ORDER BY timestamp ASC`
	return r.getMany(ctx, query, sessionID, eventType)
}

func (r *SQLiteEventRepository) GetByTickRange(ctx context.Context, sessionID string, fromTick, toTick uint64) ([]JournalEvent, error) {
	query := `SELECT id, session_id, timestamp, event_type, actor_id, tick, payload FROM events WHERE session_id = ? AND tick >= ? AND tick <= ? ORDER BY tick ASC, timestamp ASC`
	return r.getMany(ctx, query, sessionID, fromTick, toTick)
}
