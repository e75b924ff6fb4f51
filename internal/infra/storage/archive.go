package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/zstd"
)

// ArchiveMeta describes one journal export.
type ArchiveMeta struct {
	SessionID  string `json:"session_id"`
	EventCount int    `json:"event_count"`
	CreatedAt  string `json:"created_at"`
	Archive    string `json:"archive"`
}

// ArchiveWriter exports the event journal as zstd-compressed JSON lines,
// one event per line. Archives are for offline analysis of long sessions;
// they are never read back by the server.
type ArchiveWriter struct {
	repo *SQLiteEventRepository
	dir  string
}

// NewArchiveWriter creates an exporter rooted at dir.
func NewArchiveWriter(repo *SQLiteEventRepository, dir string) *ArchiveWriter {
	return &ArchiveWriter{repo: repo, dir: dir}
}

// Export writes every journaled event of a session to
// `<dir>/journal_<session>_<stamp>.ndjson.zst` plus a meta.json sidecar and
// returns the archive path.
func (aw *ArchiveWriter) Export(ctx context.Context, sessionID string) (string, error) {
	events, err := aw.repo.GetBySession(ctx, sessionID)
	if err != nil {
		return "", fmt.Errorf("failed to read journal: %w", err)
	}

	if err := os.MkdirAll(aw.dir, 0o755); err != nil {
		return "", err
	}

	stamp := time.Now().UTC().Format("20060102T150405Z")
	path := filepath.Join(aw.dir, fmt.Sprintf("journal_%s_%s.ndjson.zst", sessionID, stamp))

	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return "", err
	}

	bw := bufio.NewWriterSize(enc, 256*1024)
	for _, e := range events {
		line, err := json.Marshal(e)
		if err != nil {
			enc.Close()
			return "", fmt.Errorf("failed to marshal event %s: %w", e.ID, err)
		}
		if _, err := bw.Write(line); err != nil {
			enc.Close()
			return "", err
		}
		if err := bw.WriteByte('\n'); err != nil {
			enc.Close()
			return "", err
		}
	}
	if err := bw.Flush(); err != nil {
		enc.Close()
		return "", err
	}
	if err := enc.Close(); err != nil {
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}

	meta := ArchiveMeta{
		SessionID:  sessionID,
		EventCount: len(events),
		CreatedAt:  time.Now().UTC().Format(time.RFC3339Nano),
		Archive:    filepath.Base(path),
	}
	if b, err := json.MarshalIndent(meta, "", "  "); err == nil {
		_ = os.WriteFile(path+".meta.json", b, 0o644)
	}

	return path, nil
}

// ReadArchive decompresses an exported archive back into events. Used by
// offline tooling and tests, not by the server.
func ReadArchive(path string) ([]JournalEvent, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	var events []JournalEvent
	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 0, 256*1024), 4*1024*1024)
	for sc.Scan() {
		if len(sc.Bytes()) == 0 {
			continue
		}
		var e JournalEvent
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			return nil, fmt.Errorf("corrupt archive line: %w", err)
		}
		events = append(events, e)
	}
	return events, sc.Err()
}
