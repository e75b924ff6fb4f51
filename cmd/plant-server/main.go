// Package main is the entry point for the HeatWorks plant server.
// It only handles dependency injection and server initialization.
// NO business logic belongs here.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dvaldano/heatworks/server/internal/domain/structure"
	"github.com/dvaldano/heatworks/server/internal/engine"
	"github.com/dvaldano/heatworks/server/internal/events"
	"github.com/dvaldano/heatworks/server/internal/infra/storage"
	"github.com/dvaldano/heatworks/server/internal/network"
	"github.com/dvaldano/heatworks/server/internal/platform/logger"
	"github.com/dvaldano/heatworks/server/internal/platform/metrics"
	"github.com/dvaldano/heatworks/server/internal/platform/tuning"
	"github.com/gorilla/websocket"
)

// sessionID identifies this run in the journal. One process = one session.
var sessionID = "SESSION_" + time.Now().UTC().Format("20060102T150405Z")

// SQLitePersisterAdapter translates domain events to journal rows.
type SQLitePersisterAdapter struct {
	repo *storage.SQLiteEventRepository
}

func (a *SQLitePersisterAdapter) Append(event events.PlantEvent) error {
	payloadBytes, _ := json.Marshal(event.Payload)
	var payloadMap map[string]interface{}
	json.Unmarshal(payloadBytes, &payloadMap)

	journalEvent := storage.JournalEvent{
		ID:        event.ID,
		SessionID: sessionID,
		Timestamp: event.Timestamp,
		EventType: string(event.Type),
		ActorID:   event.ActorID,
		Tick:      event.Tick,
		Payload:   payloadMap,
	}

	start := time.Now()
	err := a.repo.Append(context.Background(), journalEvent)
	metrics.Get().RecordEventWrite(time.Since(start), err)
	return err
}

func main() {
	tuningPath := flag.String("tuning", "", "optional tuning YAML overriding compiled defaults")
	dbPath := flag.String("db", "plant.db", "SQLite journal path, empty disables journaling")
	archiveDir := flag.String("archive-dir", "archives", "directory for journal exports")
	addr := flag.String("addr", ":8080", "HTTP listen address")
	flag.Parse()

	log.Println("[PLANT-SERVER] Initializing HeatWorks authoritative server...")

	appLogger := logger.NewLogger()

	tun := tuning.Default()
	if *tuningPath != "" {
		var err error
		tun, err = tuning.Load(*tuningPath)
		if err != nil {
			appLogger.Error("Failed to load tuning: " + err.Error())
			os.Exit(1)
		}
		appLogger.Info("Tuning loaded from " + *tuningPath)
	}

	var eventPersister events.EventPersister
	var archiver *storage.ArchiveWriter
	if *dbPath != "" {
		appLogger.Info("Initializing SQLite journal '" + *dbPath + "'...")
		db, err := storage.InitSQLite(*dbPath)
		if err != nil {
			appLogger.Error("Failed to initialize SQLite: " + err.Error())
			os.Exit(1)
		}
		eventRepo := storage.NewSQLiteEventRepository(db)
		eventPersister = &SQLitePersisterAdapter{repo: eventRepo}
		archiver = storage.NewArchiveWriter(eventRepo, *archiveDir)
	}

	appLogger.Info("Bootstrapping EventLog...")
	eventLog := events.NewEventLog(eventPersister)

	appLogger.Info("Bootstrapping simulation engine...")
	plantEngine := engine.NewEngine(tun, eventLog, appLogger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tickInterval := time.Duration(tun.TickDurationMs) * time.Millisecond
	ticker := engine.NewTicker(plantEngine, appLogger, tickInterval)
	go ticker.Start(ctx)

	appLogger.Info("Bootstrapping WebSocket Hub...")
	hub := network.NewHub(plantEngine, appLogger)
	go hub.Run(ctx)
	hub.StartEventPoller(ctx, eventLog)
	hub.StartSnapshotPush(ctx, tickInterval)

	mux := http.NewServeMux()

	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		serveWs(hub, w, r, appLogger)
	})

	replay := network.NewReplayHandler(eventLog, archiver, sessionID, appLogger)
	replay.RegisterRoutes(mux)

	mux.HandleFunc("/api/plant/snapshot", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(plantEngine.Snapshot())
	})

	mux.HandleFunc("/api/plant/catalog", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		tier := plantEngine.Snapshot().Tier
		prices := make(map[string]int64, len(structure.AllTypes))
		for _, typ := range structure.AllTypes {
			prices[string(typ)] = plantEngine.Catalog().BuildCost(typ, tier)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{"tier": tier, "prices": prices})
	})

	mux.HandleFunc("/api/plant/reset", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		plantEngine.Reset()
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "ok", "message": "Plant reset"})
	})

	mux.HandleFunc("/metrics", metrics.Handler())
	mux.HandleFunc("/metrics/prometheus", metrics.PrometheusHandler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	srv := &http.Server{Addr: *addr, Handler: mux}
	go func() {
		log.Printf("[PLANT-SERVER] HTTP API & WS server listening on %s", *addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	log.Println("[PLANT-SERVER] Server running. Press Ctrl+C to exit.")

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("[PLANT-SERVER] Shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow cross-origin requests for the dev frontend
	},
}

// serveWs handles websocket requests from the peer.
func serveWs(hub *network.Hub, w http.ResponseWriter, r *http.Request, log *logger.Logger) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error("Failed to upgrade websocket connection")
		return
	}

	operatorID := r.URL.Query().Get("operator_id")
	if operatorID == "" {
		operatorID = "OPERATOR_" + conn.RemoteAddr().String()
	}

	client := network.NewClient(hub, conn, operatorID)
	client.Register()

	// Allow collection of memory referenced by the caller by doing all work in
	// new goroutines.
	go client.WritePump()
	go client.ReadPump()
}
