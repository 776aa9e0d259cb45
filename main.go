package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"remind-push/internal/config"
	"remind-push/internal/database"
	"remind-push/internal/handlers"
	"remind-push/internal/push"
	"remind-push/internal/reminder"
	"remind-push/internal/scheduler"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	_ "github.com/lib/pq"
)

var (
	db          *database.DB
	pushService *push.Service
	scanner     *reminder.Scanner
	scanLoc     *time.Location
	startTime   time.Time

	serverLogs []string
	logSubs    map[chan string]bool
	logsMutex  sync.RWMutex
)

const maxLogs = 100

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// logWriter keeps the last maxLogs lines in memory for /api/logs and fans new
// lines out to websocket subscribers, printing to the console as well.
type logWriter struct{}

func (lw logWriter) Write(p []byte) (n int, err error) {
	msg := string(p)
	if len(msg) > 0 && msg[len(msg)-1] == '\n' {
		msg = msg[:len(msg)-1]
	}

	timestamp := time.Now().Format("15:04:05")
	logEntry := fmt.Sprintf("[%s] %s", timestamp, msg)

	logsMutex.Lock()
	serverLogs = append(serverLogs, logEntry)
	if len(serverLogs) > maxLogs {
		serverLogs = serverLogs[1:]
	}
	for sub := range logSubs {
		select {
		case sub <- logEntry:
		default: // slow subscriber, drop the line
		}
	}
	logsMutex.Unlock()

	fmt.Println(logEntry)

	return len(p), nil
}

func main() {
	logSubs = make(map[chan string]bool)
	log.SetFlags(0)
	log.SetOutput(logWriter{})

	startTime = time.Now()
	log.Println("🚀 Starting reminder push server...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Config error: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("❌ Config error: %v", err)
	}

	scanLoc, err = cfg.Location()
	if err != nil {
		log.Fatalf("❌ Config error: %v", err)
	}

	db, err = database.NewDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("❌ DB error: %v", err)
	}
	defer db.Close()

	pushService, err = push.NewService(context.Background(), cfg)
	if err != nil {
		log.Fatalf("❌ Firebase error: %v", err)
	}

	scanner = reminder.NewScanner(db, pushService, scanLoc, cfg.QueryLimit)

	if cfg.SchedulerEnabled {
		sch, err := scheduler.New(cfg.ReminderSchedule, scanner, scanLoc)
		if err != nil {
			log.Fatalf("❌ Scheduler error: %v", err)
		}
		sch.Start()
		defer sch.Stop()
	} else {
		log.Println("⚠️  Scheduler disabled (SCHEDULER_ENABLED=false)")
	}

	h := handlers.New(pushService)

	router := mux.NewRouter()
	router.HandleFunc("/", h.Root).Methods("GET")
	router.HandleFunc("/sendNotification", h.SendNotification).Methods("POST")

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", healthCheckHandler).Methods("GET")
	api.HandleFunc("/stats", statsHandler).Methods("GET")
	api.HandleFunc("/logs", logsHandler).Methods("GET")
	api.HandleFunc("/logs/stream", logsStreamHandler)
	api.HandleFunc("/scan", scanHandler).Methods("POST")

	log.Printf("✅ Server ready on port %s", cfg.Port)
	log.Fatal(http.ListenAndServe(":"+cfg.Port, corsMiddleware(router)))
}

// --- API HANDLERS ---

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With, Accept")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	status := "healthy"
	httpStatus := http.StatusOK

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := db.GetConnection().PingContext(ctx); err != nil {
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable
	}

	w.WriteHeader(httpStatus)
	json.NewEncoder(w).Encode(map[string]string{
		"status": status,
		"time":   time.Now().Format(time.RFC3339),
	})
}

func statsHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	dbStatus := false
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := db.GetConnection().PingContext(ctx); err == nil {
		dbStatus = true
	}

	json.NewEncoder(w).Encode(map[string]interface{}{
		"uptime":      formatDuration(time.Since(startTime)),
		"db_status":   dbStatus,
		"firebase_ok": pushService != nil,
		"last_scan":   scanner.LastSummary(),
		"timestamp":   time.Now().Unix(),
	})
}

func logsHandler(w http.ResponseWriter, r *http.Request) {
	logsMutex.RLock()
	logs := make([]string, len(serverLogs))
	copy(logs, serverLogs)
	logsMutex.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"logs": logs,
	})
}

// logsStreamHandler upgrades to a websocket and tails the log ring: backlog
// first, then live lines until the client goes away.
func logsStreamHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	sub := make(chan string, 64)

	logsMutex.Lock()
	backlog := make([]string, len(serverLogs))
	copy(backlog, serverLogs)
	logSubs[sub] = true
	logsMutex.Unlock()

	defer func() {
		logsMutex.Lock()
		delete(logSubs, sub)
		logsMutex.Unlock()
	}()

	for _, line := range backlog {
		if err := conn.WriteMessage(websocket.TextMessage, []byte(line)); err != nil {
			return
		}
	}

	// Reader goroutine only to detect the peer closing.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			return
		case line := <-sub:
			if err := conn.WriteMessage(websocket.TextMessage, []byte(line)); err != nil {
				return
			}
		}
	}
}

// scanHandler triggers one reminder pass outside the schedule.
func scanHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	summary, err := scanner.Run(r.Context(), time.Now().In(scanLoc))
	if err != nil {
		if errors.Is(err, reminder.ErrRunInProgress) {
			w.WriteHeader(http.StatusConflict)
			json.NewEncoder(w).Encode(map[string]string{"error": "scan already in progress"})
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
		return
	}

	json.NewEncoder(w).Encode(summary)
}

func formatDuration(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	if hours > 0 {
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
	}
	if minutes > 0 {
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}
	return fmt.Sprintf("%ds", seconds)
}
