// Package battery exposes the battery query service over HTTP.
package battery

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/kilianp07/battery-health/core/model"
	"github.com/kilianp07/battery-health/infra/logger"
	"github.com/kilianp07/battery-health/pkg/export"
)

// Service answers battery status queries.
type Service interface {
	Current() (model.BatteryStatus, bool)
	History(n int) []model.Reading
}

// RouterConfig customises NewRouter.
type RouterConfig struct {
	// HistoryLimit is the default number of readings returned by
	// /api/history and plotted on the dashboard.
	HistoryLimit int
	// Metrics is mounted on /metrics when set.
	Metrics http.Handler
	Log     logger.Logger
}

// NewRouter registers the battery routes:
//
//	GET /                  dashboard
//	GET /api/battery-data  current status, 503 until the first reading
//	GET /api/history       recent readings, oldest first; ?format=csv for CSV
//	GET /healthz           liveness
//	GET /metrics           Prometheus exposition, when configured
//
// Requests are logged and panics recovered.
func NewRouter(svc Service, cfg RouterConfig) http.Handler {
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = 100
	}
	if cfg.Log == nil {
		cfg.Log = logger.NopLogger{}
	}
	h := &handler{svc: svc, limit: cfg.HistoryLimit, log: cfg.Log}

	r := mux.NewRouter()
	r.HandleFunc("/", h.dashboard).Methods(http.MethodGet)
	r.HandleFunc("/api/battery-data", h.batteryData).Methods(http.MethodGet)
	r.HandleFunc("/api/history", h.history).Methods(http.MethodGet)
	r.HandleFunc("/healthz", healthz).Methods(http.MethodGet)
	if cfg.Metrics != nil {
		r.Handle("/metrics", cfg.Metrics).Methods(http.MethodGet)
	}

	var out http.Handler = r
	out = handlers.RecoveryHandler(handlers.RecoveryLogger(recoveryLogger{cfg.Log}))(out)
	out = handlers.CustomLoggingHandler(io.Discard, out, func(_ io.Writer, p handlers.LogFormatterParams) {
		cfg.Log.Debugw("http request", map[string]any{
			"method":   p.Request.Method,
			"path":     p.URL.Path,
			"status":   p.StatusCode,
			"size":     p.Size,
			"duration": time.Since(p.TimeStamp).String(),
		})
	})
	return out
}

type handler struct {
	svc   Service
	limit int
	log   logger.Logger
}

func (h *handler) batteryData(w http.ResponseWriter, _ *http.Request) {
	st, ok := h.svc.Current()
	if !ok {
		writeError(w, http.StatusServiceUnavailable, "no reading available yet")
		return
	}
	h.writeJSON(w, http.StatusOK, st)
}

func (h *handler) history(w http.ResponseWriter, r *http.Request) {
	n := h.limit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid limit %q", raw))
			return
		}
		n = v
	}
	readings := h.svc.History(n)
	switch r.URL.Query().Get("format") {
	case "", "json":
		w.Header().Set("Content-Type", "application/json")
		if err := export.WriteJSON(w, readings); err != nil {
			h.log.Errorf("encode history: %v", err)
		}
	case "csv":
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="battery_history.csv"`)
		if err := export.WriteCSV(w, readings); err != nil {
			h.log.Errorf("encode history: %v", err)
		}
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unsupported format %q", r.URL.Query().Get("format")))
	}
}

func healthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, "ok")
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Errorf("encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

type recoveryLogger struct {
	log logger.Logger
}

func (l recoveryLogger) Println(v ...interface{}) {
	l.log.Errorf("http handler panic: %s", fmt.Sprint(v...))
}
