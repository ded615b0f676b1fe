package routes

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/r3labs/sse/v2"
	"github.com/rs/cors"

	"github.com/marcus-crane/adbreak/controller"
	"github.com/marcus-crane/adbreak/db"
	"github.com/marcus-crane/adbreak/events"
	"github.com/marcus-crane/adbreak/models"
	"github.com/marcus-crane/adbreak/schedule"
)

const (
	defaultHistoryLimit = 10
	maxHistoryLimit     = 100
)

type StatusSource interface {
	Snapshot() controller.Snapshot
}

type stateResponse struct {
	controller.Snapshot
	NextBreak *time.Time `json:"next_break"`
}

func renderJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to write response", slog.String("error", err.Error()))
	}
}

func renderJSONMessage(w http.ResponseWriter, status int, message string) {
	renderJSON(w, status, map[string]string{"message": message})
}

// Register wires the read-only status API. now is injectable for tests.
func Register(mux *http.ServeMux, status StatusSource, store db.Store, sched schedule.Schedule, server *sse.Server, now func() time.Time) http.Handler {
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/plain")
		fmt.Fprintf(w, "adbreak is keeping the volume in check.\nSee /api/state, /api/history and /events.\n")
	})

	mux.HandleFunc("/api/state", func(w http.ResponseWriter, r *http.Request) {
		res := stateResponse{Snapshot: status.Snapshot()}
		if next, ok := sched.Next(now()); ok {
			res.NextBreak = &next
		}
		renderJSON(w, http.StatusOK, res)
	})

	mux.HandleFunc("/api/history", func(w http.ResponseWriter, r *http.Request) {
		limit := defaultHistoryLimit
		if raw := r.URL.Query().Get("limit"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed <= 0 {
				renderJSONMessage(w, http.StatusBadRequest, "limit must be a positive number")
				return
			}
			limit = min(parsed, maxHistoryLimit)
		}
		plays, err := store.Recent(r.Context(), limit)
		if err != nil {
			slog.Error("Failed to load history", slog.String("error", err.Error()))
			renderJSONMessage(w, http.StatusInternalServerError, "Something went wrong loading the history")
			return
		}
		if plays == nil {
			plays = []models.Play{}
		}
		renderJSON(w, http.StatusOK, plays)
	})

	mux.HandleFunc("/events", func(w http.ResponseWriter, r *http.Request) {
		// There is only one stream so don't make clients ask for it
		q := r.URL.Query()
		if q.Get("stream") == "" {
			q.Set("stream", events.StateStream)
			r.URL.RawQuery = q.Encode()
		}
		server.ServeHTTP(w, r)
	})

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET"},
		AllowedHeaders: []string{"Origin", "Content-Type", "Accept"},
	})

	return c.Handler(mux)
}
