package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jose-valero/camguard-bot/internal/app/state"
	"github.com/jose-valero/camguard-bot/internal/domain"
)

// Server expone salud, métricas y un snapshot de analytics en JSON.
type Server struct {
	store    *state.Store
	excluded domain.UserSet
	mux      *http.ServeMux
	log      *slog.Logger
	now      func() time.Time
}

func New(store *state.Store, excluded domain.UserSet, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	s := &Server{
		store:    store,
		excluded: excluded,
		mux:      http.NewServeMux(),
		log:      log.With("component", "http"),
		now:      time.Now,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	s.mux.Handle("GET /metrics", promhttp.Handler())
	s.mux.HandleFunc("GET /v1/analytics", s.handleAnalytics)
	s.mux.HandleFunc("GET /v1/durations", s.handleDurations)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":            "ok",
		"moderation_active": s.store.ModerationActive(),
		"hush_active":       s.store.HushActive(),
		"open_sessions":     s.store.OpenSessions(),
	})
}

func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.QueryAnalyticsSummary())
}

type durationJSON struct {
	User        domain.UserID `json:"user_id,string"`
	Username    string        `json:"username,omitempty"`
	DisplayName string        `json:"display_name,omitempty"`
	Seconds     int64         `json:"seconds"`
	Online      bool          `json:"online"`
}

func (s *Server) handleDurations(w http.ResponseWriter, r *http.Request) {
	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > 100 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be between 1 and 100"})
			return
		}
		limit = n
	}

	top := s.store.QueryTopDuration(limit, s.excluded, s.now())
	out := make([]durationJSON, 0, len(top))
	for _, e := range top {
		out = append(out, durationJSON{
			User:        e.User,
			Username:    e.Username,
			DisplayName: e.DisplayName,
			Seconds:     int64(e.Total / time.Second),
			Online:      e.Online,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"tracking_since": s.store.TrackingSince().UTC(),
		"top":            out,
	})
}

// Start escucha en addr hasta que ctx se cancele y luego apaga con gracia.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("http listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
