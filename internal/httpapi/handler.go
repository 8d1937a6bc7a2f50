package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"railmap/internal/db"
	"railmap/internal/metrics"
	"railmap/internal/store"
)

// Syncer forces a reload from the backing store.
type Syncer interface {
	Reload(ctx context.Context) error
}

// Deps are the optional collaborators of a Handler. A nil field disables the
// endpoints that need it.
type Deps struct {
	Pool    *db.Pool
	Session *Session
	Source  store.Source
	Syncer  Syncer
	Metrics *metrics.Metrics
}

type Handler struct {
	log     zerolog.Logger
	pool    *db.Pool
	session *Session
	source  store.Source
	syncer  Syncer
	metrics *metrics.Metrics
}

func NewHandler(log zerolog.Logger, deps Deps) *Handler {
	return &Handler{
		log:     log,
		pool:    deps.Pool,
		session: deps.Session,
		source:  deps.Source,
		syncer:  deps.Syncer,
		metrics: deps.Metrics,
	}
}

func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(15 * time.Second))
	r.Use(h.accessLog)

	// Health
	r.Get("/healthz", h.handleHealthz)
	r.Get("/readyz", h.handleReadyZ)
	r.Method(http.MethodGet, "/metrics", h.metrics.Handler())

	// API
	r.Route("/api", func(r chi.Router) {
		r.Route("/v1", func(r chi.Router) {
			r.Route("/map", func(r chi.Router) {
				r.Get("/view", h.handleGetView)
				r.Get("/projection", h.handleGetProjection)
				r.Get("/frame.png", h.handleGetFrame)
				r.Get("/config", h.handleGetConfig)
				r.Put("/config", h.handlePutConfig)
				r.Post("/data", h.handlePostData)
				r.Post("/reload", h.handleReload)
				r.Post("/input", h.handlePostInput)
				r.Get("/routes", h.handleListRoutes)
				r.Route("/route", func(r chi.Router) {
					r.Post("/", h.handleSetRoute)
					r.Delete("/", h.handleClearRoute)
					r.Post("/{id}", h.handleLoadRoute)
				})
				r.Put("/groups/{id}/visibility", h.handleGroupVisibility)
				r.Put("/stations/{label}/visibility", h.handleStationVisibility)
			})
		})
	})

	return r
}

func (h *Handler) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		elapsed := time.Since(start)
		h.metrics.ObserveHTTPRequest(r.Method, routePattern(r), ww.Status(), elapsed)
		h.log.Info().
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Int64("duration_ms", elapsed.Milliseconds()).
			Msg("http_request")
	})
}

// routePattern keeps the metrics path label bounded.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (h *Handler) writeError(w http.ResponseWriter, status int, code, msg string, details map[string]any) {
	resp := map[string]any{
		"error": map[string]any{
			"code":    code,
			"message": msg,
		},
	}
	if details != nil {
		resp["error"].(map[string]any)["details"] = details
	}
	h.writeJSON(w, status, resp)
}

func decodeJSONStrict(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		if err == nil {
			return errors.New("unexpected extra data after JSON body")
		}
		return err
	}
	return nil
}

func (h *Handler) handleHealthz(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// handleReadyZ reports ready once a session exists and, when Postgres is
// configured, the pool answers a ping.
func (h *Handler) handleReadyZ(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if h.session == nil {
		h.writeError(w, http.StatusServiceUnavailable, "session_unavailable", "map session not configured", nil)
		return
	}

	if h.pool != nil {
		if err := h.pool.Ping(ctx); err != nil {
			h.writeError(w, http.StatusServiceUnavailable, "db_unavailable", "database not ready", map[string]any{"error": err.Error()})
			return
		}
	}

	h.writeJSON(w, http.StatusOK, map[string]any{"ready": true})
}

func (h *Handler) ensureSession(w http.ResponseWriter) bool {
	if h.session == nil {
		h.writeError(w, http.StatusServiceUnavailable, "session_unavailable", "map session not configured", nil)
		return false
	}
	return true
}

func (h *Handler) ensureSource(w http.ResponseWriter) bool {
	if h.source == nil {
		h.writeError(w, http.StatusServiceUnavailable, "store_unavailable", "map store not configured", nil)
		return false
	}
	return true
}
