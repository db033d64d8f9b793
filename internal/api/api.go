// Package api exposes the suggestion engine over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/sells-group/symbiose/internal/apperr"
	"github.com/sells-group/symbiose/internal/interaction"
	"github.com/sells-group/symbiose/internal/query"
	"github.com/sells-group/symbiose/internal/suggest"
)

// UserHeader carries the authenticated user id set by the upstream gateway.
const UserHeader = "X-User-ID"

// bestMatchCount is the number of top suggestions on the stats endpoint.
const bestMatchCount = 3

// Engine is the subset of *suggest.Engine the handlers use.
type Engine interface {
	Compute(ctx context.Context, userID int64, opts suggest.Options) (*suggest.Result, error)
	SetInteractionStatus(ctx context.Context, userID, companyID int64, status interaction.Status, note string) (*suggest.StatusChange, error)
}

// Options configures the router.
type Options struct {
	Limits         query.Limits
	CORSOrigins    []string
	RateLimitRPS   float64
	RateLimitBurst int
	// Metrics serves /metrics. Defaults to the Prometheus default registry.
	Metrics http.Handler
}

// actions maps a POST path action to the status it sets.
var actions = map[string]interaction.Status{
	"ignore":  interaction.StatusIgnored,
	"save":    interaction.StatusSaved,
	"contact": interaction.StatusContacted,
}

type handler struct {
	engine Engine
	limits query.Limits
}

// NewRouter builds the HTTP handler.
func NewRouter(engine Engine, opts Options) http.Handler {
	if opts.Metrics == nil {
		opts.Metrics = promhttp.Handler()
	}
	if len(opts.CORSOrigins) == 0 {
		opts.CORSOrigins = []string{"*"}
	}
	h := &handler{engine: engine, limits: opts.Limits}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: opts.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", UserHeader},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", opts.Metrics)

	limiter := newUserLimiter(opts.RateLimitRPS, opts.RateLimitBurst)
	r.Route("/api/suggestions", func(r chi.Router) {
		r.Use(requireUser)
		r.Use(limiter.middleware)

		r.Get("/", h.list)
		r.Get("/stats", h.stats)
		r.Get("/filters", h.filters)
		r.Post("/{companyID}/{action}", h.setStatus)
	})

	return r
}

type listResponse struct {
	query.Page
	Stats  query.Stats  `json:"stats"`
	Facets query.Facets `json:"facets"`
}

func (h *handler) list(w http.ResponseWriter, r *http.Request) {
	params, err := query.ParseParams(r.URL.Query(), h.limits)
	if err != nil {
		writeError(w, r, err)
		return
	}
	res, err := h.engine.Compute(r.Context(), userFrom(r.Context()), suggest.Options{Persist: true})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse{
		Page:   query.Query(res.Suggestions, params),
		Stats:  query.ComputeStats(res.Suggestions),
		Facets: query.ComputeFacets(res.Suggestions),
	})
}

type statsResponse struct {
	query.Stats
	Engagement  query.Engagement  `json:"engagement"`
	BestMatches []query.BestMatch `json:"best_matches"`
}

func (h *handler) stats(w http.ResponseWriter, r *http.Request) {
	res, err := h.engine.Compute(r.Context(), userFrom(r.Context()), suggest.Options{})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, statsResponse{
		Stats:       query.ComputeStats(res.Suggestions),
		Engagement:  query.ComputeEngagement(res.Suggestions),
		BestMatches: query.BestMatches(res.Suggestions, bestMatchCount),
	})
}

func (h *handler) filters(w http.ResponseWriter, r *http.Request) {
	res, err := h.engine.Compute(r.Context(), userFrom(r.Context()), suggest.Options{})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, query.ComputeFacets(res.Suggestions))
}

type statusRequest struct {
	Comment string `json:"comment"`
}

func (h *handler) setStatus(w http.ResponseWriter, r *http.Request) {
	status, ok := actions[chi.URLParam(r, "action")]
	if !ok {
		writeError(w, r, apperr.NotFound("unknown action"))
		return
	}
	companyID, err := strconv.ParseInt(chi.URLParam(r, "companyID"), 10, 64)
	if err != nil || companyID <= 0 {
		writeError(w, r, apperr.InvalidInput("invalid suggestion id", map[string]string{"id": "must be a positive integer"}))
		return
	}

	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, r, apperr.InvalidInput("invalid request body", nil))
		return
	}

	change, err := h.engine.SetInteractionStatus(r.Context(), userFrom(r.Context()), companyID, status, req.Comment)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, change)
}

type errorResponse struct {
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := apperr.KindOf(err)
	status := apperr.HTTPStatus(kind)
	if status >= http.StatusInternalServerError {
		zap.L().Error("api: request failed",
			zap.String("path", r.URL.Path),
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Error(err),
		)
	}
	writeJSON(w, status, errorResponse{
		Error:   string(kind),
		Message: apperr.MessageOf(err, "internal error"),
		Details: apperr.FieldsOf(err),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("api: encode response", zap.Error(err))
	}
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		zap.L().Debug("api: request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}
