// Package api is the HTTP boundary of the engine. Authentication happens
// upstream; the caller's identity arrives in the X-Actor-Id and X-Actor-Role
// headers.
package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hazlijohar95/creatorschapter-sub000/internal/common/logger"
	"github.com/hazlijohar95/creatorschapter-sub000/internal/common/metrics"
	"github.com/hazlijohar95/creatorschapter-sub000/internal/engine/bulk"
	"github.com/hazlijohar95/creatorschapter-sub000/internal/engine/filtering"
	"github.com/hazlijohar95/creatorschapter-sub000/internal/engine/listing"
	"github.com/hazlijohar95/creatorschapter-sub000/internal/engine/matching"
	"github.com/hazlijohar95/creatorschapter-sub000/internal/engine/workflow"
	"github.com/hazlijohar95/creatorschapter-sub000/internal/models"
)

const (
	HeaderActorID   = "X-Actor-Id"
	HeaderActorRole = "X-Actor-Role"
)

type Workflow interface {
	Transition(ctx context.Context, applicationID string, target models.ApplicationStatus, actor models.Actor) (*workflow.Result, error)
	Submit(ctx context.Context, req workflow.SubmitRequest, actor models.Actor) (*models.Application, error)
	UpdateProposal(ctx context.Context, applicationID string, proposal models.Proposal, actor models.Actor) (*models.Application, error)
	AddNote(ctx context.Context, applicationID, text string, actor models.Actor) (*models.Note, error)
	MarkViewed(ctx context.Context, applicationID string, actor models.Actor) error
	Get(ctx context.Context, applicationID string, actor models.Actor) (*models.Application, error)
}

type BulkApplier interface {
	Apply(ctx context.Context, applicationIDs []string, target models.ApplicationStatus, actor models.Actor) (*bulk.Result, error)
}

type Matcher interface {
	Match(ctx context.Context, creatorID, campaignID string) (*matching.Match, error)
}

type Lister interface {
	Opportunities(ctx context.Context, creatorID string, q listing.Query) (filtering.Page, error)
	CampaignApplications(ctx context.Context, campaignID string, actor models.Actor, q listing.Query) (filtering.Page, error)
}

// Dependencies are the engine components behind the routes. Ready, when set,
// gates /ready.
type Dependencies struct {
	Workflow    Workflow
	Bulk        BulkApplier
	Matcher     Matcher
	Lister      Lister
	Ready       func(ctx context.Context) error
	MaxPageSize int
}

type Server struct {
	deps   Dependencies
	logger logger.Logger
}

// NewRouter builds the chi router serving the application routes plus
// /health, /ready and /metrics.
func NewRouter(deps Dependencies, log logger.Logger) http.Handler {
	s := &Server{
		deps:   deps,
		logger: log.WithFields(map[string]interface{}{"component": "api"}),
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.instrument)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.health)
	r.Get("/ready", s.ready)
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(requireActor)

		r.Route("/applications", func(r chi.Router) {
			r.Post("/", s.submitApplication)
			r.Post("/bulk-transition", s.bulkTransition)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.getApplication)
				r.Post("/transition", s.transitionApplication)
				r.Patch("/proposal", s.updateProposal)
				r.Post("/notes", s.addNote)
				r.Post("/viewed", s.markViewed)
			})
		})
		r.Get("/opportunities", s.listOpportunities)
		r.Get("/campaigns/{id}/applications", s.listCampaignApplications)
		r.Get("/campaigns/{id}/match", s.matchScore)
	})

	return r
}

// instrument logs and counts every request by its route pattern.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		elapsed := time.Since(start)

		metrics.HTTPRequests.WithLabelValues(route, r.Method, strconv.Itoa(status)).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(route, r.Method).Observe(elapsed.Seconds())
		s.logger.Debug("http request", map[string]interface{}{
			"method":     r.Method,
			"route":      route,
			"status":     status,
			"durationMs": elapsed.Milliseconds(),
			"requestId":  middleware.GetReqID(r.Context()),
		})
	})
}

type actorKey struct{}

// requireActor rejects requests without a well-formed actor identity.
func requireActor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor := models.Actor{
			ID:   r.Header.Get(HeaderActorID),
			Role: models.Role(r.Header.Get(HeaderActorRole)),
		}
		if !actor.Valid() {
			writeJSON(w, http.StatusUnauthorized, errorBody{Error: errorDetail{
				Code:    "UNAUTHENTICATED",
				Message: "missing or invalid actor identity",
			}})
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), actorKey{}, actor)))
	})
}

func actorFrom(r *http.Request) models.Actor {
	actor, _ := r.Context().Value(actorKey{}).(models.Actor)
	return actor
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

func (s *Server) ready(w http.ResponseWriter, r *http.Request) {
	if s.deps.Ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.deps.Ready(ctx); err != nil {
			s.logger.Warn("readiness check failed", map[string]interface{}{"error": err})
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "unavailable",
				"time":   time.Now().Format(time.RFC3339),
			})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ready",
		"time":   time.Now().Format(time.RFC3339),
	})
}
