// Package chi exposes the thin HTTP surface over the search subsystem.
package chi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/gridwatch/searchsync/internal/domain"
	"github.com/gridwatch/searchsync/internal/domain/entity"
	"github.com/gridwatch/searchsync/internal/domain/search/request"
	healthuc "github.com/gridwatch/searchsync/internal/usecase/health"
	monitoruc "github.com/gridwatch/searchsync/internal/usecase/monitor"
	searchuc "github.com/gridwatch/searchsync/internal/usecase/search"
	syncuc "github.com/gridwatch/searchsync/internal/usecase/sync"
)

// Server holds the use case services behind the HTTP surface.
type Server struct {
	search  *searchuc.Service
	sync    *syncuc.Service
	monitor *monitoruc.Service
	health  *healthuc.Service
	logger  *zap.Logger
}

// NewServer creates an HTTP API server.
func NewServer(
	search *searchuc.Service,
	sync *syncuc.Service,
	monitor *monitoruc.Service,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	return &Server{search: search, sync: sync, monitor: monitor, health: health, logger: logger}
}

// Routes registers all handlers on the router.
func (s *Server) Routes(r chi.Router) {
	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Get("/search", s.handleSearch)

	r.Get("/admin/search", s.handleAdminSearch)
	r.Post("/admin/resync", s.handleResyncAll)
	r.Post("/admin/resync/{type}", s.handleResyncType)

	r.Get("/querystats", s.handleOverallStats)
	r.Get("/querystats/tenant/{tenant}", s.handleTenantStats)
	r.Get("/querystats/slow", s.handleSlowQueries)
	r.Get("/querystats/distribution", s.handleDistribution)
	r.Get("/querystats/sla", s.handleSLA)
	r.Delete("/querystats", s.handleClearStats)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())
	status := http.StatusOK
	if report.Status != healthuc.Healthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, healthToResponse(report))
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	s.doSearch(w, r, false)
}

func (s *Server) handleAdminSearch(w http.ResponseWriter, r *http.Request) {
	s.doSearch(w, r, true)
}

func (s *Server) doSearch(w http.ResponseWriter, r *http.Request, admin bool) {
	req, err := searchRequestFromQuery(r, admin)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	page, err := s.search.Search(r.Context(), IdentityFromContext(r.Context()), req)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pageToResponse(page))
}

func (s *Server) handleResyncAll(w http.ResponseWriter, r *http.Request) {
	if !s.requireAdmin(w, r) {
		return
	}
	processed := s.sync.ResyncAll(r.Context())
	writeJSON(w, http.StatusOK, resyncResponse{Processed: processed})
}

func (s *Server) handleResyncType(w http.ResponseWriter, r *http.Request) {
	if !s.requireAdmin(w, r) {
		return
	}
	t, err := entity.Parse(chi.URLParam(r, "type"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	processed := s.sync.ResyncType(r.Context(), t)
	writeJSON(w, http.StatusOK, resyncResponse{Processed: processed})
}

func (s *Server) handleOverallStats(w http.ResponseWriter, r *http.Request) {
	if !s.requireAdmin(w, r) {
		return
	}
	writeJSON(w, http.StatusOK, statsToResponse(s.monitor.OverallStats()))
}

func (s *Server) handleTenantStats(w http.ResponseWriter, r *http.Request) {
	tenant := chi.URLParam(r, "tenant")
	caller := IdentityFromContext(r.Context())
	if !caller.Authenticated() {
		writeError(w, http.StatusUnauthorized, "unauthorized", "authentication required")
		return
	}
	// Non-admin callers may only inspect their own tenant.
	if !caller.Admin && caller.Tenant != tenant {
		writeError(w, http.StatusForbidden, "forbidden", "cross-tenant stats require admin")
		return
	}
	writeJSON(w, http.StatusOK, statsToResponse(s.monitor.TenantStats(tenant)))
}

func (s *Server) handleSlowQueries(w http.ResponseWriter, r *http.Request) {
	if !s.requireAdmin(w, r) {
		return
	}
	limit := 10
	if v := r.URL.Query().Get("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, "bad_request", "limit must be a positive integer")
			return
		}
		limit = parsed
	}
	writeJSON(w, http.StatusOK, slowQueriesToResponse(s.monitor.SlowQueries(limit)))
}

func (s *Server) handleDistribution(w http.ResponseWriter, r *http.Request) {
	if !s.requireAdmin(w, r) {
		return
	}
	writeJSON(w, http.StatusOK, distributionToResponse(s.monitor.Distribution()))
}

func (s *Server) handleSLA(w http.ResponseWriter, r *http.Request) {
	if !s.requireAdmin(w, r) {
		return
	}
	writeJSON(w, http.StatusOK, slaToResponse(s.monitor.SLACompliance()))
}

func (s *Server) handleClearStats(w http.ResponseWriter, r *http.Request) {
	if !s.requireAdmin(w, r) {
		return
	}
	s.monitor.Clear()
	w.WriteHeader(http.StatusNoContent)
}

// requireAdmin writes the appropriate error response and returns false for
// non-admin callers.
func (s *Server) requireAdmin(w http.ResponseWriter, r *http.Request) bool {
	caller := IdentityFromContext(r.Context())
	if !caller.Authenticated() {
		writeError(w, http.StatusUnauthorized, "unauthorized", "authentication required")
		return false
	}
	if !caller.Admin {
		writeError(w, http.StatusForbidden, "forbidden", "admin privilege required")
		return false
	}
	return true
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrAuthenticationRequired):
		writeError(w, http.StatusUnauthorized, "unauthorized", err.Error())
	case errors.Is(err, domain.ErrAuthorizationDenied):
		writeError(w, http.StatusForbidden, "forbidden", err.Error())
	case errors.Is(err, domain.ErrUnknownEntityType):
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
	default:
		s.logger.Error("request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
	}
}

func searchRequestFromQuery(r *http.Request, admin bool) (request.Request, error) {
	q := r.URL.Query()

	req := request.Request{
		Query: q.Get("q"),
		Admin: admin,
	}

	if raw := q.Get("types"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			t, err := entity.Parse(strings.TrimSpace(part))
			if err != nil {
				return request.Request{}, err
			}
			req.Types = append(req.Types, t)
		}
	}

	var err error
	if req.Page, err = intParam(q.Get("page"), 0); err != nil {
		return request.Request{}, err
	}
	if req.PageSize, err = intParam(q.Get("page_size"), 0); err != nil {
		return request.Request{}, err
	}
	return req, nil
}

func intParam(raw string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, errors.New("paging parameters must be non-negative integers")
	}
	return v, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}
