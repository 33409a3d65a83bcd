// Package server exposes the scrolls API over HTTP.
package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/codessa-project/inkwell/internal/models"
	"github.com/codessa-project/inkwell/internal/services"
)

// Server routes scroll capture, browsing, and editing requests to the
// core services. It implements http.Handler.
type Server struct {
	engine    *services.SyncEngine
	browser   *services.PaginatedBrowser
	parser    services.Parser
	authority services.TenantAuthority
	sessions  *sessionRegistry
	log       *slog.Logger
	mux       *http.ServeMux
}

// New wires the API routes.
func New(engine *services.SyncEngine, browser *services.PaginatedBrowser, parser services.Parser, authority services.TenantAuthority, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	s := &Server{
		engine:    engine,
		browser:   browser,
		parser:    parser,
		authority: authority,
		sessions:  newSessionRegistry(),
		log:       log,
		mux:       http.NewServeMux(),
	}

	s.mux.HandleFunc("POST /v1/scrolls", s.withAuth(s.handleCreate))
	s.mux.HandleFunc("GET /v1/scrolls", s.withAuth(s.handleBrowse))
	s.mux.HandleFunc("POST /v1/scrolls/page/next", s.withAuth(s.handleNextPage))
	s.mux.HandleFunc("POST /v1/scrolls/page/previous", s.withAuth(s.handlePreviousPage))
	s.mux.HandleFunc("POST /v1/scrolls/{id}/edit", s.withAuth(s.handleStartEdit))
	s.mux.HandleFunc("POST /v1/scrolls/edit/cancel", s.withAuth(s.handleCancelEdit))
	s.mux.HandleFunc("PATCH /v1/scrolls/{id}", s.withAuth(s.handleUpdate))
	s.mux.HandleFunc("DELETE /v1/scrolls/{id}", s.withAuth(s.handleDelete))

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

type scopedHandler func(w http.ResponseWriter, r *http.Request, scope services.TenantScope)

// withAuth resolves the bearer token to a tenant scope before the handler
// runs. Requests without a verifiable identity never reach the services.
func (s *Server) withAuth(next scopedHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			s.writeError(w, http.StatusUnauthorized, "missing bearer token", "")
			return
		}

		identity, err := s.authority.Verify(r.Context(), token)
		if err != nil {
			s.log.Warn("token verification failed", "error", err)
			s.writeError(w, http.StatusUnauthorized, "invalid credentials", "")
			return
		}
		scope, err := services.NewTenantScope(identity)
		if err != nil {
			s.writeError(w, http.StatusUnauthorized, "invalid credentials", "")
			return
		}

		next(w, r, scope)
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.log.Error("failed to encode response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg, hint string) {
	s.writeJSON(w, status, models.ErrorResponse{Error: msg, Hint: hint})
}

// respondError maps service errors onto HTTP statuses.
func (s *Server) respondError(w http.ResponseWriter, err error) {
	var validation *services.ValidationError
	var ownership *services.OwnershipError
	var indexCfg *services.IndexConfigurationError
	var syncErr *services.SyncError

	switch {
	case errors.As(err, &validation):
		s.writeError(w, http.StatusBadRequest, validation.Error(), "")
	case errors.As(err, &ownership):
		s.writeError(w, http.StatusForbidden, "scroll belongs to another tenant", "")
	case errors.Is(err, services.ErrScrollNotFound):
		s.writeError(w, http.StatusNotFound, "scroll not found", "")
	case errors.Is(err, services.ErrNoNextPage), errors.Is(err, services.ErrNoPreviousPage):
		s.writeError(w, http.StatusConflict, err.Error(), "")
	case errors.As(err, &indexCfg):
		s.log.Error("query rejected by datastore", "error", err)
		s.writeError(w, http.StatusInternalServerError, "datastore is missing a required index",
			"create a composite index on (metadata.created_by, metadata.created_at DESC)")
	case errors.As(err, &syncErr):
		s.log.Error("dual write failed", "op", syncErr.Op, "scroll_id", syncErr.ScrollID, "rolled_back", syncErr.RolledBack, "error", err)
		s.writeError(w, http.StatusBadGateway, syncErr.Error(), "")
	default:
		s.log.Error("request failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, "internal error", "")
	}
}

func pageResponse(state *services.BrowsingState, page *services.Page) models.ScrollPageResponse {
	scrolls := page.Scrolls
	if scrolls == nil {
		scrolls = []*models.Scroll{}
	}
	return models.ScrollPageResponse{
		Scrolls:     scrolls,
		Page:        page.Index,
		HasNext:     page.HasNext,
		HasPrevious: page.HasPrevious,
		SearchTerm:  state.SearchTerm,
		EditingID:   state.EditingID,
	}
}
