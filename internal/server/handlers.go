package server

import (
	"encoding/json"
	"net/http"

	"github.com/codessa-project/inkwell/internal/models"
	"github.com/codessa-project/inkwell/internal/services"
)

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request, scope services.TenantScope) {
	var req models.CreateScrollRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body", "")
		return
	}

	// Validate before spending a model call on text that will be rejected.
	if err := services.ValidateScrollText(req.Text); err != nil {
		s.respondError(w, err)
		return
	}

	parsed := services.ParseOrFallback(r.Context(), s.parser, req.Text, s.log)
	scroll, err := s.engine.Create(r.Context(), scope, req.Text, parsed)
	if err != nil {
		s.respondError(w, err)
		return
	}

	// A new scroll lands at the top of the newest-first listing, so any
	// saved cursor positions are stale.
	s.sessions.drop(scope.Tenant())

	s.writeJSON(w, http.StatusCreated, scroll)
}

func (s *Server) handleBrowse(w http.ResponseWriter, r *http.Request, scope services.TenantScope) {
	state := s.sessions.state(scope.Tenant())
	term := r.URL.Query().Get("search")

	page, err := s.browser.CurrentPage(r.Context(), scope, state, term)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, pageResponse(state, page))
}

func (s *Server) handleNextPage(w http.ResponseWriter, r *http.Request, scope services.TenantScope) {
	state := s.sessions.state(scope.Tenant())

	current, err := s.browser.CurrentPage(r.Context(), scope, state, state.SearchTerm)
	if err != nil {
		s.respondError(w, err)
		return
	}
	page, err := s.browser.Next(r.Context(), scope, state, current)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, pageResponse(state, page))
}

func (s *Server) handlePreviousPage(w http.ResponseWriter, r *http.Request, scope services.TenantScope) {
	state := s.sessions.state(scope.Tenant())

	page, err := s.browser.Previous(r.Context(), scope, state)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, pageResponse(state, page))
}

func (s *Server) handleStartEdit(w http.ResponseWriter, r *http.Request, scope services.TenantScope) {
	id := r.PathValue("id")

	scroll, err := s.engine.Get(r.Context(), scope, id)
	if err != nil {
		s.respondError(w, err)
		return
	}

	state := s.sessions.state(scope.Tenant())
	state.StartEditing(id)
	s.writeJSON(w, http.StatusOK, scroll)
}

func (s *Server) handleCancelEdit(w http.ResponseWriter, r *http.Request, scope services.TenantScope) {
	state := s.sessions.state(scope.Tenant())
	state.StopEditing()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request, scope services.TenantScope) {
	id := r.PathValue("id")

	var req models.UpdateScrollRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body", "")
		return
	}

	changes := models.ScrollUpdate{Summary: req.Summary, Topics: req.Topics}
	if err := s.engine.Update(r.Context(), scope, id, changes); err != nil {
		s.respondError(w, err)
		return
	}

	s.sessions.state(scope.Tenant()).StopEditing()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request, scope services.TenantScope) {
	id := r.PathValue("id")

	if err := s.engine.Delete(r.Context(), scope, id); err != nil {
		s.respondError(w, err)
		return
	}

	// Deleting shifts the newest-first listing under any saved cursors.
	s.sessions.drop(scope.Tenant())
	w.WriteHeader(http.StatusNoContent)
}
