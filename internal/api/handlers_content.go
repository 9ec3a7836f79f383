package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/notioncms/internal/notion"
)

// defaultPostLimit applies when /posts has no limit parameter.
const defaultPostLimit = 10

func (s *Server) handleFAQs(w http.ResponseWriter, r *http.Request) {
	faqs, err := s.content.FAQs(r.Context(), localeFrom(r.Context()))
	if err != nil {
		s.upstreamError(w, r, "list faqs", err)
		return
	}
	writeJSON(w, map[string]any{"faqs": faqs})
}

func (s *Server) handleTeam(w http.ResponseWriter, r *http.Request) {
	members, err := s.content.TeamMembers(r.Context(), localeFrom(r.Context()))
	if err != nil {
		s.upstreamError(w, r, "list team members", err)
		return
	}
	writeJSON(w, map[string]any{"team": members})
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	events, err := s.content.UpcomingEvents(r.Context(), localeFrom(r.Context()))
	if err != nil {
		s.upstreamError(w, r, "list events", err)
		return
	}
	writeJSON(w, map[string]any{"events": events})
}

func (s *Server) handlePosts(w http.ResponseWriter, r *http.Request) {
	limit := defaultPostLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			jsonError(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = n
	}

	posts, err := s.content.Posts(r.Context(), localeFrom(r.Context()), limit)
	if err != nil {
		s.upstreamError(w, r, "list posts", err)
		return
	}
	writeJSON(w, map[string]any{"posts": posts})
}

func (s *Server) handlePost(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	post, err := s.content.PostBySlug(r.Context(), slug, localeFrom(r.Context()))
	if err != nil {
		s.upstreamError(w, r, "get post", err)
		return
	}
	if post == nil {
		jsonError(w, "post not found", http.StatusNotFound)
		return
	}
	writeJSON(w, post)
}

// upstreamError maps store failures onto HTTP statuses.
func (s *Server) upstreamError(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case notion.IsNotFound(err):
		jsonError(w, "not found", http.StatusNotFound)
		return
	case errors.Is(err, notion.ErrNoDataSources):
		s.log.Error(op, "error", err, "path", r.URL.Path)
		jsonError(w, "collection has no data sources", http.StatusBadGateway)
		return
	case r.Context().Err() != nil:
		jsonError(w, "request canceled", http.StatusServiceUnavailable)
		return
	}
	s.log.Error(op, "error", err, "path", r.URL.Path)
	jsonError(w, op+" failed", http.StatusBadGateway)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
