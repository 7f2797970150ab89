package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"radindex/internal"
	"radindex/internal/search"
)

const maxLimit = 500

type searchResponse struct {
	Query   string          `json:"query"`
	Count   int             `json:"count"`
	Results []search.Result `json:"results"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{"status": "ok", "entries": s.current().Len()})
}

func (s *Server) handleMetadata(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.current().Metadata)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.current().Stats())
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := strings.TrimSpace(q.Get("q"))
	if query == "" {
		writeError(w, r, http.StatusBadRequest, "missing query parameter q")
		return
	}
	limit, ok := parseLimit(q.Get("limit"), search.DefaultLimit)
	if !ok {
		writeError(w, r, http.StatusBadRequest, "invalid limit")
		return
	}

	results := s.current().Search(query, search.Options{
		Annex:        strings.ToUpper(strings.TrimSpace(q.Get("annex"))),
		NasFab:       strings.TrimSpace(q.Get("nas_fab")),
		ChangeStatus: q.Get("status"),
		Limit:        limit,
	})
	writeJSON(w, searchResponse{Query: query, Count: len(results), Results: nonNil(results)})
}

func (s *Server) handleSuggest(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseLimit(r.URL.Query().Get("limit"), 5)
	if !ok {
		writeError(w, r, http.StatusBadRequest, "invalid limit")
		return
	}
	writeJSON(w, map[string]any{
		"suggestions": s.current().Suggestions(r.URL.Query().Get("q"), limit),
	})
}

func (s *Server) handleResolveError(w http.ResponseWriter, r *http.Request) {
	msg := strings.TrimSpace(r.URL.Query().Get("msg"))
	if msg == "" {
		writeError(w, r, http.StatusBadRequest, "missing query parameter msg")
		return
	}
	info, results := s.current().ByError(msg)
	writeJSON(w, map[string]any{
		"parsed":  info,
		"count":   len(results),
		"results": nonNil(results),
	})
}

func (s *Server) handleRule(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	results := s.current().ByReference(id)
	if len(results) == 0 {
		writeError(w, r, http.StatusNotFound, "rule not found: "+id)
		return
	}
	writeJSON(w, searchResponse{Query: id, Count: len(results), Results: results})
}

func (s *Server) handleAnnex(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	records, ok := s.current().Category(key)
	if !ok {
		writeError(w, r, http.StatusNotFound, "unknown annex key: "+key)
		return
	}
	if records == nil {
		records = []internal.Record{}
	}
	writeJSON(w, map[string]any{"key": key, "count": len(records), "entries": records})
}

func parseLimit(raw string, fallback int) (int, bool) {
	if raw == "" {
		return fallback, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, false
	}
	if n > maxLimit {
		n = maxLimit
	}
	return n, true
}

func nonNil(results []search.Result) []search.Result {
	if results == nil {
		return []search.Result{}
	}
	return results
}
