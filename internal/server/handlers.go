package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/nikbrunner/aidir/internal/catalog"
	"github.com/nikbrunner/aidir/internal/model"
	"github.com/nikbrunner/aidir/internal/saved"
	"github.com/nikbrunner/aidir/internal/search"
)

type errorResponse struct {
	Error   string   `json:"error"`
	Missing []string `json:"missing,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps domain errors onto status codes.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, saved.ErrUserRequired), errors.Is(err, saved.ErrToolRequired):
		status = http.StatusBadRequest
	case errors.Is(err, catalog.ErrNotInitialized), errors.Is(err, catalog.ErrConfiguration):
		status = http.StatusServiceUnavailable
	case errors.Is(err, catalog.ErrSubResource), errors.Is(err, catalog.ErrDataSource):
		status = http.StatusBadGateway
	}
	if status >= 500 {
		s.logger.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func (s *Server) handleListTools(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var categories []string
	for _, c := range q["category"] {
		for _, part := range strings.Split(c, ",") {
			if part = strings.TrimSpace(part); part != "" {
				categories = append(categories, part)
			}
		}
	}
	tools := s.catalog.FilterTools(q.Get("q"), categories)
	if tools == nil {
		tools = []model.Tool{}
	}
	writeJSON(w, http.StatusOK, tools)
}

func (s *Server) handlePopular(w http.ResponseWriter, r *http.Request) {
	tools := s.catalog.PopularTools()
	if tools == nil {
		tools = []model.Tool{}
	}
	writeJSON(w, http.StatusOK, tools)
}

func (s *Server) handleToolDetails(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	tool, err := s.catalog.ToolDetails(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if tool == nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "tool not found"})
		return
	}
	writeJSON(w, http.StatusOK, tool)
}

type recommendRequest struct {
	Text string `json:"text"`
}

// handleRecommend accepts the text as ?text= or as a JSON body.
func (s *Server) handleRecommend(w http.ResponseWriter, r *http.Request) {
	text := r.URL.Query().Get("text")
	if r.Method == http.MethodPost {
		var req recommendRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
			return
		}
		text = req.Text
	}
	writeJSON(w, http.StatusOK, search.Recommend(s.catalog.AllTools(), text))
}

func (s *Server) handleListSaved(w http.ResponseWriter, r *http.Request) {
	list, err := s.saved.List(r.Context(), chi.URLParam(r, "uid"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if list == nil {
		list = []model.SavedTool{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	if err := s.saved.Save(r.Context(), chi.URLParam(r, "uid"), chi.URLParam(r, "toolID")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleUnsave(w http.ResponseWriter, r *http.Request) {
	if err := s.saved.Remove(r.Context(), chi.URLParam(r, "uid"), chi.URLParam(r, "toolID")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleClientConfig serves the public web client configuration. It fails
// with 500 when a required field is not configured.
func (s *Server) handleClientConfig(w http.ResponseWriter, r *http.Request) {
	if missing := s.client.Missing(); len(missing) > 0 {
		s.logger.Error("client config incomplete", zap.Strings("missing", missing))
		writeJSON(w, http.StatusInternalServerError, errorResponse{
			Error:   "client configuration is incomplete",
			Missing: missing,
		})
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, s.client)
}
