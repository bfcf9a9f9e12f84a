package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/minato/kizami/internal/models"
)

func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	var bundle models.SignalBundle
	if err := json.NewDecoder(r.Body).Decode(&bundle); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if bundle.VideoID == "" {
		s.respondError(w, http.StatusBadRequest, "video_id is required")
		return
	}
	s.logger.Debug("process request",
		zap.String("video_id", bundle.VideoID),
		zap.Int("transcript_segments", len(bundle.Transcript)),
	)
	result, err := s.pipeline.Process(r.Context(), &bundle)
	if err != nil {
		s.logger.Error("processing failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, result)
}

type queryRequest struct {
	Query string `json:"query"`
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Query == "" {
		s.respondError(w, http.StatusBadRequest, "query is required")
		return
	}
	s.logger.Debug("query request", zap.String("query", req.Query))
	answer, err := s.pipeline.FollowUp(r.Context(), req.Query)
	if err != nil {
		s.logger.Error("query failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, answer)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats := s.cache.Stats(r.Context())
	resp := map[string]interface{}{"cache": stats}
	if s.storage != nil {
		if runs, err := s.storage.CountRuns(r.Context()); err == nil {
			resp["runs"] = runs
		}
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCacheClear(w http.ResponseWriter, r *http.Request) {
	tier := 0
	if v := r.URL.Query().Get("tier"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			s.respondError(w, http.StatusBadRequest, "tier must be an integer")
			return
		}
		tier = parsed
	}
	if err := s.cache.Clear(r.Context(), tier); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.logger.Info("cache cleared", zap.Int("tier", tier))
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"status": "cleared", "tier": tier})
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if s.storage == nil {
		s.respondError(w, http.StatusNotImplemented, "persistence not enabled")
		return
	}
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 {
		limit = 20
	}
	runs, err := s.storage.ListRuns(r.Context(), offset, limit)
	if err != nil {
		s.logger.Error("list runs failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"runs": runs})
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	if s.storage == nil {
		s.respondError(w, http.StatusNotImplemented, "persistence not enabled")
		return
	}
	id := chi.URLParam(r, "id")
	run, err := s.storage.GetRun(r.Context(), id)
	if err != nil {
		s.respondError(w, http.StatusNotFound, "run not found")
		return
	}
	results, err := s.storage.GetResults(r.Context(), id)
	if err != nil {
		s.logger.Error("load run results failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"run": run, "results": results})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
