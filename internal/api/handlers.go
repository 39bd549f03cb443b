package api

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.respondWithJSON(w, http.StatusOK, s.status.Status())
}

func (s *Server) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	healthStatus := make(map[string]string)

	if _, err := s.store.Load(); err != nil {
		healthStatus["published_store"] = "unhealthy"
		s.logger.Error("health check failed for published store", zap.Error(err))
	} else {
		healthStatus["published_store"] = "healthy"
	}

	if s.archive != nil {
		if err := s.archive.Ping(r.Context()); err != nil {
			healthStatus["archive"] = "unhealthy"
			s.logger.Error("health check failed for archive", zap.Error(err))
		} else {
			healthStatus["archive"] = "healthy"
		}
	}

	for _, v := range healthStatus {
		if v != "healthy" {
			s.respondWithJSON(w, http.StatusServiceUnavailable, healthStatus)
			return
		}
	}
	s.respondWithJSON(w, http.StatusOK, healthStatus)
}

func (s *Server) respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, _ := json.Marshal(payload)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}
