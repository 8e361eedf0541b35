package rest

import (
	"encoding/json"
	"net/http"

	"github.com/arkosec/responder/logger"
	"github.com/arkosec/responder/model"
	"go.uber.org/zap"
)

func (s *Server) HandleCreateIncident(w http.ResponseWriter, r *http.Request) {
	var req model.IncidentCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid incident payload")
		return
	}
	defer r.Body.Close()
	incident, executionIds, err := s.engine.HandleIncident(req)
	if err != nil {
		logger.Error("error creating incident", zap.String("title", req.Title), zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "error creating incident")
		return
	}
	respondWithJSON(w, http.StatusCreated, map[string]any{
		"incident":     incident,
		"executionIds": executionIds,
	})
}

func (s *Server) HandleListIncidents(w http.ResponseWriter, r *http.Request) {
	incidents, err := s.engine.Incidents()
	if err != nil {
		logger.Error("error listing incidents", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "error listing incidents")
		return
	}
	respondWithJSON(w, http.StatusOK, incidents)
}
