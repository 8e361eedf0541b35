package rest

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/arkosec/responder/logger"
	"github.com/arkosec/responder/model"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

func (s *Server) HandleListWorkflows(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, s.engine.Workflows())
}

func (s *Server) HandleRegisterWorkflow(w http.ResponseWriter, r *http.Request) {
	var wf model.Workflow
	if err := json.NewDecoder(r.Body).Decode(&wf); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid workflow payload")
		return
	}
	defer r.Body.Close()
	stored, err := s.engine.Registry().Register(wf)
	if err != nil {
		logger.Error("error registering workflow", zap.String("name", wf.Name), zap.Error(err))
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondWithJSON(w, http.StatusCreated, stored)
}

func (s *Server) HandleDeleteWorkflow(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := s.engine.Registry().Delete(id); err != nil {
		respondWithError(w, http.StatusNotFound, err.Error())
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) HandleSetWorkflowEnabled(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var body struct {
		Enabled bool `json:"enabled"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	defer r.Body.Close()
	if err := s.engine.Registry().SetEnabled(id, body.Enabled); err != nil {
		respondWithError(w, http.StatusNotFound, err.Error())
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]any{"success": true, "enabled": body.Enabled})
}

func (s *Server) HandleExecuteWorkflow(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var runReq model.WorkflowRunRequest
	if err := json.NewDecoder(r.Body).Decode(&runReq); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid run request")
		return
	}
	defer r.Body.Close()
	executionId, err := s.engine.ExecuteWorkflow(id, runReq.IncidentId, runReq.Params)
	if err != nil {
		logger.Error("error running workflow", zap.String("workflow", id), zap.Error(err))
		var wfNotFound model.WorkflowNotFoundError
		var incNotFound model.IncidentNotFoundError
		if errors.As(err, &wfNotFound) || errors.As(err, &incNotFound) {
			respondWithError(w, http.StatusNotFound, err.Error())
			return
		}
		respondWithError(w, http.StatusBadRequest, "error running workflow")
		return
	}
	respondWithJSON(w, http.StatusAccepted, map[string]any{"executionId": executionId})
}

func (s *Server) HandleListPlaybooks(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, s.engine.Playbooks())
}

func (s *Server) HandleListIntegrations(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, s.engine.Integrations())
}
