package rest

import (
	"errors"
	"net/http"

	"github.com/arkosec/responder/model"
	"github.com/gorilla/mux"
)

func (s *Server) HandleActiveExecutions(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, s.engine.ActiveExecutions())
}

func (s *Server) HandleGetExecution(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	exec, err := s.engine.GetExecution(id)
	if err != nil {
		var notFound model.ExecutionNotFoundError
		if errors.As(err, &notFound) {
			respondWithError(w, http.StatusNotFound, err.Error())
			return
		}
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondWithJSON(w, http.StatusOK, exec)
}

func (s *Server) HandlePauseExecution(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := s.engine.PauseExecution(id); err != nil {
		respondControlError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]any{"success": true, "status": model.EXECUTION_PAUSED})
}

func (s *Server) HandleResumeExecution(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := s.engine.ResumeExecution(id); err != nil {
		respondControlError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]any{"success": true, "status": model.EXECUTION_RUNNING})
}

func (s *Server) HandleStopExecution(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := s.engine.StopExecution(id); err != nil {
		respondControlError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]any{"success": true, "status": model.EXECUTION_STOPPED})
}

func (s *Server) HandleStatistics(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, s.engine.Statistics())
}
