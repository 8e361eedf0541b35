package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/arkosec/responder/engine"
	"github.com/arkosec/responder/logger"
	"github.com/arkosec/responder/model"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

type Server struct {
	http.Server
	Port   int
	engine *engine.Engine
}

func NewServer(httpPort int, eng *engine.Engine) (*Server, error) {
	s := &Server{
		Server: http.Server{
			Addr: fmt.Sprintf(":%d", httpPort),
		},
		engine: eng,
		Port:   httpPort,
	}

	router := mux.NewRouter()
	router.HandleFunc("/workflows", s.HandleListWorkflows).Methods(http.MethodGet)
	router.HandleFunc("/workflows", s.HandleRegisterWorkflow).Methods(http.MethodPost)
	router.HandleFunc("/workflows/{id}", s.HandleDeleteWorkflow).Methods(http.MethodDelete)
	router.HandleFunc("/workflows/{id}/enabled", s.HandleSetWorkflowEnabled).Methods(http.MethodPatch)
	router.HandleFunc("/workflows/{id}/execute", s.HandleExecuteWorkflow).Methods(http.MethodPost)
	router.HandleFunc("/playbooks", s.HandleListPlaybooks).Methods(http.MethodGet)
	router.HandleFunc("/integrations", s.HandleListIntegrations).Methods(http.MethodGet)
	router.HandleFunc("/incidents", s.HandleCreateIncident).Methods(http.MethodPost)
	router.HandleFunc("/incidents", s.HandleListIncidents).Methods(http.MethodGet)
	router.HandleFunc("/executions/active", s.HandleActiveExecutions).Methods(http.MethodGet)
	router.HandleFunc("/executions/{id}", s.HandleGetExecution).Methods(http.MethodGet)
	router.HandleFunc("/executions/{id}/pause", s.HandlePauseExecution).Methods(http.MethodPost)
	router.HandleFunc("/executions/{id}/resume", s.HandleResumeExecution).Methods(http.MethodPost)
	router.HandleFunc("/executions/{id}/stop", s.HandleStopExecution).Methods(http.MethodPost)
	router.HandleFunc("/statistics", s.HandleStatistics).Methods(http.MethodGet)
	router.Use(loggingMiddleware)
	s.Handler = router
	return s, nil
}

func (s *Server) Router() http.Handler {
	return s.Handler
}

func (s *Server) Start() error {
	logger.Info("starting http server on", zap.Int("port", s.Port))
	if err := s.ListenAndServe(); err != nil {
		return err
	}
	return nil
}

func (s *Server) Stop() error {
	logger.Info("stopping http server")
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	err := s.Shutdown(ctx)
	if err != nil {
		logger.Error("error shutting down http server")
	}
	return nil
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.Info(r.RequestURI)
		next.ServeHTTP(w, r)
	})
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, _ := json.Marshal(payload)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]any{"success": false, "error": message})
}

// respondControlError maps the engine's structured failures onto HTTP
// codes; illegal transitions are conflicts, unknown ids are not-found.
func respondControlError(w http.ResponseWriter, err error) {
	var invalidTransition model.InvalidTransitionError
	var notFound model.ExecutionNotFoundError
	switch {
	case errors.As(err, &invalidTransition):
		respondWithError(w, http.StatusConflict, err.Error())
	case errors.As(err, &notFound):
		respondWithError(w, http.StatusNotFound, err.Error())
	default:
		respondWithError(w, http.StatusInternalServerError, err.Error())
	}
}
