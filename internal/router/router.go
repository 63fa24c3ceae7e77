package router

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/docvision/docvision-api/internal/handlers"
	"github.com/docvision/docvision-api/internal/middleware"
	"github.com/docvision/docvision-api/internal/services"
	"github.com/docvision/docvision-api/internal/utils"
)

func New(service services.AnalysisService, logger *utils.Logger, maxFileSize int64) http.Handler {
	r := mux.NewRouter()

	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS())
	r.Use(middleware.Recovery(logger))

	// Liveness probe: no pipeline invocation.
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"healthy"}`))
	}).Methods(http.MethodGet)

	handler := handlers.NewAnalysisHandler(service, logger, maxFileSize)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/analyze", handler.Analyze).Methods(http.MethodPost)
	api.HandleFunc("/extract-text", handler.ExtractText).Methods(http.MethodPost)
	api.HandleFunc("/describe", handler.Describe).Methods(http.MethodPost)
	api.HandleFunc("/query", handler.Query).Methods(http.MethodPost)

	return r
}
