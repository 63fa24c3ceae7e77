package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/docvision/docvision-api/internal/models"
	"github.com/docvision/docvision-api/internal/services"
	"github.com/docvision/docvision-api/internal/utils"
)

type AnalysisHandler struct {
	service     services.AnalysisService
	logger      *utils.Logger
	maxFileSize int64
}

func NewAnalysisHandler(service services.AnalysisService, logger *utils.Logger, maxFileSize int64) *AnalysisHandler {
	return &AnalysisHandler{
		service:     service,
		logger:      logger,
		maxFileSize: maxFileSize,
	}
}

// Analyze handles POST /api/v1/analyze: full analysis of the upload.
func (h *AnalysisHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	h.runPipeline(w, r, models.ModeFullAnalysis)
}

// ExtractText handles POST /api/v1/extract-text: OCR-style extraction.
func (h *AnalysisHandler) ExtractText(w http.ResponseWriter, r *http.Request) {
	h.runPipeline(w, r, models.ModeExtractText)
}

// Describe handles POST /api/v1/describe: visual description.
func (h *AnalysisHandler) Describe(w http.ResponseWriter, r *http.Request) {
	h.runPipeline(w, r, models.ModeDescribe)
}

// Query handles POST /api/v1/query: a custom question about the upload.
// The question comes from the required "query" form field; the pipeline
// rejects the request if it is missing or blank.
func (h *AnalysisHandler) Query(w http.ResponseWriter, r *http.Request) {
	h.runPipeline(w, r, models.ModeCustomQuery)
}

func (h *AnalysisHandler) runPipeline(w http.ResponseWriter, r *http.Request, mode models.AnalysisMode) {
	// Reject oversized requests before reading the body. The multipart
	// envelope adds overhead beyond the file itself, hence the slack.
	if r.ContentLength > h.maxFileSize+1<<20 {
		h.respondError(w, utils.NewFileTooLargeError("request body exceeds the upload size limit"))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxFileSize+1<<20)

	if err := r.ParseMultipartForm(h.maxFileSize); err != nil {
		if strings.Contains(err.Error(), "request body too large") {
			h.respondError(w, utils.NewFileTooLargeError("request body exceeds the upload size limit"))
			return
		}
		h.respondError(w, utils.NewBadRequestError("invalid multipart form data"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.respondError(w, utils.NewBadRequestError("no file provided: expected multipart field \"file\""))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, h.maxFileSize+1))
	if err != nil {
		h.respondError(w, utils.NewInternalError("failed to read uploaded file"))
		return
	}
	if int64(len(data)) > h.maxFileSize {
		h.respondError(w, utils.NewFileTooLargeError("file exceeds the upload size limit"))
		return
	}

	req := &models.AnalysisRequest{
		Filename: header.Filename,
		Data:     data,
		Mode:     mode,
		Query:    strings.TrimSpace(r.FormValue("query")),
		Language: models.ResponseLanguage(strings.ToLower(strings.TrimSpace(r.FormValue("language")))),
	}

	result, err := h.service.Analyze(r.Context(), req)
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, result)
}

func (h *AnalysisHandler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode JSON response", "error", err)
	}
}

func (h *AnalysisHandler) respondError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	body := models.ErrorBody{
		Kind:    utils.KindInternal,
		Message: "internal server error",
	}

	if appErr, ok := utils.AsAppError(err); ok {
		status = appErr.StatusCode
		body.Kind = appErr.Kind
		body.Message = appErr.Message
	}

	h.logger.Error("request failed", "status", status, "kind", body.Kind, "error", body.Message)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(models.ErrorResponse{Error: body}); err != nil {
		h.logger.Error("failed to encode error response", "error", err)
	}
}
