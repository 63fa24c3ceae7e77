package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/docvision/docvision-api/internal/models"
	"github.com/docvision/docvision-api/internal/router"
	"github.com/docvision/docvision-api/internal/utils"
)

type fakeService struct {
	result *models.AnalysisResult
	err    error
	gotReq *models.AnalysisRequest
}

func (f *fakeService) Analyze(_ context.Context, req *models.AnalysisRequest) (*models.AnalysisResult, error) {
	f.gotReq = req
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func multipartBody(t *testing.T, filename string, content []byte, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	if filename != "" {
		part, err := writer.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	for key, value := range fields {
		require.NoError(t, writer.WriteField(key, value))
	}
	require.NoError(t, writer.Close())

	return &buf, writer.FormDataContentType()
}

func newTestRouter(svc *fakeService) http.Handler {
	return router.New(svc, utils.NewLogger("error"), 1<<20)
}

func okResult() *models.AnalysisResult {
	return &models.AnalysisResult{
		Mode:       models.ModeFullAnalysis,
		Filename:   "scan.png",
		SourceKind: models.SourceImage,
		PageCount:  1,
		Result:     "analysis text",
		Model:      "fake-vision-model",
		AnalyzedAt: time.Now().UTC(),
	}
}

func TestAnalyzeEndpoint(t *testing.T) {
	svc := &fakeService{result: okResult()}
	handler := newTestRouter(svc)

	body, contentType := multipartBody(t, "scan.png", []byte("imagebytes"), map[string]string{"language": "English"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyze", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var result models.AnalysisResult
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&result))
	require.Equal(t, "analysis text", result.Result)
	require.Equal(t, 1, result.PageCount)

	require.Equal(t, models.ModeFullAnalysis, svc.gotReq.Mode)
	require.Equal(t, "scan.png", svc.gotReq.Filename)
	require.Equal(t, []byte("imagebytes"), svc.gotReq.Data)
	// The language field is normalized to lower case.
	require.Equal(t, models.LanguageEnglish, svc.gotReq.Language)
}

func TestModeRouting(t *testing.T) {
	cases := []struct {
		path string
		mode models.AnalysisMode
	}{
		{"/api/v1/analyze", models.ModeFullAnalysis},
		{"/api/v1/extract-text", models.ModeExtractText},
		{"/api/v1/describe", models.ModeDescribe},
		{"/api/v1/query", models.ModeCustomQuery},
	}

	for _, tc := range cases {
		svc := &fakeService{result: okResult()}
		handler := newTestRouter(svc)

		body, contentType := multipartBody(t, "scan.png", []byte("x"), map[string]string{"query": "what is this?"})
		req := httptest.NewRequest(http.MethodPost, tc.path, body)
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code, "path %s", tc.path)
		require.Equal(t, tc.mode, svc.gotReq.Mode, "path %s", tc.path)
	}
}

func TestQueryFieldForwarded(t *testing.T) {
	svc := &fakeService{result: okResult()}
	handler := newTestRouter(svc)

	body, contentType := multipartBody(t, "scan.png", []byte("x"), map[string]string{"query": "  Vad står det?  "})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/query", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "Vad står det?", svc.gotReq.Query)
}

func TestMissingFileField(t *testing.T) {
	svc := &fakeService{result: okResult()}
	handler := newTestRouter(svc)

	body, contentType := multipartBody(t, "", nil, map[string]string{"language": "swedish"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyze", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp models.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Equal(t, utils.KindBadRequest, resp.Error.Kind)
}

func TestPipelineErrorMappedToEnvelope(t *testing.T) {
	svc := &fakeService{err: utils.NewUnsupportedFileTypeError(`unsupported file type ".exe"`)}
	handler := newTestRouter(svc)

	body, contentType := multipartBody(t, "photo.exe", []byte("MZ"), nil)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyze", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp models.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Equal(t, utils.KindUnsupportedFileType, resp.Error.Kind)
	require.Contains(t, resp.Error.Message, ".exe")
}

func TestProviderErrorsMapToGatewayStatuses(t *testing.T) {
	cases := []struct {
		err    error
		status int
		kind   string
	}{
		{utils.NewProviderRejectedError("bad key", nil), http.StatusBadGateway, utils.KindProviderRejected},
		{utils.NewProviderUnavailableError("timeout", nil), http.StatusServiceUnavailable, utils.KindProviderUnavailable},
	}

	for _, tc := range cases {
		svc := &fakeService{err: tc.err}
		handler := newTestRouter(svc)

		body, contentType := multipartBody(t, "scan.png", []byte("x"), nil)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/analyze", body)
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		require.Equal(t, tc.status, rec.Code)

		var resp models.ErrorResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		require.Equal(t, tc.kind, resp.Error.Kind)
	}
}

func TestOversizedContentLengthRejectedEarly(t *testing.T) {
	svc := &fakeService{result: okResult()}
	handler := newTestRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyze", bytes.NewReader(nil))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=x")
	req.ContentLength = 10 << 20

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	require.Nil(t, svc.gotReq)
}

func TestHealthEndpoint(t *testing.T) {
	handler := newTestRouter(&fakeService{result: okResult()})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":"healthy"}`, rec.Body.String())
}
