package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BerylCAtieno/storycraft-agent/internal/export"
	"github.com/BerylCAtieno/storycraft-agent/internal/llm"
	"github.com/BerylCAtieno/storycraft-agent/internal/logger"
	"github.com/BerylCAtieno/storycraft-agent/internal/models"
	"github.com/BerylCAtieno/storycraft-agent/internal/pipeline"
	"github.com/BerylCAtieno/storycraft-agent/internal/session"
	"github.com/BerylCAtieno/storycraft-agent/internal/wizard"
)

const customerReply = `{"companyName": "Acme Corp", "region": "Denmark", "industry": "Renewable Energy", "confidence": "high", "additionalInfo": "Wind"}`

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	router *gin.Engine
	script *httptest.Server
}

func newTestServer(t *testing.T, gw llm.Func, scriptStatus int, scriptBody string) *testServer {
	t.Helper()
	script := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(scriptStatus)
		_, _ = w.Write([]byte(scriptBody))
	}))
	t.Cleanup(script.Close)

	log := logger.Nop()
	pipe := pipeline.New(gw, log)
	exp := export.NewExporter(log, script.URL, time.Second)
	wiz := wizard.NewService(log, pipe, exp, session.NewMemoryStore(0))
	h := NewHandler(log, pipe, exp, export.NewPassthrough(log, script.URL, time.Second), wiz, ServiceInfo{Name: "storycraft", Endpoints: Routes()})
	return &testServer{router: NewRouter(h, log, []string{"http://localhost:5173"}), script: script}
}

func echoGateway(reply string) llm.Func {
	return func(context.Context, string, llm.Options) (string, error) { return reply, nil }
}

func (s *testServer) do(t *testing.T, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(b))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestHealthAndInfo(t *testing.T) {
	s := newTestServer(t, echoGateway(""), http.StatusOK, "")

	rec := s.do(t, http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))

	rec = s.do(t, http.MethodGet, "/api/info", nil, map[string]string{RequestIDHeader: "req-1"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "req-1", rec.Header().Get(RequestIDHeader))
	assert.Equal(t, "storycraft", decode(t, rec)["name"])
}

func TestStepEndpointsReturnRawText(t *testing.T) {
	s := newTestServer(t, echoGateway(customerReply), http.StatusOK, "")

	tests := []struct {
		path string
		body any
	}{
		{"/api/validate-customer", ValidateCustomerRequest{CustomerDetails: "Acme Corp, renewable energy, based in Denmark"}},
		{"/api/analyze-use-cases", AnalyzeUseCasesRequest{CustomerContent: "notes", Industry: "Energy"}},
		{"/api/filter-content", FilterContentRequest{UseCaseName: "Churn", CustomerNotes: "notes"}},
		{"/api/generate-content", GenerateContentRequest{UseCaseName: "Churn", UseCaseCategory: models.CategoryBusiness, FilteredContent: "text"}},
		{"/api/ai-edit-content", AIEditRequest{Section: models.SectionImpact, CurrentContent: "x", Feedback: []string{"more"}, UseCaseName: "Churn", UseCaseCategory: models.CategoryBusiness}},
		{"/api/generate-story", map[string]any{"useCaseData": models.StoryInput{UseCaseName: "Churn", ProblemStatement: "p", DatabricksSolution: "s", Impact: "i"}}},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := s.do(t, http.MethodPost, tt.path, tt.body, nil)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			assert.Equal(t, customerReply, decode(t, rec)["response"])
		})
	}
}

func TestStepEndpointsRejectBlankInput(t *testing.T) {
	var calls int
	s := newTestServer(t, func(context.Context, string, llm.Options) (string, error) {
		calls++
		return "x", nil
	}, http.StatusOK, "")

	tests := []struct {
		path string
		body any
	}{
		{"/api/validate-customer", ValidateCustomerRequest{CustomerDetails: "  "}},
		{"/api/validate-customer", "not json"},
		{"/api/analyze-use-cases", AnalyzeUseCasesRequest{}},
		{"/api/filter-content", FilterContentRequest{UseCaseName: "Churn"}},
		{"/api/generate-content", GenerateContentRequest{UseCaseName: "Churn"}},
		{"/api/ai-edit-content", AIEditRequest{Section: models.SectionImpact, CurrentContent: "x", UseCaseName: "Churn", UseCaseCategory: models.CategoryBusiness}},
		{"/api/generate-story", map[string]any{}},
		{"/api/generate-story", map[string]any{"useCaseData": models.StoryInput{UseCaseName: "Churn"}}},
	}
	for _, tt := range tests {
		rec := s.do(t, http.MethodPost, tt.path, tt.body, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, tt.path)
		assert.NotEmpty(t, decode(t, rec)["error"], tt.path)
	}
	assert.Zero(t, calls)
}

func TestProviderErrorIs500WithMessage(t *testing.T) {
	s := newTestServer(t, func(context.Context, string, llm.Options) (string, error) {
		return "", &llm.Error{Kind: llm.KindStatus, Provider: "Perplexity", Status: 429, Message: "Too Many Requests. rate limited"}
	}, http.StatusOK, "")

	rec := s.do(t, http.MethodPost, "/api/validate-customer", ValidateCustomerRequest{CustomerDetails: "Acme"}, nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, decode(t, rec)["error"], "rate limited")
}

func exportBody() ExportStoriesRequest {
	key := models.NewUseCaseKey("Churn", models.CategoryBusiness)
	return ExportStoriesRequest{
		StoryGenerationResults: []models.StoryResult{{UseCaseKey: key, StoryContent: models.StoryContent{Summary: "s", DetailedStory: "d"}}},
		CustomerInfo:           models.CustomerProfile{CompanyName: "Acme"},
		UseCaseContents:        map[models.UseCaseKey]models.GeneratedContent{key: {ProblemStatement: "p", Impact: "a||b"}},
	}
}

func TestExportStories(t *testing.T) {
	s := newTestServer(t, echoGateway(""), http.StatusOK, `{"status":"success","url":"https://x"}`)
	rec := s.do(t, http.MethodPost, "/api/export-stories", exportBody(), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp ExportStoriesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "Successfully exported 1 use case stories", resp.Message)
	assert.Equal(t, models.ExportResult{Success: true, TotalExported: 1, URL: "https://x"}, resp.ExportResult)

	rec = s.do(t, http.MethodPost, "/api/export-stories", ExportStoriesRequest{}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExportStoriesNonJSONReply(t *testing.T) {
	s := newTestServer(t, echoGateway(""), http.StatusOK, "not json")
	rec := s.do(t, http.MethodPost, "/api/export-stories", exportBody(), nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, false, body["success"])
	assert.Contains(t, body["error"], "not json")
}

func TestValueStory(t *testing.T) {
	s := newTestServer(t, echoGateway(""), http.StatusOK, "plain text")
	rec := s.do(t, http.MethodPost, "/api/value-story", map[string]any{"customer": "Acme"}, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]any{"status": "error", "message": "Non-JSON response", "raw": "plain text"}, decode(t, rec))
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t, echoGateway(""), http.StatusOK, "")
	req := httptest.NewRequest(http.MethodOptions, "/api/validate-customer", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
}

func wizardGateway() llm.Func {
	return func(_ context.Context, prompt string, opts llm.Options) (string, error) {
		switch opts {
		case pipeline.StepValidateCustomer.Options:
			return customerReply, nil
		case pipeline.StepAnalyzeUseCases.Options:
			return `{"identifiedUseCases": [{"category": "Business Use Case", "name": "Churn", "description": "Reduce churn", "confidence": "high"}], "summary": "s"}`, nil
		case pipeline.StepFilterContent.Options:
			return "notes about churn", nil
		case pipeline.StepGenerateContent.Options:
			return `{"problemStatement": "p", "databricksSolution": "s", "impact": "a||b", "problemConfidence": 0.9, "solutionConfidence": 0.9, "impactConfidence": 0.3}`, nil
		}
		if strings.Contains(prompt, `"detailedStory"`) {
			return `{"summary": "sum", "detailedStory": "story"}`, nil
		}
		return "", errors.New("unexpected prompt")
	}
}

func TestWizardFlow(t *testing.T) {
	s := newTestServer(t, wizardGateway(), http.StatusOK, `{"status":"success","url":"https://deck"}`)

	rec := s.do(t, http.MethodGet, "/api/wizard/state", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/wizard/sessions", nil, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	id := rec.Header().Get(SessionHeader)
	require.NotEmpty(t, id)
	assert.Contains(t, rec.Header().Get("Set-Cookie"), SessionCookie+"="+id)
	hdr := map[string]string{SessionHeader: id}

	rec = s.do(t, http.MethodPost, "/api/wizard/customer/confirm", nil, hdr)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/wizard/customer", CustomerDetailsRequest{CustomerDetails: "Acme Corp"}, hdr)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = s.do(t, http.MethodPost, "/api/wizard/customer/confirm", nil, hdr)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = s.do(t, http.MethodPost, "/api/wizard/use-cases/analyze", CustomerNotesRequest{CustomerNotes: "they churn"}, hdr)
	require.Equal(t, http.StatusOK, rec.Code)

	key := models.NewUseCaseKey("Churn", models.CategoryBusiness)
	rec = s.do(t, http.MethodPost, "/api/wizard/use-cases/select", SelectUseCasesRequest{Keys: []models.UseCaseKey{key, key}}, hdr)
	assert.Equal(t, http.StatusConflict, rec.Code)
	rec = s.do(t, http.MethodPost, "/api/wizard/use-cases/select", SelectUseCasesRequest{Keys: []models.UseCaseKey{key}}, hdr)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/wizard/use-cases/process", nil, hdr)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var sess SessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sess))
	assert.Equal(t, wizard.StepContentEditing, sess.Session.Step)
	assert.Equal(t, "a\n\nb", sess.DisplayImpact[key])

	rec = s.do(t, http.MethodPost, "/api/wizard/export", WizardExportRequest{ExportType: "final"}, hdr)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/wizard/content/summary/accept", map[string]any{"key": key, "accepted": true}, hdr)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = s.do(t, http.MethodPost, "/api/wizard/content/impact/accept", map[string]any{"key": key}, hdr)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = s.do(t, http.MethodPost, "/api/wizard/content/impact/accept", map[string]any{"key": key, "accepted": true}, hdr)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decode(t, rec)["changed"])

	rec = s.do(t, http.MethodGet, "/api/wizard/validation", nil, hdr)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decode(t, rec)["canExport"])

	rec = s.do(t, http.MethodPost, "/api/wizard/export", nil, hdr)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "https://deck", body["exportResult"].(map[string]any)["url"])

	rec = s.do(t, http.MethodDelete, "/api/wizard/state", nil, hdr)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sess))
	assert.Equal(t, wizard.StepCustomerInput, sess.Session.Step)
}

func TestWizardSessionFromCookie(t *testing.T) {
	s := newTestServer(t, wizardGateway(), http.StatusOK, "")
	rec := s.do(t, http.MethodPost, "/api/wizard/sessions", nil, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	id := rec.Header().Get(SessionHeader)

	req := httptest.NewRequest(http.MethodGet, "/api/wizard/state", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: id})
	out := httptest.NewRecorder()
	s.router.ServeHTTP(out, req)
	assert.Equal(t, http.StatusOK, out.Code)

	rec = s.do(t, http.MethodGet, "/api/wizard/state", nil, map[string]string{SessionHeader: "unknown"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
