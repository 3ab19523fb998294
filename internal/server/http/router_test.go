package http

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

	"github.com/dmitrijs2005/docrelay/internal/common"
	"github.com/dmitrijs2005/docrelay/internal/server/models"
	"github.com/dmitrijs2005/docrelay/internal/server/webhook"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUploads struct {
	issueReq  models.CredentialRequest
	issueErr  error
	saved     models.SaveUploadInput
	saveErr   error
	filter    models.UploadFilter
	records   []*models.UploadRecord
	listErr   error
	deletedID string
	deleteErr error
}

func (f *fakeUploads) IssueCredential(_ context.Context, req models.CredentialRequest) (*models.CredentialBundle, error) {
	f.issueReq = req
	if f.issueErr != nil {
		return nil, f.issueErr
	}
	return &models.CredentialBundle{
		CloudName:    "demo",
		APIKey:       "123",
		Timestamp:    1700000000,
		Signature:    "abc",
		UploadPreset: "preset",
		PublicID:     "rules_upload_pdf/jane_doe_Q3_1700000000",
		Folder:       "pdf-uploads",
		ResourceType: "raw",
	}, nil
}

func (f *fakeUploads) SaveUpload(_ context.Context, in models.SaveUploadInput) (*models.UploadRecord, error) {
	f.saved = in
	if f.saveErr != nil {
		return nil, f.saveErr
	}
	return &models.UploadRecord{
		ID:             "0d9c2f5e-8a8b-4b59-9d8e-8f3a8d1c2b11",
		StoredFilename: in.StorageKey,
		RemoteURL:      in.RemoteURL,
		Category:       in.Category,
		UploadStatus:   models.StatusCompleted,
		CreatedAt:      time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
	}, nil
}

func (f *fakeUploads) ListUploads(_ context.Context, filter models.UploadFilter) ([]*models.UploadRecord, error) {
	f.filter = filter
	if filter.UserID == "" {
		return nil, &common.ValidationError{Message: "User ID is required"}
	}
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []*models.UploadRecord
	for _, r := range f.records {
		if filter.Status != "" && r.UploadStatus != filter.Status {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (f *fakeUploads) DeleteUpload(_ context.Context, id string) error {
	f.deletedID = id
	return f.deleteErr
}

type fakeCampaigns struct {
	body []byte
	err  error
}

func (f *fakeCampaigns) FetchCampaigns(context.Context) (webhook.Payload, error) {
	if f.err != nil {
		return webhook.Payload{}, f.err
	}
	return webhook.Normalize(f.body)
}

type testEnv struct {
	engine    *gin.Engine
	uploads   *fakeUploads
	campaigns *fakeCampaigns
}

func newTestEnv(t *testing.T, production bool) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	env := &testEnv{uploads: &fakeUploads{}, campaigns: &fakeCampaigns{}}
	limiter, err := NewRateLimiter(15*time.Minute, 100, 100)
	require.NoError(t, err)

	env.engine = NewRouter(Deps{
		Uploads:       env.uploads,
		Campaigns:     env.campaigns,
		Limiter:       limiter,
		Gatherer:      prometheus.NewRegistry(),
		AllowedOrigin: "http://localhost:5173",
		Production:    production,
		Health:        HealthInfo{DatastoreConfigured: true, MediaBackend: "cloudinary"},
	})
	return env
}

func (e *testEnv) do(method, path, body string) *httptest.ResponseRecorder {
	var rdr *bytes.Reader
	if body != "" {
		rdr = bytes.NewReader([]byte(body))
	} else {
		rdr = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rdr)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.engine.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

const validIssue = `{"filename":"Q3.pdf","category":"rules_upload_pdf","userId":"u-1","userEmail":"jane.doe@x.com","action":"clear"}`

func TestGenerateUploadURL(t *testing.T) {
	env := newTestEnv(t, false)

	rec := env.do(http.MethodPost, "/api/generate-upload-url", validIssue)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decode(t, rec)
	assert.Equal(t, true, body["success"])
	data := body["data"].(map[string]any)
	assert.Equal(t, "rules_upload_pdf/jane_doe_Q3_1700000000", data["public_id"])
	assert.Equal(t, "demo", data["cloudName"])
	assert.Equal(t, "raw", data["resource_type"])
	assert.Equal(t, float64(1700000000), data["timestamp"])

	assert.Equal(t, models.ActionClear, env.uploads.issueReq.Action)
	assert.Equal(t, models.CategoryRulesUpload, env.uploads.issueReq.Category)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestGenerateUploadURL_ValidationFailed(t *testing.T) {
	env := newTestEnv(t, false)

	rec := env.do(http.MethodPost, "/api/generate-upload-url",
		`{"filename":"","category":"images","userId":"u-1","userEmail":"nope","action":"purge"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Validation failed", body["message"])

	fields := map[string]bool{}
	for _, e := range body["errors"].([]any) {
		fields[e.(map[string]any)["field"].(string)] = true
	}
	assert.Equal(t, map[string]bool{"filename": true, "category": true, "userEmail": true, "action": true}, fields)
	assert.Empty(t, env.uploads.issueReq.Filename)
}

func TestGenerateUploadURL_MalformedJSON(t *testing.T) {
	env := newTestEnv(t, false)

	rec := env.do(http.MethodPost, "/api/generate-upload-url", `{"filename":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Validation failed", decode(t, rec)["message"])
}

func TestGenerateUploadURL_ClearFailure(t *testing.T) {
	env := newTestEnv(t, true)
	env.uploads.issueErr = &common.ClearFailureError{Stages: []string{"rag_rules"}, Err: errors.New("pq: permission denied")}

	rec := env.do(http.MethodPost, "/api/generate-upload-url", validIssue)
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, "Failed to clear existing records", body["message"])
	assert.NotContains(t, body, "error")
	assert.NotContains(t, body, "data")
}

func TestErrorDetailOnlyOutsideProduction(t *testing.T) {
	dev := newTestEnv(t, false)
	dev.uploads.issueErr = &common.UpstreamError{Service: "datastore", Err: errors.New("connection refused")}
	body := decode(t, dev.do(http.MethodPost, "/api/generate-upload-url", validIssue))
	assert.Equal(t, "Failed to generate signed upload URL", body["message"])
	assert.Equal(t, "datastore: connection refused", body["error"])

	prod := newTestEnv(t, true)
	prod.uploads.issueErr = dev.uploads.issueErr
	body = decode(t, prod.do(http.MethodPost, "/api/generate-upload-url", validIssue))
	assert.NotContains(t, body, "error")
}

func TestSaveFile(t *testing.T) {
	env := newTestEnv(t, false)

	rec := env.do(http.MethodPost, "/api/save-file", `{
		"userId":"u-1","category":"rules_upload_pdf","original_filename":"Q3.pdf",
		"cloudinary_url":"https://res.cloudinary.com/demo/raw/upload/k","cloudinary_public_id":"k","file_size":2048}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	data := decode(t, rec)["data"].(map[string]any)
	assert.Equal(t, "k", data["stored_filename"])
	assert.Equal(t, "completed", data["upload_status"])
	assert.Equal(t, "2025-01-02T03:04:05Z", data["created_at"])
	assert.Equal(t, int64(2048), env.uploads.saved.FileSize)
}

func TestSaveFile_Errors(t *testing.T) {
	env := newTestEnv(t, false)

	rec := env.do(http.MethodPost, "/api/save-file", `{"userId":"u-1","category":"rules_upload_pdf","original_filename":"a","cloudinary_url":"not a url","cloudinary_public_id":"k","file_size":0}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	env.uploads.saveErr = common.ErrAlreadyExists
	rec = env.do(http.MethodPost, "/api/save-file", `{"userId":"u-1","category":"rules_upload_pdf","original_filename":"a","cloudinary_url":"https://x.io/a","cloudinary_public_id":"k"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Record already exists", decode(t, rec)["message"])
}

func TestListFiles_StatusFilter(t *testing.T) {
	env := newTestEnv(t, false)
	newer := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	env.uploads.records = []*models.UploadRecord{
		{ID: "b", UserID: "u-1", UploadStatus: models.StatusCompleted, CreatedAt: newer},
		{ID: "x", UserID: "u-1", UploadStatus: models.StatusFailed, CreatedAt: newer.Add(-time.Hour)},
		{ID: "a", UserID: "u-1", UploadStatus: models.StatusCompleted, CreatedAt: newer.Add(-24 * time.Hour)},
	}

	rec := env.do(http.MethodGet, "/api/files?userId=u-1&status=completed", "")
	require.Equal(t, http.StatusOK, rec.Code)

	data := decode(t, rec)["data"].([]any)
	require.Len(t, data, 2)
	assert.Equal(t, "b", data[0].(map[string]any)["id"])
	assert.Equal(t, "a", data[1].(map[string]any)["id"])
	assert.Equal(t, models.StatusCompleted, env.uploads.filter.Status)
}

func TestListFiles_MissingUser(t *testing.T) {
	env := newTestEnv(t, false)

	rec := env.do(http.MethodGet, "/api/files", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "User ID is required", decode(t, rec)["message"])
}

func TestDeleteFile(t *testing.T) {
	env := newTestEnv(t, false)
	id := "0d9c2f5e-8a8b-4b59-9d8e-8f3a8d1c2b11"

	rec := env.do(http.MethodDelete, "/api/files/"+id, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, id, env.uploads.deletedID)

	env.uploads.deleteErr = common.ErrorNotFound
	rec = env.do(http.MethodDelete, "/api/files/"+id, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(http.MethodDelete, "/api/files/not-a-uuid", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCampaigns(t *testing.T) {
	env := newTestEnv(t, false)
	env.campaigns.body = []byte(`{"campaigns":[{"id":1,"name":"a"}]}`)

	rec := env.do(http.MethodGet, "/api/campaigns", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"id":1,"name":"a"}]`, rec.Body.String())

	env.campaigns.body = nil
	rec = env.do(http.MethodGet, "/api/campaigns", "")
	assert.JSONEq(t, `[]`, rec.Body.String())

	env.campaigns.err = common.ErrWebhookNotSet
	rec = env.do(http.MethodGet, "/api/campaigns", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Campaign webhook URL not configured", decode(t, rec)["message"])
}

func TestNotFound(t *testing.T) {
	env := newTestEnv(t, false)

	rec := env.do(http.MethodGet, "/api/nope?x=1", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Route /api/nope?x=1 not found", body["message"])
}

func TestHealthAndMetrics(t *testing.T) {
	env := newTestEnv(t, false)

	rec := env.do(http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "OK", body["status"])
	services := body["services"].(map[string]any)
	assert.Equal(t, "Configured", services["datastore"])
	assert.Equal(t, "Not configured", services["media_store"])

	rec = env.do(http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequestIDPropagation(t *testing.T) {
	env := newTestEnv(t, false)
	id := "5b1f7c1e-3f57-4a43-9d55-2b7f0f7b9a10"

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", id)
	rec := httptest.NewRecorder()
	env.engine.ServeHTTP(rec, req)
	assert.Equal(t, id, rec.Header().Get("X-Request-ID"))

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "bad\nvalue")
	rec = httptest.NewRecorder()
	env.engine.ServeHTTP(rec, req)
	assert.False(t, strings.Contains(rec.Header().Get("X-Request-ID"), "bad"))
}

func TestCORSPreflight(t *testing.T) {
	env := newTestEnv(t, false)

	req := httptest.NewRequest(http.MethodOptions, "/api/files", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "GET")
	rec := httptest.NewRecorder()
	env.engine.ServeHTTP(rec, req)

	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
}
