package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"autoeda/backend/go/internal/config"
	"autoeda/backend/go/internal/database"
	"autoeda/backend/go/internal/eda"
	"autoeda/backend/go/internal/eda_service/service"
	"autoeda/backend/go/internal/eda_service/store"
	"autoeda/backend/go/internal/narrative"
	"autoeda/backend/go/internal/pipeline"
	"autoeda/backend/go/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCSV = "x,y,city\n1,2,a\n2,4,b\n3,6,a\n4,8,c\n"

type fileRenderer struct{}

func (fileRenderer) Build(res *eda.Result, _ narrative.Narrative, reportsDir, theme, _ string) (string, error) {
	name := "report_" + res.DatasetID + "_" + theme + ".pptx"
	return name, os.WriteFile(filepath.Join(reportsDir, name), []byte("PK-pptx"), 0o644)
}

type testAPI struct {
	router http.Handler
	root   string
	jobs   store.JobStore
}

func newTestAPI(t *testing.T, withDB bool) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger.InitWithOutput(logrus.ErrorLevel, io.Discard)
	log := logger.New("api_test", "", "")

	cfg := config.Default()
	root := t.TempDir()
	cfg.Storage.Dir = root
	d := service.Deps{
		Config:   cfg,
		Files:    store.NewFileStore(root, nil),
		Pipeline: pipeline.New(eda.NewRunner(root, eda.Options{}, 0), narrative.NewGenerator(cfg.Narrative, log), fileRenderer{}),
		Logger:   log,
	}
	if withDB {
		db, err := database.Open(&config.DatabaseConfig{Driver: "sqlite", DSN: "file::memory:"})
		require.NoError(t, err)
		d.DB = db
		d.Jobs = store.NewSQLJobStore(db)
	}
	static := filepath.Join(root, "static")
	require.NoError(t, os.MkdirAll(static, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(static, "favicon.ico"), []byte{0, 0, 1, 0}, 0o644))

	h := NewHandler(service.NewService(d), static, cfg.CORS.AllowedOrigins())
	return &testAPI{router: SetupRouter(h, cfg, log), root: root, jobs: d.Jobs}
}

func (a *testAPI) do(t *testing.T, method, path string, body io.Reader, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func (a *testAPI) json(t *testing.T, method, path string, payload any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	if headers == nil {
		headers = map[string]string{}
	}
	headers["Content-Type"] = "application/json"
	return a.do(t, method, path, bytes.NewReader(data), headers)
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func upload(t *testing.T, a *testAPI, filename, body string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write([]byte(body))
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return a.do(t, http.MethodPost, "/datasets/upload", &buf, map[string]string{"Content-Type": mw.FormDataContentType()})
}

func TestHealthEndpoints(t *testing.T) {
	a := newTestAPI(t, true)

	w := a.do(t, http.MethodGet, "/", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, map[string]any{"app": "Auto EDA & Storytelling", "version": "0.1.0", "env": "dev", "status": "ok"}, decode(t, w))

	w = a.do(t, http.MethodGet, "/healthz", nil, nil)
	assert.JSONEq(t, `{"ok":true}`, w.Body.String())

	w = a.do(t, http.MethodGet, "/readyz", nil, nil)
	assert.JSONEq(t, `{"ready":true,"details":{"db":true,"queue":false,"storage":true}}`, w.Body.String())

	w = a.do(t, http.MethodGet, "/favicon.ico", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/x-icon", w.Header().Get("Content-Type"))

	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestReadyzWithoutDB(t *testing.T) {
	a := newTestAPI(t, false)
	w := a.do(t, http.MethodGet, "/readyz", nil, nil)
	assert.JSONEq(t, `{"ready":false,"details":{"db":false,"queue":false,"storage":true}}`, w.Body.String())

	w = a.json(t, http.MethodPost, "/auth/login", map[string]string{"email": "a@example.com", "password": "x"}, nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "Database unavailable", decode(t, w)["error"])
}

func TestRegisterRejectsOverlongPassword(t *testing.T) {
	a := newTestAPI(t, true)

	w := a.json(t, http.MethodPost, "/auth/register", map[string]string{"email": "long@example.com", "password": strings.Repeat("p", 73)}, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "Validation failed", decode(t, w)["error"])

	// 40 个两字节字符通过 max=72 的字符计数，但有 80 字节
	w = a.json(t, http.MethodPost, "/auth/register", map[string]string{"email": "long@example.com", "password": strings.Repeat("é", 40)}, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "Password must be at most 72 bytes", decode(t, w)["error"])

	w = a.json(t, http.MethodPost, "/auth/register", map[string]string{"email": "long@example.com", "password": strings.Repeat("p", 72)}, nil)
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestAuthFlow(t *testing.T) {
	a := newTestAPI(t, true)

	w := a.json(t, http.MethodPost, "/auth/register", map[string]string{"email": "a@example.com", "password": "short"}, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "Validation failed", decode(t, w)["error"])

	w = a.json(t, http.MethodPost, "/auth/register", map[string]string{"email": "not-an-email", "password": "password1"}, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = a.json(t, http.MethodPost, "/auth/register", map[string]string{"email": "a@example.com", "password": "password1"}, nil)
	require.Equal(t, http.StatusCreated, w.Code)
	user := decode(t, w)
	assert.Equal(t, "a@example.com", user["email"])

	w = a.json(t, http.MethodPost, "/auth/register", map[string]string{"email": "a@example.com", "password": "password1"}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Email already registered", decode(t, w)["error"])

	w = a.json(t, http.MethodPost, "/auth/login", map[string]string{"email": "a@example.com", "password": "wrong-pass"}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Invalid credentials", decode(t, w)["error"])

	w = a.json(t, http.MethodPost, "/auth/login", map[string]string{"email": "a@example.com", "password": "password1"}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	tok := decode(t, w)
	assert.Equal(t, "bearer", tok["token_type"])

	w = a.do(t, http.MethodGet, "/auth/me", nil, map[string]string{"Authorization": "Bearer " + tok["access_token"].(string)})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, user["id"], decode(t, w)["id"])

	w = a.do(t, http.MethodGet, "/auth/me", nil, map[string]string{"Authorization": "Bearer garbage"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Invalid token.", decode(t, w)["error"])

	w = a.do(t, http.MethodGet, "/auth/me", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestDatasetEndpoints(t *testing.T) {
	a := newTestAPI(t, true)

	w := upload(t, a, "sales.csv", sampleCSV)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	res := decode(t, w)
	id := res["dataset_id"].(string)
	assert.Equal(t, map[string]any{"rows": 4.0, "cols": 3.0}, res["meta"])

	w = a.do(t, http.MethodGet, "/datasets/", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, id, list[0]["dataset_id"])
	assert.Equal(t, ".csv", list[0]["ext"])

	w = a.do(t, http.MethodGet, "/datasets/"+id, nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "sales.csv", decode(t, w)["original_name"])

	w = upload(t, a, "notes.txt", "x")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Unsupported file type: .txt. Allowed: ['.csv', '.xlsx']", decode(t, w)["error"])

	w = upload(t, a, "empty.csv", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.True(t, strings.HasPrefix(decode(t, w)["error"].(string), "Failed to parse file:"))

	w = a.do(t, http.MethodPost, "/datasets/upload", nil, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = a.do(t, http.MethodDelete, "/datasets/"+id, nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = a.do(t, http.MethodDelete, "/datasets/"+id, nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Dataset not found", decode(t, w)["error"])
}

func TestJobAndReportEndpoints(t *testing.T) {
	a := newTestAPI(t, true)
	require.NoError(t, os.WriteFile(filepath.Join(a.root, "sample_dataset.csv"), []byte(sampleCSV), 0o644))

	w := a.do(t, http.MethodPost, "/jobs/run?dataset_id=missing", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Dataset not found", decode(t, w)["error"])

	w = a.do(t, http.MethodPost, "/jobs/run", nil, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = a.do(t, http.MethodPost, "/jobs/run?dataset_id=sample_dataset", nil, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	res := decode(t, w)
	assert.Equal(t, "sync", res["job_id"])
	assert.Equal(t, "finished", res["status"])
	result := res["result"].(map[string]any)
	assert.Equal(t, "report_sample_dataset_light.pptx", result["pptx_path"])
	assert.Len(t, result["logs"], 4)

	w = a.do(t, http.MethodPost, "/job/run?dataset_id=sample_dataset", nil, nil)
	assert.Equal(t, http.StatusTemporaryRedirect, w.Code)
	assert.Equal(t, "/jobs/run?dataset_id=sample_dataset", w.Header().Get("Location"))

	w = a.do(t, http.MethodGet, "/jobs/sync", nil, nil)
	assert.JSONEq(t, `{"id":"sync","status":"finished","result":null}`, w.Body.String())
	w = a.do(t, http.MethodGet, "/jobs/other", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Job not found", decode(t, w)["error"])

	w = a.do(t, http.MethodGet, "/reports", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var reports []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &reports))
	require.Len(t, reports, 1)
	assert.Equal(t, "report_sample_dataset_light.pptx", reports[0]["name"])
	assert.Contains(t, reports[0], "created_at")

	w = a.do(t, http.MethodGet, "/reports/download/report_sample_dataset_light.pptx", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, pptxContentType, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment")
	assert.Equal(t, "PK-pptx", w.Body.String())

	for _, bad := range []string{"sample_dataset.csv", "report_missing.pptx", "..%2Freport_x.pptx"} {
		w = a.do(t, http.MethodGet, "/reports/download/"+bad, nil, nil)
		assert.Equal(t, http.StatusNotFound, w.Code, bad)
	}
}

func TestCORSPreflight(t *testing.T) {
	a := newTestAPI(t, true)
	w := a.do(t, http.MethodOptions, "/jobs/run", nil, map[string]string{
		"Origin":                        "http://localhost:8501",
		"Access-Control-Request-Method": "POST",
	})
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:8501", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestErrorStatusDefault(t *testing.T) {
	status, msg := errorStatus(context.DeadlineExceeded)
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, context.DeadlineExceeded.Error(), msg)
}
