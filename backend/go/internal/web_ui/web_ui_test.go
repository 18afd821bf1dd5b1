package web_ui

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"autoeda/backend/go/internal/config"
	pkghttp "autoeda/backend/go/pkg/http"
	"autoeda/backend/go/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	datasets string
	reports  string
	run      func(c *gin.Context)
}

func (f *fakeAPI) server(t *testing.T) *httptest.Server {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/datasets/", func(c *gin.Context) { c.Data(http.StatusOK, "application/json", []byte(f.datasets)) })
	r.GET("/reports", func(c *gin.Context) { c.Data(http.StatusOK, "application/json", []byte(f.reports)) })
	r.POST("/jobs/run", func(c *gin.Context) { f.run(c) })
	r.GET("/reports/download/:name", func(c *gin.Context) {
		if c.Param("name") != "report_1.pptx" {
			c.JSON(http.StatusNotFound, gin.H{"error": "Report not found"})
			return
		}
		c.Data(http.StatusOK, pptxContentType, []byte("PK-deck"))
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func newUI(t *testing.T, base string) *gin.Engine {
	c, err := pkghttp.NewClient(config.CircuitBreakerConfig{}, 5*time.Second)
	require.NoError(t, err)
	return New(NewAPIClient(func() string { return base }, c), logger.New("web-ui-test", "", "")).Router()
}

func do(r http.Handler, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func TestHome(t *testing.T) {
	api := &fakeAPI{datasets: `[{"dataset_id":"other","path":"storage/other.csv","ext":".csv"}]`}
	r := newUI(t, api.server(t).URL)

	w := do(r, http.MethodGet, "/")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Run EDA &amp; Generate Slides for sample_dataset")
	assert.Contains(t, w.Body.String(), "not found in storage")

	api.datasets = `[{"dataset_id":"sample_dataset","path":"storage/sample_dataset.csv","ext":".csv"}]`
	w = do(r, http.MethodGet, "/")
	assert.NotContains(t, w.Body.String(), "not found in storage")
}

func TestHomeAPIUnreachable(t *testing.T) {
	r := newUI(t, "http://127.0.0.1:1")
	w := do(r, http.MethodGet, "/")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "API is not reachable yet")
}

func TestRun(t *testing.T) {
	api := &fakeAPI{}
	r := newUI(t, api.server(t).URL)

	api.run = func(c *gin.Context) {
		assert.Equal(t, SampleDatasetID, c.Query("dataset_id"))
		c.JSON(http.StatusOK, gin.H{"job_id": "sync", "status": "finished", "result": gin.H{"pptx_path": "report_1.pptx", "logs": []string{}, "error": nil}})
	}
	w := do(r, http.MethodPost, "/run")
	assert.Contains(t, w.Body.String(), "Report ready!")
	assert.Contains(t, w.Body.String(), `href="/download/report_1.pptx"`)

	api.run = func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"job_id": "sync", "status": "finished", "result": gin.H{"pptx_path": nil, "error": gin.H{"message": "boom"}}})
	}
	w = do(r, http.MethodPost, "/run")
	assert.Contains(t, w.Body.String(), "no pptx_path returned")
	assert.Contains(t, w.Body.String(), "boom")

	api.run = func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"job_id": "j-1", "status": "queued", "dataset_path": "storage/sample_dataset.csv"})
	}
	w = do(r, http.MethodPost, "/run")
	assert.Contains(t, w.Body.String(), "Queued job: j-1")

	api.run = func(c *gin.Context) { c.JSON(http.StatusNotFound, gin.H{"error": "Dataset not found"}) }
	w = do(r, http.MethodPost, "/run")
	assert.Contains(t, w.Body.String(), "API error: 404")
	assert.Contains(t, w.Body.String(), "Dataset not found")
}

func TestReports(t *testing.T) {
	api := &fakeAPI{reports: `[]`}
	r := newUI(t, api.server(t).URL)

	w := do(r, http.MethodGet, "/reports")
	assert.Contains(t, w.Body.String(), "No report yet. Generate one from the Home page.")

	api.reports = `[{"name":"report_1.pptx","path":"storage/reports/report_1.pptx","size":2048,"created_at":"2026-01-02T03:04:05Z"}]`
	w = do(r, http.MethodGet, "/reports")
	assert.Contains(t, w.Body.String(), "report_1.pptx — 2048 bytes")
	assert.Contains(t, w.Body.String(), `href="/download/report_1.pptx"`)
}

func TestDownloadProxy(t *testing.T) {
	api := &fakeAPI{}
	r := newUI(t, api.server(t).URL)

	w := do(r, http.MethodGet, "/download/report_1.pptx")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, pptxContentType, w.Header().Get("Content-Type"))
	body, _ := io.ReadAll(w.Body)
	assert.Equal(t, "PK-deck", string(body))

	w = do(r, http.MethodGet, "/download/"+url.PathEscape("missing.pptx"))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "Report not found"))
}
