package api

import (
	"os"

	"autoeda/backend/go/internal/config"
	"autoeda/backend/go/pkg/httpmiddleware"
	"autoeda/backend/go/pkg/logger"

	"github.com/gin-gonic/gin"
)

// SetupRouter 配置和返回一个 Gin 引擎实例。extra 是在路由之前注册的中间件（限流、熔断）。
func SetupRouter(h *Handler, cfg *config.AppConfig, log *logger.Logger, extra ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), httpmiddleware.RequestID(), httpmiddleware.AccessLog(log), httpmiddleware.CORS(cfg.CORS.AllowedOrigins()))
	r.Use(extra...)
	r.RedirectTrailingSlash = true

	r.GET("/", h.Root)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)
	r.GET("/favicon.ico", h.Favicon)
	if fi, err := os.Stat(h.staticDir); err == nil && fi.IsDir() {
		r.Static("/static", h.staticDir)
	}

	requireDB := RequireDB(h.service)

	auth := r.Group("/auth", requireDB)
	{
		auth.POST("/register", h.Register)
		auth.POST("/login", h.Login)
		auth.GET("/me", AuthMiddleware(h.service), h.Me)
	}

	datasets := r.Group("/datasets")
	{
		datasets.GET("/", h.ListDatasets)
		datasets.POST("/upload", OptionalUser(h.service), h.UploadDataset)
		datasets.GET("/:id", h.GetDataset)
		datasets.DELETE("/:id", h.DeleteDataset)
	}

	jobs := r.Group("/jobs")
	{
		jobs.POST("/run", h.RunJob)
		jobs.GET("/:id", h.GetJob)
		jobs.GET("/:id/watch", h.WatchJob)
	}
	r.POST("/job/run", h.RedirectRunJob)

	reports := r.Group("/reports")
	{
		reports.GET("", h.ListReports)
		reports.GET("/download/:filename", h.DownloadReport)
	}

	return r
}
