// Package web_ui 提供面向浏览器的轻量页面，所有数据都通过 HTTP 调用 API 获得。
package web_ui

import (
	"bytes"
	"context"
	"errors"
	"html/template"
	"io"
	"net/http"
	"path"
	"time"

	"autoeda/backend/go/pkg/httpmiddleware"
	"autoeda/backend/go/pkg/logger"

	"github.com/gin-gonic/gin"
)

const (
	// SampleDatasetID 是首页运行的示例数据集。
	SampleDatasetID = "sample_dataset"
	// SyncJobID 表示 API 已同步执行完毕。
	SyncJobID = "sync"
)

const pptxContentType = "application/vnd.openxmlformats-officedocument.presentationml.presentation"

// UI 持有页面模板和 API 客户端。
type UI struct {
	api   *APIClient
	pages map[string]*template.Template
	log   *logger.Logger
}

func New(api *APIClient, log *logger.Logger) *UI {
	return &UI{api: api, pages: pageTemplates(), log: log}
}

// Router 返回 UI 的 gin 引擎。
func (u *UI) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), httpmiddleware.RequestID(), httpmiddleware.AccessLog(u.log))

	r.GET("/", u.Home)
	r.POST("/run", u.Run)
	r.GET("/reports", u.Reports)
	r.GET("/download/:name", u.Download)
	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	return r
}

func (u *UI) render(c *gin.Context, page string, data gin.H) {
	data["APIURL"] = u.api.BaseURL()
	var buf bytes.Buffer
	if err := u.pages[page].Execute(&buf, data); err != nil {
		u.log.WithPayload(map[string]interface{}{"page": page}).Error("render failed: " + err.Error())
		c.String(http.StatusInternalServerError, "render failed")
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

// Home 展示示例数据集状态和运行按钮。
func (u *UI) Home(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	data := gin.H{"Title": "Auto EDA & Storytelling", "SampleID": SampleDatasetID}
	items, err := u.api.ListDatasets(ctx)
	if err != nil {
		data["Unreachable"] = true
		u.log.Warn("list datasets failed: " + err.Error())
	} else {
		found := false
		for _, it := range items {
			if it.DatasetID == SampleDatasetID {
				found = true
				break
			}
		}
		data["SampleMissing"] = !found
	}
	u.render(c, "home", data)
}

// Run 调用 POST /jobs/run 并展示结果。
func (u *UI) Run(c *gin.Context) {
	data := gin.H{"Title": "Run"}
	res, err := u.api.RunJob(c.Request.Context(), SampleDatasetID)
	if err != nil {
		data["Error"] = errorText(err)
		u.render(c, "run", data)
		return
	}
	switch {
	case res.JobID != SyncJobID:
		data["Queued"] = res.JobID
	case res.Result != nil && res.Result.PptxPath != nil && *res.Result.PptxPath != "":
		data["Report"] = path.Base(*res.Result.PptxPath)
	default:
		data["Finished"] = true
		if res.Result != nil && res.Result.Error != nil {
			data["PipelineError"] = res.Result.Error.Message
		}
	}
	u.render(c, "run", data)
}

// Reports 列出已生成的报告。
func (u *UI) Reports(c *gin.Context) {
	data := gin.H{"Title": "Reports"}
	items, err := u.api.ListReports(c.Request.Context())
	if err != nil {
		data["Error"] = errorText(err)
	} else {
		data["Reports"] = items
	}
	u.render(c, "reports", data)
}

// Download 把 API 的报告内容转发给浏览器。
func (u *UI) Download(c *gin.Context) {
	name := c.Param("name")
	body, err := u.api.DownloadReport(c.Request.Context(), name)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			c.String(apiErr.Code, apiErr.Error())
			return
		}
		c.String(http.StatusBadGateway, err.Error())
		return
	}
	defer body.Close()
	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.Header("Content-Type", pptxContentType)
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, body); err != nil {
		u.log.Warn("proxy download interrupted: " + err.Error())
	}
}

func errorText(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Error()
	}
	return "API not reachable: " + err.Error()
}
