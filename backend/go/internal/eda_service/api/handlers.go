package api

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"

	"autoeda/backend/go/internal/eda_service/service"
	"autoeda/backend/go/internal/pipeline"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/websocket"
)

// pptxContentType 是 PPTX 的 MIME 类型。
const pptxContentType = "application/vnd.openxmlformats-officedocument.presentationml.presentation"

// Handler 封装了所有 API endpoint 的处理函数。
type Handler struct {
	service   *service.Service
	staticDir string
	upgrader  websocket.Upgrader
}

// NewHandler 创建一个新的 Handler 实例。origins 用于校验 WebSocket 握手的 Origin。
func NewHandler(s *service.Service, staticDir string, origins []string) *Handler {
	return &Handler{service: s, staticDir: staticDir, upgrader: newUpgrader(origins)}
}

// --- Health ---

func (h *Handler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.Info())
}

func (h *Handler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handler) Readyz(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.Ready(c.Request.Context()))
}

// Favicon 提供 static/favicon.ico。
func (h *Handler) Favicon(c *gin.Context) {
	path := filepath.Join(h.staticDir, "favicon.ico")
	if _, err := os.Stat(path); err != nil {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Not Found"})
		return
	}
	c.Header("Content-Type", "image/x-icon")
	c.File(path)
}

// --- Auth ---

// CredentialsRequest 定义了注册和登录请求的 JSON 结构。
type CredentialsRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RegisterRequest 在 CredentialsRequest 的基础上要求密码为 8 到 72 位，bcrypt 只接受 72 字节以内的输入。
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8,max=72"`
}

type userOut struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Register 处理注册请求。
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationFailed(c, err)
		return
	}
	user, err := h.service.Register(req.Email, req.Password)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, userOut{ID: user.ID, Email: user.Email})
}

// Login 处理登录请求。
func (h *Handler) Login(c *gin.Context) {
	var req CredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationFailed(c, err)
		return
	}
	token, err := h.service.Login(req.Email, req.Password)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"access_token": token, "token_type": "bearer"})
}

// Me 返回当前登录用户。
func (h *Handler) Me(c *gin.Context) {
	user := currentUser(c)
	c.JSON(http.StatusOK, userOut{ID: user.ID, Email: user.Email})
}

// --- Datasets ---

func (h *Handler) ListDatasets(c *gin.Context) {
	list, err := h.service.ListDatasets()
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// UploadDataset 处理 multipart 上传，字段名为 file。
func (h *Handler) UploadDataset(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		validationFailed(c, fmt.Errorf("file: %w", err))
		return
	}
	f, err := fh.Open()
	if err != nil {
		abortWithError(c, err)
		return
	}
	defer f.Close()

	up := service.Upload{Filename: fh.Filename, Size: fh.Size, Body: f}
	if u := currentUser(c); u != nil {
		up.UserID = &u.ID
	}
	res, err := h.service.UploadDataset(c.Request.Context(), up)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) GetDataset(c *gin.Context) {
	ds, err := h.service.GetDataset(c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, ds)
}

func (h *Handler) DeleteDataset(c *gin.Context) {
	if err := h.service.DeleteDataset(c.Param("id")); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": c.Param("id")})
}

// --- Jobs ---

// RunJobQuery 是 POST /jobs/run 的查询参数。
type RunJobQuery struct {
	DatasetID string `form:"dataset_id" binding:"required"`
	Theme     string `form:"theme"`
	Color     string `form:"color"`
}

// RunJob 同步执行或入队一个任务。
func (h *Handler) RunJob(c *gin.Context) {
	var q RunJobQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		validationFailed(c, err)
		return
	}
	resp, err := h.service.RunJob(c.Request.Context(), q.DatasetID, pipeline.Options{Theme: q.Theme, Color: q.Color})
	if err != nil {
		if errors.Is(err, service.ErrDatasetNotFound) {
			abortWithError(c, err)
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Pipeline failed: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, resp)
}

// RedirectRunJob 把旧路径 /job/run 重定向到 /jobs/run，保留方法与请求体。
func (h *Handler) RedirectRunJob(c *gin.Context) {
	c.Redirect(http.StatusTemporaryRedirect, "/jobs/run?dataset_id="+url.QueryEscape(c.Query("dataset_id")))
}

func (h *Handler) GetJob(c *gin.Context) {
	view, err := h.service.GetJob(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, jobBody(view))
}

// jobBody 是 GET /jobs/:id 与 /jobs/:id/watch 共用的响应体，时间字段未设置时为 null。
func jobBody(view *service.JobView) gin.H {
	if view.ID == service.SyncJobID {
		return gin.H{"id": view.ID, "status": view.Status, "result": nil}
	}
	return gin.H{
		"id":          view.ID,
		"status":      view.Status,
		"result":      view.Result,
		"enqueued_at": view.EnqueuedAt,
		"ended_at":    view.EndedAt,
	}
}

// --- Reports ---

func (h *Handler) ListReports(c *gin.Context) {
	list, err := h.service.ListReports()
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// DownloadReport 以附件形式返回报告文件。
func (h *Handler) DownloadReport(c *gin.Context) {
	name := c.Param("filename")
	path, err := h.service.ReportPath(c.Request.Context(), name)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.Header("Content-Type", pptxContentType)
	c.FileAttachment(path, filepath.Base(path))
}

// validationDetails 把 validator 错误整理成字段列表。
func validationDetails(err error) []gin.H {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return []gin.H{{"msg": err.Error()}}
	}
	out := make([]gin.H, 0, len(ve))
	for _, fe := range ve {
		out = append(out, gin.H{"field": fe.Field(), "tag": fe.Tag(), "msg": fe.Error()})
	}
	return out
}
