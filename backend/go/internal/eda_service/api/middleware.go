package api

import (
	"errors"
	"net/http"

	"autoeda/backend/go/internal/database"
	"autoeda/backend/go/internal/eda_service/service"
	"autoeda/backend/go/internal/models"
	"autoeda/backend/go/pkg/httpmiddleware"

	"github.com/gin-gonic/gin"
)

const userKey = "user"

// RequireDB 在数据库不可用时直接返回 503。
func RequireDB(s *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.DBAvailable() {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "Database unavailable"})
			return
		}
		c.Next()
	}
}

// AuthMiddleware 创建一个 Gin 中间件，用于验证 JWT 并加载当前用户。
func AuthMiddleware(s *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := httpmiddleware.BearerToken(c)
		if !ok {
			c.Header("WWW-Authenticate", "Bearer")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
			return
		}
		user, err := s.CurrentUser(token)
		if err != nil {
			status, msg := errorStatus(err)
			c.AbortWithStatusJSON(status, gin.H{"error": msg})
			return
		}
		c.Set(userKey, user)
		c.Next()
	}
}

// OptionalUser 在携带有效令牌时记录当前用户，否则不做处理。
func OptionalUser(s *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token, ok := httpmiddleware.BearerToken(c); ok && s.DBAvailable() {
			if user, err := s.CurrentUser(token); err == nil {
				c.Set(userKey, user)
			}
		}
		c.Next()
	}
}

func currentUser(c *gin.Context) *models.User {
	if v, ok := c.Get(userKey); ok {
		if u, ok := v.(*models.User); ok {
			return u
		}
	}
	return nil
}

// errorStatus 把业务错误映射到 HTTP 状态码与响应消息。
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, database.ErrUnavailable):
		return http.StatusServiceUnavailable, "Database unavailable"
	case errors.Is(err, service.ErrDatasetNotFound):
		return http.StatusNotFound, "Dataset not found"
	case errors.Is(err, service.ErrReportNotFound):
		return http.StatusNotFound, "Report not found"
	case errors.Is(err, service.ErrJobNotFound):
		return http.StatusNotFound, "Job not found"
	case errors.Is(err, service.ErrEmailTaken):
		return http.StatusBadRequest, "Email already registered"
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized, "Invalid credentials"
	case errors.Is(err, service.ErrTokenExpired):
		return http.StatusUnauthorized, "Token has expired."
	case errors.Is(err, service.ErrInvalidToken):
		return http.StatusUnauthorized, "Invalid token."
	case errors.Is(err, service.ErrUserNotFound):
		return http.StatusUnauthorized, "User not found"
	case errors.Is(err, service.ErrPasswordTooLong):
		return http.StatusUnprocessableEntity, "Password must be at most 72 bytes"
	case errors.Is(err, service.ErrUnsupportedType),
		errors.Is(err, service.ErrFileTooLarge),
		errors.Is(err, service.ErrParseFailed):
		return http.StatusBadRequest, err.Error()
	default:
		return http.StatusInternalServerError, err.Error()
	}
}

func abortWithError(c *gin.Context, err error) {
	status, msg := errorStatus(err)
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}

// validationFailed 对应请求体校验失败，返回 422。
func validationFailed(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{"error": "Validation failed", "details": validationDetails(err)})
}
