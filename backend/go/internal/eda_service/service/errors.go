package service

import "errors"

// 业务错误。API 层用 errors.Is 把它们映射到 HTTP 状态码和响应消息。
var (
	ErrDatasetNotFound    = errors.New("dataset not found")
	ErrReportNotFound     = errors.New("report not found")
	ErrJobNotFound        = errors.New("job not found")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenExpired       = errors.New("token has expired")
	ErrInvalidToken       = errors.New("invalid token")
	ErrUserNotFound       = errors.New("user not found")
	ErrFileTooLarge       = errors.New("file too large")
	ErrUnsupportedType    = errors.New("unsupported file type")
	ErrParseFailed        = errors.New("failed to parse file")
	ErrPasswordTooLong    = errors.New("password must be at most 72 bytes")
)

// detailError 携带面向用户的完整消息，同时可以用 errors.Is 匹配其类别。
type detailError struct {
	kind error
	msg  string
}

func (e *detailError) Error() string { return e.msg }

func (e *detailError) Unwrap() error { return e.kind }
