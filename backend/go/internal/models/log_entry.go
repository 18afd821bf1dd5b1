package models

// RequestInfo 是访问日志中记录的请求字段，由 logger.WithRequest 展开。
type RequestInfo struct {
	Method     string `json:"method"`
	Path       string `json:"path"`
	RemoteAddr string `json:"remote_addr"`
	UserAgent  string `json:"user_agent"`
	Status     int    `json:"status,omitempty"`
	LatencyMs  int64  `json:"latency_ms,omitempty"`
}

// ErrorInfo 是日志中的错误字段。
type ErrorInfo struct {
	Message    string `json:"message"`
	Stack      string `json:"stack,omitempty"`
	Type       string `json:"type,omitempty"` // 例如 "database_error", "validation_error", "pipeline_error"
	StatusCode int    `json:"status_code,omitempty"`
}
