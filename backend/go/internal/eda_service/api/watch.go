package api

import (
	"net/http"
	"time"

	"autoeda/backend/go/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// watchInterval 是推送任务状态时的轮询间隔。
var watchInterval = time.Second

func newUpgrader(origins []string) websocket.Upgrader {
	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		allowed[o] = struct{}{}
	}
	return websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			_, ok := allowed[origin]
			return ok
		},
	}
}

// WatchJob 通过 WebSocket 推送任务状态，每次状态变化发送一条与 GET /jobs/:id 相同的消息，任务结束后关闭连接。
func (h *Handler) WatchJob(c *gin.Context) {
	id := c.Param("id")
	view, err := h.service.GetJob(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade 已经写回了错误响应
		return
	}
	defer conn.Close()

	// 读取循环只用于感知客户端断开
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(watchInterval)
	defer ticker.Stop()

	var last models.JobStatus
	for {
		if view.Status != last {
			if err := conn.WriteJSON(jobBody(view)); err != nil {
				return
			}
			last = view.Status
		}
		if view.Status.Terminal() {
			_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "job done"))
			return
		}
		select {
		case <-gone:
			return
		case <-c.Request.Context().Done():
			return
		case <-ticker.C:
		}
		if view, err = h.service.GetJob(c.Request.Context(), id); err != nil {
			_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseInternalServerErr, err.Error()))
			return
		}
	}
}
