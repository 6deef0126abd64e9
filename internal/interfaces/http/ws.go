package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	gorillaws "github.com/gorilla/websocket"

	"github.com/toheart/courseagent/internal/infrastructure/websocket"
)

const (
	// 写超时
	wsWriteWait = 10 * time.Second
	// 心跳间隔，必须小于 pongWait
	wsPingPeriod = 54 * time.Second
	// 读超时
	wsPongWait = 60 * time.Second
)

var wsUpgrader = gorillaws.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// 本地服务，不校验来源
	CheckOrigin: func(r *http.Request) bool { return true },
}

// serveWS 课程事件订阅端点
// 客户端连接 /ws/:course 后持续收到该课程的索引构建和文件变更通知
func (s *HTTPServer) serveWS(c *gin.Context) {
	course := c.Param("course")

	ws, err := wsUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed",
			"course", course,
			"error", err,
		)
		return
	}

	conn := &websocket.Connection{
		Course: course,
		Send:   make(chan []byte, 16),
	}
	s.hub.Register(conn)

	go s.writePump(ws, conn)
	go s.readPump(ws, conn)
}

// writePump 把 Hub 分发的消息写到连接上，并定期发送心跳
func (s *HTTPServer) writePump(ws *gorillaws.Conn, conn *websocket.Connection) {
	ticker := time.NewTicker(wsPingPeriod)
	defer func() {
		ticker.Stop()
		_ = ws.Close()
	}()

	for {
		select {
		case data, ok := <-conn.Send:
			_ = ws.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if !ok {
				// Hub 关闭了通道
				_ = ws.WriteMessage(gorillaws.CloseMessage, []byte{})
				return
			}
			if err := ws.WriteMessage(gorillaws.TextMessage, data); err != nil {
				return
			}

		case <-ticker.C:
			_ = ws.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := ws.WriteMessage(gorillaws.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump 只消费控制帧，客户端断开时注销连接
func (s *HTTPServer) readPump(ws *gorillaws.Conn, conn *websocket.Connection) {
	defer func() {
		s.hub.Unregister(conn)
		_ = ws.Close()
	}()

	ws.SetReadLimit(512)
	_ = ws.SetReadDeadline(time.Now().Add(wsPongWait))
	ws.SetPongHandler(func(string) error {
		_ = ws.SetReadDeadline(time.Now().Add(wsPongWait))
		return nil
	})

	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			return
		}
	}
}
