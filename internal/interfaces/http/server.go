// Package http HTTP 服务入口
package http

import (
	"context"
	"net/http"
	"time"

	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/toheart/courseagent/internal/domain/events"
	"github.com/toheart/courseagent/internal/infrastructure/config"
	"github.com/toheart/courseagent/internal/infrastructure/log"
	"github.com/toheart/courseagent/internal/infrastructure/websocket"
	"github.com/toheart/courseagent/internal/interfaces/http/handler"
	"github.com/toheart/courseagent/internal/interfaces/http/middleware"
	"github.com/toheart/courseagent/internal/interfaces/mcp"
)

// HTTPServer HTTP 服务器
type HTTPServer struct {
	router   *gin.Engine
	httpPort string
	server   *http.Server
	hub      *websocket.Hub
	eventBus events.EventBus
	logger   *slog.Logger
}

// NewServer 创建 HTTP 服务器
func NewServer(
	workspaceHandler *handler.WorkspaceHandler,
	chatHandler *handler.ChatHandler,
	recordsHandler *handler.RecordsHandler,
	mcpServer *mcp.MCPServer,
	hub *websocket.Hub,
	eventBus events.EventBus,
	serverCfg *config.ServerConfig,
) *HTTPServer {
	router := gin.Default()
	router.Use(middleware.EnsureUTF8Body())

	logger := log.NewModuleLogger("http", "server")

	// 注册路由
	api := router.Group("/api/v1")
	{
		// 课程工作区
		api.POST("/courses", workspaceHandler.Create)
		api.GET("/courses", workspaceHandler.List)
		api.GET("/courses/:course", workspaceHandler.Get)
		api.DELETE("/courses/:course", workspaceHandler.Delete)
		api.POST("/courses/:course/documents", workspaceHandler.Upload)
		api.DELETE("/courses/:course/documents/:doc", workspaceHandler.RemoveDocument)
		api.POST("/courses/:course/rescan", workspaceHandler.Rescan)
		api.POST("/courses/:course/index", workspaceHandler.BuildIndex)
		api.DELETE("/courses/:course/index", workspaceHandler.DeleteIndex)

		// 对话
		api.POST("/chat", chatHandler.Chat)
		api.POST("/chat/stream", chatHandler.ChatStream)

		// 学习记录
		api.GET("/courses/:course/practices", recordsHandler.Practices)
		api.GET("/courses/:course/mistakes", recordsHandler.Mistakes)
		api.GET("/courses/:course/exams", recordsHandler.Exams)
		api.GET("/courses/:course/exams/:session", recordsHandler.Exam)
		api.GET("/courses/:course/weak-points", recordsHandler.WeakPoints)
		api.GET("/courses/:course/memory", recordsHandler.MemorySearch)
	}

	// 健康检查
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	srv := &HTTPServer{
		router:   router,
		httpPort: serverCfg.HTTPPort,
		hub:      hub,
		eventBus: eventBus,
		logger:   logger,
	}

	// 课程事件 WebSocket 订阅
	router.GET("/ws/:course", srv.serveWS)

	// MCP SSE 端点
	if mcpServer != nil {
		router.Any("/mcp/sse", gin.WrapH(mcpServer.GetHandler()))
	}

	return srv
}

// Start 启动服务器
func (s *HTTPServer) Start() error {
	s.hub.Start()
	s.bridgeEvents()

	s.server = &http.Server{
		Addr:    s.httpPort,
		Handler: s.router,
	}

	s.logger.Info("HTTP server starting",
		"port", s.httpPort,
	)

	return s.server.ListenAndServe()
}

// bridgeEvents 把索引构建和上传目录事件转发到课程 WebSocket 频道
func (s *HTTPServer) bridgeEvents() {
	s.eventBus.SubscribeMultiple([]events.EventType{
		events.IndexBuildStarted,
		events.IndexBuildProgress,
		events.IndexBuildFinished,
	}, events.HandlerFunc(func(event events.Event) error {
		e, ok := event.(*events.IndexBuildEvent)
		if !ok {
			return nil
		}
		return s.hub.BroadcastToCourse(e.Course, gin.H{
			"type":        string(e.EventType),
			"course":      e.Course,
			"stage":       e.Stage,
			"chunk_count": e.ChunkCount,
			"error":       e.Err,
		})
	}))

	s.eventBus.SubscribeMultiple([]events.EventType{
		events.UploadFileCreated,
		events.UploadFileModified,
		events.UploadFileDeleted,
	}, events.HandlerFunc(func(event events.Event) error {
		e, ok := event.(*events.UploadFileEvent)
		if !ok {
			return nil
		}
		return s.hub.BroadcastToCourse(e.Course, gin.H{
			"type":     string(e.EventType),
			"course":   e.Course,
			"filename": e.Filename,
		})
	}))
}

// Shutdown 优雅关闭
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// Stop 停止服务器
func (s *HTTPServer) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.Shutdown(ctx)
}
