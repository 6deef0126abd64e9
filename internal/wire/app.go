package wire

import (
	"database/sql"

	"log/slog"

	"github.com/toheart/courseagent/internal/domain/events"
	applog "github.com/toheart/courseagent/internal/infrastructure/log"
	"github.com/toheart/courseagent/internal/infrastructure/watcher"
	"github.com/toheart/courseagent/internal/infrastructure/websocket"
	"github.com/toheart/courseagent/internal/infrastructure/workspace"
	infraHTTP "github.com/toheart/courseagent/internal/interfaces/http"
	"github.com/toheart/courseagent/internal/interfaces/mcp"
)

// App 应用主结构，组合所有服务
type App struct {
	HTTPServer *infraHTTP.HTTPServer
	MCPServer  *mcp.MCPServer
	wsHub      *websocket.Hub
	wsStore    *workspace.Store
	db         *sql.DB
	logger     *slog.Logger

	// 文件监听相关
	eventBus    events.EventBus
	fileWatcher *watcher.FileWatcher
}

// NewApp 创建应用实例
func NewApp(
	httpServer *infraHTTP.HTTPServer,
	mcpServer *mcp.MCPServer,
	wsHub *websocket.Hub,
	eventBus events.EventBus,
	fileWatcher *watcher.FileWatcher,
	wsStore *workspace.Store,
	db *sql.DB,
) *App {
	return &App{
		HTTPServer:  httpServer,
		MCPServer:   mcpServer,
		wsHub:       wsHub,
		wsStore:     wsStore,
		db:          db,
		logger:      applog.NewModuleLogger("app", "main"),
		eventBus:    eventBus,
		fileWatcher: fileWatcher,
	}
}

// Start 启动所有服务
func (a *App) Start() error {
	a.logger.Info("Starting CourseAgent application")

	// 注册事件订阅者并启动文件监听
	a.setupEventSubscribers()
	if a.fileWatcher != nil {
		if err := a.fileWatcher.Start(); err != nil {
			a.logger.Error("Failed to start file watcher",
				"error", err,
			)
		} else {
			a.logger.Info("File watcher started successfully")
		}
	}

	// 启动 HTTP 服务器（goroutine）
	// WebSocket Hub 和事件转发在 HTTPServer.Start 内启动
	go func() {
		if err := a.HTTPServer.Start(); err != nil {
			a.logger.Error("Failed to start HTTP server",
				"error", err,
			)
		}
	}()

	a.logger.Info("CourseAgent application started successfully")

	// MCP 服务器通过 HTTP Handler 提供服务，不需要单独启动
	// 已在 HTTP 服务器中注册 /mcp/sse 端点

	return nil
}

// setupEventSubscribers 注册事件订阅者
// 上传目录被外部改动时，课程的索引标记为过期
func (a *App) setupEventSubscribers() {
	if a.eventBus == nil {
		return
	}

	a.eventBus.SubscribeMultiple(
		[]events.EventType{
			events.UploadFileCreated,
			events.UploadFileModified,
			events.UploadFileDeleted,
		},
		events.HandlerFunc(func(event events.Event) error {
			fileEvent, ok := event.(*events.UploadFileEvent)
			if !ok {
				return nil
			}
			if _, err := a.wsStore.Rescan(fileEvent.Course); err != nil {
				return err
			}
			return nil
		}),
	)
	a.logger.Info("Workspace store subscribed to upload file events")
}

// Stop 停止所有服务
func (a *App) Stop() error {
	a.logger.Info("Stopping CourseAgent application")

	// 停止文件监听器
	if a.fileWatcher != nil {
		a.fileWatcher.Stop()
		a.logger.Info("File watcher stopped")
	}

	// 关闭事件总线
	if a.eventBus != nil {
		a.eventBus.Close()
		a.logger.Info("Event bus closed")
	}

	if err := a.HTTPServer.Stop(); err != nil {
		a.logger.Error("Failed to stop HTTP server",
			"error", err,
		)
		return err
	}

	// 关闭数据库连接
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Error("Failed to close database connection",
				"error", err,
			)
			return err
		}
	}

	a.logger.Info("CourseAgent application stopped successfully")

	return nil
}
