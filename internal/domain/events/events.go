// Package events 定义领域事件类型和接口
// 用于系统内部的事件驱动通信
package events

import "time"

// EventType 事件类型标识
type EventType string

// 上传文件相关事件类型
const (
	// UploadFileCreated 课程上传目录新增文件
	UploadFileCreated EventType = "upload.file.created"
	// UploadFileModified 课程上传文件被修改
	UploadFileModified EventType = "upload.file.modified"
	// UploadFileDeleted 课程上传文件被删除
	UploadFileDeleted EventType = "upload.file.deleted"
)

// 索引相关事件类型
const (
	// IndexBuildStarted 索引构建开始
	IndexBuildStarted EventType = "index.build.started"
	// IndexBuildProgress 索引构建进度
	IndexBuildProgress EventType = "index.build.progress"
	// IndexBuildFinished 索引构建完成（成功或失败）
	IndexBuildFinished EventType = "index.build.finished"
)

// Event 领域事件接口
type Event interface {
	// Type 返回事件类型
	Type() EventType
	// Timestamp 返回事件发生时间
	Timestamp() time.Time
}

// Handler 事件处理器接口
type Handler interface {
	// HandleEvent 处理事件
	// 返回 error 仅用于日志记录，不会重试
	HandleEvent(event Event) error
}

// HandlerFunc 函数类型的处理器适配器
type HandlerFunc func(event Event) error

// HandleEvent 实现 Handler 接口
func (f HandlerFunc) HandleEvent(event Event) error {
	return f(event)
}

// EventBus 事件总线接口
type EventBus interface {
	// Subscribe 订阅特定类型的事件，返回取消订阅的函数
	Subscribe(eventType EventType, handler Handler) (unsubscribe func())

	// SubscribeMultiple 订阅多个类型的事件
	SubscribeMultiple(eventTypes []EventType, handler Handler) (unsubscribe func())

	// Publish 异步发布事件
	Publish(event Event)

	// Close 关闭事件总线，停止接收新事件
	Close()
}

// UploadFileEvent 课程上传目录变更事件
type UploadFileEvent struct {
	// EventType 事件类型（created/modified/deleted）
	EventType EventType
	// Course 课程名
	Course string
	// Filename 文件名（仅文件名）
	Filename string
	// FilePath 文件完整路径
	FilePath string
	// EventTime 事件发生时间
	EventTime time.Time
}

// Type 实现 Event 接口
func (e *UploadFileEvent) Type() EventType { return e.EventType }

// Timestamp 实现 Event 接口
func (e *UploadFileEvent) Timestamp() time.Time { return e.EventTime }

// IndexBuildEvent 索引构建事件
type IndexBuildEvent struct {
	// EventType 事件类型（started/progress/finished）
	EventType EventType
	// Course 课程名
	Course string
	// Stage 当前阶段：parsing/chunking/embedding/saving
	Stage string
	// ChunkCount 已处理切片数
	ChunkCount int
	// Err 失败时的错误信息
	Err string
	// EventTime 事件发生时间
	EventTime time.Time
}

// Type 实现 Event 接口
func (e *IndexBuildEvent) Type() EventType { return e.EventType }

// Timestamp 实现 Event 接口
func (e *IndexBuildEvent) Timestamp() time.Time { return e.EventTime }
