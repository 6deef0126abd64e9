// Package websocket 按课程分组的 WebSocket 连接管理
// 前端订阅课程频道后可实时收到索引构建进度和上传目录变更通知
package websocket

import (
	"encoding/json"
	"sync"
)

// Hub WebSocket 连接管理中心
type Hub struct {
	// 按课程名分组的连接
	courses map[string]map[*Connection]bool
	// 注册连接
	register chan *Connection
	// 注销连接
	unregister chan *Connection
	// 广播消息
	broadcast chan *Message
	mu        sync.RWMutex
}

// Connection WebSocket 连接
type Connection struct {
	Course string
	Send   chan []byte
}

// Message 消息
type Message struct {
	Course string
	Data   []byte
}

// NewHub 创建 Hub
func NewHub() *Hub {
	return &Hub{
		courses:    make(map[string]map[*Connection]bool),
		register:   make(chan *Connection),
		unregister: make(chan *Connection),
		broadcast:  make(chan *Message),
	}
}

// Run 运行 Hub（需要在 goroutine 中运行）
func (h *Hub) Run() {
	for {
		select {
		case conn := <-h.register:
			h.mu.Lock()
			if h.courses[conn.Course] == nil {
				h.courses[conn.Course] = make(map[*Connection]bool)
			}
			h.courses[conn.Course][conn] = true
			h.mu.Unlock()

		case conn := <-h.unregister:
			h.mu.Lock()
			if course, ok := h.courses[conn.Course]; ok {
				if _, ok := course[conn]; ok {
					delete(course, conn)
					close(conn.Send)
					if len(course) == 0 {
						delete(h.courses, conn.Course)
					}
				}
			}
			h.mu.Unlock()

		case msg := <-h.broadcast:
			h.mu.RLock()
			if course, ok := h.courses[msg.Course]; ok {
				for conn := range course {
					select {
					case conn.Send <- msg.Data:
					default:
						close(conn.Send)
						delete(course, conn)
					}
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Start 启动 Hub（启动后台 goroutine）
func (h *Hub) Start() {
	go h.Run()
}

// Register 注册连接
func (h *Hub) Register(conn *Connection) {
	h.register <- conn
}

// Unregister 注销连接
func (h *Hub) Unregister(conn *Connection) {
	h.unregister <- conn
}

// BroadcastToCourse 向订阅指定课程的连接广播消息
func (h *Hub) BroadcastToCourse(course string, data interface{}) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}
	h.broadcast <- &Message{
		Course: course,
		Data:   jsonData,
	}
	return nil
}
