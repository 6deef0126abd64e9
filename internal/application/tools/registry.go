// Package tools 对话代理可调用的工具集
// 工具是否可用由策略表按模式裁剪，注册表本身不做策略判断
package tools

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/toheart/courseagent/internal/domain/session"
)

// 工具相关错误
var (
	// ErrToolNotFound 工具未注册
	ErrToolNotFound = errors.New("tool not found")
	// ErrToolNotConfigured 工具依赖的外部服务未配置
	ErrToolNotConfigured = errors.New("tool not configured")
)

// Tool 工具接口
type Tool interface {
	// Name 工具标识
	Name() session.Tool
	// Description 给模型看的工具说明
	Description() string
	// Execute 执行工具调用
	Execute(ctx context.Context, course string, args map[string]string) (string, error)
}

// Registry 工具注册表
type Registry struct {
	mu    sync.RWMutex
	tools map[session.Tool]Tool
}

// NewRegistry 创建注册表并装配内置工具
func NewRegistry(
	calculator *Calculator,
	datetime *Datetime,
	fileWriter *FileWriter,
	memorySearch *MemorySearch,
	mindmap *Mindmap,
	webSearch *WebSearch,
) *Registry {
	r := &Registry{tools: make(map[session.Tool]Tool)}
	r.Register(calculator)
	r.Register(datetime)
	r.Register(fileWriter)
	r.Register(memorySearch)
	r.Register(mindmap)
	r.Register(webSearch)
	return r
}

// Register 注册工具（覆盖同名注册）
func (r *Registry) Register(t Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[t.Name()] = t
}

// Get 获取工具
func (r *Registry) Get(name session.Tool) (Tool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.tools[name]
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, ErrToolNotFound)
	}
	return t, nil
}

// Describe 列出工具说明，供 Prompt 拼接
func (r *Registry) Describe(allowed []session.Tool) string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	desc := ""
	for _, name := range allowed {
		if t, ok := r.tools[name]; ok {
			desc += fmt.Sprintf("- %s: %s\n", t.Name(), t.Description())
		}
	}
	return desc
}
