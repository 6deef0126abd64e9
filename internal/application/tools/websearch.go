package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/toheart/courseagent/internal/domain/session"
)

// Searcher 外部搜索服务接口
// 具体实现由部署方注入，默认不配置
type Searcher interface {
	// Search 返回格式化后的搜索结果摘要
	Search(ctx context.Context, query string) (string, error)
}

// ProvideSearcher 默认不接入外部搜索服务
// 需要联网搜索时在这里换成具体实现
func ProvideSearcher() Searcher { return nil }

// WebSearch 联网搜索工具
type WebSearch struct {
	searcher Searcher
}

// NewWebSearch 创建联网搜索工具
// searcher 为 nil 时工具注册但调用返回未配置错误
func NewWebSearch(searcher Searcher) *WebSearch {
	return &WebSearch{searcher: searcher}
}

// Name 实现 Tool 接口
func (w *WebSearch) Name() session.Tool { return session.ToolWebSearch }

// Description 实现 Tool 接口
func (w *WebSearch) Description() string {
	return "联网搜索补充资料，参数 query"
}

// Execute 实现 Tool 接口
func (w *WebSearch) Execute(ctx context.Context, _ string, args map[string]string) (string, error) {
	if w.searcher == nil {
		return "", fmt.Errorf("websearch: %w", ErrToolNotConfigured)
	}

	query := strings.TrimSpace(args["query"])
	if query == "" {
		return "", fmt.Errorf("websearch requires query")
	}
	return w.searcher.Search(ctx, query)
}
