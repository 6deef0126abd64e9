package tools

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	appmemory "github.com/toheart/courseagent/internal/application/memory"
	"github.com/toheart/courseagent/internal/domain/session"
)

// MemorySearch 学习记忆检索工具
// 检索历史问答、练习评分和错题记忆
type MemorySearch struct {
	tracker *appmemory.Tracker
}

// NewMemorySearch 创建记忆检索工具
func NewMemorySearch(tracker *appmemory.Tracker) *MemorySearch {
	return &MemorySearch{tracker: tracker}
}

// Name 实现 Tool 接口
func (m *MemorySearch) Name() session.Tool { return session.ToolMemorySearch }

// Description 实现 Tool 接口
func (m *MemorySearch) Description() string {
	return "检索该课程的学习记忆（历史问答、错题、评分），参数 query，可选 top_k"
}

// Execute 实现 Tool 接口
func (m *MemorySearch) Execute(_ context.Context, course string, args map[string]string) (string, error) {
	query := strings.TrimSpace(args["query"])
	topK := 5
	if v := args["top_k"]; v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			topK = n
		}
	}

	episodes, err := m.tracker.Search(course, query, topK)
	if err != nil {
		return "", err
	}
	if len(episodes) == 0 {
		return "没有找到相关的学习记忆", nil
	}

	var sb strings.Builder
	for i, ep := range episodes {
		sb.WriteString(fmt.Sprintf("[%d] (%s, %s)\n%s\n",
			i+1, ep.Type, ep.CreatedAt.Format("2006-01-02"), ep.Content))
		if len(ep.Tags) > 0 {
			sb.WriteString("标签：" + strings.Join(ep.Tags, "、") + "\n")
		}
		sb.WriteString("\n")
	}
	return strings.TrimSpace(sb.String()), nil
}
