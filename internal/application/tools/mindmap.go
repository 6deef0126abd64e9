package tools

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/toheart/courseagent/internal/domain/session"
	"github.com/toheart/courseagent/internal/infrastructure/workspace"
)

// Mindmap 思维导图工具
// 把知识点层级渲染为 mermaid mindmap 并保存到课程笔记目录
type Mindmap struct {
	wsStore *workspace.Store
}

// NewMindmap 创建思维导图工具
func NewMindmap(wsStore *workspace.Store) *Mindmap {
	return &Mindmap{wsStore: wsStore}
}

// Name 实现 Tool 接口
func (m *Mindmap) Name() session.Tool { return session.ToolMindmap }

// Description 实现 Tool 接口
func (m *Mindmap) Description() string {
	return "生成知识点思维导图（mermaid），参数 topic 和 branches（分号分隔，子项用逗号：\"分支1:子项a,子项b;分支2\"）"
}

// Execute 实现 Tool 接口
func (m *Mindmap) Execute(_ context.Context, course string, args map[string]string) (string, error) {
	topic := strings.TrimSpace(args["topic"])
	if topic == "" {
		return "", fmt.Errorf("mindmap requires topic")
	}

	diagram := renderMindmap(topic, args["branches"])

	// 保存到笔记目录，文件名带时间戳避免覆盖
	layout, err := m.wsStore.Layout(course)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(layout.Notes(), 0755); err != nil {
		return "", fmt.Errorf("failed to create notes directory: %w", err)
	}

	filename := fmt.Sprintf("mindmap_%s.md", time.Now().Format("20060102_150405"))
	content := fmt.Sprintf("# %s\n\n```mermaid\n%s```\n", topic, diagram)
	if err := os.WriteFile(filepath.Join(layout.Notes(), filename), []byte(content), 0644); err != nil {
		return "", fmt.Errorf("failed to save mindmap: %w", err)
	}

	return content, nil
}

// renderMindmap 渲染 mermaid mindmap 文本
func renderMindmap(topic, branches string) string {
	var sb strings.Builder
	sb.WriteString("mindmap\n")
	sb.WriteString(fmt.Sprintf("  root((%s))\n", topic))

	for _, branch := range strings.Split(branches, ";") {
		branch = strings.TrimSpace(branch)
		if branch == "" {
			continue
		}

		name := branch
		var children []string
		if idx := strings.Index(branch, ":"); idx >= 0 {
			name = strings.TrimSpace(branch[:idx])
			for _, child := range strings.Split(branch[idx+1:], ",") {
				if child = strings.TrimSpace(child); child != "" {
					children = append(children, child)
				}
			}
		}
		if name == "" {
			continue
		}

		sb.WriteString(fmt.Sprintf("    %s\n", name))
		for _, child := range children {
			sb.WriteString(fmt.Sprintf("      %s\n", child))
		}
	}
	return sb.String()
}
