package tools

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/toheart/courseagent/internal/domain/session"
	domainws "github.com/toheart/courseagent/internal/domain/workspace"
	"github.com/toheart/courseagent/internal/infrastructure/workspace"
)

// FileWriter 笔记写入工具
// 只能写入课程的 notes 目录，文件名做路径净化，固定 .md 扩展名
type FileWriter struct {
	wsStore *workspace.Store
}

// NewFileWriter 创建笔记写入工具
func NewFileWriter(wsStore *workspace.Store) *FileWriter {
	return &FileWriter{wsStore: wsStore}
}

// Name 实现 Tool 接口
func (f *FileWriter) Name() session.Tool { return session.ToolFileWriter }

// Description 实现 Tool 接口
func (f *FileWriter) Description() string {
	return "把学习笔记保存到课程笔记目录，参数 filename 和 content"
}

// Execute 实现 Tool 接口
func (f *FileWriter) Execute(_ context.Context, course string, args map[string]string) (string, error) {
	filename := strings.TrimSpace(args["filename"])
	content := args["content"]
	if filename == "" || strings.TrimSpace(content) == "" {
		return "", fmt.Errorf("filewriter requires filename and content")
	}

	// 笔记名只取最后一段路径，统一 .md 扩展名
	base := filepath.Base(filename)
	if base == "" || base == "." || base == ".." {
		return "", domainws.ErrIllegalName
	}
	if !strings.HasSuffix(strings.ToLower(base), ".md") {
		base += ".md"
	}

	layout, err := f.wsStore.Layout(course)
	if err != nil {
		return "", err
	}
	if _, err := f.wsStore.Get(course); err != nil {
		return "", err
	}

	if err := os.MkdirAll(layout.Notes(), 0755); err != nil {
		return "", fmt.Errorf("failed to create notes directory: %w", err)
	}

	dest := filepath.Join(layout.Notes(), base)
	if err := os.WriteFile(dest, []byte(content), 0644); err != nil {
		return "", fmt.Errorf("failed to write note: %w", err)
	}

	return fmt.Sprintf("笔记已保存：%s", base), nil
}
