// Package ingest 负责把上传的课程文档解析为带页码的纯文本
// PDF/DOCX/PPTX 等二进制格式由外部解析器按 Parser 接口接入，
// 本包只内置纯文本解析和格式分发
package ingest

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/toheart/courseagent/internal/domain/rag"
)

// 解析相关错误
var (
	// ErrUnsupportedFormat 没有注册对应格式的解析器
	ErrUnsupportedFormat = errors.New("unsupported document format")
	// ErrUndecodable 所有备选编码都无法解码文件内容
	ErrUndecodable = errors.New("file content undecodable with all fallback encodings")
)

// Parser 文档解析器接口
// 输出按原始顺序排列的 (文本, 页码) 序列；空文件返回空切片而非错误
type Parser interface {
	// Parse 解析 path 指向的文件，docID 为归一化后的文件名
	Parse(path, docID string) ([]rag.Page, error)
}

// Registry 按扩展名分发解析器
type Registry struct {
	mu      sync.RWMutex
	parsers map[string]Parser
}

// NewRegistry 创建解析器注册表，内置纯文本解析器
func NewRegistry() *Registry {
	r := &Registry{parsers: make(map[string]Parser)}
	text := NewTextParser()
	r.Register(".txt", text)
	r.Register(".md", text)
	return r
}

// Register 注册扩展名对应的解析器（覆盖已有注册）
func (r *Registry) Register(ext string, p Parser) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.parsers[strings.ToLower(ext)] = p
}

// Parse 按扩展名解析文档
func (r *Registry) Parse(path string) ([]rag.Page, error) {
	docID := filepath.Base(path)
	ext := strings.ToLower(filepath.Ext(path))

	r.mu.RLock()
	p, ok := r.parsers[ext]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("no parser for %s: %w", ext, ErrUnsupportedFormat)
	}
	return p.Parse(path, docID)
}
