package ingest

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"

	"github.com/toheart/courseagent/internal/domain/rag"
	"github.com/toheart/courseagent/internal/infrastructure/log"
)

// TextParser 纯文本解析器（.txt / .md）
// Windows 中文环境导出的文本常见 GBK 编码，按 UTF-8 → GBK → GB18030
// 顺序尝试解码，全部失败才报错
type TextParser struct {
	logger *slog.Logger
}

// NewTextParser 创建纯文本解析器
func NewTextParser() *TextParser {
	return &TextParser{
		logger: log.NewModuleLogger("ingest", "text_parser"),
	}
}

// Parse 实现 Parser 接口
// 纯文本没有页的概念，整体作为第 0 页返回
func (p *TextParser) Parse(path, docID string) ([]rag.Page, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", docID, err)
	}
	if len(raw) == 0 {
		return nil, nil
	}

	text, err := p.decode(raw, docID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	return []rag.Page{{Text: text, Page: 0, DocID: docID}}, nil
}

// decode 按备选编码链解码
func (p *TextParser) decode(raw []byte, docID string) (string, error) {
	if utf8.Valid(raw) {
		return string(raw), nil
	}

	fallbacks := []struct {
		name string
		dec  *encoding.Decoder
	}{
		{"gbk", simplifiedchinese.GBK.NewDecoder()},
		{"gb18030", simplifiedchinese.GB18030.NewDecoder()},
	}
	for _, fb := range fallbacks {
		decoded, err := decodeWith(raw, fb.dec)
		if err == nil && utf8.Valid(decoded) {
			p.logger.Debug("Decoded file with fallback encoding",
				"doc", docID,
				"encoding", fb.name,
			)
			return string(decoded), nil
		}
	}
	return "", fmt.Errorf("%s: %w", docID, ErrUndecodable)
}

// decodeWith 用指定解码器转换为 UTF-8
func decodeWith(raw []byte, dec *encoding.Decoder) ([]byte, error) {
	reader := transform.NewReader(bytes.NewReader(raw), dec)
	return io.ReadAll(reader)
}
