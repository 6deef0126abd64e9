package ingest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/simplifiedchinese"
)

func writeTestFile(t *testing.T, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, content, 0644))
	return path
}

func TestTextParser_UTF8(t *testing.T) {
	p := NewTextParser()
	path := writeTestFile(t, "notes.md", []byte("# 微积分\n导数的定义"))

	pages, err := p.Parse(path, "notes.md")
	require.NoError(t, err)
	require.Len(t, pages, 1)
	require.Equal(t, 0, pages[0].Page)
	require.Equal(t, "notes.md", pages[0].DocID)
	require.Contains(t, pages[0].Text, "导数的定义")
}

func TestTextParser_GBKFallback(t *testing.T) {
	p := NewTextParser()

	// 模拟 Windows 中文环境导出的 GBK 文本
	raw, err := simplifiedchinese.GBK.NewEncoder().Bytes([]byte("高等数学第一章：极限与连续"))
	require.NoError(t, err)
	path := writeTestFile(t, "lecture.txt", raw)

	pages, err := p.Parse(path, "lecture.txt")
	require.NoError(t, err)
	require.Len(t, pages, 1)
	require.Contains(t, pages[0].Text, "极限与连续")
}

func TestTextParser_EmptyFile(t *testing.T) {
	p := NewTextParser()
	path := writeTestFile(t, "empty.txt", nil)

	pages, err := p.Parse(path, "empty.txt")
	require.NoError(t, err)
	require.Nil(t, pages)
}

func TestTextParser_WhitespaceOnly(t *testing.T) {
	p := NewTextParser()
	path := writeTestFile(t, "blank.txt", []byte("   \n\t\n  "))

	pages, err := p.Parse(path, "blank.txt")
	require.NoError(t, err)
	require.Nil(t, pages)
}

func TestTextParser_MissingFile(t *testing.T) {
	p := NewTextParser()
	_, err := p.Parse(filepath.Join(t.TempDir(), "nope.txt"), "nope.txt")
	require.Error(t, err)
}

func TestRegistry_Dispatch(t *testing.T) {
	r := NewRegistry()

	// 内置 .txt / .md 解析，扩展名大小写不敏感
	for _, name := range []string{"讲义.txt", "NOTES.MD"} {
		path := writeTestFile(t, name, []byte("正文"))
		pages, err := r.Parse(path)
		require.NoError(t, err, name)
		require.Len(t, pages, 1)
	}

	// 未注册的格式拒绝解析
	path := writeTestFile(t, "slides.pptx", []byte{0x50, 0x4b})
	_, err := r.Parse(path)
	require.ErrorIs(t, err, ErrUnsupportedFormat)
}
