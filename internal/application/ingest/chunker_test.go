package ingest

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/toheart/courseagent/internal/domain/rag"
)

func TestChunkText_WindowAndOverlap(t *testing.T) {
	// 600 个字符，窗口 512 / 重叠 50：应得两片，第二片从 462 开始
	text := strings.Repeat("甲", 600)
	pieces := ChunkText(text, 512, 50)

	if len(pieces) != 2 {
		t.Fatalf("应切出 2 片，得到 %d", len(pieces))
	}
	if got := len([]rune(pieces[0])); got != 512 {
		t.Errorf("第一片应为 512 个字符，得到 %d", got)
	}
	if got := len([]rune(pieces[1])); got != 600-462 {
		t.Errorf("第二片应为 %d 个字符，得到 %d", 600-462, got)
	}
}

func TestChunkText_LongDocumentWindows(t *testing.T) {
	// 1800 个字符，窗口 600 / 重叠 120，步长 480：
	// [0,600) [480,1080) [960,1560) [1440,1800) 共 4 片
	text := strings.Repeat("乙", 1800)
	pieces := ChunkText(text, 600, 120)

	if len(pieces) != 4 {
		t.Fatalf("应切出 4 片，得到 %d", len(pieces))
	}
	for i := 0; i < 3; i++ {
		if got := len([]rune(pieces[i])); got != 600 {
			t.Errorf("第 %d 片应为 600 个字符，得到 %d", i+1, got)
		}
	}
	if got := len([]rune(pieces[3])); got != 1800-1440 {
		t.Errorf("末片应为 %d 个字符，得到 %d", 1800-1440, got)
	}
}

func TestChunkText_ShortText(t *testing.T) {
	pieces := ChunkText("短文本", 512, 50)
	if len(pieces) != 1 || pieces[0] != "短文本" {
		t.Fatalf("短于窗口的文本应整体成为一片: %v", pieces)
	}
}

func TestChunkText_OverlapClamp(t *testing.T) {
	// overlap >= chunkSize 时压到 chunkSize/2，窗口必须始终前进
	text := strings.Repeat("a", 100)
	pieces := ChunkText(text, 10, 10)
	if len(pieces) == 0 {
		t.Fatal("不应返回空结果")
	}
	// 压缩后步长 5，100 个字符应在有限片数内切完
	if len(pieces) > 100 {
		t.Fatalf("窗口未前进，切出了 %d 片", len(pieces))
	}
	for _, p := range pieces {
		if len(p) == 0 {
			t.Fatal("不应出现空片")
		}
	}
}

func TestChunkText_NegativeOverlap(t *testing.T) {
	pieces := ChunkText(strings.Repeat("b", 30), 10, -5)
	if len(pieces) != 3 {
		t.Fatalf("负 overlap 应按 0 处理，期望 3 片，得到 %d", len(pieces))
	}
}

func TestChunkText_WhitespaceOnlyPieces(t *testing.T) {
	// 纯空白片段丢弃
	text := "内容" + strings.Repeat(" ", 50)
	pieces := ChunkText(text, 10, 2)
	for _, p := range pieces {
		if strings.TrimSpace(p) == "" {
			t.Fatal("纯空白片段应被丢弃")
		}
	}
}

func TestChunkText_Empty(t *testing.T) {
	if pieces := ChunkText("", 512, 50); pieces != nil {
		t.Fatalf("空文本应返回 nil，得到 %v", pieces)
	}
	if pieces := ChunkText("x", 0, 0); pieces != nil {
		t.Fatalf("非法窗口应返回 nil，得到 %v", pieces)
	}
}

func TestChunkText_MultiByteSafe(t *testing.T) {
	// 按 rune 切分，多字节字符不能被切成半截
	text := strings.Repeat("汉字混合text", 100)
	for _, p := range ChunkText(text, 64, 8) {
		if !utf8.ValidString(p) {
			t.Fatalf("切片不是合法 UTF-8: %q", p)
		}
	}
}

func TestChunkPages(t *testing.T) {
	pages := []rag.Page{
		{Text: strings.Repeat("a", 20), Page: 1, DocID: "lecture.pdf"},
		{Text: strings.Repeat("b", 5), Page: 2, DocID: "lecture.pdf"},
	}
	chunks := ChunkPages(pages, 10, 2)

	if len(chunks) == 0 {
		t.Fatal("应产生切片")
	}
	// 序号在页内连续编号，ID 带页码
	if chunks[0].ID != "lecture.pdf_p1_c0" {
		t.Errorf("ID 不符: %s", chunks[0].ID)
	}
	last := chunks[len(chunks)-1]
	if last.Page != 2 || last.Seq != 0 {
		t.Errorf("第二页切片应重新从 0 编号: page=%d seq=%d", last.Page, last.Seq)
	}
}
