// Package ingest 文档入库流水线：解析、切分、向量化、建索引
package ingest

import (
	"strings"

	"github.com/toheart/courseagent/internal/domain/rag"
)

// ChunkText 固定窗口 + 重叠切分
// 按 rune 计数，避免把多字节字符切成半截
// overlap >= chunkSize 时压到 chunkSize/2，保证窗口始终前进
func ChunkText(text string, chunkSize, overlap int) []string {
	if chunkSize <= 0 {
		return nil
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= chunkSize {
		overlap = chunkSize / 2
	}

	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}

	var pieces []string
	start := 0
	for start < len(runes) {
		end := start + chunkSize
		if end > len(runes) {
			end = len(runes)
		}

		piece := string(runes[start:end])
		// 纯空白片段丢弃，但窗口照常前进
		if strings.TrimSpace(piece) != "" {
			pieces = append(pieces, piece)
		}

		if end == len(runes) {
			break
		}

		next := end - overlap
		// 防御短尾片段导致的窗口回退
		if next <= start {
			next = start + chunkSize
		}
		start = next
	}
	return pieces
}

// ChunkPages 把解析出的页序列切成带标识的 Chunk
// 序号在页内连续编号，ID 形如 <doc>_p<page>_c<i>
func ChunkPages(pages []rag.Page, chunkSize, overlap int) []rag.Chunk {
	var chunks []rag.Chunk
	for _, page := range pages {
		pieces := ChunkText(page.Text, chunkSize, overlap)
		for i, piece := range pieces {
			chunks = append(chunks, rag.Chunk{
				ID:    rag.NewChunkID(page.DocID, page.Page, i),
				Text:  piece,
				DocID: page.DocID,
				Page:  page.Page,
				Seq:   i,
			})
		}
	}
	return chunks
}
