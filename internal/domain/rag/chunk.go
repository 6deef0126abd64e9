package rag

import "fmt"

// Page 解析后的一页文本
// 文档解析器（PDF/DOCX/PPTX 由外部解析器提供）的统一输出格式
type Page struct {
	// Text 该页提取出的文本
	Text string
	// Page 页码，从 1 开始；纯文本文件为 0
	Page int
	// DocID 来源文档名（仅文件名，不含路径）
	DocID string
}

// Chunk 文档切片，RAG 检索的最小单位
// 只由切分器产生，生成后不可修改
type Chunk struct {
	// ID 形如 <doc>_p<page>_c<i> 的稳定标识
	ID string `json:"id"`
	// Text 切片文本
	Text string `json:"text"`
	// DocID 所属文档名
	DocID string `json:"doc_id"`
	// Page 页码，纯文本文件为 0
	Page int `json:"page"`
	// Seq 在文档内的序号
	Seq int `json:"seq"`
}

// NewChunkID 生成切片标识
func NewChunkID(docID string, page, seq int) string {
	if page > 0 {
		return fmt.Sprintf("%s_p%d_c%d", docID, page, seq)
	}
	return fmt.Sprintf("%s_c%d", docID, seq)
}

// Citation 检索命中项，只读投影，不单独持久化
type Citation struct {
	// Document 来源文档名
	Document string `json:"document"`
	// Page 页码
	Page int `json:"page"`
	// Score 相似度分数，越大越相关
	Score float64 `json:"score"`
	// Text 命中的切片文本
	Text string `json:"text"`
}
