package rag

// IndexMeta 索引元数据 sidecar（<base>.meta）的结构
// 与 <base>.vec 成对出现，二者数量、维度必须一致
type IndexMeta struct {
	// Dimension 向量维度
	Dimension int `json:"dimension"`
	// Count 向量数量，必须等于 .vec 文件中的行数
	Count int `json:"count"`
	// Chunks 每个向量对应的切片元数据，顺序即向量顺序
	Chunks []Chunk `json:"chunks"`
}

// SearchHit 向量检索结果
type SearchHit struct {
	Chunk Chunk
	// Score 相似度分数 1/(1+L2 距离)
	Score float64
}
