package vector

import (
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/toheart/courseagent/internal/domain/rag"
)

// Index 内存平铺向量索引
// 向量与切片元数据一一对应，顺序即插入顺序
// 整体重建，禁止局部修补
type Index struct {
	mu      sync.RWMutex
	dim     int
	vectors [][]float32
	chunks  []rag.Chunk
}

// Build 从切片和向量构建索引
// 数量不一致或维度不齐直接拒绝
func Build(chunks []rag.Chunk, vectors [][]float32) (*Index, error) {
	if len(chunks) != len(vectors) {
		return nil, fmt.Errorf("chunk count %d != vector count %d: %w",
			len(chunks), len(vectors), rag.ErrIndexCorrupt)
	}
	if len(vectors) == 0 {
		return nil, rag.ErrEmptyIndex
	}
	dim := len(vectors[0])
	for i, v := range vectors {
		if len(v) != dim {
			return nil, fmt.Errorf("vector %d has dimension %d, want %d: %w",
				i, len(v), dim, rag.ErrIndexCorrupt)
		}
	}
	ix := &Index{
		dim:     dim,
		vectors: make([][]float32, len(vectors)),
		chunks:  make([]rag.Chunk, len(chunks)),
	}
	copy(ix.vectors, vectors)
	copy(ix.chunks, chunks)
	return ix, nil
}

// Dimension 索引向量维度
func (ix *Index) Dimension() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.dim
}

// Size 向量数量
func (ix *Index) Size() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.vectors)
}

// Search 按 L2 距离检索 topK 个切片
// 分数 = 1/(1+距离)，降序返回；同分按插入顺序稳定排序
func (ix *Index) Search(query []float32, topK int) ([]rag.SearchHit, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if len(query) != ix.dim {
		return nil, fmt.Errorf("query dimension %d, index dimension %d: %w",
			len(query), ix.dim, rag.ErrDimensionMismatch)
	}
	if topK <= 0 {
		topK = 3
	}

	type scored struct {
		idx   int
		score float64
	}
	hits := make([]scored, 0, len(ix.vectors))
	for i, v := range ix.vectors {
		d := l2Distance(query, v)
		hits = append(hits, scored{idx: i, score: 1.0 / (1.0 + d)})
	}

	sort.SliceStable(hits, func(a, b int) bool {
		return hits[a].score > hits[b].score
	})

	if topK > len(hits) {
		topK = len(hits)
	}
	out := make([]rag.SearchHit, 0, topK)
	for _, h := range hits[:topK] {
		out = append(out, rag.SearchHit{Chunk: ix.chunks[h.idx], Score: h.score})
	}
	return out, nil
}

// l2Distance 欧氏距离
func l2Distance(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}
