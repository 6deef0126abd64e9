// Package rag 课程教材检索
package rag

import (
	"context"
	"fmt"
	"strings"

	"log/slog"

	domainrag "github.com/toheart/courseagent/internal/domain/rag"
	"github.com/toheart/courseagent/internal/infrastructure/config"
	"github.com/toheart/courseagent/internal/infrastructure/embedding"
	"github.com/toheart/courseagent/internal/infrastructure/log"
	"github.com/toheart/courseagent/internal/infrastructure/token"
	"github.com/toheart/courseagent/internal/infrastructure/vector"
	"github.com/toheart/courseagent/internal/infrastructure/workspace"
)

// Retriever 课程教材检索器
// 查询向量化后在课程索引里做近邻检索，产出带出处的引用列表
type Retriever struct {
	wsStore     *workspace.Store
	embedClient *embedding.Client
	vectorStore *vector.Store
	cfg         *config.RetrievalConfig
	logger      *slog.Logger
}

// NewRetriever 创建检索器
func NewRetriever(
	wsStore *workspace.Store,
	embedClient *embedding.Client,
	vectorStore *vector.Store,
	cfg *config.RetrievalConfig,
) *Retriever {
	return &Retriever{
		wsStore:     wsStore,
		embedClient: embedClient,
		vectorStore: vectorStore,
		cfg:         cfg,
		logger:      log.NewModuleLogger("rag", "retriever"),
	}
}

// Retrieve 检索课程教材
// 课程未建索引返回 ErrIndexNotFound，由上层决定降级策略
func (r *Retriever) Retrieve(ctx context.Context, course, query string, topK int) ([]domainrag.Citation, error) {
	if topK <= 0 {
		topK = r.cfg.TopK
	}

	layout, err := r.wsStore.Layout(course)
	if err != nil {
		return nil, err
	}

	ix, err := r.vectorStore.Load(layout.IndexBase(), r.embedClient.Dimension())
	if err != nil {
		return nil, err
	}

	queryVec, err := r.embedClient.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	hits, err := ix.Search(queryVec, topK)
	if err != nil {
		return nil, err
	}

	citations := make([]domainrag.Citation, 0, len(hits))
	for _, hit := range hits {
		citations = append(citations, domainrag.Citation{
			Document: hit.Chunk.DocID,
			Page:     hit.Chunk.Page,
			Score:    hit.Score,
			Text:     hit.Chunk.Text,
		})
	}

	r.logger.Debug("Retrieval completed",
		"course", course,
		"top_k", topK,
		"hits", len(citations),
	)
	return citations, nil
}

// HasIndex 课程是否已建索引
func (r *Retriever) HasIndex(course string) bool {
	layout, err := r.wsStore.Layout(course)
	if err != nil {
		return false
	}
	return r.vectorStore.Exists(layout.IndexBase())
}

// FormatContext 把引用拼接为注入 Prompt 的教材上下文
// 按 Token 预算截断：预算内的引用完整保留，放不下的整条丢弃
func (r *Retriever) FormatContext(citations []domainrag.Citation) string {
	if len(citations) == 0 {
		return ""
	}

	estimator, err := token.GetEstimator()
	if err != nil {
		// 估算器不可用时退化为不限预算
		r.logger.Warn("Token estimator unavailable, skipping context budget", "error", err)
		estimator = nil
	}

	var sb strings.Builder
	used := 0
	for i, c := range citations {
		block := fmt.Sprintf("[%d] 《%s》第 %d 页：\n%s\n\n", i+1, c.Document, c.Page, c.Text)
		if estimator != nil {
			cost := estimator.CountTokens(block)
			if used+cost > r.cfg.MaxContextTokens {
				break
			}
			used += cost
		}
		sb.WriteString(block)
	}
	return strings.TrimSpace(sb.String())
}
