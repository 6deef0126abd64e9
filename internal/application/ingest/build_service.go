package ingest

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"log/slog"

	"github.com/toheart/courseagent/internal/domain/events"
	"github.com/toheart/courseagent/internal/domain/rag"
	"github.com/toheart/courseagent/internal/infrastructure/config"
	"github.com/toheart/courseagent/internal/infrastructure/embedding"
	infraingest "github.com/toheart/courseagent/internal/infrastructure/ingest"
	"github.com/toheart/courseagent/internal/infrastructure/log"
	"github.com/toheart/courseagent/internal/infrastructure/vector"
	"github.com/toheart/courseagent/internal/infrastructure/workspace"
)

// ErrNoContent 课程没有任何可切分的文本
var ErrNoContent = errors.New("no indexable content in course documents")

// BuildResult 一次索引构建的摘要
type BuildResult struct {
	// Documents 成功解析的文档数
	Documents int `json:"documents"`
	// Skipped 跳过的文档名（没有解析器或解析失败）
	Skipped []string `json:"skipped,omitempty"`
	// Chunks 入索引的切片数
	Chunks int `json:"chunks"`
	// Dimension 向量维度
	Dimension int `json:"dimension"`
	// Duration 构建耗时
	Duration time.Duration `json:"duration"`
}

// BuildService 课程索引构建服务
// 解析 uploads 下全部文档 → 切分 → 向量化 → 写索引文件对
// 构建过程通过事件总线广播进度，前端经 WebSocket 订阅
type BuildService struct {
	wsStore     *workspace.Store
	parsers     *infraingest.Registry
	embedClient *embedding.Client
	vectorStore *vector.Store
	eventBus    events.EventBus
	cfg         *config.IngestConfig
	logger      *slog.Logger
}

// NewBuildService 创建索引构建服务
func NewBuildService(
	wsStore *workspace.Store,
	parsers *infraingest.Registry,
	embedClient *embedding.Client,
	vectorStore *vector.Store,
	eventBus events.EventBus,
	cfg *config.IngestConfig,
) *BuildService {
	return &BuildService{
		wsStore:     wsStore,
		parsers:     parsers,
		embedClient: embedClient,
		vectorStore: vectorStore,
		eventBus:    eventBus,
		cfg:         cfg,
		logger:      log.NewModuleLogger("ingest", "build_service"),
	}
}

// BuildIndex 重建课程索引
// 全量重建：旧索引文件对在新索引写成功前保持可用
func (s *BuildService) BuildIndex(ctx context.Context, course string) (*BuildResult, error) {
	startTime := time.Now()

	layout, err := s.wsStore.Layout(course)
	if err != nil {
		return nil, err
	}

	// 先同步一次磁盘状态，用户可能直接往 uploads 目录放文件
	docs, err := s.wsStore.Rescan(course)
	if err != nil {
		return nil, err
	}

	s.publish(events.IndexBuildStarted, course, "parsing", 0, nil)
	s.logger.Info("Index build started", "course", course, "documents", len(docs))

	result, err := s.build(ctx, course, layout.Uploads(), layout.IndexBase(), docs)
	if err != nil {
		s.publish(events.IndexBuildFinished, course, "", 0, err)
		s.logger.Error("Index build failed", "course", course, "error", err)
		return nil, err
	}

	if err := s.wsStore.MarkIndexed(course); err != nil {
		return nil, err
	}

	result.Duration = time.Since(startTime)
	s.publish(events.IndexBuildFinished, course, "done", result.Chunks, nil)
	s.logger.Info("Index build finished",
		"course", course,
		"documents", result.Documents,
		"chunks", result.Chunks,
		"duration", result.Duration,
	)
	return result, nil
}

// DeleteIndex 删除课程索引文件对并把课程标记为未索引
func (s *BuildService) DeleteIndex(course string) error {
	layout, err := s.wsStore.Layout(course)
	if err != nil {
		return err
	}
	if _, err := s.wsStore.Get(course); err != nil {
		return err
	}
	if err := s.vectorStore.Delete(layout.IndexBase()); err != nil {
		return err
	}
	if err := s.wsStore.MarkStale(course); err != nil {
		return err
	}
	s.logger.Info("Index deleted", "course", course)
	return nil
}

// build 执行解析/切分/向量化/落盘
func (s *BuildService) build(ctx context.Context, course, uploadsDir, indexBase string, docs []string) (*BuildResult, error) {
	result := &BuildResult{}

	// 1. 解析全部文档
	var pages []rag.Page
	for _, doc := range docs {
		parsed, err := s.parsers.Parse(filepath.Join(uploadsDir, doc))
		if err != nil {
			// 单个文档解析失败不拖垮整次构建
			s.logger.Warn("Skipping document", "course", course, "doc", doc, "error", err)
			result.Skipped = append(result.Skipped, doc)
			continue
		}
		pages = append(pages, parsed...)
		result.Documents++
	}

	// 2. 切分
	s.publish(events.IndexBuildProgress, course, "chunking", 0, nil)
	chunks := ChunkPages(pages, s.cfg.ChunkSize, s.cfg.Overlap)
	if len(chunks) == 0 {
		return nil, ErrNoContent
	}

	// 3. 向量化
	s.publish(events.IndexBuildProgress, course, "embedding", len(chunks), nil)
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	vectors, err := s.embedClient.EmbedTexts(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("failed to embed chunks: %w", err)
	}

	// 4. 建索引并落盘
	s.publish(events.IndexBuildProgress, course, "saving", len(chunks), nil)
	ix, err := vector.Build(chunks, vectors)
	if err != nil {
		return nil, err
	}
	if err := s.vectorStore.Save(ix, indexBase); err != nil {
		return nil, err
	}

	result.Chunks = len(chunks)
	result.Dimension = ix.Dimension()
	return result, nil
}

// publish 发布索引构建事件
func (s *BuildService) publish(eventType events.EventType, course, stage string, chunkCount int, err error) {
	errMsg := ""
	if err != nil {
		errMsg = err.Error()
	}
	s.eventBus.Publish(&events.IndexBuildEvent{
		EventType:  eventType,
		Course:     course,
		Stage:      stage,
		ChunkCount: chunkCount,
		Err:        errMsg,
		EventTime:  time.Now(),
	})
}
