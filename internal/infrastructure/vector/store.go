package vector

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/toheart/courseagent/internal/domain/rag"
	"github.com/toheart/courseagent/internal/infrastructure/log"
)

// 索引文件对：<base>.vec 二进制向量 + <base>.meta JSON sidecar
const (
	vecExt  = ".vec"
	metaExt = ".meta"
	// vecMagic .vec 文件魔数
	vecMagic = uint32(0x43414958) // "CAIX"
	// vecVersion 文件格式版本
	vecVersion = uint32(1)
)

// Store 索引持久化
// 所有课程的 Save/Load 共用一把进程级互斥锁：文件对必须整体落盘，
// 跨课程也不允许交错写（保守沿用来源的全局串行语义，见 DESIGN.md）
type Store struct {
	ioMu   sync.Mutex
	logger *slog.Logger
}

// NewStore 创建索引存储
func NewStore() *Store {
	return &Store{
		logger: log.NewModuleLogger("vector", "store"),
	}
}

// Save 将索引写入 basePath 文件对
// 先写临时文件再整体改名，.meta 最后落位；读到 .meta 即保证 .vec 完整
func (s *Store) Save(ix *Index, basePath string) error {
	s.ioMu.Lock()
	defer s.ioMu.Unlock()

	// 持有索引写锁，保证没有并发 Search 读到写一半的状态
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if len(ix.vectors) == 0 {
		return rag.ErrEmptyIndex
	}

	if err := os.MkdirAll(filepath.Dir(basePath), 0755); err != nil {
		return fmt.Errorf("failed to create index directory: %w", err)
	}

	vecPath := basePath + vecExt
	metaPath := basePath + metaExt

	if err := writeVecFile(vecPath, ix.dim, ix.vectors); err != nil {
		return err
	}

	meta := rag.IndexMeta{
		Dimension: ix.dim,
		Count:     len(ix.vectors),
		Chunks:    ix.chunks,
	}
	if err := writeMetaFile(metaPath, &meta); err != nil {
		return err
	}

	s.logger.Info("Index saved",
		"base_path", basePath,
		"vectors", len(ix.vectors),
		"dimension", ix.dim,
	)
	return nil
}

// Load 从 basePath 文件对加载索引
// expectDim 为当前 Embedding 服务维度；不一致返回 ErrIndexIncompatible，
// 绝不截断或补零
func (s *Store) Load(basePath string, expectDim int) (*Index, error) {
	s.ioMu.Lock()
	defer s.ioMu.Unlock()

	vecPath := basePath + vecExt
	metaPath := basePath + metaExt

	meta, err := readMetaFile(metaPath)
	if err != nil {
		return nil, err
	}

	dim, vectors, err := readVecFile(vecPath)
	if err != nil {
		return nil, err
	}

	if meta.Dimension != dim || meta.Count != len(vectors) || len(meta.Chunks) != len(vectors) {
		return nil, fmt.Errorf("meta (dim=%d count=%d chunks=%d) vs vec (dim=%d count=%d): %w",
			meta.Dimension, meta.Count, len(meta.Chunks), dim, len(vectors), rag.ErrIndexCorrupt)
	}
	if expectDim > 0 && dim != expectDim {
		return nil, fmt.Errorf("index dimension %d, provider dimension %d: %w",
			dim, expectDim, rag.ErrIndexIncompatible)
	}

	s.logger.Debug("Index loaded",
		"base_path", basePath,
		"vectors", len(vectors),
		"dimension", dim,
	)

	return &Index{dim: dim, vectors: vectors, chunks: meta.Chunks}, nil
}

// Exists 检查索引文件对是否存在
func (s *Store) Exists(basePath string) bool {
	if _, err := os.Stat(basePath + vecExt); err != nil {
		return false
	}
	if _, err := os.Stat(basePath + metaExt); err != nil {
		return false
	}
	return true
}

// Delete 删除索引文件对
func (s *Store) Delete(basePath string) error {
	s.ioMu.Lock()
	defer s.ioMu.Unlock()

	// 先删 .meta：残留的孤儿 .vec 会被 Load 判定为 IndexNotFound
	for _, p := range []string{basePath + metaExt, basePath + vecExt} {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove %s: %w", p, err)
		}
	}
	return nil
}

// writeVecFile 写 .vec 二进制文件（临时文件 + rename）
// 布局：magic | version | dim | count | count*dim 个 float32，小端
func writeVecFile(path string, dim int, vectors [][]float32) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("failed to create vec temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp) }()

	header := []uint32{vecMagic, vecVersion, uint32(dim), uint32(len(vectors))}
	for _, h := range header {
		if err := binary.Write(f, binary.LittleEndian, h); err != nil {
			f.Close()
			return fmt.Errorf("failed to write vec header: %w", err)
		}
	}
	for _, v := range vectors {
		if err := binary.Write(f, binary.LittleEndian, v); err != nil {
			f.Close()
			return fmt.Errorf("failed to write vectors: %w", err)
		}
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("failed to sync vec file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close vec file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to rename vec file: %w", err)
	}
	return nil
}

// readVecFile 读 .vec 文件
func readVecFile(path string) (int, [][]float32, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil, rag.ErrIndexNotFound
		}
		return 0, nil, fmt.Errorf("failed to open vec file: %w", err)
	}
	defer f.Close()

	var magic, version, dim, count uint32
	for _, p := range []*uint32{&magic, &version, &dim, &count} {
		if err := binary.Read(f, binary.LittleEndian, p); err != nil {
			return 0, nil, fmt.Errorf("failed to read vec header: %w", rag.ErrIndexCorrupt)
		}
	}
	if magic != vecMagic || version != vecVersion {
		return 0, nil, fmt.Errorf("bad vec magic/version: %w", rag.ErrIndexCorrupt)
	}

	vectors := make([][]float32, count)
	for i := range vectors {
		row := make([]float32, dim)
		if err := binary.Read(f, binary.LittleEndian, row); err != nil {
			return 0, nil, fmt.Errorf("vec file truncated at row %d: %w", i, rag.ErrIndexCorrupt)
		}
		vectors[i] = row
	}
	// 尾部多余数据同样视为损坏
	if _, err := f.Read(make([]byte, 1)); !errors.Is(err, io.EOF) {
		return 0, nil, fmt.Errorf("trailing data in vec file: %w", rag.ErrIndexCorrupt)
	}
	return int(dim), vectors, nil
}

// writeMetaFile 写 .meta JSON sidecar（临时文件 + rename）
func writeMetaFile(path string, meta *rag.IndexMeta) error {
	data, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("failed to marshal index meta: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write meta temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to rename meta file: %w", err)
	}
	return nil
}

// readMetaFile 读 .meta sidecar
func readMetaFile(path string) (*rag.IndexMeta, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, rag.ErrIndexNotFound
		}
		return nil, fmt.Errorf("failed to read meta file: %w", err)
	}
	var meta rag.IndexMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("failed to parse meta file: %w", rag.ErrIndexCorrupt)
	}
	return &meta, nil
}
