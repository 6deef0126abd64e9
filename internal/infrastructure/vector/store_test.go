package vector

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/toheart/courseagent/internal/domain/rag"
)

func buildTestIndex(t *testing.T, n, dim int) *Index {
	t.Helper()
	chunks := make([]rag.Chunk, n)
	vectors := make([][]float32, n)
	for i := 0; i < n; i++ {
		chunks[i] = rag.Chunk{
			ID:    fmt.Sprintf("doc.txt_c%d", i),
			Text:  fmt.Sprintf("切片 %d", i),
			DocID: "doc.txt",
			Seq:   i,
		}
		v := make([]float32, dim)
		// 每个向量在不同维度上有峰值，互相可区分
		v[i%dim] = float32(i + 1)
		vectors[i] = v
	}
	ix, err := Build(chunks, vectors)
	require.NoError(t, err)
	return ix
}

func TestBuild_Validation(t *testing.T) {
	_, err := Build(nil, nil)
	require.ErrorIs(t, err, rag.ErrEmptyIndex)

	_, err = Build([]rag.Chunk{{ID: "a"}}, nil)
	require.ErrorIs(t, err, rag.ErrIndexCorrupt)

	// 维度不齐
	_, err = Build(
		[]rag.Chunk{{ID: "a"}, {ID: "b"}},
		[][]float32{{1, 2}, {1}},
	)
	require.ErrorIs(t, err, rag.ErrIndexCorrupt)
}

func TestSearch_SelfRetrieval(t *testing.T) {
	ix := buildTestIndex(t, 8, 4)

	// 用第 5 个向量自身查询，第一名必须是它自己且分数为 1
	query := make([]float32, 4)
	query[5%4] = float32(6)
	hits, err := ix.Search(query, 3)
	require.NoError(t, err)
	require.Len(t, hits, 3)
	require.Equal(t, "doc.txt_c5", hits[0].Chunk.ID)
	require.InDelta(t, 1.0, hits[0].Score, 1e-9)

	// 分数降序
	for i := 1; i < len(hits); i++ {
		require.GreaterOrEqual(t, hits[i-1].Score, hits[i].Score)
	}
}

func TestSearch_DimensionMismatch(t *testing.T) {
	ix := buildTestIndex(t, 4, 4)
	_, err := ix.Search([]float32{1, 2}, 3)
	require.ErrorIs(t, err, rag.ErrDimensionMismatch)
}

func TestSearch_TopKClamp(t *testing.T) {
	ix := buildTestIndex(t, 3, 4)
	hits, err := ix.Search(make([]float32, 4), 10)
	require.NoError(t, err)
	require.Len(t, hits, 3)
}

func TestStore_SaveLoadRoundTrip(t *testing.T) {
	store := NewStore()
	base := filepath.Join(t.TempDir(), "index", "course_index")

	ix := buildTestIndex(t, 6, 8)
	require.NoError(t, store.Save(ix, base))

	// 文件对齐全
	require.True(t, store.Exists(base))

	loaded, err := store.Load(base, 8)
	require.NoError(t, err)
	require.Equal(t, 6, loaded.Size())
	require.Equal(t, 8, loaded.Dimension())

	// 加载后检索结果与原索引一致
	query := make([]float32, 8)
	query[0] = 1
	want, err := ix.Search(query, 2)
	require.NoError(t, err)
	got, err := loaded.Search(query, 2)
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestStore_LoadDimensionIncompatible(t *testing.T) {
	store := NewStore()
	base := filepath.Join(t.TempDir(), "course_index")

	require.NoError(t, store.Save(buildTestIndex(t, 4, 8), base))

	// Embedding 服务维度变化时拒绝加载，绝不截断或补零
	_, err := store.Load(base, 16)
	require.ErrorIs(t, err, rag.ErrIndexIncompatible)
}

func TestStore_LoadMissing(t *testing.T) {
	store := NewStore()
	_, err := store.Load(filepath.Join(t.TempDir(), "nope"), 8)
	require.ErrorIs(t, err, rag.ErrIndexNotFound)
}

func TestStore_LoadCorruptVec(t *testing.T) {
	store := NewStore()
	base := filepath.Join(t.TempDir(), "course_index")
	require.NoError(t, store.Save(buildTestIndex(t, 4, 8), base))

	// 截断 .vec 文件
	vecPath := base + ".vec"
	data, err := os.ReadFile(vecPath)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(vecPath, data[:len(data)/2], 0644))

	_, err = store.Load(base, 8)
	require.ErrorIs(t, err, rag.ErrIndexCorrupt)
}

func TestStore_Delete(t *testing.T) {
	store := NewStore()
	base := filepath.Join(t.TempDir(), "course_index")
	require.NoError(t, store.Save(buildTestIndex(t, 2, 4), base))

	require.NoError(t, store.Delete(base))
	require.False(t, store.Exists(base))
	// 重复删除不报错
	require.NoError(t, store.Delete(base))
}

func TestStore_ConcurrentSaveLoad(t *testing.T) {
	// 多课程并发 Save/Load，进程级互斥锁保证文件对不交错
	store := NewStore()
	root := t.TempDir()

	var wg sync.WaitGroup
	errCh := make(chan error, 32)
	for c := 0; c < 4; c++ {
		base := filepath.Join(root, fmt.Sprintf("course%d", c), "course_index")
		ix := buildTestIndex(t, 4+c, 8)
		wg.Add(1)
		go func(base string, ix *Index) {
			defer wg.Done()
			for i := 0; i < 5; i++ {
				if err := store.Save(ix, base); err != nil {
					errCh <- err
					return
				}
				loaded, err := store.Load(base, 8)
				if err != nil {
					errCh <- err
					return
				}
				if loaded.Size() != ix.Size() {
					errCh <- errors.New("loaded index size mismatch")
					return
				}
			}
		}(base, ix)
	}
	wg.Wait()
	close(errCh)
	for err := range errCh {
		require.NoError(t, err)
	}
}
