package workspace

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	domainws "github.com/toheart/courseagent/internal/domain/workspace"
	"github.com/toheart/courseagent/internal/infrastructure/config"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	t.Setenv(config.EnvDataDir, t.TempDir())
	config.ResetDataDir()
	t.Cleanup(config.ResetDataDir)

	store, err := NewStore()
	require.NoError(t, err)
	return store
}

func TestCreate_Layout(t *testing.T) {
	store := newTestStore(t)

	ws, err := store.Create("高等数学", "数学")
	require.NoError(t, err)
	require.Equal(t, "高等数学", ws.CourseName)

	// 全部子目录建好
	layout, err := store.Layout("高等数学")
	require.NoError(t, err)
	for _, dir := range domainws.SubDirs {
		info, err := os.Stat(filepath.Join(layout.Root, dir))
		require.NoError(t, err, dir)
		require.True(t, info.IsDir())
	}
}

func TestCreate_DuplicateAndIllegal(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Create("物理", "")
	require.NoError(t, err)

	_, err = store.Create("物理", "")
	require.ErrorIs(t, err, domainws.ErrWorkspaceExists)

	_, err = store.Create("..", "")
	require.ErrorIs(t, err, domainws.ErrIllegalName)

	// 路径穿越归约后与已有课程同名
	_, err = store.Create("../物理", "")
	require.ErrorIs(t, err, domainws.ErrWorkspaceExists)
}

func TestStore_PersistAcrossReload(t *testing.T) {
	store := newTestStore(t)
	_, err := store.Create("历史", "文科")
	require.NoError(t, err)

	// 重新加载注册表
	reloaded, err := NewStore()
	require.NoError(t, err)
	ws, err := reloaded.Get("历史")
	require.NoError(t, err)
	require.Equal(t, "文科", ws.Subject)
}

func TestGet_NotFound(t *testing.T) {
	store := newTestStore(t)
	_, err := store.Get("不存在")
	require.ErrorIs(t, err, domainws.ErrWorkspaceNotFound)
}

func TestSaveUpload(t *testing.T) {
	store := newTestStore(t)
	_, err := store.Create("数学", "")
	require.NoError(t, err)

	dest, err := store.SaveUpload("数学", "讲义.txt", []byte("导数"))
	require.NoError(t, err)

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	require.Equal(t, "导数", string(data))

	ws, err := store.Get("数学")
	require.NoError(t, err)
	require.Equal(t, []string{"讲义.txt"}, ws.Documents)
	// 上传后索引标记过期
	require.True(t, ws.IndexStale)

	// 白名单外扩展名拒绝
	_, err = store.SaveUpload("数学", "payload.exe", []byte("x"))
	require.ErrorIs(t, err, domainws.ErrUnsupportedExtension)

	// 路径穿越文件名归约为最后一段
	dest, err = store.SaveUpload("数学", "../../逃逸.md", []byte("y"))
	require.NoError(t, err)
	require.Equal(t, "逃逸.md", filepath.Base(dest))
	layout, _ := store.Layout("数学")
	require.Equal(t, layout.Uploads(), filepath.Dir(dest))
}

func TestRemoveDocument(t *testing.T) {
	store := newTestStore(t)
	_, err := store.Create("数学", "")
	require.NoError(t, err)
	_, err = store.SaveUpload("数学", "讲义.txt", []byte("x"))
	require.NoError(t, err)

	require.NoError(t, store.RemoveDocument("数学", "讲义.txt"))
	ws, _ := store.Get("数学")
	require.Empty(t, ws.Documents)

	err = store.RemoveDocument("数学", "讲义.txt")
	require.ErrorIs(t, err, domainws.ErrDocumentNotFound)
}

func TestRescan(t *testing.T) {
	store := newTestStore(t)
	_, err := store.Create("数学", "")
	require.NoError(t, err)

	layout, err := store.Layout("数学")
	require.NoError(t, err)

	// 用户绕过接口直接放文件：白名单内收录，白名单外忽略
	require.NoError(t, os.WriteFile(filepath.Join(layout.Uploads(), "新讲义.md"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(layout.Uploads(), "ignore.tmp"), []byte("x"), 0644))

	docs, err := store.Rescan("数学")
	require.NoError(t, err)
	require.Equal(t, []string{"新讲义.md"}, docs)

	ws, _ := store.Get("数学")
	require.True(t, ws.IndexStale)
}

func TestMarkIndexed(t *testing.T) {
	store := newTestStore(t)
	_, err := store.Create("数学", "")
	require.NoError(t, err)
	_, err = store.SaveUpload("数学", "讲义.txt", []byte("x"))
	require.NoError(t, err)

	require.NoError(t, store.MarkIndexed("数学"))
	ws, _ := store.Get("数学")
	require.False(t, ws.IndexStale)
	require.False(t, ws.IndexedAt.IsZero())

	require.NoError(t, store.MarkStale("数学"))
	ws, _ = store.Get("数学")
	require.True(t, ws.IndexStale)
}

func TestDelete(t *testing.T) {
	store := newTestStore(t)
	_, err := store.Create("数学", "")
	require.NoError(t, err)
	layout, _ := store.Layout("数学")

	require.NoError(t, store.Delete("数学"))
	_, err = store.Get("数学")
	require.ErrorIs(t, err, domainws.ErrWorkspaceNotFound)
	// 课程目录整体删除
	_, err = os.Stat(layout.Root)
	require.True(t, os.IsNotExist(err))

	require.ErrorIs(t, store.Delete("数学"), domainws.ErrWorkspaceNotFound)
}
