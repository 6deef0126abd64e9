package records

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	domainrec "github.com/toheart/courseagent/internal/domain/records"
	domainws "github.com/toheart/courseagent/internal/domain/workspace"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return &Store{rootDir: t.TempDir()}
}

func TestAppendPractice_ListOrder(t *testing.T) {
	store := newTestStore(t)

	for i, q := range []string{"第一题", "第二题", "第三题"} {
		err := store.AppendPractice("数学", &domainrec.PracticeRecord{
			Timestamp: time.Now(),
			Question:  q,
			Score:     float64(60 + i*10),
		})
		require.NoError(t, err)
	}

	recs, err := store.ListPractices("数学")
	require.NoError(t, err)
	require.Len(t, recs, 3)
	// 追加顺序即读取顺序
	require.Equal(t, "第一题", recs[0].Question)
	require.Equal(t, "第三题", recs[2].Question)
}

func TestListPractices_MissingFile(t *testing.T) {
	store := newTestStore(t)
	recs, err := store.ListPractices("空课程")
	require.NoError(t, err)
	require.Empty(t, recs)
}

func TestListPractices_SkipBrokenLines(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.AppendPractice("数学", &domainrec.PracticeRecord{Question: "好的"}))

	// 手工往文件里塞一行损坏数据
	path := filepath.Join(store.rootDir, "数学", "practices", PracticesFileName)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0644)
	require.NoError(t, err)
	_, err = f.WriteString("{broken json\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	require.NoError(t, store.AppendPractice("数学", &domainrec.PracticeRecord{Question: "也好的"}))

	recs, err := store.ListPractices("数学")
	require.NoError(t, err)
	// 损坏行跳过，完好记录全部保留
	require.Len(t, recs, 2)
}

func TestAppendMistake(t *testing.T) {
	store := newTestStore(t)
	err := store.AppendMistake("物理", &domainrec.MistakeRecord{
		Timestamp: time.Now(),
		Mode:      "practice",
		Question:  "牛顿第二定律",
		Score:     45,
		Tags:      []string{"力学"},
	})
	require.NoError(t, err)

	recs, err := store.ListMistakes("物理")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	require.Equal(t, 45.0, recs[0].Score)
	require.Equal(t, []string{"力学"}, recs[0].Tags)
}

func TestSaveExam_GetAndList(t *testing.T) {
	store := newTestStore(t)

	rec := &domainrec.ExamRecord{
		SessionID: "sess-001",
		StartedAt: time.Now(),
		Items: []domainrec.ExamItem{
			{Question: "第一题", Score: 80},
			{Question: "第二题", Score: 60},
		},
		AverageScore: 70,
	}
	require.NoError(t, store.SaveExam("数学", rec))

	got, err := store.GetExam("数学", "sess-001")
	require.NoError(t, err)
	require.Len(t, got.Items, 2)
	require.Equal(t, 70.0, got.AverageScore)

	ids, err := store.ListExams("数学")
	require.NoError(t, err)
	require.Equal(t, []string{"sess-001"}, ids)

	// 同名覆盖：考试记录按会话累积更新
	rec.Items = append(rec.Items, domainrec.ExamItem{Question: "第三题", Score: 90})
	rec.AverageScore = 76.7
	require.NoError(t, store.SaveExam("数学", rec))

	got, err = store.GetExam("数学", "sess-001")
	require.NoError(t, err)
	require.Len(t, got.Items, 3)
}

func TestSaveExam_MissingSessionID(t *testing.T) {
	store := newTestStore(t)
	err := store.SaveExam("数学", &domainrec.ExamRecord{})
	require.Error(t, err)
}

func TestIllegalCourseName(t *testing.T) {
	store := newTestStore(t)
	err := store.AppendPractice("  ", &domainrec.PracticeRecord{Question: "x"})
	require.ErrorIs(t, err, domainws.ErrIllegalName)
}
