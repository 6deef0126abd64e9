package storage

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/toheart/courseagent/internal/domain/memory"
	"github.com/toheart/courseagent/internal/domain/session"
	"github.com/toheart/courseagent/internal/infrastructure/config"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	t.Setenv(config.EnvDataDir, t.TempDir())
	config.ResetDataDir()
	t.Cleanup(config.ResetDataDir)

	db, err := OpenDB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestEpisodeRepository_SaveAndSearch(t *testing.T) {
	repo, err := NewEpisodeRepository(openTestDB(t))
	require.NoError(t, err)

	episodes := []*memory.Episode{
		{Course: "数学", Type: memory.EpisodeQA, Content: "问：什么是导数", Score: -1, Importance: 0.5, CreatedAt: time.Now().Add(-2 * time.Hour)},
		{Course: "数学", Type: memory.EpisodeMistake, Content: "题目：求导 x^2 答错", Tags: []string{"导数"}, Score: 40, Importance: 0.9, CreatedAt: time.Now().Add(-time.Hour)},
		{Course: "物理", Type: memory.EpisodeQA, Content: "问：什么是惯性", Score: -1, Importance: 0.5, CreatedAt: time.Now()},
	}
	for _, ep := range episodes {
		require.NoError(t, repo.SaveEpisode(ep))
	}

	// 关键词命中，且不跨课程
	hits, err := repo.SearchEpisodes("数学", "导数", nil, 10)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	// importance 降序：错题排在问答前面
	require.Equal(t, memory.EpisodeMistake, hits[0].Type)
	require.Equal(t, []string{"导数"}, hits[0].Tags)

	// 按类型过滤
	hits, err = repo.SearchEpisodes("数学", "导数", []memory.EpisodeType{memory.EpisodeMistake}, 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)

	// 标签也参与关键词匹配
	hits, err = repo.SearchEpisodes("物理", "惯性", nil, 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
}

func TestEpisodeRepository_Recent(t *testing.T) {
	repo, err := NewEpisodeRepository(openTestDB(t))
	require.NoError(t, err)

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		require.NoError(t, repo.SaveEpisode(&memory.Episode{
			Course:    "数学",
			Type:      memory.EpisodeMistake,
			Content:   "错题",
			Score:     30,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	recent, err := repo.RecentEpisodes("数学", []memory.EpisodeType{memory.EpisodeMistake}, 3)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	// 时间倒序
	require.True(t, recent[0].CreatedAt.After(recent[1].CreatedAt))
}

func TestEpisodeRepository_WeakPoints(t *testing.T) {
	repo, err := NewEpisodeRepository(openTestDB(t))
	require.NoError(t, err)

	// 不存在时返回 nil
	wp, err := repo.GetWeakPoint("数学", "导数")
	require.NoError(t, err)
	require.Nil(t, wp)

	require.NoError(t, repo.PutWeakPoint(&memory.WeakPoint{
		Course: "数学", Tag: "导数", Weak: true, PassStreak: 0, UpdatedAt: time.Now(),
	}))
	require.NoError(t, repo.PutWeakPoint(&memory.WeakPoint{
		Course: "数学", Tag: "积分", Weak: false, PassStreak: 2, UpdatedAt: time.Now(),
	}))

	wp, err = repo.GetWeakPoint("数学", "导数")
	require.NoError(t, err)
	require.NotNil(t, wp)
	require.True(t, wp.Weak)

	// 只列出薄弱中的标签
	tags, err := repo.ListWeakTags("数学")
	require.NoError(t, err)
	require.Equal(t, []string{"导数"}, tags)

	// 覆盖写：清除薄弱标记
	wp.Weak = false
	require.NoError(t, repo.PutWeakPoint(wp))
	tags, err = repo.ListWeakTags("数学")
	require.NoError(t, err)
	require.Empty(t, tags)
}

func TestQuizStateRepository_RoundTrip(t *testing.T) {
	repo, err := NewQuizStateRepository(openTestDB(t))
	require.NoError(t, err)

	// 不存在返回 nil
	state, err := repo.Get("sess-1")
	require.NoError(t, err)
	require.Nil(t, state)

	quiz := &session.Quiz{
		Question:       "求导 x^2",
		StandardAnswer: "2x",
		Rubric:         "写出导数定义可得一半分",
		Difficulty:     session.DifficultyEasy,
		Concept:        "导数",
	}
	require.NoError(t, repo.Put(&session.QuizState{
		SessionID:   "sess-1",
		Course:      "数学",
		Mode:        session.ModePractice,
		Phase:       session.PhaseQuizPosted,
		PendingQuiz: quiz,
	}))

	state, err = repo.Get("sess-1")
	require.NoError(t, err)
	require.NotNil(t, state)
	require.Equal(t, session.PhaseQuizPosted, state.Phase)
	require.NotNil(t, state.PendingQuiz)
	require.Equal(t, "2x", state.PendingQuiz.StandardAnswer)

	// 覆盖写：评分后回到 idle，待答题目清空
	require.NoError(t, repo.Put(&session.QuizState{
		SessionID: "sess-1",
		Course:    "数学",
		Mode:      session.ModePractice,
		Phase:     session.PhaseIdle,
	}))
	state, err = repo.Get("sess-1")
	require.NoError(t, err)
	require.Equal(t, session.PhaseIdle, state.Phase)
	require.Nil(t, state.PendingQuiz)

	// 删除
	require.NoError(t, repo.Delete("sess-1"))
	state, err = repo.Get("sess-1")
	require.NoError(t, err)
	require.Nil(t, state)
	require.NoError(t, repo.Delete("sess-1"))
}
