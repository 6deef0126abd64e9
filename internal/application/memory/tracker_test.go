package memory

import (
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	domainmem "github.com/toheart/courseagent/internal/domain/memory"
	"github.com/toheart/courseagent/internal/domain/session"
	"github.com/toheart/courseagent/internal/infrastructure/config"
)

// fakeStore 内存版情景记忆存储
type fakeStore struct {
	episodes   []*domainmem.Episode
	weakPoints map[string]*domainmem.WeakPoint
}

func newFakeStore() *fakeStore {
	return &fakeStore{weakPoints: make(map[string]*domainmem.WeakPoint)}
}

func (f *fakeStore) SaveEpisode(ep *domainmem.Episode) error {
	f.episodes = append(f.episodes, ep)
	return nil
}

func (f *fakeStore) SearchEpisodes(course, query string, types []domainmem.EpisodeType, topK int) ([]*domainmem.Episode, error) {
	var out []*domainmem.Episode
	for _, ep := range f.episodes {
		if ep.Course == course && strings.Contains(ep.Content, query) {
			out = append(out, ep)
		}
	}
	if topK > 0 && len(out) > topK {
		out = out[:topK]
	}
	return out, nil
}

func (f *fakeStore) RecentEpisodes(course string, types []domainmem.EpisodeType, limit int) ([]*domainmem.Episode, error) {
	var out []*domainmem.Episode
	for i := len(f.episodes) - 1; i >= 0 && len(out) < limit; i-- {
		ep := f.episodes[i]
		if ep.Course != course {
			continue
		}
		for _, tp := range types {
			if ep.Type == tp {
				out = append(out, ep)
				break
			}
		}
	}
	return out, nil
}

func (f *fakeStore) GetWeakPoint(course, tag string) (*domainmem.WeakPoint, error) {
	return f.weakPoints[course+"/"+tag], nil
}

func (f *fakeStore) PutWeakPoint(wp *domainmem.WeakPoint) error {
	f.weakPoints[wp.Course+"/"+wp.Tag] = wp
	return nil
}

func (f *fakeStore) ListWeakTags(course string) ([]string, error) {
	var tags []string
	for _, wp := range f.weakPoints {
		if wp.Course == course && wp.Weak {
			tags = append(tags, wp.Tag)
		}
	}
	return tags, nil
}

func newTestTracker() (*Tracker, *fakeStore) {
	store := newFakeStore()
	cfg := &config.MemoryConfig{MasteryThreshold: 60, ClearStreak: 3}
	return NewTracker(store, cfg), store
}

func gradedOutcome(score float64, tags ...string) *session.GradingOutcome {
	return &session.GradingOutcome{
		Mode:        session.ModePractice,
		UserMessage: "我的答案",
		Quiz: &session.Quiz{
			Question:       "求导 x^2",
			StandardAnswer: "2x",
			Concept:        "导数",
		},
		Grade: &session.GradeReport{
			Score:       score,
			Feedback:    "评语",
			MistakeTags: tags,
		},
	}
}

func TestBelowMastery(t *testing.T) {
	tracker, _ := newTestTracker()
	require.True(t, tracker.BelowMastery(59.9))
	require.False(t, tracker.BelowMastery(60))
	require.False(t, tracker.BelowMastery(100))
}

func TestRecordGrading_LowScoreMarksWeak(t *testing.T) {
	tracker, store := newTestTracker()

	require.NoError(t, tracker.RecordGrading("数学", gradedOutcome(45, "计算错误")))

	// 低分沉淀为错题记忆，重要度 0.9
	require.Len(t, store.episodes, 1)
	ep := store.episodes[0]
	require.Equal(t, domainmem.EpisodeMistake, ep.Type)
	require.InDelta(t, 0.9, ep.Importance, 1e-9)

	// 错误标签和题目知识点都进薄弱点
	tags, err := tracker.WeakTags("数学")
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"计算错误", "导数"}, tags)
}

func TestRecordGrading_ClearAfterStreak(t *testing.T) {
	tracker, _ := newTestTracker()

	// 先打上薄弱标记
	require.NoError(t, tracker.RecordGrading("数学", gradedOutcome(40)))
	tags, _ := tracker.WeakTags("数学")
	require.Contains(t, tags, "导数")

	// 连续两次达标还不够
	require.NoError(t, tracker.RecordGrading("数学", gradedOutcome(85)))
	require.NoError(t, tracker.RecordGrading("数学", gradedOutcome(90)))
	tags, _ = tracker.WeakTags("数学")
	require.Contains(t, tags, "导数")

	// 第三次达标后清除
	require.NoError(t, tracker.RecordGrading("数学", gradedOutcome(75)))
	tags, _ = tracker.WeakTags("数学")
	require.NotContains(t, tags, "导数")
}

func TestRecordGrading_StreakResetOnFailure(t *testing.T) {
	tracker, store := newTestTracker()

	require.NoError(t, tracker.RecordGrading("数学", gradedOutcome(40)))
	require.NoError(t, tracker.RecordGrading("数学", gradedOutcome(80)))
	require.NoError(t, tracker.RecordGrading("数学", gradedOutcome(80)))
	// 又考砸：连胜清零
	require.NoError(t, tracker.RecordGrading("数学", gradedOutcome(30)))

	wp := store.weakPoints["数学/导数"]
	require.NotNil(t, wp)
	require.True(t, wp.Weak)
	require.Equal(t, 0, wp.PassStreak)

	// 再达标两次仍不能清除
	require.NoError(t, tracker.RecordGrading("数学", gradedOutcome(80)))
	require.NoError(t, tracker.RecordGrading("数学", gradedOutcome(80)))
	tags, _ := tracker.WeakTags("数学")
	require.Contains(t, tags, "导数")
}

// slowStore 在薄弱点读和写之间插入延迟，并统计读-改-写窗口内的并发进入数
type slowStore struct {
	*fakeStore
	inFlight    atomic.Int32
	maxInFlight atomic.Int32
}

func (s *slowStore) GetWeakPoint(course, tag string) (*domainmem.WeakPoint, error) {
	n := s.inFlight.Add(1)
	for {
		cur := s.maxInFlight.Load()
		if n <= cur || s.maxInFlight.CompareAndSwap(cur, n) {
			break
		}
	}
	// 拉大读和写之间的窗口，让丢失更新必然暴露
	time.Sleep(5 * time.Millisecond)
	return s.fakeStore.GetWeakPoint(course, tag)
}

func (s *slowStore) PutWeakPoint(wp *domainmem.WeakPoint) error {
	defer s.inFlight.Add(-1)
	return s.fakeStore.PutWeakPoint(wp)
}

func TestRecordGrading_ConcurrentPassesKeepStreak(t *testing.T) {
	store := &slowStore{fakeStore: newFakeStore()}
	cfg := &config.MemoryConfig{MasteryThreshold: 60, ClearStreak: 3}
	tracker := NewTracker(store, cfg)

	// 先打上薄弱标记
	require.NoError(t, tracker.RecordGrading("数学", gradedOutcome(40)))

	// 两次并发达标：连胜必须累加到 2，不能互相覆盖
	errCh := make(chan error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errCh <- tracker.RecordGrading("数学", gradedOutcome(80))
		}()
	}
	wg.Wait()
	close(errCh)
	for err := range errCh {
		require.NoError(t, err)
	}

	require.Equal(t, int32(1), store.maxInFlight.Load(), "薄弱点读-改-写必须串行")
	wp := store.weakPoints["数学/导数"]
	require.NotNil(t, wp)
	require.True(t, wp.Weak)
	require.Equal(t, 2, wp.PassStreak, "并发评分丢失了连胜更新")
}

func TestRecordGrading_PassOnNonWeakTagIsNoop(t *testing.T) {
	tracker, store := newTestTracker()

	// 从未薄弱的标签达标不产生薄弱点记录
	require.NoError(t, tracker.RecordGrading("数学", gradedOutcome(95)))
	require.Empty(t, store.weakPoints)
}

func TestRecordGrading_ExamMode(t *testing.T) {
	tracker, store := newTestTracker()

	outcome := gradedOutcome(85)
	outcome.Mode = session.ModeExam
	require.NoError(t, tracker.RecordGrading("数学", outcome))

	require.Equal(t, domainmem.EpisodeExam, store.episodes[0].Type)
}

func TestRecordGrading_NilGrade(t *testing.T) {
	tracker, store := newTestTracker()
	require.NoError(t, tracker.RecordGrading("数学", &session.GradingOutcome{}))
	require.Empty(t, store.episodes)
}

func TestRecordQA(t *testing.T) {
	tracker, store := newTestTracker()

	require.NoError(t, tracker.RecordQA("数学", "什么是导数", "导数是变化率"))
	require.Len(t, store.episodes, 1)
	ep := store.episodes[0]
	require.Equal(t, domainmem.EpisodeQA, ep.Type)
	require.Equal(t, -1.0, ep.Score)
	require.InDelta(t, 0.5, ep.Importance, 1e-9)
}
