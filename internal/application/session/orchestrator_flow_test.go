package session

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	appmemory "github.com/toheart/courseagent/internal/application/memory"
	apprag "github.com/toheart/courseagent/internal/application/rag"
	"github.com/toheart/courseagent/internal/application/tools"
	domainmem "github.com/toheart/courseagent/internal/domain/memory"
	"github.com/toheart/courseagent/internal/domain/session"
	"github.com/toheart/courseagent/internal/infrastructure/config"
	"github.com/toheart/courseagent/internal/infrastructure/embedding"
	"github.com/toheart/courseagent/internal/infrastructure/llm"
	"github.com/toheart/courseagent/internal/infrastructure/records"
	"github.com/toheart/courseagent/internal/infrastructure/vector"
	"github.com/toheart/courseagent/internal/infrastructure/workspace"
)

// scriptedChat 按脚本顺序回复的对话模型
type scriptedChat struct {
	mu        sync.Mutex
	responses []string
	calls     int
}

func (c *scriptedChat) Chat(_ context.Context, _ []llm.Message, _ ...llm.Option) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.calls >= len(c.responses) {
		return "", fmt.Errorf("脚本外的第 %d 次模型调用", c.calls+1)
	}
	resp := c.responses[c.calls]
	c.calls++
	return resp, nil
}

func (c *scriptedChat) ChatStream(ctx context.Context, messages []llm.Message, emit func(delta string) error, opts ...llm.Option) (string, error) {
	resp, err := c.Chat(ctx, messages, opts...)
	if err != nil {
		return "", err
	}
	if emit != nil {
		if err := emit(resp); err != nil {
			return resp, err
		}
	}
	return resp, nil
}

// recordingSearcher 记录调用次数的外部搜索桩
type recordingSearcher struct {
	calls int
}

func (r *recordingSearcher) Search(context.Context, string) (string, error) {
	r.calls++
	return "搜索结果", nil
}

// stubMemStore 内存版情景记忆存储
type stubMemStore struct {
	episodes []*domainmem.Episode
	weak     map[string]*domainmem.WeakPoint
}

func newStubMemStore() *stubMemStore {
	return &stubMemStore{weak: make(map[string]*domainmem.WeakPoint)}
}

func (s *stubMemStore) SaveEpisode(ep *domainmem.Episode) error {
	s.episodes = append(s.episodes, ep)
	return nil
}

func (s *stubMemStore) SearchEpisodes(string, string, []domainmem.EpisodeType, int) ([]*domainmem.Episode, error) {
	return nil, nil
}

func (s *stubMemStore) RecentEpisodes(string, []domainmem.EpisodeType, int) ([]*domainmem.Episode, error) {
	return nil, nil
}

func (s *stubMemStore) GetWeakPoint(course, tag string) (*domainmem.WeakPoint, error) {
	return s.weak[course+"/"+tag], nil
}

func (s *stubMemStore) PutWeakPoint(wp *domainmem.WeakPoint) error {
	s.weak[wp.Course+"/"+wp.Tag] = wp
	return nil
}

func (s *stubMemStore) ListWeakTags(string) ([]string, error) {
	return nil, nil
}

// fakeStateRepo 内存版测验状态存取
type fakeStateRepo struct {
	states map[string]*session.QuizState
}

func newFakeStateRepo() *fakeStateRepo {
	return &fakeStateRepo{states: make(map[string]*session.QuizState)}
}

func (f *fakeStateRepo) Get(sessionID string) (*session.QuizState, error) {
	return f.states[sessionID], nil
}

func (f *fakeStateRepo) Put(state *session.QuizState) error {
	f.states[state.SessionID] = state
	return nil
}

func (f *fakeStateRepo) Delete(sessionID string) error {
	delete(f.states, sessionID)
	return nil
}

// newFlowOrchestrator 装配全流程编排器，工作区落在临时目录
func newFlowOrchestrator(t *testing.T, chat *scriptedChat, searcher tools.Searcher) (*Orchestrator, *fakeStateRepo, *stubMemStore) {
	t.Helper()
	t.Setenv(config.EnvDataDir, t.TempDir())
	config.ResetDataDir()
	t.Cleanup(config.ResetDataDir)

	wsStore, err := workspace.NewStore()
	require.NoError(t, err)
	_, err = wsStore.Create("数学", "理科")
	require.NoError(t, err)

	retriever := apprag.NewRetriever(
		wsStore,
		embedding.NewClient(&config.EmbeddingConfig{Dimension: 4}),
		vector.NewStore(),
		&config.RetrievalConfig{TopK: 3, MaxContextTokens: 2048},
	)
	memStore := newStubMemStore()
	tracker := appmemory.NewTracker(memStore, &config.MemoryConfig{MasteryThreshold: 60, ClearStreak: 3})
	registry := tools.NewRegistry(
		tools.NewCalculator(),
		tools.NewDatetime(),
		tools.NewFileWriter(wsStore),
		tools.NewMemorySearch(tracker),
		tools.NewMindmap(wsStore),
		tools.NewWebSearch(searcher),
	)
	stateRepo := newFakeStateRepo()

	orch := NewOrchestrator(
		wsStore,
		retriever,
		NewRouter(chat),
		NewTutor(chat),
		NewQuizMaster(chat),
		NewGrader(chat),
		registry,
		tracker,
		records.NewStore(),
		stateRepo,
	)
	return orch, stateRepo, memStore
}

func TestRunTurn_ExamDropsWebSearch(t *testing.T) {
	// 路由器在考试模式提出 websearch + datetime：
	// websearch 不在考试白名单里，必须只记录不执行
	chat := &scriptedChat{responses: []string{
		`{"rag_enabled": false, "tools": [{"tool": "websearch", "args": {"query": "导数 最新资料"}}, {"tool": "datetime"}]}`,
		`{"question": "求导 x^3", "standard_answer": "3x^2", "rubric": "写出幂法则", "difficulty": "easy", "concept": "导数"}`,
	}}
	searcher := &recordingSearcher{}
	orch, _, _ := newFlowOrchestrator(t, chat, searcher)

	result, err := orch.RunTurn(context.Background(), &session.TurnRequest{
		Course:  "数学",
		Mode:    session.ModeExam,
		Message: "考我一道导数题",
	})
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(result.Message, QuizMarker), "出题消息应带标记: %q", result.Message)

	require.Len(t, result.ToolCalls, 2)
	// 被拦截的请求进记录，无结果无副作用
	require.Equal(t, session.ToolWebSearch, result.ToolCalls[0].Tool)
	require.Equal(t, session.ToolCallDropped, result.ToolCalls[0].Status)
	require.Empty(t, result.ToolCalls[0].Result)
	require.Equal(t, 0, searcher.calls, "被拦截的 websearch 不应触达搜索服务")
	// 白名单内的 datetime 正常执行
	require.Equal(t, session.ToolDatetime, result.ToolCalls[1].Tool)
	require.Equal(t, session.ToolCallOK, result.ToolCalls[1].Status)
	require.NotEmpty(t, result.ToolCalls[1].Result)

	// 路由器关掉了检索，本轮不产生引用
	require.Empty(t, result.Citations)
}

func TestRunTurn_GradeTurnRoutesPlan(t *testing.T) {
	// 作答轮同样先过路由器和策略表，再进评分
	chat := &scriptedChat{responses: []string{
		`{"rag_enabled": true, "tools": []}`,
		`{"score": 85, "feedback": "推导正确", "mistake_tags": []}`,
	}}
	orch, stateRepo, memStore := newFlowOrchestrator(t, chat, &recordingSearcher{})

	require.NoError(t, stateRepo.Put(&session.QuizState{
		SessionID: "s1",
		Course:    "数学",
		Mode:      session.ModePractice,
		Phase:     session.PhaseQuizPosted,
		PendingQuiz: &session.Quiz{
			Question:       "求导 x^2",
			StandardAnswer: "2x",
			Rubric:         "写出幂法则",
			Difficulty:     session.DifficultyEasy,
			Concept:        "导数",
		},
	}))

	result, err := orch.RunTurn(context.Background(), &session.TurnRequest{
		Course:    "数学",
		Mode:      session.ModePractice,
		Message:   "答案是 2x",
		SessionID: "s1",
	})
	require.NoError(t, err)
	require.Contains(t, result.Message, "85")

	// 路由器 + 评分角色各调用一次
	require.Equal(t, 2, chat.calls)
	// 评分落盘：状态机回到 idle，记忆沉淀一条练习事件
	require.Equal(t, session.PhaseIdle, stateRepo.states["s1"].Phase)
	require.Len(t, memStore.episodes, 1)
	require.Equal(t, domainmem.EpisodePractice, memStore.episodes[0].Type)
}
