package session

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/toheart/courseagent/internal/domain/session"
)

func TestClipHistory_Window(t *testing.T) {
	var history []session.ChatMessage
	for i := 0; i < 30; i++ {
		history = append(history, session.ChatMessage{
			Role:    "user",
			Content: fmt.Sprintf("消息 %d", i),
		})
	}

	clipped := clipHistory(history)
	require.Len(t, clipped, HistoryWindow)
	// 保留的是最近的 N 条
	require.Equal(t, "消息 10", clipped[0].Content)
	require.Equal(t, "消息 29", clipped[len(clipped)-1].Content)
}

func TestClipHistory_ShortHistory(t *testing.T) {
	history := []session.ChatMessage{{Role: "user", Content: "你好"}}
	require.Equal(t, history, clipHistory(history))
	require.Nil(t, clipHistory(nil))
}

func TestIsAnswering_ExplicitState(t *testing.T) {
	o := &Orchestrator{}
	quiz := &session.Quiz{Question: "q", StandardAnswer: "a"}

	// 已出题 + 有待答题目 → 在作答
	state := &session.QuizState{Phase: session.PhaseQuizPosted, PendingQuiz: quiz}
	require.True(t, o.isAnswering(state, nil))

	// idle 状态即使历史带标记也不算作答，状态机优先
	history := []session.ChatMessage{
		{Role: "assistant", Content: QuizMarker + " 求导 x^2"},
	}
	state = &session.QuizState{Phase: session.PhaseIdle}
	require.False(t, o.isAnswering(state, history))

	// quiz_posted 但题目丢失视为没有进行中的测验
	state = &session.QuizState{Phase: session.PhaseQuizPosted}
	require.False(t, o.isAnswering(state, nil))
}

func TestIsAnswering_Heuristic(t *testing.T) {
	o := &Orchestrator{}

	// 最后一条助手消息带出题标记 → 在作答
	history := []session.ChatMessage{
		{Role: "user", Content: "出道题"},
		{Role: "assistant", Content: QuizMarker + " 求导 x^2（难度：medium）"},
	}
	require.True(t, o.isAnswering(nil, history))

	// 最后一条助手消息是普通讲解 → 新出题
	history = []session.ChatMessage{
		{Role: "assistant", Content: QuizMarker + " 旧题目"},
		{Role: "user", Content: "答案是 2x"},
		{Role: "assistant", Content: "回答正确，继续加油"},
	}
	require.False(t, o.isAnswering(nil, history))

	// 空历史
	require.False(t, o.isAnswering(nil, nil))
}

func TestPendingQuiz_FromState(t *testing.T) {
	o := &Orchestrator{}
	quiz := &session.Quiz{Question: "q", StandardAnswer: "标准答案"}
	state := &session.QuizState{Phase: session.PhaseQuizPosted, PendingQuiz: quiz}

	got := o.pendingQuiz(state, nil)
	require.Same(t, quiz, got)
}

func TestPendingQuiz_HeuristicReconstruction(t *testing.T) {
	o := &Orchestrator{}
	history := []session.ChatMessage{
		{Role: "assistant", Content: QuizMarker + "\n计算 2+2 的值\n（难度：easy）"},
	}

	quiz := o.pendingQuiz(nil, history)
	require.NotNil(t, quiz)
	// 题面恢复，难度后缀剥离
	require.Equal(t, "计算 2+2 的值", quiz.Question)
	// 无存档标准答案时带占位说明，评分角色按题目判卷
	require.NotEmpty(t, quiz.StandardAnswer)
}

func TestQuizQuery(t *testing.T) {
	require.Equal(t, "请考我导数", quizQuery("请考我导数", []string{"积分"}))
	// 消息为空时用薄弱点兜底
	require.Equal(t, "导数 积分", quizQuery("  ", []string{"导数", "积分"}))
	// 都没有时用默认查询
	require.NotEmpty(t, quizQuery("", nil))
}
