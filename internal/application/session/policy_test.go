package session

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/toheart/courseagent/internal/domain/session"
)

func TestPlanFor_ReturnsCopy(t *testing.T) {
	plan := PlanFor(session.ModeLearn)
	plan.AllowedTools[0] = session.Tool("tampered")

	again := PlanFor(session.ModeLearn)
	require.Equal(t, session.ToolCalculator, again.AllowedTools[0], "策略表不能被调用方修改")
}

func TestClipPlan_ExamDropsWebSearch(t *testing.T) {
	routed := &RoutedPlan{
		RAGEnabled: true,
		Tools: []ToolRequest{
			{Tool: session.ToolWebSearch, Args: map[string]string{"query": "答案"}},
			{Tool: session.ToolCalculator, Args: map[string]string{"expression": "1+1"}},
		},
	}

	plan, allowed, dropped := ClipPlan(session.ModeExam, routed)

	require.True(t, plan.RAGEnabled)
	require.Equal(t, session.StyleDirect, plan.Style)

	// 考试模式下联网搜索被拦截，计算器放行
	require.Len(t, allowed, 1)
	require.Equal(t, session.ToolCalculator, allowed[0].Tool)
	require.Len(t, dropped, 1)
	require.Equal(t, session.ToolWebSearch, dropped[0].Tool)
}

func TestClipPlan_RouterCannotEnableBeyondPolicy(t *testing.T) {
	// 路由器提出练习模式使用思维导图：不在白名单，必须落入 dropped
	routed := &RoutedPlan{
		RAGEnabled: true,
		Tools: []ToolRequest{
			{Tool: session.ToolMindmap},
		},
	}
	_, allowed, dropped := ClipPlan(session.ModePractice, routed)
	require.Empty(t, allowed)
	require.Len(t, dropped, 1)
}

func TestClipPlan_RAGOnlyShrinks(t *testing.T) {
	// 路由器可以关闭 RAG
	plan, _, _ := ClipPlan(session.ModeLearn, &RoutedPlan{RAGEnabled: false})
	require.False(t, plan.RAGEnabled)

	// 路由器开启时维持基线
	plan, _, _ = ClipPlan(session.ModeLearn, &RoutedPlan{RAGEnabled: true})
	require.True(t, plan.RAGEnabled)
}

func TestClipPlan_StyleOverride(t *testing.T) {
	plan, _, _ := ClipPlan(session.ModeLearn, &RoutedPlan{
		RAGEnabled: true,
		Style:      session.StyleHintFirst,
	})
	require.Equal(t, session.StyleHintFirst, plan.Style)

	// 空风格回落到基线
	plan, _, _ = ClipPlan(session.ModeLearn, &RoutedPlan{RAGEnabled: true})
	require.Equal(t, session.StyleStepByStep, plan.Style)
}

func TestClipPlan_LearnAllowsFullToolset(t *testing.T) {
	routed := &RoutedPlan{
		RAGEnabled: true,
		Tools: []ToolRequest{
			{Tool: session.ToolCalculator},
			{Tool: session.ToolWebSearch},
			{Tool: session.ToolFileWriter},
			{Tool: session.ToolMemorySearch},
			{Tool: session.ToolMindmap},
			{Tool: session.ToolDatetime},
		},
	}
	_, allowed, dropped := ClipPlan(session.ModeLearn, routed)
	require.Len(t, allowed, 6)
	require.Empty(t, dropped)
}
