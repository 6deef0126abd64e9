// Package session 会话编排：角色路由、策略裁剪、评分落盘
package session

import (
	"github.com/toheart/courseagent/internal/domain/session"
)

// ToolRequest 模型提出的单次工具调用请求
type ToolRequest struct {
	Tool session.Tool      `json:"tool"`
	Args map[string]string `json:"args,omitempty"`
}

// RoutedPlan 路由器提出的执行计划，裁剪前
type RoutedPlan struct {
	RAGEnabled bool          `json:"rag_enabled"`
	Tools      []ToolRequest `json:"tools,omitempty"`
	Style      session.Style `json:"style,omitempty"`
}

// policyTable 模式 → 基线策略
// 策略表是硬边界：路由器提出的计划只能在这个范围内收缩
var policyTable = map[session.Mode]session.Plan{
	session.ModeLearn: {
		RAGEnabled: true,
		AllowedTools: []session.Tool{
			session.ToolCalculator,
			session.ToolWebSearch,
			session.ToolFileWriter,
			session.ToolMemorySearch,
			session.ToolMindmap,
			session.ToolDatetime,
		},
		Style: session.StyleStepByStep,
	},
	session.ModePractice: {
		RAGEnabled: true,
		AllowedTools: []session.Tool{
			session.ToolCalculator,
			session.ToolFileWriter,
			session.ToolMemorySearch,
			session.ToolDatetime,
		},
		Style: session.StyleHintFirst,
	},
	session.ModeExam: {
		RAGEnabled: true,
		AllowedTools: []session.Tool{
			session.ToolCalculator,
			session.ToolDatetime,
		},
		Style: session.StyleDirect,
	},
}

// PlanFor 返回模式的基线策略副本
func PlanFor(mode session.Mode) session.Plan {
	base := policyTable[mode]
	plan := session.Plan{
		RAGEnabled: base.RAGEnabled,
		Style:      base.Style,
	}
	plan.AllowedTools = append(plan.AllowedTools, base.AllowedTools...)
	return plan
}

// ClipPlan 用策略表裁剪路由器的计划
// 返回最终生效的 Plan、放行的工具请求和被拦截的工具请求；
// 被拦截的请求绝不执行，只进调用记录
func ClipPlan(mode session.Mode, routed *RoutedPlan) (session.Plan, []ToolRequest, []ToolRequest) {
	base := PlanFor(mode)

	plan := session.Plan{
		// RAG 只能收缩：策略禁用时路由器无法开启
		RAGEnabled:   base.RAGEnabled && routed.RAGEnabled,
		AllowedTools: base.AllowedTools,
		Style:        base.Style,
	}
	// 风格可由路由器在基线内调整，空值回落到基线
	if routed.Style != "" {
		plan.Style = routed.Style
	}

	var allowed, dropped []ToolRequest
	for _, req := range routed.Tools {
		if plan.Allows(req.Tool) {
			allowed = append(allowed, req)
		} else {
			dropped = append(dropped, req)
		}
	}
	return plan, allowed, dropped
}
