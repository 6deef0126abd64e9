package session

import (
	"context"
	"encoding/json"
	"fmt"

	"log/slog"

	"github.com/toheart/courseagent/internal/domain/session"
	"github.com/toheart/courseagent/internal/infrastructure/llm"
	"github.com/toheart/courseagent/internal/infrastructure/log"
)

// Router 轮前路由器
// 让模型基于用户消息提出本轮计划（是否检索、调哪些工具），
// 输出只是建议，最终以策略表裁剪结果为准
type Router struct {
	llmClient ChatClient
	logger    *slog.Logger
}

// NewRouter 创建路由器
func NewRouter(llmClient ChatClient) *Router {
	return &Router{
		llmClient: llmClient,
		logger:    log.NewModuleLogger("session", "router"),
	}
}

const routerPrompt = `你是学习助手的调度器。根据学生消息决定本轮执行计划，以 JSON 输出，不要输出其他内容：
{
  "rag_enabled": 是否需要检索课程教材(bool),
  "tools": [{"tool": "工具名", "args": {"参数名": "参数值"}}],
  "style": "step_by_step | hint_first | direct"
}
可选工具：
%s
没有合适的工具就返回空数组。`

// Propose 提出本轮计划
// 模型输出不可解析时回退到保守默认值（检索开启、不调工具）
func (r *Router) Propose(ctx context.Context, mode session.Mode, message, toolsDesc string) *RoutedPlan {
	fallback := &RoutedPlan{RAGEnabled: true}

	system := fmt.Sprintf(routerPrompt, toolsDesc)
	content, err := r.llmClient.Chat(ctx, []llm.Message{
		{Role: "system", Content: system},
		{Role: "user", Content: message},
	}, llm.WithTemperature(0))
	if err != nil {
		r.logger.Warn("Router call failed, using fallback plan", "mode", mode, "error", err)
		return fallback
	}

	var routed RoutedPlan
	if err := json.Unmarshal([]byte(llm.ExtractJSON(content)), &routed); err != nil {
		r.logger.Warn("Router output unparseable, using fallback plan", "error", err)
		return fallback
	}
	return &routed
}
