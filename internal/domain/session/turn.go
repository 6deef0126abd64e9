package session

import "github.com/toheart/courseagent/internal/domain/rag"

// ChatMessage 对话消息
type ChatMessage struct {
	// Role user / assistant / system
	Role string `json:"role"`
	// Content 消息正文
	Content string `json:"content"`
}

// TurnRequest 单轮请求
type TurnRequest struct {
	// Course 课程名（已校验）
	Course string `json:"course"`
	// Mode 学习模式
	Mode Mode `json:"mode"`
	// Message 本轮用户消息
	Message string `json:"message"`
	// History 之前的对话历史，不包含 Message 本身
	History []ChatMessage `json:"history"`
	// SessionID 可选的会话标识；提供时启用会话内测验状态机，
	// 缺省时回退到基于历史内容的启发式判定
	SessionID string `json:"session_id,omitempty"`
}

// ToolCallStatus 工具调用状态
type ToolCallStatus string

const (
	// ToolCallOK 调用成功
	ToolCallOK ToolCallStatus = "ok"
	// ToolCallError 调用失败
	ToolCallError ToolCallStatus = "error"
	// ToolCallDropped 被策略表拦截，未执行，无副作用
	ToolCallDropped ToolCallStatus = "dropped_by_policy"
)

// ToolCall 工具调用记录
// 被策略拦截的请求也会出现在记录里，状态为 dropped_by_policy
type ToolCall struct {
	Tool   Tool              `json:"tool"`
	Args   map[string]string `json:"args,omitempty"`
	Status ToolCallStatus    `json:"status"`
	Result string            `json:"result,omitempty"`
	Error  string            `json:"error,omitempty"`
}

// TurnResult 单轮结果
type TurnResult struct {
	// Message 助手回复正文
	Message string `json:"message"`
	// Citations 教材引用
	Citations []rag.Citation `json:"citations,omitempty"`
	// ToolCalls 本轮全部工具调用记录（含被拦截项）
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
	// Warnings 非致命问题（如记录落盘失败），不影响回复本身
	Warnings []string `json:"warnings,omitempty"`
}

// StreamEvent 流式响应事件
// 每个事件自包含，可独立解析；文本分片按序拼接即完整回复
type StreamEvent struct {
	// Type delta / result / done
	Type string `json:"type"`
	// Delta 增量文本（Type == delta 时有效）
	Delta string `json:"delta,omitempty"`
	// Result 最终结果（Type == result 时有效）
	Result *TurnResult `json:"result,omitempty"`
}

// 流式事件类型
const (
	StreamEventDelta  = "delta"
	StreamEventResult = "result"
	StreamEventDone   = "done"
)
