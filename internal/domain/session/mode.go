package session

import (
	"errors"
	"strings"
)

// Mode 学习模式，决定工具策略和 RAG 行为
// 模式由外部在会话开始时选定，单次会话内保持不变
type Mode string

const (
	// ModeLearn 学习模式：讲解问答
	ModeLearn Mode = "learn"
	// ModePractice 练习模式：出题 + 评分
	ModePractice Mode = "practice"
	// ModeExam 考试模式：模拟考试，工具受限
	ModeExam Mode = "exam"
)

// ErrUnknownMode 未知模式
var ErrUnknownMode = errors.New("unknown mode")

// ParseMode 解析模式字符串
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeLearn:
		return ModeLearn, nil
	case ModePractice:
		return ModePractice, nil
	case ModeExam:
		return ModeExam, nil
	default:
		return "", ErrUnknownMode
	}
}

// Tool 工具能力枚举
type Tool string

const (
	ToolCalculator   Tool = "calculator"
	ToolWebSearch    Tool = "websearch"
	ToolFileWriter   Tool = "filewriter"
	ToolMemorySearch Tool = "memory_search"
	ToolMindmap      Tool = "mindmap"
	ToolDatetime     Tool = "datetime"
)

// Style 输出风格标签
type Style string

const (
	StyleStepByStep Style = "step_by_step"
	StyleHintFirst  Style = "hint_first"
	StyleDirect     Style = "direct"
)
