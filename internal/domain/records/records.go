// Package records 练习、考试、错题的落盘记录类型
package records

import (
	"time"

	"github.com/toheart/courseagent/internal/domain/session"
)

// PracticeRecord 单次练习答题记录（jsonl 追加一行）
type PracticeRecord struct {
	// Timestamp 评分完成时间
	Timestamp time.Time `json:"timestamp"`
	// SessionID 产生记录的会话
	SessionID string `json:"session_id,omitempty"`
	Question  string `json:"question"`
	// StandardAnswer 标准答案
	StandardAnswer string `json:"standard_answer"`
	// UserAnswer 学生作答原文
	UserAnswer string             `json:"user_answer"`
	Score      float64            `json:"score"`
	Feedback   string             `json:"feedback"`
	Tags       []string           `json:"tags,omitempty"`
	Difficulty session.Difficulty `json:"difficulty,omitempty"`
	Concept    string             `json:"concept,omitempty"`
}

// ExamItem 考试中的单道题
type ExamItem struct {
	Question       string   `json:"question"`
	StandardAnswer string   `json:"standard_answer"`
	UserAnswer     string   `json:"user_answer"`
	Score          float64  `json:"score"`
	Feedback       string   `json:"feedback"`
	Tags           []string `json:"tags,omitempty"`
}

// ExamRecord 一场考试的完整记录（每场一个 json 文件）
type ExamRecord struct {
	SessionID  string     `json:"session_id"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt time.Time  `json:"finished_at"`
	Items      []ExamItem `json:"items"`
	// AverageScore 全部题目的平均分
	AverageScore float64 `json:"average_score"`
}

// MistakeRecord 错题记录（分数低于掌握线时追加）
type MistakeRecord struct {
	Timestamp time.Time    `json:"timestamp"`
	Mode      session.Mode `json:"mode"`
	Question  string       `json:"question"`
	// StandardAnswer 标准答案
	StandardAnswer string   `json:"standard_answer"`
	UserAnswer     string   `json:"user_answer"`
	Score          float64  `json:"score"`
	Feedback       string   `json:"feedback"`
	Tags           []string `json:"tags,omitempty"`
}
