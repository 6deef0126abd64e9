package session

import (
	"errors"
	"strings"

	"github.com/toheart/courseagent/internal/domain/rag"
)

// Difficulty 题目难度
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Quiz 出题结果
// 所有必填字段在构造时校验，不允许半成品流入评分环节
type Quiz struct {
	Question       string     `json:"question"`
	StandardAnswer string     `json:"standard_answer"`
	Rubric         string     `json:"rubric"`
	Difficulty     Difficulty `json:"difficulty"`
	Chapter        string     `json:"chapter,omitempty"`
	Concept        string     `json:"concept,omitempty"`
}

// ErrInvalidQuiz Quiz 缺少必填字段
var ErrInvalidQuiz = errors.New("quiz missing required fields")

// NewQuiz 构造并校验 Quiz
func NewQuiz(question, standardAnswer, rubric string, difficulty Difficulty) (*Quiz, error) {
	if strings.TrimSpace(question) == "" || strings.TrimSpace(standardAnswer) == "" {
		return nil, ErrInvalidQuiz
	}
	if difficulty == "" {
		difficulty = DifficultyMedium
	}
	return &Quiz{
		Question:       question,
		StandardAnswer: standardAnswer,
		Rubric:         rubric,
		Difficulty:     difficulty,
	}, nil
}

// GradeReport 评分报告
type GradeReport struct {
	// Score 0~100
	Score float64 `json:"score"`
	// Feedback 评语
	Feedback string `json:"feedback"`
	// MistakeTags 错误类型标签，如 "概念性错误"、"计算错误"
	MistakeTags []string `json:"mistake_tags"`
	// Citations 评分参考的教材引用
	Citations []rag.Citation `json:"citations,omitempty"`
}

// ErrInvalidGrade 分数越界
var ErrInvalidGrade = errors.New("grade score out of range")

// NewGradeReport 构造并校验评分报告
func NewGradeReport(score float64, feedback string, mistakeTags []string) (*GradeReport, error) {
	if score < 0 || score > 100 {
		return nil, ErrInvalidGrade
	}
	if mistakeTags == nil {
		mistakeTags = []string{}
	}
	return &GradeReport{Score: score, Feedback: feedback, MistakeTags: mistakeTags}, nil
}

// GradingOutcome 一次评分产出
// 无论评分来自独立 Grader 还是练习/考试内联评估，统一汇入同一个
// 持久化 + 记忆更新入口，保证恰好处理一次
type GradingOutcome struct {
	// Mode 产生评分的模式（practice 或 exam）
	Mode Mode
	// UserMessage 被评分的学生答案，提交时即捕获
	UserMessage string
	// Quiz 对应的题目
	Quiz *Quiz
	// Grade 评分报告
	Grade *GradeReport
}
