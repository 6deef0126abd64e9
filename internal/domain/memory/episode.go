package memory

import "time"

// EpisodeType 情景记忆事件类型
type EpisodeType string

const (
	// EpisodeQA 学习模式问答
	EpisodeQA EpisodeType = "qa"
	// EpisodePractice 练习评分事件
	EpisodePractice EpisodeType = "practice"
	// EpisodeExam 考试评分事件
	EpisodeExam EpisodeType = "exam"
	// EpisodeMistake 错题事件（score < 阈值）
	EpisodeMistake EpisodeType = "mistake"
)

// Episode 一条情景记忆
// 只追加，按 (course, tag) 聚合出薄弱点视图
type Episode struct {
	// ID UUID
	ID string `json:"id"`
	// Course 课程名
	Course string `json:"course"`
	// Type 事件类型
	Type EpisodeType `json:"type"`
	// Content 事件的自然语言描述（题目 + 答案摘要）
	Content string `json:"content"`
	// Tags 知识点标签
	Tags []string `json:"tags"`
	// Score 得分 0~100；问答事件为 -1
	Score float64 `json:"score"`
	// Importance 0~1，错题 0.9，普通问答 0.5
	Importance float64 `json:"importance"`
	// CreatedAt 发生时间
	CreatedAt time.Time `json:"created_at"`
}

// WeakPoint 某课程下一个标签的薄弱状态
type WeakPoint struct {
	// Course 课程名
	Course string `json:"course"`
	// Tag 知识点标签
	Tag string `json:"tag"`
	// Weak 是否处于薄弱状态
	Weak bool `json:"weak"`
	// PassStreak 连续达标次数，达到阈值后清除薄弱标记
	PassStreak int `json:"pass_streak"`
	// UpdatedAt 最近一次更新时间
	UpdatedAt time.Time `json:"updated_at"`
}

// Store 情景记忆存储接口
// 写路径必须串行（单逻辑写者），读可并发
type Store interface {
	// SaveEpisode 写入一条情景记忆
	SaveEpisode(ep *Episode) error
	// SearchEpisodes 关键词检索，按 importance 降序、时间倒序
	SearchEpisodes(course, query string, types []EpisodeType, topK int) ([]*Episode, error)
	// RecentEpisodes 按时间倒序取最近记录
	RecentEpisodes(course string, types []EpisodeType, limit int) ([]*Episode, error)
	// GetWeakPoint 读取薄弱点状态，不存在时返回 nil
	GetWeakPoint(course, tag string) (*WeakPoint, error)
	// PutWeakPoint 覆盖写入薄弱点状态
	PutWeakPoint(wp *WeakPoint) error
	// ListWeakTags 列出当前处于薄弱状态的标签
	ListWeakTags(course string) ([]string, error)
}
