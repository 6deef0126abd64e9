// Package memory 情景记忆与薄弱点追踪
package memory

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"log/slog"

	domainmem "github.com/toheart/courseagent/internal/domain/memory"
	"github.com/toheart/courseagent/internal/domain/session"
	"github.com/toheart/courseagent/internal/infrastructure/config"
	"github.com/toheart/courseagent/internal/infrastructure/log"
)

// Tracker 学习记忆追踪器
// 每次问答和评分都会沉淀为情景记忆；评分事件同时驱动薄弱点状态机：
// 低于掌握线的标签记为薄弱，连续达标次数到阈值后清除
// 写路径由 mu 串行化：薄弱点更新是读-改-写，并发评分会丢失连胜计数
type Tracker struct {
	mu     sync.Mutex
	store  domainmem.Store
	cfg    *config.MemoryConfig
	logger *slog.Logger
}

// NewTracker 创建记忆追踪器
func NewTracker(store domainmem.Store, cfg *config.MemoryConfig) *Tracker {
	return &Tracker{
		store:  store,
		cfg:    cfg,
		logger: log.NewModuleLogger("memory", "tracker"),
	}
}

// BelowMastery 分数是否低于掌握线
func (t *Tracker) BelowMastery(score float64) bool {
	return score < t.cfg.MasteryThreshold
}

// RecordQA 记录一次学习模式问答
func (t *Tracker) RecordQA(course, question, answer string) error {
	content := question
	if answer != "" {
		content = fmt.Sprintf("问：%s\n答：%s", question, summarize(answer, 200))
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	return t.store.SaveEpisode(&domainmem.Episode{
		Course:     course,
		Type:       domainmem.EpisodeQA,
		Content:    content,
		Score:      -1,
		Importance: 0.5,
		CreatedAt:  time.Now(),
	})
}

// RecordGrading 记录一次评分事件并更新薄弱点
// 评分事件的标签取自评分报告的错误标签和题目知识点
func (t *Tracker) RecordGrading(course string, outcome *session.GradingOutcome) error {
	if outcome == nil || outcome.Grade == nil {
		return nil
	}

	tags := gradingTags(outcome)
	score := outcome.Grade.Score

	epType := domainmem.EpisodePractice
	if outcome.Mode == session.ModeExam {
		epType = domainmem.EpisodeExam
	}
	importance := 0.5
	if t.BelowMastery(score) {
		epType = domainmem.EpisodeMistake
		importance = 0.9
	}

	content := fmt.Sprintf("题目：%s\n作答：%s\n得分：%.0f\n评语：%s",
		summarize(outcome.Quiz.Question, 200),
		summarize(outcome.UserMessage, 200),
		score,
		summarize(outcome.Grade.Feedback, 200),
	)

	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.store.SaveEpisode(&domainmem.Episode{
		Course:     course,
		Type:       epType,
		Content:    content,
		Tags:       tags,
		Score:      score,
		Importance: importance,
		CreatedAt:  time.Now(),
	}); err != nil {
		return err
	}

	return t.updateWeakPoints(course, tags, score)
}

// updateWeakPoints 薄弱点状态机
// 低分：标记薄弱并清零连胜；达标：薄弱标签连胜 +1，
// 连胜达到阈值后清除薄弱标记
// 调用方必须持有 t.mu
func (t *Tracker) updateWeakPoints(course string, tags []string, score float64) error {
	below := t.BelowMastery(score)
	for _, tag := range tags {
		wp, err := t.store.GetWeakPoint(course, tag)
		if err != nil {
			return err
		}

		if below {
			if wp == nil {
				wp = &domainmem.WeakPoint{Course: course, Tag: tag}
			}
			wp.Weak = true
			wp.PassStreak = 0
		} else {
			// 不薄弱的标签达标无需记录
			if wp == nil || !wp.Weak {
				continue
			}
			wp.PassStreak++
			if wp.PassStreak >= t.cfg.ClearStreak {
				wp.Weak = false
				wp.PassStreak = 0
				t.logger.Info("Weak point cleared", "course", course, "tag", tag)
			}
		}
		wp.UpdatedAt = time.Now()

		if err := t.store.PutWeakPoint(wp); err != nil {
			return err
		}
	}
	return nil
}

// Search 检索情景记忆
func (t *Tracker) Search(course, query string, topK int) ([]*domainmem.Episode, error) {
	return t.store.SearchEpisodes(course, query, nil, topK)
}

// RecentMistakes 最近的错题记忆
func (t *Tracker) RecentMistakes(course string, limit int) ([]*domainmem.Episode, error) {
	return t.store.RecentEpisodes(course, []domainmem.EpisodeType{domainmem.EpisodeMistake}, limit)
}

// WeakTags 当前薄弱的知识点标签
func (t *Tracker) WeakTags(course string) ([]string, error) {
	return t.store.ListWeakTags(course)
}

// gradingTags 提取评分事件的标签集合，去重去空
func gradingTags(outcome *session.GradingOutcome) []string {
	seen := make(map[string]bool)
	var tags []string
	add := func(tag string) {
		tag = strings.TrimSpace(tag)
		if tag == "" || seen[tag] {
			return
		}
		seen[tag] = true
		tags = append(tags, tag)
	}

	for _, tag := range outcome.Grade.MistakeTags {
		add(tag)
	}
	if outcome.Quiz != nil {
		add(outcome.Quiz.Concept)
		add(outcome.Quiz.Chapter)
	}
	return tags
}

// summarize 截断长文本，保留前 n 个字符
func summarize(s string, n int) string {
	s = strings.TrimSpace(s)
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
