package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/toheart/courseagent/internal/domain/memory"
)

// episodeRepository 情景记忆 SQLite 仓储实现
type episodeRepository struct {
	db *sql.DB
}

// NewEpisodeRepository 创建情景记忆仓储实例
func NewEpisodeRepository(db *sql.DB) (memory.Store, error) {
	if err := initMemoryTables(db); err != nil {
		return nil, err
	}
	return &episodeRepository{db: db}, nil
}

// initMemoryTables 初始化情景记忆和薄弱点表
func initMemoryTables(db *sql.DB) error {
	createEpisodesSQL := `
	CREATE TABLE IF NOT EXISTS episodes (
		id TEXT PRIMARY KEY,
		course TEXT NOT NULL,
		type TEXT NOT NULL,
		content TEXT NOT NULL,
		tags TEXT NOT NULL,
		score REAL NOT NULL,
		importance REAL NOT NULL,
		created_at INTEGER NOT NULL
	);`

	if _, err := db.Exec(createEpisodesSQL); err != nil {
		return fmt.Errorf("failed to create episodes table: %w", err)
	}

	createEpisodesIndexSQL := `
	CREATE INDEX IF NOT EXISTS idx_episodes_course_type ON episodes(course, type);
	CREATE INDEX IF NOT EXISTS idx_episodes_created_at ON episodes(created_at);`

	if _, err := db.Exec(createEpisodesIndexSQL); err != nil {
		return fmt.Errorf("failed to create episodes indexes: %w", err)
	}

	createWeakPointsSQL := `
	CREATE TABLE IF NOT EXISTS weak_points (
		course TEXT NOT NULL,
		tag TEXT NOT NULL,
		weak INTEGER NOT NULL,
		pass_streak INTEGER NOT NULL,
		updated_at INTEGER NOT NULL,
		PRIMARY KEY (course, tag)
	);`

	if _, err := db.Exec(createWeakPointsSQL); err != nil {
		return fmt.Errorf("failed to create weak_points table: %w", err)
	}

	return nil
}

// SaveEpisode 写入一条情景记忆
func (r *episodeRepository) SaveEpisode(ep *memory.Episode) error {
	if ep.ID == "" {
		ep.ID = uuid.New().String()
	}
	if ep.CreatedAt.IsZero() {
		ep.CreatedAt = time.Now()
	}

	tags, err := json.Marshal(ep.Tags)
	if err != nil {
		return fmt.Errorf("failed to marshal episode tags: %w", err)
	}

	query := `
		INSERT OR REPLACE INTO episodes
		(id, course, type, content, tags, score, importance, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = r.db.Exec(query,
		ep.ID,
		ep.Course,
		string(ep.Type),
		ep.Content,
		string(tags),
		ep.Score,
		ep.Importance,
		ep.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to save episode: %w", err)
	}

	return nil
}

// SearchEpisodes 关键词检索
// SQLite LIKE 匹配 content 和 tags，结果按 importance 降序、时间倒序
func (r *episodeRepository) SearchEpisodes(course, query string, types []memory.EpisodeType, topK int) ([]*memory.Episode, error) {
	if topK <= 0 {
		topK = 5
	}

	var sb strings.Builder
	sb.WriteString(`
		SELECT id, course, type, content, tags, score, importance, created_at
		FROM episodes
		WHERE course = ?`)
	args := []any{course}

	if q := strings.TrimSpace(query); q != "" {
		sb.WriteString(" AND (content LIKE ? OR tags LIKE ?)")
		pattern := "%" + q + "%"
		args = append(args, pattern, pattern)
	}
	if len(types) > 0 {
		sb.WriteString(" AND type IN (" + placeholders(len(types)) + ")")
		for _, t := range types {
			args = append(args, string(t))
		}
	}
	sb.WriteString(" ORDER BY importance DESC, created_at DESC LIMIT ?")
	args = append(args, topK)

	return r.queryEpisodes(sb.String(), args...)
}

// RecentEpisodes 按时间倒序取最近记录
func (r *episodeRepository) RecentEpisodes(course string, types []memory.EpisodeType, limit int) ([]*memory.Episode, error) {
	if limit <= 0 {
		limit = 10
	}

	var sb strings.Builder
	sb.WriteString(`
		SELECT id, course, type, content, tags, score, importance, created_at
		FROM episodes
		WHERE course = ?`)
	args := []any{course}

	if len(types) > 0 {
		sb.WriteString(" AND type IN (" + placeholders(len(types)) + ")")
		for _, t := range types {
			args = append(args, string(t))
		}
	}
	sb.WriteString(" ORDER BY created_at DESC LIMIT ?")
	args = append(args, limit)

	return r.queryEpisodes(sb.String(), args...)
}

// queryEpisodes 执行查询并反序列化
func (r *episodeRepository) queryEpisodes(query string, args ...any) ([]*memory.Episode, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query episodes: %w", err)
	}
	defer rows.Close()

	var episodes []*memory.Episode
	for rows.Next() {
		var ep memory.Episode
		var epType, tagsJSON string
		var createdAt int64

		if err := rows.Scan(&ep.ID, &ep.Course, &epType, &ep.Content, &tagsJSON,
			&ep.Score, &ep.Importance, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan episode: %w", err)
		}

		ep.Type = memory.EpisodeType(epType)
		ep.CreatedAt = time.UnixMilli(createdAt)
		if err := json.Unmarshal([]byte(tagsJSON), &ep.Tags); err != nil {
			ep.Tags = nil
		}
		episodes = append(episodes, &ep)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate episodes: %w", err)
	}

	return episodes, nil
}

// GetWeakPoint 读取薄弱点状态，不存在时返回 nil
func (r *episodeRepository) GetWeakPoint(course, tag string) (*memory.WeakPoint, error) {
	query := `
		SELECT course, tag, weak, pass_streak, updated_at
		FROM weak_points
		WHERE course = ? AND tag = ?`

	var wp memory.WeakPoint
	var weak int
	var updatedAt int64

	err := r.db.QueryRow(query, course, tag).Scan(&wp.Course, &wp.Tag, &weak, &wp.PassStreak, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get weak point: %w", err)
	}

	wp.Weak = weak != 0
	wp.UpdatedAt = time.UnixMilli(updatedAt)
	return &wp, nil
}

// PutWeakPoint 覆盖写入薄弱点状态
func (r *episodeRepository) PutWeakPoint(wp *memory.WeakPoint) error {
	if wp.UpdatedAt.IsZero() {
		wp.UpdatedAt = time.Now()
	}

	weak := 0
	if wp.Weak {
		weak = 1
	}

	query := `
		INSERT OR REPLACE INTO weak_points
		(course, tag, weak, pass_streak, updated_at)
		VALUES (?, ?, ?, ?, ?)`

	_, err := r.db.Exec(query, wp.Course, wp.Tag, weak, wp.PassStreak, wp.UpdatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to put weak point: %w", err)
	}

	return nil
}

// ListWeakTags 列出当前处于薄弱状态的标签
func (r *episodeRepository) ListWeakTags(course string) ([]string, error) {
	query := `
		SELECT tag FROM weak_points
		WHERE course = ? AND weak = 1
		ORDER BY updated_at DESC`

	rows, err := r.db.Query(query, course)
	if err != nil {
		return nil, fmt.Errorf("failed to list weak tags: %w", err)
	}
	defer rows.Close()

	var tags []string
	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			return nil, fmt.Errorf("failed to scan weak tag: %w", err)
		}
		tags = append(tags, tag)
	}
	return tags, rows.Err()
}

// placeholders 生成 n 个问号占位符
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
