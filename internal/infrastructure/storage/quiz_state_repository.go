package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/toheart/courseagent/internal/domain/session"
)

// quizStateRepository 会话测验状态 SQLite 仓储实现
// 进程重启后进行中的测验仍可接续作答
type quizStateRepository struct {
	db *sql.DB
}

// NewQuizStateRepository 创建测验状态仓储实例
func NewQuizStateRepository(db *sql.DB) (session.QuizStateRepository, error) {
	createTableSQL := `
	CREATE TABLE IF NOT EXISTS quiz_states (
		session_id TEXT PRIMARY KEY,
		course TEXT NOT NULL,
		mode TEXT NOT NULL,
		phase TEXT NOT NULL,
		pending_quiz TEXT,
		updated_at INTEGER NOT NULL
	);`

	if _, err := db.Exec(createTableSQL); err != nil {
		return nil, fmt.Errorf("failed to create quiz_states table: %w", err)
	}

	return &quizStateRepository{db: db}, nil
}

// Get 读取会话状态，不存在时返回 nil
func (r *quizStateRepository) Get(sessionID string) (*session.QuizState, error) {
	query := `
		SELECT session_id, course, mode, phase, pending_quiz
		FROM quiz_states
		WHERE session_id = ?`

	var state session.QuizState
	var mode, phase string
	var pendingQuiz sql.NullString

	err := r.db.QueryRow(query, sessionID).Scan(&state.SessionID, &state.Course, &mode, &phase, &pendingQuiz)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get quiz state: %w", err)
	}

	state.Mode = session.Mode(mode)
	state.Phase = session.QuizPhase(phase)
	if pendingQuiz.Valid && pendingQuiz.String != "" {
		var quiz session.Quiz
		if err := json.Unmarshal([]byte(pendingQuiz.String), &quiz); err != nil {
			return nil, fmt.Errorf("failed to parse pending quiz: %w", err)
		}
		state.PendingQuiz = &quiz
	}

	return &state, nil
}

// Put 覆盖写入会话状态
func (r *quizStateRepository) Put(state *session.QuizState) error {
	var pendingQuiz sql.NullString
	if state.PendingQuiz != nil {
		data, err := json.Marshal(state.PendingQuiz)
		if err != nil {
			return fmt.Errorf("failed to marshal pending quiz: %w", err)
		}
		pendingQuiz = sql.NullString{String: string(data), Valid: true}
	}

	query := `
		INSERT OR REPLACE INTO quiz_states
		(session_id, course, mode, phase, pending_quiz, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`

	_, err := r.db.Exec(query,
		state.SessionID,
		state.Course,
		string(state.Mode),
		string(state.Phase),
		pendingQuiz,
		time.Now().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to put quiz state: %w", err)
	}

	return nil
}

// Delete 删除会话状态
func (r *quizStateRepository) Delete(sessionID string) error {
	if _, err := r.db.Exec(`DELETE FROM quiz_states WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("failed to delete quiz state: %w", err)
	}
	return nil
}
