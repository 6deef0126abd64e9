package session

// QuizPhase 会话内测验状态机
// 有会话标识时使用显式状态机判定本轮是否在回答已出的题目；
// 无会话标识时只能基于历史内容做启发式判定（与无状态来源保持兼容）
type QuizPhase string

const (
	// PhaseIdle 没有进行中的测验
	PhaseIdle QuizPhase = "idle"
	// PhaseQuizPosted 已出题，等待作答
	PhaseQuizPosted QuizPhase = "quiz_posted"
	// PhaseGraded 已评分（终态，下一轮回到 idle）
	PhaseGraded QuizPhase = "graded"
)

// QuizState 会话的测验进行态
type QuizState struct {
	// SessionID 会话标识
	SessionID string `json:"session_id"`
	// Course 课程名
	Course string `json:"course"`
	// Mode 模式
	Mode Mode `json:"mode"`
	// Phase 当前阶段
	Phase QuizPhase `json:"phase"`
	// PendingQuiz 已出但未作答的题目
	PendingQuiz *Quiz `json:"pending_quiz,omitempty"`
}

// QuizStateRepository 测验状态存取接口
type QuizStateRepository interface {
	// Get 读取会话状态，不存在时返回 nil
	Get(sessionID string) (*QuizState, error)
	// Put 覆盖写入会话状态
	Put(state *QuizState) error
	// Delete 删除会话状态
	Delete(sessionID string) error
}
