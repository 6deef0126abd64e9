package session

import (
	"context"
	"fmt"
	"strings"
	"time"

	"log/slog"

	"github.com/google/uuid"

	appmemory "github.com/toheart/courseagent/internal/application/memory"
	apprag "github.com/toheart/courseagent/internal/application/rag"
	"github.com/toheart/courseagent/internal/application/tools"
	domainrag "github.com/toheart/courseagent/internal/domain/rag"
	domainrec "github.com/toheart/courseagent/internal/domain/records"
	"github.com/toheart/courseagent/internal/domain/session"
	"github.com/toheart/courseagent/internal/infrastructure/log"
	"github.com/toheart/courseagent/internal/infrastructure/records"
	"github.com/toheart/courseagent/internal/infrastructure/workspace"
)

// HistoryWindow 注入 Prompt 的历史消息上限，不含本轮消息
const HistoryWindow = 20

// Orchestrator 会话编排器
// 按模式路由到讲解/出题/评分角色，执行策略裁剪后的计划，
// 评分产出统一汇入 finishGrading，保证恰好落盘一次
type Orchestrator struct {
	wsStore    *workspace.Store
	retriever  *apprag.Retriever
	router     *Router
	tutor      *Tutor
	quizMaster *QuizMaster
	grader     *Grader
	toolReg    *tools.Registry
	tracker    *appmemory.Tracker
	recStore   *records.Store
	stateRepo  session.QuizStateRepository
	logger     *slog.Logger
}

// NewOrchestrator 创建会话编排器
func NewOrchestrator(
	wsStore *workspace.Store,
	retriever *apprag.Retriever,
	router *Router,
	tutor *Tutor,
	quizMaster *QuizMaster,
	grader *Grader,
	toolReg *tools.Registry,
	tracker *appmemory.Tracker,
	recStore *records.Store,
	stateRepo session.QuizStateRepository,
) *Orchestrator {
	return &Orchestrator{
		wsStore:    wsStore,
		retriever:  retriever,
		router:     router,
		tutor:      tutor,
		quizMaster: quizMaster,
		grader:     grader,
		toolReg:    toolReg,
		tracker:    tracker,
		recStore:   recStore,
		stateRepo:  stateRepo,
		logger:     log.NewModuleLogger("session", "orchestrator"),
	}
}

// RunTurn 执行一轮对话，返回完整结果
func (o *Orchestrator) RunTurn(ctx context.Context, req *session.TurnRequest) (*session.TurnResult, error) {
	return o.run(ctx, req, nil)
}

// RunTurnStream 流式执行一轮对话
// 文本分片通过 emit 逐个送出，最后补发 result 和 done 事件；
// ctx 取消时停止生成，但已完成的评分仍会落盘
func (o *Orchestrator) RunTurnStream(ctx context.Context, req *session.TurnRequest, emit func(session.StreamEvent) error) error {
	result, err := o.run(ctx, req, func(delta string) error {
		return emit(session.StreamEvent{Type: session.StreamEventDelta, Delta: delta})
	})
	if err != nil {
		return err
	}
	if err := emit(session.StreamEvent{Type: session.StreamEventResult, Result: result}); err != nil {
		return err
	}
	return emit(session.StreamEvent{Type: session.StreamEventDone})
}

// run 单轮执行主流程
// emit 为 nil 时走同步路径
func (o *Orchestrator) run(ctx context.Context, req *session.TurnRequest, emit func(delta string) error) (*session.TurnResult, error) {
	mode, err := session.ParseMode(string(req.Mode))
	if err != nil {
		return nil, err
	}
	if _, err := o.wsStore.Get(req.Course); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Message) == "" {
		return nil, fmt.Errorf("empty message")
	}

	history := clipHistory(req.History)

	if mode == session.ModeLearn {
		return o.tutorTurn(ctx, req, history, emit)
	}

	// 练习/考试：上一轮出过题则本轮是作答，否则出新题
	state := o.loadState(req)
	if o.isAnswering(state, history) {
		return o.gradeTurn(ctx, req, mode, state, history, emit)
	}
	return o.quizTurn(ctx, req, mode, emit)
}

// routePlan 轮前计划：每轮都先让路由器提案，再经策略表裁剪
// 被拦截的请求只进调用记录，绝不执行；放行的立即执行并记录
func (o *Orchestrator) routePlan(ctx context.Context, mode session.Mode, course, message string, result *session.TurnResult) (session.Plan, string) {
	base := PlanFor(mode)

	routed := o.router.Propose(ctx, mode, message, o.toolReg.Describe(base.AllowedTools))
	plan, allowedReqs, droppedReqs := ClipPlan(mode, routed)

	for _, dr := range droppedReqs {
		result.ToolCalls = append(result.ToolCalls, session.ToolCall{
			Tool:   dr.Tool,
			Args:   dr.Args,
			Status: session.ToolCallDropped,
		})
		o.logger.Info("Tool request dropped by policy",
			"mode", mode,
			"tool", dr.Tool,
		)
	}
	toolResults := o.executeTools(ctx, course, allowedReqs, result)
	return plan, toolResults
}

// tutorTurn 学习模式：检索教材、执行工具、讲解
func (o *Orchestrator) tutorTurn(ctx context.Context, req *session.TurnRequest, history []session.ChatMessage, emit func(delta string) error) (*session.TurnResult, error) {
	result := &session.TurnResult{}

	plan, toolResults := o.routePlan(ctx, session.ModeLearn, req.Course, req.Message, result)
	citations := o.retrieve(ctx, req.Course, req.Message, plan.RAGEnabled, result)
	weakTags, _ := o.tracker.WeakTags(req.Course)

	in := &TutorInput{
		Course:      req.Course,
		Context:     o.retriever.FormatContext(citations),
		ToolResults: toolResults,
		WeakTags:    weakTags,
		Style:       plan.Style,
		History:     history,
		Message:     req.Message,
	}

	var answer string
	var err error
	if emit != nil {
		answer, err = o.tutor.AnswerStream(ctx, in, emit)
	} else {
		answer, err = o.tutor.Answer(ctx, in)
	}
	if err != nil {
		return nil, err
	}

	result.Message = answer
	result.Citations = citations

	if err := o.tracker.RecordQA(req.Course, req.Message, answer); err != nil {
		o.logger.Warn("Failed to record QA episode", "course", req.Course, "error", err)
		result.Warnings = append(result.Warnings, "学习记忆保存失败")
	}
	return result, nil
}

// quizTurn 出题
func (o *Orchestrator) quizTurn(ctx context.Context, req *session.TurnRequest, mode session.Mode, emit func(delta string) error) (*session.TurnResult, error) {
	result := &session.TurnResult{}

	plan, _ := o.routePlan(ctx, mode, req.Course, req.Message, result)
	weakTags, _ := o.tracker.WeakTags(req.Course)
	citations := o.retrieve(ctx, req.Course, quizQuery(req.Message, weakTags), plan.RAGEnabled, result)

	quiz, err := o.quizMaster.Generate(ctx, req.Course, req.Message, o.retriever.FormatContext(citations), weakTags)
	if err != nil {
		return nil, err
	}

	// 有会话标识时持久化待答题目，进程重启后可继续作答
	if req.SessionID != "" {
		if err := o.stateRepo.Put(&session.QuizState{
			SessionID:   req.SessionID,
			Course:      req.Course,
			Mode:        mode,
			Phase:       session.PhaseQuizPosted,
			PendingQuiz: quiz,
		}); err != nil {
			o.logger.Warn("Failed to persist quiz state", "session_id", req.SessionID, "error", err)
			result.Warnings = append(result.Warnings, "测验状态保存失败")
		}
	}

	result.Message = FormatQuizMessage(quiz)
	result.Citations = citations

	if emit != nil {
		if err := emit(result.Message); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// gradeTurn 评分
// 评分一旦产出就必定走 finishGrading 落盘，客户端断开也不中断
func (o *Orchestrator) gradeTurn(ctx context.Context, req *session.TurnRequest, mode session.Mode, state *session.QuizState, history []session.ChatMessage, emit func(delta string) error) (*session.TurnResult, error) {
	result := &session.TurnResult{}

	quiz := o.pendingQuiz(state, history)
	if quiz == nil {
		return nil, fmt.Errorf("no pending quiz to grade")
	}

	// 作答轮同样走轮前计划，工具请求照常裁剪和记录
	o.routePlan(ctx, mode, req.Course, req.Message, result)

	grade, err := o.grader.Grade(ctx, req.Course, quiz, req.Message)
	if err != nil {
		return nil, err
	}

	outcome := &session.GradingOutcome{
		Mode:        mode,
		UserMessage: req.Message,
		Quiz:        quiz,
		Grade:       grade,
	}

	// 评分已产出：落盘不再受取消影响
	warnings := o.finishGrading(req.Course, req.SessionID, outcome)
	result.Warnings = append(result.Warnings, warnings...)

	// 状态机回到 idle，下一轮出新题
	if req.SessionID != "" {
		if err := o.stateRepo.Put(&session.QuizState{
			SessionID: req.SessionID,
			Course:    req.Course,
			Mode:      mode,
			Phase:     session.PhaseIdle,
		}); err != nil {
			o.logger.Warn("Failed to reset quiz state", "session_id", req.SessionID, "error", err)
		}
	}

	result.Message = FormatGradeMessage(grade)
	if emit != nil {
		if err := emit(result.Message); err != nil {
			return result, err
		}
	}
	return result, nil
}

// finishGrading 评分落盘统一入口
// 练习追加 jsonl，考试合并进会话记录文件，低分补错题记录，
// 最后更新记忆与薄弱点；全部是本地同步写，客户端断开无法打断。
// 任何一步失败都降级为 warning，不丢评分结果
func (o *Orchestrator) finishGrading(course, sessionID string, outcome *session.GradingOutcome) []string {
	var warnings []string
	score := outcome.Grade.Score

	switch outcome.Mode {
	case session.ModePractice:
		if err := o.recStore.AppendPractice(course, &domainrec.PracticeRecord{
			Timestamp:      time.Now(),
			SessionID:      sessionID,
			Question:       outcome.Quiz.Question,
			StandardAnswer: outcome.Quiz.StandardAnswer,
			UserAnswer:     outcome.UserMessage,
			Score:          score,
			Feedback:       outcome.Grade.Feedback,
			Tags:           outcome.Grade.MistakeTags,
			Difficulty:     outcome.Quiz.Difficulty,
			Concept:        outcome.Quiz.Concept,
		}); err != nil {
			o.logger.Error("Failed to append practice record", "course", course, "error", err)
			warnings = append(warnings, "练习记录保存失败")
		}

	case session.ModeExam:
		if err := o.appendExamItem(course, sessionID, outcome); err != nil {
			o.logger.Error("Failed to save exam record", "course", course, "error", err)
			warnings = append(warnings, "考试记录保存失败")
		}
	}

	if o.tracker.BelowMastery(score) {
		if err := o.recStore.AppendMistake(course, &domainrec.MistakeRecord{
			Timestamp:      time.Now(),
			Mode:           outcome.Mode,
			Question:       outcome.Quiz.Question,
			StandardAnswer: outcome.Quiz.StandardAnswer,
			UserAnswer:     outcome.UserMessage,
			Score:          score,
			Feedback:       outcome.Grade.Feedback,
			Tags:           outcome.Grade.MistakeTags,
		}); err != nil {
			o.logger.Error("Failed to append mistake record", "course", course, "error", err)
			warnings = append(warnings, "错题记录保存失败")
		}
	}

	if err := o.tracker.RecordGrading(course, outcome); err != nil {
		o.logger.Error("Failed to update memory", "course", course, "error", err)
		warnings = append(warnings, "记忆更新失败")
	}
	return warnings
}

// appendExamItem 把本题合并进会话的考试记录文件
func (o *Orchestrator) appendExamItem(course, sessionID string, outcome *session.GradingOutcome) error {
	if sessionID == "" {
		sessionID = uuid.New().String()
	}

	rec, err := o.recStore.GetExam(course, sessionID)
	if err != nil || rec == nil {
		rec = &domainrec.ExamRecord{
			SessionID: sessionID,
			StartedAt: time.Now(),
		}
	}

	rec.Items = append(rec.Items, domainrec.ExamItem{
		Question:       outcome.Quiz.Question,
		StandardAnswer: outcome.Quiz.StandardAnswer,
		UserAnswer:     outcome.UserMessage,
		Score:          outcome.Grade.Score,
		Feedback:       outcome.Grade.Feedback,
		Tags:           outcome.Grade.MistakeTags,
	})
	rec.FinishedAt = time.Now()

	total := 0.0
	for _, item := range rec.Items {
		total += item.Score
	}
	rec.AverageScore = total / float64(len(rec.Items))

	return o.recStore.SaveExam(course, rec)
}

// executeTools 执行放行的工具请求并记录调用
func (o *Orchestrator) executeTools(ctx context.Context, course string, reqs []ToolRequest, result *session.TurnResult) string {
	var sb strings.Builder
	for _, tr := range reqs {
		call := session.ToolCall{Tool: tr.Tool, Args: tr.Args}

		tool, err := o.toolReg.Get(tr.Tool)
		if err == nil {
			call.Result, err = tool.Execute(ctx, course, tr.Args)
		}
		if err != nil {
			call.Status = session.ToolCallError
			call.Error = err.Error()
			o.logger.Warn("Tool call failed", "tool", tr.Tool, "error", err)
		} else {
			call.Status = session.ToolCallOK
			sb.WriteString(fmt.Sprintf("[%s] %s\n", tr.Tool, call.Result))
		}
		result.ToolCalls = append(result.ToolCalls, call)
	}
	return strings.TrimSpace(sb.String())
}

// retrieve 检索教材，未建索引或检索失败时降级为无上下文
func (o *Orchestrator) retrieve(ctx context.Context, course, query string, enabled bool, result *session.TurnResult) []domainrag.Citation {
	if !enabled {
		return nil
	}
	if !o.retriever.HasIndex(course) {
		result.Warnings = append(result.Warnings, "课程尚未建立索引，本轮未检索教材")
		return nil
	}

	citations, err := o.retriever.Retrieve(ctx, course, query, 0)
	if err != nil {
		o.logger.Warn("Retrieval failed", "course", course, "error", err)
		result.Warnings = append(result.Warnings, "教材检索失败，本轮未引用教材")
		return nil
	}
	return citations
}

// loadState 加载会话测验状态，无会话标识或读取失败返回 nil
func (o *Orchestrator) loadState(req *session.TurnRequest) *session.QuizState {
	if req.SessionID == "" {
		return nil
	}
	state, err := o.stateRepo.Get(req.SessionID)
	if err != nil {
		o.logger.Warn("Failed to load quiz state", "session_id", req.SessionID, "error", err)
		return nil
	}
	return state
}

// isAnswering 判定本轮消息是否在回答已出的题目
// 显式状态机优先；没有状态时检查历史里最后一条助手消息是否带出题标记
func (o *Orchestrator) isAnswering(state *session.QuizState, history []session.ChatMessage) bool {
	if state != nil {
		return state.Phase == session.PhaseQuizPosted && state.PendingQuiz != nil
	}
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == "assistant" {
			return strings.HasPrefix(history[i].Content, QuizMarker)
		}
	}
	return false
}

// pendingQuiz 取待评分题目
// 启发式路径只能从历史恢复题面，标准答案缺失时由评分角色按题目判卷
func (o *Orchestrator) pendingQuiz(state *session.QuizState, history []session.ChatMessage) *session.Quiz {
	if state != nil && state.PendingQuiz != nil {
		return state.PendingQuiz
	}
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role != "assistant" {
			continue
		}
		if !strings.HasPrefix(history[i].Content, QuizMarker) {
			return nil
		}
		question := strings.TrimSpace(strings.TrimPrefix(history[i].Content, QuizMarker))
		if idx := strings.Index(question, "（难度："); idx >= 0 {
			question = strings.TrimSpace(question[:idx])
		}
		if question == "" {
			return nil
		}
		return &session.Quiz{
			Question:       question,
			StandardAnswer: "（无存档标准答案，按题目要求判卷）",
			Difficulty:     session.DifficultyMedium,
		}
	}
	return nil
}

// clipHistory 截取注入 Prompt 的历史窗口
func clipHistory(history []session.ChatMessage) []session.ChatMessage {
	if len(history) <= HistoryWindow {
		return history
	}
	return history[len(history)-HistoryWindow:]
}

// quizQuery 出题时的检索查询
// 学生没有点名主题时用薄弱知识点兜底
func quizQuery(message string, weakTags []string) string {
	if strings.TrimSpace(message) != "" {
		return message
	}
	if len(weakTags) > 0 {
		return strings.Join(weakTags, " ")
	}
	return "课程重点内容"
}
