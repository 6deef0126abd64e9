package session

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"log/slog"

	"github.com/toheart/courseagent/internal/domain/session"
	"github.com/toheart/courseagent/internal/infrastructure/llm"
	"github.com/toheart/courseagent/internal/infrastructure/log"
)

// QuizMarker 出题消息的前缀标记
// 无会话状态时靠该标记启发式判定上一轮是否出过题
const QuizMarker = "【题目】"

// ChatClient 角色依赖的对话模型接口，由 llm.Client 实现
type ChatClient interface {
	// Chat 同步对话，返回完整回复文本
	Chat(ctx context.Context, messages []llm.Message, opts ...llm.Option) (string, error)
	// ChatStream 流式对话，增量文本经 emit 送出
	ChatStream(ctx context.Context, messages []llm.Message, emit func(delta string) error, opts ...llm.Option) (string, error)
}

// 输出风格 → Prompt 指令
var styleInstructions = map[session.Style]string{
	session.StyleStepByStep: "分步骤讲解，每一步给出推导依据。",
	session.StyleHintFirst:  "先给提示引导学生思考，学生明确要求时才给完整答案。",
	session.StyleDirect:     "直接给出结论，不展开铺垫。",
}

// Tutor 讲解角色（学习模式）
type Tutor struct {
	llmClient ChatClient
}

// NewTutor 创建讲解角色
func NewTutor(llmClient ChatClient) *Tutor {
	return &Tutor{llmClient: llmClient}
}

// TutorInput 讲解角色的单轮输入
type TutorInput struct {
	Course string
	// Context 检索到的教材上下文，可为空
	Context string
	// ToolResults 本轮工具调用结果，可为空
	ToolResults string
	// WeakTags 学生当前薄弱的知识点
	WeakTags []string
	Style    session.Style
	History  []session.ChatMessage
	Message  string
}

// buildMessages 拼接讲解角色的消息序列
func (t *Tutor) buildMessages(in *TutorInput) []llm.Message {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("你是《%s》课程的辅导老师，基于课程教材回答学生问题。", in.Course))
	if inst := styleInstructions[in.Style]; inst != "" {
		sb.WriteString(inst)
	}
	sb.WriteString("引用教材内容时标注出处编号，教材没有覆盖的内容明确说明。")
	if len(in.WeakTags) > 0 {
		sb.WriteString(fmt.Sprintf("\n该学生的薄弱知识点：%s。讲解涉及这些知识点时放慢节奏多举例。",
			strings.Join(in.WeakTags, "、")))
	}
	if in.Context != "" {
		sb.WriteString("\n\n教材片段：\n" + in.Context)
	}
	if in.ToolResults != "" {
		sb.WriteString("\n\n工具结果：\n" + in.ToolResults)
	}

	messages := []llm.Message{{Role: "system", Content: sb.String()}}
	for _, msg := range in.History {
		messages = append(messages, llm.Message{Role: msg.Role, Content: msg.Content})
	}
	return append(messages, llm.Message{Role: "user", Content: in.Message})
}

// Answer 同步回答
func (t *Tutor) Answer(ctx context.Context, in *TutorInput) (string, error) {
	return t.llmClient.Chat(ctx, t.buildMessages(in))
}

// AnswerStream 流式回答
func (t *Tutor) AnswerStream(ctx context.Context, in *TutorInput, emit func(delta string) error) (string, error) {
	return t.llmClient.ChatStream(ctx, t.buildMessages(in), emit)
}

// QuizMaster 出题角色（练习/考试模式）
type QuizMaster struct {
	llmClient ChatClient
	logger    *slog.Logger
}

// NewQuizMaster 创建出题角色
func NewQuizMaster(llmClient ChatClient) *QuizMaster {
	return &QuizMaster{
		llmClient: llmClient,
		logger:    log.NewModuleLogger("session", "quizmaster"),
	}
}

const quizPrompt = `你是《%s》课程的出题老师。根据教材片段出一道主观题，以 JSON 输出，不要输出其他内容：
{
  "question": "题目",
  "standard_answer": "标准答案",
  "rubric": "评分要点",
  "difficulty": "easy | medium | hard",
  "chapter": "所属章节",
  "concept": "考察的知识点"
}
%s教材片段：
%s`

// Generate 出一道题
// 优先覆盖学生的薄弱知识点
func (q *QuizMaster) Generate(ctx context.Context, course, request, ragContext string, weakTags []string) (*session.Quiz, error) {
	weakHint := ""
	if len(weakTags) > 0 {
		weakHint = fmt.Sprintf("优先考察这些薄弱知识点：%s。\n", strings.Join(weakTags, "、"))
	}
	system := fmt.Sprintf(quizPrompt, course, weakHint, ragContext)

	userMsg := request
	if strings.TrimSpace(userMsg) == "" {
		userMsg = "请出一道题"
	}

	content, err := q.llmClient.Chat(ctx, []llm.Message{
		{Role: "system", Content: system},
		{Role: "user", Content: userMsg},
	}, llm.WithTemperature(0.7))
	if err != nil {
		return nil, fmt.Errorf("quiz generation failed: %w", err)
	}

	var raw session.Quiz
	if err := json.Unmarshal([]byte(llm.ExtractJSON(content)), &raw); err != nil {
		return nil, fmt.Errorf("quiz output unparseable: %w", err)
	}

	quiz, err := session.NewQuiz(raw.Question, raw.StandardAnswer, raw.Rubric, raw.Difficulty)
	if err != nil {
		return nil, err
	}
	quiz.Chapter = raw.Chapter
	quiz.Concept = raw.Concept
	return quiz, nil
}

// FormatQuizMessage 把题目渲染为带标记的对话消息
// 标准答案和评分要点绝不出现在消息里
func FormatQuizMessage(quiz *session.Quiz) string {
	var sb strings.Builder
	sb.WriteString(QuizMarker + "\n")
	sb.WriteString(quiz.Question)
	if quiz.Difficulty != "" {
		sb.WriteString(fmt.Sprintf("\n\n（难度：%s）", quiz.Difficulty))
	}
	return sb.String()
}

// Grader 评分角色
type Grader struct {
	llmClient ChatClient
	logger    *slog.Logger
}

// NewGrader 创建评分角色
func NewGrader(llmClient ChatClient) *Grader {
	return &Grader{
		llmClient: llmClient,
		logger:    log.NewModuleLogger("session", "grader"),
	}
}

const gradePrompt = `你是《%s》课程的阅卷老师。对照标准答案和评分要点给学生作答打分，以 JSON 输出，不要输出其他内容：
{
  "score": 0 到 100 的分数,
  "feedback": "评语，指出对在哪里、错在哪里、怎么改进",
  "mistake_tags": ["错误类型标签，如 概念混淆、计算错误；没有错误则为空数组"]
}

题目：%s
标准答案：%s
评分要点：%s`

// Grade 评分
func (g *Grader) Grade(ctx context.Context, course string, quiz *session.Quiz, answer string) (*session.GradeReport, error) {
	system := fmt.Sprintf(gradePrompt, course, quiz.Question, quiz.StandardAnswer, quiz.Rubric)

	content, err := g.llmClient.Chat(ctx, []llm.Message{
		{Role: "system", Content: system},
		{Role: "user", Content: answer},
	}, llm.WithTemperature(0))
	if err != nil {
		return nil, fmt.Errorf("grading failed: %w", err)
	}

	var raw struct {
		Score       float64  `json:"score"`
		Feedback    string   `json:"feedback"`
		MistakeTags []string `json:"mistake_tags"`
	}
	if err := json.Unmarshal([]byte(llm.ExtractJSON(content)), &raw); err != nil {
		return nil, fmt.Errorf("grade output unparseable: %w", err)
	}

	return session.NewGradeReport(raw.Score, raw.Feedback, raw.MistakeTags)
}

// FormatGradeMessage 把评分报告渲染为对话消息
func FormatGradeMessage(grade *session.GradeReport) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("得分：%.0f / 100\n\n%s", grade.Score, grade.Feedback))
	if len(grade.MistakeTags) > 0 {
		sb.WriteString("\n\n错误类型：" + strings.Join(grade.MistakeTags, "、"))
	}
	return sb.String()
}
