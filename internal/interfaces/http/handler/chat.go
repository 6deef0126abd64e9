package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	appsession "github.com/toheart/courseagent/internal/application/session"
	"github.com/toheart/courseagent/internal/domain/session"
	domainws "github.com/toheart/courseagent/internal/domain/workspace"
	"github.com/toheart/courseagent/internal/interfaces/http/response"
)

// ChatHandler 对话处理器
type ChatHandler struct {
	orchestrator *appsession.Orchestrator
}

// NewChatHandler 创建对话处理器
func NewChatHandler(orchestrator *appsession.Orchestrator) *ChatHandler {
	return &ChatHandler{orchestrator: orchestrator}
}

// ChatRequest 对话请求
type ChatRequest struct {
	Course    string                `json:"course" binding:"required"`
	Mode      string                `json:"mode" binding:"required"`
	Message   string                `json:"message" binding:"required"`
	History   []session.ChatMessage `json:"history"`
	SessionID string                `json:"session_id"`
}

// toTurnRequest 转换为编排器输入
func (r *ChatRequest) toTurnRequest() *session.TurnRequest {
	return &session.TurnRequest{
		Course:    r.Course,
		Mode:      session.Mode(r.Mode),
		Message:   r.Message,
		History:   r.History,
		SessionID: r.SessionID,
	}
}

// Chat 同步对话
func (h *ChatHandler) Chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, 200001, "参数错误")
		return
	}

	result, err := h.orchestrator.RunTurn(c.Request.Context(), req.toTurnRequest())
	if err != nil {
		h.chatError(c, err)
		return
	}
	response.Success(c, result)
}

// ChatStream 流式对话（SSE）
// 每个事件一行 data: <json>，流结束补发 data: [DONE]
func (h *ChatHandler) ChatStream(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, 200001, "参数错误")
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		response.Error(c, http.StatusInternalServerError, 200002, "流式响应不可用")
		return
	}

	writeEvent := func(event session.StreamEvent) error {
		// done 事件按约定输出 [DONE] 哨兵
		if event.Type == session.StreamEventDone {
			if _, err := fmt.Fprint(c.Writer, "data: [DONE]\n\n"); err != nil {
				return err
			}
			flusher.Flush()
			return nil
		}

		data, err := json.Marshal(event)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(c.Writer, "data: %s\n\n", data); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	}

	err := h.orchestrator.RunTurnStream(c.Request.Context(), req.toTurnRequest(), writeEvent)
	if err != nil {
		// 流已经开始，错误只能以事件形式送出
		_, _ = fmt.Fprintf(c.Writer, "data: %s\n\n", errorEventJSON(err))
		flusher.Flush()
	}
}

// errorEventJSON 渲染流中错误事件
func errorEventJSON(err error) []byte {
	data, _ := json.Marshal(gin.H{"type": "error", "error": err.Error()})
	return data
}

// chatError 对话错误映射
func (h *ChatHandler) chatError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, session.ErrUnknownMode):
		response.Error(c, http.StatusBadRequest, 200003, "未知模式")
	case errors.Is(err, domainws.ErrWorkspaceNotFound):
		response.Error(c, http.StatusNotFound, 200004, "课程不存在")
	default:
		response.ErrorWithDetail(c, http.StatusInternalServerError, 200005, "对话失败", err.Error())
	}
}
