package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	appmemory "github.com/toheart/courseagent/internal/application/memory"
	domainws "github.com/toheart/courseagent/internal/domain/workspace"
	"github.com/toheart/courseagent/internal/infrastructure/records"
	"github.com/toheart/courseagent/internal/interfaces/http/response"
)

// RecordsHandler 学习记录处理器
type RecordsHandler struct {
	recStore *records.Store
	tracker  *appmemory.Tracker
}

// NewRecordsHandler 创建学习记录处理器
func NewRecordsHandler(recStore *records.Store, tracker *appmemory.Tracker) *RecordsHandler {
	return &RecordsHandler{recStore: recStore, tracker: tracker}
}

// Practices 练习记录列表
func (h *RecordsHandler) Practices(c *gin.Context) {
	recs, err := h.recStore.ListPractices(c.Param("course"))
	if err != nil {
		h.recordsError(c, err)
		return
	}
	response.Success(c, recs)
}

// Mistakes 错题列表
func (h *RecordsHandler) Mistakes(c *gin.Context) {
	recs, err := h.recStore.ListMistakes(c.Param("course"))
	if err != nil {
		h.recordsError(c, err)
		return
	}
	response.Success(c, recs)
}

// Exams 考试记录列表（会话 ID）
func (h *RecordsHandler) Exams(c *gin.Context) {
	ids, err := h.recStore.ListExams(c.Param("course"))
	if err != nil {
		h.recordsError(c, err)
		return
	}
	response.Success(c, gin.H{"sessions": ids})
}

// Exam 单场考试详情
func (h *RecordsHandler) Exam(c *gin.Context) {
	rec, err := h.recStore.GetExam(c.Param("course"), c.Param("session"))
	if err != nil {
		response.Error(c, http.StatusNotFound, 300003, "考试记录不存在")
		return
	}
	response.Success(c, rec)
}

// WeakPoints 薄弱知识点
func (h *RecordsHandler) WeakPoints(c *gin.Context) {
	tags, err := h.tracker.WeakTags(c.Param("course"))
	if err != nil {
		response.ErrorWithDetail(c, http.StatusInternalServerError, 300004, "读取薄弱点失败", err.Error())
		return
	}
	response.Success(c, gin.H{"tags": tags})
}

// MemorySearch 记忆检索
func (h *RecordsHandler) MemorySearch(c *gin.Context) {
	query := c.Query("q")
	topK, _ := strconv.Atoi(c.DefaultQuery("top_k", "5"))

	episodes, err := h.tracker.Search(c.Param("course"), query, topK)
	if err != nil {
		response.ErrorWithDetail(c, http.StatusInternalServerError, 300005, "记忆检索失败", err.Error())
		return
	}
	response.Success(c, episodes)
}

// recordsError 记录通用错误映射
func (h *RecordsHandler) recordsError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domainws.ErrIllegalName):
		response.Error(c, http.StatusBadRequest, 300001, "非法课程名")
	default:
		response.ErrorWithDetail(c, http.StatusInternalServerError, 300002, "读取记录失败", err.Error())
	}
}
