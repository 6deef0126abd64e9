// Package handler HTTP 请求处理器
package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	appingest "github.com/toheart/courseagent/internal/application/ingest"
	domainws "github.com/toheart/courseagent/internal/domain/workspace"
	"github.com/toheart/courseagent/internal/infrastructure/workspace"
	"github.com/toheart/courseagent/internal/interfaces/http/response"
)

// WorkspaceHandler 课程工作区处理器
type WorkspaceHandler struct {
	wsStore  *workspace.Store
	buildSvc *appingest.BuildService
}

// NewWorkspaceHandler 创建工作区处理器
func NewWorkspaceHandler(wsStore *workspace.Store, buildSvc *appingest.BuildService) *WorkspaceHandler {
	return &WorkspaceHandler{wsStore: wsStore, buildSvc: buildSvc}
}

// CreateWorkspaceRequest 创建课程请求
type CreateWorkspaceRequest struct {
	CourseName string `json:"course_name" binding:"required"`
	Subject    string `json:"subject"`
}

// Create 创建课程工作区
func (h *WorkspaceHandler) Create(c *gin.Context) {
	var req CreateWorkspaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, 100001, "参数错误")
		return
	}

	ws, err := h.wsStore.Create(req.CourseName, req.Subject)
	if err != nil {
		switch {
		case errors.Is(err, domainws.ErrIllegalName):
			response.Error(c, http.StatusBadRequest, 100002, "非法课程名")
		case errors.Is(err, domainws.ErrWorkspaceExists):
			response.Error(c, http.StatusConflict, 100003, "课程已存在")
		default:
			response.ErrorWithDetail(c, http.StatusInternalServerError, 100004, "创建课程失败", err.Error())
		}
		return
	}
	response.Success(c, ws)
}

// List 课程列表
func (h *WorkspaceHandler) List(c *gin.Context) {
	response.Success(c, h.wsStore.List())
}

// Get 课程详情
func (h *WorkspaceHandler) Get(c *gin.Context) {
	ws, err := h.wsStore.Get(c.Param("course"))
	if err != nil {
		h.workspaceError(c, err)
		return
	}
	response.Success(c, ws)
}

// Delete 删除课程及其全部数据
func (h *WorkspaceHandler) Delete(c *gin.Context) {
	if err := h.wsStore.Delete(c.Param("course")); err != nil {
		h.workspaceError(c, err)
		return
	}
	response.Success(c, nil)
}

// Upload 上传课程文档（multipart 表单字段 file）
func (h *WorkspaceHandler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, http.StatusBadRequest, 100010, "缺少上传文件")
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		response.ErrorWithDetail(c, http.StatusInternalServerError, 100011, "读取上传文件失败", err.Error())
		return
	}
	defer func() { _ = f.Close() }()

	content, err := io.ReadAll(f)
	if err != nil {
		response.ErrorWithDetail(c, http.StatusInternalServerError, 100011, "读取上传文件失败", err.Error())
		return
	}

	dest, err := h.wsStore.SaveUpload(c.Param("course"), fileHeader.Filename, content)
	if err != nil {
		switch {
		case errors.Is(err, domainws.ErrUnsupportedExtension):
			response.Error(c, http.StatusBadRequest, 100012, "不支持的文件格式")
		case errors.Is(err, domainws.ErrIllegalName):
			response.Error(c, http.StatusBadRequest, 100013, "非法文件名")
		case errors.Is(err, domainws.ErrWorkspaceNotFound):
			response.Error(c, http.StatusNotFound, 100005, "课程不存在")
		default:
			response.ErrorWithDetail(c, http.StatusInternalServerError, 100014, "保存上传文件失败", err.Error())
		}
		return
	}
	response.Success(c, gin.H{"path": dest})
}

// RemoveDocument 删除单个文档
func (h *WorkspaceHandler) RemoveDocument(c *gin.Context) {
	err := h.wsStore.RemoveDocument(c.Param("course"), c.Param("doc"))
	if err != nil {
		switch {
		case errors.Is(err, domainws.ErrDocumentNotFound):
			response.Error(c, http.StatusNotFound, 100015, "文档不存在")
		default:
			h.workspaceError(c, err)
		}
		return
	}
	response.Success(c, nil)
}

// Rescan 重新扫描上传目录
func (h *WorkspaceHandler) Rescan(c *gin.Context) {
	docs, err := h.wsStore.Rescan(c.Param("course"))
	if err != nil {
		h.workspaceError(c, err)
		return
	}
	response.Success(c, gin.H{"documents": docs})
}

// BuildIndex 重建课程索引
func (h *WorkspaceHandler) BuildIndex(c *gin.Context) {
	result, err := h.buildSvc.BuildIndex(c.Request.Context(), c.Param("course"))
	if err != nil {
		switch {
		case errors.Is(err, domainws.ErrWorkspaceNotFound):
			response.Error(c, http.StatusNotFound, 100005, "课程不存在")
		case errors.Is(err, appingest.ErrNoContent):
			response.Error(c, http.StatusBadRequest, 100020, "课程没有可索引的内容")
		default:
			response.ErrorWithDetail(c, http.StatusInternalServerError, 100021, "索引构建失败", err.Error())
		}
		return
	}
	response.Success(c, result)
}

// DeleteIndex 删除课程索引
func (h *WorkspaceHandler) DeleteIndex(c *gin.Context) {
	if err := h.buildSvc.DeleteIndex(c.Param("course")); err != nil {
		h.workspaceError(c, err)
		return
	}
	response.Success(c, nil)
}

// workspaceError 工作区通用错误映射
func (h *WorkspaceHandler) workspaceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domainws.ErrWorkspaceNotFound):
		response.Error(c, http.StatusNotFound, 100005, "课程不存在")
	case errors.Is(err, domainws.ErrIllegalName):
		response.Error(c, http.StatusBadRequest, 100002, "非法课程名")
	default:
		response.ErrorWithDetail(c, http.StatusInternalServerError, 100006, "工作区操作失败", err.Error())
	}
}
