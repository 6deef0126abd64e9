package workspace

import "errors"

// 工作区相关错误
var (
	// ErrWorkspaceNotFound 工作区不存在
	ErrWorkspaceNotFound = errors.New("workspace not found")
	// ErrWorkspaceExists 工作区已存在
	ErrWorkspaceExists = errors.New("workspace already exists")
	// ErrIllegalName 非法课程名或文件名（空、"."、".." 或路径穿越）
	ErrIllegalName = errors.New("illegal course or file name")
	// ErrUnsupportedExtension 扩展名不在白名单内
	ErrUnsupportedExtension = errors.New("unsupported file extension")
	// ErrDocumentNotFound 文档不存在
	ErrDocumentNotFound = errors.New("document not found")
)
