package workspace

import (
	"path/filepath"
	"time"
)

// Workspace 课程工作区
// 一个课程的全部数据（教材、索引、笔记、错题、记录）都挂在工作区目录下
// 工作区之间禁止交叉引用
type Workspace struct {
	// CourseName 课程名，已经过 SanitizeCourseName 校验
	CourseName string `json:"course_name"`
	// Subject 学科标签，如 "线性代数"
	Subject string `json:"subject"`
	// CreatedAt 创建时间
	CreatedAt time.Time `json:"created_at"`
	// Documents 已上传的文档名列表（仅文件名）
	Documents []string `json:"documents"`
	// IndexedAt 最近一次索引构建时间，零值表示未建索引
	IndexedAt time.Time `json:"indexed_at,omitempty"`
	// IndexStale 上传目录在建索引之后发生过变更
	IndexStale bool `json:"index_stale,omitempty"`
}

// 工作区子目录名
const (
	UploadsDir   = "uploads"
	IndexDir     = "index"
	NotesDir     = "notes"
	MistakesDir  = "mistakes"
	PracticesDir = "practices"
	ExamsDir     = "exams"
)

// SubDirs 工作区全部子目录
var SubDirs = []string{UploadsDir, IndexDir, NotesDir, MistakesDir, PracticesDir, ExamsDir}

// IndexBaseName 索引文件对的基础名，实际文件为 <base>.vec 和 <base>.meta
const IndexBaseName = "course_index"

// Layout 工作区目录布局
type Layout struct {
	// Root 工作区根目录（<data>/workspaces/<course>）
	Root string
}

// NewLayout 创建工作区布局
func NewLayout(workspacesRoot, courseName string) Layout {
	return Layout{Root: filepath.Join(workspacesRoot, courseName)}
}

// Uploads 上传目录
func (l Layout) Uploads() string { return filepath.Join(l.Root, UploadsDir) }

// IndexBase 索引文件对的基础路径（不含扩展名）
func (l Layout) IndexBase() string { return filepath.Join(l.Root, IndexDir, IndexBaseName) }

// Notes 笔记目录
func (l Layout) Notes() string { return filepath.Join(l.Root, NotesDir) }

// MistakesFile 错题记录文件（追加写 jsonl）
func (l Layout) MistakesFile() string {
	return filepath.Join(l.Root, MistakesDir, "mistakes.jsonl")
}

// PracticesDir 练习记录目录
func (l Layout) Practices() string { return filepath.Join(l.Root, PracticesDir) }

// Exams 考试记录目录
func (l Layout) Exams() string { return filepath.Join(l.Root, ExamsDir) }
