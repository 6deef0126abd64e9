package workspace

import (
	"path/filepath"
	"strings"
)

// AllowedExtensions 上传文件扩展名白名单
var AllowedExtensions = map[string]bool{
	".pdf":  true,
	".txt":  true,
	".md":   true,
	".docx": true,
	".pptx": true,
	".ppt":  true,
}

// SanitizeCourseName 课程名归约为最后一段路径，拒绝空名和目录穿越
// 返回 ErrIllegalName 时调用方不得创建任何工作区状态
func SanitizeCourseName(name string) (string, error) {
	base := filepath.Base(strings.TrimSpace(name))
	if base == "" || base == "." || base == ".." || base == string(filepath.Separator) {
		return "", ErrIllegalName
	}
	return base, nil
}

// SanitizeFilename 文件名归约为最后一段路径并校验扩展名白名单
func SanitizeFilename(name string) (string, error) {
	base := filepath.Base(strings.TrimSpace(name))
	if base == "" || base == "." || base == ".." || base == string(filepath.Separator) {
		return "", ErrIllegalName
	}
	ext := strings.ToLower(filepath.Ext(base))
	if !AllowedExtensions[ext] {
		return "", ErrUnsupportedExtension
	}
	return base, nil
}
