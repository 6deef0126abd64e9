// Package workspace 课程工作区的落盘管理
// 注册表保存在数据目录下的 workspaces.json，每个课程一个独立目录
package workspace

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	domainws "github.com/toheart/courseagent/internal/domain/workspace"
	"github.com/toheart/courseagent/internal/infrastructure/config"
)

// Store 课程工作区存储
type Store struct {
	mu         sync.RWMutex
	filePath   string
	rootDir    string
	workspaces map[string]*domainws.Workspace // courseName -> Workspace
}

// workspacesFile 注册表文件结构
type workspacesFile struct {
	Workspaces []domainws.Workspace `json:"workspaces"`
}

// NewStore 创建工作区存储
func NewStore() (*Store, error) {
	rootDir := config.GetWorkspacesDir()
	if err := os.MkdirAll(rootDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create workspaces directory: %w", err)
	}

	store := &Store{
		filePath:   filepath.Join(rootDir, "workspaces.json"),
		rootDir:    rootDir,
		workspaces: make(map[string]*domainws.Workspace),
	}

	// 尝试加载现有数据
	if err := store.load(); err != nil && !os.IsNotExist(err) {
		return nil, err
	}

	return store, nil
}

// load 从文件加载
func (s *Store) load() error {
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		return err
	}

	var file workspacesFile
	if err := json.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse workspaces file: %w", err)
	}

	s.workspaces = make(map[string]*domainws.Workspace)
	for i := range file.Workspaces {
		ws := file.Workspaces[i]
		s.workspaces[ws.CourseName] = &ws
	}

	return nil
}

// save 保存到文件
func (s *Store) save() error {
	var file workspacesFile
	for _, ws := range s.workspaces {
		file.Workspaces = append(file.Workspaces, *ws)
	}
	sort.Slice(file.Workspaces, func(i, j int) bool {
		return file.Workspaces[i].CourseName < file.Workspaces[j].CourseName
	})

	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal workspaces: %w", err)
	}

	if err := os.WriteFile(s.filePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write workspaces file: %w", err)
	}

	return nil
}

// Layout 获取课程目录布局（不校验课程是否已注册）
func (s *Store) Layout(courseName string) (domainws.Layout, error) {
	safe, err := domainws.SanitizeCourseName(courseName)
	if err != nil {
		return domainws.Layout{}, err
	}
	return domainws.NewLayout(s.rootDir, safe), nil
}

// ensureLayout 建好工作区全部子目录
func ensureLayout(layout domainws.Layout) error {
	for _, sub := range domainws.SubDirs {
		if err := os.MkdirAll(filepath.Join(layout.Root, sub), 0755); err != nil {
			return err
		}
	}
	return nil
}

// Create 创建课程工作区：注册并建好全部子目录
func (s *Store) Create(courseName, subject string) (*domainws.Workspace, error) {
	safe, err := domainws.SanitizeCourseName(courseName)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.workspaces[safe]; exists {
		return nil, domainws.ErrWorkspaceExists
	}

	layout := domainws.NewLayout(s.rootDir, safe)
	if err := ensureLayout(layout); err != nil {
		return nil, fmt.Errorf("failed to create workspace layout: %w", err)
	}

	ws := &domainws.Workspace{
		CourseName: safe,
		Subject:    subject,
		CreatedAt:  time.Now(),
	}
	s.workspaces[safe] = ws

	if err := s.save(); err != nil {
		return nil, err
	}

	wsCopy := *ws
	return &wsCopy, nil
}

// Get 获取指定课程工作区
func (s *Store) Get(courseName string) (*domainws.Workspace, error) {
	safe, err := domainws.SanitizeCourseName(courseName)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	ws, exists := s.workspaces[safe]
	if !exists {
		return nil, domainws.ErrWorkspaceNotFound
	}

	wsCopy := *ws
	return &wsCopy, nil
}

// List 获取所有课程工作区，按创建时间倒序
func (s *Store) List() []*domainws.Workspace {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var list []*domainws.Workspace
	for _, ws := range s.workspaces {
		wsCopy := *ws
		list = append(list, &wsCopy)
	}

	sort.Slice(list, func(i, j int) bool {
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})

	return list
}

// Delete 删除课程工作区及其全部落盘数据
func (s *Store) Delete(courseName string) error {
	safe, err := domainws.SanitizeCourseName(courseName)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.workspaces[safe]; !exists {
		return domainws.ErrWorkspaceNotFound
	}

	delete(s.workspaces, safe)

	// 课程目录整体移除，失败不影响注册表
	_ = os.RemoveAll(filepath.Join(s.rootDir, safe))

	return s.save()
}

// SaveUpload 把上传内容写入课程 uploads 目录
// 文件名先做白名单与路径净化，重复上传覆盖旧文件并把索引标记为过期
func (s *Store) SaveUpload(courseName, filename string, content []byte) (string, error) {
	safeName, err := domainws.SanitizeFilename(filename)
	if err != nil {
		return "", err
	}
	safe, err := domainws.SanitizeCourseName(courseName)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ws, exists := s.workspaces[safe]
	if !exists {
		return "", domainws.ErrWorkspaceNotFound
	}

	layout := domainws.NewLayout(s.rootDir, safe)
	if err := os.MkdirAll(layout.Uploads(), 0755); err != nil {
		return "", fmt.Errorf("failed to create uploads directory: %w", err)
	}

	dest := filepath.Join(layout.Uploads(), safeName)
	if err := os.WriteFile(dest, content, 0644); err != nil {
		return "", fmt.Errorf("failed to write upload: %w", err)
	}

	if !containsDoc(ws.Documents, safeName) {
		ws.Documents = append(ws.Documents, safeName)
		sort.Strings(ws.Documents)
	}
	ws.IndexStale = true

	if err := s.save(); err != nil {
		return "", err
	}
	return dest, nil
}

// RemoveDocument 删除课程里的单个文档并把索引标记为过期
func (s *Store) RemoveDocument(courseName, filename string) error {
	safeName, err := domainws.SanitizeFilename(filename)
	if err != nil {
		return err
	}
	safe, err := domainws.SanitizeCourseName(courseName)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ws, exists := s.workspaces[safe]
	if !exists {
		return domainws.ErrWorkspaceNotFound
	}
	if !containsDoc(ws.Documents, safeName) {
		return domainws.ErrDocumentNotFound
	}

	layout := domainws.NewLayout(s.rootDir, safe)
	if err := os.Remove(filepath.Join(layout.Uploads(), safeName)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove document: %w", err)
	}

	docs := ws.Documents[:0]
	for _, d := range ws.Documents {
		if d != safeName {
			docs = append(docs, d)
		}
	}
	ws.Documents = docs
	ws.IndexStale = true

	return s.save()
}

// Rescan 重新扫描 uploads 目录，同步文档列表
// 用户可能绕过接口直接往目录里放文件
func (s *Store) Rescan(courseName string) ([]string, error) {
	safe, err := domainws.SanitizeCourseName(courseName)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ws, exists := s.workspaces[safe]
	if !exists {
		return nil, domainws.ErrWorkspaceNotFound
	}

	layout := domainws.NewLayout(s.rootDir, safe)
	entries, err := os.ReadDir(layout.Uploads())
	if err != nil {
		if os.IsNotExist(err) {
			ws.Documents = nil
			return nil, s.save()
		}
		return nil, fmt.Errorf("failed to scan uploads: %w", err)
	}

	var docs []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if !domainws.AllowedExtensions[ext] {
			continue
		}
		docs = append(docs, entry.Name())
	}
	sort.Strings(docs)

	if !equalDocs(ws.Documents, docs) {
		ws.Documents = docs
		ws.IndexStale = true
	}

	if err := s.save(); err != nil {
		return nil, err
	}
	return docs, nil
}

// MarkIndexed 索引构建完成后记录时间并清除过期标记
func (s *Store) MarkIndexed(courseName string) error {
	safe, err := domainws.SanitizeCourseName(courseName)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ws, exists := s.workspaces[safe]
	if !exists {
		return domainws.ErrWorkspaceNotFound
	}

	ws.IndexedAt = time.Now()
	ws.IndexStale = false

	return s.save()
}

// MarkStale 标记课程索引已过期
func (s *Store) MarkStale(courseName string) error {
	safe, err := domainws.SanitizeCourseName(courseName)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ws, exists := s.workspaces[safe]
	if !exists {
		return domainws.ErrWorkspaceNotFound
	}
	if ws.IndexStale {
		return nil
	}
	ws.IndexStale = true

	return s.save()
}

// Count 工作区数量
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.workspaces)
}

func containsDoc(docs []string, name string) bool {
	for _, d := range docs {
		if d == name {
			return true
		}
	}
	return false
}

func equalDocs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
