// Package records 练习/考试/错题的追加式文件存储
// 全部记录只追加不回改：练习和错题用 jsonl，考试每场一个 json 文件
package records

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	domainrec "github.com/toheart/courseagent/internal/domain/records"
	domainws "github.com/toheart/courseagent/internal/domain/workspace"
	"github.com/toheart/courseagent/internal/infrastructure/config"
)

// PracticesFileName 练习记录文件名
const PracticesFileName = "practices.jsonl"

// Store 记录存储
type Store struct {
	mu      sync.Mutex
	rootDir string
}

// NewStore 创建记录存储
func NewStore() *Store {
	return &Store{rootDir: config.GetWorkspacesDir()}
}

// layout 课程目录布局
func (s *Store) layout(courseName string) (domainws.Layout, error) {
	safe, err := domainws.SanitizeCourseName(courseName)
	if err != nil {
		return domainws.Layout{}, err
	}
	return domainws.NewLayout(s.rootDir, safe), nil
}

// AppendPractice 追加一条练习记录
func (s *Store) AppendPractice(courseName string, rec *domainrec.PracticeRecord) error {
	layout, err := s.layout(courseName)
	if err != nil {
		return err
	}
	path := filepath.Join(layout.Practices(), PracticesFileName)
	return s.appendLine(path, rec)
}

// AppendMistake 追加一条错题记录
func (s *Store) AppendMistake(courseName string, rec *domainrec.MistakeRecord) error {
	layout, err := s.layout(courseName)
	if err != nil {
		return err
	}
	return s.appendLine(layout.MistakesFile(), rec)
}

// SaveExam 保存一场考试记录，文件名为会话 ID
func (s *Store) SaveExam(courseName string, rec *domainrec.ExamRecord) error {
	layout, err := s.layout(courseName)
	if err != nil {
		return err
	}
	if rec.SessionID == "" {
		return fmt.Errorf("exam record missing session id")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(layout.Exams(), 0755); err != nil {
		return fmt.Errorf("failed to create exams directory: %w", err)
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal exam record: %w", err)
	}

	path := filepath.Join(layout.Exams(), rec.SessionID+".json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write exam record: %w", err)
	}
	return nil
}

// ListPractices 读取全部练习记录，按文件顺序（即时间顺序）返回
// 无法解析的行跳过，不让个别损坏记录拖垮整个列表
func (s *Store) ListPractices(courseName string) ([]domainrec.PracticeRecord, error) {
	layout, err := s.layout(courseName)
	if err != nil {
		return nil, err
	}
	path := filepath.Join(layout.Practices(), PracticesFileName)

	var recs []domainrec.PracticeRecord
	err = readLines(path, func(line []byte) {
		var rec domainrec.PracticeRecord
		if json.Unmarshal(line, &rec) == nil {
			recs = append(recs, rec)
		}
	})
	if err != nil {
		return nil, err
	}
	return recs, nil
}

// ListMistakes 读取全部错题记录
func (s *Store) ListMistakes(courseName string) ([]domainrec.MistakeRecord, error) {
	layout, err := s.layout(courseName)
	if err != nil {
		return nil, err
	}

	var recs []domainrec.MistakeRecord
	err = readLines(layout.MistakesFile(), func(line []byte) {
		var rec domainrec.MistakeRecord
		if json.Unmarshal(line, &rec) == nil {
			recs = append(recs, rec)
		}
	})
	if err != nil {
		return nil, err
	}
	return recs, nil
}

// GetExam 读取指定会话的考试记录
func (s *Store) GetExam(courseName, sessionID string) (*domainrec.ExamRecord, error) {
	layout, err := s.layout(courseName)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filepath.Join(layout.Exams(), sessionID+".json"))
	if err != nil {
		return nil, fmt.Errorf("failed to read exam record: %w", err)
	}

	var rec domainrec.ExamRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to parse exam record: %w", err)
	}
	return &rec, nil
}

// ListExams 列出课程下全部考试记录的会话 ID
func (s *Store) ListExams(courseName string) ([]string, error) {
	layout, err := s.layout(courseName)
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(layout.Exams())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list exams: %w", err)
	}

	var ids []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if filepath.Ext(name) != ".json" {
			continue
		}
		ids = append(ids, name[:len(name)-len(".json")])
	}
	return ids, nil
}

// appendLine 以单次 O_APPEND 写入追加一行 json
// 单次 write 在同一文件系统内不会与其他追加交错
func (s *Store) appendLine(path string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}
	data = append(data, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create record directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open record file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("failed to append record: %w", err)
	}
	return nil
}

// readLines 逐行读取 jsonl，文件不存在视为空
func readLines(path string, fn func(line []byte)) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to open record file: %w", err)
	}
	defer func() { _ = f.Close() }()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		fn(line)
	}
	return scanner.Err()
}
