package watcher

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/toheart/courseagent/internal/domain/events"
	domainws "github.com/toheart/courseagent/internal/domain/workspace"
	"github.com/toheart/courseagent/internal/infrastructure/config"
	"github.com/toheart/courseagent/internal/infrastructure/log"
)

// WatchConfig FileWatcher 配置
type WatchConfig struct {
	// WorkspacesDir 课程工作区根目录
	WorkspacesDir string
	// DebounceDelay 防抖延迟
	DebounceDelay time.Duration
}

// DefaultWatchConfig 返回默认配置
func DefaultWatchConfig() WatchConfig {
	return WatchConfig{
		WorkspacesDir: config.GetWorkspacesDir(),
		DebounceDelay: 500 * time.Millisecond,
	}
}

// FileWatcher 课程上传目录监听器
// 监听各课程的 uploads 子目录，用户直接往目录里放文件也能触发
// 索引过期标记；新建课程时自动接入监听
type FileWatcher struct {
	config   WatchConfig
	eventBus events.EventBus
	watcher  *fsnotify.Watcher
	logger   *slog.Logger

	// 防抖相关
	debounceTimers map[string]*time.Timer
	debounceMu     sync.Mutex

	// 控制
	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewFileWatcher 创建文件监听器
func NewFileWatcher(config WatchConfig, eventBus events.EventBus) (*FileWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &FileWatcher{
		config:         config,
		eventBus:       eventBus,
		watcher:        watcher,
		logger:         log.NewModuleLogger("watcher", "file_watcher"),
		debounceTimers: make(map[string]*time.Timer),
		stopCh:         make(chan struct{}),
	}, nil
}

// Start 启动文件监听
func (fw *FileWatcher) Start() error {
	fw.logger.Info("Starting file watcher",
		"workspaces_dir", fw.config.WorkspacesDir,
	)

	if err := fw.addWatchDirs(); err != nil {
		return err
	}

	fw.wg.Add(1)
	go fw.watchLoop()

	return nil
}

// Stop 停止文件监听
func (fw *FileWatcher) Stop() {
	fw.logger.Info("Stopping file watcher")

	close(fw.stopCh)
	fw.watcher.Close()
	fw.wg.Wait()

	// 取消所有防抖定时器
	fw.debounceMu.Lock()
	for _, timer := range fw.debounceTimers {
		timer.Stop()
	}
	fw.debounceMu.Unlock()

	fw.logger.Info("File watcher stopped")
}

// addWatchDirs 添加监听目录
// 根目录用于发现新建课程，每个课程只监听 uploads 子目录
func (fw *FileWatcher) addWatchDirs() error {
	if err := os.MkdirAll(fw.config.WorkspacesDir, 0755); err != nil {
		return err
	}
	if err := fw.watcher.Add(fw.config.WorkspacesDir); err != nil {
		return err
	}

	entries, err := os.ReadDir(fw.config.WorkspacesDir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		fw.addCourseWatch(entry.Name())
	}
	return nil
}

// addCourseWatch 接入单个课程的 uploads 目录
func (fw *FileWatcher) addCourseWatch(courseName string) {
	uploadsDir := filepath.Join(fw.config.WorkspacesDir, courseName, domainws.UploadsDir)
	if _, err := os.Stat(uploadsDir); err != nil {
		return
	}
	if err := fw.watcher.Add(uploadsDir); err != nil {
		fw.logger.Warn("Failed to watch uploads directory",
			"course", courseName,
			"error", err,
		)
		return
	}
	fw.logger.Debug("Watching uploads directory", "course", courseName)
}

// watchLoop 事件监听循环
func (fw *FileWatcher) watchLoop() {
	defer fw.wg.Done()

	for {
		select {
		case <-fw.stopCh:
			return

		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			fw.handleFsEvent(event)

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			fw.logger.Error("Watcher error", "error", err)
		}
	}
}

// handleFsEvent 处理文件系统事件
func (fw *FileWatcher) handleFsEvent(event fsnotify.Event) {
	// 工作区根目录下新建课程目录时接入监听
	if filepath.Dir(event.Name) == fw.config.WorkspacesDir {
		if event.Has(fsnotify.Create) {
			if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
				fw.addCourseWatch(filepath.Base(event.Name))
			}
		}
		return
	}

	// uploads 目录下新建子目录不关心；uploads 目录本身被创建时接入
	if event.Has(fsnotify.Create) && filepath.Base(event.Name) == domainws.UploadsDir {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			fw.watcher.Add(event.Name)
			return
		}
	}

	if fw.isUploadFile(event.Name) {
		fw.handleUploadFileEvent(event)
	}
}

// isUploadFile 判断是否为受支持的上传文件
func (fw *FileWatcher) isUploadFile(path string) bool {
	if filepath.Base(filepath.Dir(path)) != domainws.UploadsDir {
		return false
	}
	ext := strings.ToLower(filepath.Ext(path))
	return domainws.AllowedExtensions[ext]
}

// handleUploadFileEvent 处理上传文件事件（带防抖）
// 编辑器分多次写入同一文件时只发一次事件
func (fw *FileWatcher) handleUploadFileEvent(fsEvent fsnotify.Event) {
	fw.debounceMu.Lock()
	defer fw.debounceMu.Unlock()

	if timer, exists := fw.debounceTimers[fsEvent.Name]; exists {
		timer.Stop()
	}

	fw.debounceTimers[fsEvent.Name] = time.AfterFunc(fw.config.DebounceDelay, func() {
		fw.emitUploadFileEvent(fsEvent)

		fw.debounceMu.Lock()
		delete(fw.debounceTimers, fsEvent.Name)
		fw.debounceMu.Unlock()
	})
}

// emitUploadFileEvent 发送上传文件事件
func (fw *FileWatcher) emitUploadFileEvent(fsEvent fsnotify.Event) {
	course := fw.parseCourse(fsEvent.Name)
	if course == "" {
		return
	}

	var eventType events.EventType
	switch {
	case fsEvent.Has(fsnotify.Create):
		eventType = events.UploadFileCreated
	case fsEvent.Has(fsnotify.Write):
		eventType = events.UploadFileModified
	case fsEvent.Has(fsnotify.Remove), fsEvent.Has(fsnotify.Rename):
		eventType = events.UploadFileDeleted
	default:
		return
	}

	fw.eventBus.Publish(&events.UploadFileEvent{
		EventType: eventType,
		Course:    course,
		Filename:  filepath.Base(fsEvent.Name),
		FilePath:  fsEvent.Name,
		EventTime: time.Now(),
	})

	fw.logger.Debug("Upload file event emitted",
		"type", eventType,
		"course", course,
		"file", filepath.Base(fsEvent.Name),
	)
}

// parseCourse 从上传文件路径解析课程名
// 输入：<workspaces>/<course>/uploads/<file>
func (fw *FileWatcher) parseCourse(path string) string {
	uploadsDir := filepath.Dir(path)
	courseDir := filepath.Dir(uploadsDir)
	if filepath.Dir(courseDir) != fw.config.WorkspacesDir {
		return ""
	}
	return filepath.Base(courseDir)
}
