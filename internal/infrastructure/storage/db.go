// Package storage SQLite 持久层
// 情景记忆、薄弱点、会话测验状态都落在数据目录下的 courseagent.db
package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/toheart/courseagent/internal/infrastructure/config"
)

// GetDBPath 获取数据库路径
// 默认 ~/.courseagent/courseagent.db，可用数据目录环境变量改写
func GetDBPath() string {
	return filepath.Join(config.GetDataDir(), "courseagent.db")
}

// OpenDB 打开数据库连接
func OpenDB() (*sql.DB, error) {
	dbPath := GetDBPath()

	// 确保目录存在
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// 测试连接
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}
