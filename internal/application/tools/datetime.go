package tools

import (
	"context"
	"time"

	"github.com/toheart/courseagent/internal/domain/session"
)

// Datetime 当前时间工具
type Datetime struct{}

// NewDatetime 创建时间工具
func NewDatetime() *Datetime {
	return &Datetime{}
}

// Name 实现 Tool 接口
func (d *Datetime) Name() session.Tool { return session.ToolDatetime }

// Description 实现 Tool 接口
func (d *Datetime) Description() string {
	return "获取当前日期和时间，无参数"
}

// Execute 实现 Tool 接口
func (d *Datetime) Execute(_ context.Context, _ string, _ map[string]string) (string, error) {
	return time.Now().Format("2006-01-02 15:04:05 Monday"), nil
}
