package log

import (
	"os"
	"strconv"
	"strings"
)

// Config 日志配置，全部来自环境变量
type Config struct {
	// Level 日志级别：debug, info, warn, error
	Level string
	// Format 输出格式：console, json
	Format string
	// AddSource 是否附带源码位置
	AddSource bool
}

// NewConfigFromEnv 从环境变量创建配置
// COURSEAGENT_ENV=development 时强制 debug 级别并附带源码位置
func NewConfigFromEnv() *Config {
	cfg := &Config{
		Level:     envOr("COURSEAGENT_LOG_LEVEL", "info"),
		Format:    envOr("COURSEAGENT_LOG_FORMAT", "console"),
		AddSource: envBool("COURSEAGENT_LOG_SOURCE", false),
	}

	if strings.EqualFold(envOr("COURSEAGENT_ENV", "production"), "development") {
		cfg.Level = "debug"
		cfg.Format = "console"
		cfg.AddSource = true
	}
	return cfg
}

// envOr 读取环境变量，空值回落到默认值
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// envBool 读取布尔型环境变量，无法解析时回落到默认值
func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
