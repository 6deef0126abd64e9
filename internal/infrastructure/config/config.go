package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config 应用配置
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	LLM       LLMConfig       `yaml:"llm"`
	Ingest    IngestConfig    `yaml:"ingest"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Memory    MemoryConfig    `yaml:"memory"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	HTTPPort string `yaml:"http_port"` // 固定端口，用于单例锁
	MCPPort  string `yaml:"mcp_port"`
}

// EmbeddingConfig Embedding 服务配置
type EmbeddingConfig struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
	// Dimension 向量维度，索引兼容性校验的依据
	Dimension int `yaml:"dimension"`
}

// LLMConfig Chat 模型配置
type LLMConfig struct {
	BaseURL string        `yaml:"base_url"`
	APIKey  string        `yaml:"api_key"`
	Model   string        `yaml:"model"`
	Timeout time.Duration `yaml:"timeout"`
}

// IngestConfig 文档切分配置
type IngestConfig struct {
	ChunkSize int `yaml:"chunk_size"`
	Overlap   int `yaml:"overlap"`
}

// RetrievalConfig 检索配置
type RetrievalConfig struct {
	TopK int `yaml:"top_k"`
	// MaxContextTokens 注入 Prompt 的检索上下文 Token 上限
	MaxContextTokens int `yaml:"max_context_tokens"`
}

// MemoryConfig 记忆系统配置
type MemoryConfig struct {
	// MasteryThreshold 低于该分数的标签记为薄弱点
	MasteryThreshold float64 `yaml:"mastery_threshold"`
	// ClearStreak 连续达标次数，达到后清除薄弱标记
	ClearStreak int `yaml:"clear_streak"`
}

// NewConfig 创建配置（默认值 + 可选配置文件 + 环境变量覆盖）
func NewConfig() *Config {
	cfg := defaultConfig()

	// 配置文件：$COURSEAGENT_CONFIG 或数据目录下的 config.yaml
	path := os.Getenv("COURSEAGENT_CONFIG")
	if path == "" {
		path = ConfigFilePath()
	}
	if data, err := os.ReadFile(path); err == nil {
		// 配置文件损坏时保留默认值，由调用方记录告警
		_ = yaml.Unmarshal(data, cfg)
	}

	applyEnvOverrides(cfg)
	return cfg
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPPort: ":19980",
			MCPPort:  ":19981",
		},
		Embedding: EmbeddingConfig{
			BaseURL:   "https://api.openai.com/v1",
			Model:     "text-embedding-3-small",
			Dimension: 1536,
		},
		LLM: LLMConfig{
			BaseURL: "https://api.openai.com/v1",
			Model:   "gpt-4o-mini",
			Timeout: 60 * time.Second,
		},
		Ingest: IngestConfig{
			ChunkSize: 512,
			Overlap:   50,
		},
		Retrieval: RetrievalConfig{
			TopK:             3,
			MaxContextTokens: 2048,
		},
		Memory: MemoryConfig{
			MasteryThreshold: 60,
			ClearStreak:      3,
		},
	}
}

// applyEnvOverrides 环境变量优先级最高
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("COURSEAGENT_HTTP_PORT"); v != "" {
		cfg.Server.HTTPPort = normalizePort(v)
	}
	if v := os.Getenv("COURSEAGENT_MCP_PORT"); v != "" {
		cfg.Server.MCPPort = normalizePort(v)
	}
	if v := os.Getenv("OPENAI_BASE_URL"); v != "" {
		cfg.Embedding.BaseURL = v
		cfg.LLM.BaseURL = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.Embedding.APIKey = v
		cfg.LLM.APIKey = v
	}
	if v := os.Getenv("EMBEDDING_MODEL"); v != "" {
		cfg.Embedding.Model = v
	}
	if v := os.Getenv("LLM_MODEL"); v != "" {
		cfg.LLM.Model = v
	}
}

// normalizePort 补齐端口前的冒号
func normalizePort(port string) string {
	if port == "" || port[0] == ':' {
		return port
	}
	return fmt.Sprintf(":%s", port)
}

// NewServerConfig 创建服务器配置
func NewServerConfig(cfg *Config) *ServerConfig {
	return &cfg.Server
}

// NewEmbeddingConfig 创建 Embedding 配置
func NewEmbeddingConfig(cfg *Config) *EmbeddingConfig {
	return &cfg.Embedding
}

// NewLLMConfig 创建 LLM 配置
func NewLLMConfig(cfg *Config) *LLMConfig {
	return &cfg.LLM
}

// NewIngestConfig 创建切分配置
func NewIngestConfig(cfg *Config) *IngestConfig {
	return &cfg.Ingest
}

// NewRetrievalConfig 创建检索配置
func NewRetrievalConfig(cfg *Config) *RetrievalConfig {
	return &cfg.Retrieval
}

// NewMemoryConfig 创建记忆配置
func NewMemoryConfig(cfg *Config) *MemoryConfig {
	return &cfg.Memory
}
