package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
)

// Store backends accepted by TRANSCRIPT_STORE.
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

// Config 聚合整个服务的配置项。
type Config struct {
	Server ServerConfig
	AI     AIConfig
	Chat   ChatConfig
	Store  StoreConfig
	Log    LogConfig
}

// Load 从环境变量加载配置。
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	ai, err := loadAIConfig()
	if err != nil {
		return nil, err
	}

	chat, err := loadChatConfig()
	if err != nil {
		return nil, err
	}

	store, err := loadStoreConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server: server,
		AI:     ai,
		Chat:   chat,
		Store:  store,
		Log:    loadLogConfig(),
	}, nil
}

// ServerConfig 描述 HTTP 服务配置。
type ServerConfig struct {
	Addr string
}

// loadServerConfig 解析服务器监听地址。
func loadServerConfig() (ServerConfig, error) {
	addr, err := ParseAddr(os.Getenv("PORT"))
	if err != nil {
		return ServerConfig{}, err
	}
	return ServerConfig{Addr: addr}, nil
}

// ParseAddr turns a PORT style value into a listen address. Empty means the default port 5001.
func ParseAddr(raw string) (string, error) {
	port := strings.TrimSpace(raw)
	if port == "" {
		port = "5001"
	}

	if strings.Contains(port, ":") {
		// 允许用户直接传入 ":5001" 或 "127.0.0.1:5001"。
		return port, nil
	}

	if strings.Contains(port, " ") {
		return "", fmt.Errorf("invalid PORT value: %q", port)
	}

	return ":" + port, nil
}

// AIConfig 描述大模型相关配置。
type AIConfig struct {
	APIKey         string
	AccessKey      string
	SecretKey      string
	Model          string
	BaseURL        string
	Region         string
	Temperature    *float64
	TopP           *float64
	MaxTokens      *int
	ResolveTimeout time.Duration
}

// Enabled 表示是否提供了必需的密钥。
func (c AIConfig) Enabled() bool {
	return c.Model != "" && (c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != ""))
}

// NewChatModel 使用配置创建一个模型实例。
func (c AIConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("Ark 凭证或模型配置缺失，至少提供 ARK_API_KEY + ARK_MODEL 或 AK/SK 组合")
	}

	var temperature *float32
	if c.Temperature != nil {
		val := float32(*c.Temperature)
		temperature = &val
	}

	var topP *float32
	if c.TopP != nil {
		val := float32(*c.TopP)
		topP = &val
	}

	var maxTokens *int
	if c.MaxTokens != nil {
		val := *c.MaxTokens
		maxTokens = &val
	}

	cfg := &ark.ChatModelConfig{
		BaseURL:     c.BaseURL,
		Region:      c.Region,
		APIKey:      c.APIKey,
		AccessKey:   c.AccessKey,
		SecretKey:   c.SecretKey,
		Model:       c.Model,
		MaxTokens:   maxTokens,
		Temperature: temperature,
		TopP:        topP,
	}

	return ark.NewChatModel(ctx, cfg)
}

func loadAIConfig() (AIConfig, error) {
	temperature, err := parseOptionalFloatEnv("ARK_TEMPERATURE")
	if err != nil {
		return AIConfig{}, err
	}

	topP, err := parseOptionalFloatEnv("ARK_TOP_P")
	if err != nil {
		return AIConfig{}, err
	}

	maxTokens, err := parseOptionalIntEnv("ARK_MAX_TOKENS")
	if err != nil {
		return AIConfig{}, err
	}

	timeout, err := parseDurationEnv("AI_RESOLVE_TIMEOUT", 60*time.Second)
	if err != nil {
		return AIConfig{}, err
	}

	return AIConfig{
		APIKey:         strings.TrimSpace(os.Getenv("ARK_API_KEY")),
		AccessKey:      strings.TrimSpace(os.Getenv("ARK_ACCESS_KEY")),
		SecretKey:      strings.TrimSpace(os.Getenv("ARK_SECRET_KEY")),
		Model:          strings.TrimSpace(os.Getenv("ARK_MODEL")),
		BaseURL:        getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
		Region:         getEnvOrDefault("ARK_REGION", "cn-beijing"),
		Temperature:    temperature,
		TopP:           topP,
		MaxTokens:      maxTokens,
		ResolveTimeout: timeout,
	}, nil
}

// ChatConfig 描述对话输入策略。
type ChatConfig struct {
	// MinMessageLength is the shortest accepted submission, counted in runes.
	MinMessageLength int
	// Live 为 true 时聊天页面通过 WebSocket 提交消息。
	Live bool
}

func loadChatConfig() (ChatConfig, error) {
	minLength := 6
	if override, err := parseOptionalIntEnv("CHAT_MIN_MESSAGE_LENGTH"); err != nil {
		return ChatConfig{}, err
	} else if override != nil {
		if *override < 1 {
			minLength = 1
		} else {
			minLength = *override
		}
	}
	live, err := parseBoolEnv("CHAT_LIVE", false)
	if err != nil {
		return ChatConfig{}, err
	}
	return ChatConfig{MinMessageLength: minLength, Live: live}, nil
}

// StoreConfig 描述会话记录的存储后端。
type StoreConfig struct {
	Backend  string
	RedisURL string
	TTL      time.Duration
}

func loadStoreConfig() (StoreConfig, error) {
	backend := strings.ToLower(getEnvOrDefault("TRANSCRIPT_STORE", StoreMemory))
	if backend != StoreMemory && backend != StoreRedis {
		return StoreConfig{}, fmt.Errorf("invalid TRANSCRIPT_STORE value %q", backend)
	}

	ttl, err := parseDurationEnv("TRANSCRIPT_TTL", 24*time.Hour)
	if err != nil {
		return StoreConfig{}, err
	}

	redisURL := getEnvOrDefault("REDIS_URL", "redis://localhost:6379/0")
	return StoreConfig{Backend: backend, RedisURL: redisURL, TTL: ttl}, nil
}

// LogConfig 描述日志输出。
type LogConfig struct {
	Level  string
	Format string
}

func loadLogConfig() LogConfig {
	return LogConfig{
		Level:  strings.ToLower(getEnvOrDefault("LOG_LEVEL", "info")),
		Format: strings.ToLower(getEnvOrDefault("LOG_FORMAT", "console")),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseBoolEnv(key string, defaultValue bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

func parseDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	if val < 0 {
		return 0, fmt.Errorf("invalid %s value %q: must not be negative", key, raw)
	}
	return val, nil
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
