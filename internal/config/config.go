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

// Config 聚合整个服务的配置项。
type Config struct {
	Server   ServerConfig
	AI       AIConfig
	Weather  WeatherConfig
	Search   SearchConfig
	Database DatabaseConfig
	Redis    RedisConfig
	RAG      RAGConfig
	Log      LogConfig
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

	weather, err := loadWeatherConfig()
	if err != nil {
		return nil, err
	}

	search, err := loadSearchConfig()
	if err != nil {
		return nil, err
	}

	database, err := loadDatabaseConfig()
	if err != nil {
		return nil, err
	}

	rag, err := loadRAGConfig()
	if err != nil {
		return nil, err
	}

	logCfg, err := loadLogConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server:   server,
		AI:       ai,
		Weather:  weather,
		Search:   search,
		Database: database,
		Redis:    RedisConfig{URL: strings.TrimSpace(os.Getenv("REDIS_URL"))},
		RAG:      rag,
		Log:      logCfg,
	}, nil
}

// ServerConfig 描述 HTTP 服务配置。
type ServerConfig struct {
	Addr           string
	UploadMaxBytes int64
}

// loadServerConfig 解析服务器监听地址。
func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8000"
	}

	uploadMax := int64(32 << 20)
	if override, err := parseOptionalIntEnv("UPLOAD_MAX_BYTES"); err != nil {
		return ServerConfig{}, err
	} else if override != nil && *override > 0 {
		uploadMax = int64(*override)
	}

	if strings.Contains(port, ":") {
		// 允许用户直接传入 ":8000" 或 "127.0.0.1:8000"。
		return ServerConfig{Addr: port, UploadMaxBytes: uploadMax}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port, UploadMaxBytes: uploadMax}, nil
}

// AIConfig 描述大模型相关配置。
type AIConfig struct {
	APIKey      string
	AccessKey   string
	SecretKey   string
	Model       string
	BaseURL     string
	Region      string
	Temperature *float64
	TopP        *float64
	MaxTokens   *int
}

// Enabled 表示是否提供了必需的密钥。
func (c AIConfig) Enabled() bool {
	return c.Model != "" && (c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != ""))
}

// NewChatModel 使用配置创建一个模型实例。
func (c AIConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("Ark 凭证或模型配置缺失，至少提供 ARK_API_KEY + Model 或 AK/SK 组合")
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
	if temperature == nil {
		// 路由分类需要确定性输出。
		zero := 0.0
		temperature = &zero
	}

	topP, err := parseOptionalFloatEnv("ARK_TOP_P")
	if err != nil {
		return AIConfig{}, err
	}

	maxTokens, err := parseOptionalIntEnv("ARK_MAX_TOKENS")
	if err != nil {
		return AIConfig{}, err
	}

	return AIConfig{
		APIKey:      strings.TrimSpace(os.Getenv("ARK_API_KEY")),
		AccessKey:   strings.TrimSpace(os.Getenv("ARK_ACCESS_KEY")),
		SecretKey:   strings.TrimSpace(os.Getenv("ARK_SECRET_KEY")),
		Model:       strings.TrimSpace(os.Getenv("Model")),
		BaseURL:     getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
		Region:      getEnvOrDefault("ARK_REGION", "cn-beijing"),
		Temperature: temperature,
		TopP:        topP,
		MaxTokens:   maxTokens,
	}, nil
}

// WeatherConfig 描述天气查询服务配置。
type WeatherConfig struct {
	APIKey   string
	BaseURL  string
	CacheTTL time.Duration
}

func loadWeatherConfig() (WeatherConfig, error) {
	ttl, err := parseDurationEnv("WEATHER_CACHE_TTL", 10*time.Minute)
	if err != nil {
		return WeatherConfig{}, err
	}

	return WeatherConfig{
		APIKey:   strings.TrimSpace(os.Getenv("OPENWEATHER_API_KEY")),
		BaseURL:  getEnvOrDefault("OPENWEATHER_BASE_URL", "http://api.openweathermap.org/data/2.5/weather"),
		CacheTTL: ttl,
	}, nil
}

// SearchConfig 描述网页搜索配置。
type SearchConfig struct {
	BaseURL string
	Timeout time.Duration
}

func loadSearchConfig() (SearchConfig, error) {
	timeout, err := parseDurationEnv("SEARCH_TIMEOUT", 30*time.Second)
	if err != nil {
		return SearchConfig{}, err
	}

	return SearchConfig{
		BaseURL: getEnvOrDefault("SEARCH_BASE_URL", "https://html.duckduckgo.com/html/"),
		Timeout: timeout,
	}, nil
}

// DatabaseConfig 描述会议数据库配置。
type DatabaseConfig struct {
	Path string
	// QueryTimeoutSeconds 为结构化查询的执行预算。
	QueryTimeoutSeconds int
}

func loadDatabaseConfig() (DatabaseConfig, error) {
	timeout := 10
	if override, err := parseOptionalIntEnv("DB_QUERY_TIMEOUT"); err != nil {
		return DatabaseConfig{}, err
	} else if override != nil {
		if *override < 1 {
			timeout = 1
		} else {
			timeout = *override
		}
	}

	return DatabaseConfig{
		Path:                getEnvOrDefault("DATABASE_PATH", "./meetings.db"),
		QueryTimeoutSeconds: timeout,
	}, nil
}

// RedisConfig 描述天气缓存使用的 Redis。
type RedisConfig struct {
	URL string
}

// Enabled 表示是否配置了 Redis。
func (c RedisConfig) Enabled() bool {
	return c.URL != ""
}

// RAGConfig 描述文档切分与检索配置。
type RAGConfig struct {
	ChunkSize    int
	ChunkOverlap int
	TopK         int
	EmbeddingDim int
}

func loadRAGConfig() (RAGConfig, error) {
	cfg := RAGConfig{ChunkSize: 1000, ChunkOverlap: 100, TopK: 3, EmbeddingDim: 384}

	overrides := []struct {
		key string
		dst *int
		min int
	}{
		{"RAG_CHUNK_SIZE", &cfg.ChunkSize, 1},
		{"RAG_CHUNK_OVERLAP", &cfg.ChunkOverlap, 0},
		{"RAG_TOP_K", &cfg.TopK, 1},
		{"RAG_EMBEDDING_DIM", &cfg.EmbeddingDim, 8},
	}
	for _, o := range overrides {
		val, err := parseOptionalIntEnv(o.key)
		if err != nil {
			return RAGConfig{}, err
		}
		if val == nil {
			continue
		}
		if *val < o.min {
			return RAGConfig{}, fmt.Errorf("invalid %s value %d: must be >= %d", o.key, *val, o.min)
		}
		*o.dst = *val
	}

	if cfg.ChunkOverlap >= cfg.ChunkSize {
		return RAGConfig{}, fmt.Errorf("RAG_CHUNK_OVERLAP (%d) must be smaller than RAG_CHUNK_SIZE (%d)", cfg.ChunkOverlap, cfg.ChunkSize)
	}
	return cfg, nil
}

// LogConfig 描述日志输出配置。
type LogConfig struct {
	Level  string
	Pretty bool
}

func loadLogConfig() (LogConfig, error) {
	pretty, err := parseBoolEnv("LOG_PRETTY", false)
	if err != nil {
		return LogConfig{}, err
	}
	return LogConfig{
		Level:  strings.ToLower(getEnvOrDefault("LOG_LEVEL", "info")),
		Pretty: pretty,
	}, nil
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
