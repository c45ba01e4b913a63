package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino-ext/components/model/deepseek"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"

	"github.com/zhouzirui/finbot/backend/internal/model/market"
)

// Config 聚合整个服务的配置项。
type Config struct {
	Server    ServerConfig
	AI        AIConfig
	Market    MarketConfig
	Session   SessionConfig
	Auth      AuthConfig
	CORS      CORSConfig
	RateLimit RateLimitConfig
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

	mkt, err := loadMarketConfig()
	if err != nil {
		return nil, err
	}

	sess, err := loadSessionConfig()
	if err != nil {
		return nil, err
	}

	auth, err := loadAuthConfig()
	if err != nil {
		return nil, err
	}

	rateLimit, err := loadRateLimitConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server:    server,
		AI:        ai,
		Market:    mkt,
		Session:   sess,
		Auth:      auth,
		CORS:      CORSConfig{AllowedOrigins: splitList(os.Getenv("CORS_ALLOWED_ORIGINS"))},
		RateLimit: rateLimit,
	}, nil
}

// ServerConfig 描述 HTTP 服务配置。
type ServerConfig struct {
	Addr string
}

// loadServerConfig 解析服务器监听地址。
func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "5000"
	}

	if strings.Contains(port, ":") {
		// 允许用户直接传入 ":5000" 或 "127.0.0.1:5000"。
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// 支持的大模型提供方。
const (
	ProviderOpenAI   = "openai"
	ProviderArk      = "ark"
	ProviderDeepSeek = "deepseek"
)

// AIConfig 描述大模型相关配置。
type AIConfig struct {
	Provider     string
	APIKey       string
	AccessKey    string
	SecretKey    string
	Model        string
	BaseURL      string
	Region       string
	Temperature  *float64
	TopP         *float64
	MaxTokens    *int
	Timeout      time.Duration
	HistoryLimit int
}

// Enabled 表示是否提供了必需的密钥。
func (c AIConfig) Enabled() bool {
	switch c.Provider {
	case ProviderArk:
		return c.Model != "" && (c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != ""))
	default:
		return c.APIKey != ""
	}
}

// NewChatModel 根据 Provider 创建对应的模型实例。
func (c AIConfig) NewChatModel(ctx context.Context) (model.BaseChatModel, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("%s 凭证或模型配置缺失", c.Provider)
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

	switch c.Provider {
	case ProviderArk:
		return ark.NewChatModel(ctx, &ark.ChatModelConfig{
			BaseURL:     c.BaseURL,
			Region:      c.Region,
			APIKey:      c.APIKey,
			AccessKey:   c.AccessKey,
			SecretKey:   c.SecretKey,
			Model:       c.Model,
			MaxTokens:   c.MaxTokens,
			Temperature: temperature,
			TopP:        topP,
		})
	case ProviderDeepSeek:
		cfg := &deepseek.ChatModelConfig{
			APIKey:  c.APIKey,
			BaseURL: c.BaseURL,
			Model:   c.Model,
			Timeout: c.Timeout,
		}
		if temperature != nil {
			cfg.Temperature = *temperature
		}
		if topP != nil {
			cfg.TopP = *topP
		}
		if c.MaxTokens != nil {
			cfg.MaxTokens = *c.MaxTokens
		}
		return deepseek.NewChatModel(ctx, cfg)
	default:
		return openai.NewChatModel(ctx, &openai.ChatModelConfig{
			APIKey:      c.APIKey,
			BaseURL:     c.BaseURL,
			Model:       c.Model,
			Timeout:     c.Timeout,
			MaxTokens:   c.MaxTokens,
			Temperature: temperature,
			TopP:        topP,
		})
	}
}

func loadAIConfig() (AIConfig, error) {
	provider := strings.ToLower(getEnvOrDefault("LLM_PROVIDER", ProviderOpenAI))

	temperature, err := parseOptionalFloatEnv("LLM_TEMPERATURE")
	if err != nil {
		return AIConfig{}, err
	}
	if temperature == nil {
		// 分析回答需要可复现，默认温度为 0。
		zero := 0.0
		temperature = &zero
	}

	topP, err := parseOptionalFloatEnv("LLM_TOP_P")
	if err != nil {
		return AIConfig{}, err
	}

	maxTokens, err := parseOptionalIntEnv("LLM_MAX_TOKENS")
	if err != nil {
		return AIConfig{}, err
	}

	timeout, err := parseDurationEnv("AI_TIMEOUT", 60*time.Second)
	if err != nil {
		return AIConfig{}, err
	}

	historyLimit := 0
	if override, err := parseOptionalIntEnv("AI_HISTORY_LIMIT"); err != nil {
		return AIConfig{}, err
	} else if override != nil && *override > 0 {
		historyLimit = *override
	}

	cfg := AIConfig{
		Provider:     provider,
		Temperature:  temperature,
		TopP:         topP,
		MaxTokens:    maxTokens,
		Timeout:      timeout,
		HistoryLimit: historyLimit,
	}

	switch provider {
	case ProviderOpenAI:
		cfg.APIKey = strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
		cfg.BaseURL = strings.TrimSpace(os.Getenv("OPENAI_BASE_URL"))
		cfg.Model = getEnvOrDefault("LLM_MODEL", "gpt-3.5-turbo")
	case ProviderDeepSeek:
		cfg.APIKey = strings.TrimSpace(os.Getenv("DEEPSEEK_API_KEY"))
		cfg.BaseURL = getEnvOrDefault("DEEPSEEK_BASE_URL", "https://api.deepseek.com/")
		cfg.Model = getEnvOrDefault("LLM_MODEL", "deepseek-chat")
	case ProviderArk:
		cfg.APIKey = strings.TrimSpace(os.Getenv("ARK_API_KEY"))
		cfg.AccessKey = strings.TrimSpace(os.Getenv("ARK_ACCESS_KEY"))
		cfg.SecretKey = strings.TrimSpace(os.Getenv("ARK_SECRET_KEY"))
		cfg.BaseURL = getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3")
		cfg.Region = getEnvOrDefault("ARK_REGION", "cn-beijing")
		cfg.Model = strings.TrimSpace(os.Getenv("LLM_MODEL"))
	default:
		return AIConfig{}, fmt.Errorf("invalid LLM_PROVIDER value %q", provider)
	}

	return cfg, nil
}

// 支持的行情数据源。
const (
	MarketYahoo   = "yahoo"
	MarketFinnhub = "finnhub"
)

// MarketConfig 描述行情数据源配置。
type MarketConfig struct {
	Provider      string
	FinnhubAPIKey string
	FinnhubURL    string
	HistoryRange  market.Range
	Timeout       time.Duration
	CacheTTL      time.Duration
	CacheMaxItems int
	MaxRetries    int
	MaxSymbols    int
}

func loadMarketConfig() (MarketConfig, error) {
	provider := strings.ToLower(getEnvOrDefault("MARKET_PROVIDER", MarketYahoo))
	if provider != MarketYahoo && provider != MarketFinnhub {
		return MarketConfig{}, fmt.Errorf("invalid MARKET_PROVIDER value %q", provider)
	}

	rng := market.Range(getEnvOrDefault("MARKET_HISTORY_RANGE", string(market.Range1mo)))
	if !rng.Valid() {
		return MarketConfig{}, fmt.Errorf("invalid MARKET_HISTORY_RANGE value %q", rng)
	}

	timeout, err := parseDurationEnv("MARKET_TIMEOUT", 20*time.Second)
	if err != nil {
		return MarketConfig{}, err
	}

	cacheTTL, err := parseDurationEnv("MARKET_CACHE_TTL", 60*time.Second)
	if err != nil {
		return MarketConfig{}, err
	}

	cacheMax, err := parseIntEnv("MARKET_CACHE_MAX", 512)
	if err != nil {
		return MarketConfig{}, err
	}

	retries, err := parseIntEnv("MARKET_MAX_RETRIES", 2)
	if err != nil {
		return MarketConfig{}, err
	}

	maxSymbols, err := parseIntEnv("MARKET_MAX_SYMBOLS", 10)
	if err != nil {
		return MarketConfig{}, err
	}

	cfg := MarketConfig{
		Provider:      provider,
		FinnhubAPIKey: strings.TrimSpace(os.Getenv("FINNHUB_API_KEY")),
		FinnhubURL:    strings.TrimSpace(os.Getenv("FINNHUB_BASE_URL")),
		HistoryRange:  rng,
		Timeout:       timeout,
		CacheTTL:      cacheTTL,
		CacheMaxItems: cacheMax,
		MaxRetries:    retries,
		MaxSymbols:    maxSymbols,
	}
	if cfg.Provider == MarketFinnhub && cfg.FinnhubAPIKey == "" {
		return MarketConfig{}, fmt.Errorf("FINNHUB_API_KEY is required when MARKET_PROVIDER=finnhub")
	}
	return cfg, nil
}

// SessionConfig 描述会话存储的容量与过期策略。
type SessionConfig struct {
	IdleTTL       time.Duration
	MaxSessions   int
	SweepInterval time.Duration
}

func loadSessionConfig() (SessionConfig, error) {
	idle, err := parseDurationEnv("SESSION_IDLE_TTL", 2*time.Hour)
	if err != nil {
		return SessionConfig{}, err
	}

	maxSessions, err := parseIntEnv("SESSION_MAX", 10000)
	if err != nil {
		return SessionConfig{}, err
	}

	sweep, err := parseDurationEnv("SESSION_SWEEP_INTERVAL", 5*time.Minute)
	if err != nil {
		return SessionConfig{}, err
	}

	return SessionConfig{IdleTTL: idle, MaxSessions: maxSessions, SweepInterval: sweep}, nil
}

// AuthConfig 描述 Basic Auth 凭证，键为用户名。
type AuthConfig struct {
	Users map[string]string
}

// Enabled 表示是否配置了任何凭证。
func (c AuthConfig) Enabled() bool {
	return len(c.Users) > 0
}

// loadAuthConfig 解析 AUTH_USERS，格式为 "user:pass,user2:pass2"。
func loadAuthConfig() (AuthConfig, error) {
	users := make(map[string]string)
	for _, pair := range splitList(os.Getenv("AUTH_USERS")) {
		name, pass, ok := strings.Cut(pair, ":")
		name = strings.TrimSpace(name)
		if !ok || name == "" || pass == "" {
			return AuthConfig{}, fmt.Errorf("invalid AUTH_USERS entry %q", pair)
		}
		users[name] = pass
	}
	return AuthConfig{Users: users}, nil
}

// CORSConfig 描述跨域配置，为空时允许任意来源。
type CORSConfig struct {
	AllowedOrigins []string
}

// RateLimitConfig 描述并发限流配置。
type RateLimitConfig struct {
	Concurrency int
	Backlog     int
	Timeout     time.Duration
}

func loadRateLimitConfig() (RateLimitConfig, error) {
	concurrency, err := parseIntEnv("RATE_LIMIT_CONCURRENCY", 64)
	if err != nil {
		return RateLimitConfig{}, err
	}
	if concurrency < 1 {
		return RateLimitConfig{}, fmt.Errorf("RATE_LIMIT_CONCURRENCY must be positive, got %d", concurrency)
	}

	backlog, err := parseIntEnv("RATE_LIMIT_BACKLOG", 128)
	if err != nil {
		return RateLimitConfig{}, err
	}

	timeout, err := parseDurationEnv("RATE_LIMIT_BACKLOG_TIMEOUT", 30*time.Second)
	if err != nil {
		return RateLimitConfig{}, err
	}

	return RateLimitConfig{Concurrency: concurrency, Backlog: backlog, Timeout: timeout}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func parseIntEnv(key string, defaultValue int) (int, error) {
	val, err := parseOptionalIntEnv(key)
	if err != nil {
		return 0, err
	}
	if val == nil {
		return defaultValue, nil
	}
	return *val, nil
}

// parseDurationEnv 接受 Go duration 字符串（如 "20s"），纯数字按秒处理。
func parseDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second, nil
	}

	val, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
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
