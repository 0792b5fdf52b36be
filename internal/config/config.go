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

// Backend names a text-generation provider.
type Backend string

const (
	BackendGemini Backend = "gemini"
	BackendArk    Backend = "ark"
)

const (
	defaultGeminiModel  = "gemini-pro-latest"
	defaultTimeout      = 60 * time.Second
	defaultHistoryTurns = 10
	defaultProfilesDir  = "profiles"
)

// Config 聚合整个服务的配置项。
type Config struct {
	Server   ServerConfig
	AI       AIConfig
	Profiles ProfilesConfig
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

	strict, err := parseBoolEnv("PROFILES_STRICT", false)
	if err != nil {
		return nil, err
	}

	return &Config{
		Server: server,
		AI:     ai,
		Profiles: ProfilesConfig{
			Dir:    getEnvOrDefault("PROFILES_DIR", defaultProfilesDir),
			Strict: strict,
		},
	}, nil
}

// ServerConfig 描述 HTTP 服务配置。
type ServerConfig struct {
	Addr          string
	AllowedOrigin string
}

// ProfilesConfig 描述角色档案文件的位置。
type ProfilesConfig struct {
	Dir string
	// Strict 为 true 时，缺少任一角色档案将导致启动失败。
	Strict bool
}

// loadServerConfig 解析服务器监听地址。
func loadServerConfig() (ServerConfig, error) {
	origin := getEnvOrDefault("CORS_ALLOWED_ORIGIN", "*")

	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// 允许用户直接传入 ":8080" 或 "127.0.0.1:8080"。
		return ServerConfig{Addr: port, AllowedOrigin: origin}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port, AllowedOrigin: origin}, nil
}

// AIConfig 描述大模型相关配置。
type AIConfig struct {
	Backend Backend

	GeminiAPIKey string
	GeminiModel  string

	APIKey      string
	AccessKey   string
	SecretKey   string
	Model       string
	BaseURL     string
	Region      string
	Temperature *float64
	TopP        *float64
	MaxTokens   *int

	// Timeout bounds a single generation call.
	Timeout time.Duration
	// HistoryTurns caps how many past turns are replayed into a prompt; 0 means all.
	HistoryTurns int
}

// Enabled 表示所选后端是否提供了必需的密钥。
func (c AIConfig) Enabled() bool {
	switch c.Backend {
	case BackendArk:
		return c.Model != "" && (c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != ""))
	default:
		return c.GeminiAPIKey != ""
	}
}

// MissingCredential describes what has to be set to enable generation.
func (c AIConfig) MissingCredential() string {
	switch c.Backend {
	case BackendArk:
		return "ARK_API_KEY (or ARK_ACCESS_KEY + ARK_SECRET_KEY) and Model"
	default:
		return "GEMINI_API_KEY"
	}
}

// NewChatModel 使用配置创建一个 Ark 模型实例。
func (c AIConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	if c.Backend != BackendArk || !c.Enabled() {
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
	backend, err := parseBackend(getEnvOrDefault("GEN_BACKEND", string(BackendGemini)))
	if err != nil {
		return AIConfig{}, err
	}

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

	timeout, err := parseDurationEnv("GENERATION_TIMEOUT", defaultTimeout)
	if err != nil {
		return AIConfig{}, err
	}

	historyTurns := defaultHistoryTurns
	if override, err := parseOptionalIntEnv("HISTORY_TURN_LIMIT"); err != nil {
		return AIConfig{}, err
	} else if override != nil {
		if *override < 0 {
			return AIConfig{}, fmt.Errorf("invalid HISTORY_TURN_LIMIT value %d: must be >= 0", *override)
		}
		historyTurns = *override
	}

	return AIConfig{
		Backend:      backend,
		GeminiAPIKey: strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
		GeminiModel:  getEnvOrDefault("GEMINI_MODEL", defaultGeminiModel),
		APIKey:       strings.TrimSpace(os.Getenv("ARK_API_KEY")),
		AccessKey:    strings.TrimSpace(os.Getenv("ARK_ACCESS_KEY")),
		SecretKey:    strings.TrimSpace(os.Getenv("ARK_SECRET_KEY")),
		Model:        strings.TrimSpace(os.Getenv("Model")),
		BaseURL:      getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
		Region:       getEnvOrDefault("ARK_REGION", "cn-beijing"),
		Temperature:  temperature,
		TopP:         topP,
		MaxTokens:    maxTokens,
		Timeout:      timeout,
		HistoryTurns: historyTurns,
	}, nil
}

func parseBackend(raw string) (Backend, error) {
	switch Backend(strings.ToLower(raw)) {
	case BackendGemini:
		return BackendGemini, nil
	case BackendArk:
		return BackendArk, nil
	default:
		return "", fmt.Errorf("invalid GEN_BACKEND value %q: want gemini or ark", raw)
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

// parseDurationEnv accepts Go durations ("90s", "2m") or bare seconds ("90").
func parseDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	if secs, err := strconv.Atoi(raw); err == nil {
		if secs <= 0 {
			return 0, fmt.Errorf("invalid %s value %q: must be positive", key, raw)
		}
		return time.Duration(secs) * time.Second, nil
	}

	val, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	if val <= 0 {
		return 0, fmt.Errorf("invalid %s value %q: must be positive", key, raw)
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
