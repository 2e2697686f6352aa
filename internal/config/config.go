// Package config loads settings for the classifier client and the reference
// classification service.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DefaultConfigFile = "classifier.yaml"
	envPrefix         = "CLASSIFIER"
)

// Client configures the terminal client.
type Client struct {
	BaseURL      string        `mapstructure:"base_url"`
	Timeout      time.Duration `mapstructure:"timeout"`
	LogFile      string        `mapstructure:"log_file"`
	AltScreen    bool          `mapstructure:"alt_screen"`
	PreviewLimit int           `mapstructure:"preview_limit"`
}

func defaultClient() *Client {
	return &Client{
		BaseURL:      "http://localhost:8080/api",
		Timeout:      60 * time.Second,
		AltScreen:    true,
		PreviewLimit: 500,
	}
}

// Load reads the optional YAML file at path, then CLASSIFIER_* environment
// variables (a .env file in the working directory is loaded first). A
// missing file is not an error.
func Load(path string) (*Client, error) {
	_ = godotenv.Load()

	defaults := defaultClient()
	v := viper.New()
	v.SetDefault("base_url", defaults.BaseURL)
	v.SetDefault("timeout", defaults.Timeout)
	v.SetDefault("log_file", defaults.LogFile)
	v.SetDefault("alt_screen", defaults.AltScreen)
	v.SetDefault("preview_limit", defaults.PreviewLimit)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path == "" {
		path = DefaultConfigFile
	}
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := defaultClient()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the values a run cannot recover from.
func (c *Client) Validate() error {
	if c.BaseURL == "" {
		return errors.New("base_url is required")
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("base_url: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("base_url must be an absolute http(s) URL, got %q", c.BaseURL)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	if c.PreviewLimit < 0 {
		return fmt.Errorf("preview_limit must not be negative, got %d", c.PreviewLimit)
	}
	return nil
}

// LLM providers understood by the service.
const (
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"
	ProviderNone   = "none"
)

// Server configures cmd/classifyd.
type Server struct {
	Port               string
	APIPrefix          string
	RateLimitPerMinute int
	PreviewLimit       int

	LLMProvider   string
	OllamaHost    string
	OllamaModel   string
	OpenAIKey     string
	OpenAIModel   string
	OpenAIBaseURL string
}

// LoadServer reads the service settings from the environment.
func LoadServer() (*Server, error) {
	_ = godotenv.Load()

	cfg := &Server{
		Port:          getEnv("PORT", "8080"),
		APIPrefix:     getEnv("API_PREFIX", "/api"),
		OllamaHost:    getEnv("OLLAMA_HOST", ""),
		OllamaModel:   getEnv("OLLAMA_MODEL", ""),
		OpenAIKey:     getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:   getEnv("OPENAI_MODEL", ""),
		OpenAIBaseURL: getEnv("OPENAI_BASE_URL", ""),
	}
	var err error
	if cfg.RateLimitPerMinute, err = getEnvInt("RATE_LIMIT_PER_MINUTE", 30); err != nil {
		return nil, err
	}
	if cfg.PreviewLimit, err = getEnvInt("PREVIEW_LIMIT", 500); err != nil {
		return nil, err
	}
	cfg.LLMProvider = strings.ToLower(getEnv("LLM_PROVIDER", ""))
	if cfg.LLMProvider == "" {
		if cfg.OpenAIKey != "" {
			cfg.LLMProvider = ProviderOpenAI
		} else {
			cfg.LLMProvider = ProviderOllama
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Server) Validate() error {
	if c.Port == "" {
		return errors.New("PORT is required")
	}
	if !strings.HasPrefix(c.APIPrefix, "/") {
		return fmt.Errorf("API_PREFIX must start with /, got %q", c.APIPrefix)
	}
	if c.RateLimitPerMinute <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be positive, got %d", c.RateLimitPerMinute)
	}
	switch c.LLMProvider {
	case ProviderOllama, ProviderNone:
	case ProviderOpenAI:
		if c.OpenAIKey == "" {
			return errors.New("OPENAI_API_KEY is required for the openai provider")
		}
	default:
		return fmt.Errorf("unknown LLM_PROVIDER %q", c.LLMProvider)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(raw) == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}
