package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

const envPrefix = "PORTFOLIOGO_"

type Config struct {
	ProjectDir   string `json:"project_dir" toml:"project_dir"`
	ResultsDir   string `json:"results_dir" toml:"results_dir"`
	DataDir      string `json:"data_dir" toml:"data_dir"`
	DataCacheDir string `json:"data_cache_dir" toml:"data_cache_dir"`

	LogLevel string `json:"log_level" toml:"log_level" validate:"omitempty,oneof=trace debug info warn error"`
	Debug    bool   `json:"debug" toml:"debug"`

	// Language model
	LLMProvider    string  `json:"llm_provider" toml:"llm_provider" validate:"required,oneof=openai deepseek"`
	QuickThinkLLM  string  `json:"quick_think_llm" toml:"quick_think_llm" validate:"required"`
	DeepThinkLLM   string  `json:"deep_think_llm" toml:"deep_think_llm" validate:"required"`
	BackendURL     string  `json:"backend_url" toml:"backend_url" validate:"omitempty,url"`
	MaxTokens      int     `json:"max_tokens" toml:"max_tokens" validate:"gte=0"`
	Temperature    float64 `json:"temperature" toml:"temperature" validate:"gte=0,lte=2"`
	OpenAIAPIKey   string  `json:"-" toml:"-"` // env only
	DeepSeekAPIKey string  `json:"-" toml:"-"` // env only

	// Market data
	YahooBaseURL       string `json:"yahoo_base_url" toml:"yahoo_base_url" validate:"required,url"`
	SymbolSuffix       string `json:"symbol_suffix" toml:"symbol_suffix"`
	HistoryPeriodYears int    `json:"history_period_years" toml:"history_period_years" validate:"gte=1"`
	HistoryInterval    string `json:"history_interval" toml:"history_interval" validate:"required"`
	TechnicalDays      int    `json:"technical_days" toml:"technical_days" validate:"gte=30"`
	UniverseURL        string `json:"universe_url" toml:"universe_url" validate:"omitempty,url"`
	HTTPTimeoutSeconds int    `json:"http_timeout_seconds" toml:"http_timeout_seconds" validate:"gte=1"`
	CacheEnabled       bool   `json:"cache_enabled" toml:"cache_enabled"`
	CacheTTLMinutes    int    `json:"cache_ttl_minutes" toml:"cache_ttl_minutes" validate:"gte=0"`

	// News
	NewsAPIKey         string  `json:"-" toml:"-"` // env only
	NewsAPIBaseURL     string  `json:"news_api_base_url" toml:"news_api_base_url" validate:"required,url"`
	NewsAPIRatePerSec  float64 `json:"news_api_rate_per_sec" toml:"news_api_rate_per_sec" validate:"gt=0"`
	NewsLookbackDays   int     `json:"news_lookback_days" toml:"news_lookback_days" validate:"gte=1"`
	MaxArticles        int     `json:"max_articles" toml:"max_articles" validate:"gte=1"`
	FallbackPageSize   int     `json:"fallback_page_size" toml:"fallback_page_size" validate:"gte=1,lte=100"`
	PrimaryNewsFetched int     `json:"primary_news_fetched" toml:"primary_news_fetched" validate:"gte=1"`

	// Screener
	ScreenerWorkers int `json:"screener_workers" toml:"screener_workers" validate:"gte=1,lte=64"`

	// HTTP server
	ServerAddr     string   `json:"server_addr" toml:"server_addr" validate:"required"`
	AllowedOrigins []string `json:"allowed_origins" toml:"allowed_origins"`
	MaxUploadMB    int      `json:"max_upload_mb" toml:"max_upload_mb" validate:"gte=1"`

	// Eino Debug configuration
	EinoDebugEnabled bool `json:"eino_debug_enabled" toml:"eino_debug_enabled"`
	EinoDebugPort    int  `json:"eino_debug_port" toml:"eino_debug_port" validate:"omitempty,gte=1,lte=65535"`
}

// DefaultConfig returns the defaults rooted at the working directory with
// .env and environment overrides applied.
func DefaultConfig() *Config {
	currentDir, _ := os.Getwd()
	cfg := DefaultConfigWithRoot(currentDir)

	// Load environment variables from .env file
	_ = godotenv.Load()

	cfg.loadFromEnv()
	return cfg
}

// DefaultConfigWithRoot returns the built-in defaults with every directory
// placed under root. It does not read the environment.
func DefaultConfigWithRoot(root string) *Config {
	return &Config{
		ProjectDir:   root,
		ResultsDir:   filepath.Join(root, "results"),
		DataDir:      filepath.Join(root, "data"),
		DataCacheDir: filepath.Join(root, "data", "cache"),

		LogLevel: "info",

		LLMProvider:   "openai",
		QuickThinkLLM: "gpt-4o-mini",
		DeepThinkLLM:  "gpt-4o-mini",
		MaxTokens:     1024,
		Temperature:   0.2,

		YahooBaseURL:       "https://query2.finance.yahoo.com",
		SymbolSuffix:       ".NS",
		HistoryPeriodYears: 5,
		HistoryInterval:    "1d",
		TechnicalDays:      365,
		UniverseURL:        "https://archives.nseindia.com/content/equities/EQUITY_L.csv",
		HTTPTimeoutSeconds: 30,
		CacheEnabled:       true,
		CacheTTLMinutes:    15,

		NewsAPIBaseURL:     "https://newsapi.org/v2",
		NewsAPIRatePerSec:  1,
		NewsLookbackDays:   60,
		MaxArticles:        5,
		FallbackPageSize:   3,
		PrimaryNewsFetched: 10,

		ScreenerWorkers: 10,

		ServerAddr:     ":8080",
		AllowedOrigins: []string{"*"},
		MaxUploadMB:    10,

		EinoDebugEnabled: false,
		EinoDebugPort:    52538,
	}
}

// Load builds the effective configuration: defaults, then the TOML file at
// path when it exists, then .env and the process environment.
func Load(path string) (*Config, error) {
	currentDir, _ := os.Getwd()
	cfg := DefaultConfigWithRoot(currentDir)

	if path != "" {
		if err := loadConfigFromFile(path, cfg); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load config %s: %w", path, err)
		}
	}

	_ = godotenv.Load()
	cfg.loadFromEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadConfigFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse toml: %w", err)
	}
	return nil
}

var validate = validator.New()

// Validate checks the field constraints declared on Config.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// APIKey returns the key for the configured language model provider.
func (c *Config) APIKey() string {
	if c.LLMProvider == "deepseek" {
		return c.DeepSeekAPIKey
	}
	return c.OpenAIAPIKey
}

func (c *Config) loadFromEnv() {
	str := func(name string, dst *string) {
		if val := os.Getenv(name); val != "" {
			*dst = val
		}
	}
	integer := func(name string, dst *int) {
		if val := os.Getenv(name); val != "" {
			if v, err := strconv.Atoi(val); err == nil {
				*dst = v
			}
		}
	}
	boolean := func(name string, dst *bool) {
		if val := os.Getenv(name); val != "" {
			if v, err := strconv.ParseBool(val); err == nil {
				*dst = v
			}
		}
	}

	str(envPrefix+"PROJECT_DIR", &c.ProjectDir)
	str(envPrefix+"RESULTS_DIR", &c.ResultsDir)
	str(envPrefix+"DATA_DIR", &c.DataDir)
	str(envPrefix+"DATA_CACHE_DIR", &c.DataCacheDir)
	str(envPrefix+"LOG_LEVEL", &c.LogLevel)
	boolean(envPrefix+"DEBUG", &c.Debug)

	str(envPrefix+"LLM_PROVIDER", &c.LLMProvider)
	str(envPrefix+"QUICK_THINK_LLM", &c.QuickThinkLLM)
	str(envPrefix+"DEEP_THINK_LLM", &c.DeepThinkLLM)
	str(envPrefix+"BACKEND_URL", &c.BackendURL)
	integer(envPrefix+"MAX_TOKENS", &c.MaxTokens)
	if val := os.Getenv(envPrefix + "TEMPERATURE"); val != "" {
		if v, err := strconv.ParseFloat(val, 64); err == nil {
			c.Temperature = v
		}
	}
	str("OPENAI_API_KEY", &c.OpenAIAPIKey)
	str("DEEPSEEK_API_KEY", &c.DeepSeekAPIKey)

	str(envPrefix+"YAHOO_BASE_URL", &c.YahooBaseURL)
	str(envPrefix+"SYMBOL_SUFFIX", &c.SymbolSuffix)
	integer(envPrefix+"HISTORY_PERIOD_YEARS", &c.HistoryPeriodYears)
	str(envPrefix+"HISTORY_INTERVAL", &c.HistoryInterval)
	str(envPrefix+"UNIVERSE_URL", &c.UniverseURL)
	integer(envPrefix+"HTTP_TIMEOUT_SECONDS", &c.HTTPTimeoutSeconds)
	boolean(envPrefix+"CACHE_ENABLED", &c.CacheEnabled)
	integer(envPrefix+"CACHE_TTL_MINUTES", &c.CacheTTLMinutes)

	str("NEWS_API_KEY", &c.NewsAPIKey)
	str(envPrefix+"NEWS_API_BASE_URL", &c.NewsAPIBaseURL)
	integer(envPrefix+"MAX_ARTICLES", &c.MaxArticles)
	integer(envPrefix+"SCREENER_WORKERS", &c.ScreenerWorkers)

	str(envPrefix+"SERVER_ADDR", &c.ServerAddr)
	if val := os.Getenv(envPrefix + "ALLOWED_ORIGINS"); val != "" {
		c.AllowedOrigins = strings.Split(val, ",")
	}
	integer(envPrefix+"MAX_UPLOAD_MB", &c.MaxUploadMB)

	boolean("EINO_DEBUG_ENABLED", &c.EinoDebugEnabled)
	integer("EINO_DEBUG_PORT", &c.EinoDebugPort)
}

func (c *Config) EnsureDirectories() error {
	dirs := []string{c.ProjectDir, c.ResultsDir, c.DataDir, c.DataCacheDir}
	for _, dir := range dirs {
		path := strings.TrimSpace(dir)
		if path == "" {
			continue
		}
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", path, err)
		}
	}
	return nil
}
