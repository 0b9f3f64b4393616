package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"fathom/internal/domain/models/research"
)

// APIConfig is the HTTP surface's own settings.
type APIConfig struct {
	Port        string   `yaml:"port"`
	CORSOrigins []string `yaml:"cors_origins"`
	Debug       bool     `yaml:"debug"`
}

// LocalAIConfig points at an OpenAI-compatible endpoint used for
// `use_local_llm` sessions, in place of the hosted Anthropic backend.
type LocalAIConfig struct {
	BaseURL     string `yaml:"base_url"`
	APIKey      string `yaml:"api_key"`
	ModelPrefix string `yaml:"model_prefix"`
}

// SettingsConfig seeds the per-session defaults a research request can
// still override field by field.
type SettingsConfig struct {
	MaxIterations    int    `yaml:"max_iterations"`
	MaxSearchResults int    `yaml:"max_search_results"`
	DefaultModel     string `yaml:"default_model"`
	ReasonModel      string `yaml:"reason_model"`
	UseHostedParser  bool   `yaml:"use_hosted_parser"`
	UseLocalLLM      bool   `yaml:"use_local_llm"`
	WithPlanning     bool   `yaml:"with_planning"`
}

// ToResearchSettings projects the configured defaults onto a fresh
// research.Settings value.
func (s SettingsConfig) ToResearchSettings() research.Settings {
	return research.Settings{
		MaxIterations:    s.MaxIterations,
		MaxSearchResults: s.MaxSearchResults,
		DefaultModel:     s.DefaultModel,
		ReasonModel:      s.ReasonModel,
		UseHostedParser:  s.UseHostedParser,
		UseLocalLLM:      s.UseLocalLLM,
		WithPlanning:     s.WithPlanning,
	}
}

// ConcurrencyConfig bounds the Rate-Limit Governor and Admission Controller.
type ConcurrencyConfig struct {
	GlobalFetch            int `yaml:"global_fetch"`
	PerHost                int `yaml:"per_host"`
	LLM                    int `yaml:"llm"`
	PerHostCooldownSeconds int `yaml:"per_host_cooldown_seconds"`
}

func (c ConcurrencyConfig) PerHostCooldown() time.Duration {
	if c.PerHostCooldownSeconds <= 0 {
		return DefaultPerHostCooldown
	}
	return time.Duration(c.PerHostCooldownSeconds) * time.Second
}

// ParsingConfig bounds the Page Acquisition Pipeline.
type ParsingConfig struct {
	MaxHTMLLength        int    `yaml:"max_html_length"`
	PDFMaxFilesize       int64  `yaml:"pdf_max_filesize"`
	PDFMaxPages          int    `yaml:"pdf_max_pages"`
	FetchTimeoutSeconds  int    `yaml:"fetch_timeout_seconds"`
	HostedParserBaseURL  string `yaml:"hosted_parser_base_url"`
	HostedParserAPIKey   string `yaml:"hosted_parser_api_key"`
}

func (p ParsingConfig) FetchTimeout() time.Duration {
	if p.FetchTimeoutSeconds <= 0 {
		return DefaultFetchTimeout
	}
	return time.Duration(p.FetchTimeoutSeconds) * time.Second
}

// RateLimitConfig seeds one service's Governor limiter.
type RateLimitConfig struct {
	RPM           int    `yaml:"rpm"`
	Burst         int    `yaml:"burst"`
	FallbackModel string `yaml:"fallback_model"`
}

// Config is the fully parsed, environment-substituted, default-applied
// configuration document, read once at startup.
type Config struct {
	Environment     string `yaml:"environment"`
	TablePrefix     string `yaml:"table_prefix"`
	DatabaseURL     string `yaml:"database_url"`
	AnthropicAPIKey string `yaml:"anthropic_api_key"`
	TavilyAPIKey    string `yaml:"tavily_api_key"`
	LogDir          string `yaml:"log_dir"`

	API         APIConfig                  `yaml:"api"`
	LocalAI     LocalAIConfig              `yaml:"local_ai"`
	Settings    SettingsConfig             `yaml:"settings"`
	Concurrency ConcurrencyConfig          `yaml:"concurrency"`
	Parsing     ParsingConfig              `yaml:"parsing"`
	RateLimits  map[string]RateLimitConfig `yaml:"rate_limits"`
}

// Load reads the YAML document at path, substitutes ${NAME} placeholders
// from the process environment (callers run godotenv.Load() beforehand, the
// same ordering `cmd/server/main.go` uses), and applies defaults for
// anything the document omits. A missing file is not an error: Fathom runs
// on defaults plus whatever bare environment variables are set.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		expanded := os.Expand(string(data), os.Getenv)
		if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	case os.IsNotExist(err):
		// fall through to defaults
	default:
		return nil, fmt.Errorf("read config file %s: %w", path, err)
	}

	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Environment == "" {
		c.Environment = getEnv("ENVIRONMENT", "dev")
	}
	if c.TablePrefix == "" {
		c.TablePrefix = getTablePrefix(c.Environment)
	}
	if c.DatabaseURL == "" {
		c.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if c.AnthropicAPIKey == "" {
		c.AnthropicAPIKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if c.TavilyAPIKey == "" {
		c.TavilyAPIKey = os.Getenv("TAVILY_API_KEY")
	}
	if c.LogDir == "" {
		c.LogDir = getEnv("LOG_DIR", "")
	}

	if c.API.Port == "" {
		c.API.Port = getEnv("PORT", "8080")
	}
	if len(c.API.CORSOrigins) == 0 {
		c.API.CORSOrigins = []string{getEnv("CORS_ORIGINS", "http://localhost:3000")}
	}
	if os.Getenv("DEBUG") != "" {
		c.API.Debug = os.Getenv("DEBUG") == "true"
	} else if !c.API.Debug {
		c.API.Debug = getDefaultDebug(c.Environment)
	}

	if c.LocalAI.BaseURL == "" {
		c.LocalAI.BaseURL = os.Getenv("LOCAL_AI_BASE_URL")
	}
	if c.LocalAI.APIKey == "" {
		c.LocalAI.APIKey = os.Getenv("LOCAL_AI_API_KEY")
	}
	if c.LocalAI.ModelPrefix == "" {
		c.LocalAI.ModelPrefix = "lorem-"
	}

	def := research.DefaultSettings()
	if c.Settings.MaxIterations == 0 {
		c.Settings.MaxIterations = def.MaxIterations
	}
	if c.Settings.MaxSearchResults == 0 {
		c.Settings.MaxSearchResults = def.MaxSearchResults
	}
	if c.Settings.DefaultModel == "" {
		c.Settings.DefaultModel = def.DefaultModel
	}
	if c.Settings.ReasonModel == "" {
		c.Settings.ReasonModel = def.ReasonModel
	}

	if c.Concurrency.GlobalFetch == 0 {
		c.Concurrency.GlobalFetch = DefaultGlobalFetchConcurrency
	}
	if c.Concurrency.PerHost == 0 {
		c.Concurrency.PerHost = DefaultPerHostConcurrency
	}
	if c.Concurrency.LLM == 0 {
		c.Concurrency.LLM = DefaultLLMConcurrency
	}

	if c.Parsing.MaxHTMLLength == 0 {
		c.Parsing.MaxHTMLLength = DefaultMaxHTMLLength
	}
	if c.Parsing.PDFMaxFilesize == 0 {
		c.Parsing.PDFMaxFilesize = DefaultPDFMaxFilesize
	}
	if c.Parsing.PDFMaxPages == 0 {
		c.Parsing.PDFMaxPages = DefaultPDFMaxPages
	}
	if c.Parsing.HostedParserBaseURL == "" {
		c.Parsing.HostedParserBaseURL = os.Getenv("HOSTED_PARSER_BASE_URL")
	}
	if c.Parsing.HostedParserAPIKey == "" {
		c.Parsing.HostedParserAPIKey = os.Getenv("HOSTED_PARSER_API_KEY")
	}

	if c.RateLimits == nil {
		c.RateLimits = map[string]RateLimitConfig{}
	}
}

func getDefaultDebug(env string) bool {
	return env != "prod"
}

func getTablePrefix(env string) string {
	if prefix := os.Getenv("TABLE_PREFIX"); prefix != "" {
		return prefix
	}
	switch env {
	case "prod":
		return "prod_"
	case "test":
		return "test_"
	default:
		return "dev_"
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
