package model

import "time"

// Config holds all certmap settings
type Config struct {
	Rules        RulesConfig        `yaml:"rules" mapstructure:"rules"`
	Concurrency  ConcurrencyConfig  `yaml:"concurrency" mapstructure:"concurrency"`
	Cache        CacheConfig        `yaml:"cache" mapstructure:"cache"`
	Storage      StorageConfig      `yaml:"storage" mapstructure:"storage"`
	LLM          LLMConfig          `yaml:"llm" mapstructure:"llm"`
	RateLimiting RateLimitingConfig `yaml:"rate_limiting" mapstructure:"rate_limiting"`
	Logging      LoggingConfig      `yaml:"logging" mapstructure:"logging"`
	Metrics      MetricsConfig      `yaml:"metrics" mapstructure:"metrics"`
	Output       OutputConfig       `yaml:"output" mapstructure:"output"`
}

// RulesConfig points at an optional category rule table override
type RulesConfig struct {
	Path    string `yaml:"path" mapstructure:"path"`       // YAML rule table; empty uses built-in table
	Replace bool   `yaml:"replace" mapstructure:"replace"` // Replace built-in table instead of merging
}

// ConcurrencyConfig controls batch mapping parallelism
type ConcurrencyConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// CacheConfig controls the mapping result cache
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir       string        `yaml:"dir" mapstructure:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// StorageConfig points at the sqlite association store
type StorageConfig struct {
	Path string `yaml:"path" mapstructure:"path"` // Empty disables persistence
}

// LLMConfig configures the optional compliance evaluator
type LLMConfig struct {
	Provider  string `yaml:"provider" mapstructure:"provider"` // openai, ollama, "" (disabled)
	Model     string `yaml:"model" mapstructure:"model"`
	APIKey    string `yaml:"api_key,omitempty" mapstructure:"api_key"`
	BaseURL   string `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Timeout   int    `yaml:"timeout" mapstructure:"timeout"` // seconds
	MaxTokens int    `yaml:"max_tokens" mapstructure:"max_tokens"`

	// Proxy settings for provider calls; empty values fall back to the environment
	HTTPProxy  string `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy string `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy    string `yaml:"no_proxy,omitempty" mapstructure:"no_proxy"`
}

// RateLimitingConfig throttles evaluator requests per provider
type RateLimitingConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	BurstSize         int     `yaml:"burst_size" mapstructure:"burst_size"`
}

// LoggingConfig configures the zap logger
type LoggingConfig struct {
	Level      string `yaml:"level" mapstructure:"level"`
	Format     string `yaml:"format" mapstructure:"format"` // json or console
	OutputPath string `yaml:"output_path" mapstructure:"output_path"`
}

// MetricsConfig configures the prometheus textfile export
type MetricsConfig struct {
	TextfilePath string `yaml:"textfile_path" mapstructure:"textfile_path"` // Empty disables export
}

// OutputConfig controls report rendering
type OutputConfig struct {
	Verbose       bool `yaml:"verbose" mapstructure:"verbose"`
	IncludeFooter bool `yaml:"include_footer" mapstructure:"include_footer"`
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		Concurrency: ConcurrencyConfig{Workers: 4},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       ".certmap-cache",
			MemoryTTL: 30 * time.Minute,
			DiskTTL:   7 * 24 * time.Hour,
		},
		LLM: LLMConfig{
			Provider:  "",
			Model:     "gpt-4o-mini",
			Timeout:   60,
			MaxTokens: 1500,
		},
		RateLimiting: RateLimitingConfig{
			RequestsPerSecond: 2,
			BurstSize:         4,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "console",
			OutputPath: "stderr",
		},
		Output: OutputConfig{
			IncludeFooter: true,
		},
	}
}
