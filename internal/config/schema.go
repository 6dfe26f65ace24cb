package config

import "time"

// Config is the top-level ereader configuration.
type Config struct {
	Server ServerConfig `mapstructure:"server" yaml:"server"`
	LLM    LLMConfig    `mapstructure:"llm" yaml:"llm"`
	Reader ReaderConfig `mapstructure:"reader" yaml:"reader"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `mapstructure:"host" yaml:"host"`
	Port string `mapstructure:"port" yaml:"port"`
}

// LLMConfig holds settings for the language-model backend.
type LLMConfig struct {
	// Endpoint is the completion endpoint base URL. A relative path is
	// treated as a trusted local proxy and called without a credential.
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`

	// APIKey may use ${ENV_VAR} syntax to reference an environment variable.
	// Required for absolute endpoints, ignored for the local proxy.
	APIKey string `mapstructure:"api_key" yaml:"api_key"`

	Model       string  `mapstructure:"model" yaml:"model"`
	Temperature float64 `mapstructure:"temperature" yaml:"temperature"`

	// Upstream is the backend the local proxy forwards to. The proxy
	// credential is read from the EREADER_LLM_KEY environment variable and
	// is never part of this configuration surface.
	Upstream string `mapstructure:"upstream" yaml:"upstream"`

	Timeout       time.Duration `mapstructure:"timeout" yaml:"timeout"`
	MaxRetries    int           `mapstructure:"max_retries" yaml:"max_retries"`
	RetryDelay    time.Duration `mapstructure:"retry_delay" yaml:"retry_delay"`
	MaxMessageLen int           `mapstructure:"max_message_len" yaml:"max_message_len"`
}

// ReaderConfig holds reading-session settings.
type ReaderConfig struct {
	// TranslationEnabled gates the double-click paragraph translation.
	TranslationEnabled bool `mapstructure:"translation_enabled" yaml:"translation_enabled"`

	// TargetLanguage is the language paragraph translations are produced in.
	TargetLanguage string `mapstructure:"target_language" yaml:"target_language"`

	// ThrottleWindow is the minimum interval between durable progress writes.
	ThrottleWindow time.Duration `mapstructure:"throttle_window" yaml:"throttle_window"`

	// MinBlockLen is the minimum paragraph length eligible for translation.
	MinBlockLen int `mapstructure:"min_block_len" yaml:"min_block_len"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: "8080",
		},
		LLM: LLMConfig{
			Endpoint:      "/api/llm",
			APIKey:        "${EREADER_API_KEY}",
			Model:         "gpt-4o-mini",
			Temperature:   0.7,
			Upstream:      "https://api.openai.com/v1",
			Timeout:       60 * time.Second,
			MaxRetries:    2,
			RetryDelay:    time.Second,
			MaxMessageLen: 6000,
		},
		Reader: ReaderConfig{
			TranslationEnabled: true,
			TargetLanguage:     "Chinese",
			ThrottleWindow:     1500 * time.Millisecond,
			MinBlockLen:        5,
		},
	}
}
