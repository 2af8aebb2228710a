package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const dirName = ".autoanalyst"

// Global configuration structure.
type Global struct {
	// Storage
	DataDir    string `mapstructure:"data_dir" yaml:"data_dir"`
	HistoryDir string `mapstructure:"history_dir" yaml:"history_dir"`

	// Profiling
	PreviewRows int   `mapstructure:"preview_rows" yaml:"preview_rows"`
	SampleRows  int   `mapstructure:"sample_rows" yaml:"sample_rows"`
	SampleSeed  int64 `mapstructure:"sample_seed" yaml:"sample_seed"`

	// Preprocessing and training heuristics
	NumericThreshold float64 `mapstructure:"numeric_threshold" yaml:"numeric_threshold"`
	UnknownToken     string  `mapstructure:"unknown_token" yaml:"unknown_token"`
	MaxCategories    int     `mapstructure:"max_categories" yaml:"max_categories"`
	MaxClasses       int     `mapstructure:"max_classes" yaml:"max_classes"`
	NTrees           int     `mapstructure:"n_trees" yaml:"n_trees"`
	TestFraction     float64 `mapstructure:"test_fraction" yaml:"test_fraction"`
	Seed             int64   `mapstructure:"seed" yaml:"seed"`
	Workers          int     `mapstructure:"workers" yaml:"workers"`
	TopFeatures      int     `mapstructure:"top_features" yaml:"top_features"`

	// Logging and serving
	LogLevel   string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat  string `mapstructure:"log_format" yaml:"log_format"`
	ListenAddr string `mapstructure:"listen_addr" yaml:"listen_addr"`

	// Language model
	Provider     string  `mapstructure:"provider" yaml:"provider"`
	Model        string  `mapstructure:"model" yaml:"model"`
	APIKey       string  `mapstructure:"api_key" yaml:"api_key"`
	MaxTokens    int     `mapstructure:"max_tokens" yaml:"max_tokens"`
	Temperature  float64 `mapstructure:"temperature" yaml:"temperature"`
	ChatRows     int     `mapstructure:"chat_rows" yaml:"chat_rows"`
	HistoryTurns int     `mapstructure:"history_turns" yaml:"history_turns"`
	RecordTokens int     `mapstructure:"record_tokens" yaml:"record_tokens"`

	// HTTP/Retry configuration
	HTTPTimeoutSec   int `mapstructure:"http_timeout_sec" yaml:"http_timeout_sec"`
	RetryMaxAttempts int `mapstructure:"retry_max_attempts" yaml:"retry_max_attempts"`
	RetryBaseDelayMs int `mapstructure:"retry_base_delay_ms" yaml:"retry_base_delay_ms"`
	RetryMaxDelayMs  int `mapstructure:"retry_max_delay_ms" yaml:"retry_max_delay_ms"`

	// Local runtimes (Ollama)
	OllamaHost string `mapstructure:"ollama_host" yaml:"ollama_host"`
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.autoanalyst/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	var path string
	if cfgFile != "" {
		path = cfgFile
	} else {
		dir, err := configDir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: env > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("AUTOANALYST")
	v.AutomaticEnv()

	v.SetDefault("data_dir", "")
	v.SetDefault("history_dir", "")
	v.SetDefault("preview_rows", 5)
	v.SetDefault("sample_rows", 50)
	v.SetDefault("sample_seed", 0)
	v.SetDefault("numeric_threshold", 0.5)
	v.SetDefault("unknown_token", "Unknown")
	v.SetDefault("max_categories", 50)
	v.SetDefault("max_classes", 20)
	v.SetDefault("n_trees", 100)
	v.SetDefault("test_fraction", 0.2)
	v.SetDefault("seed", 42)
	v.SetDefault("workers", 0)
	v.SetDefault("top_features", 5)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("listen_addr", ":8000")
	v.SetDefault("provider", "openrouter")
	v.SetDefault("model", "openai/gpt-4o-mini")
	v.SetDefault("api_key", "")
	v.SetDefault("max_tokens", 2048)
	v.SetDefault("temperature", 0.2)
	v.SetDefault("chat_rows", 2000)
	v.SetDefault("history_turns", 5)
	v.SetDefault("record_tokens", 0)
	// HTTP/retry defaults
	v.SetDefault("http_timeout_sec", 60)
	v.SetDefault("retry_max_attempts", 3)
	v.SetDefault("retry_base_delay_ms", 500)
	v.SetDefault("retry_max_delay_ms", 4000)
	v.SetDefault("ollama_host", "http://127.0.0.1:11434")

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		dir, err := configDir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	// optional read
	_ = v.ReadInConfig()

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if c.DataDir == "" || c.HistoryDir == "" {
		dir, err := configDir()
		if err != nil {
			return nil, err
		}
		if c.DataDir == "" {
			c.DataDir = filepath.Join(dir, "uploads")
		}
		if c.HistoryDir == "" {
			c.HistoryDir = filepath.Join(dir, "history")
		}
	}
	return &c, nil
}

// Validate reports every out-of-range setting at once.
func (c *Global) Validate() error {
	var result *multierror.Error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			result = multierror.Append(result, fmt.Errorf(format, args...))
		}
	}
	check(c.PreviewRows >= 0, "preview_rows must be >= 0, got %d", c.PreviewRows)
	check(c.SampleRows >= 0, "sample_rows must be >= 0, got %d", c.SampleRows)
	check(c.NumericThreshold >= 0 && c.NumericThreshold < 1, "numeric_threshold must be in [0, 1), got %g", c.NumericThreshold)
	check(c.MaxCategories > 0, "max_categories must be > 0, got %d", c.MaxCategories)
	check(c.MaxClasses > 0, "max_classes must be > 0, got %d", c.MaxClasses)
	check(c.NTrees > 0, "n_trees must be > 0, got %d", c.NTrees)
	check(c.TestFraction > 0 && c.TestFraction < 1, "test_fraction must be in (0, 1), got %g", c.TestFraction)
	check(c.Workers >= 0, "workers must be >= 0, got %d", c.Workers)
	check(c.TopFeatures > 0, "top_features must be > 0, got %d", c.TopFeatures)
	check(c.Provider == "openrouter" || c.Provider == "ollama", "provider must be openrouter or ollama, got %q", c.Provider)
	check(c.HistoryTurns >= 0, "history_turns must be >= 0, got %d", c.HistoryTurns)
	check(c.RecordTokens >= 0, "record_tokens must be >= 0, got %d", c.RecordTokens)
	return result.ErrorOrNil()
}

func configDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, dirName), nil
}
