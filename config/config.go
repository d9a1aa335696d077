// Package config provides configuration loading and management for fwexpert.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/c360studio/fwexpert/model"
)

// Config represents the complete fwexpert configuration
type Config struct {
	HTTP          HTTPConfig            `yaml:"http"`
	LLM           LLMConfig             `yaml:"llm"`
	NATS          NATSConfig            `yaml:"nats"`
	Analyzer      AnalyzerConfig        `yaml:"analyzer"`
	Retriever     RetrieverConfig       `yaml:"retriever"`
	Watch         WatchConfig           `yaml:"watch"`
	ModelRegistry *model.RegistryConfig `yaml:"model_registry,omitempty"`
}

// HTTPConfig configures the HTTP API server
type HTTPConfig struct {
	// Listen is the address the API server binds to
	Listen string `yaml:"listen"`
	// ReadTimeout bounds how long reading a request may take
	ReadTimeout time.Duration `yaml:"read_timeout"`
	// WriteTimeout bounds how long writing a response may take.
	// Generation calls are slow, so this defaults high.
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// LLMConfig configures collaborator call behavior
type LLMConfig struct {
	// Temperature controls randomness (0.0-1.0, default: 0.2)
	Temperature float64 `yaml:"temperature"`
	// Timeout is the maximum time to wait for a single completion
	Timeout time.Duration `yaml:"timeout"`
	// MaxRetries is the number of attempts per endpoint
	MaxRetries int `yaml:"max_retries"`
}

// NATSConfig configures the NATS connection and knowledge bucket
type NATSConfig struct {
	// URL is the NATS server URL (empty = use embedded server)
	URL string `yaml:"url"`
	// Embedded indicates whether to use embedded NATS
	Embedded bool `yaml:"embedded"`
	// Bucket is the JetStream KV bucket holding knowledge artifacts
	Bucket string `yaml:"bucket"`
	// StoreDir is the JetStream storage directory for the embedded server
	StoreDir string `yaml:"store_dir"`
}

// SourceConfig locates one framework's source tree for analysis
type SourceConfig struct {
	// Root is the directory scanned for framework source files
	Root string `yaml:"root"`
	// Include lists glob patterns for files to analyze (doublestar syntax)
	Include []string `yaml:"include"`
	// Exclude lists glob patterns to skip
	Exclude []string `yaml:"exclude"`
}

// AnalyzerConfig configures the knowledge extraction pass
type AnalyzerConfig struct {
	// Sources maps framework type names to their source locations
	Sources map[string]SourceConfig `yaml:"sources"`
	// BatchSize is the number of files sent per analysis prompt
	BatchSize int `yaml:"batch_size"`
	// MaxFileBytes skips files larger than this before condensing
	MaxFileBytes int64 `yaml:"max_file_bytes"`
	// Condense enables structural source condensing before prompting
	Condense bool `yaml:"condense"`
}

// RetrieverConfig configures knowledge slicing
type RetrieverConfig struct {
	// TokenBudget caps the rendered context bundle size
	TokenBudget int `yaml:"token_budget"`
	// MaxPatterns caps how many patterns a bundle may carry
	MaxPatterns int `yaml:"max_patterns"`
	// MaxClasses caps how many classes a bundle may carry
	MaxClasses int `yaml:"max_classes"`
}

// WatchConfig configures source staleness watching
type WatchConfig struct {
	// Enabled turns on the filesystem watcher
	Enabled bool `yaml:"enabled"`
	// Debounce batches rapid filesystem events before marking stale
	Debounce time.Duration `yaml:"debounce"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Listen:       ":8080",
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 10 * time.Minute,
		},
		LLM: LLMConfig{
			Temperature: 0.2,
			Timeout:     5 * time.Minute,
			MaxRetries:  3,
		},
		NATS: NATSConfig{
			URL:      "",
			Embedded: true,
			Bucket:   "framework-knowledge",
			StoreDir: "",
		},
		Analyzer: AnalyzerConfig{
			Sources:      map[string]SourceConfig{},
			BatchSize:    5,
			MaxFileBytes: 512 * 1024,
			Condense:     true,
		},
		Retriever: RetrieverConfig{
			TokenBudget: 4000,
			MaxPatterns: 5,
			MaxClasses:  8,
		},
		Watch: WatchConfig{
			Enabled:  false,
			Debounce: 2 * time.Second,
		},
	}
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if c.HTTP.Listen == "" {
		return fmt.Errorf("http.listen is required")
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 1 {
		return fmt.Errorf("llm.temperature must be between 0 and 1")
	}
	if c.NATS.Bucket == "" {
		return fmt.Errorf("nats.bucket is required")
	}
	if c.Analyzer.BatchSize <= 0 {
		return fmt.Errorf("analyzer.batch_size must be positive")
	}
	if c.Retriever.TokenBudget <= 0 {
		return fmt.Errorf("retriever.token_budget must be positive")
	}
	return nil
}

// Registry builds the model registry from the configured model_registry
// section, falling back to defaults when the section is absent.
func (c *Config) Registry() *model.Registry {
	registry := model.NewDefaultRegistry()
	if c.ModelRegistry != nil {
		registry.MergeFromConfig(c.ModelRegistry)
	}
	return registry
}

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a YAML file
func (c *Config) SaveToFile(path string) error {
	// Ensure parent directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Merge merges another config into this one (other takes precedence for non-zero values)
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	// HTTP
	if other.HTTP.Listen != "" {
		c.HTTP.Listen = other.HTTP.Listen
	}
	if other.HTTP.ReadTimeout != 0 {
		c.HTTP.ReadTimeout = other.HTTP.ReadTimeout
	}
	if other.HTTP.WriteTimeout != 0 {
		c.HTTP.WriteTimeout = other.HTTP.WriteTimeout
	}

	// LLM
	if other.LLM.Temperature != 0 {
		c.LLM.Temperature = other.LLM.Temperature
	}
	if other.LLM.Timeout != 0 {
		c.LLM.Timeout = other.LLM.Timeout
	}
	if other.LLM.MaxRetries != 0 {
		c.LLM.MaxRetries = other.LLM.MaxRetries
	}

	// NATS
	if other.NATS.URL != "" {
		c.NATS.URL = other.NATS.URL
		c.NATS.Embedded = false
	}
	if other.NATS.Bucket != "" {
		c.NATS.Bucket = other.NATS.Bucket
	}
	if other.NATS.StoreDir != "" {
		c.NATS.StoreDir = other.NATS.StoreDir
	}

	// Analyzer
	if len(other.Analyzer.Sources) > 0 {
		if c.Analyzer.Sources == nil {
			c.Analyzer.Sources = map[string]SourceConfig{}
		}
		for k, v := range other.Analyzer.Sources {
			c.Analyzer.Sources[k] = v
		}
	}
	if other.Analyzer.BatchSize != 0 {
		c.Analyzer.BatchSize = other.Analyzer.BatchSize
	}
	if other.Analyzer.MaxFileBytes != 0 {
		c.Analyzer.MaxFileBytes = other.Analyzer.MaxFileBytes
	}
	if other.Analyzer.Condense {
		c.Analyzer.Condense = true
	}

	// Retriever
	if other.Retriever.TokenBudget != 0 {
		c.Retriever.TokenBudget = other.Retriever.TokenBudget
	}
	if other.Retriever.MaxPatterns != 0 {
		c.Retriever.MaxPatterns = other.Retriever.MaxPatterns
	}
	if other.Retriever.MaxClasses != 0 {
		c.Retriever.MaxClasses = other.Retriever.MaxClasses
	}

	// Watch
	if other.Watch.Enabled {
		c.Watch.Enabled = true
	}
	if other.Watch.Debounce != 0 {
		c.Watch.Debounce = other.Watch.Debounce
	}

	// Model registry
	if other.ModelRegistry != nil {
		c.ModelRegistry = other.ModelRegistry
	}
}
