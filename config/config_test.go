package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.HTTP.Listen != ":8080" {
		t.Errorf("expected default listen :8080, got %s", cfg.HTTP.Listen)
	}
	if cfg.LLM.Temperature != 0.2 {
		t.Errorf("expected default temperature 0.2, got %f", cfg.LLM.Temperature)
	}
	if !cfg.NATS.Embedded {
		t.Error("expected embedded NATS by default")
	}
	if cfg.NATS.Bucket != "framework-knowledge" {
		t.Errorf("expected default bucket framework-knowledge, got %s", cfg.NATS.Bucket)
	}
	if cfg.Retriever.TokenBudget != 4000 {
		t.Errorf("expected default token budget 4000, got %d", cfg.Retriever.TokenBudget)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid default config",
			modify:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "missing listen address",
			modify:  func(c *Config) { c.HTTP.Listen = "" },
			wantErr: true,
		},
		{
			name:    "missing bucket",
			modify:  func(c *Config) { c.NATS.Bucket = "" },
			wantErr: true,
		},
		{
			name:    "temperature too low",
			modify:  func(c *Config) { c.LLM.Temperature = -0.1 },
			wantErr: true,
		},
		{
			name:    "temperature too high",
			modify:  func(c *Config) { c.LLM.Temperature = 1.1 },
			wantErr: true,
		},
		{
			name:    "zero batch size",
			modify:  func(c *Config) { c.Analyzer.BatchSize = 0 },
			wantErr: true,
		},
		{
			name:    "zero token budget",
			modify:  func(c *Config) { c.Retriever.TokenBudget = 0 },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	// Create temp file with config
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	content := `
http:
  listen: ":9090"
llm:
  temperature: 0.5
  timeout: 10m
nats:
  url: "nats://test:4222"
  bucket: "test-knowledge"
analyzer:
  batch_size: 3
  sources:
    pstaff:
      root: "/opt/frameworks/pstaff"
      include: ["**/*.py"]
      exclude: ["**/test_*.py"]
retriever:
  token_budget: 2000
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}

	if cfg.HTTP.Listen != ":9090" {
		t.Errorf("expected listen :9090, got %s", cfg.HTTP.Listen)
	}
	if cfg.LLM.Temperature != 0.5 {
		t.Errorf("expected temperature 0.5, got %f", cfg.LLM.Temperature)
	}
	if cfg.LLM.Timeout != 10*time.Minute {
		t.Errorf("expected timeout 10m, got %v", cfg.LLM.Timeout)
	}
	if cfg.NATS.URL != "nats://test:4222" {
		t.Errorf("expected NATS URL nats://test:4222, got %s", cfg.NATS.URL)
	}
	if cfg.NATS.Bucket != "test-knowledge" {
		t.Errorf("expected bucket test-knowledge, got %s", cfg.NATS.Bucket)
	}
	if cfg.Analyzer.BatchSize != 3 {
		t.Errorf("expected batch size 3, got %d", cfg.Analyzer.BatchSize)
	}
	src, ok := cfg.Analyzer.Sources["pstaff"]
	if !ok {
		t.Fatal("expected pstaff source to be configured")
	}
	if src.Root != "/opt/frameworks/pstaff" {
		t.Errorf("unexpected source root: %s", src.Root)
	}
	if len(src.Include) != 1 || src.Include[0] != "**/*.py" {
		t.Errorf("unexpected include globs: %v", src.Include)
	}
	if cfg.Retriever.TokenBudget != 2000 {
		t.Errorf("expected token budget 2000, got %d", cfg.Retriever.TokenBudget)
	}
}

func TestConfigMerge(t *testing.T) {
	base := DefaultConfig()
	override := &Config{
		HTTP: HTTPConfig{
			Listen: ":7070",
		},
		NATS: NATSConfig{
			URL: "nats://remote:4222",
		},
	}

	base.Merge(override)

	if base.HTTP.Listen != ":7070" {
		t.Errorf("expected listen :7070, got %s", base.HTTP.Listen)
	}
	// Bucket should remain from base since override didn't set it
	if base.NATS.Bucket != "framework-knowledge" {
		t.Errorf("expected bucket to remain default, got %s", base.NATS.Bucket)
	}
	// Setting an external URL disables embedded mode
	if base.NATS.Embedded {
		t.Error("expected embedded NATS to be disabled after URL override")
	}
}

func TestConfigSaveToFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "subdir", "config.yaml")

	cfg := DefaultConfig()
	cfg.NATS.Bucket = "saved-bucket"

	if err := cfg.SaveToFile(configPath); err != nil {
		t.Fatalf("SaveToFile() error = %v", err)
	}

	// Verify file was created
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		t.Error("config file was not created")
	}

	// Load and verify
	loaded, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("failed to load saved config: %v", err)
	}
	if loaded.NATS.Bucket != "saved-bucket" {
		t.Errorf("expected bucket saved-bucket, got %s", loaded.NATS.Bucket)
	}
}

func TestConfigRegistry(t *testing.T) {
	cfg := DefaultConfig()

	// Without a model_registry section, defaults apply
	r := cfg.Registry()
	if r == nil {
		t.Fatal("expected registry")
	}
	if err := r.Validate(); err != nil {
		t.Errorf("default registry should validate: %v", err)
	}
}
