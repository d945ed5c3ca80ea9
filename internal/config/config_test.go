package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv(configPathEnv, "")
	t.Setenv(databaseDSNEnv, "")
	t.Setenv(chatGPTAPIKeyEnv, "")

	cfg := Load()

	if cfg.Pipeline.OperationType != "article_production" {
		t.Fatalf("operation type %q, want article_production", cfg.Pipeline.OperationType)
	}
	if cfg.Pipeline.GateThreshold != 0.7 {
		t.Fatalf("gate threshold %f, want 0.7", cfg.Pipeline.GateThreshold)
	}
	if len(cfg.Pipeline.StageWeights) != 5 {
		t.Fatalf("expected 5 stage weights, got %d", len(cfg.Pipeline.StageWeights))
	}
	if err := cfg.Pipeline.Validate(); err != nil {
		t.Fatalf("default pipeline config invalid: %v", err)
	}
}

func TestLoadAppliesFileAndEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	raw := []byte(`
pipeline:
  gateThreshold: 0.8
chatgpt:
  model: gpt-4o
logging:
  level: debug
`)
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv(configPathEnv, path)
	t.Setenv(databaseDSNEnv, "postgres://override@localhost/forge")
	t.Setenv(chatGPTAPIKeyEnv, "secret")

	cfg := Load()

	if cfg.Pipeline.GateThreshold != 0.8 {
		t.Fatalf("gate threshold %f, want 0.8 from file", cfg.Pipeline.GateThreshold)
	}
	if cfg.ChatGPT.Model != "gpt-4o" {
		t.Fatalf("model %q, want gpt-4o from file", cfg.ChatGPT.Model)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("log level %q, want debug from file", cfg.Logging.Level)
	}
	if cfg.Database.DSN != "postgres://override@localhost/forge" {
		t.Fatalf("dsn %q, want env override", cfg.Database.DSN)
	}
	if cfg.ChatGPT.APIKey != "secret" {
		t.Fatalf("api key %q, want env override", cfg.ChatGPT.APIKey)
	}
}

func TestLoadRejectsInvalidWeights(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	raw := []byte(`
pipeline:
  stageWeights:
    topic_discovery: 0.5
    article_writing: 0.2
`)
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(configPathEnv, path)

	cfg := Load()

	// invalid weight table reverts the whole pipeline section to defaults
	if len(cfg.Pipeline.StageWeights) != 5 {
		t.Fatalf("expected default weights after invalid config, got %v", cfg.Pipeline.StageWeights)
	}
}

func TestPipelineValidate(t *testing.T) {
	t.Parallel()

	valid := PipelineConfig{
		OperationType: "article_production",
		GateThreshold: 0.7,
		StageWeights:  map[string]float64{"a": 0.5, "b": 0.5},
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	badSum := valid
	badSum.StageWeights = map[string]float64{"a": 0.5, "b": 0.4}
	if err := badSum.Validate(); err == nil {
		t.Fatal("weight sum 0.9 accepted")
	}

	badGate := valid
	badGate.GateThreshold = 1.5
	if err := badGate.Validate(); err == nil {
		t.Fatal("gate threshold above 1 accepted")
	}

	negative := valid
	negative.StageWeights = map[string]float64{"a": -0.5, "b": 1.5}
	if err := negative.Validate(); err == nil {
		t.Fatal("negative weight accepted")
	}
}
