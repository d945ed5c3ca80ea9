package config

import (
	"fmt"
	"log"
	"math"
	"os"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"
)

const (
	defaultTimezone   = "UTC"
	configPathEnv     = "CONTENT_FORGE_CONFIG"
	databaseDSNEnv    = "DATABASE_DSN"
	chatGPTAPIKeyEnv  = "CHATGPT_API_KEY"
	chatGPTModelEnv   = "CHATGPT_MODEL"
	scoringAPIKeyEnv  = "SCORING_API_KEY"
	telegramTokenEnv  = "TELEGRAM_BOT_TOKEN"
	telegramChatIDEnv = "TELEGRAM_CHAT_ID"
)

// Config holds high-level settings required across the application.
type Config struct {
	Database      DatabaseConfig     `yaml:"database"`
	Pipeline      PipelineConfig     `yaml:"pipeline"`
	Scheduler     SchedulerConfig    `yaml:"scheduler"`
	Notifications NotificationConfig `yaml:"notifications"`
	Scoring       ScoringConfig      `yaml:"scoring"`
	ChatGPT       ChatGPTConfig      `yaml:"chatgpt"`
	Research      ResearchConfig     `yaml:"research"`
	Logging       LoggingConfig      `yaml:"logging"`
	Jobs          []JobConfig        `yaml:"jobs"`
}

// DatabaseConfig describes Postgres connection details. An empty DSN keeps
// progress snapshots in memory.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

// PipelineConfig tunes the production state machine: per-stage progress
// weights, the quality-gate threshold, and the operation discriminator.
type PipelineConfig struct {
	OperationType string             `yaml:"operationType"`
	GateThreshold float64            `yaml:"gateThreshold"`
	StageWeights  map[string]float64 `yaml:"stageWeights"`
}

// Validate enforces the pipeline invariants before anything runs.
func (p PipelineConfig) Validate() error {
	err := validation.ValidateStruct(&p,
		validation.Field(&p.GateThreshold, validation.Min(0.0), validation.Max(1.0)),
		validation.Field(&p.OperationType, validation.Required),
	)
	if err != nil {
		return err
	}

	if len(p.StageWeights) == 0 {
		return nil
	}
	sum := 0.0
	for stage, weight := range p.StageWeights {
		if weight < 0 {
			return fmt.Errorf("stage %s has negative weight %f", stage, weight)
		}
		sum += weight
	}
	if math.Abs(sum-1.0) > 1e-9 {
		return fmt.Errorf("stage weights sum to %f, want 1.0", sum)
	}
	return nil
}

// SchedulerConfig defines when scheduled production runs fire.
type SchedulerConfig struct {
	CronExpression string         `yaml:"cronExpression"`
	Timezone       string         `yaml:"timezone"`
	location       *time.Location `yaml:"-"`
}

// Location resolves the scheduler timezone string to a time.Location.
func (s SchedulerConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	loc, _ := time.LoadLocation(defaultTimezone)
	return loc
}

// NotificationConfig encapsulates outbound channels (Telegram, etc.).
type NotificationConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
}

// TelegramConfig wires all data required to send messages.
type TelegramConfig struct {
	BotToken string `yaml:"botToken"`
	ChatID   string `yaml:"chatId"`
}

// ScoringConfig describes the automatic feedback-scoring service.
type ScoringConfig struct {
	InferenceURL string `yaml:"inferenceUrl"`
	APIKey       string `yaml:"apiKey"`
}

// ChatGPTConfig defines how to contact the chat-completion API the crews use.
type ChatGPTConfig struct {
	Endpoint     string `yaml:"endpoint"`
	Model        string `yaml:"model"`
	APIKey       string `yaml:"apiKey"`
	SystemPrompt string `yaml:"systemPrompt"`
}

// ResearchConfig lists the sites the research stage pulls references from.
type ResearchConfig struct {
	Sites []ResearchSiteConfig `yaml:"sites"`
}

// ResearchSiteConfig describes a single reference site.
type ResearchSiteConfig struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

// LoggingConfig controls log verbosity.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// JobConfig names a recurring production run and its seed.
type JobConfig struct {
	Name     string `yaml:"name"`
	Category string `yaml:"category"`
	Count    int    `yaml:"count"`
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	cfg.bindTimezone()

	if err := cfg.Pipeline.Validate(); err != nil {
		log.Printf("config: invalid pipeline settings: %v (falling back to defaults)", err)
		cfg.Pipeline = defaultConfig().Pipeline
	}

	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Database.DSN = v
	}

	if v := os.Getenv(telegramTokenEnv); v != "" {
		c.Notifications.Telegram.BotToken = v
	}

	if v := os.Getenv(telegramChatIDEnv); v != "" {
		c.Notifications.Telegram.ChatID = v
	}

	if v := os.Getenv(chatGPTAPIKeyEnv); v != "" {
		c.ChatGPT.APIKey = v
	}

	if v := os.Getenv(chatGPTModelEnv); v != "" {
		c.ChatGPT.Model = v
	}

	if v := os.Getenv(scoringAPIKeyEnv); v != "" {
		c.Scoring.APIKey = v
	}
}

func (c *Config) bindTimezone() {
	tz := c.Scheduler.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("config: unknown timezone %s, reverting to %s", tz, defaultTimezone)
		loc, _ = time.LoadLocation(defaultTimezone)
	}
	c.Scheduler.location = loc
}

func mergeConfig(base, override Config) Config {
	if override.Database.DSN != "" {
		base.Database = override.Database
	}

	if override.Pipeline.OperationType != "" {
		base.Pipeline.OperationType = override.Pipeline.OperationType
	}
	if override.Pipeline.GateThreshold != 0 {
		base.Pipeline.GateThreshold = override.Pipeline.GateThreshold
	}
	if len(override.Pipeline.StageWeights) > 0 {
		base.Pipeline.StageWeights = override.Pipeline.StageWeights
	}

	if override.Scheduler.CronExpression != "" {
		base.Scheduler.CronExpression = override.Scheduler.CronExpression
	}
	if override.Scheduler.Timezone != "" {
		base.Scheduler.Timezone = override.Scheduler.Timezone
	}

	if override.Notifications.Telegram.BotToken != "" {
		base.Notifications.Telegram.BotToken = override.Notifications.Telegram.BotToken
	}
	if override.Notifications.Telegram.ChatID != "" {
		base.Notifications.Telegram.ChatID = override.Notifications.Telegram.ChatID
	}

	if override.Scoring.InferenceURL != "" {
		base.Scoring.InferenceURL = override.Scoring.InferenceURL
	}
	if override.Scoring.APIKey != "" {
		base.Scoring.APIKey = override.Scoring.APIKey
	}

	if override.ChatGPT.Endpoint != "" {
		base.ChatGPT.Endpoint = override.ChatGPT.Endpoint
	}
	if override.ChatGPT.Model != "" {
		base.ChatGPT.Model = override.ChatGPT.Model
	}
	if override.ChatGPT.APIKey != "" {
		base.ChatGPT.APIKey = override.ChatGPT.APIKey
	}
	if override.ChatGPT.SystemPrompt != "" {
		base.ChatGPT.SystemPrompt = override.ChatGPT.SystemPrompt
	}

	if len(override.Research.Sites) > 0 {
		base.Research.Sites = override.Research.Sites
	}

	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}

	if len(override.Jobs) > 0 {
		base.Jobs = override.Jobs
	}

	return base
}

func defaultConfig() Config {
	tz, _ := time.LoadLocation(defaultTimezone)
	return Config{
		Database: DatabaseConfig{DSN: ""},
		Pipeline: PipelineConfig{
			OperationType: "article_production",
			GateThreshold: 0.7,
			StageWeights: map[string]float64{
				"topic_discovery":  0.10,
				"topic_research":   0.20,
				"article_writing":  0.30,
				"style_adaptation": 0.20,
				"article_review":   0.20,
			},
		},
		Scheduler: SchedulerConfig{CronExpression: "0 6 * * *", Timezone: defaultTimezone, location: tz},
		Notifications: NotificationConfig{
			Telegram: TelegramConfig{BotToken: "", ChatID: ""},
		},
		Scoring: ScoringConfig{InferenceURL: "https://ml.example.org/score", APIKey: ""},
		ChatGPT: ChatGPTConfig{
			Endpoint:     "https://api.openai.com/v1/chat/completions",
			Model:        "gpt-4o-mini",
			APIKey:       "",
			SystemPrompt: "You are an editorial assistant producing technology articles.",
		},
		Research: ResearchConfig{
			Sites: []ResearchSiteConfig{
				{Name: "arxiv-ai", URL: "https://export.arxiv.org/list/cs.AI/recent"},
			},
		},
		Logging: LoggingConfig{Level: "info"},
		Jobs: []JobConfig{
			{Name: "daily-tech", Category: "technology", Count: 3},
		},
	}
}
