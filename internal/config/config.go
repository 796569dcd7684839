package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"MentionMonitor/internal/domain"
	"MentionMonitor/internal/matching"
	"MentionMonitor/internal/names"
)

const (
	defaultTimezone   = "UTC"
	configPathEnv     = "MENTION_MONITOR_CONFIG"
	logLevelEnv       = "LOG_LEVEL"
	logFormatEnv      = "LOG_FORMAT"
	databaseDSNEnv    = "DATABASE_DSN"
	databaseDriverEnv = "DATABASE_DRIVER"
	llmAPIKeyEnv      = "LLM_API_KEY"
	llmModelEnv       = "LLM_MODEL"
	telegramTokenEnv  = "TELEGRAM_BOT_TOKEN"
	telegramChatIDEnv = "TELEGRAM_CHAT_ID"
	natsURLEnv        = "NATS_URL"
	redisAddrEnv      = "REDIS_ADDR"
	dataRetentionEnv  = "DATA_RETENTION_DAYS"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging       LoggingConfig      `yaml:"logging"`
	Database      DatabaseConfig     `yaml:"database"`
	Scheduler     SchedulerConfig    `yaml:"scheduler"`
	Pipeline      PipelineConfig     `yaml:"pipeline"`
	Providers     ProviderConfig     `yaml:"providers"`
	Fetcher       FetcherConfig      `yaml:"fetcher"`
	Classifier    ClassifierConfig   `yaml:"classifier"`
	LLM           LLMConfig          `yaml:"llm"`
	Cache         CacheConfig        `yaml:"cache"`
	Notifications NotificationConfig `yaml:"notifications"`
	Entities      []EntityConfig     `yaml:"entities"`
}

// LoggingConfig selects the slog level and handler ("text" or "json").
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DatabaseConfig describes the SQL connection. Driver is "postgres" or "sqlite".
type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// SchedulerConfig defines when monitoring cycles run.
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

// ThresholdConfig is the acceptance policy.
type ThresholdConfig struct {
	Reject float64 `yaml:"reject"`
	Accept float64 `yaml:"accept"`
	Alert  float64 `yaml:"alert"`
}

// PipelineConfig carries the decision-pipeline settings.
type PipelineConfig struct {
	Retention time.Duration `yaml:"retention"`
	// DataRetention is how long persisted mentions are kept. Zero keeps them forever.
	DataRetention     time.Duration   `yaml:"dataRetention"`
	Lookback          time.Duration   `yaml:"lookback"`
	Thresholds        ThresholdConfig `yaml:"thresholds"`
	BatchCap          int             `yaml:"batchCap"`
	Concurrency       int             `yaml:"concurrency"`
	EntityConcurrency int             `yaml:"entityConcurrency"`
	Locale            string          `yaml:"locale"`
	// ProfileOverride replaces individual parts of the built-in locale profile.
	ProfileOverride names.Override   `yaml:"profile"`
	TrustFloor      int              `yaml:"trustFloor"`
	ExternalTimeout time.Duration    `yaml:"externalTimeout"`
	Weights         matching.Weights `yaml:"weights"`
}

// Profile resolves the locale profile with overrides applied.
func (p PipelineConfig) Profile() names.Profile {
	return names.ProfileFor(p.Locale).Merge(p.ProfileOverride)
}

// ProviderConfig groups settings for search providers.
type ProviderConfig struct {
	Enabled    []string    `yaml:"enabled"`
	MaxResults int         `yaml:"maxResults"`
	Language   string      `yaml:"language"`
	GDELT      GDELTConfig `yaml:"gdelt"`
	RSS        RSSConfig   `yaml:"rss"`
}

// IsEnabled reports whether a provider name is switched on.
func (p ProviderConfig) IsEnabled(name string) bool {
	for _, n := range p.Enabled {
		if strings.EqualFold(n, name) {
			return true
		}
	}
	return false
}

// GDELTConfig configures the GDELT DOC API adapter.
type GDELTConfig struct {
	Endpoint          string        `yaml:"endpoint"`
	RequestsPerMinute float64       `yaml:"requestsPerMinute"`
	Timeout           time.Duration `yaml:"timeout"`
}

// RSSConfig lists the feeds scanned by the RSS adapter.
type RSSConfig struct {
	Feeds   []string      `yaml:"feeds"`
	Timeout time.Duration `yaml:"timeout"`
}

// FetcherConfig configures article text extraction.
type FetcherConfig struct {
	Enabled     bool          `yaml:"enabled"`
	Timeout     time.Duration `yaml:"timeout"`
	UserAgent   string        `yaml:"userAgent"`
	MaxBytes    int64         `yaml:"maxBytes"`
	Concurrency int           `yaml:"concurrency"`
}

// ClassifierConfig points at an optional external rule table and an optional
// self-hosted classification service used when no LLM key is set.
type ClassifierConfig struct {
	RulesPath       string        `yaml:"rulesPath"`
	Watch           bool          `yaml:"watch"`
	ServiceEndpoint string        `yaml:"serviceEndpoint"`
	ServiceAPIKey   string        `yaml:"serviceApiKey"`
	ServiceTimeout  time.Duration `yaml:"serviceTimeout"`
}

// LLMConfig defines how to contact an OpenAI-compatible chat API.
type LLMConfig struct {
	Endpoint     string        `yaml:"endpoint"`
	Model        string        `yaml:"model"`
	APIKey       string        `yaml:"apiKey"`
	SystemPrompt string        `yaml:"systemPrompt"`
	Timeout      time.Duration `yaml:"timeout"`
}

// CacheConfig enables the Redis cache for external classifications.
type CacheConfig struct {
	RedisAddr string        `yaml:"redisAddr"`
	Password  string        `yaml:"password"`
	DB        int           `yaml:"db"`
	TTL       time.Duration `yaml:"ttl"`
}

// NotificationConfig encapsulates outbound channels (Telegram, NATS).
type NotificationConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
	NATS     NATSConfig     `yaml:"nats"`
}

// TelegramConfig wires all data required to send messages.
type TelegramConfig struct {
	BotToken string `yaml:"botToken"`
	ChatID   string `yaml:"chatId"`
	BaseURL  string `yaml:"baseUrl"`
}

// NATSConfig describes the alert subject on a NATS server.
type NATSConfig struct {
	URL     string `yaml:"url"`
	Subject string `yaml:"subject"`
}

// EntityConfig seeds a monitored entity from the config file.
type EntityConfig struct {
	ID            string          `yaml:"id"`
	FullName      string          `yaml:"fullName"`
	FirstName     string          `yaml:"firstName"`
	MiddleNames   string          `yaml:"middleNames"`
	LastName      string          `yaml:"lastName"`
	Aliases       []string        `yaml:"aliases"`
	ContextTerms  []string        `yaml:"contextTerms"`
	NegativeTerms []string        `yaml:"negativeTerms"`
	Region        string          `yaml:"region"`
	Locality      string          `yaml:"locality"`
	Sources       map[string]bool `yaml:"sources"`
	Inactive      bool            `yaml:"inactive"`
}

// Entity converts the seed into the domain type.
func (e EntityConfig) Entity() domain.MonitoredEntity {
	return domain.MonitoredEntity{
		ID:            e.ID,
		FullName:      e.FullName,
		FirstName:     e.FirstName,
		MiddleNames:   e.MiddleNames,
		LastName:      e.LastName,
		Aliases:       e.Aliases,
		ContextTerms:  e.ContextTerms,
		NegativeTerms: e.NegativeTerms,
		Location:      domain.Location{Region: e.Region, Locality: e.Locality},
		Sources:       e.Sources,
		Active:        !e.Inactive,
	}
}

// Load reads YAML configuration (if present) and applies environment overrides.
// A .env file in the working directory is loaded first when present.
func Load() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("config: cannot load .env: %v", err)
	}

	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			// Decoding onto the defaults keeps every field the file leaves out.
			fileCfg := defaultConfig()
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = fileCfg
			}
		}
	}

	cfg.applyEnvOverrides()
	cfg.bindTimezone()
	cfg.sanitize()

	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}

	if v := os.Getenv(logFormatEnv); v != "" {
		c.Logging.Format = v
	}

	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Database.DSN = v
	}

	if v := os.Getenv(databaseDriverEnv); v != "" {
		c.Database.Driver = v
	}

	if v := os.Getenv(telegramTokenEnv); v != "" {
		c.Notifications.Telegram.BotToken = v
	}

	if v := os.Getenv(telegramChatIDEnv); v != "" {
		c.Notifications.Telegram.ChatID = v
	}

	if v := os.Getenv(natsURLEnv); v != "" {
		c.Notifications.NATS.URL = v
	}

	if v := os.Getenv(redisAddrEnv); v != "" {
		c.Cache.RedisAddr = v
	}

	if v := os.Getenv(llmAPIKeyEnv); v != "" {
		c.LLM.APIKey = v
	}

	if v := os.Getenv(llmModelEnv); v != "" {
		c.LLM.Model = v
	}

	if v := os.Getenv(dataRetentionEnv); v != "" {
		days, err := strconv.Atoi(v)
		if err != nil {
			log.Printf("config: %s=%q is not a number of days, ignoring", dataRetentionEnv, v)
		} else {
			c.Pipeline.DataRetention = time.Duration(days) * 24 * time.Hour
		}
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

// sanitize reverts values that would break the pipeline policy.
func (c *Config) sanitize() {
	def := defaultConfig()
	t := c.Pipeline.Thresholds
	if !(0 <= t.Reject && t.Reject <= t.Accept && t.Accept <= t.Alert && t.Alert <= 1) {
		log.Printf("config: thresholds %+v are not ordered, reverting to %+v", t, def.Pipeline.Thresholds)
		c.Pipeline.Thresholds = def.Pipeline.Thresholds
	}
	if c.Pipeline.BatchCap <= 0 {
		c.Pipeline.BatchCap = def.Pipeline.BatchCap
	}
	if c.Pipeline.Retention <= 0 {
		c.Pipeline.Retention = def.Pipeline.Retention
	}
	switch dr := c.Pipeline.DataRetention; {
	case dr < 0:
		c.Pipeline.DataRetention = def.Pipeline.DataRetention
	case dr > 0 && dr < c.Pipeline.Retention:
		// Purging inside the dedup window would resurface known articles.
		log.Printf("config: data retention %s is shorter than the dedup window, using %s", dr, c.Pipeline.Retention)
		c.Pipeline.DataRetention = c.Pipeline.Retention
	}
	switch strings.ToLower(c.Database.Driver) {
	case "postgres", "sqlite":
		c.Database.Driver = strings.ToLower(c.Database.Driver)
	default:
		log.Printf("config: unknown database driver %q, reverting to %s", c.Database.Driver, def.Database.Driver)
		c.Database.Driver = def.Database.Driver
	}
}

func defaultConfig() Config {
	tz, _ := time.LoadLocation(defaultTimezone)
	return Config{
		Logging:   LoggingConfig{Level: "debug", Format: "text"},
		Database:  DatabaseConfig{Driver: "sqlite", DSN: "file:mentions.db?_pragma=busy_timeout(5000)"},
		Scheduler: SchedulerConfig{CronExpression: "0 */6 * * *", Timezone: defaultTimezone, location: tz},
		Pipeline: PipelineConfig{
			Retention:         7 * 24 * time.Hour,
			DataRetention:     365 * 24 * time.Hour,
			Lookback:          24 * time.Hour,
			Thresholds:        ThresholdConfig{Reject: 0.3, Accept: 0.5, Alert: 0.75},
			BatchCap:          20,
			Concurrency:       4,
			EntityConcurrency: 2,
			Locale:            "IN",
			TrustFloor:        50,
			ExternalTimeout:   20 * time.Second,
			Weights:           matching.DefaultWeights(),
		},
		Providers: ProviderConfig{
			Enabled:    []string{"gdelt"},
			MaxResults: 50,
			Language:   "en",
			GDELT: GDELTConfig{
				Endpoint:          "https://api.gdeltproject.org/api/v2/doc/doc",
				RequestsPerMinute: 12,
				Timeout:           30 * time.Second,
			},
			RSS: RSSConfig{Timeout: 30 * time.Second},
		},
		Fetcher: FetcherConfig{
			Enabled:     true,
			Timeout:     15 * time.Second,
			UserAgent:   "MentionMonitor/1.0 (+news monitoring)",
			MaxBytes:    2 << 20,
			Concurrency: 4,
		},
		LLM: LLMConfig{
			Endpoint: "https://api.openai.com/v1/chat/completions",
			Model:    "gpt-4o-mini",
			Timeout:  20 * time.Second,
		},
		Cache: CacheConfig{TTL: 72 * time.Hour},
		Notifications: NotificationConfig{
			Telegram: TelegramConfig{BaseURL: "https://api.telegram.org"},
			NATS:     NATSConfig{Subject: "mentions.alerts"},
		},
	}
}
