package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

const (
	defaultHTTPListen   = ":8380"
	defaultNATSURL      = "nats://127.0.0.1:4222"
	defaultNATSSubject  = "notifyd.events"
	defaultNATSStream   = "NOTIFYD_EVENTS"
	defaultConsumerName = "notifyd-ingest"
	defaultDeliverGroup = "notifyd"
	defaultWorkBucket   = "notifyd_deferred"
	defaultRenderPrefix = "notifyd.alerts"
)

// Work backend values.
const (
	// WorkBackendMemory keeps deferred work in process memory.
	WorkBackendMemory = "memory"
	// WorkBackendNATS persists deferred work in a JetStream KV bucket.
	WorkBackendNATS = "nats"
)

// Config is the full service configuration loaded from TOML with an
// environment overlay for secrets.
type Config struct {
	Service  ServiceConfig  `toml:"service"`
	Log      LogConfig      `toml:"log"`
	Ingest   IngestConfig   `toml:"ingest"`
	Work     WorkConfig     `toml:"work"`
	Render   RenderConfig   `toml:"render"`
	Blocking BlockingConfig `toml:"blocking"`

	// Prefs seeds the preference store with "<category>.<setting>" and
	// global keys.
	Prefs map[string]string `toml:"prefs"`
}

// ServiceConfig contains process-level settings.
// Params: name, time zone, and reload behavior.
// Returns: service behavior defaults.
type ServiceConfig struct {
	Name              string `toml:"name"`
	TimeZone          string `toml:"time_zone"`
	ReloadEnabled     bool   `toml:"reload_enabled"`
	ReloadIntervalSec int    `toml:"reload_interval_sec"`
}

// LogConfig configures console and file log sinks.
type LogConfig struct {
	Console LogSinkConfig `toml:"console"`
	File    LogFileConfig `toml:"file"`
}

// LogSinkConfig configures one log sink.
// Params: enable flag, minimum level, and output format.
// Returns: sink behavior.
type LogSinkConfig struct {
	Enabled bool   `toml:"enabled"`
	Level   string `toml:"level"`
	Format  string `toml:"format"`
}

// LogFileConfig configures the file log sink.
// Params: sink settings plus destination path.
// Returns: file sink behavior.
type LogFileConfig struct {
	Enabled bool   `toml:"enabled"`
	Level   string `toml:"level"`
	Format  string `toml:"format"`
	Path    string `toml:"path"`
}

// IngestConfig defines inbound event interfaces.
// Params: embedded HTTP and NATS subscription controls.
// Returns: ingestion runtime options.
type IngestConfig struct {
	HTTP HTTPIngestConfig `toml:"http"`
	NATS NATSIngestConfig `toml:"nats"`
}

// HTTPIngestConfig configures the HTTP intake/control API.
// Params: enable flag, listen address, and body size limit.
// Returns: HTTP ingest behavior.
type HTTPIngestConfig struct {
	Enabled      bool   `toml:"enabled"`
	Listen       string `toml:"listen"`
	MaxBodyBytes int64  `toml:"max_body_bytes"`
}

// NATSIngestConfig configures JetStream queue-consumer ingestion.
// Params: connection + ack/redelivery policy; stream routing keys are
// runtime-fixed.
// Returns: NATS ingest behavior.
type NATSIngestConfig struct {
	Enabled       bool     `toml:"enabled"`
	URL           []string `toml:"url"`
	Subject       string   `toml:"-"`
	Stream        string   `toml:"-"`
	ConsumerName  string   `toml:"-"`
	DeliverGroup  string   `toml:"-"`
	AckWaitSec    int      `toml:"ack_wait_sec"`
	NackDelayMS   int      `toml:"nack_delay_ms"`
	MaxDeliver    int      `toml:"max_deliver"`
	MaxAckPending int      `toml:"max_ack_pending"`
}

// WorkConfig selects the deferred-work persistence backend.
// Params: backend name and NATS settings.
// Returns: scheduler persistence behavior.
type WorkConfig struct {
	Backend string         `toml:"backend"`
	NATS    NATSWorkConfig `toml:"nats"`
}

// NATSWorkConfig configures the JetStream KV work bucket.
// Params: connection URLs, bucket name, and create flag.
// Returns: KV persistence behavior.
type NATSWorkConfig struct {
	URL               []string `toml:"url"`
	Bucket            string   `toml:"bucket"`
	AllowCreateBucket bool     `toml:"allow_create_bucket"`
}

// RenderConfig configures the presentation surfaces.
// Params: log tap, retry policy, and remote surface settings.
// Returns: renderer composition.
type RenderConfig struct {
	Log      bool                 `toml:"log"`
	Retry    RenderRetry          `toml:"retry"`
	NATS     NATSRenderConfig     `toml:"nats"`
	Telegram TelegramRenderConfig `toml:"telegram"`
}

// RenderRetry configures the Show retry policy.
// Params: attempt cap and backoff strategy.
// Returns: retry behavior for remote surfaces.
type RenderRetry struct {
	Enabled     bool   `toml:"enabled"`
	MaxAttempts int    `toml:"max_attempts"`
	Backoff     string `toml:"backoff"`
	InitialMS   int    `toml:"initial_ms"`
	MaxMS       int    `toml:"max_ms"`
}

// NATSRenderConfig configures the NATS alert forwarder.
// Params: enable flag, connection URLs, and subject prefix.
// Returns: forwarder behavior.
type NATSRenderConfig struct {
	Enabled       bool     `toml:"enabled"`
	URL           []string `toml:"url"`
	SubjectPrefix string   `toml:"subject_prefix"`
}

// TelegramRenderConfig configures the Telegram surface.
// Params: enable flag, bot token, chat id, and optional API base.
// Returns: Telegram renderer behavior.
type TelegramRenderConfig struct {
	Enabled  bool   `toml:"enabled"`
	BotToken string `toml:"bot_token"`
	ChatID   string `toml:"chat_id"`
	APIBase  string `toml:"api_base"`
}

// BlockingConfig lists the blocking foreground applications per traffic
// kind, each entry "package" or "package/class".
type BlockingConfig struct {
	SMS   []string `toml:"sms"`
	Email []string `toml:"email"`
	Misc  []string `toml:"misc"`
}

// secrets is the environment overlay for values that should not live in
// the TOML file.
type secrets struct {
	TelegramBotToken string `env:"NOTIFYD_TELEGRAM_BOT_TOKEN"`
	TelegramChatID   string `env:"NOTIFYD_TELEGRAM_CHAT_ID"`
	NATSURL          string `env:"NOTIFYD_NATS_URL"`
}

// Load reads one TOML file, applies defaults, overlays environment
// secrets, and validates the result.
// Params: config file path.
// Returns: ready config or load/validation error.
func Load(path string) (Config, error) {
	body, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %q: %w", path, err)
	}

	var cfg Config
	if err := toml.Unmarshal(body, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %q: %w", path, err)
	}

	applyDefaults(&cfg)
	if err := applyEnvOverlay(&cfg); err != nil {
		return Config{}, err
	}
	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// applyEnvOverlay loads .env (when present) and overrides secret fields
// from the environment.
// Params: config under construction.
// Returns: env parse error.
func applyEnvOverlay(cfg *Config) error {
	// The .env file is optional.
	_ = godotenv.Load()

	var sec secrets
	if err := env.Parse(&sec); err != nil {
		return fmt.Errorf("parse env overlay: %w", err)
	}
	if sec.TelegramBotToken != "" {
		cfg.Render.Telegram.BotToken = sec.TelegramBotToken
	}
	if sec.TelegramChatID != "" {
		cfg.Render.Telegram.ChatID = sec.TelegramChatID
	}
	if sec.NATSURL != "" {
		urls := normalizeNATSURLs(strings.Split(sec.NATSURL, ","))
		cfg.Ingest.NATS.URL = urls
		cfg.Work.NATS.URL = urls
		cfg.Render.NATS.URL = urls
	}
	return nil
}

// applyDefaults fills absent settings with runtime defaults.
// Params: decoded config.
// Returns: config normalized in place.
func applyDefaults(cfg *Config) {
	if strings.TrimSpace(cfg.Service.Name) == "" {
		cfg.Service.Name = "notifyd"
	}
	if cfg.Service.ReloadIntervalSec <= 0 {
		cfg.Service.ReloadIntervalSec = 30
	}

	if cfg.Log.Console.Level == "" {
		cfg.Log.Console.Level = "info"
	}
	if cfg.Log.Console.Format == "" {
		cfg.Log.Console.Format = "line"
	}
	if cfg.Log.File.Level == "" {
		cfg.Log.File.Level = "info"
	}
	if cfg.Log.File.Format == "" {
		cfg.Log.File.Format = "json"
	}
	if !cfg.Log.Console.Enabled && !cfg.Log.File.Enabled {
		cfg.Log.Console.Enabled = true
	}

	if strings.TrimSpace(cfg.Ingest.HTTP.Listen) == "" {
		cfg.Ingest.HTTP.Listen = defaultHTTPListen
	}
	if cfg.Ingest.HTTP.MaxBodyBytes <= 0 {
		cfg.Ingest.HTTP.MaxBodyBytes = 2 << 20
	}

	cfg.Ingest.NATS.URL = normalizeNATSURLs(cfg.Ingest.NATS.URL)
	if len(cfg.Ingest.NATS.URL) == 0 {
		cfg.Ingest.NATS.URL = []string{defaultNATSURL}
	}
	cfg.Ingest.NATS.Subject = defaultNATSSubject
	cfg.Ingest.NATS.Stream = defaultNATSStream
	cfg.Ingest.NATS.ConsumerName = defaultConsumerName
	cfg.Ingest.NATS.DeliverGroup = defaultDeliverGroup
	if cfg.Ingest.NATS.AckWaitSec <= 0 {
		cfg.Ingest.NATS.AckWaitSec = 30
	}
	if cfg.Ingest.NATS.NackDelayMS < 0 {
		cfg.Ingest.NATS.NackDelayMS = 0
	}
	if cfg.Ingest.NATS.MaxDeliver <= 0 {
		cfg.Ingest.NATS.MaxDeliver = 5
	}
	if cfg.Ingest.NATS.MaxAckPending <= 0 {
		cfg.Ingest.NATS.MaxAckPending = 256
	}

	if strings.TrimSpace(cfg.Work.Backend) == "" {
		cfg.Work.Backend = WorkBackendMemory
	}
	cfg.Work.Backend = strings.ToLower(strings.TrimSpace(cfg.Work.Backend))
	cfg.Work.NATS.URL = normalizeNATSURLs(cfg.Work.NATS.URL)
	if len(cfg.Work.NATS.URL) == 0 {
		cfg.Work.NATS.URL = []string{defaultNATSURL}
	}
	if strings.TrimSpace(cfg.Work.NATS.Bucket) == "" {
		cfg.Work.NATS.Bucket = defaultWorkBucket
	}

	if !cfg.Render.Log && !cfg.Render.NATS.Enabled && !cfg.Render.Telegram.Enabled {
		cfg.Render.Log = true
	}
	if cfg.Render.Retry.MaxAttempts <= 0 {
		cfg.Render.Retry.MaxAttempts = 3
	}
	if cfg.Render.Retry.Backoff == "" {
		cfg.Render.Retry.Backoff = "exponential"
	}
	if cfg.Render.Retry.InitialMS <= 0 {
		cfg.Render.Retry.InitialMS = 200
	}
	if cfg.Render.Retry.MaxMS <= 0 {
		cfg.Render.Retry.MaxMS = 5000
	}
	cfg.Render.NATS.URL = normalizeNATSURLs(cfg.Render.NATS.URL)
	if len(cfg.Render.NATS.URL) == 0 {
		cfg.Render.NATS.URL = []string{defaultNATSURL}
	}
	if strings.TrimSpace(cfg.Render.NATS.SubjectPrefix) == "" {
		cfg.Render.NATS.SubjectPrefix = defaultRenderPrefix
	}
}

// validateConfig rejects configurations that cannot start.
// Params: normalized config.
// Returns: first validation error.
func validateConfig(cfg Config) error {
	if cfg.Work.Backend != WorkBackendMemory && cfg.Work.Backend != WorkBackendNATS {
		return fmt.Errorf("work.backend %q must be %q or %q", cfg.Work.Backend, WorkBackendMemory, WorkBackendNATS)
	}
	if cfg.Log.File.Enabled && strings.TrimSpace(cfg.Log.File.Path) == "" {
		return errors.New("log.file.path is required when file sink is enabled")
	}
	if cfg.Render.Telegram.Enabled {
		if strings.TrimSpace(cfg.Render.Telegram.BotToken) == "" {
			return errors.New("render.telegram.bot_token is required when telegram is enabled")
		}
		if strings.TrimSpace(cfg.Render.Telegram.ChatID) == "" {
			return errors.New("render.telegram.chat_id is required when telegram is enabled")
		}
	}
	if !cfg.Ingest.HTTP.Enabled && !cfg.Ingest.NATS.Enabled {
		return errors.New("at least one ingest interface must be enabled")
	}
	if cfg.Service.TimeZone != "" {
		if _, err := timeZoneLocation(cfg.Service.TimeZone); err != nil {
			return fmt.Errorf("service.time_zone: %w", err)
		}
	}
	return nil
}

// normalizeNATSURLs trims and drops blank URL entries.
// Params: raw URL list.
// Returns: cleaned list.
func normalizeNATSURLs(urls []string) []string {
	cleaned := make([]string, 0, len(urls))
	for _, raw := range urls {
		trimmed := strings.TrimSpace(raw)
		if trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}
	return cleaned
}
