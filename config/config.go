package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	// Environment
	IsProd bool `json:"is_prod" yaml:"is_prod"`

	// Bot socket
	Socket SocketConfig `json:"socket" yaml:"socket"`

	// Stats endpoint
	Stats StatsConfig `json:"stats" yaml:"stats"`

	// Board rendering
	Board BoardConfig `json:"board" yaml:"board"`

	// Terminal UI
	UI UIConfig `json:"ui" yaml:"ui"`

	// Status alerts
	Alerts AlertsConfig `json:"alerts" yaml:"alerts"`

	// Discord
	Discord DiscordConfig `json:"discord" yaml:"discord"`

	// Telegram
	Telegram TelegramConfig `json:"telegram" yaml:"telegram"`

	// Health server
	HealthServer HealthServerConfig `json:"health_server" yaml:"health_server"`
}

// SocketConfig holds the bot's Socket.IO connection settings.
type SocketConfig struct {
	URL            string        `json:"url" yaml:"url" validate:"required,url"`
	PingTimeout    time.Duration `json:"ping_timeout" yaml:"ping_timeout" validate:"min=1s"`       // Read deadline until the server announces its own
	ReconnectDelay time.Duration `json:"reconnect_delay" yaml:"reconnect_delay" validate:"min=0"` // Wait between reconnect attempts
}

// StatsConfig holds the stats endpoint settings.
type StatsConfig struct {
	BaseURL      string        `json:"base_url" yaml:"base_url" validate:"required,url"`
	PollInterval time.Duration `json:"poll_interval" yaml:"poll_interval" validate:"min=1s"`
	Timeout      time.Duration `json:"timeout" yaml:"timeout" validate:"min=1s"`
}

// BoardConfig holds render settings.
type BoardConfig struct {
	TradeLogCapacity int    `json:"trade_log_capacity" yaml:"trade_log_capacity" validate:"min=1"`
	TerminalMaxLines int    `json:"terminal_max_lines" yaml:"terminal_max_lines" validate:"min=0"` // 0 = unbounded
	TimeLayout       string `json:"time_layout" yaml:"time_layout" validate:"required"`
}

// UIConfig holds terminal UI settings.
type UIConfig struct {
	Headless bool   `json:"headless" yaml:"headless"`
	LogFile  string `json:"log_file" yaml:"log_file"` // Log destination while the TUI owns the terminal
}

// AlertsConfig holds status alert settings.
type AlertsConfig struct {
	Enabled bool `json:"enabled" yaml:"enabled"`
}

// DiscordConfig holds Discord-related configuration.
type DiscordConfig struct {
	BotToken      string `json:"-" yaml:"-"` // Excluded - env var only
	ProdChannelID string `json:"prod_channel_id" yaml:"prod_channel_id"`
	BetaChannelID string `json:"beta_channel_id" yaml:"beta_channel_id"`
}

// TelegramConfig holds Telegram-related configuration.
type TelegramConfig struct {
	BotToken   string `json:"-" yaml:"-"` // Excluded - env var only
	ProdChatID string `json:"prod_chat_id" yaml:"prod_chat_id"`
	BetaChatID string `json:"beta_chat_id" yaml:"beta_chat_id"`
}

// HealthServerConfig holds health check server configuration.
type HealthServerConfig struct {
	Enabled bool `json:"enabled" yaml:"enabled"`
	Port    int  `json:"port" yaml:"port"`
}

// Clone creates a copy of the config.
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}
	clone := *c
	return &clone
}

// Defaults returns a config with hardcoded default values.
func Defaults() *Config {
	return &Config{
		IsProd: false,
		Socket: SocketConfig{
			URL:            "http://localhost:8000",
			PingTimeout:    45 * time.Second,
			ReconnectDelay: 5 * time.Second,
		},
		Stats: StatsConfig{
			BaseURL:      "http://localhost:8000",
			PollInterval: 10 * time.Second,
			Timeout:      30 * time.Second,
		},
		Board: BoardConfig{
			TradeLogCapacity: 50,
			TerminalMaxLines: 0,
			TimeLayout:       "3:04:05 PM",
		},
		UI: UIConfig{
			Headless: false,
			LogFile:  "botdash.log",
		},
		Alerts: AlertsConfig{
			Enabled: true,
		},
		HealthServer: HealthServerConfig{
			Enabled: true,
			Port:    8081,
		},
	}
}

// Load builds the config from defaults, the optional YAML file named by
// BOTDASH_CONFIG and finally environment variables.
func Load() (*Config, error) {
	cfg := Defaults()

	if path := envString("BOTDASH_CONFIG", ""); path != "" {
		merged, err := LoadFile(path, cfg)
		if err != nil {
			return nil, err
		}
		cfg = merged
	}

	applyEnv(cfg)
	return cfg, nil
}

// LoadFile merges the YAML file at path over base. Keys absent from the file
// keep their base values.
func LoadFile(path string, base *Config) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	return ConfigFromYAML(data, base)
}

// ConfigFromYAML deserializes YAML into a config, merging with base.
func ConfigFromYAML(data []byte, base *Config) (*Config, error) {
	if base == nil {
		base = Defaults()
	}
	cfg := base.Clone()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("decode config yaml: %w", err)
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv("STAGE")); v != "" {
		cfg.IsProd = strings.EqualFold(v, "PROD")
	}

	cfg.Socket.URL = envString("SOCKET_URL", cfg.Socket.URL)
	cfg.Socket.PingTimeout = envDuration("SOCKET_PING_TIMEOUT", cfg.Socket.PingTimeout)
	cfg.Socket.ReconnectDelay = envDuration("SOCKET_RECONNECT_DELAY", cfg.Socket.ReconnectDelay)

	cfg.Stats.BaseURL = envString("STATS_BASE_URL", cfg.Stats.BaseURL)
	cfg.Stats.PollInterval = envDuration("STATS_POLL_INTERVAL", cfg.Stats.PollInterval)
	cfg.Stats.Timeout = envDuration("STATS_TIMEOUT", cfg.Stats.Timeout)

	cfg.Board.TradeLogCapacity = envInt("TRADE_LOG_CAPACITY", cfg.Board.TradeLogCapacity)
	cfg.Board.TerminalMaxLines = envInt("TERMINAL_MAX_LINES", cfg.Board.TerminalMaxLines)
	cfg.Board.TimeLayout = envString("TIME_LAYOUT", cfg.Board.TimeLayout)

	cfg.UI.Headless = envBoolDefault("HEADLESS", cfg.UI.Headless)
	cfg.UI.LogFile = envString("LOG_FILE", cfg.UI.LogFile)

	cfg.Alerts.Enabled = envBoolDefault("ALERTS_ENABLED", cfg.Alerts.Enabled)

	cfg.Discord.BotToken = envString("DISCORD_BOT_TOKEN", cfg.Discord.BotToken)
	cfg.Discord.ProdChannelID = envString("DISCORD_PROD_CHANNEL_ID", cfg.Discord.ProdChannelID)
	cfg.Discord.BetaChannelID = envString("DISCORD_BETA_CHANNEL_ID", cfg.Discord.BetaChannelID)

	cfg.Telegram.BotToken = envString("TELEGRAM_BOT_KEY", cfg.Telegram.BotToken)
	cfg.Telegram.ProdChatID = envString("TELEGRAM_PROD_CHAT_ID", cfg.Telegram.ProdChatID)
	cfg.Telegram.BetaChatID = envString("TELEGRAM_BETA_CHAT_ID", cfg.Telegram.BetaChatID)

	cfg.HealthServer.Enabled = envBoolDefault("HEALTH_SERVER_ENABLED", cfg.HealthServer.Enabled)
	cfg.HealthServer.Port = envInt("HEALTH_SERVER_PORT", cfg.HealthServer.Port)
}

// Helper functions for parsing environment variables

func envString(key, defaultVal string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int) int {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func envDuration(key string, defaultVal time.Duration) time.Duration {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}

func envBoolDefault(key string, defaultVal bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return defaultVal
	}
	return strings.EqualFold(v, "true") || strings.EqualFold(v, "1") || strings.EqualFold(v, "yes")
}
