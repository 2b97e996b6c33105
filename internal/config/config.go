package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// Config root configuration
type Config struct {
	Workspace  WorkspaceConfig  `mapstructure:"workspace"`
	Providers  ProvidersConfig  `mapstructure:"providers"`
	Report     ReportConfig     `mapstructure:"report"`
	Notify     NotifyConfig     `mapstructure:"notify"`
	Automation AutomationConfig `mapstructure:"automation"`
	Gateway    GatewayConfig    `mapstructure:"gateway"`
	Log        LogConfig        `mapstructure:"log"`
}

// WorkspaceConfig local data directory settings
type WorkspaceConfig struct {
	Dir string `mapstructure:"dir"`
}

// ProvidersConfig LLM provider settings
type ProvidersConfig struct {
	OpenAI ProviderConfig `mapstructure:"openai"`
	Claude ProviderConfig `mapstructure:"claude"`
	Ollama ProviderConfig `mapstructure:"ollama"`
}

// ProviderConfig single provider settings
type ProviderConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
}

// ReportConfig report generation parameters
type ReportConfig struct {
	Model       string  `mapstructure:"model"`
	MaxTokens   int     `mapstructure:"max_tokens"`
	Temperature float64 `mapstructure:"temperature"`
}

// NotifyConfig outbound notification settings
type NotifyConfig struct {
	Telegram TelegramConfig `mapstructure:"telegram"`
	Email    EmailConfig    `mapstructure:"email"`
	SMS      SMSConfig      `mapstructure:"sms"`
}

// TelegramConfig telegram push settings
type TelegramConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Token   string `mapstructure:"token"`
	ChatID  int64  `mapstructure:"chat_id"`
}

// EmailConfig email channel settings
type EmailConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	From    string `mapstructure:"from"`
	To      string `mapstructure:"to"`
}

// SMSConfig sms channel settings
type SMSConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	To      string `mapstructure:"to"`
}

// AutomationConfig scheduled rule runtime settings
type AutomationConfig struct {
	Enabled      bool `mapstructure:"enabled"`
	TickSeconds  int  `mapstructure:"tick_seconds"`
	PendingHours int  `mapstructure:"pending_hours"` // approval records older than this expire
}

// GatewayConfig server settings
type GatewayConfig struct {
	Host  string `mapstructure:"host"`
	Port  int    `mapstructure:"port"`
	Token string `mapstructure:"token"`
}

// LogConfig application logging settings
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

// DefaultConfig returns config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Workspace: WorkspaceConfig{
			Dir: ConfigDir(),
		},
		Providers: ProvidersConfig{},
		Report: ReportConfig{
			Model:       "gpt-4o-mini",
			MaxTokens:   4096,
			Temperature: 0.2,
		},
		Notify: NotifyConfig{
			Telegram: TelegramConfig{Enabled: false},
			Email:    EmailConfig{Enabled: false},
			SMS:      SMSConfig{Enabled: false},
		},
		Automation: AutomationConfig{
			Enabled:      true,
			TickSeconds:  60,
			PendingHours: 24,
		},
		Gateway: GatewayConfig{
			Host:  "127.0.0.1",
			Port:  18890,
			Token: "",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
			File:   "",
		},
	}
}

// ConfigDir returns the financeos config directory
func ConfigDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		slog.Warn("failed to resolve home directory, using current directory as fallback", "error", err)
		homeDir = "."
	}
	return filepath.Join(homeDir, ".financeos")
}

// ConfigPath returns the config file path
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.json")
}

// Load loads config from file or returns defaults
func Load() (*Config, error) {
	cfg := DefaultConfig()

	configPath := ConfigPath()
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := Save(cfg); err != nil {
			return cfg, fmt.Errorf("failed to create default config: %w", err)
		}
		return cfg, nil
	}

	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("json")
	v.SetEnvPrefix("FINANCEOS")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return cfg, err
	}

	if err := v.Unmarshal(cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.MatchName = func(mapKey, fieldName string) bool {
			return normalizeKey(mapKey) == normalizeKey(fieldName)
		}
	}); err != nil {
		return cfg, err
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func normalizeKey(input string) string {
	input = strings.ReplaceAll(input, "_", "")
	input = strings.ReplaceAll(input, "-", "")
	return strings.ToLower(input)
}

// Save saves config to file
func Save(cfg *Config) error {
	configPath := ConfigPath()

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(configPath, data, 0600)
}

// Validate checks that the configuration values are within acceptable ranges.
func (c *Config) Validate() error {
	if c.Report.Temperature < 0 || c.Report.Temperature > 2.0 {
		return fmt.Errorf("report.temperature must be between 0 and 2.0, got %f", c.Report.Temperature)
	}
	if c.Report.MaxTokens <= 0 {
		return fmt.Errorf("report.max_tokens must be > 0, got %d", c.Report.MaxTokens)
	}
	if strings.TrimSpace(c.Report.Model) == "" {
		c.Report.Model = "gpt-4o-mini"
	}

	if c.Gateway.Port <= 0 || c.Gateway.Port > 65535 {
		return fmt.Errorf("gateway.port must be between 1 and 65535, got %d", c.Gateway.Port)
	}

	level := strings.ToLower(strings.TrimSpace(c.Log.Level))
	if level == "" {
		c.Log.Level = "info"
	} else {
		validLevels := map[string]bool{
			"debug": true,
			"info":  true,
			"warn":  true,
			"error": true,
		}
		if !validLevels[level] {
			return fmt.Errorf("log.level must be one of debug, info, warn, error; got %q", c.Log.Level)
		}
		c.Log.Level = level
	}

	format := strings.ToLower(strings.TrimSpace(c.Log.Format))
	switch format {
	case "":
		c.Log.Format = "text"
	case "text", "json":
		c.Log.Format = format
	default:
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}

	if c.Automation.TickSeconds < 0 {
		return fmt.Errorf("automation.tick_seconds must not be negative, got %d", c.Automation.TickSeconds)
	}
	if c.Automation.TickSeconds == 0 {
		c.Automation.TickSeconds = 60
	}
	if c.Automation.TickSeconds > 0 && c.Automation.TickSeconds < 5 {
		c.Automation.TickSeconds = 5
	}

	if c.Automation.PendingHours < 0 {
		return fmt.Errorf("automation.pending_hours must not be negative, got %d", c.Automation.PendingHours)
	}
	if c.Automation.PendingHours == 0 {
		c.Automation.PendingHours = 24
	}

	if c.Notify.Telegram.Enabled && strings.TrimSpace(c.Notify.Telegram.Token) == "" {
		return fmt.Errorf("notify.telegram.token is required when telegram is enabled")
	}

	return nil
}

// WorkspaceDir returns the expanded data directory.
func (c *Config) WorkspaceDir() string {
	dir := strings.TrimSpace(c.Workspace.Dir)
	if dir == "" {
		return ConfigDir()
	}
	if dir[0] == '~' {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return ConfigDir()
		}
		rest := strings.TrimPrefix(dir[1:], string(filepath.Separator))
		rest = strings.TrimPrefix(rest, "/")
		return filepath.Join(homeDir, rest)
	}
	return dir
}
