package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"home-energy-dashboard/internal/logging"
	"home-energy-dashboard/internal/view"
)

// Config materialises application configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Logging   logging.Config  `mapstructure:"logging"`
	API       APIConfig       `mapstructure:"api"`
	Poller    PollerConfig    `mapstructure:"poller"`
	Display   DisplayConfig   `mapstructure:"display"`
	Alerting  AlertingConfig  `mapstructure:"alerting"`
	Export    ExportConfig    `mapstructure:"export"`
	Simulator SimulatorConfig `mapstructure:"simulator"`
}

// AppConfig general metadata.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

// APIConfig covers the telemetry payload endpoint.
type APIConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	UserAgent      string        `mapstructure:"user_agent"`
}

// PollerConfig governs refresh cadence.
type PollerConfig struct {
	Interval     time.Duration `mapstructure:"interval"`
	StartupDelay time.Duration `mapstructure:"startup_delay"`
}

// DisplayConfig sets view defaults for tables and charts.
type DisplayConfig struct {
	WindowHours int `mapstructure:"window_hours"`
	TopDevices  int `mapstructure:"top_devices"`
	MaxRows     int `mapstructure:"max_rows"`
}

// AlertingConfig defines anomaly alert routing.
type AlertingConfig struct {
	Enabled  bool           `mapstructure:"enabled"`
	Cooldown time.Duration  `mapstructure:"cooldown"`
	Telegram TelegramConfig `mapstructure:"telegram"`
}

// TelegramConfig 描述 Telegram 告警参数。
type TelegramConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
	APIBase  string `mapstructure:"api_base"`
}

// ExportConfig sets CLI export behaviour.
type ExportConfig struct {
	MaxDataPoints int `mapstructure:"max_data_points"`
}

// SimulatorConfig tunes the development payload server.
type SimulatorConfig struct {
	ListenAddr         string        `mapstructure:"listen_addr"`
	Interval           time.Duration `mapstructure:"interval"`
	CostPerKWH         float64       `mapstructure:"cost_per_kwh"`
	AnomalyProbability float64       `mapstructure:"anomaly_probability"`
	HistorySize        int           `mapstructure:"history_size"`
}

// Load builds configuration from file, environment, and defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("HOMEWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "homewatch")
	v.SetDefault("app.environment", "development")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("api.base_url", "http://localhost:8787")
	v.SetDefault("api.request_timeout", "10s")
	v.SetDefault("api.user_agent", "homewatch/1.0")

	v.SetDefault("poller.interval", "10s")
	v.SetDefault("poller.startup_delay", "0s")

	v.SetDefault("display.window_hours", 1)
	v.SetDefault("display.top_devices", 5)
	v.SetDefault("display.max_rows", 20)

	v.SetDefault("alerting.enabled", false)
	v.SetDefault("alerting.cooldown", "15m")
	v.SetDefault("alerting.telegram.enabled", false)
	v.SetDefault("alerting.telegram.api_base", "https://api.telegram.org")

	v.SetDefault("export.max_data_points", 100000)

	v.SetDefault("simulator.listen_addr", ":8787")
	v.SetDefault("simulator.interval", "5s")
	v.SetDefault("simulator.cost_per_kwh", 0.12)
	v.SetDefault("simulator.anomaly_probability", 0.03)
	v.SetDefault("simulator.history_size", 5000)
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}

// Validate performs basic sanity checks on the configuration values.
func (c *Config) Validate() error {
	if c.Poller.Interval <= 0 {
		return fmt.Errorf("poller.interval must be greater than zero")
	}
	if _, err := view.ParseWindowHours(c.Display.WindowHours); err != nil {
		return fmt.Errorf("display.window_hours: %w", err)
	}
	if c.Display.TopDevices <= 0 {
		return fmt.Errorf("display.top_devices must be greater than zero")
	}
	if c.Display.MaxRows <= 0 {
		return fmt.Errorf("display.max_rows must be greater than zero")
	}
	if c.Export.MaxDataPoints <= 0 {
		return fmt.Errorf("export.max_data_points must be greater than zero")
	}
	if c.Simulator.CostPerKWH < 0 {
		return fmt.Errorf("simulator.cost_per_kwh cannot be negative")
	}
	if c.Simulator.AnomalyProbability < 0 || c.Simulator.AnomalyProbability > 1 {
		return fmt.Errorf("simulator.anomaly_probability must be within [0, 1]")
	}
	if c.Simulator.HistorySize <= 0 {
		return fmt.Errorf("simulator.history_size must be greater than zero")
	}
	if c.Alerting.Telegram.Enabled {
		if c.Alerting.Telegram.BotToken == "" {
			return fmt.Errorf("alerting.telegram.bot_token 必须配置")
		}
		if c.Alerting.Telegram.ChatID == "" {
			return fmt.Errorf("alerting.telegram.chat_id 必须配置")
		}
	}
	return nil
}

// Window returns the configured trailing window as a duration.
func (c *Config) Window() time.Duration {
	return time.Duration(c.Display.WindowHours) * time.Hour
}

// ResolveMaxPoints returns either the CLI override or config default.
func (c *Config) ResolveMaxPoints(override int) int {
	if override > 0 {
		return override
	}
	return c.Export.MaxDataPoints
}
