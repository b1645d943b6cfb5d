package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"streakwatch/pkg/quotex"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Quotex   QuotexConfig   `mapstructure:"quotex"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	Monitor  MonitorConfig  `mapstructure:"monitor"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Log      LogConfig      `mapstructure:"log"`
	Postgres PostgresConfig `mapstructure:"postgres"`
	Secrets  SecretsConfig  `mapstructure:"secrets"`
}

type QuotexConfig struct {
	Email    string     `mapstructure:"email"`
	Password string     `mapstructure:"password"`
	REST     RESTConfig `mapstructure:"rest"`
	WS       WSConfig   `mapstructure:"ws"`
}

type RESTConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type WSConfig struct {
	URL string `mapstructure:"url"`
}

// TelegramConfig holds the bot credentials used for outbound alerts.
// An empty token or chat id switches delivery to console lines.
type TelegramConfig struct {
	BotToken string        `mapstructure:"bot_token"`
	ChatID   string        `mapstructure:"chat_id"`
	BaseURL  string        `mapstructure:"base_url"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

type MonitorConfig struct {
	Timeframe       int     `mapstructure:"timeframe"`        // candle duration in seconds
	CooldownSeconds int     `mapstructure:"cooldown_seconds"` // minimum spacing between alerts per asset
	PollInterval    float64 `mapstructure:"poll_interval"`    // tick sleep in seconds
}

type MetricsConfig struct {
	Addr string `mapstructure:"addr"` // empty disables the /metrics listener
}

// Options defines the logger configuration options.
type LogConfig struct {
	Level       string `mapstructure:"level"`       // log level: "debug", "info", "warn", "error"
	Format      string `mapstructure:"format"`      // log format: "json" or "console"
	OutputFile  string `mapstructure:"output_file"` // file path to store logs (optional)
	Environment string `mapstructure:"environment"` // environment: "dev" or "prod"
}

// Cooldown returns the per-asset alert spacing.
func (m MonitorConfig) Cooldown() time.Duration {
	return time.Duration(m.CooldownSeconds) * time.Second
}

// PollEvery returns the sleep between two ticks.
func (m MonitorConfig) PollEvery() time.Duration {
	return time.Duration(m.PollInterval * float64(time.Second))
}

// legacyEnv maps config keys onto the variable names operators already export.
var legacyEnv = map[string]string{
	"quotex.email":             "QUOTEX_EMAIL",
	"quotex.password":          "QUOTEX_PASSWORD",
	"telegram.bot_token":       "TELEGRAM_BOT_TOKEN",
	"telegram.chat_id":         "TELEGRAM_CHAT_ID",
	"monitor.timeframe":        "TIMEFRAME",
	"monitor.cooldown_seconds": "COOLDOWN_SECONDS",
	"monitor.poll_interval":    "POLL_INTERVAL",
	"metrics.addr":             "METRICS_ADDR",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("quotex.email", "")
	v.SetDefault("quotex.password", "")
	v.SetDefault("quotex.rest.base_url", "https://qxbroker.com")
	v.SetDefault("quotex.rest.timeout", DefaultRESTTimeout)
	v.SetDefault("quotex.ws.url", "wss://ws2.qxbroker.com/stream")

	v.SetDefault("telegram.bot_token", "")
	v.SetDefault("telegram.chat_id", "")
	v.SetDefault("telegram.base_url", "https://api.telegram.org")
	v.SetDefault("telegram.timeout", 10*time.Second)

	v.SetDefault("monitor.timeframe", DefaultTimeframe)
	v.SetDefault("monitor.cooldown_seconds", DefaultCooldownSeconds)
	v.SetDefault("monitor.poll_interval", DefaultPollInterval)

	v.SetDefault("metrics.addr", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.output_file", "")
	v.SetDefault("log.environment", "dev")

	v.SetDefault("postgres.enabled", false)
	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.user", "postgres")
	v.SetDefault("postgres.password", "")
	v.SetDefault("postgres.dbname", "streakwatch")
	v.SetDefault("postgres.sslmode", "disable")
	v.SetDefault("postgres.timezone", "UTC")
	v.SetDefault("postgres.create_db", false)
	v.SetDefault("postgres.max_open_conns", 4)
	v.SetDefault("postgres.max_idle_conns", 2)
	v.SetDefault("postgres.conn_max_lifetime", time.Hour)

	v.SetDefault("secrets.quotex_password_param", "")
	v.SetDefault("secrets.telegram_token_param", "")
	v.SetDefault("secrets.db_host_param", "")
	v.SetDefault("secrets.db_user_param", "")
	v.SetDefault("secrets.db_password_param", "")
}

// Load loads application configuration using Viper.
// It reads an optional config.yaml from the given directories (or the default
// search path) and overrides it with environment variables. A .env file in the
// working directory is loaded first when present.
func Load(paths ...string) (*Config, error) {
	_ = godotenv.Load() // best-effort

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config") // config.yaml
	v.SetConfigType("yaml")

	if len(paths) == 0 {
		paths = defaultSearchPaths()
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	// Support environment variables with dot notation (e.g., QUOTEX_REST_BASE_URL)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range legacyEnv {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", env, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func defaultSearchPaths() []string {
	paths := []string{"config"}
	if ex, err := os.Executable(); err == nil {
		paths = append(paths, filepath.Join(filepath.Dir(ex), "../config"))
	}
	if pwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(pwd, "../../config"))
	}
	return paths
}

// Missing lists the required settings that are empty. The monitor still starts
// without them: market data will fail to connect and alerts go to the console.
func (c *Config) Missing() []string {
	var missing []string
	if c.Quotex.Email == "" {
		missing = append(missing, "QUOTEX_EMAIL")
	}
	if c.Quotex.Password == "" {
		missing = append(missing, "QUOTEX_PASSWORD")
	}
	if c.Telegram.BotToken == "" {
		missing = append(missing, "TELEGRAM_BOT_TOKEN")
	}
	if c.Telegram.ChatID == "" {
		missing = append(missing, "TELEGRAM_CHAT_ID")
	}
	return missing
}

// Defaults applied by Sanitize when a setting is unusable.
const (
	DefaultTimeframe       = 60
	DefaultCooldownSeconds = 300
	DefaultPollInterval    = 1.0
	DefaultRESTTimeout     = 10 * time.Second
)

// Sanitize replaces settings the monitor cannot run with by their defaults and
// describes each replacement. The monitor starts regardless.
func (c *Config) Sanitize() []string {
	var fixed []string
	if c.Monitor.CooldownSeconds < 0 {
		fixed = append(fixed, fmt.Sprintf("monitor.cooldown_seconds %d is negative, using %d",
			c.Monitor.CooldownSeconds, DefaultCooldownSeconds))
		c.Monitor.CooldownSeconds = DefaultCooldownSeconds
	}
	if c.Monitor.PollInterval <= 0 {
		fixed = append(fixed, fmt.Sprintf("monitor.poll_interval %v must be > 0, using %v",
			c.Monitor.PollInterval, DefaultPollInterval))
		c.Monitor.PollInterval = DefaultPollInterval
	}
	if _, err := quotex.ParsePeriod(c.Monitor.Timeframe); err != nil {
		fixed = append(fixed, fmt.Sprintf("monitor.timeframe: %v, using %d", err, DefaultTimeframe))
		c.Monitor.Timeframe = DefaultTimeframe
	}
	if c.Quotex.REST.Timeout <= 0 {
		fixed = append(fixed, fmt.Sprintf("quotex.rest.timeout %s must be > 0, using %s",
			c.Quotex.REST.Timeout, DefaultRESTTimeout))
		c.Quotex.REST.Timeout = DefaultRESTTimeout
	}
	return fixed
}
