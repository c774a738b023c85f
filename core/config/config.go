package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// TelegramConfig holds Telegram Bot API settings.
type TelegramConfig struct {
	Token string `yaml:"token" envconfig:"BOT_TOKEN"`
	// APIURL overrides the Bot API base URL; empty -> https://api.telegram.org
	APIURL string `yaml:"api_url" envconfig:"TELEGRAM_API_URL"`
	// LongPollTimeoutSeconds is passed to getUpdates as timeout; 0 -> short polling
	LongPollTimeoutSeconds int `yaml:"longpoll_timeout_seconds" envconfig:"TELEGRAM_LONGPOLL_TIMEOUT_SECONDS"`
	// PollIntervalMS is the pause between two polling cycles; 0 -> default
	PollIntervalMS int `yaml:"poll_interval_ms" envconfig:"TELEGRAM_POLL_INTERVAL_MS"`
}

// WeatherConfig holds weather provider settings.
type WeatherConfig struct {
	APIKey string   `yaml:"api_key" envconfig:"OWM_API_KEY"`
	Lang   string   `yaml:"lang" envconfig:"OWM_LANG"`
	Cities []string `yaml:"cities" envconfig:"WEATHER_CITIES"`
}

// StateConfig selects the conversation state backend.
type StateConfig struct {
	Backend string `yaml:"backend" envconfig:"STATE_BACKEND"`
}

// DatabaseConfig holds PostgreSQL connection settings for the postgres state backend.
type DatabaseConfig struct {
	Host           string `yaml:"host" envconfig:"DB_HOST"`
	Port           string `yaml:"port" envconfig:"DB_PORT"`
	User           string `yaml:"user" envconfig:"DB_USER"`
	Password       string `yaml:"password" envconfig:"DB_PASSWORD"`
	Name           string `yaml:"name" envconfig:"DB_NAME"`
	SSLMode        string `yaml:"sslmode" envconfig:"DB_SSLMODE"`
	MaxConnections int    `yaml:"max_connections" envconfig:"DB_MAX_CONNECTIONS"`
}

// LoggingConfig defines logging related configuration.
type LoggingConfig struct {
	Level       string `yaml:"level"`
	Format      string `yaml:"format"`
	KeysOrder   string `yaml:"keys_order"`
	DebugSample string `yaml:"debug_sample"`
	Dir         string `yaml:"dir"`
	BotFile     string `yaml:"bot_file"`
	// FileLevel is the minimum level written to the log file; empty -> debug.
	FileLevel string `yaml:"file_level"`
	// Truncate clears the log file on startup instead of appending.
	Truncate bool `yaml:"truncate"`
	// Profile indicates environment profile such as "debug" or "prod".
	Profile string `yaml:"profile"`
}

const (
	// StateBackendMemory keeps conversation state in process memory.
	StateBackendMemory = "memory"
	// StateBackendPostgres keeps conversation state in PostgreSQL.
	StateBackendPostgres = "postgres"
)

const (
	defaultPollIntervalMS = 500
	defaultLang           = "EN"
)

// DefaultCities is used when no city list is configured.
var DefaultCities = []string{"London", "Paris"}

// Config aggregates the bot configuration.
type Config struct {
	Telegram TelegramConfig `yaml:"telegram"`
	Weather  WeatherConfig  `yaml:"weather"`
	State    StateConfig    `yaml:"state"`
	Database DatabaseConfig `yaml:"database"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// CoreConfig returns the configuration itself; it lets Config satisfy cmd.ConfigCarrier.
func (c *Config) CoreConfig() *Config {
	return c
}

// Load reads configuration from a YAML file and environment variables.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}

	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize performs basic validation of required configuration fields and adjusts defaults.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}

	if strings.TrimSpace(cfg.Telegram.Token) == "" {
		return fmt.Errorf("telegram token is required")
	}
	if cfg.Telegram.LongPollTimeoutSeconds < 0 {
		return fmt.Errorf("telegram.longpoll_timeout_seconds must be >= 0")
	}
	if cfg.Telegram.PollIntervalMS < 0 {
		return fmt.Errorf("telegram.poll_interval_ms must be >= 0")
	}
	if cfg.Telegram.PollIntervalMS == 0 {
		cfg.Telegram.PollIntervalMS = defaultPollIntervalMS
	}
	cfg.Telegram.APIURL = strings.TrimRight(strings.TrimSpace(cfg.Telegram.APIURL), "/")

	if strings.TrimSpace(cfg.Weather.APIKey) == "" {
		return fmt.Errorf("weather api key is required")
	}
	lang := strings.ToUpper(strings.TrimSpace(cfg.Weather.Lang))
	if lang == "" {
		lang = defaultLang
	}
	cfg.Weather.Lang = lang

	cities := make([]string, 0, len(cfg.Weather.Cities))
	seen := make(map[string]struct{}, len(cfg.Weather.Cities))
	for _, c := range cfg.Weather.Cities {
		name := strings.TrimSpace(c)
		if name == "" {
			continue
		}
		if strings.HasPrefix(name, "/") {
			return fmt.Errorf("invalid weather.cities value %q; city names must not start with '/'", c)
		}
		key := strings.ToLower(name)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		cities = append(cities, name)
	}
	if len(cities) == 0 {
		cities = append(cities, DefaultCities...)
	}
	cfg.Weather.Cities = cities

	backend := strings.ToLower(strings.TrimSpace(cfg.State.Backend))
	if backend == "" {
		backend = StateBackendMemory
	}
	switch backend {
	case StateBackendMemory:
	case StateBackendPostgres:
		if strings.TrimSpace(cfg.Database.Host) == "" {
			return fmt.Errorf("database.host is required when state.backend is 'postgres'")
		}
		if strings.TrimSpace(cfg.Database.Name) == "" {
			return fmt.Errorf("database.name is required when state.backend is 'postgres'")
		}
		if cfg.Database.Port == "" {
			cfg.Database.Port = "5432"
		}
		if cfg.Database.SSLMode == "" {
			cfg.Database.SSLMode = "disable"
		}
		if cfg.Database.MaxConnections <= 0 {
			cfg.Database.MaxConnections = 2
		}
	default:
		return fmt.Errorf("invalid state.backend %q; allowed: memory, postgres", cfg.State.Backend)
	}
	cfg.State.Backend = backend
	return nil
}
