package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds every externally configurable value. The API base URL is the
// one setting that must come from the environment in any real deployment;
// everything else has working defaults.
type Config struct {
	BaseURL      string        `mapstructure:"base_url"`
	WebSocketURL string        `mapstructure:"websocket_url"`
	HTTPTimeout  time.Duration `mapstructure:"http_timeout"`

	// Connection manager.
	Transport         string        `mapstructure:"transport"` // "polling" or "websocket"
	HealthInterval    time.Duration `mapstructure:"health_interval"`
	ReconnectAttempts int           `mapstructure:"reconnect_attempts"`
	ReconnectDelay    time.Duration `mapstructure:"reconnect_delay"`

	// Poller cadence.
	AgentsInterval    time.Duration `mapstructure:"agents_interval"`
	DecisionsInterval time.Duration `mapstructure:"decisions_interval"`
	PricesInterval    time.Duration `mapstructure:"prices_interval"`
	CycleInterval     time.Duration `mapstructure:"cycle_interval"`

	// Stub server.
	StubAddr string `mapstructure:"stub_addr"`
	DBPath   string `mapstructure:"db_path"`

	// Logging.
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
	LogOutput string `mapstructure:"log_output"`

	Debug bool `mapstructure:"debug"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("base_url", "http://localhost:8000")
	v.SetDefault("websocket_url", "ws://localhost:8000/ws/trading-floor")
	v.SetDefault("http_timeout", 30*time.Second)

	v.SetDefault("transport", "polling")
	v.SetDefault("health_interval", 10*time.Second)
	v.SetDefault("reconnect_attempts", 5)
	v.SetDefault("reconnect_delay", 3*time.Second)

	v.SetDefault("agents_interval", 5*time.Second)
	v.SetDefault("decisions_interval", 10*time.Second)
	v.SetDefault("prices_interval", 30*time.Second)
	v.SetDefault("cycle_interval", 45*time.Second)

	v.SetDefault("stub_addr", ":8000")
	v.SetDefault("db_path", "floor.db")

	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("log_output", "stderr")

	v.SetDefault("debug", false)
}

// Load reads configuration from an optional file plus ATF_-prefixed
// environment variables. A .env file in the working directory is honored
// when present. Passing an empty path skips the file entirely.
func Load(path string) (*Config, error) {
	// Missing .env is the common case, not an error.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("ATF")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the built-in configuration without touching the
// environment. Used by tests and as a base for the stub server.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	_ = v.Unmarshal(&cfg)
	return &cfg
}

func (c *Config) validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base_url must not be empty")
	}
	switch c.Transport {
	case "polling", "websocket":
	default:
		return fmt.Errorf("transport must be polling or websocket, got %q", c.Transport)
	}
	if c.ReconnectAttempts < 0 {
		return fmt.Errorf("reconnect_attempts must be >= 0")
	}
	for name, d := range map[string]time.Duration{
		"health_interval":    c.HealthInterval,
		"agents_interval":    c.AgentsInterval,
		"decisions_interval": c.DecisionsInterval,
		"prices_interval":    c.PricesInterval,
		"cycle_interval":     c.CycleInterval,
	} {
		if d <= 0 {
			return fmt.Errorf("%s must be positive", name)
		}
	}
	return nil
}
