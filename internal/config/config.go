package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kozaktomas/faceswap/internal/constants"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	Backend BackendConfig `mapstructure:"backend"`
	Poll    PollConfig    `mapstructure:"poll"`
	Push    PushConfig    `mapstructure:"push"`
	Log     LogConfig     `mapstructure:"log"`
	Web     WebConfig     `mapstructure:"web"`
}

type BackendConfig struct {
	URL     string        `mapstructure:"url"`
	WSURL   string        `mapstructure:"ws_url"` // derived from URL when empty
	Timeout time.Duration `mapstructure:"timeout"`
}

// PushURL returns the websocket address of the status channel. An explicit
// WSURL wins; otherwise the backend URL is switched to ws/wss and /ws is appended.
func (c *BackendConfig) PushURL() (string, error) {
	if c.WSURL != "" {
		return strings.TrimRight(c.WSURL, "/") + constants.PushPath, nil
	}

	u, err := url.Parse(c.URL)
	if err != nil {
		return "", fmt.Errorf("parsing backend url: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + constants.PushPath
	u.RawQuery = ""
	u.Fragment = ""
	return u.String(), nil
}

type PollConfig struct {
	Interval time.Duration `mapstructure:"interval"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

type PushConfig struct {
	Enabled              bool          `mapstructure:"enabled"`
	ReconnectAttempts    int           `mapstructure:"reconnect_attempts"` // 0 disables reconnecting
	ReconnectMaxInterval time.Duration `mapstructure:"reconnect_max_interval"`
}

type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	File       string `mapstructure:"file"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
}

type WebConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// Addr returns host:port of the status relay.
func (c *WebConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// envBindings maps config keys to the environment variables that override them.
var envBindings = map[string]string{
	"backend.url":                 "API_URL",
	"backend.ws_url":              "WS_URL",
	"backend.timeout":             "API_TIMEOUT",
	"poll.interval":               "POLL_INTERVAL",
	"poll.timeout":                "POLL_TIMEOUT",
	"push.enabled":                "PUSH_ENABLED",
	"push.reconnect_attempts":     "PUSH_RECONNECT_ATTEMPTS",
	"push.reconnect_max_interval": "PUSH_RECONNECT_MAX_INTERVAL",
	"log.level":                   "LOG_LEVEL",
	"log.format":                  "LOG_FORMAT",
	"log.file":                    "LOG_FILE",
	"log.max_size":                "LOG_MAX_SIZE",
	"log.max_backups":             "LOG_MAX_BACKUPS",
	"log.max_age":                 "LOG_MAX_AGE",
	"log.compress":                "LOG_COMPRESS",
	"web.host":                    "WEB_HOST",
	"web.port":                    "WEB_PORT",
}

// flagBindings maps config keys to persistent CLI flags.
var flagBindings = map[string]string{
	"backend.url":    "api-url",
	"backend.ws_url": "ws-url",
	"log.level":      "log-level",
	"log.format":     "log-format",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("backend.url", constants.DefaultBackendURL)
	v.SetDefault("backend.ws_url", "")
	v.SetDefault("backend.timeout", constants.BackendTimeout)
	v.SetDefault("poll.interval", constants.PollInterval)
	v.SetDefault("poll.timeout", constants.PollTimeout)
	v.SetDefault("push.enabled", true)
	v.SetDefault("push.reconnect_attempts", 0)
	v.SetDefault("push.reconnect_max_interval", constants.PushReconnectMaxInterval)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size", 100)
	v.SetDefault("log.max_backups", 7)
	v.SetDefault("log.max_age", 30)
	v.SetDefault("log.compress", true)
	v.SetDefault("web.host", "127.0.0.1")
	v.SetDefault("web.port", 8090)
}

// Load reads configuration from defaults, an optional YAML file, the
// environment (including a .env file) and the given flags, in increasing
// priority. An empty configPath searches faceswap.yaml in the usual places.
func Load(configPath string, flags *pflag.FlagSet) (*Config, error) {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()

	v := viper.New()
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("faceswap")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("$HOME/.config/faceswap")
	}

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("binding env %s: %w", env, err)
		}
	}

	if flags != nil {
		for key, name := range flagBindings {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("binding flag --%s: %w", name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	u, err := url.Parse(c.Backend.URL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("invalid backend url %q: expected http(s)://host[:port]", c.Backend.URL)
	}
	if c.Backend.WSURL != "" {
		ws, err := url.Parse(c.Backend.WSURL)
		if err != nil || ws.Host == "" || (ws.Scheme != "ws" && ws.Scheme != "wss") {
			return fmt.Errorf("invalid websocket url %q: expected ws(s)://host[:port]", c.Backend.WSURL)
		}
	}
	if c.Backend.Timeout <= 0 {
		return errors.New("backend timeout must be positive")
	}
	if c.Poll.Interval <= 0 {
		return errors.New("poll interval must be positive")
	}
	if c.Poll.Timeout <= 0 {
		return errors.New("poll timeout must be positive")
	}
	if c.Push.ReconnectAttempts < 0 {
		return errors.New("push reconnect attempts must not be negative")
	}
	return nil
}
