package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	toml "github.com/pelletier/go-toml/v2"
)

// Config is the client configuration read from config.toml.
type Config struct {
	APIBind     string      `toml:"api_bind" default:"127.0.0.1:5000" validate:"required"`
	Push        Push        `toml:"push"`
	Poll        Poll        `toml:"poll"`
	Instruments Instruments `toml:"instruments"`
	Log         Log         `toml:"log"`
	Metrics     Metrics     `toml:"metrics"`
}

// Push configures the push channel.
type Push struct {
	Enabled        *bool    `toml:"enabled" default:"true"`
	Path           string   `toml:"path" default:"/ws" validate:"required,startswith=/"`
	ReconnectDelay Duration `toml:"reconnect_delay" validate:"gt=0"`
}

// Poll configures the polling fallback.
type Poll struct {
	Interval Duration `toml:"interval" validate:"gt=0"`
}

// Instruments maps the two tracked instruments to server slugs.
type Instruments struct {
	Primary   string `toml:"primary" default:"btc" validate:"required,alphanum,lowercase"`
	Secondary string `toml:"secondary" default:"doge" validate:"required,alphanum,lowercase"`
}

// Log configures diagnostics logging.
type Log struct {
	Level string `toml:"level" default:"info" validate:"oneof=debug info warn error"`
	File  string `toml:"file"`
}

// Metrics configures the Prometheus endpoint. An empty address disables it.
type Metrics struct {
	Addr string `toml:"addr" validate:"omitempty,hostname_port"`
}

const (
	defaultConfigPath     = "~/.config/tickerboard/config.toml"
	defaultPollInterval   = 3 * time.Second
	defaultReconnectDelay = 2 * time.Second
)

var validate = validator.New()

// Duration is a time.Duration written as a string such as "3s" in TOML.
type Duration time.Duration

// UnmarshalText parses a Go duration string.
func (d *Duration) UnmarshalText(text []byte) error {
	raw := strings.TrimSpace(string(text))
	if raw == "" {
		*d = 0
		return nil
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalText renders the duration in Go syntax.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// SetDefaults fills the duration fields, which struct tags cannot express.
func (c *Config) SetDefaults() {
	if c.Poll.Interval == 0 {
		c.Poll.Interval = Duration(defaultPollInterval)
	}
	if c.Push.ReconnectDelay == 0 {
		c.Push.ReconnectDelay = Duration(defaultReconnectDelay)
	}
}

// Default returns the configuration used when no file exists.
func Default() Config {
	var cfg Config
	if err := defaults.Set(&cfg); err != nil {
		panic(fmt.Sprintf("config defaults: %v", err))
	}
	return cfg
}

// Load locates and parses the config, falling back to defaults when the file
// is missing. Blank values are treated as unset.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer func() { _ = file.Close() }()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(bytes, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	cfg.trim()
	if err := defaults.Set(&cfg); err != nil {
		return Config{}, fmt.Errorf("apply defaults: %w", err)
	}
	if cfg.Log.File != "" {
		if cfg.Log.File, err = expandPath(cfg.Log.File); err != nil {
			return Config{}, fmt.Errorf("log.file: %w", err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks field constraints.
func (c Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return fmt.Errorf("invalid config: %s failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value())
	}
	return fmt.Errorf("invalid config: %w", err)
}

// PushEnabled reports whether the push channel should be dialed.
func (c Config) PushEnabled() bool {
	return c.Push.Enabled == nil || *c.Push.Enabled
}

// PushURL is the websocket endpoint derived from the API address.
func (c Config) PushURL() string {
	bind := strings.TrimSpace(c.APIBind)
	switch {
	case strings.HasPrefix(bind, "https://"):
		bind = "wss://" + strings.TrimPrefix(bind, "https://")
	case strings.HasPrefix(bind, "http://"):
		bind = "ws://" + strings.TrimPrefix(bind, "http://")
	default:
		bind = "ws://" + bind
	}
	return strings.TrimRight(bind, "/") + c.Push.Path
}

func (c *Config) trim() {
	c.APIBind = strings.TrimSpace(c.APIBind)
	c.Push.Path = strings.TrimSpace(c.Push.Path)
	c.Instruments.Primary = strings.ToLower(strings.TrimSpace(c.Instruments.Primary))
	c.Instruments.Secondary = strings.ToLower(strings.TrimSpace(c.Instruments.Secondary))
	c.Log.Level = strings.ToLower(strings.TrimSpace(c.Log.Level))
	c.Log.File = strings.TrimSpace(c.Log.File)
	c.Metrics.Addr = strings.TrimSpace(c.Metrics.Addr)
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
