package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config is the wrapper around viper with extra helpers.
type Config struct {
	*viper.Viper

	sensitiveKeys map[string]struct{}
	searchByName  bool
}

// Option is a functional option for New.
type Option func(*Config) error

// New creates a Config instance. Use options to customize behavior.
// Example:
//
//	cfg, err := config.New(
//	  config.WithDefaults(map[string]any{"apostle.default_response_type": "json"}),
//	  config.WithFile("apostle.yaml"),
//	  config.WithEnv("APOSTLE"),
//	  config.WithPFlags(flags),
//	)
//
// A missing config file is not an error; env, flags and defaults still apply.
func New(opts ...Option) (*Config, error) {
	cfg := &Config{
		Viper:         viper.New(),
		sensitiveKeys: map[string]struct{}{},
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, fmt.Errorf("config: applying option failed: %w", err)
		}
	}

	if err := cfg.readConfigIfPossible(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

func (c *Config) readConfigIfPossible() error {
	if !c.searchByName && c.ConfigFileUsed() == "" {
		return nil
	}
	err := c.ReadInConfig()
	var notFound viper.ConfigFileNotFoundError
	if errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// WithDefaults registers values used when no other source sets a key.
func WithDefaults(defaults map[string]any) Option {
	return func(c *Config) error {
		for key, value := range defaults {
			c.SetDefault(key, value)
		}
		return nil
	}
}

// WithFile reads exactly path; its extension picks the format. An empty
// path is ignored.
func WithFile(path string) Option {
	return func(c *Config) error {
		if path == "" {
			return nil
		}
		c.SetConfigFile(path)
		return WithFormat(strings.TrimPrefix(filepath.Ext(path), "."))(c)
	}
}

// WithConfigNamePaths sets config name (without ext) and search paths.
func WithConfigNamePaths(name string, paths ...string) Option {
	return func(c *Config) error {
		if name != "" {
			c.SetConfigName(name)
			c.searchByName = true
		}
		if len(paths) == 0 {
			paths = []string{".", "./config", "/etc/apostle"}
		}
		for _, p := range paths {
			c.AddConfigPath(p)
		}
		return nil
	}
}

// WithFormat sets the format for files without a usable extension.
func WithFormat(format string) Option {
	return func(c *Config) error {
		if format == "" {
			return nil
		}
		c.SetConfigType(format)
		return nil
	}
}

// WithEnv enables environment variable overrides.
// prefix = "APOSTLE" means APOSTLE_BASE_URL overrides base_url and
// APOSTLE_APOSTLE_BASE_URL overrides apostle.base_url.
func WithEnv(prefix string) Option {
	return func(c *Config) error {
		if prefix != "" {
			c.SetEnvPrefix(prefix)
		}
		c.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
		c.AutomaticEnv()
		return nil
	}
}

// WithPFlags binds a pflag.FlagSet to viper. Flags must be defined by the
// caller; nil binds pflag.CommandLine.
func WithPFlags(flags *pflag.FlagSet) Option {
	return func(c *Config) error {
		if flags == nil {
			flags = pflag.CommandLine
		}
		return c.BindPFlags(flags)
	}
}

// WithDotEnv merges KEY=value lines from path (".env" when empty). A
// missing file is skipped.
func WithDotEnv(path string) Option {
	return func(c *Config) error {
		if path == "" {
			path = ".env"
		}
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			return nil
		}
		dotenv := viper.New()
		dotenv.SetConfigFile(path)
		dotenv.SetConfigType("env")
		if err := dotenv.ReadInConfig(); err != nil {
			return fmt.Errorf("dotenv %s: %w", path, err)
		}
		for _, key := range dotenv.AllKeys() {
			c.Set(key, dotenv.Get(key))
		}
		return nil
	}
}

// WithWatch enables hot-reload of the config file. onChange runs after
// viper has re-read the file.
func WithWatch(onChange func(e fsnotify.Event)) Option {
	return func(c *Config) error {
		c.OnConfigChange(func(e fsnotify.Event) {
			if onChange != nil {
				onChange(e)
			}
		})
		c.WatchConfig()
		return nil
	}
}

// WithSensitiveKeys registers keys which should be redacted when logging.
func WithSensitiveKeys(keys ...string) Option {
	return func(c *Config) error {
		for _, k := range keys {
			c.sensitiveKeys[strings.ToLower(k)] = struct{}{}
		}
		return nil
	}
}

func lookup[T any](c *Config, key string, def T, get func(string) T) T {
	if !c.IsSet(key) {
		return def
	}
	return get(key)
}

// GetStringD returns the string at key, or def when it is unset or empty.
func (c *Config) GetStringD(key, def string) string {
	if v := lookup(c, key, "", c.GetString); v != "" {
		return v
	}
	return def
}

// GetIntD returns the int at key, or def when unset. An explicit zero is kept.
func (c *Config) GetIntD(key string, def int) int { return lookup(c, key, def, c.GetInt) }

func (c *Config) GetBoolD(key string, def bool) bool { return lookup(c, key, def, c.GetBool) }

func (c *Config) GetDurationD(key string, def time.Duration) time.Duration {
	return lookup(c, key, def, c.GetDuration)
}

// ValidateRequired reports every key that is unset or blank.
func (c *Config) ValidateRequired(keys ...string) error {
	missing := make([]string, 0, len(keys))
	for _, k := range keys {
		if strings.TrimSpace(c.GetString(k)) == "" {
			missing = append(missing, k)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return fmt.Errorf("config: missing required keys: %s", strings.Join(missing, ", "))
}

// MaskedSettings flattens every key to its dotted form and redacts the
// sensitive ones.
func (c *Config) MaskedSettings() map[string]any {
	keys := c.AllKeys()
	out := make(map[string]any, len(keys))
	for _, k := range keys {
		if _, secret := c.sensitiveKeys[k]; secret {
			out[k] = redacted
		} else {
			out[k] = c.Get(k)
		}
	}
	return out
}

const redacted = "***REDACTED***"
