// Package config loads teer client settings from defaults, an optional YAML
// file and TEER_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	teer "github.com/teerai/teer-go"
)

// DefaultEnvPrefix is the prefix of the environment variables read by Load.
const DefaultEnvPrefix = "TEER_"

// Config holds every setting the client can be built from.
type Config struct {
	API     APIConfig     `koanf:"api"`
	Request RequestConfig `koanf:"request"`
	Log     LogConfig     `koanf:"log"`
	Metrics MetricsConfig `koanf:"metrics"`
}

// APIConfig identifies the service and the caller.
type APIConfig struct {
	Key      string `koanf:"key" validate:"required"`
	BaseURL  string `koanf:"baseurl" validate:"required,http_url"`
	TrackURL string `koanf:"trackurl" validate:"omitempty,http_url"`
}

// RequestConfig is the client-level retry and timeout policy.
type RequestConfig struct {
	Timeout    time.Duration `koanf:"timeout" validate:"gt=0s,lte=10m"`
	MaxRetries int           `koanf:"maxretries" validate:"gte=0,lte=100"`
	RetryDelay time.Duration `koanf:"retrydelay" validate:"gte=0s,lte=10m"`
	MaxBackoff time.Duration `koanf:"maxbackoff" validate:"gte=0s,lte=1h"`
}

type LogConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error disabled"`
	Pretty bool   `koanf:"pretty"`
}

type MetricsConfig struct {
	Enabled bool `koanf:"enabled"`
}

type loadOptions struct {
	file      string
	envPrefix string
	environ   func() []string
	overrides map[string]any
}

// LoadOption customizes Load.
type LoadOption func(*loadOptions)

// WithFile reads path as YAML between the defaults and the environment. The
// file must exist.
func WithFile(path string) LoadOption {
	return func(o *loadOptions) {
		o.file = path
	}
}

// WithEnvPrefix changes the environment variable prefix.
func WithEnvPrefix(prefix string) LoadOption {
	return func(o *loadOptions) {
		o.envPrefix = prefix
	}
}

// WithEnviron replaces os.Environ as the environment source.
func WithEnviron(environ func() []string) LoadOption {
	return func(o *loadOptions) {
		o.environ = environ
	}
}

// WithValues applies dotted key overrides (e.g. "request.timeout") above
// every other source.
func WithValues(values map[string]any) LoadOption {
	return func(o *loadOptions) {
		o.overrides = values
	}
}

// Load loads configuration from multiple sources with priority:
// 1. WithValues overrides (highest priority)
// 2. Environment variables
// 3. The YAML file given by WithFile
// 4. Default values (lowest priority)
func Load(opts ...LoadOption) (*Config, error) {
	o := loadOptions{envPrefix: DefaultEnvPrefix, environ: os.Environ}
	for _, opt := range opts {
		opt(&o)
	}

	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if o.file != "" {
		if err := k.Load(file.Provider(o.file), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", o.file, err)
		}
	}

	prefix := o.envPrefix
	if err := k.Load(env.Provider(".", env.Opt{
		Prefix:      prefix,
		EnvironFunc: o.environ,
		TransformFunc: func(key, value string) (string, any) {
			// TEER_REQUEST_MAXRETRIES -> request.maxretries
			key = strings.TrimPrefix(key, prefix)
			return strings.ReplaceAll(strings.ToLower(key), "_", "."), value
		},
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if len(o.overrides) > 0 {
		if err := k.Load(confmap.Provider(o.overrides, "."), nil); err != nil {
			return nil, fmt.Errorf("failed to load overrides: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func defaults() map[string]any {
	return map[string]any{
		"api.baseurl":        teer.DefaultBaseURL,
		"api.trackurl":       "",
		"request.timeout":    teer.DefaultTimeout.String(),
		"request.maxretries": teer.DefaultMaxRetries,
		"request.retrydelay": teer.DefaultRetryDelay.String(),
		"request.maxbackoff": "0s",
		"log.level":          "info",
		"log.pretty":         false,
		"metrics.enabled":    false,
	}
}

// ClientOptions converts the configuration into client options. The API key
// is passed to teer.New separately; see NewClient.
func (c *Config) ClientOptions() []teer.Option {
	opts := []teer.Option{
		teer.WithBaseURL(c.API.BaseURL),
		teer.WithTimeout(c.Request.Timeout),
		teer.WithMaxRetries(c.Request.MaxRetries),
		teer.WithRetryDelay(c.Request.RetryDelay),
		teer.WithLogger(teer.NewLogger(c.Log.Level, c.Log.Pretty)),
	}
	if c.API.TrackURL != "" {
		opts = append(opts, teer.WithTrackURL(c.API.TrackURL))
	}
	if c.Request.MaxBackoff > 0 {
		opts = append(opts, teer.WithMaxBackoff(c.Request.MaxBackoff))
	}
	if c.Metrics.Enabled {
		opts = append(opts, teer.WithMetrics())
	}
	return opts
}

// NewClient builds a client from the configuration. extra options are
// applied after the configured ones.
func (c *Config) NewClient(extra ...teer.Option) (*teer.Client, error) {
	if c == nil {
		return nil, errors.New("config: nil configuration")
	}
	return teer.New(c.API.Key, append(c.ClientOptions(), extra...)...)
}
