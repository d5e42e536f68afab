// Package config loads opsboard settings from a YAML file and the
// environment. Environment variables win over the file, and the file wins
// over the defaults.
package config

import (
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-opsboard/cache"
	"github.com/goliatone/go-opsboard/gateway"
	"github.com/goliatone/go-opsboard/internal/logging"
)

// Environment variables read by ApplyEnv.
const (
	EnvWorkersURL       = "OPSBOARD_WORKERS_URL"
	EnvPublicWorkersURL = "NEXT_PUBLIC_WORKERS_URL"
	EnvAPIKey           = "API_KEY"
	EnvHospitableAPIKey = "HOSPITABLE_API_KEY"
	EnvTurnoAPIToken    = "TURNO_API_TOKEN"
	EnvMode             = "OPSBOARD_MODE"
	EnvLogLevel         = "OPSBOARD_LOG_LEVEL"
	EnvKeyFile          = "OPSBOARD_KEY_FILE"
)

const DefaultWorkersURL = "http://localhost:8787"

// Config is the full opsboard configuration.
type Config struct {
	WorkersURL string        `yaml:"workers_url"`
	Mode       string        `yaml:"mode"`
	APIKey     string        `yaml:"api_key"`
	KeyFile    string        `yaml:"key_file"`
	Timeout    time.Duration `yaml:"timeout"`

	Sources SourcesConfig `yaml:"sources"`
	Cache   CacheConfig   `yaml:"cache"`
	Log     LogConfig     `yaml:"log"`
	Server  ServerConfig  `yaml:"server"`
}

// SourcesConfig holds the upstream platform credentials used by sync.
type SourcesConfig struct {
	HospitableAPIKey string `yaml:"hospitable_api_key"`
	TurnoAPIToken    string `yaml:"turno_api_token"`
}

// CacheConfig mirrors cache.Config in YAML form.
type CacheConfig struct {
	StaleTime            time.Duration `yaml:"stale_time"`
	GCTime               time.Duration `yaml:"gc_time"`
	Retry                int           `yaml:"retry"`
	MutationRetry        int           `yaml:"mutation_retry"`
	RefetchOnWindowFocus bool          `yaml:"refetch_on_window_focus"`
	RefetchOnReconnect   bool          `yaml:"refetch_on_reconnect"`
	Capacity             int           `yaml:"capacity"`
	NumShards            int           `yaml:"num_shards"`
	EvictionPercentage   int           `yaml:"eviction_percentage"`
	EvictionInterval     time.Duration `yaml:"eviction_interval"`
}

// LogConfig selects the log handler.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// ServerConfig configures the HTTP surface started by "opsboard serve".
type ServerConfig struct {
	Addr        string `yaml:"addr"`
	MetricsPath string `yaml:"metrics_path"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	cc := cache.DefaultConfig()
	return Config{
		WorkersURL: DefaultWorkersURL,
		Mode:       gateway.ModeServer.String(),
		KeyFile:    defaultKeyFile(),
		Cache: CacheConfig{
			StaleTime:            cc.StaleTime,
			GCTime:               cc.GCTime,
			Retry:                cc.Retry,
			MutationRetry:        cc.MutationRetry,
			RefetchOnWindowFocus: cc.RefetchOnWindowFocus,
			RefetchOnReconnect:   cc.RefetchOnReconnect,
			Capacity:             cc.Capacity,
			NumShards:            cc.NumShards,
			EvictionPercentage:   cc.EvictionPercentage,
			EvictionInterval:     cc.EvictionInterval,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Server: ServerConfig{
			Addr:        ":8080",
			MetricsPath: "/metrics",
		},
	}
}

func defaultKeyFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".opsboard", "credentials.json")
	}
	return filepath.Join(dir, "opsboard", "credentials.json")
}

// Load reads path over the defaults, applies the environment and validates
// the result. An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to read config file").
				WithMetadata(map[string]any{"path": path})
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse config file").
				WithMetadata(map[string]any{"path": path})
		}
	}

	cfg.ApplyEnv(os.LookupEnv)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from the environment. lookup is usually
// os.LookupEnv.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	set := func(dst *string, names ...string) {
		for _, name := range names {
			if v, ok := lookup(name); ok && v != "" {
				*dst = v
				return
			}
		}
	}

	set(&c.WorkersURL, EnvWorkersURL, EnvPublicWorkersURL)
	set(&c.APIKey, EnvAPIKey)
	set(&c.Sources.HospitableAPIKey, EnvHospitableAPIKey)
	set(&c.Sources.TurnoAPIToken, EnvTurnoAPIToken)
	set(&c.Mode, EnvMode)
	set(&c.Log.Level, EnvLogLevel)
	set(&c.KeyFile, EnvKeyFile)
}

// Validate reports every invalid field at once.
func (c Config) Validate() error {
	var fields []goerrors.FieldError

	if u, err := url.Parse(c.WorkersURL); err != nil || u.Scheme == "" || u.Host == "" {
		fields = append(fields, goerrors.FieldError{Field: "workers_url", Message: "must be an absolute URL", Value: c.WorkersURL})
	}
	if m := strings.ToLower(c.Mode); m != "server" && m != "client" {
		fields = append(fields, goerrors.FieldError{Field: "mode", Message: "must be server or client", Value: c.Mode})
	}
	if c.Timeout < 0 {
		fields = append(fields, goerrors.FieldError{Field: "timeout", Message: "must be >= 0", Value: c.Timeout.String()})
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		fields = append(fields, goerrors.FieldError{Field: "log.format", Message: "must be text or json", Value: c.Log.Format})
	}
	if _, ok := logging.ParseLevel(c.Log.Level); !ok {
		fields = append(fields, goerrors.FieldError{Field: "log.level", Message: "must be debug, info, warn or error", Value: c.Log.Level})
	}

	if err := c.CacheConfig().Validate(); err != nil {
		var cfgErr *cache.ConfigError
		if goerrors.As(err, &cfgErr) {
			fields = append(fields, goerrors.FieldError{Field: "cache." + toSnake(cfgErr.Field), Message: cfgErr.Message})
		} else {
			fields = append(fields, goerrors.FieldError{Field: "cache", Message: err.Error()})
		}
	}

	if len(fields) > 0 {
		return goerrors.NewValidation("invalid configuration", fields...)
	}
	return nil
}

// CacheConfig converts the YAML cache settings into a cache.Config.
func (c Config) CacheConfig() cache.Config {
	cc := cache.DefaultConfig()
	cc.StaleTime = c.Cache.StaleTime
	cc.GCTime = c.Cache.GCTime
	cc.Retry = c.Cache.Retry
	cc.MutationRetry = c.Cache.MutationRetry
	cc.RefetchOnWindowFocus = c.Cache.RefetchOnWindowFocus
	cc.RefetchOnReconnect = c.Cache.RefetchOnReconnect
	cc.Capacity = c.Cache.Capacity
	cc.NumShards = c.Cache.NumShards
	cc.EvictionPercentage = c.Cache.EvictionPercentage
	cc.EvictionInterval = c.Cache.EvictionInterval
	return cc
}

// GatewayMode returns the parsed Mode.
func (c Config) GatewayMode() gateway.Mode {
	return gateway.ParseMode(strings.ToLower(c.Mode))
}

// toSnake maps a Go field name such as GCTime to gc_time.
func toSnake(s string) string {
	var b strings.Builder
	runes := []rune(s)
	for i, r := range runes {
		upper := r >= 'A' && r <= 'Z'
		if upper && i > 0 {
			prevLower := runes[i-1] >= 'a' && runes[i-1] <= 'z'
			nextLower := i+1 < len(runes) && runes[i+1] >= 'a' && runes[i+1] <= 'z'
			if prevLower || nextLower {
				b.WriteByte('_')
			}
		}
		if upper {
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}
