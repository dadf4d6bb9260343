// Package config loads the scroblog configuration file.
//
// The file is config.toml inside an explicitly supplied directory:
//
//	[core]
//	user = "lastfm-username"
//	tz_offset = "0s"
//
//	[api]
//	key = "..."
//	secret = "..."
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration. Loaded once at startup and
// treated as immutable afterwards.
type Config struct {
	Core CoreConfig
	API  APIConfig
}

// CoreConfig is the [core] section.
type CoreConfig struct {
	User string
	// TZOffset is subtracted from log timestamps before submission.
	// Logs written with #TZ/UNKNOWN carry device-local times; this
	// turns them back into UTC.
	TZOffset time.Duration
}

// APIConfig is the [api] section.
type APIConfig struct {
	Key    string
	Secret string
}

// ErrNotFound is returned when no config file exists in the directory.
var ErrNotFound = errors.New("config file not found")

// Load reads config.toml from dir. Environment variables with the
// SCROBLOG prefix override file values (e.g. SCROBLOG_API_SECRET).
//
// A missing file or a missing required key (core.user, api.key,
// api.secret) is an error; submissions cannot proceed without them.
func Load(dir string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(dir)

	v.SetDefault("core.tz_offset", "0s")

	v.SetEnvPrefix("SCROBLOG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil, fmt.Errorf("%w in %s (expected config.toml)", ErrNotFound, dir)
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	offset, err := time.ParseDuration(v.GetString("core.tz_offset"))
	if err != nil {
		return nil, fmt.Errorf("invalid core.tz_offset: %w", err)
	}

	cfg := &Config{
		Core: CoreConfig{
			User:     v.GetString("core.user"),
			TZOffset: offset,
		},
		API: APIConfig{
			Key:    v.GetString("api.key"),
			Secret: v.GetString("api.secret"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Core.User == "" {
		return errors.New("config: core.user is required")
	}
	if c.API.Key == "" {
		return errors.New("config: api.key is required")
	}
	if c.API.Secret == "" {
		return errors.New("config: api.secret is required")
	}
	return nil
}
