package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dmitrijs2005/gophwallet/internal/flagx"
	"github.com/dmitrijs2005/gophwallet/internal/timex"
)

// FileConfig is the on-disk form of Config. Absent fields keep their
// previous values.
type FileConfig struct {
	Instance           *string         `json:"instance" yaml:"instance"`
	DatabaseDSN        *string         `json:"database_dsn" yaml:"database_dsn"`
	HTTPAddr           *string         `json:"http_addr" yaml:"http_addr"`
	NATSURL            *string         `json:"nats_url" yaml:"nats_url"`
	NATSSubject        *string         `json:"nats_subject" yaml:"nats_subject"`
	RedisAddr          *string         `json:"redis_addr" yaml:"redis_addr"`
	PollInterval       *timex.Duration `json:"poll_interval" yaml:"poll_interval"`
	IdleTimeout        *timex.Duration `json:"idle_timeout" yaml:"idle_timeout"`
	RateLimitPerMinute *int            `json:"rate_limit_per_minute" yaml:"rate_limit_per_minute"`
	LogFormat          *string         `json:"log_format" yaml:"log_format"`
}

func set[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

func (fc *FileConfig) apply(cfg *Config) {
	set(&cfg.Instance, fc.Instance)
	set(&cfg.DatabaseDSN, fc.DatabaseDSN)
	set(&cfg.HTTPAddr, fc.HTTPAddr)
	set(&cfg.NATSURL, fc.NATSURL)
	set(&cfg.NATSSubject, fc.NATSSubject)
	set(&cfg.RedisAddr, fc.RedisAddr)
	set(&cfg.RateLimitPerMinute, fc.RateLimitPerMinute)
	set(&cfg.LogFormat, fc.LogFormat)
	if fc.PollInterval != nil {
		cfg.PollInterval = fc.PollInterval.Duration
	}
	if fc.IdleTimeout != nil {
		cfg.IdleTimeout = fc.IdleTimeout.Duration
	}
}

func decodeFile(path string, data []byte) (*FileConfig, error) {
	fc := &FileConfig{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, fc); err != nil {
			return nil, err
		}
	default:
		if err := json.Unmarshal(data, fc); err != nil {
			return nil, err
		}
	}
	return fc, nil
}

// parseFile overlays cfg with the file named by -c/-config, if any.
// Read or decode errors panic.
func parseFile(cfg *Config) {
	path := flagx.ConfigPath(os.Args[1:])
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}
	fc, err := decodeFile(path, data)
	if err != nil {
		panic(err)
	}
	fc.apply(cfg)
}
