package config

import "time"

// Config holds runtime settings for the wallet daemon.
type Config struct {
	// Instance names this wallet's session namespace and relay subjects.
	// Processes with different instances never share session state.
	Instance           string
	DatabaseDSN        string
	HTTPAddr           string
	NATSURL            string
	NATSSubject        string
	RedisAddr          string
	PollInterval       time.Duration
	IdleTimeout        time.Duration
	RateLimitPerMinute int
	LogFormat          string
}

// LoadDefaults populates c with defaults suitable for a local install.
func (c *Config) LoadDefaults() {
	c.Instance = "default"
	c.DatabaseDSN = "gophwallet.db"
	c.HTTPAddr = "127.0.0.1:8645"
	c.NATSURL = ""
	c.NATSSubject = "gophwallet.relay"
	c.RedisAddr = ""
	c.PollInterval = 67 * time.Millisecond
	c.IdleTimeout = 15 * time.Minute
	c.RateLimitPerMinute = 120
	c.LogFormat = "text"
}

// LoadConfig applies defaults, then the config file, then flags.
// Malformed input panics, as configuration errors are fatal at startup.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseFile(cfg)
	parseFlags(cfg)
	return cfg
}
