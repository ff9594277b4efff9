package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/gophwallet/internal/flagx"
)

var knownFlags = []string{"-w", "-d", "-a", "-n", "-s", "-r", "-p", "-i", "-l", "-f"}

// parseFlags overlays cfg with command-line flags. Only the flags listed in
// the package doc are considered, so other components may define their own.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], knownFlags)

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.Instance, "w", cfg.Instance, "wallet instance name")
	fs.StringVar(&cfg.DatabaseDSN, "d", cfg.DatabaseDSN, "SQLite DSN of the wallet database")
	fs.StringVar(&cfg.HTTPAddr, "a", cfg.HTTPAddr, "HTTP relay listen address")
	fs.StringVar(&cfg.NATSURL, "n", cfg.NATSURL, "NATS server URL")
	fs.StringVar(&cfg.NATSSubject, "s", cfg.NATSSubject, "NATS subject prefix")
	fs.StringVar(&cfg.RedisAddr, "r", cfg.RedisAddr, "Redis address for the session namespace")
	poll := fs.Int("p", int(cfg.PollInterval.Milliseconds()), "approval poll interval (in milliseconds)")
	idle := fs.Int("i", int(cfg.IdleTimeout.Seconds()), "idle auto-lock timeout (in seconds)")
	fs.IntVar(&cfg.RateLimitPerMinute, "l", cfg.RateLimitPerMinute, "relay requests per minute per origin")
	fs.StringVar(&cfg.LogFormat, "f", cfg.LogFormat, "log format: text, json or zerolog")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.PollInterval = time.Duration(*poll) * time.Millisecond
	cfg.IdleTimeout = time.Duration(*idle) * time.Second
}
