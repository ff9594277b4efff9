// Package config loads runtime configuration for the wallet daemon.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional config file selected via -c or -config. Files ending in
//     .yaml or .yml are read as YAML, anything else as JSON.
//  3. Command-line flags, which override earlier values.
//
// Supported flags
//
//	-w string   wallet instance name, scoping the Redis namespace and NATS subjects
//	-d string   SQLite DSN of the wallet database
//	-a string   HTTP relay listen address ("" disables it)
//	-n string   NATS server URL ("" disables the NATS relay)
//	-s string   NATS subject prefix
//	-r string   Redis address for the session namespace ("" keeps it in memory)
//	-p int      approval poll interval (milliseconds)
//	-i int      idle auto-lock timeout (seconds, 0 disables)
//	-l int      relay requests per minute per origin (0 disables)
//	-f string   log format: text, json or zerolog
//
// # File schema
//
// Durations use timex.Duration, so they may be strings like "67ms" or
// integer nanoseconds:
//
//	{
//	  "instance": "default",
//	  "database_dsn": "wallet.db",
//	  "http_addr": "127.0.0.1:8645",
//	  "poll_interval": "67ms",
//	  "idle_timeout": "15m"
//	}
package config
