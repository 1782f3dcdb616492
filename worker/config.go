package worker

import "time"

// Config holds the environment-driven defaults a Worker is built with.
// Most callers use Options instead; Config exists for the CLI, which
// loads it from the environment and translates it into Options.
type Config struct {
	Concurrency       int           `env:"PGQUEUE_CONCURRENCY" envDefault:"5"`
	PollingInterval   time.Duration `env:"PGQUEUE_POLLING_INTERVAL" envDefault:"5s"`
	ShutdownTimeout   time.Duration `env:"PGQUEUE_SHUTDOWN_TIMEOUT" envDefault:"30s"`
	HeartbeatInterval time.Duration `env:"PGQUEUE_HEARTBEAT_INTERVAL" envDefault:"1m"`
	JanitorInterval   time.Duration `env:"PGQUEUE_JANITOR_INTERVAL" envDefault:"1m"`
	HeartbeatTimeout  time.Duration `env:"PGQUEUE_HEARTBEAT_TIMEOUT" envDefault:"5m"`
}
