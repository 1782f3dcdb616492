package connector

import "time"

// Config is populated from the environment via github.com/caarlos0/env.
type Config struct {
	ConnectionString string `env:"PGQUEUE_CONN_URL,required"`

	PoolSize          int32         `env:"PGQUEUE_POOL_SIZE" envDefault:"10"`
	MinConns          int32         `env:"PGQUEUE_MIN_CONNS" envDefault:"2"`
	HealthCheckPeriod time.Duration `env:"PGQUEUE_HEALTHCHECK_PERIOD" envDefault:"1m"`
	MaxConnIdleTime   time.Duration `env:"PGQUEUE_MAX_CONN_IDLE_TIME" envDefault:"10m"`
	MaxConnLifetime   time.Duration `env:"PGQUEUE_MAX_CONN_LIFETIME" envDefault:"30m"`

	// RetryAttempts bounds how many times Connect retries opening the
	// pool at startup. RetryInterval is the base of its linear backoff.
	RetryAttempts int           `env:"PGQUEUE_RETRY_ATTEMPTS" envDefault:"3"`
	RetryInterval time.Duration `env:"PGQUEUE_RETRY_INTERVAL" envDefault:"5s"`

	// ListenRetryInterval and ListenRetryMax bound the dedicated
	// listener connection's reconnect backoff after it drops.
	ListenRetryInterval time.Duration `env:"PGQUEUE_LISTEN_RETRY_INTERVAL" envDefault:"1s"`
	ListenRetryMax      time.Duration `env:"PGQUEUE_LISTEN_RETRY_MAX" envDefault:"30s"`
}
