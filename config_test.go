package pgqueue_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pgqueue/pgqueue"
)

type testConfig struct {
	Queue string `env:"PGQUEUE_TEST_QUEUE" envDefault:"default"`
}

func TestLoadConfig_AppliesDefault(t *testing.T) {
	var cfg testConfig
	require.NoError(t, pgqueue.LoadConfig(&cfg))
	assert.Equal(t, "default", cfg.Queue)
}

func TestLoadConfig_FromEnv(t *testing.T) {
	t.Setenv("PGQUEUE_TEST_QUEUE", "emails")

	var cfg testConfig
	require.NoError(t, pgqueue.LoadConfig(&cfg))
	assert.Equal(t, "emails", cfg.Queue)
}
