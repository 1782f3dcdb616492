package connector_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pgqueue/pgqueue/connector"
)

func TestConnect_EmptyConnectionString(t *testing.T) {
	t.Parallel()

	_, err := connector.Connect(t.Context(), connector.Config{}, nil)
	assert.ErrorIs(t, err, connector.ErrEmptyConnectionString)
}

func TestConnect_InvalidConnectionString(t *testing.T) {
	t.Parallel()

	_, err := connector.Connect(t.Context(), connector.Config{
		ConnectionString: "not a valid dsn ::: %%%",
		RetryAttempts:    1,
	}, nil)
	assert.Error(t, err)
}

func TestIsDuplicateKey_NilError(t *testing.T) {
	t.Parallel()

	assert.False(t, connector.IsDuplicateKey(nil))
	assert.False(t, connector.IsForeignKeyViolation(nil))
	assert.False(t, connector.IsNotFound(nil))
}
