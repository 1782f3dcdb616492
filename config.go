package pgqueue

import (
	"errors"
	"fmt"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// ErrParsingConfig wraps an underlying env.Parse failure with the package's
// own sentinel, so callers can errors.Is against one stable value
// regardless of which struct failed to parse.
var ErrParsingConfig = errors.New("pgqueue: failed to parse configuration")

var loadDotenvOnce sync.Once

// LoadConfig populates v from the process environment, applying any
// envDefault tags, after loading a local .env file once per process if one
// is present. Unlike a library meant to be imported from many call sites
// loading many distinct config types, a pgqueue process has exactly one
// configuration struct, so there is no per-type cache here — just
// env.Parse, called once at startup.
func LoadConfig[T any](v *T) error {
	loadDotenvOnce.Do(func() {
		_ = godotenv.Load()
	})
	if v == nil {
		return fmt.Errorf("%w: nil pointer", ErrParsingConfig)
	}
	if err := env.Parse(v); err != nil {
		return errors.Join(ErrParsingConfig, err)
	}
	return nil
}
