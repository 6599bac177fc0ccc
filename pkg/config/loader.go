package config

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Option tunes a single Load call.
type Option func(*env.Options)

// WithPrefix reads every variable of the struct under the given prefix,
// e.g. WithPrefix("GOOGLE_WEB_") reads GOOGLE_WEB_CLIENT_ID for `env:"CLIENT_ID"`.
func WithPrefix(prefix string) Option {
	return func(o *env.Options) { o.Prefix = prefix }
}

// WithEnvironment parses from the given map instead of the process environment.
// Results loaded this way are never cached.
func WithEnvironment(vars map[string]string) Option {
	return func(o *env.Options) { o.Environment = vars }
}

type configCache struct {
	mu     sync.Mutex
	values map[string]any
}

var (
	cache = &configCache{values: make(map[string]any)}

	dotenvOnce sync.Once
)

// Load parses environment variables into v.
// The first call loads a .env file from the working directory when present.
// Successful results are cached per type and prefix: later calls return the
// cached copy without touching the environment again.
func Load[T any](v *T, opts ...Option) error {
	if v == nil {
		return ErrNilPointer
	}

	dotenvOnce.Do(func() {
		// A missing .env file is fine.
		_ = godotenv.Load()
	})

	var o env.Options
	for _, opt := range opts {
		opt(&o)
	}

	if o.Environment != nil {
		if err := env.ParseWithOptions(v, o); err != nil {
			return errors.Join(ErrParsingConfig, err)
		}
		return nil
	}

	key := o.Prefix + typeName[T]()

	cache.mu.Lock()
	defer cache.mu.Unlock()

	if cached, ok := cache.values[key]; ok {
		*v = cached.(T)
		return nil
	}

	if err := env.ParseWithOptions(v, o); err != nil {
		return errors.Join(ErrParsingConfig, err)
	}
	cache.values[key] = *v

	return nil
}

// MustLoad is Load that panics on error. Intended for process startup.
func MustLoad[T any](v *T, opts ...Option) {
	if err := Load(v, opts...); err != nil {
		panic(fmt.Sprintf("failed to load required configuration: %v", err))
	}
}

func typeName[T any]() string {
	return reflect.TypeFor[T]().String()
}
