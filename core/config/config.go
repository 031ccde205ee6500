package config

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

var (
	// dotenvOnce guards the one-time .env load. A missing .env file is
	// not an error; real environments configure via the process env.
	dotenvOnce sync.Once

	// cache stores parsed configurations keyed by struct type.
	cache sync.Map // reflect.Type -> struct value
)

// Load populates cfg from environment variables. cfg must be a non-nil
// pointer to a struct annotated with `env` tags.
//
// The first call loads a .env file from the working directory if one
// exists. Each configuration type is parsed once per process; later
// calls for the same type receive the cached value, so two loads of the
// same type always observe identical configuration.
func Load(cfg any) error {
	v := reflect.ValueOf(cfg)
	if v.Kind() != reflect.Pointer || v.IsNil() || v.Elem().Kind() != reflect.Struct {
		return ErrNotStructPointer
	}

	dotenvOnce.Do(func() {
		_ = godotenv.Load()
	})

	t := v.Elem().Type()
	if cached, ok := cache.Load(t); ok {
		v.Elem().Set(reflect.ValueOf(cached))
		return nil
	}

	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("config: parse %s: %w", t, err)
	}

	cache.Store(t, v.Elem().Interface())
	return nil
}

// MustLoad is Load that panics on failure. Intended for application
// startup where a missing required variable should halt the process.
func MustLoad(cfg any) {
	if err := Load(cfg); err != nil {
		panic(err)
	}
}
