// Package config loads typed configuration from environment variables.
//
// It wraps github.com/caarlos0/env/v11 and reads a .env file through
// github.com/joho/godotenv on first use. Results are cached per type (and
// prefix), so calling Load from several places is cheap and consistent.
//
//	type ProverConfig struct {
//		URL     string        `env:"PROVER_URL,required"`
//		Timeout time.Duration `env:"PROVER_TIMEOUT" envDefault:"60s"`
//	}
//
//	var cfg ProverConfig
//	if err := config.Load(&cfg); err != nil {
//		return err
//	}
//
// The same struct type can be read under different variable prefixes, either
// with WithPrefix or with an envPrefix tag on a nested field. The bridge reads
// one Google application per client surface that way.
package config
