package main

import (
	"time"

	"github.com/dmitrymomot/zkbridge/pkg/httpserver"
	"github.com/dmitrymomot/zkbridge/pkg/mongo"
	"github.com/dmitrymomot/zkbridge/pkg/pg"
	"github.com/dmitrymomot/zkbridge/pkg/redis"
	"github.com/dmitrymomot/zkbridge/svc/zklogin"
)

const (
	storeMemory   = "memory"
	storePostgres = "postgres"
	storeMongo    = "mongo"
	storeRedis    = "redis"
)

type appConfig struct {
	Env            string `env:"APP_ENV" envDefault:"development"`
	ServiceName    string `env:"SERVICE_NAME" envDefault:"zkbridge"`
	SaltStore      string `env:"SALT_STORE" envDefault:"memory"`      // memory, postgres or mongo
	EphemeralStore string `env:"EPHEMERAL_STORE" envDefault:"memory"` // memory or redis
	Sandbox        bool   `env:"SANDBOX_MODE" envDefault:"false"`

	Bridge bridgeConfig         `envPrefix:"BRIDGE_"`
	Game   zklogin.GoogleConfig `envPrefix:"GOOGLE_GAME_"`
	Web    zklogin.GoogleConfig `envPrefix:"GOOGLE_WEB_"`
	Prover zklogin.ProverConfig `envPrefix:"PROVER_"`

	HTTP  httpserver.Config
	PG    pg.Config
	Mongo mongo.Config
	Redis redis.Config
}

type bridgeConfig struct {
	TTL             time.Duration `env:"TTL" envDefault:"10m"`
	CleanupInterval time.Duration `env:"CLEANUP_INTERVAL" envDefault:"1m"`
	ExchangeTimeout time.Duration `env:"EXCHANGE_TIMEOUT" envDefault:"10s"`
	ReadyTimeout    time.Duration `env:"READY_TIMEOUT" envDefault:"2s"`

	// Empty targets fall back to the built-in landing pages.
	GameSuccessURL string `env:"GAME_SUCCESS_URL"`
	GameFailureURL string `env:"GAME_FAILURE_URL"`
	WebSuccessURL  string `env:"WEB_SUCCESS_URL"`
	WebFailureURL  string `env:"WEB_FAILURE_URL"`
}
