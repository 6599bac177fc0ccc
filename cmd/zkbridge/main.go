package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/dmitrymomot/zkbridge/modules/gateway"
	"github.com/dmitrymomot/zkbridge/pkg/config"
	"github.com/dmitrymomot/zkbridge/pkg/httpserver"
	"github.com/dmitrymomot/zkbridge/pkg/logger"
	"github.com/dmitrymomot/zkbridge/pkg/mongo"
	"github.com/dmitrymomot/zkbridge/pkg/oneshot"
	"github.com/dmitrymomot/zkbridge/pkg/pg"
	"github.com/dmitrymomot/zkbridge/pkg/redis"
	"github.com/dmitrymomot/zkbridge/pkg/requestid"
	"github.com/dmitrymomot/zkbridge/svc/zklogin"
	"github.com/dmitrymomot/zkbridge/svc/zklogin/store/memstore"
	"github.com/dmitrymomot/zkbridge/svc/zklogin/store/mongostore"
	"github.com/dmitrymomot/zkbridge/svc/zklogin/store/pgstore"
)

func main() {
	var cfg appConfig
	config.MustLoad(&cfg)

	log := logger.New(
		logger.WithEnvironment(cfg.Env, cfg.ServiceName),
		logger.WithContextExtractors(requestid.LogExtractor),
	)

	if err := run(context.Background(), cfg, log); err != nil {
		log.Error("zkbridge stopped", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg appConfig, log *slog.Logger) error {
	var cleanup []func()
	defer func() {
		for i := len(cleanup) - 1; i >= 0; i-- {
			cleanup[i]()
		}
	}()

	storage, checks, closeStorage, err := openStorage(ctx, cfg, log)
	if err != nil {
		return err
	}
	cleanup = append(cleanup, closeStorage)

	eph, err := openEphemeral(ctx, cfg)
	if err != nil {
		return err
	}
	cleanup = append(cleanup, eph.close)
	checks = append(checks, eph.checks...)

	clients := buildClients(cfg)
	if len(clients) == 0 {
		return errors.New("no Google client configured: set GOOGLE_GAME_CLIENT_ID or GOOGLE_WEB_CLIENT_ID")
	}

	salts := zklogin.NewSaltRegistry(storage, zklogin.WithSaltLogger(log))
	bridge, err := zklogin.NewBridge(
		zklogin.NewNonceCorrelator(eph.nonces),
		zklogin.NewMailbox(eph.mail),
		zklogin.NewFlowTracker(eph.flows),
		salts,
		clients,
		zklogin.WithBridgeLogger(log),
		zklogin.WithExchangeTimeout(cfg.Bridge.ExchangeTimeout),
	)
	if err != nil {
		return fmt.Errorf("build bridge: %w", err)
	}

	encoding, err := zklogin.ParseSaltEncoding(cfg.Prover.SaltEncoding)
	if err != nil {
		return err
	}
	var prover zklogin.Prover = zklogin.NewHTTPProver(cfg.Prover, nil)
	if cfg.Sandbox {
		log.Warn("sandbox mode enabled: proofs and submissions are fabricated")
		prover = zklogin.SandboxProver{}
	}
	broker := zklogin.NewBroker(salts, storage, prover,
		zklogin.WithBrokerLogger(log),
		zklogin.WithSaltEncoding(encoding),
		zklogin.WithProverTimeout(cfg.Prover.Timeout),
	)

	router := gateway.Router(gateway.RouterOptions{
		Auth:      gateway.NewAuthService(bridge, gateway.WithAuthLogger(log)),
		Proofs:    gateway.NewProofService(broker, gateway.WithProofLogger(log), gateway.WithSandbox(cfg.Sandbox)),
		Liveness:  httpserver.Liveness(),
		Readiness: httpserver.Readiness(log, cfg.Bridge.ReadyTimeout, checks...),
	})

	log.Info("starting zkbridge",
		slog.String("addr", cfg.HTTP.Addr),
		slog.String("salt_store", cfg.SaltStore),
		slog.String("ephemeral_store", cfg.EphemeralStore),
		slog.Int("clients", len(clients)),
	)
	return httpserver.New(cfg.HTTP, httpserver.WithLogger(log)).Run(ctx, router)
}

func openStorage(ctx context.Context, cfg appConfig, log *slog.Logger) (zklogin.Storage, []httpserver.Check, func(), error) {
	switch cfg.SaltStore {
	case storeMemory, "":
		log.Warn("salts are kept in memory: addresses change after a restart")
		st := memstore.New()
		return st, []httpserver.Check{{Name: "salts", Fn: st.Ping}}, func() {}, nil

	case storePostgres:
		pool, err := pg.Connect(ctx, cfg.PG)
		if err != nil {
			return nil, nil, nil, err
		}
		if err := pgstore.Migrate(ctx, pool, cfg.PG, log); err != nil {
			pool.Close()
			return nil, nil, nil, err
		}
		return pgstore.New(pool), []httpserver.Check{{Name: "postgres", Fn: pg.Healthcheck(pool)}}, pool.Close, nil

	case storeMongo:
		db, err := mongo.New(ctx, cfg.Mongo)
		if err != nil {
			return nil, nil, nil, err
		}
		disconnect := func() { _ = db.Client().Disconnect(context.Background()) }
		st := mongostore.New(db)
		if err := st.EnsureIndexes(ctx); err != nil {
			disconnect()
			return nil, nil, nil, err
		}
		return st, []httpserver.Check{{Name: "mongo", Fn: mongo.Healthcheck(db)}}, disconnect, nil
	}
	return nil, nil, nil, fmt.Errorf("unknown SALT_STORE %q", cfg.SaltStore)
}

// ephemeral holds the short-lived per-session stores.
type ephemeral struct {
	nonces oneshot.Store[string]
	mail   oneshot.Store[zklogin.Envelope]
	flows  oneshot.PeekStore[zklogin.FlowState]
	checks []httpserver.Check
	close  func()
}

func openEphemeral(ctx context.Context, cfg appConfig) (ephemeral, error) {
	ttl := cfg.Bridge.TTL
	switch cfg.EphemeralStore {
	case storeMemory, "":
		cleanup := oneshot.WithCleanupInterval(cfg.Bridge.CleanupInterval)
		nonces := oneshot.NewMemoryStore[string](ttl, cleanup)
		mail := oneshot.NewMemoryStore[zklogin.Envelope](ttl, cleanup)
		flows := oneshot.NewMemoryStore[zklogin.FlowState](ttl, cleanup)
		return ephemeral{
			nonces: nonces,
			mail:   mail,
			flows:  flows,
			close: func() {
				_ = nonces.Close()
				_ = mail.Close()
				_ = flows.Close()
			},
		}, nil

	case storeRedis:
		client, err := redis.Connect(ctx, cfg.Redis)
		if err != nil {
			return ephemeral{}, err
		}
		return ephemeral{
			nonces: oneshot.NewRedisStore[string](client, cfg.Redis.KeyPrefix+"nonce:", ttl),
			mail:   oneshot.NewRedisStore[zklogin.Envelope](client, cfg.Redis.KeyPrefix+"mailbox:", ttl),
			flows:  oneshot.NewRedisStore[zklogin.FlowState](client, cfg.Redis.KeyPrefix+"flow:", ttl),
			checks: []httpserver.Check{{Name: "redis", Fn: redis.Healthcheck(client)}},
			close:  func() { _ = client.Close() },
		}, nil
	}
	return ephemeral{}, fmt.Errorf("unknown EPHEMERAL_STORE %q", cfg.EphemeralStore)
}

func buildClients(cfg appConfig) []zklogin.Client {
	var clients []zklogin.Client
	if cfg.Game.ClientID != "" {
		clients = append(clients, zklogin.Client{
			Name:       "game",
			Provider:   zklogin.NewGoogleProvider(cfg.Game),
			SuccessURL: cfg.Bridge.GameSuccessURL,
			FailureURL: cfg.Bridge.GameFailureURL,
		})
	}
	if cfg.Web.ClientID != "" {
		clients = append(clients, zklogin.Client{
			Name:       "web",
			Provider:   zklogin.NewGoogleProvider(cfg.Web),
			SuccessURL: cfg.Bridge.WebSuccessURL,
			FailureURL: cfg.Bridge.WebFailureURL,
		})
	}
	return clients
}
