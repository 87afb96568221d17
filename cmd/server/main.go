package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"trustbase/internal/access"
	"trustbase/internal/anonymizer"
	"trustbase/internal/assistant"
	assistanthandler "trustbase/internal/assistant/handler"
	jwttoken "trustbase/internal/jwt_token"
	"trustbase/internal/ledger"
	ledgerhandler "trustbase/internal/ledger/handler"
	"trustbase/internal/ledger/outbox"
	"trustbase/internal/organization"
	organizationhandler "trustbase/internal/organization/handler"
	"trustbase/internal/platform/config"
	"trustbase/internal/platform/httpserver"
	"trustbase/internal/platform/logger"
	"trustbase/internal/platform/metrics"
	"trustbase/internal/platform/redis"
	"trustbase/internal/timeline"
	timelinehandler "trustbase/internal/timeline/handler"
	"trustbase/internal/transition"
	transitionhandler "trustbase/internal/transition/handler"
	httptransport "trustbase/internal/transport/http"
)

// main wires the stores, services, and handlers, then runs the HTTP server
// and the outbox relay until a shutdown signal arrives. Business logic lives
// in the internal packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()
	m := metrics.New()

	health := map[string]httptransport.HealthChecker{}

	// Storage: postgres when configured, in-memory otherwise.
	var (
		db          *sql.DB
		anonStore   anonymizer.Store
		grantStore  access.Store
		chainStore  ledger.Store
		outboxStore outbox.Store
		orgStore    organization.Store
		usageStore  timeline.UsageStore
		txRunner    transition.Tx
	)
	if cfg.DatabaseURL != "" {
		var err error
		db, err = sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			log.Error("failed to open database", "error", err.Error())
			os.Exit(1)
		}
		if err := db.PingContext(context.Background()); err != nil {
			log.Error("database unreachable", "error", err.Error())
			os.Exit(1)
		}
		defer db.Close()

		anonStore = anonymizer.NewPostgres(db)
		grantStore = access.NewPostgres(db)
		chainStore = ledger.NewPostgres(db)
		outboxStore = outbox.NewPostgres(db)
		orgStore = organization.NewPostgres(db)
		usageStore = timeline.NewPostgres(db)
		txRunner = transition.NewPostgresTx(db)
		health["postgres"] = func() error { return db.Ping() }
	} else {
		log.Warn("DATABASE_URL not set, using in-memory storage")
		anonStore = anonymizer.NewInMemory()
		grantStore = access.NewInMemory()
		chainStore = ledger.NewInMemory()
		outboxStore = outbox.NewInMemory()
		orgStore = organization.NewInMemory()
		usageStore = timeline.NewInMemory()
		txRunner = transition.NewSerialTx()
	}

	// Redis cache in front of the organization catalog, when configured.
	cache, err := redis.New(cfg.Redis)
	if err != nil {
		log.Error("failed to connect to redis", "error", err.Error())
		os.Exit(1)
	}
	if cache != nil {
		defer cache.Close()
		orgStore = organization.NewCachedStore(orgStore, cache, cfg.Redis.CacheTTL, log)
		health["redis"] = func() error { return cache.Health(context.Background()) }
	}

	jwtService := jwttoken.NewJWTService(cfg.JWTSigningKey, "trustbase", "trustbase-api")
	jwtValidator := jwttoken.NewMiddlewareAdapter(jwtService)

	catalog := organization.NewService(orgStore, grantStore)
	labels := anonymizer.NewService(anonStore, m)
	appender := ledger.NewAppender(chainStore)
	reader := ledger.NewReader(chainStore, m)
	transitions := transition.NewService(txRunner, labels, grantStore, appender, outboxStore, catalog, log, m)
	timelines := timeline.NewService(usageStore, orgStore, grantStore)
	responder := assistant.NewService()

	router := httptransport.NewRouter([]httptransport.Registrar{
		ledgerhandler.New(reader, log, m),
		transitionhandler.New(transitions, log, m, jwtValidator),
		organizationhandler.New(catalog, log, m, jwtValidator),
		timelinehandler.New(timelines, log, m, jwtValidator),
		assistanthandler.New(responder, log, m),
	}, health)

	srv := httpserver.New(cfg.Addr, router)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		log.Info("starting trustbase", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	// Outbox relay publishes appended entries to the event stream.
	if len(cfg.Kafka.Brokers) > 0 {
		publisher, err := outbox.NewKafkaPublisher(cfg.Kafka)
		if err != nil {
			log.Error("failed to connect to kafka", "error", err.Error())
			os.Exit(1)
		}
		defer publisher.Close()

		relay := outbox.NewRelay(outboxStore, publisher, log, m, cfg.Kafka.RelayBatch, cfg.Kafka.RelayInterval)
		group.Go(func() error {
			if err := relay.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}

	group.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		log.Error("server exited", "error", err.Error())
		os.Exit(1)
	}
	log.Info("shutdown complete")
}
