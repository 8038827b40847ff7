// Command graphix runs the cross-indexer consistency monitor: the main
// loop that samples indexer status and PoIs, and the investigator that
// bisects reported divergences. Wiring follows the teacher pack's
// services/audit-log/cmd/main.go shape: load config, build a logger, open
// dependencies, start background loops, serve HTTP, shut down on signal.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yash02896/graphix/internal/adapter/cache"
	"github.com/yash02896/graphix/internal/adapter/indexerclient"
	"github.com/yash02896/graphix/internal/adapter/logging"
	"github.com/yash02896/graphix/internal/adapter/messaging"
	"github.com/yash02896/graphix/internal/adapter/metrics"
	"github.com/yash02896/graphix/internal/adapter/repository"
	"github.com/yash02896/graphix/internal/adapter/repository/memstore"
	"github.com/yash02896/graphix/internal/config"
	"github.com/yash02896/graphix/internal/core/investigator"
	"github.com/yash02896/graphix/internal/core/loop"
	"github.com/yash02896/graphix/internal/core/policy"
	"github.com/yash02896/graphix/internal/core/ports"
	"github.com/yash02896/graphix/internal/core/registry"
	"github.com/yash02896/graphix/internal/domain"
	"github.com/yash02896/graphix/internal/handler"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "graphix:", err)
		os.Exit(1)
	}
}

func run() error {
	storeBackend := flag.String("store", "postgres", "persistence backend: postgres or memory")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	zapLogger := logging.NewProduction()
	defer zapLogger.Sync()
	var logger ports.Logger = zapLogger

	blockChoicePolicy, err := policy.FromName(cfg.BlockChoicePolicy)
	if err != nil {
		return fmt.Errorf("resolve block choice policy: %w", err)
	}

	var store ports.Store
	switch *storeBackend {
	case "memory":
		logger.Warn("using in-memory store, data will not survive a restart")
		store = memstore.New()
	case "postgres":
		pg, err := repository.Open(cfg.DatabaseURL, logger)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer pg.Close()
		store = pg
	default:
		return fmt.Errorf("unrecognized -store value %q", *storeBackend)
	}

	promMetrics := metrics.New(prometheus.DefaultRegisterer)
	var coreMetrics ports.Metrics = promMetrics

	var messagingClient ports.MessagingClient
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPublisher, err := messaging.NewKafkaPublisher(cfg.KafkaBrokers, "graphix.divergence-reports")
		if err != nil {
			return fmt.Errorf("connect kafka publisher: %w", err)
		}
		defer kafkaPublisher.Close()
		messagingClient = kafkaPublisher
	}

	var indexerCache *cache.IndexerCache
	if cfg.RedisURL != "" {
		indexerCache = cache.New(cfg.RedisURL, "graphix:indexers:", 10*time.Minute)
		defer indexerCache.Close()
	}

	reg := registry.New(store, logger)

	buildIndexers := newStaticIndexerBuilder(cfg.Indexers, indexerCache)

	mainLoop := loop.New(store, reg, logger, coreMetrics, buildIndexers, loop.Config{
		PollingPeriod:      cfg.PollingPeriod(),
		BlockChoicePolicy:  blockChoicePolicy,
		StatusQueryTimeout: cfg.StatusQueryTimeout(),
		PoiQueryTimeout:    cfg.PoiQueryTimeout(),
		MaxConcurrency:     cfg.InvestigationConcurrency,
	})

	divergenceInvestigator := investigator.New(store, reg, logger, coreMetrics, messagingClient, investigator.Config{
		PollInterval:    cfg.InvestigationPollInterval(),
		Concurrency:     cfg.InvestigationConcurrency,
		PoiQueryTimeout: cfg.PoiQueryTimeout(),
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go mainLoop.Run(ctx)
	go divergenceInvestigator.Run(ctx)

	// The API (GraphQL-port) server and the Prometheus exporter are two
	// independent listeners, the same split the original keeps between its
	// graphql.port-gated API and its always-on prometheus_port exporter.
	servers := make([]*http.Server, 0, 2)

	if cfg.GraphQL.Port != 0 {
		gin.SetMode(gin.ReleaseMode)
		router := gin.New()
		router.Use(gin.Recovery())
		handler.New(store, logger).RegisterRoutes(router)

		addr := fmt.Sprintf(":%d", cfg.GraphQL.Port)
		apiServer := &http.Server{Addr: addr, Handler: router}
		servers = append(servers, apiServer)

		go func() {
			logger.Info("api server listening", "addr", addr)
			if err := apiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("api server failed", "error", err)
			}
		}()
	} else {
		logger.Info("api server disabled, graphql.port is 0")
	}

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())
	metricsAddr := fmt.Sprintf(":%d", cfg.Prometheus.Port)
	metricsServer := &http.Server{Addr: metricsAddr, Handler: metricsMux}
	servers = append(servers, metricsServer)

	go func() {
		logger.Info("metrics server listening", "addr", metricsAddr)
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var shutdownErr error
	for _, s := range servers {
		if err := s.Shutdown(shutdownCtx); err != nil && shutdownErr == nil {
			shutdownErr = err
		}
	}
	return shutdownErr
}

// newStaticIndexerBuilder builds a loop.BuildIndexersFunc from the
// statically configured indexer list, wrapping each entry's HTTP endpoint
// in an indexerclient.HTTPClient. When idCache is non-nil, each entry's
// identity is read through it: a cached identity for the configured id
// (including its address, if the cached entry has one) replaces the bare
// configured id, and the resulting identity is written back to the cache.
func newStaticIndexerBuilder(configured []config.IndexerConfig, idCache *cache.IndexerCache) loop.BuildIndexersFunc {
	return func(ctx context.Context) ([]domain.IndexerHandle, error) {
		handles := make([]domain.IndexerHandle, 0, len(configured))
		for _, c := range configured {
			id := domain.IndexerID{ID: c.ID}
			if idCache != nil {
				if cached, ok := idCache.Get(ctx, c.ID); ok {
					id = cached
				}
			}
			client := indexerclient.New(c.ID, id.Address, c.URL)
			handles = append(handles, domain.IndexerHandle{
				IndexerID: id,
				Client:    client,
			})
			if idCache != nil {
				idCache.Set(ctx, id)
			}
		}
		return handles, nil
	}
}
