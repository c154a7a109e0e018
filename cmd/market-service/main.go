package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"go.uber.org/zap"

	mcache "github.com/radieske/prediction-market-platform-poc/internal/market-service/cache"
	"github.com/radieske/prediction-market-platform-poc/internal/market-service/engine"
	mhttp "github.com/radieske/prediction-market-platform-poc/internal/market-service/http"
	kpub "github.com/radieske/prediction-market-platform-poc/internal/market-service/producer"
	"github.com/radieske/prediction-market-platform-poc/internal/market-service/repo"
	"github.com/radieske/prediction-market-platform-poc/internal/registry"
	sharedcache "github.com/radieske/prediction-market-platform-poc/internal/shared/cache"
	"github.com/radieske/prediction-market-platform-poc/internal/shared/config"
	"github.com/radieske/prediction-market-platform-poc/internal/shared/db"
	"github.com/radieske/prediction-market-platform-poc/internal/shared/kafka"
	"github.com/radieske/prediction-market-platform-poc/internal/shared/logger"
	"github.com/radieske/prediction-market-platform-poc/internal/shared/metrics"
)

func main() {
	if os.Getenv("SERVICE_NAME") == "" {
		os.Setenv("SERVICE_NAME", "market-service")
	}
	cfg := config.Load()
	log, _ := logger.New(cfg.ServiceName, cfg.Env)
	defer log.Sync()

	// Postgres
	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("pg", zap.Error(err))
	}
	defer pg.Close()

	// Redis
	rdb, err := sharedcache.ConnectRedis(cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	// Kafka writers, um por tópico do ciclo de vida
	wCreated := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicMarketCreated)
	wPredictions := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicPredictionMade)
	wResolved := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicMarketResolved)
	wFees := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicFeesDistributed)
	wClaims := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicRewardClaimed)
	defer wCreated.Close()
	defer wPredictions.Close()
	defer wResolved.Close()
	defer wFees.Close()
	defer wClaims.Close()

	// deps
	repository := repo.NewPostgres(pg, cfg.PlatformAccount)
	reg := registry.NewPostgres(pg, cfg.RegistryAuthority, cfg.FeeCeilingBps)
	if err := reg.EnsureFactory(context.Background()); err != nil {
		log.Fatal("registry", zap.Error(err))
	}

	snapshots := mcache.NewSnapshotCache(rdb, time.Duration(cfg.SnapshotTTLSeconds)*time.Second)
	publ := kpub.NewKafkaPublisher(wCreated, wPredictions, wResolved, wFees, wClaims)

	policy, err := engine.PolicyFromName(cfg.ResolvePolicy)
	if err != nil {
		log.Fatal("resolve policy", zap.Error(err))
	}

	// HTTP público
	api := mhttp.NewServer(log, repository, reg, publ, snapshots, policy)
	apiSrv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler: api.Router(),
	}

	// metrics/health
	metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		if err := pg.PingContext(ctx); err != nil {
			return fmt.Errorf("pg: %w", err)
		}
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		return nil
	})

	log.Info("market-service listening",
		zap.String("addr", fmt.Sprintf(":%s", cfg.HTTPPort)),
		zap.String("resolvePolicy", cfg.ResolvePolicy))
	if err := apiSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal("api", zap.Error(err))
	}
}
