package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/radieske/prediction-market-platform-poc/internal/shared/config"
	"github.com/radieske/prediction-market-platform-poc/internal/shared/db"
	"github.com/radieske/prediction-market-platform-poc/internal/shared/kafka"
	"github.com/radieske/prediction-market-platform-poc/internal/shared/logger"
	"github.com/radieske/prediction-market-platform-poc/internal/shared/metrics"
	"github.com/radieske/prediction-market-platform-poc/internal/stats-worker/consumer"
	"github.com/radieske/prediction-market-platform-poc/internal/stats-worker/repository"
)

func main() {
	if os.Getenv("SERVICE_NAME") == "" {
		os.Setenv("SERVICE_NAME", "stats-worker")
	}
	cfg := config.Load()
	log, err := logger.New(cfg.ServiceName, cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	// Postgres
	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("postgres connect", zap.Error(err))
	}
	defer pg.Close()

	repo := repository.NewPostgresRepo(pg)

	// Consumer Kafka (consumer group stats-worker) do tópico de resoluções
	reader := kafka.NewReader(cfg.KafkaBrokers, cfg.TopicMarketResolved, "stats-worker")
	defer reader.Close()

	// Métricas Prometheus de liquidação
	consumed := prometheus.NewCounter(prometheus.CounterOpts{Name: "stats_messages_consumed_total", Help: "mensagens consumidas"})
	settled := prometheus.NewCounter(prometheus.CounterOpts{Name: "stats_markets_settled_total", Help: "mercados liquidados"})
	skipped := prometheus.NewCounter(prometheus.CounterOpts{Name: "stats_markets_skipped_total", Help: "mercados já liquidados (idempotência)"})
	errorsBy := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "stats_errors_total", Help: "erros por estágio"}, []string{"stage"})
	prometheus.MustRegister(consumed, settled, skipped, errorsBy)

	proc := &consumer.Processor{
		Log:        log,
		Reader:     reader,
		Repo:       repo,
		OnConsumed: func() { consumed.Inc() },
		OnSettled:  func() { settled.Inc() },
		OnSkipped:  func() { skipped.Inc() },
		OnError:    func(stage string) { errorsBy.WithLabelValues(stage).Inc() },
	}

	// Servidor HTTP só para métricas e health check
	metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		return pg.PingContext(ctx)
	})

	// Sinalização para shutdown gracioso (SIGINT/SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log.Info("stats-worker started")
	if err := proc.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatal("processor stopped with error", zap.Error(err))
	}
	log.Info("stats-worker stopped")
}
