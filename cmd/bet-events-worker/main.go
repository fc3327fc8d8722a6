package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/duobet/couple-bets-platform/internal/notifier"
	"github.com/duobet/couple-bets-platform/internal/shared/cache"
	"github.com/duobet/couple-bets-platform/internal/shared/config"
	"github.com/duobet/couple-bets-platform/internal/shared/kafka"
	"github.com/duobet/couple-bets-platform/internal/shared/logger"
	"github.com/duobet/couple-bets-platform/internal/shared/metrics"
)

func main() {
	cfg := config.Load()
	log, err := logger.New(cfg.ServiceName, cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	redisClient, err := cache.ConnectRedis(cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis connect", zap.Error(err))
	}
	defer redisClient.Close()

	// Consumer group dedicado: o worker é o único assinante do tópico
	reader := kafka.NewReader(cfg.KafkaBrokers, cfg.TopicBetChanged, "bet-events")
	defer reader.Close()

	var dlqWriter *kafka.Writer
	if cfg.TopicBetChangedDLQ != "" {
		dlqWriter = kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicBetChangedDLQ)
		defer dlqWriter.Close()
	}

	// Métricas Prometheus para monitoramento do repasse
	consumed := prometheus.NewCounter(prometheus.CounterOpts{Name: "bet_events_messages_consumed_total", Help: "mensagens consumidas"})
	broadcast := prometheus.NewCounter(prometheus.CounterOpts{Name: "bet_events_broadcasts_total", Help: "repasses pro pub/sub"})
	errorsBy := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "bet_events_errors_total", Help: "erros por estágio"}, []string{"stage"})
	prometheus.MustRegister(consumed, broadcast, errorsBy)

	relay := &notifier.Relay{
		Log:         log,
		Reader:      reader,
		Redis:       redisClient,
		Channel:     cfg.RedisPubSubChannel,
		DLQ:         dlqWriter,
		OnConsumed:  func() { consumed.Inc() },
		OnBroadcast: func() { broadcast.Inc() },
		OnError:     func(stage string) { errorsBy.WithLabelValues(stage).Inc() },
	}

	metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		return redisClient.Ping(ctx).Err()
	})

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log.Info("bet-events-worker started",
		zap.String("consume", cfg.TopicBetChanged),
		zap.String("channel", cfg.RedisPubSubChannel),
	)
	if err := relay.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatal("relay stopped with error", zap.Error(err))
	}
	log.Info("bet-events-worker stopped")
}
