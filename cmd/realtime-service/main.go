package main

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/duobet/couple-bets-platform/internal/realtime"
	"github.com/duobet/couple-bets-platform/internal/shared/cache"
	"github.com/duobet/couple-bets-platform/internal/shared/config"
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

	// App mobile conecta de qualquer origem; auth fica na camada de API
	hub := realtime.NewHub(func(_ *http.Request) bool { return true })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	realtime.StartRedisSubscriber(ctx, redisClient, cfg.RedisPubSubChannel, hub, log)

	metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		return redisClient.Ping(ctx).Err()
	})

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", hub.HandleWS)

	addr := ":" + cfg.HTTPPort
	log.Info("realtime-service listening",
		zap.String("addr", addr),
		zap.String("channel", cfg.RedisPubSubChannel),
	)
	if err := http.ListenAndServe(addr, mux); err != nil && err != http.ErrServerClosed {
		log.Fatal("ws server", zap.Error(err))
	}
}
