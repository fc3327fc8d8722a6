package main

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	statscache "github.com/duobet/couple-bets-platform/internal/api/cache"
	apihttp "github.com/duobet/couple-bets-platform/internal/api/http"
	"github.com/duobet/couple-bets-platform/internal/bet"
	betrepo "github.com/duobet/couple-bets-platform/internal/bet/repo"
	"github.com/duobet/couple-bets-platform/internal/couple"
	couplerepo "github.com/duobet/couple-bets-platform/internal/couple/repo"
	"github.com/duobet/couple-bets-platform/internal/identity"
	"github.com/duobet/couple-bets-platform/internal/notifier"
	"github.com/duobet/couple-bets-platform/internal/shared/cache"
	"github.com/duobet/couple-bets-platform/internal/shared/config"
	"github.com/duobet/couple-bets-platform/internal/shared/db"
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

	// Postgres
	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("pg", zap.Error(err))
	}
	defer pg.Close()

	// Redis (cache de stats)
	rdb, err := cache.ConnectRedis(cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	// Kafka writer (topic bet_changed)
	writer := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicBetChanged)
	defer writer.Close()

	// deps
	coupleStore := couplerepo.NewPostgres(pg)
	betStore := betrepo.NewPostgres(pg)

	dir := couple.NewDirectory(coupleStore, log)
	couples := couple.NewService(coupleStore, dir, log)

	publ := notifier.NewKafkaPublisher(writer, cfg.TopicBetChanged)
	bets := bet.NewService(betStore, publ, cfg.BetRequireApproval, log)

	resolver := identity.NewResolver(identity.NewFileStore(cfg.TokenStore), coupleStore, log)

	api := apihttp.NewServer(log, couples, dir, bets, resolver, statscache.New(rdb), cfg.RequestTimeout)

	// metrics/health
	metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		if err := pg.PingContext(ctx); err != nil {
			return err
		}
		return rdb.Ping(ctx).Err()
	})

	addr := ":" + cfg.HTTPPort
	log.Info("api-service listening",
		zap.String("addr", addr),
		zap.Bool("requireApproval", cfg.BetRequireApproval),
	)
	srv := &http.Server{Addr: addr, Handler: api.Router()}
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal("api", zap.Error(err))
	}
}
