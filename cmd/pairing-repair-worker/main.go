package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/duobet/couple-bets-platform/internal/couple"
	couplerepo "github.com/duobet/couple-bets-platform/internal/couple/repo"
	"github.com/duobet/couple-bets-platform/internal/shared/config"
	"github.com/duobet/couple-bets-platform/internal/shared/db"
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

	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("pg connect", zap.Error(err))
	}
	defer pg.Close()

	repaired := prometheus.NewCounter(prometheus.CounterOpts{Name: "pairing_repairs_total", Help: "pareamentos corrigidos"})
	scans := prometheus.NewCounter(prometheus.CounterOpts{Name: "pairing_repair_scans_total", Help: "varreduras executadas"})
	scanErrors := prometheus.NewCounter(prometheus.CounterOpts{Name: "pairing_repair_errors_total", Help: "varreduras com erro"})
	prometheus.MustRegister(repaired, scans, scanErrors)

	repairer := couple.NewRepairer(couplerepo.NewPostgres(pg), log)

	metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		return pg.PingContext(ctx)
	})

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log.Info("pairing-repair-worker started", zap.Duration("interval", cfg.RepairInterval))

	// Varredura periódica: meio-pareamentos são promovidos ou desfeitos
	ticker := time.NewTicker(cfg.RepairInterval)
	defer ticker.Stop()
	for {
		scans.Inc()
		n, err := repairer.RunOnce(ctx)
		if err != nil {
			scanErrors.Inc()
			log.Warn("repair scan failed", zap.Error(err))
		} else if n > 0 {
			repaired.Add(float64(n))
			log.Info("repair scan done", zap.Int("repaired", n))
		}

		select {
		case <-ctx.Done():
			log.Info("pairing-repair-worker stopped")
			return
		case <-ticker.C:
		}
	}
}
