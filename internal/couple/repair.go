package couple

import (
	"context"

	"go.uber.org/zap"

	"github.com/duobet/couple-bets-platform/internal/couple/repo"
)

// RepairStore é o subconjunto de persistência usado pelo scan de reparo
type RepairStore interface {
	FindHalfPaired(ctx context.Context) ([]repo.PairAnomaly, error)
	RestorePair(ctx context.Context, aID, bID string) error
	Unpair(ctx context.Context, userID string) error
}

// Repairer re-simetriza pares meio-pareados deixados por uma escrita
// coordenada que morreu no meio (ou por edição manual no banco).
//
// Regra por anomalia:
//   - parceiro aponta de volta mas ficou despareado -> promove os dois (o
//     vínculo mútuo existe, só faltou a segunda escrita)
//   - parceiro inexistente ou apontando pra outra pessoa -> rebaixa o usuário
//     pra UNPAIRED (o vínculo não fecha e não dá pra inventar o outro lado)
type Repairer struct {
	store RepairStore
	log   *zap.Logger
}

func NewRepairer(s RepairStore, log *zap.Logger) *Repairer {
	return &Repairer{store: s, log: log}
}

// RunOnce executa um passe de reparo e retorna quantas anomalias corrigiu
func (r *Repairer) RunOnce(ctx context.Context) (int, error) {
	anomalies, err := r.store.FindHalfPaired(ctx)
	if err != nil {
		return 0, err
	}

	repaired := 0
	for _, a := range anomalies {
		if err := r.repairOne(ctx, a); err != nil {
			r.log.Error("pairing repair failed",
				zap.String("user_id", a.User.ID), zap.Error(err))
			continue
		}
		repaired++
	}

	if repaired > 0 {
		r.log.Info("pairing repair pass finished",
			zap.Int("anomalies", len(anomalies)), zap.Int("repaired", repaired))
	}
	return repaired, nil
}

func (r *Repairer) repairOne(ctx context.Context, a repo.PairAnomaly) error {
	if a.Partner != nil && a.Partner.PartnerID == a.User.ID {
		r.log.Warn("half-paired couple promoted to paired",
			zap.String("user_id", a.User.ID), zap.String("partner_id", a.Partner.ID))
		return r.store.RestorePair(ctx, a.User.ID, a.Partner.ID)
	}

	r.log.Warn("dangling pairing demoted to unpaired",
		zap.String("user_id", a.User.ID), zap.String("partner_id", a.User.PartnerID))
	return r.store.Unpair(ctx, a.User.ID)
}
