package bet

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/duobet/couple-bets-platform/internal/bet/repo"
	"github.com/duobet/couple-bets-platform/internal/validate"
	"github.com/duobet/couple-bets-platform/pkg/contracts/events"
)

var (
	ErrNotFound = repo.ErrNotFound

	// ErrForbidden: o agente não tem direito sobre a operação (casal errado,
	// criador aprovando a própria aposta, não-criador deletando)
	ErrForbidden = errors.New("not allowed")

	// ErrInvalidTransition: a aposta não está no estado que a transição exige
	ErrInvalidTransition = errors.New("invalid bet status transition")

	// ErrNotPaired: criar aposta exige usuário pareado
	ErrNotPaired = errors.New("user is not paired")
)

// Actor é a identidade já resolvida de quem chama as operações do ledger
type Actor struct {
	ID        string
	CoupleID  string
	PartnerID string
	Paired    bool
}

// Store é o contrato de persistência do ledger
type Store interface {
	Insert(ctx context.Context, b *repo.Bet) (*repo.Bet, error)
	ByID(ctx context.Context, id string) (*repo.Bet, error)
	ListByCouple(ctx context.Context, coupleID, status string) ([]repo.Bet, error)
	ListConcludedAsc(ctx context.Context, coupleID string) ([]repo.Bet, error)
	Approve(ctx context.Context, id string) (*repo.Bet, error)
	Conclude(ctx context.Context, id, winnerOption, byUserID string) (*repo.Bet, error)
	DeleteByCreator(ctx context.Context, id, creatorID string) error
}

// Publisher emite eventos de mudança no ledger pro canal de notificação
type Publisher interface {
	PublishBetChanged(ctx context.Context, e events.BetChanged) error
}

// CreateInput são os campos crus do formulário de criação
type CreateInput struct {
	Title         string
	Amount        string
	OptionA       string
	OptionB       string
	CreatorChoice string
}

// Service implementa o ciclo de vida e a autorização das apostas.
// requireApproval escolhe entre os dois fluxos históricos de criação:
// pending-até-aprovação ou direto em active.
type Service struct {
	store           Store
	publ            Publisher
	requireApproval bool
	log             *zap.Logger
}

func NewService(s Store, p Publisher, requireApproval bool, log *zap.Logger) *Service {
	return &Service{store: s, publ: p, requireApproval: requireApproval, log: log}
}

// Create valida, sanitiza e grava uma aposta nova no casal do agente
func (s *Service) Create(ctx context.Context, actor Actor, in CreateInput) (*repo.Bet, error) {
	if !actor.Paired {
		return nil, ErrNotPaired
	}

	title, err := validate.Title(in.Title)
	if err != nil {
		return nil, err
	}
	amount, err := validate.Amount(in.Amount)
	if err != nil {
		return nil, err
	}
	optionA, err := validate.Option("option_a", in.OptionA)
	if err != nil {
		return nil, err
	}
	optionB, err := validate.Option("option_b", in.OptionB)
	if err != nil {
		return nil, err
	}
	choice, err := validate.Choice("creatorChoice", in.CreatorChoice)
	if err != nil {
		return nil, err
	}

	status := repo.StatusActive
	if s.requireApproval {
		status = repo.StatusPending
	}

	b, err := s.store.Insert(ctx, &repo.Bet{
		Title:         title,
		Amount:        amount,
		OptionA:       optionA,
		OptionB:       optionB,
		CreatorID:     actor.ID,
		CreatorChoice: choice,
		Status:        status,
		CoupleID:      actor.CoupleID,
	})
	if err != nil {
		return nil, err
	}

	s.notify(ctx, events.OpInsert, b)
	s.log.Info("bet created",
		zap.String("bet_id", b.ID), zap.String("couple_id", b.CoupleID), zap.String("status", b.Status))
	return b, nil
}

// List retorna as apostas do casal do agente, com filtro opcional de status
func (s *Service) List(ctx context.Context, actor Actor, status string) ([]repo.Bet, error) {
	if status != "" {
		normalized, err := validate.Status(status)
		if err != nil {
			return nil, err
		}
		status = normalized
	}
	return s.store.ListByCouple(ctx, actor.CoupleID, status)
}

// Get retorna uma aposta do casal do agente
func (s *Service) Get(ctx context.Context, actor Actor, betID string) (*repo.Bet, error) {
	return s.authorize(ctx, actor, betID)
}

// Approve promove pending -> active. Só um membro do casal que não é o
// criador pode aprovar.
func (s *Service) Approve(ctx context.Context, actor Actor, betID string) (*repo.Bet, error) {
	b, err := s.authorize(ctx, actor, betID)
	if err != nil {
		return nil, err
	}
	if b.CreatorID == actor.ID {
		return nil, ErrForbidden
	}

	updated, err := s.store.Approve(ctx, betID)
	if errors.Is(err, repo.ErrConflict) {
		return nil, ErrInvalidTransition
	}
	if err != nil {
		return nil, err
	}

	s.notify(ctx, events.OpUpdate, updated)
	s.log.Info("bet approved", zap.String("bet_id", betID), zap.String("by", actor.ID))
	return updated, nil
}

// Decline recusa uma pending removendo o registro inteiro (sem trilha de
// auditoria). Mesma autorização do Approve.
func (s *Service) Decline(ctx context.Context, actor Actor, betID string) error {
	b, err := s.authorize(ctx, actor, betID)
	if err != nil {
		return err
	}
	if b.CreatorID == actor.ID {
		return ErrForbidden
	}
	if b.Status != repo.StatusPending {
		return ErrInvalidTransition
	}

	// o registro sai em nome do criador: o filtro redundante da query continua
	// valendo (creator_id + status)
	if err := s.store.DeleteByCreator(ctx, betID, b.CreatorID); err != nil {
		if errors.Is(err, repo.ErrConflict) {
			return ErrInvalidTransition
		}
		return err
	}

	s.notifyDelete(ctx, b)
	s.log.Info("bet declined", zap.String("bet_id", betID), zap.String("by", actor.ID))
	return nil
}

// Conclude fecha active -> concluded com a opção vencedora. Qualquer membro do
// casal pode concluir (sem restrição de criador). Irreversível.
func (s *Service) Conclude(ctx context.Context, actor Actor, betID, winnerOption string) (*repo.Bet, error) {
	winner, err := validate.Choice("winnerOption", winnerOption)
	if err != nil {
		return nil, err
	}

	if _, err := s.authorize(ctx, actor, betID); err != nil {
		return nil, err
	}

	updated, err := s.store.Conclude(ctx, betID, winner, actor.ID)
	if errors.Is(err, repo.ErrConflict) {
		return nil, ErrInvalidTransition
	}
	if err != nil {
		return nil, err
	}

	s.notify(ctx, events.OpUpdate, updated)
	s.log.Info("bet concluded",
		zap.String("bet_id", betID), zap.String("winner_option", winner), zap.String("by", actor.ID))
	return updated, nil
}

// Delete remove uma aposta pending/active; só o criador pode
func (s *Service) Delete(ctx context.Context, actor Actor, betID string) error {
	b, err := s.authorize(ctx, actor, betID)
	if err != nil {
		return err
	}
	if b.CreatorID != actor.ID {
		return ErrForbidden
	}

	if err := s.store.DeleteByCreator(ctx, betID, actor.ID); err != nil {
		if errors.Is(err, repo.ErrConflict) {
			return ErrInvalidTransition
		}
		return err
	}

	s.notifyDelete(ctx, b)
	s.log.Info("bet deleted", zap.String("bet_id", betID), zap.String("by", actor.ID))
	return nil
}

// Leaderboard junta o placar agregado com as conclusões mais recentes,
// o suficiente pra tela de ranking montar tudo numa chamada só
func (s *Service) Leaderboard(ctx context.Context, actor Actor, recentLimit int) (*CoupleStats, []repo.Bet, error) {
	stats, err := s.Stats(ctx, actor)
	if err != nil {
		return nil, nil, err
	}
	recent, err := s.store.ListByCouple(ctx, actor.CoupleID, repo.StatusConcluded)
	if err != nil {
		return nil, nil, err
	}
	if recentLimit > 0 && len(recent) > recentLimit {
		recent = recent[:recentLimit]
	}
	return stats, recent, nil
}

// Stats dobra as apostas concluídas do casal nas estatísticas agregadas
func (s *Service) Stats(ctx context.Context, actor Actor) (*CoupleStats, error) {
	concluded, err := s.store.ListConcludedAsc(ctx, actor.CoupleID)
	if err != nil {
		return nil, err
	}
	stats := FoldStats(concluded, actor.ID, actor.PartnerID)
	return &stats, nil
}

// authorize carrega a aposta e garante que ela pertence ao casal do agente.
// Aposta de outro casal se comporta como inexistente (não vaza existência).
func (s *Service) authorize(ctx context.Context, actor Actor, betID string) (*repo.Bet, error) {
	b, err := s.store.ByID(ctx, betID)
	if err != nil {
		return nil, err
	}
	if b.CoupleID != actor.CoupleID {
		return nil, ErrNotFound
	}
	return b, nil
}

func (s *Service) notify(ctx context.Context, op string, b *repo.Bet) {
	e := events.BetChanged{
		Op:       op,
		BetID:    b.ID,
		CoupleID: b.CoupleID,
		Status:   b.Status,
		Bet:      toPayload(b),
		TsUnixMs: time.Now().UnixMilli(),
	}
	if err := s.publ.PublishBetChanged(ctx, e); err != nil {
		// notificação é dica, não fonte de verdade: a mutação já aconteceu
		s.log.Warn("bet change publish failed", zap.String("bet_id", b.ID), zap.Error(err))
	}
}

func (s *Service) notifyDelete(ctx context.Context, b *repo.Bet) {
	e := events.BetChanged{
		Op:       events.OpDelete,
		BetID:    b.ID,
		CoupleID: b.CoupleID,
		TsUnixMs: time.Now().UnixMilli(),
	}
	if err := s.publ.PublishBetChanged(ctx, e); err != nil {
		s.log.Warn("bet delete publish failed", zap.String("bet_id", b.ID), zap.Error(err))
	}
}

func toPayload(b *repo.Bet) *events.BetPayload {
	p := &events.BetPayload{
		ID:            b.ID,
		Title:         b.Title,
		Amount:        b.Amount,
		OptionA:       b.OptionA,
		OptionB:       b.OptionB,
		CreatorID:     b.CreatorID,
		CreatorChoice: b.CreatorChoice,
		Status:        b.Status,
		WinnerOption:  b.WinnerOption,
		CreatedAt:     b.CreatedAt.Format(time.RFC3339),
		ConcludedByID: b.ConcludedByID,
		CoupleID:      b.CoupleID,
	}
	if b.ConcludedAt != nil {
		p.ConcludedAt = b.ConcludedAt.Format(time.RFC3339)
	}
	return p
}
