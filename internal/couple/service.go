package couple

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/duobet/couple-bets-platform/internal/couple/repo"
	"github.com/duobet/couple-bets-platform/internal/token"
	"github.com/duobet/couple-bets-platform/internal/validate"
)

// PartnerPlaceholder substitui o nome do parceiro quando a linha dele sumiu;
// a view degrada em vez de falhar inteira.
const PartnerPlaceholder = "Partner"

// Enrollment é o resultado de entrar num casal: o casal, a linha do usuário e
// o token de sessão que passa a identificá-lo.
type Enrollment struct {
	Couple *repo.Couple
	User   *repo.User
	Token  string
}

// Service implementa o protocolo de onboarding e a máquina de estados de
// pareamento (UNPAIRED -> PAIRED -> UNPAIRED).
type Service struct {
	store Store
	dir   *Directory
	log   *zap.Logger
}

func NewService(s Store, d *Directory, log *zap.Logger) *Service {
	return &Service{store: s, dir: d, log: log}
}

// CreateCouple abre um casal novo: gera código único, cria o primeiro usuário
// (ainda não pareado) e registra a autoria do casal.
func (s *Service) CreateCouple(ctx context.Context, name string) (*Enrollment, error) {
	cleanName, err := validate.Name(name)
	if err != nil {
		return nil, err
	}

	code, err := s.dir.GenerateCoupleCode(ctx)
	if err != nil {
		return nil, err
	}

	c, err := s.store.CreateCouple(ctx, code)
	if err != nil {
		return nil, err
	}

	authToken := token.GenerateAuthToken()
	u, err := s.store.CreateUser(ctx, c.ID, cleanName, authToken)
	if err != nil {
		return nil, err
	}

	if err := s.store.SetCoupleOwner(ctx, c.ID, u.ID); err != nil {
		// autoria é metadado; o onboarding não falha por causa dela
		s.log.Warn("set couple owner failed", zap.String("couple_id", c.ID), zap.Error(err))
	} else {
		c.CreatedByUserID = u.ID
	}

	s.log.Info("couple created", zap.String("couple_id", c.ID), zap.String("code", code))
	return &Enrollment{Couple: c, User: u, Token: authToken}, nil
}

// JoinCouple entra num casal pelo código. Se existingToken pertencer a um
// membro desvinculado desse casal, é um rejoin: a linha antiga é re-pareada em
// vez de inserir usuário novo. Caso contrário cria um membro e pareia com o
// outro lado, desde que haja vaga.
func (s *Service) JoinCouple(ctx context.Context, name, code, existingToken string) (*Enrollment, error) {
	cleanCode, err := validate.CoupleCode(code)
	if err != nil {
		return nil, err
	}

	c, err := s.store.CoupleByCode(ctx, cleanCode)
	if err != nil {
		return nil, err
	}

	if existingToken != "" && s.dir.CanRejoinCouple(ctx, cleanCode, existingToken) {
		u, err := s.store.UserByCoupleAndToken(ctx, c.ID, existingToken)
		if err != nil {
			return nil, err
		}
		joiner, partner, err := s.store.Pair(ctx, c.ID, u.ID)
		if err != nil {
			return nil, err
		}
		s.log.Info("member rejoined couple",
			zap.String("couple_id", c.ID),
			zap.String("user_id", joiner.ID),
			zap.String("partner_id", partner.ID))
		return &Enrollment{Couple: c, User: joiner, Token: existingToken}, nil
	}

	if !s.dir.CanJoinCouple(ctx, cleanCode) {
		return nil, ErrCoupleFull
	}

	cleanName, err := validate.Name(name)
	if err != nil {
		return nil, err
	}

	authToken := token.GenerateAuthToken()
	u, err := s.store.CreateUser(ctx, c.ID, cleanName, authToken)
	if err != nil {
		return nil, err
	}

	joiner, partner, err := s.store.Pair(ctx, c.ID, u.ID)
	if err != nil {
		return nil, err
	}

	s.log.Info("member joined couple",
		zap.String("couple_id", c.ID),
		zap.String("user_id", joiner.ID),
		zap.String("partner_id", partner.ID))
	return &Enrollment{Couple: c, User: joiner, Token: authToken}, nil
}

// Unlink desfaz o pareamento dos dois lados. Idempotente: desvincular quem já
// está desvinculado não é erro. O casal e o histórico de apostas ficam.
func (s *Service) Unlink(ctx context.Context, userID string) error {
	if err := s.store.Unpair(ctx, userID); err != nil {
		return err
	}
	s.log.Info("couple unlinked", zap.String("user_id", userID))
	return nil
}

// Rename atualiza o nome de exibição do usuário
func (s *Service) Rename(ctx context.Context, userID, name string) error {
	cleanName, err := validate.Name(name)
	if err != nil {
		return err
	}
	return s.store.UpdateUserName(ctx, userID, cleanName)
}

// CoupleOf retorna o casal do usuário
func (s *Service) CoupleOf(ctx context.Context, u *repo.User) (*repo.Couple, error) {
	return s.store.CoupleByID(ctx, u.CoupleID)
}

// PartnerName resolve o nome do parceiro; parceiro ausente degrada pro
// placeholder em vez de derrubar a view.
func (s *Service) PartnerName(ctx context.Context, u *repo.User) string {
	if !u.IsPaired || u.PartnerID == "" {
		return ""
	}
	p, err := s.store.UserByID(ctx, u.PartnerID)
	if err != nil {
		if !errors.Is(err, repo.ErrNotFound) {
			s.log.Warn("partner lookup failed", zap.String("partner_id", u.PartnerID), zap.Error(err))
		}
		return PartnerPlaceholder
	}
	return p.Name
}
