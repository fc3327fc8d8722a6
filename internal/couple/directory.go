package couple

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/duobet/couple-bets-platform/internal/couple/repo"
	"github.com/duobet/couple-bets-platform/internal/token"
)

// Tentativas de geração de código antes de desistir. Com ~31 bits de entropia
// colisões em escala modesta não são desprezíveis, então o retry com teto é
// propriedade de correção, não otimização.
const maxCodeAttempts = 10

var (
	ErrCodeExhausted = errors.New("unable to generate unique couple code")
	ErrNotFound      = repo.ErrNotFound
	ErrCoupleFull    = repo.ErrCoupleFull
)

// Store é o contrato de persistência de casais/usuários consumido pelo
// diretório e pelo serviço de pareamento.
type Store interface {
	CoupleByCode(ctx context.Context, code string) (*repo.Couple, error)
	CoupleByID(ctx context.Context, id string) (*repo.Couple, error)
	CountPaired(ctx context.Context, coupleID string) (int, error)
	UserByToken(ctx context.Context, authToken string) (*repo.User, error)
	UserByCoupleAndToken(ctx context.Context, coupleID, authToken string) (*repo.User, error)
	UserByID(ctx context.Context, id string) (*repo.User, error)
	CreateCouple(ctx context.Context, code string) (*repo.Couple, error)
	SetCoupleOwner(ctx context.Context, coupleID, userID string) error
	CreateUser(ctx context.Context, coupleID, name, authToken string) (*repo.User, error)
	UpdateUserName(ctx context.Context, userID, name string) error
	Pair(ctx context.Context, coupleID, joinerID string) (joiner, partner *repo.User, err error)
	Unpair(ctx context.Context, userID string) error
}

// Directory é o dono do namespace de códigos de casal e da regra de capacidade
type Directory struct {
	store Store
	log   *zap.Logger
}

func NewDirectory(s Store, log *zap.Logger) *Directory {
	return &Directory{store: s, log: log}
}

// CoupleCodeExists verifica se o código já está em uso. Em erro de backend
// retorna true de propósito: tratar como existente evita entregar um código
// possivelmente colidente (política conservadora, não "otimizar" pra false).
func (d *Directory) CoupleCodeExists(ctx context.Context, code string) bool {
	_, err := d.store.CoupleByCode(ctx, code)
	if err == nil {
		return true
	}
	if errors.Is(err, repo.ErrNotFound) {
		return false
	}
	d.log.Warn("couple code lookup failed, assuming code exists", zap.String("code", code), zap.Error(err))
	return true
}

// GenerateCoupleCode sorteia códigos até achar um livre, com teto de tentativas
func (d *Directory) GenerateCoupleCode(ctx context.Context) (string, error) {
	for attempt := 1; attempt <= maxCodeAttempts; attempt++ {
		code := token.NewCoupleCode()
		if !d.CoupleCodeExists(ctx, code) {
			return code, nil
		}
		d.log.Debug("couple code collision", zap.String("code", code), zap.Int("attempt", attempt))
	}
	return "", ErrCodeExhausted
}

// CanJoinCouple responde se o casal do código aceita um novo membro:
// precisa existir e ter no máximo 1 membro pareado (0 = casal aberto dos dois
// lados, 1 = esperando o parceiro).
func (d *Directory) CanJoinCouple(ctx context.Context, code string) bool {
	c, err := d.store.CoupleByCode(ctx, code)
	if err != nil {
		return false
	}
	n, err := d.store.CountPaired(ctx, c.ID)
	if err != nil {
		return false
	}
	return n <= 1
}

// CanRejoinCouple responde se o dono do token já pertence a esse casal e está
// desvinculado (reivindicando a vaga antiga em vez de criar usuário novo)
func (d *Directory) CanRejoinCouple(ctx context.Context, code, authToken string) bool {
	c, err := d.store.CoupleByCode(ctx, code)
	if err != nil {
		return false
	}
	u, err := d.store.UserByCoupleAndToken(ctx, c.ID, authToken)
	if err != nil {
		return false
	}
	return !u.IsPaired
}
