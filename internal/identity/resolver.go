package identity

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/duobet/couple-bets-platform/internal/couple/repo"
	"github.com/duobet/couple-bets-platform/internal/token"
)

// UserLookup é o pedaço da persistência que o resolver precisa
type UserLookup interface {
	UserByToken(ctx context.Context, authToken string) (*repo.User, error)
}

// Resolver mapeia um token opaco pro usuário agente e seu casal.
// "Não autenticado" é sempre usuário nil, nunca erro: chamadores decidem o que
// fazer com a ausência, não com exceção.
type Resolver struct {
	store TokenStore
	users UserLookup
	log   *zap.Logger
}

func NewResolver(store TokenStore, users UserLookup, log *zap.Logger) *Resolver {
	return &Resolver{store: store, users: users, log: log}
}

// ResolveToken valida formato e expiração e busca o dono do token.
// Token inválido/expirado/desconhecido -> (nil, nil).
func (r *Resolver) ResolveToken(ctx context.Context, authToken string) (*repo.User, error) {
	if authToken == "" {
		return nil, nil
	}
	if !token.IsValidTokenFormat(authToken) || token.IsTokenExpired(authToken) {
		return nil, nil
	}

	u, err := r.users.UserByToken(ctx, authToken)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

// CurrentUser lê o token guardado no storage local e o resolve.
// Token inválido ou expirado é descartado do storage como efeito colateral
// (o token em si morre, nunca é reaproveitado).
func (r *Resolver) CurrentUser(ctx context.Context) (*repo.User, error) {
	stored, err := r.store.Load()
	if err != nil {
		r.log.Warn("token store read failed", zap.Error(err))
		return nil, nil
	}
	if stored == "" {
		return nil, nil
	}

	if !token.IsValidTokenFormat(stored) || token.IsTokenExpired(stored) {
		r.log.Warn("stored token invalid or expired, clearing auth")
		_ = r.store.Clear()
		return nil, nil
	}

	return r.ResolveToken(ctx, stored)
}

// CurrentCoupleID deriva o casal estritamente via CurrentUser
func (r *Resolver) CurrentCoupleID(ctx context.Context) (string, error) {
	u, err := r.CurrentUser(ctx)
	if err != nil || u == nil {
		return "", err
	}
	return u.CoupleID, nil
}

// Login persiste o token e resolve o usuário dono dele
func (r *Resolver) Login(ctx context.Context, authToken string) (*repo.User, error) {
	if err := r.store.Save(authToken); err != nil {
		return nil, err
	}
	return r.CurrentUser(ctx)
}

// Logout descarta o token local; as linhas no servidor ficam intactas
func (r *Resolver) Logout() error {
	return r.store.Clear()
}
