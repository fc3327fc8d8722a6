package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/duobet/couple-bets-platform/internal/api/cache"
	"github.com/duobet/couple-bets-platform/internal/api/dto"
	"github.com/duobet/couple-bets-platform/internal/bet"
	"github.com/duobet/couple-bets-platform/internal/couple"
	couplerepo "github.com/duobet/couple-bets-platform/internal/couple/repo"
	"github.com/duobet/couple-bets-platform/internal/identity"
	"github.com/duobet/couple-bets-platform/internal/validate"
)

// Server expõe a API REST do app: onboarding do casal, identidade e o
// ciclo de vida das apostas
type Server struct {
	log     *zap.Logger
	couples *couple.Service
	dir     *couple.Directory
	bets    *bet.Service
	ident   *identity.Resolver
	stats   *cache.Stats
	timeout time.Duration
}

func NewServer(log *zap.Logger, cs *couple.Service, d *couple.Directory, bs *bet.Service, id *identity.Resolver, st *cache.Stats, timeout time.Duration) *Server {
	return &Server{log: log, couples: cs, dir: d, bets: bs, ident: id, stats: st, timeout: timeout}
}

// Router retorna o roteador HTTP com os endpoints REST
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(s.withTimeout)

	// rotas públicas: onboarding ainda não tem token
	r.Post("/v1/couples", s.createCouple)
	r.Post("/v1/couples/join", s.joinCouple)
	r.Get("/v1/couples/can-join", s.canJoin)

	r.Group(func(r chi.Router) {
		r.Use(s.requireAuth)

		r.Get("/v1/me", s.me)
		r.Patch("/v1/me", s.rename)
		r.Post("/v1/logout", s.logout)

		r.Get("/v1/couple", s.coupleInfo)
		r.Post("/v1/couple/unlink", s.unlink)

		r.Post("/v1/bets", s.createBet)
		r.Get("/v1/bets", s.listBets)
		r.Get("/v1/bets/{id}", s.getBet)
		r.Post("/v1/bets/{id}/approve", s.approveBet)
		r.Post("/v1/bets/{id}/decline", s.declineBet)
		r.Post("/v1/bets/{id}/conclude", s.concludeBet)
		r.Delete("/v1/bets/{id}", s.deleteBet)

		r.Get("/v1/stats", s.coupleStats)
		r.Get("/v1/leaderboard", s.leaderboard)
	})
	return r
}

type ctxKey int

const userKey ctxKey = 0

func (s *Server) withTimeout(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
		defer cancel()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireAuth resolve o bearer token; token inválido/expirado vira 401,
// nunca 500 (o resolver trata expiração como ausência de sessão)
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, err := s.ident.ResolveToken(r.Context(), bearerToken(r))
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "auth lookup failed"})
			return
		}
		if u == nil {
			writeJSON(w, http.StatusUnauthorized, dto.ErrorResponse{Error: "invalid or expired token"})
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userKey, u)))
	})
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(h[len("Bearer "):])
	}
	return ""
}

func currentUser(r *http.Request) *couplerepo.User {
	u, _ := r.Context().Value(userKey).(*couplerepo.User)
	return u
}

func actorFrom(u *couplerepo.User) bet.Actor {
	return bet.Actor{ID: u.ID, CoupleID: u.CoupleID, PartnerID: u.PartnerID, Paired: u.IsPaired}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeErr traduz os erros de domínio pro status HTTP correspondente
func (s *Server) writeErr(w http.ResponseWriter, err error) {
	var ve *validate.Error
	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: ve.Msg, Field: ve.Field})
	case errors.Is(err, bet.ErrNotFound) || errors.Is(err, couple.ErrNotFound):
		writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "not found"})
	case errors.Is(err, bet.ErrForbidden) || errors.Is(err, bet.ErrNotPaired):
		writeJSON(w, http.StatusForbidden, dto.ErrorResponse{Error: err.Error()})
	case errors.Is(err, bet.ErrInvalidTransition) || errors.Is(err, couple.ErrCoupleFull):
		writeJSON(w, http.StatusConflict, dto.ErrorResponse{Error: err.Error()})
	case errors.Is(err, couple.ErrCodeExhausted):
		writeJSON(w, http.StatusServiceUnavailable, dto.ErrorResponse{Error: err.Error()})
	default:
		s.log.Error("request failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "internal error"})
	}
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return &validate.Error{Field: "body", Msg: "invalid json"}
	}
	return nil
}
