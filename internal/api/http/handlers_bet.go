package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/duobet/couple-bets-platform/internal/api/dto"
	"github.com/duobet/couple-bets-platform/internal/bet"
)

func (s *Server) createBet(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateBetRequest
	if err := decode(r, &req); err != nil {
		s.writeErr(w, err)
		return
	}
	b, err := s.bets.Create(r.Context(), actorFrom(currentUser(r)), bet.CreateInput{
		Title:         req.Title,
		Amount:        req.Amount,
		OptionA:       req.OptionA,
		OptionB:       req.OptionB,
		CreatorChoice: req.CreatorChoice,
	})
	if err != nil {
		s.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, dto.FromBet(b))
}

func (s *Server) listBets(w http.ResponseWriter, r *http.Request) {
	bs, err := s.bets.List(r.Context(), actorFrom(currentUser(r)), r.URL.Query().Get("status"))
	if err != nil {
		s.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.FromBets(bs))
}

func (s *Server) getBet(w http.ResponseWriter, r *http.Request) {
	b, err := s.bets.Get(r.Context(), actorFrom(currentUser(r)), chi.URLParam(r, "id"))
	if err != nil {
		s.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.FromBet(b))
}

func (s *Server) approveBet(w http.ResponseWriter, r *http.Request) {
	b, err := s.bets.Approve(r.Context(), actorFrom(currentUser(r)), chi.URLParam(r, "id"))
	if err != nil {
		s.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.FromBet(b))
}

func (s *Server) declineBet(w http.ResponseWriter, r *http.Request) {
	if err := s.bets.Decline(r.Context(), actorFrom(currentUser(r)), chi.URLParam(r, "id")); err != nil {
		s.writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) concludeBet(w http.ResponseWriter, r *http.Request) {
	var req dto.ConcludeBetRequest
	if err := decode(r, &req); err != nil {
		s.writeErr(w, err)
		return
	}
	actor := actorFrom(currentUser(r))
	b, err := s.bets.Conclude(r.Context(), actor, chi.URLParam(r, "id"), req.WinnerOption)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	s.dropStats(r, actor)
	writeJSON(w, http.StatusOK, dto.FromBet(b))
}

func (s *Server) deleteBet(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(currentUser(r))
	if err := s.bets.Delete(r.Context(), actor, chi.URLParam(r, "id")); err != nil {
		s.writeErr(w, err)
		return
	}
	s.dropStats(r, actor)
	w.WriteHeader(http.StatusNoContent)
}

// leaderboard devolve o placar mais as últimas conclusões numa resposta só
func (s *Server) leaderboard(w http.ResponseWriter, r *http.Request) {
	st, recent, err := s.bets.Leaderboard(r.Context(), actorFrom(currentUser(r)), 5)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.LeaderboardResponse{
		Stats:  *st,
		Recent: dto.FromBets(recent),
	})
}

// coupleStats responde o placar do casal, preferencialmente do cache
func (s *Server) coupleStats(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(currentUser(r))

	var cached bet.CoupleStats
	if ok, _ := s.stats.Get(r.Context(), actor.CoupleID, actor.ID, &cached); ok {
		writeJSON(w, http.StatusOK, cached)
		return
	}

	st, err := s.bets.Stats(r.Context(), actor)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	if err := s.stats.Set(r.Context(), actor.CoupleID, actor.ID, st); err != nil {
		s.log.Warn("stats cache write failed", zap.Error(err))
	}
	writeJSON(w, http.StatusOK, st)
}

// dropStats invalida o placar dos dois membros após mudança de resultado
func (s *Server) dropStats(r *http.Request, actor bet.Actor) {
	ids := []string{actor.ID}
	if actor.PartnerID != "" {
		ids = append(ids, actor.PartnerID)
	}
	if err := s.stats.Invalidate(r.Context(), actor.CoupleID, ids...); err != nil {
		s.log.Warn("stats cache invalidation failed", zap.Error(err))
	}
}
