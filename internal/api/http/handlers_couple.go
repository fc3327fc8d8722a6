package httpapi

import (
	"net/http"

	"github.com/duobet/couple-bets-platform/internal/api/dto"
	"github.com/duobet/couple-bets-platform/internal/couple"
	"github.com/duobet/couple-bets-platform/internal/validate"
)

func enrollmentResponse(e *couple.Enrollment) dto.EnrollmentResponse {
	return dto.EnrollmentResponse{
		Token:  e.Token,
		User:   dto.FromUser(e.User),
		Couple: dto.FromCouple(e.Couple),
	}
}

// createCouple abre um casal novo e devolve o token do primeiro membro
func (s *Server) createCouple(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateCoupleRequest
	if err := decode(r, &req); err != nil {
		s.writeErr(w, err)
		return
	}
	e, err := s.couples.CreateCouple(r.Context(), req.Name)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, enrollmentResponse(e))
}

// joinCouple entra num casal pelo código; um bearer token opcional
// habilita o caminho de re-entrada do mesmo membro
func (s *Server) joinCouple(w http.ResponseWriter, r *http.Request) {
	var req dto.JoinCoupleRequest
	if err := decode(r, &req); err != nil {
		s.writeErr(w, err)
		return
	}
	e, err := s.couples.JoinCouple(r.Context(), req.Name, req.CoupleCode, bearerToken(r))
	if err != nil {
		s.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, enrollmentResponse(e))
}

// canJoin é consulta barata pro formulário validar o código antes do submit.
// Normaliza igual ao join (trim + uppercase); código malformado responde
// false em vez de erro.
func (s *Server) canJoin(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("code")
	if raw == "" {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "code required", Field: "code"})
		return
	}
	code, err := validate.CoupleCode(raw)
	if err != nil {
		writeJSON(w, http.StatusOK, dto.CanJoinResponse{CanJoin: false})
		return
	}
	writeJSON(w, http.StatusOK, dto.CanJoinResponse{CanJoin: s.dir.CanJoinCouple(r.Context(), code)})
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	u := currentUser(r)
	resp := dto.FromUser(u)
	resp.PartnerName = s.couples.PartnerName(r.Context(), u)
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) rename(w http.ResponseWriter, r *http.Request) {
	var req dto.RenameRequest
	if err := decode(r, &req); err != nil {
		s.writeErr(w, err)
		return
	}
	u := currentUser(r)
	if err := s.couples.Rename(r.Context(), u.ID, req.Name); err != nil {
		s.writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// logout não invalida o token no servidor: a sessão é o token guardado
// no cliente, e descartar a cópia local encerra ela
func (s *Server) logout(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) coupleInfo(w http.ResponseWriter, r *http.Request) {
	u := currentUser(r)
	c, err := s.couples.CoupleOf(r.Context(), u)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	me := dto.FromUser(u)
	me.PartnerName = s.couples.PartnerName(r.Context(), u)
	writeJSON(w, http.StatusOK, struct {
		Couple dto.CoupleResponse `json:"couple"`
		Me     dto.UserResponse   `json:"me"`
	}{dto.FromCouple(c), me})
}

// unlink desfaz o pareamento dos dois lados; repetir é inócuo
func (s *Server) unlink(w http.ResponseWriter, r *http.Request) {
	if err := s.couples.Unlink(r.Context(), currentUser(r).ID); err != nil {
		s.writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
