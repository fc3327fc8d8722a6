package dto

import (
	"time"

	"github.com/duobet/couple-bets-platform/internal/bet"
	betrepo "github.com/duobet/couple-bets-platform/internal/bet/repo"
	couplerepo "github.com/duobet/couple-bets-platform/internal/couple/repo"
)

type ErrorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

type CoupleResponse struct {
	ID         string    `json:"id"`
	CoupleCode string    `json:"couple_code"`
	CreatedAt  time.Time `json:"created_at"`
}

type UserResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	CoupleID    string `json:"couple_id"`
	PartnerID   string `json:"partner_id,omitempty"`
	IsPaired    bool   `json:"is_paired"`
	PartnerName string `json:"partner_name,omitempty"`
}

type EnrollmentResponse struct {
	Token  string         `json:"token"`
	User   UserResponse   `json:"user"`
	Couple CoupleResponse `json:"couple"`
}

type CanJoinResponse struct {
	CanJoin bool `json:"can_join"`
}

type BetResponse struct {
	ID            string     `json:"id"`
	CoupleID      string     `json:"couple_id"`
	CreatorID     string     `json:"creator_id"`
	Title         string     `json:"title"`
	Amount        float64    `json:"amount"`
	OptionA       string     `json:"option_a"`
	OptionB       string     `json:"option_b"`
	CreatorChoice string     `json:"creator_choice"`
	Status        string     `json:"status"`
	WinnerOption  string     `json:"winner_option,omitempty"`
	ConcludedAt   *time.Time `json:"concluded_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

type LeaderboardResponse struct {
	Stats  bet.CoupleStats `json:"stats"`
	Recent []BetResponse   `json:"recent"`
}

func FromCouple(c *couplerepo.Couple) CoupleResponse {
	return CoupleResponse{ID: c.ID, CoupleCode: c.CoupleCode, CreatedAt: c.CreatedAt}
}

func FromUser(u *couplerepo.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Name:      u.Name,
		CoupleID:  u.CoupleID,
		PartnerID: u.PartnerID,
		IsPaired:  u.IsPaired,
	}
}

func FromBet(b *betrepo.Bet) BetResponse {
	return BetResponse{
		ID:            b.ID,
		CoupleID:      b.CoupleID,
		CreatorID:     b.CreatorID,
		Title:         b.Title,
		Amount:        b.Amount,
		OptionA:       b.OptionA,
		OptionB:       b.OptionB,
		CreatorChoice: b.CreatorChoice,
		Status:        b.Status,
		WinnerOption:  b.WinnerOption,
		ConcludedAt:   b.ConcludedAt,
		CreatedAt:     b.CreatedAt,
	}
}

func FromBets(bs []betrepo.Bet) []BetResponse {
	out := make([]BetResponse, 0, len(bs))
	for i := range bs {
		out = append(out, FromBet(&bs[i]))
	}
	return out
}
