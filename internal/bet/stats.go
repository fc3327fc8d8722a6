package bet

import (
	"sort"

	"github.com/duobet/couple-bets-platform/internal/bet/repo"
)

// UserStats é o placar acumulado de um membro do casal
type UserStats struct {
	UserID        string  `json:"user_id"`
	TotalWins     int     `json:"total_wins"`
	TotalAmount   float64 `json:"total_amount"`
	CurrentStreak int     `json:"current_streak"`
	WinRate       float64 `json:"win_rate"` // percentual sobre o total de concluídas
}

// CoupleStats agrega o fold sobre todas as apostas concluídas do casal
type CoupleStats struct {
	TotalConcluded int       `json:"total_concluded"`
	UserA          UserStats `json:"user_a"`
	UserB          UserStats `json:"user_b"`
}

// WinnerUserID deriva quem venceu a aposta: identidade computada, nunca
// armazenada (evita drift com winner_option). Se a opção vencedora coincide
// com a escolha do criador, o criador venceu; senão, o outro membro.
// Retorna "" quando o criador não é nenhum dos dois membros informados
// (aposta herdada de um membro antigo).
func WinnerUserID(b *repo.Bet, userA, userB string) string {
	other := ""
	switch b.CreatorID {
	case userA:
		other = userB
	case userB:
		other = userA
	default:
		return ""
	}
	if b.WinnerOption == b.CreatorChoice {
		return b.CreatorID
	}
	return other
}

// FoldStats reduz as apostas concluídas nas estatísticas dos dois membros:
// vitória incrementa placar, valor e streak do vencedor e zera o streak do
// perdedor. A ordem cronológica de conclusão define os streaks.
func FoldStats(concluded []repo.Bet, userA, userB string) CoupleStats {
	byConclusion := make([]repo.Bet, len(concluded))
	copy(byConclusion, concluded)
	sort.SliceStable(byConclusion, func(i, j int) bool {
		ti, tj := byConclusion[i].ConcludedAt, byConclusion[j].ConcludedAt
		if ti == nil || tj == nil {
			return tj == nil && ti != nil
		}
		return ti.Before(*tj)
	})

	stats := CoupleStats{
		UserA: UserStats{UserID: userA},
		UserB: UserStats{UserID: userB},
	}

	for i := range byConclusion {
		b := &byConclusion[i]
		if b.Status != repo.StatusConcluded {
			continue
		}
		stats.TotalConcluded++

		winner := WinnerUserID(b, userA, userB)
		switch winner {
		case userA:
			credit(&stats.UserA, b.Amount)
			stats.UserB.CurrentStreak = 0
		case userB:
			credit(&stats.UserB, b.Amount)
			stats.UserA.CurrentStreak = 0
		default:
			// criador fora do par atual: conta no total, não no placar
		}
	}

	if stats.TotalConcluded > 0 {
		total := float64(stats.TotalConcluded)
		stats.UserA.WinRate = float64(stats.UserA.TotalWins) / total * 100
		stats.UserB.WinRate = float64(stats.UserB.TotalWins) / total * 100
	}
	return stats
}

func credit(u *UserStats, amount float64) {
	u.TotalWins++
	u.TotalAmount += amount
	u.CurrentStreak++
}
