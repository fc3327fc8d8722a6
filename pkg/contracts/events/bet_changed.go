package events

// Operações possíveis num evento de mudança de aposta.
const (
	OpInsert = "insert"
	OpUpdate = "update"
	OpDelete = "delete"
)

// BetPayload é a linha da aposta carregada no evento.
// Em deletes apenas BetID/CoupleID são garantidos.
type BetPayload struct {
	ID            string  `json:"id"`
	Title         string  `json:"title"`
	Amount        float64 `json:"amount"`
	OptionA       string  `json:"option_a"`
	OptionB       string  `json:"option_b"`
	CreatorID     string  `json:"creator_id"`
	CreatorChoice string  `json:"creator_choice"` // "a" | "b"
	Status        string  `json:"status"`         // pending | active | concluded
	WinnerOption  string  `json:"winner_option,omitempty"`
	CreatedAt     string  `json:"created_at"`
	ConcludedAt   string  `json:"concluded_at,omitempty"`
	ConcludedByID string  `json:"concluded_by_id,omitempty"`
	CoupleID      string  `json:"couple_id"`
}

// Evento publicado no tópico "bet_changed" a cada mutação no ledger de apostas.
// Consumidores devem tratá-lo como dica de re-fetch/merge-by-id, nunca como
// confirmação da mutação em si (o canal pode reordenar ou reentregar).
type BetChanged struct {
	Op       string      `json:"op"` // insert | update | delete
	BetID    string      `json:"bet_id"`
	CoupleID string      `json:"couple_id"`
	Status   string      `json:"status,omitempty"`
	Bet      *BetPayload `json:"bet,omitempty"`
	TsUnixMs int64       `json:"ts_unix_ms"`
}
