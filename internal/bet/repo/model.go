package repo

import "time"

// Ciclo de vida: pending -> active -> concluded (terminal).
// A criação direta em active é permitida por política (requireApproval=false).
const (
	StatusPending   = "pending"
	StatusActive    = "active"
	StatusConcluded = "concluded"
)

// Bet é a aposta persistida no Postgres, sempre escopada pelo couple_id fixado
// na criação. Depois de concluded a linha nunca mais muda.
type Bet struct {
	ID            string
	Title         string
	Amount        float64
	OptionA       string
	OptionB       string
	CreatorID     string
	CreatorChoice string // "a" | "b"
	Status        string
	WinnerOption  string // "a" | "b" | "" enquanto não concluída
	CreatedAt     time.Time
	ConcludedAt   *time.Time
	ConcludedByID string
	CoupleID      string
}
