package topics

const (
	// Bets
	BetChanged = "bet_changed"

	// DLQs
	BetChangedDLQ = "bet_changed_dlq"
)
