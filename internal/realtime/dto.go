package realtime

// ClientMsg representa uma mensagem recebida do cliente WebSocket
// Type: subscribe | unsubscribe | ping
// CoupleID: obrigatório em subscribe/unsubscribe
// Status: filtro opcional ("active", "concluded", ...) aplicado ao subscribe
type ClientMsg struct {
	Type     string `json:"type"`
	CoupleID string `json:"coupleId"`
	Status   string `json:"status,omitempty"`
}
