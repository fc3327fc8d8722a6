package repo

import "time"

// Couple é o grupo de pareamento persistido no Postgres.
// couple_code é único globalmente; o registro nunca é apagado no fluxo normal
// (unlink só limpa os campos de pareamento dos usuários).
type Couple struct {
	ID              string
	CoupleCode      string
	CreatedAt       time.Time
	CreatedByUserID string // preenchido logo após a criação do primeiro usuário
}

// User é um membro (atual ou desvinculado) de um casal.
// PartnerID vazio = não pareado (NULL no banco). Invariante: no máximo 2
// usuários com IsPaired=true por casal, com PartnerID mutuamente consistente.
type User struct {
	ID        string
	Name      string
	CoupleID  string
	PartnerID string
	IsPaired  bool
	AuthToken string
	CreatedAt time.Time
}

// PairAnomaly é um estado meio-pareado detectado pelo scan de reparo:
// User está marcado como pareado mas o vínculo com Partner não fecha.
// Partner é nil quando o partner_id aponta pra um usuário inexistente.
type PairAnomaly struct {
	User    User
	Partner *User
}
