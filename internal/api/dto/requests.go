package dto

// Amount viaja como string: a validação decide número/limites/arredondamento,
// igual ao formulário original
type CreateCoupleRequest struct {
	Name string `json:"name"`
}

type JoinCoupleRequest struct {
	Name       string `json:"name"`
	CoupleCode string `json:"coupleCode"`
}

type RenameRequest struct {
	Name string `json:"name"`
}

type CreateBetRequest struct {
	Title         string `json:"title"`
	Amount        string `json:"amount"`
	OptionA       string `json:"option_a"`
	OptionB       string `json:"option_b"`
	CreatorChoice string `json:"creator_choice"` // "a" | "b"
}

type ConcludeBetRequest struct {
	WinnerOption string `json:"winner_option"` // "a" | "b"
}
