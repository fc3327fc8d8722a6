package validate

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Limites de tamanho por campo
const (
	MaxNameLen   = 50
	MaxTitleLen  = 100
	MaxOptionLen = 200

	MaxAmount = 1_000_000.0
)

// Error é um erro de validação de entrada do usuário: recuperável,
// apresentado direto ao chamador, sem mudança de estado.
type Error struct {
	Field string
	Msg   string
}

func (e *Error) Error() string { return e.Field + ": " + e.Msg }

func invalid(field, msg string) *Error { return &Error{Field: field, Msg: msg} }

// SanitizeString remove caracteres perigosos e limita o tamanho bruto.
// Tira <> (tags) e aspas (quebra de SQL em clientes descuidados).
// Limites contam runas, não bytes (nomes acentuados não podem ser
// penalizados nem truncados no meio de uma sequência UTF-8).
func SanitizeString(in string) string {
	s := strings.TrimSpace(in)
	s = strings.NewReplacer("<", "", ">", "", "'", "", `"`, "").Replace(s)
	if utf8.RuneCountInString(s) > 1000 {
		s = string([]rune(s)[:1000])
	}
	return s
}

func text(field, in string, maxLen int) (string, error) {
	s := SanitizeString(in)
	if s == "" {
		return "", invalid(field, "is required")
	}
	if utf8.RuneCountInString(s) > maxLen {
		return "", invalid(field, fmt.Sprintf("must be no more than %d characters long", maxLen))
	}
	return s, nil
}

// Name valida e sanitiza o nome de exibição do usuário
func Name(in string) (string, error) { return text("name", in, MaxNameLen) }

// Title valida e sanitiza o título da aposta
func Title(in string) (string, error) { return text("title", in, MaxTitleLen) }

// Option valida e sanitiza uma das opções da aposta
func Option(field, in string) (string, error) { return text(field, in, MaxOptionLen) }

// Amount valida o valor da aposta: > 0, <= 1.000.000, arredondado
// half-up para 2 casas decimais.
func Amount(in string) (float64, error) {
	s := strings.TrimSpace(in)
	if s == "" {
		return 0, invalid("amount", "is required")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, invalid("amount", "must be a valid number")
	}
	if v <= 0 {
		return 0, invalid("amount", "must be greater than 0")
	}
	if v > MaxAmount {
		return 0, invalid("amount", "cannot exceed 1,000,000")
	}
	// epsilon compensa representações binárias tipo 500.005 -> 500.00499...,
	// garantindo half-up sobre o valor decimal digitado
	return math.Round(v*100+1e-9) / 100, nil
}

// CoupleCode normaliza (trim + uppercase) e valida o código de casal
func CoupleCode(in string) (string, error) {
	s := strings.ToUpper(strings.TrimSpace(in))
	if len(s) != 6 {
		return "", invalid("coupleCode", "must be exactly 6 characters long")
	}
	for _, r := range s {
		if !(r >= 'A' && r <= 'Z') && !(r >= '0' && r <= '9') {
			return "", invalid("coupleCode", "must contain only letters and numbers")
		}
	}
	return s, nil
}

// Choice valida uma escolha de opção ("a" ou "b"); usada tanto para
// creator_choice quanto para winner_option.
func Choice(field, in string) (string, error) {
	s := strings.ToLower(strings.TrimSpace(in))
	if s != "a" && s != "b" {
		return "", invalid(field, `must be either "a" or "b"`)
	}
	return s, nil
}

// Status valida um filtro de status de aposta
func Status(in string) (string, error) {
	s := strings.ToLower(strings.TrimSpace(in))
	switch s {
	case "pending", "active", "concluded":
		return s, nil
	}
	return "", invalid("status", `must be "pending", "active", or "concluded"`)
}
