package token

import (
	"crypto/rand"
	"encoding/base64"
	"math/big"
	mrand "math/rand"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	// Janela de validade do token de sessão
	TokenTTL = 30 * 24 * time.Hour

	// Alfabeto do código de casal: 36 símbolos, ~31 bits de entropia em 6 chars
	codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	CodeLength   = 6

	randomBytes = 16
)

var (
	tokenRe = regexp.MustCompile(`^token_[a-z0-9]+_[A-Za-z0-9_-]+$`)
	codeRe  = regexp.MustCompile(`^[A-Z0-9]{6}$`)
)

// GenerateAuthToken produz um token opaco de sessão no formato
// token_<timestamp-base36>_<16-bytes-aleatórios-base64url>.
func GenerateAuthToken() string {
	ts := strconv.FormatInt(time.Now().UnixMilli(), 36)
	return "token_" + ts + "_" + secureRandomPart()
}

// secureRandomPart usa crypto/rand; se a fonte segura falhar, degrada para
// math/rand (compromisso documentado: melhor um token fraco que nenhum login)
func secureRandomPart() string {
	b := make([]byte, randomBytes)
	if _, err := rand.Read(b); err != nil {
		for i := range b {
			b[i] = byte(mrand.Intn(256))
		}
	}
	return base64.RawURLEncoding.EncodeToString(b)
}

// IsValidTokenFormat verifica a estrutura em três partes do token
func IsValidTokenFormat(token string) bool {
	return tokenRe.MatchString(token)
}

// IsTokenExpired considera expirado qualquer token com timestamp embutido mais
// velho que 30 dias, ou estruturalmente inválido (falha em direção à
// re-autenticação, nunca em direção ao acesso).
func IsTokenExpired(token string) bool {
	return isTokenExpiredAt(token, time.Now())
}

func isTokenExpiredAt(token string, now time.Time) bool {
	// SplitN: a parte aleatória é base64url e pode conter "_"
	parts := strings.SplitN(token, "_", 3)
	if len(parts) != 3 || parts[0] != "token" {
		return true
	}

	ms, err := strconv.ParseInt(parts[1], 36, 64)
	if err != nil {
		return true
	}

	return time.UnixMilli(ms).Before(now.Add(-TokenTTL))
}

// NewCoupleCode sorteia 6 caracteres de [A-Z0-9] de forma uniforme.
// A unicidade contra o diretório de casais é responsabilidade do chamador.
func NewCoupleCode() string {
	max := big.NewInt(int64(len(codeAlphabet)))
	var sb strings.Builder
	for i := 0; i < CodeLength; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			sb.WriteByte(codeAlphabet[mrand.Intn(len(codeAlphabet))])
			continue
		}
		sb.WriteByte(codeAlphabet[n.Int64()])
	}
	return sb.String()
}

// IsValidCoupleCode valida o formato do código compartilhável
func IsValidCoupleCode(code string) bool {
	return codeRe.MatchString(code)
}
