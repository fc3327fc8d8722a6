package token

import (
	"strconv"
	"strings"
	"testing"
	"time"
)

func TestGenerateAuthTokenFormat(t *testing.T) {
	for i := 0; i < 50; i++ {
		tok := GenerateAuthToken()
		if !IsValidTokenFormat(tok) {
			t.Fatalf("generated token has invalid format: %q", tok)
		}
		if IsTokenExpired(tok) {
			t.Fatalf("freshly generated token reported expired: %q", tok)
		}
	}
}

func TestTokenUniqueness(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 200; i++ {
		tok := GenerateAuthToken()
		if _, ok := seen[tok]; ok {
			t.Fatalf("duplicate token generated: %q", tok)
		}
		seen[tok] = struct{}{}
	}
}

func TestIsValidTokenFormat(t *testing.T) {
	cases := []struct {
		token string
		want  bool
	}{
		{"token_abc123_XyZ-_9", true},
		{"token__abc", false},
		{"token_abc123", false},
		{"bearer_abc123_xyz", false},
		{"token_ABC_xyz", false}, // timestamp base36 é minúsculo
		{"", false},
	}
	for _, c := range cases {
		if got := IsValidTokenFormat(c.token); got != c.want {
			t.Errorf("IsValidTokenFormat(%q) = %v, want %v", c.token, got, c.want)
		}
	}
}

func TestIsTokenExpired(t *testing.T) {
	now := time.Now()

	fresh := "token_" + strconv.FormatInt(now.UnixMilli(), 36) + "_abcDEF123"
	if isTokenExpiredAt(fresh, now) {
		t.Error("fresh token should not be expired")
	}

	// A parte aleatória é base64url e pode conter "_"; o parse não pode
	// tratar isso como estrutura quebrada
	underscored := "token_" + strconv.FormatInt(now.UnixMilli(), 36) + "_abc_DEF-12_3"
	if isTokenExpiredAt(underscored, now) {
		t.Error("fresh token with underscores in the random part should not be expired")
	}

	// 29 dias: ainda válido; 31 dias: expirado
	almost := "token_" + strconv.FormatInt(now.Add(-29*24*time.Hour).UnixMilli(), 36) + "_abcDEF123"
	if isTokenExpiredAt(almost, now) {
		t.Error("29-day-old token should not be expired")
	}

	old := "token_" + strconv.FormatInt(now.Add(-31*24*time.Hour).UnixMilli(), 36) + "_abcDEF123"
	if !isTokenExpiredAt(old, now) {
		t.Error("31-day-old token should be expired")
	}

	// Tokens malformados contam como expirados (falha pra re-autenticação)
	for _, bad := range []string{"", "garbage", "token_!!_x", "token_abc"} {
		if !isTokenExpiredAt(bad, now) {
			t.Errorf("malformed token %q should count as expired", bad)
		}
	}
}

func TestNewCoupleCode(t *testing.T) {
	for i := 0; i < 100; i++ {
		code := NewCoupleCode()
		if len(code) != CodeLength {
			t.Fatalf("code %q has length %d, want %d", code, len(code), CodeLength)
		}
		if !IsValidCoupleCode(code) {
			t.Fatalf("generated code %q failed validation", code)
		}
		for _, r := range code {
			if !strings.ContainsRune(codeAlphabet, r) {
				t.Fatalf("code %q contains %q outside alphabet", code, r)
			}
		}
	}
}

func TestIsValidCoupleCode(t *testing.T) {
	valid := []string{"X7K2M9", "AAAAAA", "000000"}
	invalid := []string{"x7k2m9", "X7K2M", "X7K2M9A", "X7K2M!", ""}

	for _, c := range valid {
		if !IsValidCoupleCode(c) {
			t.Errorf("IsValidCoupleCode(%q) = false, want true", c)
		}
	}
	for _, c := range invalid {
		if IsValidCoupleCode(c) {
			t.Errorf("IsValidCoupleCode(%q) = true, want false", c)
		}
	}
}
