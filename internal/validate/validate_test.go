package validate

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestAmount(t *testing.T) {
	reject := []string{"0", "-5", "abc", "2000000", "", "  "}
	for _, in := range reject {
		if _, err := Amount(in); err == nil {
			t.Errorf("Amount(%q) accepted, want rejection", in)
		}
	}

	accept := []struct {
		in   string
		want float64
	}{
		{"500", 500},
		{"500.005", 500.01}, // half-up em 2 casas
		{"0.01", 0.01},
		{"1000000", 1000000},
		{"99.999", 100.00},
		{"123.454", 123.45},
	}
	for _, c := range accept {
		got, err := Amount(c.in)
		if err != nil {
			t.Errorf("Amount(%q) rejected: %v", c.in, err)
			continue
		}
		if got != c.want {
			t.Errorf("Amount(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestAmountErrorType(t *testing.T) {
	_, err := Amount("abc")
	var verr *Error
	if !errors.As(err, &verr) {
		t.Fatalf("Amount error is %T, want *validate.Error", err)
	}
	if verr.Field != "amount" {
		t.Errorf("error field = %q, want amount", verr.Field)
	}
}

func TestSanitizeString(t *testing.T) {
	cases := []struct{ in, want string }{
		{"  Pizza  ", "Pizza"},
		{"<script>alert(1)</script>", "scriptalert(1)/script"},
		{`quem "ganha" o jogo?`, "quem ganha o jogo?"},
		{"it's on", "its on"},
	}
	for _, c := range cases {
		if got := SanitizeString(c.in); got != c.want {
			t.Errorf("SanitizeString(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestTextBounds(t *testing.T) {
	if _, err := Title(""); err == nil {
		t.Error("empty title accepted")
	}
	if _, err := Title("   "); err == nil {
		t.Error("whitespace-only title accepted")
	}
	if _, err := Title(strings.Repeat("x", MaxTitleLen+1)); err == nil {
		t.Error("over-length title accepted")
	}
	if _, err := Name(strings.Repeat("x", MaxNameLen)); err != nil {
		t.Error("max-length name rejected")
	}
	if _, err := Option("option_a", strings.Repeat("y", MaxOptionLen)); err != nil {
		t.Error("max-length option rejected")
	}

	// limites contam runas: 50 caracteres acentuados são 100 bytes
	if _, err := Name(strings.Repeat("ã", MaxNameLen)); err != nil {
		t.Error("max-length multibyte name rejected")
	}
	if _, err := Name(strings.Repeat("ã", MaxNameLen+1)); err == nil {
		t.Error("over-length multibyte name accepted")
	}
}

func TestSanitizeTruncatesByRunes(t *testing.T) {
	in := strings.Repeat("é", 1005)
	got := SanitizeString(in)
	if utf8.RuneCountInString(got) != 1000 {
		t.Fatalf("truncated to %d runes, want 1000", utf8.RuneCountInString(got))
	}
	if !utf8.ValidString(got) {
		t.Fatal("truncation split a UTF-8 sequence")
	}
}

func TestCoupleCode(t *testing.T) {
	got, err := CoupleCode("  x7k2m9 ")
	if err != nil || got != "X7K2M9" {
		t.Errorf("CoupleCode normalization = %q, %v", got, err)
	}
	for _, bad := range []string{"X7K2M", "X7K2M9A", "X7K2M!", ""} {
		if _, err := CoupleCode(bad); err == nil {
			t.Errorf("CoupleCode(%q) accepted", bad)
		}
	}
}

func TestChoiceAndStatus(t *testing.T) {
	for _, in := range []string{"a", "B", " a "} {
		if _, err := Choice("creatorChoice", in); err != nil {
			t.Errorf("Choice(%q) rejected: %v", in, err)
		}
	}
	for _, in := range []string{"c", "", "ab"} {
		if _, err := Choice("creatorChoice", in); err == nil {
			t.Errorf("Choice(%q) accepted", in)
		}
	}

	if _, err := Status("Active"); err != nil {
		t.Error("Status normalization failed")
	}
	if _, err := Status("deleted"); err == nil {
		t.Error(`Status("deleted") accepted`)
	}
}
