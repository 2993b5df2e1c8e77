package pkce

import (
	"errors"
	"strings"
	"testing"
)

func TestGenerateVerifier(t *testing.T) {
	t.Run("lengths", func(t *testing.T) {
		tc := []struct {
			name    string
			length  int
			wantErr bool
		}{
			{name: "minimum", length: 43},
			{name: "default", length: VerifierLength},
			{name: "maximum", length: 128},
			{name: "too short", length: 42, wantErr: true},
			{name: "too long", length: 129, wantErr: true},
			{name: "zero", length: 0, wantErr: true},
		}

		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				v, err := GenerateVerifier(tt.length)
				if tt.wantErr {
					if !errors.Is(err, ErrInvalidLength) {
						t.Fatalf("expected ErrInvalidLength, got %v", err)
					}
					return
				}
				if err != nil {
					t.Fatalf("GenerateVerifier() error = %v", err)
				}
				if len(v) != tt.length {
					t.Errorf("len = %d, want %d", len(v), tt.length)
				}
			})
		}
	})

	t.Run("alphabet only", func(t *testing.T) {
		for range 50 {
			v, err := GenerateVerifier(VerifierLength)
			if err != nil {
				t.Fatalf("GenerateVerifier() error = %v", err)
			}
			for _, r := range v {
				if !strings.ContainsRune(Alphabet, r) {
					t.Fatalf("verifier %q contains %q outside the alphabet", v, r)
				}
			}
		}
	})

	t.Run("distinct", func(t *testing.T) {
		seen := make(map[string]bool)
		for range 100 {
			v, _ := GenerateVerifier(VerifierLength)
			if seen[v] {
				t.Fatalf("duplicate verifier %q", v)
			}
			seen[v] = true
		}
	})
}

func TestDeriveChallenge(t *testing.T) {
	t.Run("RFC 7636 appendix B", func(t *testing.T) {
		got := DeriveChallenge("dBjftJeZ4CVP-mB92K27uhbUJU1p1r_wW1gFWFOEjXk")
		want := "E9Melhoa2OwvFrEMTJguCHaoeK1t8URWbuGJSstw-cM"
		if got != want {
			t.Errorf("DeriveChallenge() = %q, want %q", got, want)
		}
	})

	t.Run("url safe without padding", func(t *testing.T) {
		c := DeriveChallenge("abc")
		if len(c) != 43 {
			t.Errorf("len = %d, want 43", len(c))
		}
		if strings.ContainsAny(c, "+/=") {
			t.Errorf("challenge %q is not base64url without padding", c)
		}
	})

	t.Run("deterministic", func(t *testing.T) {
		if DeriveChallenge("same") != DeriveChallenge("same") {
			t.Error("challenge should be deterministic")
		}
	})
}

func TestNew(t *testing.T) {
	c, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if len(c.Verifier) != VerifierLength {
		t.Errorf("verifier length = %d", len(c.Verifier))
	}
	if c.Challenge != DeriveChallenge(c.Verifier) {
		t.Error("challenge does not match verifier")
	}
}
