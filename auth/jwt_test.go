package auth

import (
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testIssuer = "https://auth.example.com"

func newTestVerifier(t *testing.T) (*Verifier, ed25519.PrivateKey) {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	v := NewVerifierWithKeyfunc(testIssuer, func(*jwt.Token) (interface{}, error) {
		return pub, nil
	})
	return v, priv
}

func sign(t *testing.T, key ed25519.PrivateKey, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims).SignedString(key)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestNewVerifier(t *testing.T) {
	if _, err := NewVerifier(""); !errors.Is(err, ErrAuthDisabled) {
		t.Errorf("expected ErrAuthDisabled, got %v", err)
	}
	if _, err := NewVerifier("not a url"); err == nil {
		t.Error("expected error for invalid base URL")
	}

	v, err := NewVerifier("https://auth.example.com/neondb/auth/")
	if err != nil {
		t.Fatal(err)
	}
	if v.issuer != testIssuer {
		t.Errorf("expected issuer %q, got %q", testIssuer, v.issuer)
	}
	if v.jwksURL != "https://auth.example.com/neondb/auth/.well-known/jwks.json" {
		t.Errorf("unexpected JWKS URL %q", v.jwksURL)
	}
}

func TestUserID_ValidToken(t *testing.T) {
	v, key := newTestVerifier(t)
	token := sign(t, key, jwt.MapClaims{
		"sub":  "user-42",
		"iss":  testIssuer,
		"name": "Ada Lovelace",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})

	id, err := v.UserID(token)
	if err != nil {
		t.Fatalf("UserID: %v", err)
	}
	if id != "user-42" {
		t.Errorf("expected user-42, got %q", id)
	}
}

func TestValidate_Rejections(t *testing.T) {
	v, key := newTestVerifier(t)
	_, otherKey, _ := ed25519.GenerateKey(rand.Reader)
	exp := time.Now().Add(time.Hour).Unix()

	cases := map[string]string{
		"wrong issuer": sign(t, key, jwt.MapClaims{"sub": "u", "iss": "https://evil.example.com", "exp": exp}),
		"expired":      sign(t, key, jwt.MapClaims{"sub": "u", "iss": testIssuer, "exp": time.Now().Add(-time.Hour).Unix()}),
		"wrong key":    sign(t, otherKey, jwt.MapClaims{"sub": "u", "iss": testIssuer, "exp": exp}),
		"garbage":      "not.a.jwt",
	}
	for name, token := range cases {
		if _, err := v.Validate(token); err == nil {
			t.Errorf("%s: expected validation error", name)
		}
	}
}

func TestUserID_MissingSubject(t *testing.T) {
	v, key := newTestVerifier(t)
	token := sign(t, key, jwt.MapClaims{"iss": testIssuer, "exp": time.Now().Add(time.Hour).Unix()})

	if _, err := v.UserID(token); err == nil {
		t.Error("expected error for token without subject")
	}
}

func TestNilVerifier(t *testing.T) {
	var v *Verifier
	if _, err := v.UserID("anything"); !errors.Is(err, ErrAuthDisabled) {
		t.Errorf("expected ErrAuthDisabled, got %v", err)
	}
}

func TestBearerToken(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/history", nil)
	if got := BearerToken(r); got != "" {
		t.Errorf("expected empty token, got %q", got)
	}
	r.Header.Set("Authorization", "Basic abc")
	if got := BearerToken(r); got != "" {
		t.Errorf("expected empty token for Basic auth, got %q", got)
	}
	r.Header.Set("Authorization", "Bearer  abc.def ")
	if got := BearerToken(r); got != "abc.def" {
		t.Errorf("expected 'abc.def', got %q", got)
	}
}

func TestClaimsHelpers(t *testing.T) {
	if got := FirstNameFromClaims(jwt.MapClaims{"name": "  Grace Hopper "}); got != "Grace" {
		t.Errorf("expected Grace, got %q", got)
	}
	if got := FirstNameFromClaims(jwt.MapClaims{}); got != "Player" {
		t.Errorf("expected fallback, got %q", got)
	}
	if got := UserIDFromClaims(jwt.MapClaims{"id": "abc"}); got != "abc" {
		t.Errorf("expected id fallback, got %q", got)
	}
	if got := UserIDFromClaims(jwt.MapClaims{"sub": "s", "id": "abc"}); got != "s" {
		t.Errorf("expected sub to win, got %q", got)
	}
}
