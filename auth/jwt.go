package auth

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
)

const bearerPrefix = "Bearer "

// ErrAuthDisabled is returned when no Neon Auth base URL is configured.
var ErrAuthDisabled = errors.New("NEON_AUTH_BASE_URL is not set")

// Verifier validates JWTs from Neon Auth. The JWKS keyfunc is built on first use
// and cached for the life of the Verifier.
type Verifier struct {
	jwksURL string
	issuer  string

	once    sync.Once
	keyFunc jwt.Keyfunc
	initErr error
}

// NewVerifier returns a Verifier for the Neon Auth instance at baseURL.
func NewVerifier(baseURL string) (*Verifier, error) {
	baseURL = strings.TrimRight(baseURL, "/")
	if baseURL == "" {
		return nil, ErrAuthDisabled
	}
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q", baseURL)
	}
	return &Verifier{
		jwksURL: baseURL + "/.well-known/jwks.json",
		issuer:  u.Scheme + "://" + u.Host,
	}, nil
}

// NewVerifierWithKeyfunc returns a Verifier that resolves signing keys with kf
// instead of fetching a JWKS.
func NewVerifierWithKeyfunc(issuer string, kf jwt.Keyfunc) *Verifier {
	v := &Verifier{issuer: issuer, keyFunc: kf}
	v.once.Do(func() {})
	return v
}

func (v *Verifier) keyfunc() (jwt.Keyfunc, error) {
	v.once.Do(func() {
		jwks, err := keyfunc.NewDefault([]string{v.jwksURL})
		if err != nil {
			v.initErr = err
			return
		}
		v.keyFunc = jwks.Keyfunc
	})
	return v.keyFunc, v.initErr
}

// Validate parses and verifies tokenString and returns its claims.
func (v *Verifier) Validate(tokenString string) (jwt.MapClaims, error) {
	if v == nil {
		return nil, ErrAuthDisabled
	}
	kf, err := v.keyfunc()
	if err != nil {
		return nil, err
	}
	token, err := jwt.Parse(tokenString, kf,
		jwt.WithIssuer(v.issuer),
		jwt.WithValidMethods([]string{"EdDSA"}))
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	return claims, nil
}

// UserID validates tokenString and returns the user id it carries.
func (v *Verifier) UserID(tokenString string) (string, error) {
	claims, err := v.Validate(tokenString)
	if err != nil {
		return "", err
	}
	id := UserIDFromClaims(claims)
	if id == "" {
		return "", fmt.Errorf("token has no subject")
	}
	return id, nil
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header.
func BearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if !strings.HasPrefix(h, bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(h[len(bearerPrefix):])
}

// FirstNameFromClaims returns the first word of the "name" claim, or a fallback.
func FirstNameFromClaims(claims jwt.MapClaims) string {
	name, _ := claims["name"].(string)
	parts := strings.Fields(name)
	if len(parts) > 0 {
		return parts[0]
	}
	return "Player"
}

// UserIDFromClaims returns the user id from claims ("sub" or "id").
func UserIDFromClaims(claims jwt.MapClaims) string {
	if sub, ok := claims["sub"].(string); ok && sub != "" {
		return sub
	}
	if id, ok := claims["id"].(string); ok && id != "" {
		return id
	}
	return ""
}
