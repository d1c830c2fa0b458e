// Package auth verifies Firebase ID tokens against the secure-token JWKS.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"

	"github.com/ManuelReschke/LaunchPad/internal/pkg/config"
)

const (
	// FirebaseJWKSURL serves the public keys for Firebase ID tokens.
	FirebaseJWKSURL = "https://www.googleapis.com/service_accounts/v1/jwk/securetoken@system.gserviceaccount.com"

	// RecentSignInWindow bounds how old a sign-in may be when it is
	// exchanged for a session.
	RecentSignInWindow = 5 * time.Minute

	defaultLeeway = 30 * time.Second
)

var (
	ErrNotConfigured   = errors.New("FIREBASE_PROJECT_ID is not set")
	ErrMissingSubject  = errors.New("token missing sub")
	ErrSignInTooOld    = errors.New("recent sign-in required")
	ErrMissingAuthTime = errors.New("token missing auth_time")
	ErrAccountDeleted  = errors.New("account has been deleted")
)

// Claims are the identity fields read from a verified ID token.
type Claims struct {
	UID           string
	Email         string
	EmailVerified bool
	Name          string
	AuthTime      time.Time
	IssuedAt      time.Time
	ExpiresAt     time.Time
}

// TokenVerifier is what the HTTP layer needs from the verifier.
type TokenVerifier interface {
	Verify(token string) (*Claims, error)
}

// Verifier validates Firebase ID tokens: RS256 signature, issuer
// https://securetoken.google.com/<project> and audience <project>.
type Verifier struct {
	issuer   string
	audience string
	keyfunc  keyfunc.Keyfunc
	parser   *jwt.Parser
}

func NewVerifierFromConfig(cfg config.FirebaseConfig) (*Verifier, error) {
	if strings.TrimSpace(cfg.ProjectID) == "" {
		return nil, ErrNotConfigured
	}
	return NewVerifier(cfg.Issuer(), strings.TrimSpace(cfg.ProjectID), "")
}

// NewVerifier builds a verifier with an optional JWKS URL override.
func NewVerifier(issuer, audience, jwksURL string) (*Verifier, error) {
	issuer = strings.TrimSpace(issuer)
	if issuer == "" {
		return nil, errors.New("issuer must be set")
	}
	if audience == "" {
		return nil, errors.New("audience must be set")
	}
	if jwksURL == "" {
		jwksURL = FirebaseJWKSURL
	}

	keyProvider, err := keyfunc.NewDefault([]string{jwksURL})
	if err != nil {
		return nil, fmt.Errorf("failed to init JWKS keyfunc: %w", err)
	}

	parser := jwt.NewParser(
		jwt.WithIssuer(issuer),
		jwt.WithAudience(audience),
		jwt.WithLeeway(defaultLeeway),
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Name}),
	)

	return &Verifier{
		issuer:   issuer,
		audience: audience,
		keyfunc:  keyProvider,
		parser:   parser,
	}, nil
}

func (v *Verifier) Verify(tokenString string) (*Claims, error) {
	token, err := v.parser.Parse(tokenString, v.keyfunc.Keyfunc)
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}

	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid token claims")
	}

	claims := &Claims{
		UID:           readString(mapClaims, "sub"),
		Email:         readString(mapClaims, "email"),
		EmailVerified: readBool(mapClaims, "email_verified"),
		Name:          readString(mapClaims, "name"),
		AuthTime:      readUnix(mapClaims["auth_time"]),
		IssuedAt:      readUnix(mapClaims["iat"]),
		ExpiresAt:     readUnix(mapClaims["exp"]),
	}
	if claims.UID == "" || len(claims.UID) > 128 {
		return nil, ErrMissingSubject
	}
	return claims, nil
}

// CheckRecentSignIn rejects tokens whose sign-in happened more than
// window before now.
func CheckRecentSignIn(claims *Claims, now time.Time, window time.Duration) error {
	if claims == nil || claims.AuthTime.IsZero() {
		return ErrMissingAuthTime
	}
	if now.Sub(claims.AuthTime) > window {
		return ErrSignInTooOld
	}
	return nil
}

func readString(claims jwt.MapClaims, key string) string {
	if s, ok := claims[key].(string); ok {
		return s
	}
	return ""
}

func readBool(claims jwt.MapClaims, key string) bool {
	b, _ := claims[key].(bool)
	return b
}

func readUnix(raw any) time.Time {
	switch v := raw.(type) {
	case float64:
		return time.Unix(int64(v), 0)
	case int64:
		return time.Unix(v, 0)
	}
	return time.Time{}
}
