package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidToken indicates the token failed signature checks or had
	// malformed structure.
	ErrInvalidToken = errors.New("invalid token")
	// ErrExpiredToken signals that the token's expiry is in the past.
	ErrExpiredToken = errors.New("token expired")
)

// Identity is the authenticated principal carried by a session token.
type Identity struct {
	ProfileID   int64
	DisplayName string
}

// tokenClaims is the internal claims type used for JWT parsing.
type tokenClaims struct {
	jwt.RegisteredClaims
	ProfileID   int64  `json:"profileId"`
	DisplayName string `json:"displayName"`
}

// Verifier validates compact HS256 session tokens and extracts the identity
// claims the gateway needs.
type Verifier struct {
	secret []byte
	leeway time.Duration
	now    func() time.Time
}

// NewVerifier constructs a verifier for the supplied shared secret and clock
// skew allowance.
func NewVerifier(secret string, leeway time.Duration) (*Verifier, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil, errors.New("auth secret must not be empty")
	}
	if leeway < 0 {
		leeway = 0
	}
	return &Verifier{secret: []byte(secret), leeway: leeway, now: time.Now}, nil
}

// WithClock overrides the verifier clock, enabling deterministic unit tests.
func (v *Verifier) WithClock(clock func() time.Time) {
	if clock == nil {
		return
	}
	v.now = clock
}

// Validate reports whether the token is well formed, signed with the shared
// secret and unexpired.
func (v *Verifier) Validate(token string) bool {
	_, err := v.Claims(token)
	return err == nil
}

// Claims parses the token, validates it and returns the embedded identity.
func (v *Verifier) Claims(token string) (Identity, error) {
	if v == nil || len(v.secret) == 0 {
		return Identity{}, errors.New("verifier not initialised")
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return Identity{}, ErrInvalidToken
	}

	claims := &tokenClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims,
		func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("%w: unexpected algorithm %q", ErrInvalidToken, t.Method.Alg())
			}
			return v.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(v.leeway),
		jwt.WithTimeFunc(func() time.Time { return v.now() }),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Identity{}, ErrExpiredToken
		}
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !parsed.Valid {
		return Identity{}, ErrInvalidToken
	}
	if claims.ProfileID <= 0 {
		return Identity{}, fmt.Errorf("%w: missing profile id", ErrInvalidToken)
	}
	name := strings.TrimSpace(claims.DisplayName)
	if name == "" {
		name = strings.TrimSpace(claims.Subject)
	}
	return Identity{ProfileID: claims.ProfileID, DisplayName: name}, nil
}
