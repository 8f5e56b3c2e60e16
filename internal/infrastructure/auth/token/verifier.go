// Package token verifies admin credentials: HS256 bearer tokens carrying an
// admin role, and static API keys for automation.
package token

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	stdliberrors "errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/turtacn/ClubDues/internal/config"
	"github.com/turtacn/ClubDues/pkg/errors"
)

var (
	ErrTokenMalformed        = errors.New(errors.ErrCodeUnauthorized, "malformed token")
	ErrTokenExpired          = errors.New(errors.ErrCodeUnauthorized, "token expired")
	ErrTokenInvalidSignature = errors.New(errors.ErrCodeUnauthorized, "invalid token signature")
	ErrTokenInvalidIssuer    = errors.New(errors.ErrCodeUnauthorized, "invalid token issuer")
	ErrMissingRole           = errors.New(errors.ErrCodeForbidden, "admin role required")
	ErrInvalidAPIKey         = errors.New(errors.ErrCodeUnauthorized, "invalid api key")
)

// Claims are the JWT claims accepted by the admin API.
type Claims struct {
	Roles []string `json:"roles"`
	jwt.RegisteredClaims
}

// HasRole reports whether the claims carry role.
func (c *Claims) HasRole(role string) bool {
	for _, r := range c.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Principal is an authenticated admin caller.
type Principal struct {
	Subject string
	Roles   []string
	// Method is "jwt" or "api_key".
	Method string
}

// Verifier checks bearer tokens and API keys against the auth config.
type Verifier struct {
	secret    []byte
	issuer    string
	adminRole string
	apiKeys   [][]byte
	now       func() time.Time
}

// NewVerifier builds a Verifier.  A blank secret disables bearer tokens.
func NewVerifier(cfg config.AuthConfig) *Verifier {
	v := &Verifier{
		secret:    []byte(cfg.JWTSecret),
		issuer:    cfg.Issuer,
		adminRole: cfg.AdminRole,
		now:       time.Now,
	}
	if v.adminRole == "" {
		v.adminRole = "admin"
	}
	for _, k := range cfg.APIKeys {
		if k = strings.TrimSpace(k); k != "" {
			v.apiKeys = append(v.apiKeys, []byte(k))
		}
	}
	return v
}

// WithClock overrides the clock used for expiry checks.
func (v *Verifier) WithClock(now func() time.Time) *Verifier {
	v.now = now
	return v
}

// VerifyToken parses rawToken and requires the admin role.
func (v *Verifier) VerifyToken(rawToken string) (*Principal, error) {
	if len(v.secret) == 0 {
		return nil, ErrTokenInvalidSignature
	}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(v.now),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(rawToken, claims, func(*jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		switch {
		case stdliberrors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrTokenExpired
		case stdliberrors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, ErrTokenInvalidSignature
		case stdliberrors.Is(err, jwt.ErrTokenInvalidIssuer):
			return nil, ErrTokenInvalidIssuer
		case stdliberrors.Is(err, jwt.ErrTokenMalformed):
			return nil, ErrTokenMalformed
		}
		return nil, errors.Wrap(err, errors.ErrCodeUnauthorized, "token verification failed")
	}
	if !parsed.Valid {
		return nil, ErrTokenInvalidSignature
	}
	if !claims.HasRole(v.adminRole) {
		return nil, ErrMissingRole
	}
	return &Principal{Subject: claims.Subject, Roles: claims.Roles, Method: "jwt"}, nil
}

// VerifyAPIKey matches key against the configured keys in constant time.
func (v *Verifier) VerifyAPIKey(key string) (*Principal, error) {
	candidate := []byte(strings.TrimSpace(key))
	if len(candidate) == 0 {
		return nil, ErrInvalidAPIKey
	}
	matched := false
	for _, k := range v.apiKeys {
		if subtle.ConstantTimeCompare(candidate, k) == 1 {
			matched = true
		}
	}
	if !matched {
		return nil, ErrInvalidAPIKey
	}
	return &Principal{Subject: "apikey:" + fingerprint(candidate), Roles: []string{v.adminRole}, Method: "api_key"}, nil
}

// Issue signs a token for subject with the given roles.  Used by the CLI and
// tests to mint admin tokens.
func (v *Verifier) Issue(subject string, roles []string, ttl time.Duration) (string, error) {
	if len(v.secret) == 0 {
		return "", errors.New(errors.ErrCodeInvalidConfig, "jwt secret not configured")
	}
	now := v.now()
	claims := Claims{
		Roles: roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    v.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeInternal, "sign token")
	}
	return signed, nil
}

// AdminRole returns the role required on bearer tokens.
func (v *Verifier) AdminRole() string { return v.adminRole }

// fingerprint identifies an API key in logs without revealing it.
func fingerprint(key []byte) string {
	sum := sha256.Sum256(key)
	return hex.EncodeToString(sum[:4])
}

//Personal.AI order the ending
