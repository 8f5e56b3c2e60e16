// Package middleware holds the chi middleware of the HTTP surface.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/turtacn/ClubDues/internal/infrastructure/auth/token"
	"github.com/turtacn/ClubDues/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ClubDues/internal/interfaces/http/response"
	"github.com/turtacn/ClubDues/pkg/errors"
	"github.com/turtacn/ClubDues/pkg/types/common"
)

type contextKey int

const principalContextKey contextKey = iota

// HeaderAPIKey carries a static admin API key.
const HeaderAPIKey = "X-API-Key"

var errMissingCredentials = errors.New(errors.ErrCodeUnauthorized, "authentication required")

// CredentialVerifier checks admin credentials.  *token.Verifier satisfies it.
type CredentialVerifier interface {
	VerifyToken(rawToken string) (*token.Principal, error)
	VerifyAPIKey(key string) (*token.Principal, error)
}

// AuthMiddleware guards the admin API.  A bearer token is tried first; the
// API key header is the fallback.
type AuthMiddleware struct {
	verifier CredentialVerifier
	logger   logging.Logger
}

// NewAuthMiddleware creates an AuthMiddleware.
func NewAuthMiddleware(verifier CredentialVerifier, logger logging.Logger) *AuthMiddleware {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &AuthMiddleware{verifier: verifier, logger: logger}
}

// Handler rejects requests without valid admin credentials.  On success the
// principal subject becomes the request actor.
func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var (
			p   *token.Principal
			err error
		)
		switch {
		case extractBearerToken(r) != "":
			p, err = m.verifier.VerifyToken(extractBearerToken(r))
		case r.Header.Get(HeaderAPIKey) != "":
			p, err = m.verifier.VerifyAPIKey(r.Header.Get(HeaderAPIKey))
		default:
			err = errMissingCredentials
		}
		if err != nil {
			m.logger.Warn("authentication failed",
				logging.String("path", r.URL.Path),
				logging.String("ip", r.RemoteAddr),
				logging.Err(err),
			)
			if errors.IsCode(err, errors.ErrCodeUnauthorized) {
				w.Header().Set("WWW-Authenticate", "Bearer")
			}
			response.Error(w, err)
			return
		}

		ctx := context.WithValue(r.Context(), principalContextKey, p)
		ctx = common.WithActor(ctx, p.Subject)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// PrincipalFromContext returns the authenticated admin, or nil.
func PrincipalFromContext(ctx context.Context) *token.Principal {
	p, _ := ctx.Value(principalContextKey).(*token.Principal)
	return p
}

func extractBearerToken(r *http.Request) string {
	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

//Personal.AI order the ending
