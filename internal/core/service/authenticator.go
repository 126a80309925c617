package service

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"github.com/taskmanagement/task-system/internal/core/domain"
	"github.com/taskmanagement/task-system/internal/core/ports"
	"github.com/taskmanagement/task-system/internal/pkg/metrics"
)

// BearerPrefix is the required prefix of the Authorization header value.
const BearerPrefix = "Bearer "

// Authenticator turns an Authorization header into an optional verified
// caller. It never rejects a request; protected operations check for the
// caller themselves.
type Authenticator struct {
	tokens *TokenService
	users  ports.UserRepository
	log    zerolog.Logger
}

func NewAuthenticator(tokens *TokenService, users ports.UserRepository, log zerolog.Logger) *Authenticator {
	return &Authenticator{tokens: tokens, users: users, log: log}
}

// Establish returns the caller identified by authHeader, or nil when the
// request is anonymous: no header, a non-bearer header, an invalid or expired
// token, or a subject unknown to the credential store. A non-nil error means
// the credential store itself failed; the caller is still nil.
func (a *Authenticator) Establish(ctx context.Context, authHeader string) (*domain.Caller, error) {
	if authHeader == "" || !strings.HasPrefix(authHeader, BearerPrefix) {
		metrics.AuthenticationsTotal.WithLabelValues("anonymous").Inc()
		return nil, nil
	}

	token := authHeader[len(BearerPrefix):]
	claims, err := a.tokens.Validate(token)
	if err != nil || claims.Subject == "" {
		metrics.AuthenticationsTotal.WithLabelValues("invalid_token").Inc()
		return nil, nil
	}

	user, err := a.users.FindByEmail(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			a.log.Debug().Str("subject", claims.Subject).Msg("token subject not in credential store")
			metrics.AuthenticationsTotal.WithLabelValues("unknown_identity").Inc()
			return nil, nil
		}
		metrics.AuthenticationsTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	if !a.tokens.IsValid(token, user.Email) {
		metrics.AuthenticationsTotal.WithLabelValues("invalid_token").Inc()
		return nil, nil
	}

	metrics.AuthenticationsTotal.WithLabelValues("authenticated").Inc()
	return domain.NewCaller(user), nil
}
