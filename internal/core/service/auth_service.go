package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/taskmanagement/task-system/internal/core/domain"
	"github.com/taskmanagement/task-system/internal/core/ports"
	"github.com/taskmanagement/task-system/internal/pkg/metrics"
)

// AuthService implements sign-up and sign-in.
type AuthService struct {
	repo   ports.UserRepository
	tokens *TokenService
	log    zerolog.Logger
}

func NewAuthService(repo ports.UserRepository, tokens *TokenService, log zerolog.Logger) *AuthService {
	return &AuthService{repo: repo, tokens: tokens, log: log}
}

// SignUp registers a user and issues a token for it. Duplicates are rejected
// before any token is issued.
func (s *AuthService) SignUp(ctx context.Context, username, email, password string) (string, *domain.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if username == "" || email == "" || password == "" {
		return "", nil, domain.ErrInvalidCredentials
	}

	if exists, err := s.repo.ExistsByUsername(ctx, username); err != nil {
		return "", nil, fmt.Errorf("sign up: %w", err)
	} else if exists {
		return "", nil, fmt.Errorf("sign up: username %q: %w", username, domain.ErrUserExists)
	}
	if exists, err := s.repo.ExistsByEmail(ctx, email); err != nil {
		return "", nil, fmt.Errorf("sign up: %w", err)
	} else if exists {
		return "", nil, fmt.Errorf("sign up: email %q: %w", email, domain.ErrUserExists)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", nil, err
	}

	now := time.Now().UTC()
	created, err := s.repo.Create(ctx, &domain.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		// The unique indexes catch a concurrent sign-up that passed the checks above.
		return "", nil, fmt.Errorf("sign up: %w", err)
	}

	token, err := s.tokens.Issue(created)
	if err != nil {
		return "", nil, fmt.Errorf("sign up: issue token: %w", err)
	}
	metrics.TokensIssuedTotal.WithLabelValues("sign_up").Inc()

	s.log.Info().Str("user_id", created.ID).Str("username", created.Username).Msg("user registered")
	return token, created, nil
}

// SignIn checks the password of the user registered under email.
func (s *AuthService) SignIn(ctx context.Context, email, password string) (string, *domain.User, error) {
	if email == "" || password == "" {
		return "", nil, domain.ErrInvalidCredentials
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return "", nil, domain.ErrUserNotFound
		}
		return "", nil, fmt.Errorf("sign in: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return "", nil, domain.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return "", nil, fmt.Errorf("sign in: issue token: %w", err)
	}
	metrics.TokensIssuedTotal.WithLabelValues("sign_in").Inc()

	return token, user, nil
}
