package auth

import (
	"context"
	"time"

	"golang.org/x/crypto/bcrypt"

	"retailcore/internal/core/apperror"
	"retailcore/internal/core/id"
	"retailcore/pkg/logger"
)

// Service provides login and user provisioning.
type Service struct {
	repo   Repository
	tokens *JWTService
}

// NewService creates a new auth service.
func NewService(repo Repository, tokens *JWTService) *Service {
	return &Service{repo: repo, tokens: tokens}
}

// Login verifies credentials and issues a bearer token.
func (s *Service) Login(ctx context.Context, username, password string) (string, *User, error) {
	u, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if apperror.IsNotFound(err) {
			return "", nil, apperror.NewUnauthorized("invalid credentials")
		}
		return "", nil, err
	}
	if !u.Active {
		return "", nil, apperror.NewUnauthorized("account is disabled")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return "", nil, apperror.NewUnauthorized("invalid credentials")
	}

	token, err := s.tokens.Generate(u)
	if err != nil {
		return "", nil, apperror.NewInternal(err)
	}

	logger.Info(ctx, "user logged in", "user_id", u.ID, "username", u.Username)
	return token, u, nil
}

// CreateUser provisions an account with a bcrypt-hashed password.
func (s *Service) CreateUser(ctx context.Context, username, password, fullName, role string) (*User, error) {
	if username == "" {
		return nil, apperror.NewValidation("username is required").WithDetail("field", "username")
	}
	if len(password) < 8 {
		return nil, apperror.NewValidation("password must be at least 8 characters").WithDetail("field", "password")
	}

	if _, err := s.repo.GetByUsername(ctx, username); err == nil {
		return nil, apperror.NewDuplicate("user", "username", username)
	} else if !apperror.IsNotFound(err) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperror.NewInternal(err)
	}

	u := &User{
		ID:           id.New(),
		Username:     username,
		PasswordHash: string(hash),
		FullName:     fullName,
		Role:         role,
		Active:       true,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// GetByID retrieves a user.
func (s *Service) GetByID(ctx context.Context, userID id.ID) (*User, error) {
	return s.repo.GetByID(ctx, userID)
}

// ValidateToken verifies a bearer token.
func (s *Service) ValidateToken(token string) (*Claims, error) {
	claims, err := s.tokens.Validate(token)
	if err != nil {
		return nil, apperror.NewUnauthorized("invalid or expired token").WithCause(err)
	}
	return claims, nil
}
