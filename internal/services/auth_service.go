package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/AnshRaj112/inframonitor-backend/internal/apperr"
	"github.com/AnshRaj112/inframonitor-backend/internal/models"
	"github.com/AnshRaj112/inframonitor-backend/internal/repository"
	"github.com/AnshRaj112/inframonitor-backend/pkg/utils"
)

type AuthResult struct {
	User  *models.User `json:"user"`
	Token string       `json:"token"`
}

// AuthService owns registration, login and token verification.
type AuthService struct {
	users       repository.UserRepository
	tokens      *TokenManager
	revocations TokenRevocations
	effects     *Effects
	now         func() time.Time
}

func NewAuthService(users repository.UserRepository, tokens *TokenManager, revocations TokenRevocations, effects *Effects) *AuthService {
	return &AuthService{users: users, tokens: tokens, revocations: revocations, effects: effects, now: time.Now}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *AuthService) issue(user *models.User) (*AuthResult, error) {
	token, err := s.tokens.Issue(user.ID.Hex())
	if err != nil {
		return nil, apperr.Internal("Failed to issue token", err)
	}
	return &AuthResult{User: user, Token: token}, nil
}

func (s *AuthService) Register(ctx context.Context, in models.RegisterInput) (*AuthResult, error) {
	email := normalizeEmail(in.Email)

	_, err := s.users.FindByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, apperr.Duplicate("email already in use")
	case !errors.Is(err, apperr.ErrNotFound):
		return nil, apperr.Internal("Failed to check email", err)
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, apperr.Internal("Failed to hash password", err)
	}

	user := models.NewUser(strings.TrimSpace(in.Name), email, hash)
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, apperr.ErrDuplicate) {
			return nil, err
		}
		return nil, apperr.Internal("Failed to create user", err)
	}

	s.effects.dispatch(ctx, func(ctx context.Context) {
		s.effects.notify(ctx, user.ID, NotificationWelcome, map[string]interface{}{"name": user.Name})
	})
	return s.issue(user)
}

func (s *AuthService) Login(ctx context.Context, in models.LoginInput) (*AuthResult, error) {
	invalid := apperr.Unauthorized("Invalid credentials")

	user, err := s.users.FindByEmail(ctx, normalizeEmail(in.Email))
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, invalid
		}
		return nil, apperr.Internal("Failed to load user", err)
	}
	ok, err := utils.VerifyPassword(in.Password, user.PasswordHash)
	if err != nil || !ok {
		return nil, invalid
	}

	now := s.now().UTC()
	if err := s.users.TouchLastLogin(ctx, user.ID, now); err != nil {
		return nil, apperr.Internal("Failed to update last login", err)
	}
	user.LastLogin = &now
	return s.issue(user)
}

// Authenticate resolves a bearer token to its user.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, apperr.Unauthorized("Access denied. No token provided.")
	}
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil, err
	}
	id, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return nil, apperr.Unauthorized("Invalid token")
	}

	if s.revocations != nil {
		cutoff, ok, err := s.revocations.RevokedBefore(ctx, claims.UserID)
		if err != nil {
			return nil, apperr.Internal("Failed to check token status", err)
		}
		if ok && claims.IssuedAtMillis() < cutoff.UnixMilli() {
			return nil, apperr.Unauthorized("Token revoked")
		}
	}

	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.Unauthorized("Invalid token")
		}
		return nil, apperr.Internal("Failed to load user", err)
	}
	return user, nil
}

// ChangePassword verifies the current password, stores the new one and voids older tokens.
func (s *AuthService) ChangePassword(ctx context.Context, user *models.User, in models.ChangePasswordInput) (*AuthResult, error) {
	fresh, err := s.users.FindByID(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	ok, err := utils.VerifyPassword(in.CurrentPassword, fresh.PasswordHash)
	if err != nil || !ok {
		return nil, apperr.Validation("Current password is incorrect",
			apperr.FieldError{Field: "currentPassword", Message: "Current password is incorrect"})
	}

	hash, err := utils.HashPassword(in.NewPassword)
	if err != nil {
		return nil, apperr.Internal("Failed to hash password", err)
	}
	if err := s.users.UpdatePassword(ctx, fresh.ID, hash); err != nil {
		return nil, apperr.Internal("Failed to update password", err)
	}
	fresh.PasswordHash = hash

	if s.revocations != nil {
		if err := s.revocations.RevokeBefore(ctx, fresh.ID.Hex(), s.now()); err != nil {
			s.effects.logger().Warnw("failed to revoke old tokens", "user", fresh.ID.Hex(), "error", err)
		}
	}
	return s.issue(fresh)
}
