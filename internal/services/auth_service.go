package services

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/yoockh/resumerank/internal/models"
	pgrepo "github.com/yoockh/resumerank/internal/repositories/postgres"
	"github.com/yoockh/resumerank/internal/token"
	"github.com/yoockh/resumerank/internal/utils"
)

// AuthResult is returned by signup and login.
type AuthResult struct {
	User         *models.User `json:"user"`
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
}

type AuthService interface {
	Register(ctx context.Context, email, password string, fullName *string) (*AuthResult, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	Refresh(ctx context.Context, refreshToken string) (string, error)
	Me(ctx context.Context, userID string) (*models.User, error)
	UpdateProfile(ctx context.Context, userID string, fullName *string) (*models.User, error)
}

type authService struct {
	users  pgrepo.UserRepository
	tokens *token.Manager
}

func NewAuthService(users pgrepo.UserRepository, tokens *token.Manager) AuthService {
	return &authService{users: users, tokens: tokens}
}

func normalizeEmail(email string) (string, bool) {
	email = strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", false
	}
	return email, true
}

func (s *authService) Register(ctx context.Context, email, password string, fullName *string) (*AuthResult, error) {
	const op = "AuthService.Register"

	email, ok := normalizeEmail(email)
	if !ok {
		return nil, utils.E(utils.CodeInvalidArgument, op, "a valid email is required", nil)
	}
	if len(password) < utils.MinPasswordLength {
		return nil, utils.E(utils.CodeInvalidArgument, op, "password must be at least 6 characters", nil)
	}
	if len(password) > utils.MaxPasswordLength {
		return nil, utils.E(utils.CodeInvalidArgument, op, "password must be at most 72 bytes", nil)
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to hash password", err)
	}

	now := time.Now().UTC()
	u := &models.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		FullName:     trimmedOrNil(fullName),
		Role:         models.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, utils.ErrDuplicate) {
			return nil, utils.E(utils.CodeConflict, op, "email already registered", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to create user", err)
	}
	return s.issue(op, u)
}

func (s *authService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	const op = "AuthService.Login"

	email = strings.ToLower(strings.TrimSpace(email))
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeUnauthorized, op, "invalid credentials", nil)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to load user", err)
	}
	if !utils.CheckPassword(u.PasswordHash, password) {
		return nil, utils.E(utils.CodeUnauthorized, op, "invalid credentials", nil)
	}
	return s.issue(op, u)
}

func (s *authService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	const op = "AuthService.Refresh"

	id, err := s.tokens.VerifyKind(refreshToken, token.KindRefresh)
	if err != nil {
		return "", utils.E(utils.CodeUnauthorized, op, "invalid refresh token", err)
	}
	if _, err := s.users.GetByID(ctx, id.UserID); err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return "", utils.E(utils.CodeUnauthorized, op, "invalid refresh token", err)
		}
		return "", utils.E(utils.CodeInternal, op, "failed to load user", err)
	}

	access, err := s.tokens.IssueAccessToken(id.UserID, id.Email)
	if err != nil {
		return "", utils.E(utils.CodeInternal, op, "failed to issue token", err)
	}
	return access, nil
}

func (s *authService) Me(ctx context.Context, userID string) (*models.User, error) {
	const op = "AuthService.Me"

	if userID == "" {
		return nil, utils.E(utils.CodeUnauthorized, op, "missing user", nil)
	}
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "user not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to load user", err)
	}
	return u, nil
}

func (s *authService) UpdateProfile(ctx context.Context, userID string, fullName *string) (*models.User, error) {
	const op = "AuthService.UpdateProfile"

	if err := s.users.UpdateFullName(ctx, userID, trimmedOrNil(fullName)); err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "user not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to update user", err)
	}
	return s.Me(ctx, userID)
}

func (s *authService) issue(op string, u *models.User) (*AuthResult, error) {
	access, err := s.tokens.IssueAccessToken(u.ID, u.Email)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to issue token", err)
	}
	refresh, err := s.tokens.IssueRefreshToken(u.ID, u.Email)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to issue token", err)
	}
	return &AuthResult{User: u, AccessToken: access, RefreshToken: refresh}, nil
}

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
