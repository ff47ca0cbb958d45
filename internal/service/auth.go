package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/iliyamo/cinema-ticketing/internal/apperr"
	"github.com/iliyamo/cinema-ticketing/internal/model"
	"github.com/iliyamo/cinema-ticketing/internal/repository"
	"github.com/iliyamo/cinema-ticketing/internal/utils"
)

// TokenSettings configures token issuance.
type TokenSettings struct {
	Secret         string
	AccessTTLMin   int
	RefreshTTLDays int
}

// AuthResult is returned by every operation that issues tokens.
type AuthResult struct {
	User    *model.User        `json:"user"`
	Access  utils.AccessToken  `json:"access"`
	Refresh utils.RefreshToken `json:"refresh"`
}

// AuthService issues and rotates access/refresh token pairs.
type AuthService struct {
	users    *UserService
	tokens   TokenRepository
	tx       Transactor
	settings TokenSettings
	log      *zap.Logger
}

func NewAuthService(users *UserService, tokens TokenRepository, tx Transactor, settings TokenSettings, log *zap.Logger) *AuthService {
	return &AuthService{
		users:    users,
		tokens:   tokens,
		tx:       tx,
		settings: settings,
		log:      log.Named("auth"),
	}
}

// Register creates a CUSTOMER account and signs it in.
func (s *AuthService) Register(ctx context.Context, req NewUserRequest) (*AuthResult, error) {
	u, err := s.users.Register(ctx, req)
	if err != nil {
		return nil, err
	}
	return s.Issue(ctx, u)
}

// Login checks the credentials and issues a fresh token pair.  Unknown
// emails and wrong passwords fail the same way.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	u, err := s.users.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, apperr.UserNotFound) {
			return nil, apperr.UserNotAuthorized
		}
		return nil, err
	}
	if !utils.VerifyPassword(u.PasswordHash, password) {
		return nil, apperr.UserNotAuthorized
	}
	return s.Issue(ctx, u)
}

// Issue signs an access token for u and stores the hash of a new refresh
// token.
func (s *AuthService) Issue(ctx context.Context, u *model.User) (*AuthResult, error) {
	access, err := utils.NewAccessToken(s.settings.Secret, u.ID, string(u.Role), s.settings.AccessTTLMin)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}
	refresh, err := utils.NewRefreshToken(s.settings.RefreshTTLDays)
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}
	if err := s.tokens.StoreRefresh(ctx, u.ID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}
	return &AuthResult{User: u, Access: access, Refresh: refresh}, nil
}

// Refresh exchanges a valid refresh token for a new pair.  The presented
// token is revoked in the same transaction.
func (s *AuthService) Refresh(ctx context.Context, raw string) (*AuthResult, error) {
	if raw == "" {
		return nil, apperr.UserNotAuthorized
	}
	hash := utils.HashRefreshRaw(raw)

	var out *AuthResult
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		userID, err := s.tokens.ValidateRefresh(ctx, hash)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return apperr.UserNotAuthorized
			}
			return fmt.Errorf("validate refresh token: %w", err)
		}
		u, err := s.users.FindByID(ctx, userID)
		if err != nil {
			if errors.Is(err, apperr.UserNotFound) {
				return apperr.UserNotAuthorized
			}
			return err
		}
		if err := s.tokens.RevokeByHash(ctx, hash); err != nil {
			return fmt.Errorf("revoke refresh token: %w", err)
		}
		out, err = s.Issue(ctx, u)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Logout revokes one refresh token.  Unknown tokens are ignored.
func (s *AuthService) Logout(ctx context.Context, raw string) error {
	if raw == "" {
		return nil
	}
	if err := s.tokens.RevokeByHash(ctx, utils.HashRefreshRaw(raw)); err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	return nil
}

// LogoutAll revokes every refresh token of the user.
func (s *AuthService) LogoutAll(ctx context.Context, userID string) error {
	if err := s.tokens.RevokeAllForUser(ctx, userID); err != nil {
		return fmt.Errorf("revoke refresh tokens: %w", err)
	}
	return nil
}

const initialManagerUsername = "initial-manager"

// EnsureInitialManager creates a manager account from the given
// credentials unless one already exists.  It is safe to call on every
// start-up.
func (s *AuthService) EnsureInitialManager(ctx context.Context, email, password string) error {
	managers, err := s.users.FindByRole(ctx, model.RoleManager)
	if err != nil {
		return err
	}
	if len(managers) > 0 {
		s.log.Debug("manager account present", zap.Int("managers", len(managers)))
		return nil
	}
	if email == "" || password == "" {
		s.log.Warn("no manager account exists and INITIAL_MANAGER_EMAIL/INITIAL_MANAGER_PASSWORD are not set")
		return nil
	}

	u, err := s.users.CreateManager(ctx, NewUserRequest{
		Username: initialManagerUsername,
		Email:    email,
		Password: password,
		Age:      30,
	})
	if err != nil {
		if errors.Is(err, apperr.UserAlreadyExists) {
			return fmt.Errorf("initial manager email %s belongs to a non-manager account", email)
		}
		return fmt.Errorf("create initial manager: %w", err)
	}
	s.log.Info("initial manager created", zap.String("user_id", u.ID))
	return nil
}
