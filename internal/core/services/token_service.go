package services

import (
	"context"
	"fmt"
	"time"

	"github.com/bookswapp/bookswap_backend/internal/apperrors"
	"github.com/bookswapp/bookswap_backend/internal/core/domain"
	"github.com/bookswapp/bookswap_backend/internal/core/ports/repositories"
	portssvc "github.com/bookswapp/bookswap_backend/internal/core/ports/services"
	"github.com/bookswapp/bookswap_backend/internal/utils"
)

// ErrInvalidRefreshToken covers a missing, mismatched or expired refresh
// token.
var ErrInvalidRefreshToken = fmt.Errorf("%w: invalid or expired refresh token", apperrors.ErrUnauthorized)

const refreshTokenByteLength = 32

// TokenConfig carries the token issuance settings.
type TokenConfig struct {
	JWTSecret            string
	AccessTokenDuration  time.Duration
	RefreshTokenDuration time.Duration
}

type tokenService struct {
	BaseService
	cfg      TokenConfig
	userRepo repositories.UserRepositoryFacade
	clock    func() time.Time
}

var _ portssvc.TokenSvcFacade = (*tokenService)(nil)

// TokenServiceOption customizes the token service.
type TokenServiceOption func(*tokenService)

// WithTokenClock overrides the time source.
func WithTokenClock(clock func() time.Time) TokenServiceOption {
	return func(s *tokenService) { s.clock = clock }
}

// NewTokenService creates a new token service.
func NewTokenService(cfg TokenConfig, userRepo repositories.UserRepositoryFacade, opts ...TokenServiceOption) portssvc.TokenSvcFacade {
	s := &tokenService{
		cfg:      cfg,
		userRepo: userRepo,
		clock:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GenerateAccessToken issues a signed JWT for the user.
func (s *tokenService) GenerateAccessToken(ctx context.Context, user *domain.User) (string, time.Time, error) {
	expiry := s.clock().Add(s.cfg.AccessTokenDuration)
	token, err := utils.GenerateJWT(user.UserID, s.cfg.JWTSecret, expiry)
	if err != nil {
		s.LogError(ctx, err, "failed to generate access token", "userID", user.UserID)
		return "", time.Time{}, fmt.Errorf("failed to generate access token: %w", err)
	}
	return token, expiry, nil
}

// GenerateRefreshToken issues a raw refresh token and its expiry. The caller
// persists only the hash via the user service.
func (s *tokenService) GenerateRefreshToken(ctx context.Context, user *domain.User) (string, time.Time, error) {
	raw, err := utils.GenerateSecureRandomString(refreshTokenByteLength)
	if err != nil {
		s.LogError(ctx, err, "failed to generate refresh token", "userID", user.UserID)
		return "", time.Time{}, fmt.Errorf("failed to generate refresh token: %w", err)
	}
	return raw, s.clock().Add(s.cfg.RefreshTokenDuration), nil
}

// ValidateRefreshToken checks a raw refresh token against the user's stored
// hash and expiry.
func (s *tokenService) ValidateRefreshToken(ctx context.Context, userID, refreshToken string) (*domain.User, error) {
	user, err := s.userRepo.FindUserByID(ctx, userID)
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}
	if user.RefreshTokenHash == "" || user.RefreshTokenExpiryTime == nil {
		return nil, ErrInvalidRefreshToken
	}
	if s.clock().After(*user.RefreshTokenExpiryTime) {
		return nil, ErrInvalidRefreshToken
	}
	if !utils.CompareRefreshToken(refreshToken, user.RefreshTokenHash) {
		return nil, ErrInvalidRefreshToken
	}
	return user, nil
}
