package services

import (
	"context"
	"time"

	"github.com/bookswapp/bookswap_backend/internal/core/domain"
	"github.com/bookswapp/bookswap_backend/internal/dto"
)

// UserSvcFacade covers registration, authentication lookups and push-token
// management. Broader account management is intentionally absent.
type UserSvcFacade interface {
	RegisterUser(ctx context.Context, req dto.RegisterUserRequest) (*domain.User, error)
	GetUserByID(ctx context.Context, userID string) (*domain.User, error)
	AuthenticateUser(ctx context.Context, email, password string) (*domain.User, error)
	CreateOAuthUser(ctx context.Context, name, email, provider, providerUserID string, emailVerified bool) (*domain.User, error)
	RegisterPushToken(ctx context.Context, userID, pushToken string) error
	StoreRefreshTokenHash(ctx context.Context, userID, refreshTokenHash string, expiry *time.Time) error
}
