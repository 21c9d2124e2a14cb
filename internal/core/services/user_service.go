package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bookswapp/bookswap_backend/internal/apperrors"
	"github.com/bookswapp/bookswap_backend/internal/core/domain"
	"github.com/bookswapp/bookswap_backend/internal/core/ports/repositories"
	portssvc "github.com/bookswapp/bookswap_backend/internal/core/ports/services"
	"github.com/bookswapp/bookswap_backend/internal/dto"
	"github.com/bookswapp/bookswap_backend/internal/utils"
	"github.com/google/uuid"
)

// Named errors for user operations.
var (
	ErrEmailTaken         = fmt.Errorf("%w: email is already registered", apperrors.ErrDuplicate)
	ErrInvalidCredentials = fmt.Errorf("%w: invalid email or password", apperrors.ErrUnauthorized)
)

type userService struct {
	BaseService
	userRepo repositories.UserRepositoryFacade
	clock    func() time.Time
}

var _ portssvc.UserSvcFacade = (*userService)(nil)

// UserServiceOption customizes the user service.
type UserServiceOption func(*userService)

// WithUserClock overrides the time source.
func WithUserClock(clock func() time.Time) UserServiceOption {
	return func(s *userService) { s.clock = clock }
}

// NewUserService creates a new user service.
func NewUserService(userRepo repositories.UserRepositoryFacade, opts ...UserServiceOption) portssvc.UserSvcFacade {
	s := &userService{
		userRepo: userRepo,
		clock:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RegisterUser creates a local account with a bcrypt-hashed password.
func (s *userService) RegisterUser(ctx context.Context, req dto.RegisterUserRequest) (*domain.User, error) {
	logger := s.GetLogger(ctx).With("op", "RegisterUser")

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if _, err := s.userRepo.FindUserByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("failed to check existing email: %w", err)
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		logger.Error("failed to hash password", "error", err)
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := s.clock()
	user := domain.User{
		UserID:       uuid.NewString(),
		Name:         req.Name,
		Email:        email,
		PasswordHash: hash,
		AuthProvider: domain.ProviderLocal,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.userRepo.SaveUser(ctx, user); err != nil {
		if errors.Is(err, apperrors.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		logger.Error("failed to save user", "error", err)
		return nil, fmt.Errorf("failed to save user: %w", err)
	}

	logger.Info("user registered", "userID", user.UserID)
	return &user, nil
}

// GetUserByID retrieves a user.
func (s *userService) GetUserByID(ctx context.Context, userID string) (*domain.User, error) {
	return s.userRepo.FindUserByID(ctx, userID)
}

// AuthenticateUser checks local credentials. Lookup and hash failures both
// collapse into ErrInvalidCredentials to avoid leaking which one failed.
func (s *userService) AuthenticateUser(ctx context.Context, email, password string) (*domain.User, error) {
	user, err := s.userRepo.FindUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if user.AuthProvider != domain.ProviderLocal || !utils.CheckPasswordHash(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// CreateOAuthUser finds or creates the account bound to an OAuth identity.
// An existing local account with the same email is linked to the provider.
func (s *userService) CreateOAuthUser(ctx context.Context, name, email, provider, providerUserID string, emailVerified bool) (*domain.User, error) {
	logger := s.GetLogger(ctx).With("op", "CreateOAuthUser", "provider", provider)

	if user, err := s.userRepo.FindUserByProviderID(ctx, provider, providerUserID); err == nil {
		return user, nil
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up provider identity: %w", err)
	}

	email = strings.ToLower(strings.TrimSpace(email))
	if existing, err := s.userRepo.FindUserByEmail(ctx, email); err == nil {
		existing.AuthProvider = domain.AuthProvider(provider)
		existing.ProviderUserID = providerUserID
		existing.EmailVerified = existing.EmailVerified || emailVerified
		existing.UpdatedAt = s.clock()
		if err := s.userRepo.UpdateUser(ctx, *existing); err != nil {
			return nil, fmt.Errorf("failed to link provider identity: %w", err)
		}
		return existing, nil
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("failed to check existing email: %w", err)
	}

	now := s.clock()
	user := domain.User{
		UserID:         uuid.NewString(),
		Name:           name,
		Email:          email,
		AuthProvider:   domain.AuthProvider(provider),
		ProviderUserID: providerUserID,
		EmailVerified:  emailVerified,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.userRepo.SaveUser(ctx, user); err != nil {
		logger.Error("failed to save oauth user", "error", err)
		return nil, fmt.Errorf("failed to save user: %w", err)
	}

	logger.Info("oauth user created", "userID", user.UserID)
	return &user, nil
}

// RegisterPushToken stores the user's Expo push token.
func (s *userService) RegisterPushToken(ctx context.Context, userID, pushToken string) error {
	return s.userRepo.UpdatePushToken(ctx, userID, pushToken, s.clock())
}

// StoreRefreshTokenHash persists the hashed refresh token and its expiry.
func (s *userService) StoreRefreshTokenHash(ctx context.Context, userID, refreshTokenHash string, expiry *time.Time) error {
	return s.userRepo.UpdateRefreshToken(ctx, userID, refreshTokenHash, expiry, s.clock())
}
