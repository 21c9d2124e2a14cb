package services

import (
	"context"
	"fmt"

	"github.com/bookswapp/bookswap_backend/internal/apperrors"
	portssvc "github.com/bookswapp/bookswap_backend/internal/core/ports/services"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/idtoken"
)

// GoogleOAuthConfig carries the Google sign-in settings.
type GoogleOAuthConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

type googleOAuthService struct {
	BaseService
	oauthConfig *oauth2.Config
	// validator is swappable for tests; defaults to idtoken.Validate.
	validator func(ctx context.Context, token, audience string) (*idtoken.Payload, error)
}

var _ portssvc.GoogleOAuthSvcFacade = (*googleOAuthService)(nil)

// NewGoogleOAuthService creates the Google sign-in service.
func NewGoogleOAuthService(cfg GoogleOAuthConfig) portssvc.GoogleOAuthSvcFacade {
	return &googleOAuthService{
		oauthConfig: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{"openid", "profile", "email"},
			Endpoint:     google.Endpoint,
		},
		validator: idtoken.Validate,
	}
}

// ExchangeCodeForToken exchanges the authorization code for tokens.
func (s *googleOAuthService) ExchangeCodeForToken(ctx context.Context, code string) (*oauth2.Token, error) {
	token, err := s.oauthConfig.Exchange(ctx, code)
	if err != nil {
		s.LogWarn(ctx, "google code exchange failed", "error", err)
		return nil, fmt.Errorf("%w: failed to exchange authorization code", apperrors.ErrUnauthorized)
	}
	return token, nil
}

// ValidateGoogleIDToken verifies the ID token signature and audience.
func (s *googleOAuthService) ValidateGoogleIDToken(ctx context.Context, idTokenString string) (*idtoken.Payload, error) {
	payload, err := s.validator(ctx, idTokenString, s.oauthConfig.ClientID)
	if err != nil {
		s.LogWarn(ctx, "google id token validation failed", "error", err)
		return nil, fmt.Errorf("%w: invalid google id token", apperrors.ErrUnauthorized)
	}
	return payload, nil
}
