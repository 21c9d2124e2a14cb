package services

import (
	"github.com/bookswapp/bookswap_backend/internal/core/ports/repositories"
	portssvc "github.com/bookswapp/bookswap_backend/internal/core/ports/services"
)

// ContainerConfig carries the settings needed to assemble the services.
type ContainerConfig struct {
	Token                 TokenConfig
	GoogleOAuth           GoogleOAuthConfig
	EnableProximityFilter bool
}

// NewServiceContainer wires the repositories into the full service graph.
// pushSender may be nil when push delivery is not configured.
func NewServiceContainer(repos *repositories.RepositoryProvider, cfg ContainerConfig, pushSender portssvc.PushSender) *portssvc.ServiceContainer {
	notificationSvc := NewNotificationService(repos.NotificationRepo, repos.UserRepo, pushSender)
	chatSvc := NewChatService(repos.ChatRepo, notificationSvc)
	exchangeSvc := NewExchangeService(repos.ExchangeRepo, repos.BookRepo, chatSvc, notificationSvc)

	return &portssvc.ServiceContainer{
		Exchange:     exchangeSvc,
		Book:         NewBookService(repos.BookRepo, repos.GenreRepo, cfg.EnableProximityFilter),
		User:         NewUserService(repos.UserRepo),
		Chat:         chatSvc,
		Notification: notificationSvc,
		Genre:        NewGenreService(repos.GenreRepo),
		Rating:       NewRatingService(repos.RatingRepo, repos.ExchangeRepo),
		Token:        NewTokenService(cfg.Token, repos.UserRepo),
		GoogleOAuth:  NewGoogleOAuthService(cfg.GoogleOAuth),
	}
}
