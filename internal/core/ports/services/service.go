package services

// ServiceContainer bundles the application services for route registration.
type ServiceContainer struct {
	Exchange     ExchangeSvcFacade
	Book         BookSvcFacade
	User         UserSvcFacade
	Chat         ChatSvcFacade
	Notification NotificationSvcFacade
	Genre        GenreSvcFacade
	Rating       RatingSvcFacade
	Token        TokenSvcFacade
	GoogleOAuth  GoogleOAuthSvcFacade
}
