package repositories

// RepositoryProvider bundles the concrete repositories handed to the service
// container at startup.
type RepositoryProvider struct {
	ExchangeRepo     ExchangeRepositoryFacade
	BookRepo         BookRepositoryFacade
	UserRepo         UserRepositoryFacade
	ChatRepo         ChatRepository
	NotificationRepo NotificationRepository
	GenreRepo        GenreRepository
	RatingRepo       RatingRepository
}
