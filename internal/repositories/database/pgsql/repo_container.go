package pgsql

import (
	portsrepo "github.com/bookswapp/bookswap_backend/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5/pgxpool"
)

// NewRepositoryProvider builds the full repository set backed by the pool.
func NewRepositoryProvider(pool *pgxpool.Pool) *portsrepo.RepositoryProvider {
	bookRepo := newPgxBookRepository(pool)
	return &portsrepo.RepositoryProvider{
		ExchangeRepo:     newPgxExchangeRepository(pool, bookRepo),
		BookRepo:         bookRepo,
		UserRepo:         newPgxUserRepository(pool),
		ChatRepo:         newPgxChatRepository(pool),
		NotificationRepo: newPgxNotificationRepository(pool),
		GenreRepo:        newPgxGenreRepository(pool),
		RatingRepo:       newPgxRatingRepository(pool),
	}
}
