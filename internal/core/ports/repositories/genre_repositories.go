package repositories

import (
	"context"

	"github.com/bookswapp/bookswap_backend/internal/core/domain"
)

// GenreRepository defines persistence operations for the genre catalog and
// its book associations.
type GenreRepository interface {
	// ListGenres retrieves the full genre catalog ordered by name.
	ListGenres(ctx context.Context) ([]domain.Genre, error)

	// EnsureGenres resolves the given names to genre rows, creating any that
	// do not exist yet. The result follows the input order.
	EnsureGenres(ctx context.Context, names []string) ([]domain.Genre, error)

	// ReplaceBookGenres replaces a book's genre associations with the given
	// genre IDs.
	ReplaceBookGenres(ctx context.Context, bookID string, genreIDs []string) error

	// ListGenreNamesByBookIDs returns the genre names of each given book,
	// keyed by book ID. Books without genres are absent from the map.
	ListGenreNamesByBookIDs(ctx context.Context, bookIDs []string) (map[string][]string, error)
}
