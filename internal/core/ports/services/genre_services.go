package services

import (
	"context"

	"github.com/bookswapp/bookswap_backend/internal/core/domain"
)

// GenreSvcFacade exposes the genre catalog. Genre creation happens through
// book listings, not through this surface.
type GenreSvcFacade interface {
	// ListGenres retrieves the full genre catalog ordered by name.
	ListGenres(ctx context.Context) ([]domain.Genre, error)
}
