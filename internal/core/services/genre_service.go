package services

import (
	"context"
	"fmt"

	"github.com/bookswapp/bookswap_backend/internal/core/domain"
	"github.com/bookswapp/bookswap_backend/internal/core/ports/repositories"
	portssvc "github.com/bookswapp/bookswap_backend/internal/core/ports/services"
)

type genreService struct {
	BaseService
	genreRepo repositories.GenreRepository
}

var _ portssvc.GenreSvcFacade = (*genreService)(nil)

// NewGenreService creates a new genre catalog service.
func NewGenreService(genreRepo repositories.GenreRepository) portssvc.GenreSvcFacade {
	return &genreService{genreRepo: genreRepo}
}

// ListGenres retrieves the full genre catalog ordered by name.
func (s *genreService) ListGenres(ctx context.Context) ([]domain.Genre, error) {
	genres, err := s.genreRepo.ListGenres(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list genres: %w", err)
	}
	return genres, nil
}
