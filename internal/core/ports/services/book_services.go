package services

import (
	"context"

	"github.com/bookswapp/bookswap_backend/internal/core/domain"
	"github.com/bookswapp/bookswap_backend/internal/dto"
)

// BookSvcFacade is the listing store surface. The exchange engine uses
// GetBookByID for ownership/availability checks; availability downgrades on
// completion run inside the exchange repository transaction instead.
type BookSvcFacade interface {
	CreateBook(ctx context.Context, req dto.CreateBookRequest, ownerID string) (*domain.Book, error)
	GetBookByID(ctx context.Context, bookID string) (*domain.Book, error)
	ListBooksByOwner(ctx context.Context, ownerID string, limit, offset int) ([]domain.Book, error)
	ListAvailableBooks(ctx context.Context, params dto.ListBooksParams) ([]domain.Book, error)
	UpdateBook(ctx context.Context, bookID string, req dto.UpdateBookRequest, callerID string) (*domain.Book, error)
}
