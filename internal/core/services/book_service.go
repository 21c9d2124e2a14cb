package services

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/bookswapp/bookswap_backend/internal/apperrors"
	"github.com/bookswapp/bookswap_backend/internal/core/domain"
	"github.com/bookswapp/bookswap_backend/internal/core/ports/repositories"
	portssvc "github.com/bookswapp/bookswap_backend/internal/core/ports/services"
	"github.com/bookswapp/bookswap_backend/internal/dto"
	"github.com/google/uuid"
)

// ErrNotBookOwner is returned when a caller tries to modify a book they do
// not own.
var ErrNotBookOwner = fmt.Errorf("%w: user does not own this book", apperrors.ErrForbidden)

// kmPerLatitudeDegree approximates the surface distance of one degree of
// latitude.
const kmPerLatitudeDegree = 111.32

type bookService struct {
	BaseService
	bookRepo              repositories.BookRepositoryFacade
	genreRepo             repositories.GenreRepository
	enableProximityFilter bool
	clock                 func() time.Time
}

var _ portssvc.BookSvcFacade = (*bookService)(nil)

// BookServiceOption customizes the book service.
type BookServiceOption func(*bookService)

// WithBookClock overrides the time source.
func WithBookClock(clock func() time.Time) BookServiceOption {
	return func(s *bookService) { s.clock = clock }
}

// NewBookService creates a new book listing service. When
// enableProximityFilter is false, location query parameters are ignored and
// listings are global.
func NewBookService(bookRepo repositories.BookRepositoryFacade, genreRepo repositories.GenreRepository, enableProximityFilter bool, opts ...BookServiceOption) portssvc.BookSvcFacade {
	s := &bookService{
		bookRepo:              bookRepo,
		genreRepo:             genreRepo,
		enableProximityFilter: enableProximityFilter,
		clock:                 time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateBook lists a new book owned by the caller.
func (s *bookService) CreateBook(ctx context.Context, req dto.CreateBookRequest, ownerID string) (*domain.Book, error) {
	logger := s.GetLogger(ctx).With("op", "CreateBook", "ownerID", ownerID)

	now := s.clock()
	book := domain.Book{
		BookID:      uuid.NewString(),
		OwnerID:     ownerID,
		Title:       req.Title,
		Author:      req.Author,
		Description: req.Description,
		Status:      domain.BookAvailable,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.bookRepo.SaveBook(ctx, book); err != nil {
		logger.Error("failed to save book", "error", err)
		return nil, fmt.Errorf("failed to save book: %w", err)
	}

	if len(req.Genres) > 0 {
		genres, err := s.setBookGenres(ctx, book.BookID, req.Genres)
		if err != nil {
			logger.Error("failed to set book genres", "error", err)
			return nil, err
		}
		book.Genres = genres
	}

	logger.Info("book created", "bookID", book.BookID)
	return &book, nil
}

// GetBookByID retrieves a book with its genres.
func (s *bookService) GetBookByID(ctx context.Context, bookID string) (*domain.Book, error) {
	book, err := s.bookRepo.FindBookByID(ctx, bookID)
	if err != nil {
		return nil, err
	}
	books := []domain.Book{*book}
	if err := s.attachGenres(ctx, books); err != nil {
		return nil, err
	}
	return &books[0], nil
}

// ListBooksByOwner lists all books a user has listed.
func (s *bookService) ListBooksByOwner(ctx context.Context, ownerID string, limit, offset int) ([]domain.Book, error) {
	books, err := s.bookRepo.ListBooksByOwner(ctx, ownerID, limit, offset)
	if err != nil {
		return nil, err
	}
	if err := s.attachGenres(ctx, books); err != nil {
		return nil, err
	}
	return books, nil
}

// ListAvailableBooks lists available books, constrained to a bounding box
// around the caller's position when proximity filtering is enabled and
// coordinates were supplied.
func (s *bookService) ListAvailableBooks(ctx context.Context, params dto.ListBooksParams) ([]domain.Book, error) {
	var filter *domain.ProximityFilter
	if s.enableProximityFilter && params.Latitude != nil && params.Longitude != nil {
		filter = boundingBox(*params.Latitude, *params.Longitude, params.RadiusKm)
	}
	books, err := s.bookRepo.ListAvailableBooks(ctx, filter, params.Limit, params.Offset)
	if err != nil {
		return nil, err
	}
	if err := s.attachGenres(ctx, books); err != nil {
		return nil, err
	}
	return books, nil
}

// UpdateBook applies the caller's changes to a book they own. Books already
// exchanged are immutable.
func (s *bookService) UpdateBook(ctx context.Context, bookID string, req dto.UpdateBookRequest, callerID string) (*domain.Book, error) {
	logger := s.GetLogger(ctx).With("op", "UpdateBook", "bookID", bookID)

	book, err := s.bookRepo.FindBookByID(ctx, bookID)
	if err != nil {
		return nil, err
	}
	if book.OwnerID != callerID {
		return nil, ErrNotBookOwner
	}
	if book.Status == domain.BookExchanged {
		return nil, fmt.Errorf("%w: exchanged books cannot be modified", apperrors.ErrInvariantViolation)
	}

	if req.Title != nil {
		book.Title = *req.Title
	}
	if req.Author != nil {
		book.Author = *req.Author
	}
	if req.Description != nil {
		book.Description = *req.Description
	}
	if req.Status != nil {
		book.Status = domain.BookStatus(*req.Status)
	}
	book.UpdatedAt = s.clock()

	if err := s.bookRepo.UpdateBook(ctx, *book); err != nil {
		logger.Error("failed to update book", "error", err)
		return nil, err
	}

	if req.Genres != nil {
		genres, err := s.setBookGenres(ctx, book.BookID, req.Genres)
		if err != nil {
			logger.Error("failed to set book genres", "error", err)
			return nil, err
		}
		book.Genres = genres
	} else {
		books := []domain.Book{*book}
		if err := s.attachGenres(ctx, books); err != nil {
			return nil, err
		}
		book = &books[0]
	}
	return book, nil
}

// setBookGenres resolves genre names, creating missing ones, and replaces
// the book's associations. Returns the normalized name list.
func (s *bookService) setBookGenres(ctx context.Context, bookID string, names []string) ([]string, error) {
	cleaned := make([]string, 0, len(names))
	for _, name := range names {
		if trimmed := strings.TrimSpace(name); trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}

	genres, err := s.genreRepo.EnsureGenres(ctx, cleaned)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve genres: %w", err)
	}
	genreIDs := make([]string, len(genres))
	resolved := make([]string, len(genres))
	for i, genre := range genres {
		genreIDs[i] = genre.GenreID
		resolved[i] = genre.Name
	}
	if err := s.genreRepo.ReplaceBookGenres(ctx, bookID, genreIDs); err != nil {
		return nil, fmt.Errorf("failed to set book genres: %w", err)
	}
	return resolved, nil
}

// attachGenres populates the Genres field of each book in place.
func (s *bookService) attachGenres(ctx context.Context, books []domain.Book) error {
	if len(books) == 0 {
		return nil
	}
	bookIDs := make([]string, len(books))
	for i := range books {
		bookIDs[i] = books[i].BookID
	}
	byBook, err := s.genreRepo.ListGenreNamesByBookIDs(ctx, bookIDs)
	if err != nil {
		return fmt.Errorf("failed to load book genres: %w", err)
	}
	for i := range books {
		books[i].Genres = byBook[books[i].BookID]
	}
	return nil
}

// boundingBox converts a centre point and radius into a latitude/longitude
// box. The longitude span widens with latitude to keep the box roughly
// square on the ground.
func boundingBox(lat, lng, radiusKm float64) *domain.ProximityFilter {
	latDelta := radiusKm / kmPerLatitudeDegree
	lngScale := math.Cos(lat * math.Pi / 180)
	if lngScale < 0.01 {
		lngScale = 0.01
	}
	lngDelta := radiusKm / (kmPerLatitudeDegree * lngScale)
	return &domain.ProximityFilter{
		MinLatitude:  lat - latDelta,
		MaxLatitude:  lat + latDelta,
		MinLongitude: lng - lngDelta,
		MaxLongitude: lng + lngDelta,
	}
}
