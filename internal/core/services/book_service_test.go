package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/bookswapp/bookswap_backend/internal/apperrors"
	"github.com/bookswapp/bookswap_backend/internal/core/domain"
	"github.com/bookswapp/bookswap_backend/internal/core/services"
	"github.com/bookswapp/bookswap_backend/internal/dto"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type MockGenreRepository struct {
	mock.Mock
}

func (m *MockGenreRepository) ListGenres(ctx context.Context) ([]domain.Genre, error) {
	args := m.Called(ctx)
	if genres, ok := args.Get(0).([]domain.Genre); ok {
		return genres, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockGenreRepository) EnsureGenres(ctx context.Context, names []string) ([]domain.Genre, error) {
	args := m.Called(ctx, names)
	if genres, ok := args.Get(0).([]domain.Genre); ok {
		return genres, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockGenreRepository) ReplaceBookGenres(ctx context.Context, bookID string, genreIDs []string) error {
	args := m.Called(ctx, bookID, genreIDs)
	return args.Error(0)
}

func (m *MockGenreRepository) ListGenreNamesByBookIDs(ctx context.Context, bookIDs []string) (map[string][]string, error) {
	args := m.Called(ctx, bookIDs)
	if byBook, ok := args.Get(0).(map[string][]string); ok {
		return byBook, args.Error(1)
	}
	return nil, args.Error(1)
}

type BookServiceTestSuite struct {
	suite.Suite
	bookRepo  *MockBookRepository
	genreRepo *MockGenreRepository
	ctx       context.Context
	now       time.Time
}

func (s *BookServiceTestSuite) SetupTest() {
	s.bookRepo = new(MockBookRepository)
	s.genreRepo = new(MockGenreRepository)
	s.ctx = context.Background()
	s.now = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
}

func TestBookServiceTestSuite(t *testing.T) {
	suite.Run(t, new(BookServiceTestSuite))
}

func (s *BookServiceTestSuite) TestCreateBook_Success() {
	svc := services.NewBookService(s.bookRepo, s.genreRepo, true, services.WithBookClock(func() time.Time { return s.now }))

	s.bookRepo.On("SaveBook", s.ctx, mock.MatchedBy(func(b domain.Book) bool {
		return b.Title == "Dune" && b.Status == domain.BookAvailable && b.CreatedAt.Equal(s.now)
	})).Return(nil).Once()

	book, err := svc.CreateBook(s.ctx, dto.CreateBookRequest{Title: "Dune", Author: "Frank Herbert"}, requesterID)

	s.Require().NoError(err)
	s.Equal(requesterID, book.OwnerID)
	s.NotEmpty(book.BookID)
	s.bookRepo.AssertExpectations(s.T())
}

// Genre names are trimmed, resolved through the catalog and attached to the
// created book.
func (s *BookServiceTestSuite) TestCreateBook_WithGenres() {
	svc := services.NewBookService(s.bookRepo, s.genreRepo, true, services.WithBookClock(func() time.Time { return s.now }))

	s.bookRepo.On("SaveBook", s.ctx, mock.AnythingOfType("domain.Book")).Return(nil).Once()
	s.genreRepo.On("EnsureGenres", s.ctx, []string{"Sci-Fi", "Classics"}).Return([]domain.Genre{
		{GenreID: "genre-1", Name: "Sci-Fi"},
		{GenreID: "genre-2", Name: "Classics"},
	}, nil).Once()
	s.genreRepo.On("ReplaceBookGenres", s.ctx, mock.AnythingOfType("string"), []string{"genre-1", "genre-2"}).
		Return(nil).Once()

	book, err := svc.CreateBook(s.ctx, dto.CreateBookRequest{
		Title: "Dune", Author: "Frank Herbert", Genres: []string{" Sci-Fi ", "Classics", "  "},
	}, requesterID)

	s.Require().NoError(err)
	s.Equal([]string{"Sci-Fi", "Classics"}, book.Genres)
	s.genreRepo.AssertExpectations(s.T())
}

func (s *BookServiceTestSuite) TestUpdateBook_ReplacesGenres() {
	svc := services.NewBookService(s.bookRepo, s.genreRepo, true)
	book := availableBook(wantedBook, receiverID)
	s.bookRepo.On("FindBookByID", s.ctx, wantedBook).Return(book, nil).Once()
	s.bookRepo.On("UpdateBook", s.ctx, mock.AnythingOfType("domain.Book")).Return(nil).Once()
	s.genreRepo.On("EnsureGenres", s.ctx, []string{"Poetry"}).
		Return([]domain.Genre{{GenreID: "genre-3", Name: "Poetry"}}, nil).Once()
	s.genreRepo.On("ReplaceBookGenres", s.ctx, wantedBook, []string{"genre-3"}).Return(nil).Once()

	updated, err := svc.UpdateBook(s.ctx, wantedBook, dto.UpdateBookRequest{Genres: []string{"Poetry"}}, receiverID)

	s.Require().NoError(err)
	s.Equal([]string{"Poetry"}, updated.Genres)
	s.genreRepo.AssertExpectations(s.T())
}

func (s *BookServiceTestSuite) TestGetBookByID_AttachesGenres() {
	svc := services.NewBookService(s.bookRepo, s.genreRepo, true)
	s.bookRepo.On("FindBookByID", s.ctx, wantedBook).Return(availableBook(wantedBook, receiverID), nil).Once()
	s.genreRepo.On("ListGenreNamesByBookIDs", s.ctx, []string{wantedBook}).
		Return(map[string][]string{wantedBook: {"Sci-Fi"}}, nil).Once()

	book, err := svc.GetBookByID(s.ctx, wantedBook)

	s.Require().NoError(err)
	s.Equal([]string{"Sci-Fi"}, book.Genres)
}

func (s *BookServiceTestSuite) TestUpdateBook_NotOwner() {
	svc := services.NewBookService(s.bookRepo, s.genreRepo, true)
	book := availableBook(wantedBook, receiverID)
	s.bookRepo.On("FindBookByID", s.ctx, wantedBook).Return(book, nil).Once()

	title := "New Title"
	_, err := svc.UpdateBook(s.ctx, wantedBook, dto.UpdateBookRequest{Title: &title}, strangerID)

	s.Require().Error(err)
	s.ErrorIs(err, services.ErrNotBookOwner)
	s.bookRepo.AssertNotCalled(s.T(), "UpdateBook", mock.Anything, mock.Anything)
}

func (s *BookServiceTestSuite) TestUpdateBook_ExchangedImmutable() {
	svc := services.NewBookService(s.bookRepo, s.genreRepo, true)
	book := availableBook(wantedBook, receiverID)
	book.Status = domain.BookExchanged
	s.bookRepo.On("FindBookByID", s.ctx, wantedBook).Return(book, nil).Once()

	status := string(domain.BookAvailable)
	_, err := svc.UpdateBook(s.ctx, wantedBook, dto.UpdateBookRequest{Status: &status}, receiverID)

	s.Require().Error(err)
	s.ErrorIs(err, apperrors.ErrInvariantViolation)
}

func (s *BookServiceTestSuite) TestUpdateBook_OwnerTogglesAvailability() {
	svc := services.NewBookService(s.bookRepo, s.genreRepo, true, services.WithBookClock(func() time.Time { return s.now }))
	book := availableBook(wantedBook, receiverID)
	s.bookRepo.On("FindBookByID", s.ctx, wantedBook).Return(book, nil).Once()
	s.bookRepo.On("UpdateBook", s.ctx, mock.MatchedBy(func(b domain.Book) bool {
		return b.Status == domain.BookUnavailable && b.UpdatedAt.Equal(s.now)
	})).Return(nil).Once()
	s.genreRepo.On("ListGenreNamesByBookIDs", s.ctx, []string{wantedBook}).
		Return(map[string][]string{}, nil).Once()

	status := string(domain.BookUnavailable)
	updated, err := svc.UpdateBook(s.ctx, wantedBook, dto.UpdateBookRequest{Status: &status}, receiverID)

	s.Require().NoError(err)
	s.Equal(domain.BookUnavailable, updated.Status)
	s.bookRepo.AssertExpectations(s.T())
}

func (s *BookServiceTestSuite) TestListAvailableBooks_ProximityFilterApplied() {
	svc := services.NewBookService(s.bookRepo, s.genreRepo, true)
	lat, lng := 52.52, 13.405

	s.bookRepo.On("ListAvailableBooks", s.ctx, mock.MatchedBy(func(f *domain.ProximityFilter) bool {
		return f != nil &&
			f.MinLatitude < lat && lat < f.MaxLatitude &&
			f.MinLongitude < lng && lng < f.MaxLongitude
	}), 20, 0).Return([]domain.Book{}, nil).Once()

	_, err := svc.ListAvailableBooks(s.ctx, dto.ListBooksParams{
		Latitude: &lat, Longitude: &lng, RadiusKm: 10, Limit: 20,
	})

	s.Require().NoError(err)
	s.bookRepo.AssertExpectations(s.T())
}

func (s *BookServiceTestSuite) TestListAvailableBooks_FilterDisabled() {
	svc := services.NewBookService(s.bookRepo, s.genreRepo, false)
	lat, lng := 52.52, 13.405

	s.bookRepo.On("ListAvailableBooks", s.ctx, (*domain.ProximityFilter)(nil), 20, 0).
		Return([]domain.Book{}, nil).Once()

	_, err := svc.ListAvailableBooks(s.ctx, dto.ListBooksParams{
		Latitude: &lat, Longitude: &lng, RadiusKm: 10, Limit: 20,
	})

	s.Require().NoError(err)
	s.bookRepo.AssertExpectations(s.T())
}

func (s *BookServiceTestSuite) TestListAvailableBooks_NoCoordinates() {
	svc := services.NewBookService(s.bookRepo, s.genreRepo, true)

	s.bookRepo.On("ListAvailableBooks", s.ctx, (*domain.ProximityFilter)(nil), 20, 0).
		Return([]domain.Book{}, nil).Once()

	_, err := svc.ListAvailableBooks(s.ctx, dto.ListBooksParams{RadiusKm: 10, Limit: 20})

	s.Require().NoError(err)
	s.bookRepo.AssertExpectations(s.T())
}

func TestGenreService_ListGenres(t *testing.T) {
	genreRepo := new(MockGenreRepository)
	svc := services.NewGenreService(genreRepo)
	catalog := []domain.Genre{{GenreID: "genre-1", Name: "Fantasy"}, {GenreID: "genre-2", Name: "Sci-Fi"}}
	genreRepo.On("ListGenres", mock.Anything).Return(catalog, nil).Once()

	genres, err := svc.ListGenres(context.Background())

	require.NoError(t, err)
	require.Equal(t, catalog, genres)
	genreRepo.AssertExpectations(t)
}
