package dto

import (
	"time"

	"github.com/bookswapp/bookswap_backend/internal/core/domain"
)

// CreateBookRequest is the payload for listing a new book.
type CreateBookRequest struct {
	Title       string   `json:"title" binding:"required,max=255"`
	Author      string   `json:"author" binding:"required,max=255"`
	Description string   `json:"description" binding:"max=2000"`
	Genres      []string `json:"genres,omitempty" binding:"max=10,dive,required,max=100"`
	Latitude    *float64 `json:"latitude,omitempty" binding:"omitempty,latitude"`
	Longitude   *float64 `json:"longitude,omitempty" binding:"omitempty,longitude"`
}

// UpdateBookRequest carries optional book field updates.
type UpdateBookRequest struct {
	Title       *string `json:"title,omitempty" binding:"omitempty,max=255"`
	Author      *string `json:"author,omitempty" binding:"omitempty,max=255"`
	Description *string  `json:"description,omitempty" binding:"omitempty,max=2000"`
	Status      *string  `json:"status,omitempty" binding:"omitempty,oneof=available unavailable"`
	Genres      []string `json:"genres,omitempty" binding:"omitempty,max=10,dive,required,max=100"`
}

// ListBooksParams are the query parameters for browsing available books.
type ListBooksParams struct {
	Latitude  *float64 `form:"lat" binding:"omitempty,latitude"`
	Longitude *float64 `form:"lng" binding:"omitempty,longitude"`
	RadiusKm  float64  `form:"radiusKm,default=10"`
	Limit     int      `form:"limit,default=20"`
	Offset    int      `form:"offset,default=0"`
}

// BookResponse is the book representation returned to clients.
type BookResponse struct {
	BookID      string    `json:"bookID"`
	OwnerID     string    `json:"ownerID"`
	Title       string    `json:"title"`
	Author      string    `json:"author"`
	Description string    `json:"description,omitempty"`
	Status      string    `json:"status"`
	Genres      []string  `json:"genres,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// ToBookResponse converts a domain book to its response DTO.
func ToBookResponse(b *domain.Book) BookResponse {
	return BookResponse{
		BookID:      b.BookID,
		OwnerID:     b.OwnerID,
		Title:       b.Title,
		Author:      b.Author,
		Description: b.Description,
		Status:      string(b.Status),
		Genres:      b.Genres,
		CreatedAt:   b.CreatedAt,
	}
}

// ToBookResponses converts a slice of domain books.
func ToBookResponses(books []domain.Book) []BookResponse {
	responses := make([]BookResponse, len(books))
	for i := range books {
		responses[i] = ToBookResponse(&books[i])
	}
	return responses
}
