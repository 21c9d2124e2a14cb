package domain

import "time"

// BookStatus tracks a book's availability for new exchanges.
type BookStatus string

const (
	BookAvailable   BookStatus = "available"
	BookUnavailable BookStatus = "unavailable"
	BookExchanged   BookStatus = "exchanged"
)

// Book is a listed book owned by a user. Once an exchange referencing it
// completes, its status becomes exchanged and it is permanently unavailable
// for new exchanges.
type Book struct {
	BookID      string     `json:"bookID"`
	OwnerID     string     `json:"ownerID"`
	Title       string     `json:"title"`
	Author      string     `json:"author"`
	Description string     `json:"description,omitempty"`
	Status      BookStatus `json:"status"`
	Genres      []string   `json:"genres,omitempty"`
	Latitude    *float64   `json:"latitude,omitempty"`
	Longitude   *float64   `json:"longitude,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// IsAvailable reports whether the book can be the subject of a new exchange.
func (b *Book) IsAvailable() bool {
	return b.Status == BookAvailable
}

// ProximityFilter constrains a listing query to a bounding box around a
// point. Distances are degrees of latitude/longitude, precomputed by the
// caller; ranking by distance is out of scope.
type ProximityFilter struct {
	MinLatitude  float64
	MaxLatitude  float64
	MinLongitude float64
	MaxLongitude float64
}
