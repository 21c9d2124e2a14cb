package domain

// Genre is a catalog entry books can be tagged with. Genres are created on
// demand when a book names one that does not exist yet; names are unique.
type Genre struct {
	GenreID string `json:"genreID"`
	Name    string `json:"name"`
}
