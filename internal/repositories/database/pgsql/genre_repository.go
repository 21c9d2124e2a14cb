package pgsql

import (
	"context"
	"fmt"

	"github.com/bookswapp/bookswap_backend/internal/core/domain"
	portsrepo "github.com/bookswapp/bookswap_backend/internal/core/ports/repositories"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgxGenreRepository struct {
	BaseRepository
}

// newPgxGenreRepository creates a new repository for the genre catalog.
func newPgxGenreRepository(pool *pgxpool.Pool) portsrepo.GenreRepository {
	return &PgxGenreRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.GenreRepository = (*PgxGenreRepository)(nil)

// ListGenres retrieves the full genre catalog ordered by name.
func (r *PgxGenreRepository) ListGenres(ctx context.Context) ([]domain.Genre, error) {
	rows, err := r.Pool.Query(ctx, `SELECT genre_id, name FROM genres ORDER BY name ASC;`)
	if err != nil {
		return nil, fmt.Errorf("failed to list genres: %w", err)
	}
	defer rows.Close()

	genres := make([]domain.Genre, 0)
	for rows.Next() {
		var genre domain.Genre
		if err := rows.Scan(&genre.GenreID, &genre.Name); err != nil {
			return nil, fmt.Errorf("failed to scan genre row: %w", err)
		}
		genres = append(genres, genre)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating genre rows: %w", err)
	}
	return genres, nil
}

// EnsureGenres resolves genre names to rows, creating missing ones. The
// upsert returns the existing row when the name is already taken, so
// concurrent creates of the same genre converge on one row.
func (r *PgxGenreRepository) EnsureGenres(ctx context.Context, names []string) ([]domain.Genre, error) {
	query := `
		INSERT INTO genres (genre_id, name)
		VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING genre_id, name;
	`
	genres := make([]domain.Genre, 0, len(names))
	for _, name := range names {
		var genre domain.Genre
		if err := r.Pool.QueryRow(ctx, query, uuid.NewString(), name).Scan(&genre.GenreID, &genre.Name); err != nil {
			return nil, fmt.Errorf("failed to ensure genre %q: %w", name, err)
		}
		genres = append(genres, genre)
	}
	return genres, nil
}

// ReplaceBookGenres replaces a book's genre associations in one transaction.
func (r *PgxGenreRepository) ReplaceBookGenres(ctx context.Context, bookID string, genreIDs []string) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = r.Rollback(ctx, tx)
	}()

	if _, err := tx.Exec(ctx, `DELETE FROM book_genres WHERE book_id = $1;`, bookID); err != nil {
		return fmt.Errorf("failed to clear genres for book %s: %w", bookID, err)
	}
	for _, genreID := range genreIDs {
		if _, err := tx.Exec(ctx,
			`INSERT INTO book_genres (book_id, genre_id) VALUES ($1, $2) ON CONFLICT DO NOTHING;`,
			bookID, genreID); err != nil {
			return fmt.Errorf("failed to tag book %s with genre %s: %w", bookID, genreID, err)
		}
	}

	return r.Commit(ctx, tx)
}

// ListGenreNamesByBookIDs returns each book's genre names keyed by book ID.
func (r *PgxGenreRepository) ListGenreNamesByBookIDs(ctx context.Context, bookIDs []string) (map[string][]string, error) {
	query := `
		SELECT bg.book_id, g.name
		FROM book_genres bg
		JOIN genres g ON g.genre_id = bg.genre_id
		WHERE bg.book_id = ANY($1)
		ORDER BY g.name ASC;
	`
	rows, err := r.Pool.Query(ctx, query, bookIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to list book genres: %w", err)
	}
	defer rows.Close()

	byBook := make(map[string][]string)
	for rows.Next() {
		var bookID, name string
		if err := rows.Scan(&bookID, &name); err != nil {
			return nil, fmt.Errorf("failed to scan book genre row: %w", err)
		}
		byBook[bookID] = append(byBook[bookID], name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating book genre rows: %w", err)
	}
	return byBook, nil
}
