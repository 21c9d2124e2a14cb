package pgsql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/bookswapp/bookswap_backend/internal/apperrors"
	"github.com/bookswapp/bookswap_backend/internal/core/domain"
	portsrepo "github.com/bookswapp/bookswap_backend/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const userColumns = `user_id, name, email, password_hash, auth_provider, provider_user_id, email_verified,
	push_token, refresh_token_hash, refresh_token_expiry, created_at, updated_at`

type PgxUserRepository struct {
	BaseRepository
}

// newPgxUserRepository creates a new repository for user data.
func newPgxUserRepository(pool *pgxpool.Pool) portsrepo.UserRepositoryFacade {
	return &PgxUserRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.UserRepositoryFacade = (*PgxUserRepository)(nil)

func scanUser(row scannable) (*domain.User, error) {
	var (
		user               domain.User
		passwordHash       sql.NullString
		providerUserID     sql.NullString
		pushToken          sql.NullString
		refreshTokenHash   sql.NullString
		refreshTokenExpiry sql.NullTime
	)
	err := row.Scan(
		&user.UserID, &user.Name, &user.Email, &passwordHash, &user.AuthProvider, &providerUserID,
		&user.EmailVerified, &pushToken, &refreshTokenHash, &refreshTokenExpiry,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	user.PasswordHash = passwordHash.String
	user.ProviderUserID = providerUserID.String
	user.PushToken = pushToken.String
	user.RefreshTokenHash = refreshTokenHash.String
	if refreshTokenExpiry.Valid {
		user.RefreshTokenExpiryTime = &refreshTokenExpiry.Time
	}
	return &user, nil
}

func (r *PgxUserRepository) findUserWhere(ctx context.Context, condition string, args ...any) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + condition + `;`
	user, err := scanUser(r.Pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: user not found", apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

// FindUserByID retrieves a user by their identifier.
func (r *PgxUserRepository) FindUserByID(ctx context.Context, userID string) (*domain.User, error) {
	return r.findUserWhere(ctx, "user_id = $1", userID)
}

// FindUserByEmail retrieves a user by email address.
func (r *PgxUserRepository) FindUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findUserWhere(ctx, "email = $1", email)
}

// FindUserByProviderID retrieves a user by OAuth provider identity.
func (r *PgxUserRepository) FindUserByProviderID(ctx context.Context, provider, providerUserID string) (*domain.User, error) {
	return r.findUserWhere(ctx, "auth_provider = $1 AND provider_user_id = $2", provider, providerUserID)
}

// SaveUser inserts a new user.
func (r *PgxUserRepository) SaveUser(ctx context.Context, user domain.User) error {
	query := `
		INSERT INTO users (user_id, name, email, password_hash, auth_provider, provider_user_id, email_verified,
			push_token, refresh_token_hash, refresh_token_expiry, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12);
	`
	_, err := r.Pool.Exec(ctx, query,
		user.UserID, user.Name, user.Email, nullIfEmpty(user.PasswordHash),
		user.AuthProvider, nullIfEmpty(user.ProviderUserID), user.EmailVerified,
		nullIfEmpty(user.PushToken), nullIfEmpty(user.RefreshTokenHash), user.RefreshTokenExpiryTime,
		user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: user with this email already exists", apperrors.ErrDuplicate)
		}
		return fmt.Errorf("failed to save user %s: %w", user.UserID, err)
	}
	return nil
}

// UpdateUser updates a user's mutable fields.
func (r *PgxUserRepository) UpdateUser(ctx context.Context, user domain.User) error {
	query := `
		UPDATE users
		SET name = $2, email = $3, password_hash = $4, auth_provider = $5, provider_user_id = $6,
			email_verified = $7, updated_at = $8
		WHERE user_id = $1;
	`
	tag, err := r.Pool.Exec(ctx, query,
		user.UserID, user.Name, user.Email, nullIfEmpty(user.PasswordHash),
		user.AuthProvider, nullIfEmpty(user.ProviderUserID), user.EmailVerified, user.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update user %s: %w", user.UserID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: user with ID %s not found", apperrors.ErrNotFound, user.UserID)
	}
	return nil
}

// UpdatePushToken stores the user's push token.
func (r *PgxUserRepository) UpdatePushToken(ctx context.Context, userID, pushToken string, now time.Time) error {
	query := `UPDATE users SET push_token = $2, updated_at = $3 WHERE user_id = $1;`
	tag, err := r.Pool.Exec(ctx, query, userID, nullIfEmpty(pushToken), now)
	if err != nil {
		return fmt.Errorf("failed to update push token for user %s: %w", userID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: user with ID %s not found", apperrors.ErrNotFound, userID)
	}
	return nil
}

// UpdateRefreshToken stores the hashed refresh token and its expiry.
func (r *PgxUserRepository) UpdateRefreshToken(ctx context.Context, userID, refreshTokenHash string, expiry *time.Time, now time.Time) error {
	query := `UPDATE users SET refresh_token_hash = $2, refresh_token_expiry = $3, updated_at = $4 WHERE user_id = $1;`
	tag, err := r.Pool.Exec(ctx, query, userID, nullIfEmpty(refreshTokenHash), expiry, now)
	if err != nil {
		return fmt.Errorf("failed to update refresh token for user %s: %w", userID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: user with ID %s not found", apperrors.ErrNotFound, userID)
	}
	return nil
}

// nullIfEmpty maps empty strings to SQL NULL.
func nullIfEmpty(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
