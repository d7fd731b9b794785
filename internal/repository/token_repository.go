package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/admin-platform/internal/database"
)

// BlacklistRepo persists revoked tokens keyed by their SHA-256 digest.
// Rows are append-only; the unique index on token_hash makes repeated
// inserts of the same token a no-op.
type BlacklistRepo struct{ DB database.DBTX }

func NewBlacklistRepo(db database.DBTX) *BlacklistRepo { return &BlacklistRepo{DB: db} }

// Insert records tokenHash as revoked until expiresAt.
func (r *BlacklistRepo) Insert(ctx context.Context, tokenHash string, expiresAt time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT IGNORE INTO token_blacklist (id, token_hash, expires_at) VALUES (?,?,?)",
		uuid.NewString(), tokenHash, expiresAt.UTC())
	if err != nil {
		return fmt.Errorf("insert blacklist: %w", err)
	}
	return nil
}

// IsActive reports whether a record for tokenHash exists whose expiry is
// still after now.
func (r *BlacklistRepo) IsActive(ctx context.Context, tokenHash string, now time.Time) (bool, error) {
	var one int
	err := r.DB.QueryRowContext(ctx,
		"SELECT 1 FROM token_blacklist WHERE token_hash=? AND expires_at > ? LIMIT 1",
		tokenHash, now.UTC()).Scan(&one)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("query blacklist: %w", err)
	}
	return true, nil
}

// DeleteExpired removes records that can no longer match and returns how
// many were deleted.
func (r *BlacklistRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM token_blacklist WHERE expires_at <= ?", now.UTC())
	if err != nil {
		return 0, fmt.Errorf("delete expired blacklist: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}
