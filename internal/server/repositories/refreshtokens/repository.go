// Package refreshtokens declares the persistence contract for refresh-token
// records. Records transition one way: created once, revoked at most once,
// never deleted here.
package refreshtokens

import (
	"context"
	"time"

	"github.com/avetrovs/folioauth/internal/server/models"
)

// Repository defines operations for storing and revoking refresh tokens.
type Repository interface {
	// Create inserts a new record. A duplicate token value yields
	// common.ErrConflict; the collision probability is negligible by
	// construction but the unique index is still checked, not assumed.
	Create(ctx context.Context, token *models.RefreshToken) error

	// FindByToken looks up a record by its opaque token value and returns
	// common.ErrNotFound when absent.
	FindByToken(ctx context.Context, token string) (*models.RefreshToken, error)

	// FindActiveByUser returns all records for the user with revoked_at
	// unset, regardless of expiry. Expiry is the caller's call, so that
	// expired-but-unrevoked rows stay distinguishable for audit.
	FindActiveByUser(ctx context.Context, userID int64) ([]*models.RefreshToken, error)

	// Revoke sets revoked_at on the record if it is not already set and
	// reports whether a row changed. Revoking an already-revoked or
	// missing record is a no-op, not an error.
	Revoke(ctx context.Context, id string, at time.Time) (bool, error)

	// RevokeAllForUser revokes every unrevoked record of the user in a
	// single statement and returns the number of rows changed.
	RevokeAllForUser(ctx context.Context, userID int64, at time.Time) (int64, error)
}
