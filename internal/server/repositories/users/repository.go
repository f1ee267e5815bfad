// Package users declares the persistence contract for identities.
package users

import (
	"context"
	"time"

	"github.com/avetrovs/folioauth/internal/server/models"
)

// Repository defines operations over stored users.
type Repository interface {
	// Create inserts a new user and returns it with ID and CreatedAt
	// populated. A username or email collision yields common.ErrConflict.
	Create(ctx context.Context, user *models.User) (*models.User, error)

	// FindActiveByEmail looks up an active user by email. Matching is
	// case-insensitive. Absent or deactivated users yield common.ErrNotFound.
	FindActiveByEmail(ctx context.Context, email string) (*models.User, error)

	// FindByID looks up a user by its numeric id, active or not.
	FindByID(ctx context.Context, id int64) (*models.User, error)

	// ExistsByEmailOrUsername reports whether any user already holds the
	// email (case-insensitive) or the username (case-sensitive).
	ExistsByEmailOrUsername(ctx context.Context, email, username string) (bool, error)

	// UpdateLastLogin records a successful login instant.
	UpdateLastLogin(ctx context.Context, id int64, at time.Time) error
}
