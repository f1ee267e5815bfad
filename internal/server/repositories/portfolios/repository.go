// Package portfolios provides the small slice of portfolio persistence the
// auth core needs: creating the default portfolio at registration.
package portfolios

import (
	"context"

	"github.com/avetrovs/folioauth/internal/server/models"
)

// Repository defines the portfolio operations used during registration.
type Repository interface {
	// Create inserts a portfolio and populates its ID and timestamps.
	Create(ctx context.Context, p *models.Portfolio) error
}
