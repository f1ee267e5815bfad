package portfolios

import (
	"context"
	"fmt"

	"github.com/avetrovs/folioauth/internal/dbx"
	"github.com/avetrovs/folioauth/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, p *models.Portfolio) error {
	query := `
		INSERT INTO portfolios (user_id, name, description, base_currency)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, last_updated
	`
	err := r.db.QueryRowContext(ctx, query, p.UserID, p.Name, p.Description, p.BaseCurrency).
		Scan(&p.ID, &p.CreatedAt, &p.LastUpdated)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
