package portfolios

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/avetrovs/folioauth/internal/server/models"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^\s*INSERT\s+INTO\s+portfolios\b.*RETURNING\s+id,\s*created_at,\s*last_updated\s*$`

	now := time.Now()
	mock.ExpectQuery(q).
		WithArgs(int64(7), "Main Portfolio", "Default investment portfolio", "USD").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "last_updated"}).
			AddRow(int64(1), now, now))

	p := &models.Portfolio{
		UserID:       7,
		Name:         "Main Portfolio",
		Description:  "Default investment portfolio",
		BaseCurrency: "USD",
	}
	if err := repo.Create(context.Background(), p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ID != 1 || !p.CreatedAt.Equal(now) {
		t.Fatalf("unexpected portfolio: %+v", p)
	}
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^\s*INSERT\s+INTO\s+portfolios\b`

	mock.ExpectQuery(q).
		WithArgs(int64(7), "Main Portfolio", "", "USD").
		WillReturnError(errors.New("db down"))

	err := repo.Create(context.Background(), &models.Portfolio{
		UserID:       7,
		Name:         "Main Portfolio",
		BaseCurrency: "USD",
	})
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}
