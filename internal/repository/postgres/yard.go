package postgres

import (
	"context"
	"errors"

	"github.com/frontandrew/yard/internal/domain"
	"github.com/frontandrew/yard/internal/repository"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type yardRepository struct {
	db *pgxpool.Pool
}

func NewYardRepository(db *pgxpool.Pool) repository.YardRepository {
	return &yardRepository{db: db}
}

func (r *yardRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Yard, error) {
	query := `
		SELECT id, name, strict_mode, is_active, created_at, updated_at
		FROM yards
		WHERE id = $1
	`

	yard := &domain.Yard{}
	err := r.db.QueryRow(ctx, query, id).Scan(
		&yard.ID,
		&yard.Name,
		&yard.StrictMode,
		&yard.IsActive,
		&yard.CreatedAt,
		&yard.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrYardNotFound
		}
		return nil, err
	}

	return yard, nil
}

func (r *yardRepository) IsStrict(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `
		SELECT strict_mode
		FROM yards
		WHERE id = $1 AND is_active = true
	`

	var strict bool
	err := r.db.QueryRow(ctx, query, id).Scan(&strict)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, domain.ErrYardNotFound
		}
		return false, err
	}

	return strict, nil
}
