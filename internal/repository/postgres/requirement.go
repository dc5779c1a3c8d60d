package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/frontandrew/yard/internal/domain"
	"github.com/frontandrew/yard/internal/repository"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type requirementRepository struct {
	db *pgxpool.Pool
}

func NewRequirementRepository(db *pgxpool.Pool) repository.RequirementRepository {
	return &requirementRepository{db: db}
}

const requirementColumns = `id, visit_id, vehicle_id, task_id, kind, reason, status,
	       skip_reason, skipped_by, created_at, updated_at`

func (r *requirementRepository) Create(ctx context.Context, req *domain.WeighingRequirement) error {
	query := `
		INSERT INTO weighing_requirements (id, visit_id, vehicle_id, task_id, kind, reason, status,
		                                   skip_reason, skipped_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	req.ID = uuid.New()
	req.CreatedAt = time.Now()
	req.UpdatedAt = req.CreatedAt

	_, err := r.db.Exec(ctx, query,
		req.ID,
		req.VisitID,
		req.VehicleID,
		req.TaskID,
		req.Kind,
		req.Reason,
		req.Status,
		req.SkipReason,
		req.SkippedBy,
		req.CreatedAt,
		req.UpdatedAt,
	)

	return err
}

func (r *requirementRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.WeighingRequirement, error) {
	query := `
		SELECT ` + requirementColumns + `
		FROM weighing_requirements
		WHERE id = $1
	`

	return r.scanOne(r.db.QueryRow(ctx, query, id))
}

func (r *requirementRepository) GetByVisitID(ctx context.Context, visitID uuid.UUID) (*domain.WeighingRequirement, error) {
	query := `
		SELECT ` + requirementColumns + `
		FROM weighing_requirements
		WHERE visit_id = $1
	`

	return r.scanOne(r.db.QueryRow(ctx, query, visitID))
}

// Skip переводит требование в skipped при условии, что его текущий статус
// все еще from: гонка пропуска с параллельным взвешиванием разрешается
// в пользу первого успевшего, второй получает конфликт
func (r *requirementRepository) Skip(ctx context.Context, id uuid.UUID, from domain.RequirementStatus, reason string, actor uuid.UUID) error {
	query := `
		UPDATE weighing_requirements
		SET status = 'skipped', skip_reason = $3, skipped_by = $4, updated_at = $5
		WHERE id = $1 AND status = $2
	`

	result, err := r.db.Exec(ctx, query, id, from, reason, actor, time.Now())
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		// Различаем "нет такого требования" и "статус уже другой"
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return domain.ErrRequirementConflict
	}

	return nil
}

func (r *requirementRepository) scanOne(row pgx.Row) (*domain.WeighingRequirement, error) {
	req := &domain.WeighingRequirement{}
	err := row.Scan(
		&req.ID,
		&req.VisitID,
		&req.VehicleID,
		&req.TaskID,
		&req.Kind,
		&req.Reason,
		&req.Status,
		&req.SkipReason,
		&req.SkippedBy,
		&req.CreatedAt,
		&req.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRequirementNotFound
		}
		return nil, err
	}

	return req, nil
}
