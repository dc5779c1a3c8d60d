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

type permitRepository struct {
	db *pgxpool.Pool
}

func NewPermitRepository(db *pgxpool.Pool) repository.PermitRepository {
	return &permitRepository{db: db}
}

const permitColumns = `id, vehicle_id, yard_id, task_id, driver_id, issued_by, single_use, weighing,
	       valid_from, valid_until, status, guest_name, guest_contact, created_at, updated_at`

func (r *permitRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.EntryPermit, error) {
	query := `
		SELECT ` + permitColumns + `
		FROM entry_permits
		WHERE id = $1
	`

	permit := &domain.EntryPermit{}
	err := r.db.QueryRow(ctx, query, id).Scan(
		&permit.ID,
		&permit.VehicleID,
		&permit.YardID,
		&permit.TaskID,
		&permit.DriverID,
		&permit.IssuedBy,
		&permit.SingleUse,
		&permit.Weighing,
		&permit.ValidFrom,
		&permit.ValidUntil,
		&permit.Status,
		&permit.GuestName,
		&permit.GuestContact,
		&permit.CreatedAt,
		&permit.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPermitNotFound
		}
		return nil, err
	}

	return permit, nil
}

// FindCovering - КЛЮЧЕВОЙ МЕТОД резолвера допуска.
// Возвращает активные пропуска ТС на площадке, окно действия которых
// покрывает момент at; привязанные к заданию первыми
func (r *permitRepository) FindCovering(ctx context.Context, vehicleID, yardID uuid.UUID, at time.Time) ([]*domain.EntryPermit, error) {
	query := `
		SELECT ` + permitColumns + `
		FROM entry_permits
		WHERE vehicle_id = $1
		  AND yard_id = $2
		  AND status = 'active'
		  AND (valid_from IS NULL OR valid_from <= $3)
		  AND (valid_until IS NULL OR valid_until >= $3)
		ORDER BY (task_id IS NULL), created_at DESC
	`

	rows, err := r.db.Query(ctx, query, vehicleID, yardID, at)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var permits []*domain.EntryPermit
	for rows.Next() {
		permit := &domain.EntryPermit{}
		err := rows.Scan(
			&permit.ID,
			&permit.VehicleID,
			&permit.YardID,
			&permit.TaskID,
			&permit.DriverID,
			&permit.IssuedBy,
			&permit.SingleUse,
			&permit.Weighing,
			&permit.ValidFrom,
			&permit.ValidUntil,
			&permit.Status,
			&permit.GuestName,
			&permit.GuestContact,
			&permit.CreatedAt,
			&permit.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		permits = append(permits, permit)
	}

	return permits, rows.Err()
}

// Deactivate переводит пропуск в inactive ровно один раз:
// условие status = 'active' не дает израсходовать пропуск повторно
func (r *permitRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE entry_permits
		SET status = 'inactive', updated_at = $2
		WHERE id = $1 AND status = 'active'
	`

	result, err := r.db.Exec(ctx, query, id, time.Now())
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return domain.ErrPermitConsumed
	}

	return nil
}
