package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/frontandrew/yard/internal/domain"
	"github.com/frontandrew/yard/internal/repository"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type visitRepository struct {
	db *pgxpool.Pool
}

func NewVisitRepository(db *pgxpool.Pool) repository.VisitRepository {
	return &visitRepository{db: db}
}

const visitColumns = `id, license_plate, vehicle_id, yard_id, checkpoint_id, confidence,
	       entered_at, exited_at, task_id, permit_id, status, pending_reason, reject_reason,
	       created_at, updated_at`

const insertVisitQuery = `
	INSERT INTO visits (id, license_plate, vehicle_id, yard_id, checkpoint_id, confidence,
	                    entered_at, exited_at, task_id, permit_id, status, pending_reason, reject_reason,
	                    created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
`

const updateVisitQuery = `
	UPDATE visits
	SET license_plate = $2, vehicle_id = $3, checkpoint_id = $4, confidence = $5,
	    exited_at = $6, task_id = $7, permit_id = $8, status = $9,
	    pending_reason = $10, reject_reason = $11, updated_at = $12
	WHERE id = $1
`

func (r *visitRepository) Create(ctx context.Context, visit *domain.Visit) error {
	visit.ID = uuid.New()
	visit.CreatedAt = time.Now()
	visit.UpdatedAt = visit.CreatedAt

	_, err := r.db.Exec(ctx, insertVisitQuery, insertVisitArgs(visit)...)
	return translateVisitError(err)
}

// CreateAdmitted создает визит on_site и расходует разовый пропуск
// в одной транзакции - допуск либо происходит целиком, либо не происходит
func (r *visitRepository) CreateAdmitted(ctx context.Context, visit *domain.Visit, consumePermitID *uuid.UUID) error {
	visit.ID = uuid.New()
	visit.CreatedAt = time.Now()
	visit.UpdatedAt = visit.CreatedAt

	return r.admitTx(ctx, consumePermitID, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, insertVisitQuery, insertVisitArgs(visit)...)
		return err
	})
}

// UpdateAdmitted сохраняет подтвержденный визит и расходует разовый
// пропуск в одной транзакции
func (r *visitRepository) UpdateAdmitted(ctx context.Context, visit *domain.Visit, consumePermitID *uuid.UUID) error {
	visit.UpdatedAt = time.Now()

	return r.admitTx(ctx, consumePermitID, func(tx pgx.Tx) error {
		result, err := tx.Exec(ctx, updateVisitQuery, updateVisitArgs(visit)...)
		if err != nil {
			return err
		}
		if result.RowsAffected() == 0 {
			return domain.ErrVisitNotFound
		}
		return nil
	})
}

// admitTx выполняет запись визита и деактивацию пропуска атомарно
func (r *visitRepository) admitTx(ctx context.Context, consumePermitID *uuid.UUID, writeVisit func(pgx.Tx) error) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if consumePermitID != nil {
		result, err := tx.Exec(ctx,
			`UPDATE entry_permits SET status = 'inactive', updated_at = $2 WHERE id = $1 AND status = 'active'`,
			*consumePermitID, time.Now(),
		)
		if err != nil {
			return err
		}
		if result.RowsAffected() == 0 {
			return domain.ErrPermitConsumed
		}
	}

	if err := writeVisit(tx); err != nil {
		return translateVisitError(err)
	}

	return tx.Commit(ctx)
}

func (r *visitRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Visit, error) {
	query := `
		SELECT ` + visitColumns + `
		FROM visits
		WHERE id = $1
	`

	visit := &domain.Visit{}
	err := r.db.QueryRow(ctx, query, id).Scan(scanVisitFields(visit)...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrVisitNotFound
		}
		return nil, err
	}

	return visit, nil
}

func (r *visitRepository) GetActiveByVehicleAndYard(ctx context.Context, vehicleID, yardID uuid.UUID) (*domain.Visit, error) {
	query := `
		SELECT ` + visitColumns + `
		FROM visits
		WHERE vehicle_id = $1 AND yard_id = $2 AND status = 'on_site'
	`

	visit := &domain.Visit{}
	err := r.db.QueryRow(ctx, query, vehicleID, yardID).Scan(scanVisitFields(visit)...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNoActiveVisit
		}
		return nil, err
	}

	return visit, nil
}

func (r *visitRepository) Update(ctx context.Context, visit *domain.Visit) error {
	visit.UpdatedAt = time.Now()

	result, err := r.db.Exec(ctx, updateVisitQuery, updateVisitArgs(visit)...)
	if err != nil {
		return translateVisitError(err)
	}

	if result.RowsAffected() == 0 {
		return domain.ErrVisitNotFound
	}

	return nil
}

func (r *visitRepository) ListByYard(ctx context.Context, yardID uuid.UUID, limit, offset int) ([]*domain.Visit, error) {
	query := `
		SELECT ` + visitColumns + `
		FROM visits
		WHERE yard_id = $1
		ORDER BY entered_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.Query(ctx, query, yardID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanVisits(rows)
}

// ListTouchingWindow возвращает визиты, интервал присутствия которых
// пересекает окно отчета. Ожидающие и отклоненные визиты не попадают
// в сменный отчет - ТС не было на территории
func (r *visitRepository) ListTouchingWindow(ctx context.Context, yardID uuid.UUID, start, end time.Time) ([]*domain.Visit, error) {
	query := `
		SELECT ` + visitColumns + `
		FROM visits
		WHERE yard_id = $1
		  AND status IN ('on_site', 'departed')
		  AND entered_at <= $3
		  AND (exited_at IS NULL OR exited_at >= $2)
		ORDER BY entered_at
	`

	rows, err := r.db.Query(ctx, query, yardID, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanVisits(rows)
}

// Вспомогательные функции сканирования и аргументов

func insertVisitArgs(v *domain.Visit) []interface{} {
	return []interface{}{
		v.ID, v.LicensePlate, v.VehicleID, v.YardID, v.CheckpointID, v.Confidence,
		v.EnteredAt, v.ExitedAt, v.TaskID, v.PermitID, v.Status, v.PendingReason, v.RejectReason,
		v.CreatedAt, v.UpdatedAt,
	}
}

func updateVisitArgs(v *domain.Visit) []interface{} {
	return []interface{}{
		v.ID, v.LicensePlate, v.VehicleID, v.CheckpointID, v.Confidence,
		v.ExitedAt, v.TaskID, v.PermitID, v.Status, v.PendingReason, v.RejectReason,
		v.UpdatedAt,
	}
}

func scanVisitFields(v *domain.Visit) []interface{} {
	return []interface{}{
		&v.ID, &v.LicensePlate, &v.VehicleID, &v.YardID, &v.CheckpointID, &v.Confidence,
		&v.EnteredAt, &v.ExitedAt, &v.TaskID, &v.PermitID, &v.Status, &v.PendingReason, &v.RejectReason,
		&v.CreatedAt, &v.UpdatedAt,
	}
}

func scanVisits(rows pgx.Rows) ([]*domain.Visit, error) {
	var visits []*domain.Visit
	for rows.Next() {
		visit := &domain.Visit{}
		if err := rows.Scan(scanVisitFields(visit)...); err != nil {
			return nil, err
		}
		visits = append(visits, visit)
	}

	return visits, rows.Err()
}

// translateVisitError превращает нарушение частичного уникального индекса
// visits(vehicle_id, yard_id) WHERE status = 'on_site' в доменную ошибку.
// Индекс - последний рубеж инварианта "не более одного on_site визита",
// даже если сериализация на уровне сервиса была обойдена
func translateVisitError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return domain.ErrVehicleAlreadyOnSite
	}
	return err
}
