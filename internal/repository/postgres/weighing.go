package postgres

import (
	"context"
	"time"

	"github.com/frontandrew/yard/internal/domain"
	"github.com/frontandrew/yard/internal/repository"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type weighingRepository struct {
	db *pgxpool.Pool
}

func NewWeighingRepository(db *pgxpool.Pool) repository.WeighingRepository {
	return &weighingRepository{db: db}
}

const insertWeighingQuery = `
	INSERT INTO weighings (id, requirement_id, visit_id, vehicle_id, kind, weight_kg,
	                       measured_at, operator_id, note)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
`

func (r *weighingRepository) Create(ctx context.Context, w *domain.Weighing) error {
	w.ID = uuid.New()
	if w.MeasuredAt.IsZero() {
		w.MeasuredAt = time.Now()
	}

	_, err := r.db.Exec(ctx, insertWeighingQuery, insertWeighingArgs(w)...)
	return err
}

// CreateCounted фиксирует засчитываемое измерение и продвигает статус
// требования в одной транзакции. Условие status = from гарантирует,
// что параллельный переход (второе взвешивание, пропуск) не будет
// молча перезаписан - проигравший получает ErrRequirementConflict
func (r *weighingRepository) CreateCounted(ctx context.Context, w *domain.Weighing, from, to domain.RequirementStatus) error {
	if w.RequirementID == nil {
		return domain.ErrRequirementNotFound
	}

	w.ID = uuid.New()
	if w.MeasuredAt.IsZero() {
		w.MeasuredAt = time.Now()
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	result, err := tx.Exec(ctx,
		`UPDATE weighing_requirements SET status = $3, updated_at = $4 WHERE id = $1 AND status = $2`,
		*w.RequirementID, from, to, time.Now(),
	)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return domain.ErrRequirementConflict
	}

	if _, err := tx.Exec(ctx, insertWeighingQuery, insertWeighingArgs(w)...); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *weighingRepository) ListByVisit(ctx context.Context, visitID uuid.UUID) ([]*domain.Weighing, error) {
	query := `
		SELECT id, requirement_id, visit_id, vehicle_id, kind, weight_kg,
		       measured_at, operator_id, note
		FROM weighings
		WHERE visit_id = $1
		ORDER BY measured_at
	`

	rows, err := r.db.Query(ctx, query, visitID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanWeighings(rows)
}

func insertWeighingArgs(w *domain.Weighing) []interface{} {
	return []interface{}{
		w.ID, w.RequirementID, w.VisitID, w.VehicleID, w.Kind, w.WeightKg,
		w.MeasuredAt, w.OperatorID, w.Note,
	}
}

func scanWeighings(rows pgx.Rows) ([]*domain.Weighing, error) {
	var weighings []*domain.Weighing
	for rows.Next() {
		w := &domain.Weighing{}
		err := rows.Scan(
			&w.ID,
			&w.RequirementID,
			&w.VisitID,
			&w.VehicleID,
			&w.Kind,
			&w.WeightKg,
			&w.MeasuredAt,
			&w.OperatorID,
			&w.Note,
		)
		if err != nil {
			return nil, err
		}
		weighings = append(weighings, w)
	}

	return weighings, rows.Err()
}
