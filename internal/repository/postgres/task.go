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

type taskRepository struct {
	db *pgxpool.Pool
}

func NewTaskRepository(db *pgxpool.Pool) repository.TaskRepository {
	return &taskRepository{db: db}
}

const taskColumns = `id, vehicle_id, yard_id, plan_time, status, weighing_required, visit_id, created_at, updated_at`

func (r *taskRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	query := `
		SELECT ` + taskColumns + `
		FROM tasks
		WHERE id = $1
	`

	task := &domain.Task{}
	err := r.db.QueryRow(ctx, query, id).Scan(
		&task.ID,
		&task.VehicleID,
		&task.YardID,
		&task.PlanTime,
		&task.Status,
		&task.WeighingRequired,
		&task.VisitID,
		&task.CreatedAt,
		&task.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, err
	}

	return task, nil
}

func (r *taskRepository) FindExpected(ctx context.Context, yardID uuid.UUID, from, to time.Time) ([]*domain.Task, error) {
	query := `
		SELECT ` + taskColumns + `
		FROM tasks
		WHERE yard_id = $1
		  AND status = 'planned'
		  AND plan_time BETWEEN $2 AND $3
		ORDER BY plan_time
	`

	rows, err := r.db.Query(ctx, query, yardID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []*domain.Task
	for rows.Next() {
		task := &domain.Task{}
		err := rows.Scan(
			&task.ID,
			&task.VehicleID,
			&task.YardID,
			&task.PlanTime,
			&task.Status,
			&task.WeighingRequired,
			&task.VisitID,
			&task.CreatedAt,
			&task.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}

	return tasks, rows.Err()
}

func (r *taskRepository) OnVisitConfirmed(ctx context.Context, taskID, visitID uuid.UUID) error {
	query := `
		UPDATE tasks
		SET status = 'arrived', visit_id = $2, updated_at = $3
		WHERE id = $1 AND status = 'planned'
	`

	result, err := r.db.Exec(ctx, query, taskID, visitID, time.Now())
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return domain.ErrTaskNotFound
	}

	return nil
}

func (r *taskRepository) OnVisitDeparted(ctx context.Context, taskID uuid.UUID) error {
	query := `
		UPDATE tasks
		SET status = 'completed', updated_at = $2
		WHERE id = $1 AND status = 'arrived'
	`

	result, err := r.db.Exec(ctx, query, taskID, time.Now())
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return domain.ErrTaskNotFound
	}

	return nil
}
