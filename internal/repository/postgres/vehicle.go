package postgres

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/frontandrew/yard/internal/domain"
	"github.com/frontandrew/yard/internal/pkg/platematch"
	"github.com/frontandrew/yard/internal/repository"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type vehicleRepository struct {
	db *pgxpool.Pool
}

func NewVehicleRepository(db *pgxpool.Pool) repository.VehicleRepository {
	return &vehicleRepository{db: db}
}

const vehicleColumns = `id, license_plate, category, owner_id, trusted, last_seen_at, is_active, created_at, updated_at`

func (r *vehicleRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Vehicle, error) {
	query := `
		SELECT ` + vehicleColumns + `
		FROM vehicles
		WHERE id = $1
	`

	vehicle := &domain.Vehicle{}
	err := r.db.QueryRow(ctx, query, id).Scan(
		&vehicle.ID,
		&vehicle.LicensePlate,
		&vehicle.Category,
		&vehicle.OwnerID,
		&vehicle.Trusted,
		&vehicle.LastSeenAt,
		&vehicle.IsActive,
		&vehicle.CreatedAt,
		&vehicle.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrVehicleNotFound
		}
		return nil, err
	}

	return vehicle, nil
}

func (r *vehicleRepository) FindExact(ctx context.Context, licensePlate string) (*domain.Vehicle, error) {
	query := `
		SELECT ` + vehicleColumns + `
		FROM vehicles
		WHERE license_plate = $1 AND is_active = true
	`

	vehicle := &domain.Vehicle{}
	err := r.db.QueryRow(ctx, query, licensePlate).Scan(
		&vehicle.ID,
		&vehicle.LicensePlate,
		&vehicle.Category,
		&vehicle.OwnerID,
		&vehicle.Trusted,
		&vehicle.LastSeenAt,
		&vehicle.IsActive,
		&vehicle.CreatedAt,
		&vehicle.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrVehicleNotFound
		}
		return nil, err
	}

	return vehicle, nil
}

// FindSimilar загружает активные ТС с сопоставимой длиной номера и
// ранжирует их оценкой platematch.Similarity на стороне приложения.
// Парк площадки измеряется тысячами записей, предварительный фильтр
// по длине удерживает выборку небольшой
func (r *vehicleRepository) FindSimilar(ctx context.Context, licensePlate string, minSimilarity, limit int) ([]*domain.VehicleMatch, error) {
	query := `
		SELECT ` + vehicleColumns + `
		FROM vehicles
		WHERE is_active = true
		  AND abs(length(license_plate) - length($1::text)) <= 2
	`

	rows, err := r.db.Query(ctx, query, licensePlate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var matches []*domain.VehicleMatch
	for rows.Next() {
		vehicle := &domain.Vehicle{}
		err := rows.Scan(
			&vehicle.ID,
			&vehicle.LicensePlate,
			&vehicle.Category,
			&vehicle.OwnerID,
			&vehicle.Trusted,
			&vehicle.LastSeenAt,
			&vehicle.IsActive,
			&vehicle.CreatedAt,
			&vehicle.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}

		score := platematch.Similarity(licensePlate, vehicle.LicensePlate)
		if score < minSimilarity {
			continue
		}
		matches = append(matches, &domain.VehicleMatch{Vehicle: vehicle, Similarity: score})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Сортировка: похожесть по убыванию, при равенстве - недавно замеченные первыми
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Similarity != matches[j].Similarity {
			return matches[i].Similarity > matches[j].Similarity
		}
		return lastSeenAfter(matches[i].Vehicle.LastSeenAt, matches[j].Vehicle.LastSeenAt)
	})

	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}

	return matches, nil
}

func (r *vehicleRepository) TouchLastSeen(ctx context.Context, id uuid.UUID, at time.Time) error {
	query := `
		UPDATE vehicles
		SET last_seen_at = $2, updated_at = $2
		WHERE id = $1
	`

	result, err := r.db.Exec(ctx, query, id, at)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return domain.ErrVehicleNotFound
	}

	return nil
}

// lastSeenAfter сравнивает отметки последнего проезда; nil считается самым старым
func lastSeenAfter(a, b *time.Time) bool {
	if a == nil {
		return false
	}
	if b == nil {
		return true
	}
	return a.After(*b)
}
