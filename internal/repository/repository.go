package repository

import (
	"context"
	"time"

	"github.com/frontandrew/yard/internal/domain"
	"github.com/google/uuid"
)

// VehicleRepository определяет доступ к реестру ТС (внешний справочник,
// ядро только читает и обновляет отметку последнего проезда)
type VehicleRepository interface {
	// GetByID возвращает ТС по ID
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Vehicle, error)

	// FindExact возвращает ТС по нормализованному номеру
	FindExact(ctx context.Context, licensePlate string) (*domain.Vehicle, error)

	// FindSimilar возвращает кандидатов, похожих на указанный номер,
	// отсортированных по убыванию похожести; при равенстве - недавно
	// замеченные ТС первыми. Кандидаты с похожестью ниже minSimilarity
	// отбрасываются
	FindSimilar(ctx context.Context, licensePlate string, minSimilarity, limit int) ([]*domain.VehicleMatch, error)

	// TouchLastSeen обновляет отметку последнего зафиксированного проезда
	TouchLastSeen(ctx context.Context, id uuid.UUID, at time.Time) error
}

// PermitRepository определяет доступ к реестру пропусков
type PermitRepository interface {
	// GetByID возвращает пропуск по ID
	GetByID(ctx context.Context, id uuid.UUID) (*domain.EntryPermit, error)

	// FindCovering возвращает активные пропуска ТС на площадке,
	// покрывающие момент времени at
	FindCovering(ctx context.Context, vehicleID, yardID uuid.UUID, at time.Time) ([]*domain.EntryPermit, error)

	// Deactivate переводит пропуск в inactive.
	// Возвращает ErrPermitConsumed, если пропуск уже не активен
	Deactivate(ctx context.Context, id uuid.UUID) error
}

// YardRepository определяет доступ к справочнику площадок
type YardRepository interface {
	// GetByID возвращает площадку по ID
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Yard, error)

	// IsStrict возвращает флаг строгого режима площадки
	IsStrict(ctx context.Context, id uuid.UUID) (bool, error)
}

// TaskRepository определяет доступ к логистическим заданиям
// (внешняя система; ядро читает ожидаемые задания и уведомляет
// о событиях визита)
type TaskRepository interface {
	// GetByID возвращает задание по ID
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error)

	// FindExpected возвращает еще не прибывшие задания площадки
	// с плановым временем в окне [from, to]
	FindExpected(ctx context.Context, yardID uuid.UUID, from, to time.Time) ([]*domain.Task, error)

	// OnVisitConfirmed отмечает прибытие ТС по заданию
	OnVisitConfirmed(ctx context.Context, taskID, visitID uuid.UUID) error

	// OnVisitDeparted отмечает убытие ТС и закрывает задание
	OnVisitDeparted(ctx context.Context, taskID uuid.UUID) error
}

// VisitRepository определяет методы для работы с визитами
type VisitRepository interface {
	// Create создает новый визит
	Create(ctx context.Context, visit *domain.Visit) error

	// CreateAdmitted создает визит on_site и, если указан consumePermitID,
	// деактивирует разовый пропуск в той же транзакции.
	// КЛЮЧЕВОЙ МЕТОД атомарной единицы допуска
	CreateAdmitted(ctx context.Context, visit *domain.Visit, consumePermitID *uuid.UUID) error

	// UpdateAdmitted сохраняет подтвержденный визит и, если указан
	// consumePermitID, деактивирует разовый пропуск в той же транзакции
	UpdateAdmitted(ctx context.Context, visit *domain.Visit, consumePermitID *uuid.UUID) error

	// GetByID возвращает визит по ID
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Visit, error)

	// GetActiveByVehicleAndYard возвращает единственный визит on_site
	// для пары (ТС, площадка). Возвращает ErrNoActiveVisit, если такого нет
	GetActiveByVehicleAndYard(ctx context.Context, vehicleID, yardID uuid.UUID) (*domain.Visit, error)

	// Update обновляет данные визита
	Update(ctx context.Context, visit *domain.Visit) error

	// ListByYard возвращает визиты площадки с пагинацией,
	// новые первыми
	ListByYard(ctx context.Context, yardID uuid.UUID, limit, offset int) ([]*domain.Visit, error)

	// ListTouchingWindow возвращает визиты площадки (on_site и departed),
	// чей интервал присутствия пересекает окно [start, end]
	ListTouchingWindow(ctx context.Context, yardID uuid.UUID, start, end time.Time) ([]*domain.Visit, error)
}

// RequirementRepository определяет методы для работы с требованиями взвешивания
type RequirementRepository interface {
	// Create создает новое требование
	Create(ctx context.Context, req *domain.WeighingRequirement) error

	// GetByID возвращает требование по ID
	GetByID(ctx context.Context, id uuid.UUID) (*domain.WeighingRequirement, error)

	// GetByVisitID возвращает требование визита
	GetByVisitID(ctx context.Context, visitID uuid.UUID) (*domain.WeighingRequirement, error)

	// Skip переводит требование из статуса from в skipped с обязательной
	// причиной. Возвращает ErrRequirementConflict, если текущий статус
	// уже не from
	Skip(ctx context.Context, id uuid.UUID, from domain.RequirementStatus, reason string, actor uuid.UUID) error
}

// WeighingRepository определяет методы для работы с измерениями веса
type WeighingRepository interface {
	// Create сохраняет измерение без изменения требования
	// (промежуточные и внетребованийные измерения)
	Create(ctx context.Context, w *domain.Weighing) error

	// CreateCounted сохраняет засчитываемое измерение и переводит его
	// требование из статуса from в to в одной транзакции.
	// Возвращает ErrRequirementConflict, если статус требования уже не from
	CreateCounted(ctx context.Context, w *domain.Weighing, from, to domain.RequirementStatus) error

	// ListByVisit возвращает измерения визита в порядке фиксации
	ListByVisit(ctx context.Context, visitID uuid.UUID) ([]*domain.Weighing, error)
}
