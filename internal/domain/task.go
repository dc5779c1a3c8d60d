package domain

import (
	"time"

	"github.com/google/uuid"
)

// TaskStatus представляет статус логистического задания
type TaskStatus string

const (
	TaskStatusPlanned   TaskStatus = "planned"
	TaskStatusArrived   TaskStatus = "arrived"
	TaskStatusCompleted TaskStatus = "completed"
)

// Task - ожидаемое логистическое задание (внешняя сущность, ядро читает
// и уведомляет о событиях визита, но не управляет его жизненным циклом)
type Task struct {
	ID        uuid.UUID  `json:"id"`
	VehicleID uuid.UUID  `json:"vehicle_id"`
	YardID    uuid.UUID  `json:"yard_id"`
	PlanTime  time.Time  `json:"plan_time"`
	Status    TaskStatus `json:"status"`
	// WeighingRequired - задание требует взвешивания независимо от категории ТС
	WeighingRequired bool       `json:"weighing_required"`
	VisitID          *uuid.UUID `json:"visit_id,omitempty"` // Проставляется при подтверждении визита
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}
