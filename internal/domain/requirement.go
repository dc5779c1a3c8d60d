package domain

import (
	"time"

	"github.com/google/uuid"
)

// RequirementKind - какие взвешивания обязательны для визита
type RequirementKind string

const (
	RequirementKindEntry RequirementKind = "entry"
	RequirementKindExit  RequirementKind = "exit"
	RequirementKindBoth  RequirementKind = "both"
)

// IncludesEntry сообщает, требуется ли въездное взвешивание
func (k RequirementKind) IncludesEntry() bool {
	return k == RequirementKindEntry || k == RequirementKindBoth
}

// IncludesExit сообщает, требуется ли выездное взвешивание
func (k RequirementKind) IncludesExit() bool {
	return k == RequirementKindExit || k == RequirementKindBoth
}

// RequirementReason объясняет, из какого источника выведено требование
type RequirementReason string

const (
	RequirementReasonPermit   RequirementReason = "permit"           // Пропуск явно требует взвешивания
	RequirementReasonTask     RequirementReason = "task"             // Требование задано логистическим заданием
	RequirementReasonCategory RequirementReason = "vehicle_category" // Категория ТС требует взвешивания по умолчанию
)

// RequirementStatus представляет статус требования взвешивания.
// Статус движется только вперед: pending -> entry_done -> completed,
// единственный боковой выход - skipped из любого нетерминального состояния
type RequirementStatus string

const (
	RequirementStatusPending   RequirementStatus = "pending"
	RequirementStatusEntryDone RequirementStatus = "entry_done"
	RequirementStatusCompleted RequirementStatus = "completed"
	RequirementStatusSkipped   RequirementStatus = "skipped"
)

// IsTerminal сообщает, допускает ли статус дальнейшие переходы
func (s RequirementStatus) IsTerminal() bool {
	return s == RequirementStatusCompleted || s == RequirementStatusSkipped
}

// WeighingRequirement - обязательство зафиксировать въездной и/или выездной
// вес для визита. Выводится один раз в момент подтверждения визита
type WeighingRequirement struct {
	ID        uuid.UUID  `json:"id"`
	VisitID   uuid.UUID  `json:"visit_id"`
	VehicleID uuid.UUID  `json:"vehicle_id"`
	TaskID    *uuid.UUID `json:"task_id,omitempty"`

	Kind   RequirementKind   `json:"kind"`
	Reason RequirementReason `json:"reason"`
	Status RequirementStatus `json:"status"`

	SkipReason string     `json:"skip_reason,omitempty"`
	SkippedBy  *uuid.UUID `json:"skipped_by,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RequirementSpec - результат чистой функции вывода требования.
// nil-спецификация означает "взвешивание не требуется"
type RequirementSpec struct {
	Kind   RequirementKind
	Reason RequirementReason
}
