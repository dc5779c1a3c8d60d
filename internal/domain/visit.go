package domain

import (
	"time"

	"github.com/google/uuid"
)

// VisitStatus представляет статус визита
type VisitStatus string

const (
	VisitStatusPendingConfirmation VisitStatus = "pending_confirmation" // Ожидает решения оператора
	VisitStatusOnSite              VisitStatus = "on_site"              // ТС на территории
	VisitStatusDeparted            VisitStatus = "departed"             // ТС покинуло территорию
	VisitStatusRejected            VisitStatus = "rejected"             // Допуск отклонен оператором
)

// PendingReason объясняет, почему визит ожидает подтверждения
type PendingReason string

const (
	PendingReasonNone            PendingReason = "none"
	PendingReasonVehicleNotFound PendingReason = "vehicle_not_found" // Номер не найден в реестре
	PendingReasonLowConfidence   PendingReason = "low_confidence"    // Уверенность распознавания ниже порога
	PendingReasonNoPermit        PendingReason = "no_permit"         // Строгий режим заблокировал допуск без пропуска
)

// Visit - запись о присутствии ТС на площадке, от решения о допуске до выезда.
// Визиты никогда не удаляются, только переводятся между статусами (журнал аудита).
// Инвариант: для пары (vehicle_id, yard_id) в любой момент не более одного
// визита в статусе on_site
type Visit struct {
	ID           uuid.UUID  `json:"id"`
	LicensePlate string     `json:"license_plate"` // Распознанный номер (нормализованный)
	VehicleID    *uuid.UUID `json:"vehicle_id,omitempty"`
	YardID       uuid.UUID  `json:"yard_id"`
	CheckpointID string     `json:"checkpoint_id"` // Устройство/точка проезда
	// Confidence - уверенность распознавания 0-100; nil для ручного ввода
	Confidence *float64 `json:"confidence,omitempty"`

	EnteredAt time.Time  `json:"entered_at"`
	ExitedAt  *time.Time `json:"exited_at,omitempty"`

	TaskID   *uuid.UUID `json:"task_id,omitempty"`
	PermitID *uuid.UUID `json:"permit_id,omitempty"`

	Status        VisitStatus   `json:"status"`
	PendingReason PendingReason `json:"pending_reason"`
	RejectReason  string        `json:"reject_reason,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsTerminal сообщает, завершен ли жизненный цикл визита
func (v *Visit) IsTerminal() bool {
	return v.Status == VisitStatusDeparted || v.Status == VisitStatusRejected
}

// Validate проверяет корректность данных визита
func (v *Visit) Validate() error {
	if v.LicensePlate == "" {
		return ErrInvalidLicensePlate
	}
	if v.YardID == uuid.Nil {
		return ErrInvalidVisitData
	}
	if v.Confidence != nil && (*v.Confidence < 0 || *v.Confidence > 100) {
		return ErrInvalidVisitData
	}
	switch v.Status {
	case VisitStatusPendingConfirmation, VisitStatusOnSite, VisitStatusDeparted, VisitStatusRejected:
	default:
		return ErrInvalidVisitData
	}
	switch v.PendingReason {
	case PendingReasonNone, PendingReasonVehicleNotFound, PendingReasonLowConfidence, PendingReasonNoPermit:
	default:
		return ErrInvalidVisitData
	}
	return nil
}
