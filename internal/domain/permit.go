package domain

import (
	"time"

	"github.com/google/uuid"
)

// PermitStatus представляет статус пропуска
type PermitStatus string

const (
	PermitStatusActive   PermitStatus = "active"
	PermitStatusInactive PermitStatus = "inactive"
)

// WeighingFlag - тристабильное правило взвешивания в пропуске
type WeighingFlag string

const (
	WeighingFlagRequired    WeighingFlag = "required"     // Взвешивание обязательно
	WeighingFlagNotRequired WeighingFlag = "not_required" // Взвешивание явно отключено
	WeighingFlagDefault     WeighingFlag = "default"      // Решает задание или категория ТС
)

// EntryPermit - пропуск на въезд для конкретного ТС на конкретную площадку
// Разовый пропуск (SingleUse) деактивируется ровно один раз - в момент
// успешного допуска - и повторно не используется
type EntryPermit struct {
	ID        uuid.UUID  `json:"id"`
	VehicleID uuid.UUID  `json:"vehicle_id"`
	YardID    uuid.UUID  `json:"yard_id"`
	TaskID    *uuid.UUID `json:"task_id,omitempty"` // Привязка к заданию, имеет приоритет над общими пропусками
	DriverID  *uuid.UUID `json:"driver_id,omitempty"`
	IssuedBy  *uuid.UUID `json:"issued_by,omitempty"`

	SingleUse bool         `json:"single_use"`
	Weighing  WeighingFlag `json:"weighing"`

	// Окно действия; nil = не ограничено с этой стороны
	ValidFrom  *time.Time `json:"valid_from,omitempty"`
	ValidUntil *time.Time `json:"valid_until,omitempty"`

	Status PermitStatus `json:"status"`

	// Гостевые поля для разовых пропусков
	GuestName    string `json:"guest_name,omitempty"`
	GuestContact string `json:"guest_contact,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Covers проверяет, покрывает ли пропуск момент времени t:
// статус active и t внутри окна действия (открытая граница = не ограничено)
func (p *EntryPermit) Covers(t time.Time) bool {
	if p.Status != PermitStatusActive {
		return false
	}
	if p.ValidFrom != nil && t.Before(*p.ValidFrom) {
		return false
	}
	if p.ValidUntil != nil && t.After(*p.ValidUntil) {
		return false
	}
	return true
}

// Validate проверяет корректность данных пропуска
func (p *EntryPermit) Validate() error {
	if p.VehicleID == uuid.Nil || p.YardID == uuid.Nil {
		return ErrInvalidPermitData
	}
	switch p.Weighing {
	case WeighingFlagRequired, WeighingFlagNotRequired, WeighingFlagDefault:
	default:
		return ErrInvalidPermitData
	}
	if p.ValidFrom != nil && p.ValidUntil != nil && p.ValidUntil.Before(*p.ValidFrom) {
		return ErrInvalidPermitData
	}
	return nil
}
