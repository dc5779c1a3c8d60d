package domain

import (
	"time"

	"github.com/google/uuid"
)

// VehicleCategory представляет категорию транспортного средства
type VehicleCategory string

const (
	CategoryCar     VehicleCategory = "car"
	CategoryTruck   VehicleCategory = "truck"
	CategoryTanker  VehicleCategory = "tanker"
	CategorySpecial VehicleCategory = "special"
	CategoryOther   VehicleCategory = "other"
)

// RequiresWeighingByDefault сообщает, требуется ли взвешивание
// для данной категории, если ни пропуск, ни задание не задали явного правила
func (c VehicleCategory) RequiresWeighingByDefault() bool {
	switch c {
	case CategoryTruck, CategoryTanker:
		return true
	default:
		return false
	}
}

// Vehicle - транспортное средство из справочника (внешний реестр)
// Ядро читает реестр, но никогда не изменяет его
type Vehicle struct {
	ID           uuid.UUID       `json:"id"`
	LicensePlate string          `json:"license_plate"` // Нормализованный номер (верхний регистр, без разделителей)
	Category     VehicleCategory `json:"category"`
	OwnerID      *uuid.UUID      `json:"owner_id,omitempty"`
	// Trusted - доверенный транспорт: категорийное взвешивание по умолчанию не применяется
	Trusted    bool       `json:"trusted"`
	LastSeenAt *time.Time `json:"last_seen_at,omitempty"` // Последний зафиксированный проезд, для ранжирования кандидатов
	IsActive   bool       `json:"is_active"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// VehicleMatch - кандидат нечеткого поиска по номеру
type VehicleMatch struct {
	Vehicle    *Vehicle `json:"vehicle"`
	Similarity int      `json:"similarity"` // 0-100
}

// Validate проверяет корректность данных автомобиля
func (v *Vehicle) Validate() error {
	if v.LicensePlate == "" {
		return ErrInvalidLicensePlate
	}
	if len(v.LicensePlate) < 4 || len(v.LicensePlate) > 20 {
		return ErrInvalidLicensePlate
	}
	switch v.Category {
	case CategoryCar, CategoryTruck, CategoryTanker, CategorySpecial, CategoryOther:
	default:
		return ErrInvalidVehicleData
	}
	return nil
}
