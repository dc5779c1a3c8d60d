package domain

import (
	"time"

	"github.com/google/uuid"
)

// WeighingKind представляет тип измерения
type WeighingKind string

const (
	WeighingKindEntry WeighingKind = "entry"
	WeighingKindExit  WeighingKind = "exit"
	// WeighingKindIntermediate - информационное промежуточное измерение,
	// не засчитывается в требование
	WeighingKindIntermediate WeighingKind = "intermediate"
)

// MaxWeightKg - верхняя граница допустимого веса одной платформы
const MaxWeightKg = 200000.0

// Weighing - запись об одном измерении веса (append-only).
// Визит накапливает не более одного въездного и одного выездного
// измерения, засчитываемых в требование
type Weighing struct {
	ID            uuid.UUID  `json:"id"`
	RequirementID *uuid.UUID `json:"requirement_id,omitempty"`
	VisitID       uuid.UUID  `json:"visit_id"`
	VehicleID     uuid.UUID  `json:"vehicle_id"`

	Kind     WeighingKind `json:"kind"`
	WeightKg float64      `json:"weight_kg"`

	MeasuredAt time.Time `json:"measured_at"`
	OperatorID uuid.UUID `json:"operator_id"`
	Note       string    `json:"note,omitempty"`
}

// Validate проверяет корректность данных измерения
func (w *Weighing) Validate() error {
	switch w.Kind {
	case WeighingKindEntry, WeighingKindExit, WeighingKindIntermediate:
	default:
		return ErrInvalidWeighingKind
	}
	if w.WeightKg <= 0 || w.WeightKg > MaxWeightKg {
		return ErrInvalidWeight
	}
	if w.VisitID == uuid.Nil || w.VehicleID == uuid.Nil {
		return ErrInvalidVisitData
	}
	return nil
}
