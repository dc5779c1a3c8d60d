package domain

import (
	"time"

	"github.com/google/uuid"
)

// Yard - охраняемая площадка со своей политикой допуска
type Yard struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	// StrictMode - запрет допуска без действующего пропуска,
	// даже если ТС однозначно распознано
	StrictMode bool      `json:"strict_mode"`
	IsActive   bool      `json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
