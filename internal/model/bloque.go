package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Bloque groups clients by delivery zone or route.
type Bloque struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	Nombre      string    `gorm:"uniqueIndex;not null"`
	Descripcion *string
	Activo      bool `gorm:"not null;default:true"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (Bloque) TableName() string { return "bloques" }

func (b *Bloque) BeforeCreate(*gorm.DB) error { asignarID(&b.ID); return nil }
