package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Cliente is a customer that receives invoices and collection reminders.
// Telefono is the WhatsApp number in international format without "+".
type Cliente struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Nombre    string    `gorm:"index;not null"`
	Documento string    `gorm:"uniqueIndex;not null"` // RIF or cédula
	Telefono  *string
	Email     *string
	Direccion *string
	BloqueID  *uuid.UUID `gorm:"type:uuid;index"`
	Activo    bool       `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Bloque *Bloque `gorm:"foreignKey:BloqueID"`
}

func (Cliente) TableName() string { return "clientes" }

func (c *Cliente) BeforeCreate(*gorm.DB) error { asignarID(&c.ID); return nil }
