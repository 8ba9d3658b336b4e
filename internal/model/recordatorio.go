package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Estados de un recordatorio de cobranza.
const (
	RecordatorioPendiente = "pendiente"
	RecordatorioEnviado   = "enviado"
	RecordatorioFallido   = "fallido"
)

// Recordatorio is a queued collection reminder for one client.
// SentAt is stamped on successful delivery and suppresses a second reminder
// to the same client on the same day.
type Recordatorio struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	ClienteID uuid.UUID `gorm:"type:uuid;index;not null"`
	Telefono  string    `gorm:"not null"`
	Mensaje   string    `gorm:"type:text;not null"`
	Estado    string    `gorm:"type:varchar(20);index;not null;default:'pendiente'"`
	SentAt    *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time

	Cliente *Cliente `gorm:"foreignKey:ClienteID"`
}

func (Recordatorio) TableName() string { return "recordatorios" }

func (r *Recordatorio) BeforeCreate(*gorm.DB) error { asignarID(&r.ID); return nil }

// HistorialMensaje records one delivery attempt, successful or not.
// Rows are immutable.
type HistorialMensaje struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey"`
	RecordatorioID *uuid.UUID `gorm:"type:uuid;index"`
	ClienteID      uuid.UUID  `gorm:"type:uuid;index;not null"`
	Telefono       string     `gorm:"not null"`
	Mensaje        string     `gorm:"type:text;not null"`
	Exitoso        bool       `gorm:"not null"`
	Error          *string
	CreatedAt      time.Time
}

func (HistorialMensaje) TableName() string { return "historial_mensajes" }

func (h *HistorialMensaje) BeforeCreate(*gorm.DB) error { asignarID(&h.ID); return nil }
