package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrorLog stores a failure raised by a service, tagged with its name.
type ErrorLog struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Servicio  string    `gorm:"type:varchar(50);index;not null"`
	Mensaje   string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"index"`
}

func (ErrorLog) TableName() string { return "error_logs" }

func (e *ErrorLog) BeforeCreate(*gorm.DB) error { asignarID(&e.ID); return nil }
