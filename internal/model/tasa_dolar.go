package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// TasaDolar is a snapshot of the USD/VES exchange rate.
// Fuente: "dolarapi" | "manual"
type TasaDolar struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey"`
	Valor     decimal.Decimal `gorm:"type:decimal(14,4);not null"`
	Fuente    string          `gorm:"type:varchar(20);not null"`
	Fecha     time.Time       `gorm:"index;not null"`
	CreatedAt time.Time
}

func (TasaDolar) TableName() string { return "tasas_dolar" }

func (t *TasaDolar) BeforeCreate(*gorm.DB) error { asignarID(&t.ID); return nil }
