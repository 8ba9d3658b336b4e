package infra

import (
	"fmt"

	"adriani/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase opens the Postgres connection, runs AutoMigrate for every model
// and then applies the idempotent SQL patches GORM cannot express.
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	if err := RunMigrations(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Models lists every persisted type in dependency order.
func Models() []interface{} {
	return []interface{}{
		&model.Usuario{},
		&model.Bloque{},
		&model.Cliente{},
		&model.Producto{},
		&model.MovimientoStock{},
		&model.Factura{},
		&model.FacturaItem{},
		&model.Cuenta{},
		&model.Pago{},
		&model.PagoFactura{},
		&model.TasaDolar{},
		&model.Recordatorio{},
		&model.HistorialMensaje{},
		&model.ErrorLog{},
	}
}

// RunMigrations migrates the schema and applies the Postgres patches.
func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}
	if db.Dialector.Name() != "postgres" {
		return nil
	}
	if err := applySchemaPatches(db); err != nil {
		return fmt.Errorf("schema patches: %w", err)
	}
	return nil
}

// applySchemaPatches runs idempotent DDL that AutoMigrate does not cover.
// Each statement is guarded so re-running on a patched DB is a no-op.
func applySchemaPatches(db *gorm.DB) error {
	patches := []struct{ descr, sql string }{
		{"sequence for invoice numbers",
			`CREATE SEQUENCE IF NOT EXISTS facturas_numero_seq START 1`},
		// Keeps the sequence ahead of rows inserted before it existed.
		{"align facturas_numero_seq", `
SELECT setval('facturas_numero_seq',
              GREATEST((SELECT COALESCE(MAX(numero), 0) FROM facturas), 1),
              (SELECT COUNT(*) > 0 FROM facturas))`},
		{"restante within bounds", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_facturas_restante') THEN
    ALTER TABLE facturas
      ADD CONSTRAINT chk_facturas_restante CHECK (restante >= 0 AND restante <= monto_total);
  END IF;
END $$`},
		{"partial index for the status sweep", `
CREATE INDEX IF NOT EXISTS idx_facturas_abiertas
    ON facturas (estado, fecha_vencimiento)
    WHERE estado IN ('Creada', 'Pendiente')`},
		{"partial index for pending reminders", `
CREATE INDEX IF NOT EXISTS idx_recordatorios_pendientes
    ON recordatorios (created_at)
    WHERE estado = 'pendiente'`},
	}
	for _, p := range patches {
		if err := db.Exec(p.sql).Error; err != nil {
			return fmt.Errorf("patch %q: %w", p.descr, err)
		}
	}
	return nil
}
