package router

import (
	"adriani/internal/config"
	"adriani/internal/infra"
	"adriani/internal/repository"
	"adriani/internal/service"
	"adriani/internal/worker"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Servicios is the service layer shared by the HTTP router, the worker pool
// and the scheduler.
type Servicios struct {
	Auth       service.AuthService
	Bloques    service.BloqueService
	Clientes   service.ClienteService
	Productos  service.ProductoService
	Inventario service.InventarioService
	Facturas   service.FacturaService
	Pagos      service.PagoService
	Dolar      service.DolarService
	Cobranza   service.CobranzaService
	Reportes   service.ReporteService
	Errores    service.ErrorRecorder
}

// NuevosServicios wires repositories and infrastructure clients into the
// services. Dependency graph: Service ← Repository ← DB/Redis.
func NuevosServicios(cfg *config.Config, db *gorm.DB, rdb *redis.Client, whatsappCB *infra.CircuitBreaker) *Servicios {
	loc := cfg.Location()

	// ── Infrastructure ───────────────────────────────────────────────────────
	whatsapp := infra.NewWhatsAppClient(cfg.WhatsAppURL, cfg.WhatsAppToken)
	dolarAPI := infra.NewDolarClient(cfg.DolarURL)
	cache := infra.NewRedisCache(rdb)
	dispatcher := worker.NewDispatcher(rdb)

	// ── Repositories ─────────────────────────────────────────────────────────
	usuarioRepo := repository.NewUsuarioRepository(db)
	bloqueRepo := repository.NewBloqueRepository(db)
	clienteRepo := repository.NewClienteRepository(db)
	productoRepo := repository.NewProductoRepository(db)
	movimientoRepo := repository.NewMovimientoStockRepository(db)
	facturaRepo := repository.NewFacturaRepository(db)
	pagoRepo := repository.NewPagoRepository(db)
	cuentaRepo := repository.NewCuentaRepository(db)
	tasaRepo := repository.NewTasaDolarRepository(db)
	recordatorioRepo := repository.NewRecordatorioRepository(db)
	errorLogRepo := repository.NewErrorLogRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	rec := service.NewErrorRecorder(errorLogRepo)
	return &Servicios{
		Auth:       service.NewAuthService(usuarioRepo, cfg),
		Bloques:    service.NewBloqueService(bloqueRepo),
		Clientes:   service.NewClienteService(clienteRepo, bloqueRepo, rec),
		Productos:  service.NewProductoService(productoRepo, movimientoRepo, rec),
		Inventario: service.NewInventarioService(productoRepo, movimientoRepo, rec),
		Facturas:   service.NewFacturaService(facturaRepo, clienteRepo, productoRepo, movimientoRepo, rec, loc),
		Pagos:      service.NewPagoService(pagoRepo, facturaRepo, clienteRepo, cuentaRepo, tasaRepo, rec, loc),
		Dolar:      service.NewDolarService(tasaRepo, cache, dolarAPI, rec),
		Cobranza: service.NewCobranzaService(facturaRepo, clienteRepo, recordatorioRepo, whatsapp, whatsappCB, dispatcher, rec,
			service.CobranzaConfig{
				Empresa: cfg.EmpresaNombre,
				Loc:     loc,
				Lote:    worker.LoteConfig{Tamano: cfg.RecordatorioLote, Pausa: cfg.RecordatorioPausa},
			}),
		Reportes: service.NewReporteService(facturaRepo, pagoRepo, clienteRepo, cuentaRepo, dispatcher, rec, cfg.EmpresaNombre, loc),
		Errores:  rec,
	}
}
