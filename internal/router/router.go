package router

import (
	"time"

	"adriani/internal/config"
	"adriani/internal/handler"
	"adriani/internal/infra"
	"adriani/internal/middleware"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const (
	admin      = middleware.RolAdministrador
	supervisor = middleware.RolSupervisor
	cobrador   = middleware.RolCobrador
)

// New returns a configured Gin engine over the given services.
// Dependency graph: Handler ← Service (see NuevosServicios).
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client, whatsappCB *infra.CircuitBreaker, s *Servicios) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS(cfg.IsProduction(), cfg.CORSOrigins...))
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(rdb, "api", 1000, time.Minute)) // 1000 req/min per IP

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(s.Auth)
	usuariosH := handler.NewUsuariosHandler(s.Auth)
	bloquesH := handler.NewBloquesHandler(s.Bloques)
	clientesH := handler.NewClientesHandler(s.Clientes)
	productosH := handler.NewProductosHandler(s.Productos, s.Inventario)
	inventarioH := handler.NewInventarioHandler(s.Inventario)
	facturasH := handler.NewFacturasHandler(s.Facturas, s.Reportes)
	pagosH := handler.NewPagosHandler(s.Pagos)
	dolarH := handler.NewDolarHandler(s.Dolar)
	cobranzaH := handler.NewCobranzaHandler(s.Cobranza)
	reportesH := handler.NewReportesHandler(s.Reportes)
	erroresH := handler.NewErroresHandler(s.Errores)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb, whatsappCB))

	auth := r.Group("/v1/auth")
	{
		auth.POST("/login", middleware.LoginRateLimiter(rdb), authH.Login)
		auth.POST("/refresh", authH.Refresh)
	}

	todos := middleware.RequireRole(admin, supervisor, cobrador)
	gestion := middleware.RequireRole(admin, supervisor)
	soloAdmin := middleware.RequireRole(admin)

	v1 := r.Group("/v1", middleware.JWTAuth(cfg.JWTSecret))
	{
		// Bloques: everyone reads, management writes
		v1.GET("/bloques", todos, bloquesH.Listar)
		bloques := v1.Group("/bloques", gestion)
		{
			bloques.POST("", bloquesH.Crear)
			bloques.PUT("/:id", bloquesH.Actualizar)
			bloques.DELETE("/:id", bloquesH.Desactivar)
		}

		clientes := v1.Group("/clientes")
		{
			clientes.GET("", todos, clientesH.Listar)
			clientes.GET("/exportar", gestion, clientesH.Exportar)
			clientes.GET("/:id", todos, clientesH.ObtenerPorID)
			clientes.GET("/:id/estado-cuenta", todos, reportesH.EstadoCuenta)
			clientes.GET("/:id/estado-cuenta/pdf", todos, reportesH.EstadoCuentaPDF)
			clientes.POST("/:id/estado-cuenta/enviar", todos, reportesH.EnviarEstadoCuenta)
			clientes.POST("", gestion, clientesH.Crear)
			clientes.POST("/importar", gestion, clientesH.Importar)
			clientes.PUT("/:id", gestion, clientesH.Actualizar)
			clientes.DELETE("/:id", gestion, clientesH.Desactivar)
		}

		productos := v1.Group("/productos")
		{
			productos.GET("", todos, productosH.Listar)
			productos.GET("/exportar", gestion, productosH.Exportar)
			productos.GET("/codigo/:codigo", todos, productosH.ObtenerPorCodigo)
			productos.GET("/:id", todos, productosH.ObtenerPorID)
			productos.PATCH("/:id/stock", gestion, productosH.AjustarStock)
			productos.POST("", soloAdmin, productosH.Crear)
			productos.POST("/importar", soloAdmin, productosH.Importar)
			productos.PUT("/:id", soloAdmin, productosH.Actualizar)
			productos.DELETE("/:id", soloAdmin, productosH.Desactivar)
			productos.PATCH("/:id/reactivar", soloAdmin, productosH.Reactivar)
		}

		inv := v1.Group("/inventario", gestion)
		{
			inv.GET("/alertas", inventarioH.ObtenerAlertas)
			inv.GET("/movimientos", inventarioH.ListarMovimientos)
		}

		facturas := v1.Group("/facturas")
		{
			facturas.GET("", todos, facturasH.Listar)
			facturas.GET("/:id", todos, facturasH.ObtenerPorID)
			facturas.GET("/:id/desglose", todos, facturasH.Desglose)
			facturas.GET("/:id/pdf", todos, facturasH.PDF)
			facturas.POST("", gestion, facturasH.Crear)
			facturas.DELETE("/:id", gestion, facturasH.Cancelar)
			facturas.POST("/actualizar-estados", soloAdmin, facturasH.ActualizarEstados)
		}

		v1.GET("/cuentas", todos, pagosH.ListarCuentas)
		cuentas := v1.Group("/cuentas", soloAdmin)
		{
			cuentas.POST("", pagosH.CrearCuenta)
			cuentas.DELETE("/:id", pagosH.DesactivarCuenta)
		}

		pagos := v1.Group("/pagos", todos)
		{
			pagos.POST("", pagosH.Registrar)
			pagos.GET("", pagosH.Listar)
			pagos.GET("/:id", pagosH.ObtenerPorID)
		}

		dolar := v1.Group("/dolar")
		{
			dolar.GET("", todos, dolarH.Actual)
			dolar.POST("", gestion, dolarH.Registrar)
			dolar.POST("/actualizar", gestion, dolarH.Actualizar)
		}

		cobranza := v1.Group("/cobranza", todos)
		{
			cobranza.GET("/morosos", cobranzaH.Morosos)
			cobranza.GET("/historial", cobranzaH.Historial)
			cobranza.POST("/recordatorios", gestion, cobranzaH.EncolarRecordatorios)
			cobranza.POST("/recordatorios/enviar", gestion, cobranzaH.Enviar)
		}

		reportes := v1.Group("/reportes", gestion)
		{
			reportes.GET("/financiero", reportesH.Financiero)
			reportes.GET("/financiero/pdf", reportesH.FinancieroPDF)
			reportes.GET("/financiero/excel", reportesH.FinancieroExcel)
			reportes.GET("/productos", reportesH.Productos)
		}

		usuarios := v1.Group("/usuarios", soloAdmin)
		{
			usuarios.POST("", usuariosH.Crear)
			usuarios.GET("", usuariosH.Listar)
			usuarios.PUT("/:id", usuariosH.Actualizar)
			usuarios.DELETE("/:id", usuariosH.Desactivar)
		}

		v1.GET("/errores", soloAdmin, erroresH.Listar)
	}

	// Swagger UI: only enabled outside production
	if !cfg.IsProduction() {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
