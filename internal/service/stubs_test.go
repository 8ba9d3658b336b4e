package service_test

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"adriani/internal/dto"
	"adriani/internal/infra"
	"adriani/internal/model"
	"adriani/internal/repository"
	"adriani/internal/worker"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func ptr[T any](v T) *T { return &v }

func asignarID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

// ── Usuarios ──────────────────────────────────────────────────────────────────

type stubUsuarioRepo struct {
	users map[string]*model.Usuario
}

func newStubUsuarioRepo() *stubUsuarioRepo {
	return &stubUsuarioRepo{users: make(map[string]*model.Usuario)}
}

func (r *stubUsuarioRepo) Create(_ context.Context, u *model.Usuario) error {
	asignarID(&u.ID)
	r.users[u.Username] = u
	return nil
}

func (r *stubUsuarioRepo) FindByUsername(_ context.Context, username string) (*model.Usuario, error) {
	for _, u := range r.users {
		if !u.Activo {
			continue
		}
		if u.Username == username || (u.Email != nil && strings.EqualFold(*u.Email, username)) {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubUsuarioRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Usuario, error) {
	for _, u := range r.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubUsuarioRepo) ListAll(_ context.Context) ([]model.Usuario, error) {
	users := make([]model.Usuario, 0, len(r.users))
	for _, u := range r.users {
		users = append(users, *u)
	}
	return users, nil
}

func (r *stubUsuarioRepo) Update(_ context.Context, u *model.Usuario) error {
	r.users[u.Username] = u
	return nil
}

func (r *stubUsuarioRepo) SoftDelete(_ context.Context, id uuid.UUID) error {
	for _, u := range r.users {
		if u.ID == id {
			u.Activo = false
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

var _ repository.UsuarioRepository = (*stubUsuarioRepo)(nil)

// ── Bloques ───────────────────────────────────────────────────────────────────

type stubBloqueRepo struct {
	bloques  map[uuid.UUID]*model.Bloque
	clientes *stubClienteRepo
}

func newStubBloqueRepo() *stubBloqueRepo {
	return &stubBloqueRepo{bloques: make(map[uuid.UUID]*model.Bloque)}
}

func (r *stubBloqueRepo) Crear(_ context.Context, b *model.Bloque) error {
	asignarID(&b.ID)
	r.bloques[b.ID] = b
	return nil
}

func (r *stubBloqueRepo) Listar(_ context.Context) ([]model.Bloque, error) {
	out := make([]model.Bloque, 0, len(r.bloques))
	for _, b := range r.bloques {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Nombre < out[j].Nombre })
	return out, nil
}

func (r *stubBloqueRepo) ObtenerPorID(_ context.Context, id uuid.UUID) (*model.Bloque, error) {
	if b, ok := r.bloques[id]; ok {
		return b, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubBloqueRepo) ObtenerPorNombre(_ context.Context, nombre string) (*model.Bloque, error) {
	for _, b := range r.bloques {
		if strings.EqualFold(b.Nombre, nombre) {
			return b, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubBloqueRepo) Actualizar(_ context.Context, b *model.Bloque) error {
	r.bloques[b.ID] = b
	return nil
}

func (r *stubBloqueRepo) Desactivar(_ context.Context, id uuid.UUID) error {
	if b, ok := r.bloques[id]; ok {
		b.Activo = false
	}
	return nil
}

func (r *stubBloqueRepo) ContarClientes(_ context.Context) (map[uuid.UUID]int64, error) {
	out := map[uuid.UUID]int64{}
	if r.clientes == nil {
		return out, nil
	}
	for _, c := range r.clientes.clientes {
		if c.BloqueID != nil && c.Activo {
			out[*c.BloqueID]++
		}
	}
	return out, nil
}

var _ repository.BloqueRepository = (*stubBloqueRepo)(nil)

// ── Clientes ──────────────────────────────────────────────────────────────────

type stubClienteRepo struct {
	clientes map[uuid.UUID]*model.Cliente
}

func newStubClienteRepo() *stubClienteRepo {
	return &stubClienteRepo{clientes: make(map[uuid.UUID]*model.Cliente)}
}

func (r *stubClienteRepo) Create(_ context.Context, c *model.Cliente) error {
	asignarID(&c.ID)
	r.clientes[c.ID] = c
	return nil
}

func (r *stubClienteRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Cliente, error) {
	if c, ok := r.clientes[id]; ok {
		return c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubClienteRepo) FindByDocumento(_ context.Context, documento string) (*model.Cliente, error) {
	for _, c := range r.clientes {
		if c.Documento == documento {
			return c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubClienteRepo) FindByIDs(_ context.Context, ids []uuid.UUID) ([]model.Cliente, error) {
	var out []model.Cliente
	for _, id := range ids {
		if c, ok := r.clientes[id]; ok {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (r *stubClienteRepo) List(_ context.Context, filter dto.ClienteFilter) ([]model.Cliente, int64, error) {
	var out []model.Cliente
	for _, c := range r.clientes {
		if filter.Buscar != "" && !strings.Contains(strings.ToLower(c.Nombre), strings.ToLower(filter.Buscar)) {
			continue
		}
		out = append(out, *c)
	}
	return out, int64(len(out)), nil
}

func (r *stubClienteRepo) ListActivos(_ context.Context) ([]model.Cliente, error) {
	var out []model.Cliente
	for _, c := range r.clientes {
		if c.Activo {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Nombre < out[j].Nombre })
	return out, nil
}

func (r *stubClienteRepo) Update(_ context.Context, c *model.Cliente) error {
	r.clientes[c.ID] = c
	return nil
}

func (r *stubClienteRepo) SoftDelete(_ context.Context, id uuid.UUID) error {
	if c, ok := r.clientes[id]; ok {
		c.Activo = false
	}
	return nil
}

var _ repository.ClienteRepository = (*stubClienteRepo)(nil)

func seedCliente(repo *stubClienteRepo, nombre, documento string, telefono *string) *model.Cliente {
	c := &model.Cliente{ID: uuid.New(), Nombre: nombre, Documento: documento, Telefono: telefono, Activo: true}
	repo.clientes[c.ID] = c
	return c
}

// ── Productos ─────────────────────────────────────────────────────────────────

type stubProductoRepo struct {
	productos map[uuid.UUID]*model.Producto
}

func newStubProductoRepo() *stubProductoRepo {
	return &stubProductoRepo{productos: make(map[uuid.UUID]*model.Producto)}
}

func (r *stubProductoRepo) Create(_ context.Context, p *model.Producto) error {
	asignarID(&p.ID)
	r.productos[p.ID] = p
	return nil
}

func (r *stubProductoRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Producto, error) {
	if p, ok := r.productos[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubProductoRepo) FindByCodigo(_ context.Context, codigo string) (*model.Producto, error) {
	for _, p := range r.productos {
		if p.Codigo == codigo {
			cp := *p
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubProductoRepo) List(_ context.Context, _ dto.ProductoFilter) ([]model.Producto, int64, error) {
	out := make([]model.Producto, 0, len(r.productos))
	for _, p := range r.productos {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Nombre < out[j].Nombre })
	return out, int64(len(out)), nil
}

func (r *stubProductoRepo) ListBajoStock(_ context.Context) ([]model.Producto, error) {
	var out []model.Producto
	for _, p := range r.productos {
		if p.Activo && p.Stock <= p.StockMinimo {
			out = append(out, *p)
		}
	}
	return out, nil
}

// Update mirrors the real repository: stock is never written here.
func (r *stubProductoRepo) Update(_ context.Context, p *model.Producto) error {
	actual, ok := r.productos[p.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	cp := *p
	cp.Stock = actual.Stock
	r.productos[p.ID] = &cp
	return nil
}

func (r *stubProductoRepo) SoftDelete(_ context.Context, id uuid.UUID) error {
	if p, ok := r.productos[id]; ok {
		p.Activo = false
	}
	return nil
}

func (r *stubProductoRepo) Reactivar(_ context.Context, id uuid.UUID) error {
	if p, ok := r.productos[id]; ok {
		p.Activo = true
	}
	return nil
}

func (r *stubProductoRepo) FindByIDTx(_ *gorm.DB, id uuid.UUID) (*model.Producto, error) {
	return r.FindByID(context.Background(), id)
}

func (r *stubProductoRepo) UpdateStockTx(_ *gorm.DB, id uuid.UUID, delta int) error {
	p, ok := r.productos[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	p.Stock += delta
	return nil
}

func (r *stubProductoRepo) DB() *gorm.DB { return nil }

var _ repository.ProductoRepository = (*stubProductoRepo)(nil)

func seedProducto(repo *stubProductoRepo, codigo, nombre, precio string, stock int) *model.Producto {
	p := &model.Producto{
		ID: uuid.New(), Codigo: codigo, Nombre: nombre, Precio: dec(precio),
		Stock: stock, StockMinimo: 5, Activo: true,
	}
	repo.productos[p.ID] = p
	return p
}

// ── Movimientos de stock ──────────────────────────────────────────────────────

type stubMovimientoRepo struct {
	movimientos []model.MovimientoStock
}

func (r *stubMovimientoRepo) Create(_ context.Context, m *model.MovimientoStock) error {
	asignarID(&m.ID)
	r.movimientos = append(r.movimientos, *m)
	return nil
}

func (r *stubMovimientoRepo) CreateTx(_ *gorm.DB, m *model.MovimientoStock) error {
	return r.Create(context.Background(), m)
}

func (r *stubMovimientoRepo) List(_ context.Context, f repository.MovimientoStockFilter) ([]model.MovimientoStock, int64, error) {
	var out []model.MovimientoStock
	for _, m := range r.movimientos {
		if f.ProductoID != nil && m.ProductoID != *f.ProductoID {
			continue
		}
		if f.Tipo != "" && m.Tipo != f.Tipo {
			continue
		}
		out = append(out, m)
	}
	return out, int64(len(out)), nil
}

var _ repository.MovimientoStockRepository = (*stubMovimientoRepo)(nil)

// ── Facturas ──────────────────────────────────────────────────────────────────

type stubFacturaRepo struct {
	facturas     map[uuid.UUID]*model.Factura
	asignaciones []model.PagoFactura
	numero       int
	clientes     *stubClienteRepo
}

func newStubFacturaRepo() *stubFacturaRepo {
	return &stubFacturaRepo{facturas: make(map[uuid.UUID]*model.Factura)}
}

func (r *stubFacturaRepo) conAsignaciones(f *model.Factura) *model.Factura {
	cp := *f
	cp.Asignaciones = nil
	for _, a := range r.asignaciones {
		if a.FacturaID == f.ID {
			cp.Asignaciones = append(cp.Asignaciones, a)
		}
	}
	if r.clientes != nil {
		cp.Cliente = r.clientes.clientes[f.ClienteID]
	}
	return &cp
}

func (r *stubFacturaRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Factura, error) {
	if f, ok := r.facturas[id]; ok {
		return r.conAsignaciones(f), nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubFacturaRepo) ordenadas() []model.Factura {
	out := make([]model.Factura, 0, len(r.facturas))
	for _, f := range r.facturas {
		out = append(out, *r.conAsignaciones(f))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Numero < out[j].Numero })
	return out
}

func (r *stubFacturaRepo) List(_ context.Context, filter repository.FacturaFilter) ([]model.Factura, int64, error) {
	var out []model.Factura
	for _, f := range r.ordenadas() {
		if filter.ClienteID != nil && f.ClienteID != *filter.ClienteID {
			continue
		}
		if filter.Estado != "" && f.Estado != filter.Estado {
			continue
		}
		out = append(out, f)
	}
	return out, int64(len(out)), nil
}

func (r *stubFacturaRepo) ListConItems(_ context.Context, desde, hasta time.Time) ([]model.Factura, error) {
	var out []model.Factura
	for _, f := range r.ordenadas() {
		if !f.FechaDespacho.Before(desde) && f.FechaDespacho.Before(hasta) {
			out = append(out, f)
		}
	}
	return out, nil
}

func (r *stubFacturaRepo) ListAbiertasPorCliente(_ context.Context, clienteID uuid.UUID) ([]model.Factura, error) {
	var out []model.Factura
	for _, f := range r.ordenadas() {
		if f.ClienteID == clienteID && !f.Estado.EsTerminal() && f.Restante.IsPositive() {
			out = append(out, f)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].FechaVencimiento.Before(out[j].FechaVencimiento) })
	return out, nil
}

func (r *stubFacturaRepo) ListMorosos(_ context.Context) ([]repository.MorosoRow, error) {
	acc := map[uuid.UUID]*repository.MorosoRow{}
	var orden []uuid.UUID
	for _, f := range r.ordenadas() {
		if f.Estado != model.EstadoVencida || !f.Restante.IsPositive() {
			continue
		}
		row, ok := acc[f.ClienteID]
		if !ok {
			row = &repository.MorosoRow{ClienteID: f.ClienteID, MasAntigua: f.FechaVencimiento}
			acc[f.ClienteID] = row
			orden = append(orden, f.ClienteID)
		}
		row.Facturas++
		row.TotalDeuda = row.TotalDeuda.Add(f.Restante)
		if f.FechaVencimiento.Before(row.MasAntigua) {
			row.MasAntigua = f.FechaVencimiento
		}
	}
	out := make([]repository.MorosoRow, 0, len(orden))
	for _, id := range orden {
		out = append(out, *acc[id])
	}
	return out, nil
}

func (r *stubFacturaRepo) TransicionarEstados(_ context.Context, inicioDia time.Time) (int64, int64, error) {
	var pend, venc int64
	for _, f := range r.facturas {
		if !f.Restante.IsPositive() {
			continue
		}
		if f.Estado == model.EstadoCreada && f.FechaDespacho.Before(inicioDia) {
			f.Estado = model.EstadoPendiente
			pend++
		}
		if f.Estado == model.EstadoPendiente && f.FechaVencimiento.Before(inicioDia) {
			f.Estado = model.EstadoVencida
			venc++
		}
	}
	return pend, venc, nil
}

func (r *stubFacturaRepo) SiguienteNumeroTx(_ *gorm.DB) (int, error) {
	r.numero++
	return r.numero, nil
}

func (r *stubFacturaRepo) CreateTx(_ *gorm.DB, f *model.Factura) error {
	asignarID(&f.ID)
	for i := range f.Items {
		asignarID(&f.Items[i].ID)
		f.Items[i].FacturaID = f.ID
	}
	cp := *f
	cp.Items = append([]model.FacturaItem(nil), f.Items...)
	r.facturas[f.ID] = &cp
	return nil
}

func (r *stubFacturaRepo) FindByIDTx(_ *gorm.DB, id uuid.UUID) (*model.Factura, error) {
	return r.FindByID(context.Background(), id)
}

func (r *stubFacturaRepo) ListAbiertasPorClienteTx(_ *gorm.DB, clienteID uuid.UUID) ([]model.Factura, error) {
	return r.ListAbiertasPorCliente(context.Background(), clienteID)
}

func (r *stubFacturaRepo) ContarAsignacionesTx(_ *gorm.DB, id uuid.UUID) (int64, error) {
	var n int64
	for _, a := range r.asignaciones {
		if a.FacturaID == id {
			n++
		}
	}
	return n, nil
}

func (r *stubFacturaRepo) CancelarTx(_ *gorm.DB, id uuid.UUID) (int64, error) {
	f, ok := r.facturas[id]
	if !ok || f.Estado.EsTerminal() {
		return 0, nil
	}
	f.Estado = model.EstadoCancelada
	return 1, nil
}

func (r *stubFacturaRepo) AplicarAbonoTx(_ *gorm.DB, id uuid.UUID, monto decimal.Decimal) error {
	f, ok := r.facturas[id]
	if !ok || f.Estado == model.EstadoCancelada {
		return gorm.ErrRecordNotFound
	}
	f.Restante = f.Restante.Sub(monto)
	if !f.Restante.IsPositive() {
		f.Restante = decimal.Zero
		f.Estado = model.EstadoPagado
	}
	return nil
}

func (r *stubFacturaRepo) DB() *gorm.DB { return nil }

var _ repository.FacturaRepository = (*stubFacturaRepo)(nil)

// seedFactura stores an invoice with a single line worth total.
func seedFactura(repo *stubFacturaRepo, clienteID uuid.UUID, total string, estado model.EstadoFactura, vence time.Time) *model.Factura {
	repo.numero++
	f := &model.Factura{
		ID:               uuid.New(),
		Numero:           repo.numero,
		ClienteID:        clienteID,
		MontoTotal:       dec(total),
		Restante:         dec(total),
		Estado:           estado,
		FechaDespacho:    vence.AddDate(0, 0, -7),
		FechaVencimiento: vence,
		CreatedAt:        time.Now(),
		Items: []model.FacturaItem{{
			ID: uuid.New(), ProductoID: uuid.New(), Cantidad: 1,
			PrecioUnitario: dec(total), Subtotal: dec(total),
			Producto: &model.Producto{Nombre: "Café"},
		}},
	}
	repo.facturas[f.ID] = f
	return f
}

// ── Pagos, cuentas y tasas ────────────────────────────────────────────────────

type stubPagoRepo struct {
	pagos    map[uuid.UUID]*model.Pago
	facturas *stubFacturaRepo
	cuentas  *stubCuentaRepo
}

func newStubPagoRepo(facturas *stubFacturaRepo, cuentas *stubCuentaRepo) *stubPagoRepo {
	return &stubPagoRepo{pagos: make(map[uuid.UUID]*model.Pago), facturas: facturas, cuentas: cuentas}
}

func (r *stubPagoRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Pago, error) {
	p, ok := r.pagos[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *p
	cp.Asignaciones = nil
	for _, a := range r.facturas.asignaciones {
		if a.PagoID == id {
			a.Factura = r.facturas.facturas[a.FacturaID]
			cp.Asignaciones = append(cp.Asignaciones, a)
		}
	}
	if r.cuentas != nil {
		cp.Cuenta = r.cuentas.cuentas[p.CuentaID]
	}
	return &cp, nil
}

func (r *stubPagoRepo) List(_ context.Context, filter repository.PagoFilter) ([]model.Pago, int64, error) {
	var out []model.Pago
	for _, p := range r.pagos {
		if filter.ClienteID != nil && p.ClienteID != *filter.ClienteID {
			continue
		}
		out = append(out, *p)
	}
	return out, int64(len(out)), nil
}

func (r *stubPagoRepo) TotalesPorCuenta(_ context.Context, desde, hasta time.Time) ([]repository.CobroPorCuentaRow, error) {
	acc := map[uuid.UUID]*repository.CobroPorCuentaRow{}
	for _, p := range r.pagos {
		if p.Fecha.Before(desde) || !p.Fecha.Before(hasta) {
			continue
		}
		row, ok := acc[p.CuentaID]
		if !ok {
			row = &repository.CobroPorCuentaRow{CuentaID: p.CuentaID}
			acc[p.CuentaID] = row
		}
		row.Monto = row.Monto.Add(p.Monto)
		row.MontoUSD = row.MontoUSD.Add(p.MontoUSD)
		row.Pagos++
	}
	var out []repository.CobroPorCuentaRow
	for _, row := range acc {
		out = append(out, *row)
	}
	return out, nil
}

func (r *stubPagoRepo) AbonosPorFactura(_ context.Context, ids []uuid.UUID) ([]model.PagoFactura, error) {
	want := map[uuid.UUID]bool{}
	for _, id := range ids {
		want[id] = true
	}
	var out []model.PagoFactura
	for _, a := range r.facturas.asignaciones {
		if want[a.FacturaID] {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *stubPagoRepo) CreateTx(_ *gorm.DB, p *model.Pago) error {
	asignarID(&p.ID)
	cp := *p
	r.pagos[p.ID] = &cp
	return nil
}

func (r *stubPagoRepo) CreateAsignacionTx(_ *gorm.DB, a *model.PagoFactura) error {
	asignarID(&a.ID)
	a.CreatedAt = time.Now()
	r.facturas.asignaciones = append(r.facturas.asignaciones, *a)
	return nil
}

func (r *stubPagoRepo) DB() *gorm.DB { return nil }

var _ repository.PagoRepository = (*stubPagoRepo)(nil)

type stubCuentaRepo struct {
	cuentas map[uuid.UUID]*model.Cuenta
}

func newStubCuentaRepo() *stubCuentaRepo {
	return &stubCuentaRepo{cuentas: make(map[uuid.UUID]*model.Cuenta)}
}

func (r *stubCuentaRepo) Create(_ context.Context, c *model.Cuenta) error {
	asignarID(&c.ID)
	r.cuentas[c.ID] = c
	return nil
}

func (r *stubCuentaRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Cuenta, error) {
	if c, ok := r.cuentas[id]; ok {
		return c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubCuentaRepo) List(_ context.Context) ([]model.Cuenta, error) {
	var out []model.Cuenta
	for _, c := range r.cuentas {
		if c.Activo {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (r *stubCuentaRepo) Desactivar(_ context.Context, id uuid.UUID) error {
	if c, ok := r.cuentas[id]; ok {
		c.Activo = false
	}
	return nil
}

var _ repository.CuentaRepository = (*stubCuentaRepo)(nil)

func seedCuenta(repo *stubCuentaRepo, nombre, moneda string) *model.Cuenta {
	c := &model.Cuenta{ID: uuid.New(), Nombre: nombre, Metodo: model.MetodoTransferencia, Moneda: moneda, Activo: true}
	repo.cuentas[c.ID] = c
	return c
}

type stubTasaRepo struct {
	tasas []model.TasaDolar
	err   error
}

func (r *stubTasaRepo) Create(_ context.Context, t *model.TasaDolar) error {
	asignarID(&t.ID)
	r.tasas = append(r.tasas, *t)
	return nil
}

func (r *stubTasaRepo) Ultima(_ context.Context) (*model.TasaDolar, error) {
	if r.err != nil {
		return nil, r.err
	}
	if len(r.tasas) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	t := r.tasas[len(r.tasas)-1]
	return &t, nil
}

var _ repository.TasaDolarRepository = (*stubTasaRepo)(nil)

// ── Recordatorios ─────────────────────────────────────────────────────────────

// stubRecordatorioRepo is safe for concurrent use; the batch sender records
// attempts from several goroutines.
type stubRecordatorioRepo struct {
	mu            sync.Mutex
	recordatorios map[uuid.UUID]*model.Recordatorio
	historial     []model.HistorialMensaje
}

func newStubRecordatorioRepo() *stubRecordatorioRepo {
	return &stubRecordatorioRepo{recordatorios: make(map[uuid.UUID]*model.Recordatorio)}
}

func (r *stubRecordatorioRepo) Create(_ context.Context, rec *model.Recordatorio) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	asignarID(&rec.ID)
	rec.CreatedAt = time.Now()
	r.recordatorios[rec.ID] = rec
	return nil
}

func (r *stubRecordatorioRepo) ListPendientes(_ context.Context) ([]model.Recordatorio, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Recordatorio
	for _, rec := range r.recordatorios {
		if rec.Estado == model.RecordatorioPendiente {
			out = append(out, *rec)
		}
	}
	return out, nil
}

func (r *stubRecordatorioRepo) MarcarEnviado(_ context.Context, id uuid.UUID, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rec, ok := r.recordatorios[id]; ok {
		rec.Estado = model.RecordatorioEnviado
		rec.SentAt = &at
	}
	return nil
}

func (r *stubRecordatorioRepo) MarcarFallido(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rec, ok := r.recordatorios[id]; ok {
		rec.Estado = model.RecordatorioFallido
	}
	return nil
}

func (r *stubRecordatorioRepo) ClientesAvisados(_ context.Context, desde time.Time) ([]uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []uuid.UUID
	for _, rec := range r.recordatorios {
		if rec.Estado == model.RecordatorioPendiente ||
			(rec.Estado == model.RecordatorioEnviado && rec.SentAt != nil && !rec.SentAt.Before(desde)) {
			out = append(out, rec.ClienteID)
		}
	}
	return out, nil
}

func (r *stubRecordatorioRepo) UltimosAvisos(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]time.Time, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := map[uuid.UUID]time.Time{}
	for _, rec := range r.recordatorios {
		if rec.SentAt != nil && rec.SentAt.After(out[rec.ClienteID]) {
			out[rec.ClienteID] = *rec.SentAt
		}
	}
	return out, nil
}

func (r *stubRecordatorioRepo) CrearHistorial(_ context.Context, h *model.HistorialMensaje) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	asignarID(&h.ID)
	r.historial = append(r.historial, *h)
	return nil
}

func (r *stubRecordatorioRepo) ListHistorial(_ context.Context, f repository.HistorialFilter) ([]model.HistorialMensaje, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.HistorialMensaje
	for _, h := range r.historial {
		if f.Exitoso != nil && h.Exitoso != *f.Exitoso {
			continue
		}
		out = append(out, h)
	}
	return out, int64(len(out)), nil
}

var _ repository.RecordatorioRepository = (*stubRecordatorioRepo)(nil)

// ── Error log ─────────────────────────────────────────────────────────────────

type stubErrorLogRepo struct {
	mu   sync.Mutex
	logs []model.ErrorLog
}

func (r *stubErrorLogRepo) Create(_ context.Context, e *model.ErrorLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	asignarID(&e.ID)
	r.logs = append(r.logs, *e)
	return nil
}

func (r *stubErrorLogRepo) List(_ context.Context, servicio string, _, _ int) ([]model.ErrorLog, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.ErrorLog
	for _, l := range r.logs {
		if servicio == "" || l.Servicio == servicio {
			out = append(out, l)
		}
	}
	return out, int64(len(out)), nil
}

func (r *stubErrorLogRepo) servicios() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.logs))
	for i, l := range r.logs {
		out[i] = l.Servicio
	}
	return out
}

var _ repository.ErrorLogRepository = (*stubErrorLogRepo)(nil)

// ── Collaborators ─────────────────────────────────────────────────────────────

type stubCache struct {
	mu   sync.Mutex
	data map[string]string
}

func newStubCache() *stubCache { return &stubCache{data: map[string]string{}} }

func (c *stubCache) Get(_ context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	if !ok {
		return "", infra.ErrCacheMiss
	}
	return v, nil
}

func (c *stubCache) Set(_ context.Context, key, value string, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

func (c *stubCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

type stubFuente struct {
	cot   *infra.CotizacionDolar
	err   error
	calls int
}

func (f *stubFuente) Obtener(_ context.Context) (*infra.CotizacionDolar, error) {
	f.calls++
	return f.cot, f.err
}

// stubMensajero fails for the phones listed in fallar.
type stubMensajero struct {
	mu       sync.Mutex
	fallar   map[string]error
	enviados []string
}

func (m *stubMensajero) EnviarMensaje(_ context.Context, telefono, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.fallar[telefono]; ok {
		return err
	}
	m.enviados = append(m.enviados, telefono)
	return nil
}

type stubEncolador struct {
	recordatorios int
	emails        []worker.EmailJobPayload
	err           error
}

func (e *stubEncolador) EnqueueRecordatorios(_ context.Context) error {
	e.recordatorios++
	return e.err
}

func (e *stubEncolador) EnqueueEmail(_ context.Context, p worker.EmailJobPayload) error {
	if e.err != nil {
		return e.err
	}
	e.emails = append(e.emails, p)
	return nil
}
