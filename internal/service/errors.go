package service

import (
	"errors"

	"gorm.io/gorm"
)

// Sentinel errors matched by handlers with errors.Is to pick a status code.
var (
	ErrNoEncontrado         = errors.New("recurso no encontrado")
	ErrDuplicado            = errors.New("ya existe un registro con ese valor")
	ErrFacturaConPagos      = errors.New("la factura tiene pagos asignados y no puede cancelarse")
	ErrFacturaPagada        = errors.New("la factura ya fue pagada")
	ErrFacturaCancelada     = errors.New("la factura está cancelada")
	ErrFacturaDeOtroCliente = errors.New("la factura pertenece a otro cliente")
	ErrClienteInactivo      = errors.New("el cliente está inactivo")
	ErrCuentaInactiva       = errors.New("la cuenta está inactiva")
	ErrProductoInactivo     = errors.New("el producto está inactivo")
	ErrSinTasa              = errors.New("no hay tasa del dólar registrada")
	ErrArchivoInvalido      = errors.New("archivo inválido")
	ErrSinEmail             = errors.New("el cliente no tiene email registrado")
	ErrDatoInvalido         = errors.New("dato inválido")
	ErrEnvioEnCurso         = errors.New("ya hay un envío de recordatorios en curso")
)

// noEncontrado maps gorm.ErrRecordNotFound to ErrNoEncontrado and leaves
// every other error untouched.
func noEncontrado(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNoEncontrado
	}
	return err
}
