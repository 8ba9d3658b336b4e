package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"

	"adriani/internal/apierror"
	"adriani/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	mimeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	mimePDF  = "application/pdf"

	// maxArchivo caps uploaded spreadsheets.
	maxArchivo = 10 << 20
)

var validate = validator.New()

func init() {
	// Register decimal.Decimal as a numeric type so that validator tags like
	// min=0, gt=0, required work without panicking ("Bad field type decimal.Decimal").
	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if v, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := v.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
}

// bindAndValidate binds JSON body and runs go-playground/validator tags.
// Returns false and writes the error response if validation fails;
// the caller should return immediately without writing another response.
func bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("JSON invalido: "+err.Error()))
		return false
	}
	return validar(c, req)
}

// bindQuery is bindAndValidate for query-string filters.
func bindQuery(c *gin.Context, filter interface{}) bool {
	if err := c.ShouldBindQuery(filter); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Parametros invalidos: "+err.Error()))
		return false
	}
	return validar(c, filter)
}

func validar(c *gin.Context, req interface{}) bool {
	if err := validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
			return false
		}
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			fields[fe.Field()] = fe.Tag()
		}
		c.JSON(http.StatusUnprocessableEntity, apierror.NewValidation(fields))
		return false
	}
	return true
}

// paramID parses the :id path parameter.
func paramID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return uuid.Nil, false
	}
	return id, true
}

// statusDe maps service sentinels to HTTP status codes. Zero means the error
// is not a known business error.
func statusDe(err error) int {
	switch {
	case errors.Is(err, service.ErrNoEncontrado):
		return http.StatusNotFound
	case errors.Is(err, service.ErrCredenciales):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrDuplicado),
		errors.Is(err, service.ErrFacturaConPagos),
		errors.Is(err, service.ErrFacturaPagada),
		errors.Is(err, service.ErrFacturaCancelada),
		errors.Is(err, service.ErrEnvioEnCurso):
		return http.StatusConflict
	case errors.Is(err, service.ErrDatoInvalido),
		errors.Is(err, service.ErrArchivoInvalido):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrFacturaDeOtroCliente),
		errors.Is(err, service.ErrClienteInactivo),
		errors.Is(err, service.ErrCuentaInactiva),
		errors.Is(err, service.ErrProductoInactivo),
		errors.Is(err, service.ErrSinTasa),
		errors.Is(err, service.ErrSinEmail):
		return http.StatusUnprocessableEntity
	}
	return 0
}

// responderError writes the API error for err. Unknown errors are attached
// to the context so middleware.ErrorHandler logs them and answers 500.
func responderError(c *gin.Context, err error) {
	if status := statusDe(err); status != 0 {
		c.JSON(status, apierror.New(err.Error()))
		return
	}
	_ = c.Error(err)
}

func enviarArchivo(c *gin.Context, nombre, mime string, data []byte) {
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, nombre))
	c.Data(http.StatusOK, mime, data)
}

// archivoSubido opens the multipart field "archivo". The caller closes it.
func archivoSubido(c *gin.Context) (io.ReadCloser, bool) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxArchivo)
	fh, err := c.FormFile("archivo")
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Se requiere el archivo .xlsx en el campo 'archivo'"))
		return nil, false
	}
	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("No se pudo leer el archivo"))
		return nil, false
	}
	return f, true
}
