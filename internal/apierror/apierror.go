// Package apierror holds the JSON envelopes for 4xx/5xx responses. Internal
// details (SQL errors, stack traces) never go through here.
package apierror

// APIError is the canonical error envelope.
type APIError struct {
	Detail string `json:"detail"`
}

func New(msg string) *APIError {
	return &APIError{Detail: msg}
}

// ValidationError lists the failing fields with a readable reason each.
type ValidationError struct {
	Detail string            `json:"detail"`
	Fields map[string]string `json:"fields"`
}

var motivos = map[string]string{
	"required": "es obligatorio",
	"gt":       "debe ser mayor que cero",
	"gte":      "no puede ser negativo",
	"min":      "es demasiado corto o pequeno",
	"max":      "es demasiado largo o grande",
	"oneof":    "tiene un valor no permitido",
	"email":    "no es un correo valido",
	"dive":     "contiene elementos invalidos",
	"uuid":     "no es un identificador valido",
	"datetime": "no tiene el formato AAAA-MM-DD",
}

// NewValidation builds the envelope from field → validator tag pairs.
func NewValidation(fields map[string]string) *ValidationError {
	out := make(map[string]string, len(fields))
	for campo, tag := range fields {
		if m, ok := motivos[tag]; ok {
			out[campo] = m
			continue
		}
		out[campo] = tag
	}
	return &ValidationError{Detail: "Error de validacion", Fields: out}
}
