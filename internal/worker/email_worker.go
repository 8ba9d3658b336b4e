package worker

// email_worker.go
// Processes email jobs from QueueEmail: account statements sent to clients
// with the PDF attached.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
)

// EmailJobPayload is the job envelope sent to QueueEmail. PDF travels
// base64-encoded inside the JSON.
type EmailJobPayload struct {
	ToEmail       string `json:"to_email"`
	Subject       string `json:"subject"`
	Body          string `json:"body"`
	NombreArchivo string `json:"nombre_archivo"`
	PDF           []byte `json:"pdf"`
}

// Mailer is the SMTP capability the email worker needs.
type Mailer interface {
	EnviarConAdjunto(to, subject, body, nombreArchivo string, pdf []byte) error
}

// EmailWorker processes email jobs from QueueEmail.
type EmailWorker struct {
	mailer Mailer
}

// NewEmailWorker creates an EmailWorker with the provided SMTP mailer.
func NewEmailWorker(mailer Mailer) *EmailWorker {
	return &EmailWorker{mailer: mailer}
}

// Process sends one email. An invalid payload is not retried.
func (w *EmailWorker) Process(_ context.Context, raw json.RawMessage) error {
	var payload EmailJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("email_worker: invalid payload")
		return nil
	}
	if payload.ToEmail == "" {
		log.Warn().Msg("email_worker: empty to_email, skipping")
		return nil
	}
	if w.mailer == nil {
		return errors.New("email_worker: SMTP no configurado")
	}

	if err := w.mailer.EnviarConAdjunto(payload.ToEmail, payload.Subject, payload.Body, payload.NombreArchivo, payload.PDF); err != nil {
		return fmt.Errorf("email_worker: send to %s: %w", payload.ToEmail, err)
	}
	log.Info().Str("to", payload.ToEmail).Msg("email_worker: email sent")
	return nil
}
