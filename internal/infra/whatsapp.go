package infra

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog/log"
)

// ErrDestinatarioInvalido marks a send rejected because of the recipient
// (unknown or malformed number), not because of the sidecar.
var ErrDestinatarioInvalido = errors.New("whatsapp: destinatario invalido")

// WhatsAppPayload is the body posted to the sidecar's /send endpoint.
type WhatsAppPayload struct {
	Telefono string `json:"phone"`
	Mensaje  string `json:"message"`
}

type whatsAppResponse struct {
	Success bool   `json:"success"`
	ID      string `json:"id"`
	Error   string `json:"error"`
}

// WhatsAppClient delegates message delivery to the WhatsApp sidecar over HTTP.
// Transport errors and 5xx answers are retried by go-retryablehttp; the
// circuit breaker sits one level up, in the reminder sender.
type WhatsAppClient struct {
	baseURL string
	token   string
	http    *retryablehttp.Client
}

func NewWhatsAppClient(baseURL, token string) *WhatsAppClient {
	rc := retryablehttp.NewClient()
	rc.RetryMax = 2
	rc.RetryWaitMin = 500 * time.Millisecond
	rc.RetryWaitMax = 3 * time.Second
	rc.HTTPClient.Timeout = 20 * time.Second
	rc.Logger = nil
	return &WhatsAppClient{baseURL: baseURL, token: token, http: rc}
}

// EnviarMensaje sends texto to telefono. A 4xx answer from the sidecar is
// wrapped in ErrDestinatarioInvalido.
func (c *WhatsAppClient) EnviarMensaje(ctx context.Context, telefono, texto string) error {
	body, err := json.Marshal(WhatsAppPayload{Telefono: telefono, Mensaje: texto})
	if err != nil {
		return fmt.Errorf("whatsapp: marshal payload: %w", err)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/send", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("whatsapp: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("whatsapp: sidecar unreachable: %w", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var result whatsAppResponse
	_ = json.Unmarshal(raw, &result)

	switch {
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return fmt.Errorf("%w: %s (%d)", ErrDestinatarioInvalido, result.Error, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("whatsapp: sidecar returned %d", resp.StatusCode)
	case !result.Success:
		return fmt.Errorf("whatsapp: envio rechazado: %s", result.Error)
	}
	log.Debug().Str("telefono", telefono).Str("mensaje_id", result.ID).Msg("whatsapp: mensaje enviado")
	return nil
}
