package infra

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/shopspring/decimal"
)

// CotizacionDolar is the subset of the DolarApi payload the service uses.
type CotizacionDolar struct {
	Promedio           decimal.Decimal `json:"promedio"`
	FechaActualizacion time.Time       `json:"fechaActualizacion"`
}

// DolarClient fetches the official USD/VES rate from a DolarApi endpoint.
type DolarClient struct {
	url  string
	http *retryablehttp.Client
}

func NewDolarClient(url string) *DolarClient {
	rc := retryablehttp.NewClient()
	rc.RetryMax = 3
	rc.HTTPClient.Timeout = 15 * time.Second
	rc.Logger = nil
	return &DolarClient{url: url, http: rc}
}

func (c *DolarClient) Obtener(ctx context.Context) (*CotizacionDolar, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("dolar: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("dolar: api unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("dolar: api returned %d", resp.StatusCode)
	}

	var cot CotizacionDolar
	if err := json.NewDecoder(resp.Body).Decode(&cot); err != nil {
		return nil, fmt.Errorf("dolar: decode response: %w", err)
	}
	if !cot.Promedio.IsPositive() {
		return nil, fmt.Errorf("dolar: promedio invalido %s", cot.Promedio)
	}
	return &cot, nil
}
