package worker

import (
	"context"
	"sync/atomic"
	"time"

	"adriani/internal/dto"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/panics"
)

const (
	DefaultTamanoLote = 30
	DefaultPausaLote  = 90 * time.Second
)

// Destinatario is one reminder ready to be delivered.
type Destinatario struct {
	RecordatorioID uuid.UUID
	ClienteID      uuid.UUID
	Telefono       string
	Mensaje        string
}

// LoteConfig controls batch size and the pause between batches.
type LoteConfig struct {
	Tamano int
	Pausa  time.Duration
	// Dormir waits d or until ctx ends. Nil uses a timer.
	Dormir func(ctx context.Context, d time.Duration) error
}

// EnvioFunc delivers one message.
type EnvioFunc func(ctx context.Context, d Destinatario) error

// RegistroFunc records the outcome of one attempt; err is nil on success.
type RegistroFunc func(ctx context.Context, d Destinatario, err error)

// EnviarEnLotes delivers dest in batches of cfg.Tamano. Sends inside a batch
// run concurrently; batches run one after the other with cfg.Pausa between
// them and no pause after the last. Each attempt is passed to registrar and a
// failed send never stops the rest of the batch. If ctx ends during a pause
// the remaining batches are left untouched and ctx.Err() is returned with
// the counts so far.
func EnviarEnLotes(ctx context.Context, dest []Destinatario, cfg LoteConfig, enviar EnvioFunc, registrar RegistroFunc) (dto.ResultadoEnvio, error) {
	if cfg.Tamano <= 0 {
		cfg.Tamano = DefaultTamanoLote
	}
	if cfg.Dormir == nil {
		cfg.Dormir = dormir
	}

	var res dto.ResultadoEnvio
	var enviados, fallidos atomic.Int64

	lotes := lo.Chunk(dest, cfg.Tamano)
	for i, lote := range lotes {
		res.Lotes++
		log.Info().Int("lote", i+1).Int("de", len(lotes)).Int("destinatarios", len(lote)).Msg("recordatorios: enviando lote")

		var wg conc.WaitGroup
		for _, d := range lote {
			wg.Go(func() {
				err := intentar(ctx, enviar, d)
				if err != nil {
					fallidos.Add(1)
				} else {
					enviados.Add(1)
				}
				registrar(ctx, d, err)
			})
		}
		wg.Wait()

		if i < len(lotes)-1 {
			if err := cfg.Dormir(ctx, cfg.Pausa); err != nil {
				res.Enviados, res.Fallidos = int(enviados.Load()), int(fallidos.Load())
				return res, err
			}
		}
	}

	res.Enviados, res.Fallidos = int(enviados.Load()), int(fallidos.Load())
	return res, nil
}

// intentar calls enviar and reports a panic as an ordinary failure.
func intentar(ctx context.Context, enviar EnvioFunc, d Destinatario) error {
	var err error
	var pc panics.Catcher
	pc.Try(func() { err = enviar(ctx, d) })
	if r := pc.Recovered(); r != nil {
		return r.AsError()
	}
	return err
}

func dormir(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
