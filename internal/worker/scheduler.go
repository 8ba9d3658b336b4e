package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// TareaFunc is a scheduled job body.
type TareaFunc func(ctx context.Context) error

// FalloFunc receives the error of a failed scheduled run.
type FalloFunc func(ctx context.Context, tarea string, err error)

// Scheduler runs daily back office jobs on robfig/cron in the business
// timezone. A run still in progress makes the next tick skip.
type Scheduler struct {
	ctx    context.Context
	cron   *cron.Cron
	fallo  FalloFunc
	nombre map[cron.EntryID]string
}

func NewScheduler(ctx context.Context, loc *time.Location, fallo FalloFunc) *Scheduler {
	logger := cronLogger{}
	return &Scheduler{
		ctx:    ctx,
		fallo:  fallo,
		nombre: make(map[cron.EntryID]string),
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
	}
}

// Registrar schedules tarea under a standard 5-field cron spec.
func (s *Scheduler) Registrar(nombre, spec string, tarea TareaFunc) error {
	id, err := s.cron.AddFunc(spec, func() { s.ejecutar(nombre, tarea) })
	if err != nil {
		return fmt.Errorf("cron: tarea %s: spec %q: %w", nombre, spec, err)
	}
	s.nombre[id] = nombre
	log.Info().Str("tarea", nombre).Str("spec", spec).Msg("cron: tarea registrada")
	return nil
}

func (s *Scheduler) ejecutar(nombre string, tarea TareaFunc) {
	inicio := time.Now()
	log.Info().Str("tarea", nombre).Msg("cron: inicio")
	if err := tarea(s.ctx); err != nil {
		log.Error().Err(err).Str("tarea", nombre).Dur("duracion", time.Since(inicio)).Msg("cron: fallo")
		if s.fallo != nil {
			s.fallo(s.ctx, nombre, err)
		}
		return
	}
	log.Info().Str("tarea", nombre).Dur("duracion", time.Since(inicio)).Msg("cron: fin")
}

func (s *Scheduler) Start() { s.cron.Start() }

// Stop halts the scheduler and waits for running jobs to return.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// Proximas returns the next run time per registered job.
func (s *Scheduler) Proximas() map[string]time.Time {
	out := make(map[string]time.Time, len(s.nombre))
	for _, e := range s.cron.Entries() {
		out[s.nombre[e.ID]] = e.Next
	}
	return out
}

// cronLogger adapts zerolog to cron.Logger.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	log.Debug().Fields(keysAndValues).Msg("cron: " + msg)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	log.Error().Err(err).Fields(keysAndValues).Msg("cron: " + msg)
}
