package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"adriani/internal/config"
	"adriani/internal/infra"
	"adriani/internal/router"
	"adriani/internal/worker"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	// Pretty console output in development, JSON in production
	if !cfg.IsProduction() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}

	rdb, err := infra.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}

	whatsappCB := infra.NewCircuitBreaker(infra.DefaultCBConfig())
	svc := router.NuevosServicios(cfg, db, rdb, whatsappCB)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Worker pool: reminder batches and outgoing email.
	var mailer worker.Mailer
	if m := infra.NewMailer(cfg); m.Configurado() {
		mailer = m
	} else {
		log.Warn().Msg("SMTP_HOST vacio: los correos quedaran en la DLQ")
	}
	pool := worker.NewPool(rdb, map[string]worker.JobHandler{
		worker.JobRecordatorios: func(ctx context.Context, _ json.RawMessage) error {
			_, err := svc.Cobranza.EnviarPendientes(ctx)
			return err
		},
		worker.JobEmail: worker.NewEmailWorker(mailer).Process,
	})
	pool.Start(ctx, cfg.WorkerPoolSize)

	// Daily jobs in the business timezone.
	sched := worker.NewScheduler(ctx, cfg.Location(), func(ctx context.Context, tarea string, err error) {
		svc.Errores.Registrar(ctx, "cron:"+tarea, err)
	})
	tareas := []struct {
		nombre, spec string
		fn           worker.TareaFunc
	}{
		{"estados", cfg.CronEstados, func(ctx context.Context) error {
			_, err := svc.Facturas.ActualizarEstados(ctx)
			return err
		}},
		{"dolar", cfg.CronDolar, func(ctx context.Context) error {
			_, err := svc.Dolar.Actualizar(ctx)
			return err
		}},
		{"recordatorios", cfg.CronRecordatorios, func(ctx context.Context) error {
			if _, err := svc.Cobranza.EncolarRecordatorios(ctx); err != nil {
				return err
			}
			return svc.Cobranza.SolicitarEnvio(ctx)
		}},
	}
	for _, t := range tareas {
		if err := sched.Registrar(t.nombre, t.spec, t.fn); err != nil {
			log.Fatal().Err(err).Msg("invalid cron spec")
		}
	}
	sched.Start()

	r := router.New(cfg, db, rdb, whatsappCB, svc)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM
	go func() {
		log.Info().Msgf("Adriani backend listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server…")
	sched.Stop()
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("forced shutdown")
	}
	log.Info().Msg("server exited")
}
