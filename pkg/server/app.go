package server

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"LPQuant/internal/usecase"
	"LPQuant/pkg/config"
	xhttp "LPQuant/pkg/http"
	pkgkafka "LPQuant/pkg/kafka"
	applogger "LPQuant/pkg/logger"

	"golang.org/x/sync/errgroup"
)

// App owns the long-running parts of the service: the HTTP server, the
// optional swap poller and the optional Kafka consumer.
type App struct {
	cfg      *config.Config
	log      *applogger.Logger
	http     *xhttp.Server
	poller   *usecase.SwapPoller
	consumer *pkgkafka.Consumer
}

// New creates an App. poller and consumer may be nil.
func New(
	cfg *config.Config,
	l *applogger.Logger,
	httpServer *xhttp.Server,
	poller *usecase.SwapPoller,
	consumer *pkgkafka.Consumer,
) *App {
	if l == nil {
		l = applogger.Nop()
	}
	return &App{
		cfg:      cfg,
		log:      l,
		http:     httpServer,
		poller:   poller,
		consumer: consumer,
	}
}

// Run starts every component and blocks until ctx is canceled, SIGINT or
// SIGTERM arrives, or a component fails. It then shuts down gracefully.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if a.consumer != nil {
		if err := a.consumer.Start(); err != nil {
			return err
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(a.http.ListenAndServe)
	if a.poller != nil {
		g.Go(func() error { return a.poller.Run(gctx) })
		a.log.Info("swap poller started",
			applogger.Int("pools", len(a.cfg.Indexer.Pools)),
			applogger.String("backend", a.cfg.Backend.Type),
		)
	}
	g.Go(func() error {
		<-gctx.Done()
		a.log.Info("shutting down")
		return a.shutdown()
	})

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	if err == nil {
		a.log.Info("shutdown complete")
	}
	return err
}

// shutdown stops intake first and drains the consumer last.
func (a *App) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	var errs []error
	if err := a.http.Stop(ctx); err != nil {
		a.log.Error("http shutdown failed", applogger.Error(err))
		errs = append(errs, err)
	}
	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			a.log.Warn("kafka consumer stop failed", applogger.Error(err))
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
