package app

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"

	"home-energy-dashboard/internal/api"
	"home-energy-dashboard/internal/poller"
	"home-energy-dashboard/internal/simulator"
)

// Serve runs the development payload server: a simulated household feeding an
// in-memory history, exposed through the same /data contract the real backend
// provides.
func (a *App) Serve(ctx context.Context, opts ServeOptions) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	listenAddr := opts.ListenAddr
	if listenAddr == "" {
		listenAddr = a.Config.Simulator.ListenAddr
	}

	generator := simulator.NewGenerator(simulator.Options{
		CostPerKWH:         decimal.NewFromFloat(a.Config.Simulator.CostPerKWH),
		AnomalyProbability: a.Config.Simulator.AnomalyProbability,
	}, a.Logger)
	history := simulator.NewHistory(a.Config.Simulator.HistorySize)

	tickLoop := poller.New(poller.Options{Interval: a.Config.Simulator.Interval}, a.Logger)
	go func() {
		_ = tickLoop.Run(ctx, func(context.Context) error {
			history.Add(generator.GenerateAt(time.Now().UTC())...)
			return nil
		})
	}()

	server := &http.Server{
		Addr:              listenAddr,
		Handler:           api.NewServer(history, a.Logger).Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info().Str("addr", listenAddr).Msg("payload server listening")
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return err
		}
		a.Logger.Info().Msg("payload server stopped")
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
