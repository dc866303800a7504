package app

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"home-energy-dashboard/internal/alerting"
	"home-energy-dashboard/internal/config"
	"home-energy-dashboard/internal/fetcher"
	"home-energy-dashboard/internal/poller"
	"home-energy-dashboard/internal/service"
	"home-energy-dashboard/internal/view"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{Config: cfg, Logger: logger.With().Str("component", "app").Logger()}
}

func (a *App) newFetcher() fetcher.PayloadFetcher {
	return fetcher.NewClient(fetcher.Options{
		BaseURL:   a.Config.API.BaseURL,
		Timeout:   a.Config.API.RequestTimeout,
		UserAgent: a.Config.API.UserAgent,
	}, a.Logger)
}

func (a *App) newNotifier() alerting.Notifier {
	if a.Config.Alerting.Telegram.Enabled {
		cfg := a.Config.Alerting.Telegram
		return alerting.NewTelegramNotifier(cfg.BotToken, cfg.ChatID, cfg.APIBase, 10*time.Second, a.Logger)
	}
	return nil
}

// Run executes the long-running watcher service.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	p := poller.New(poller.Options{
		Interval:     a.Config.Poller.Interval,
		StartupDelay: a.Config.Poller.StartupDelay,
	}, a.Logger)

	notifier := a.newNotifier()
	if a.Config.Alerting.Enabled && notifier == nil {
		a.Logger.Warn().Msg("alerting enabled but no channel configured; alerts will be dropped")
	}

	svc := service.New(a.Config, p, a.newFetcher(), notifier, a.Logger)

	a.Logger.Info().Str("endpoint", a.Config.API.BaseURL).Msg("starting watcher service")
	err := svc.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		a.Logger.Error().Err(err).Msg("service terminated with error")
		return err
	}

	a.Logger.Info().Msg("watcher service stopped")
	return nil
}

// ShowOptions configure the show command.
type ShowOptions struct {
	Mode        string
	Tier        string
	WindowHours int
	Limit       int
}

// ExportOptions hold parameters for exporting the live payload window.
type ExportOptions struct {
	CSVPath        string
	TrendPNGPath   string
	RankingPNGPath string
	WindowHours    int
	MaxPoints      int
}

// ServeOptions configure the development payload server.
type ServeOptions struct {
	ListenAddr string
}

// SimulateOptions configure the simulate-alert command.
type SimulateOptions struct {
	DeviceID       string
	ConsumptionKWH float64
	Message        string
}

// viewState resolves user-facing mode/tier/window flags into a view state.
func (a *App) viewState(mode, tier string, windowHours int) (view.State, error) {
	state := view.DefaultState()
	state.WindowHours = a.Config.Display.WindowHours

	if mode != "" {
		parsed, err := view.ParseMode(mode)
		if err != nil {
			return view.State{}, err
		}
		state.Mode = parsed
	}
	if tier != "" {
		parsed, err := view.ParseTier(tier)
		if err != nil {
			return view.State{}, err
		}
		state.Tier = parsed
	}
	if windowHours > 0 {
		parsed, err := view.ParseWindowHours(windowHours)
		if err != nil {
			return view.State{}, err
		}
		state.WindowHours = parsed
	}
	return state, nil
}
