package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"home-energy-dashboard/internal/aggregate"
	"home-energy-dashboard/internal/alerting"
	"home-energy-dashboard/internal/config"
	"home-energy-dashboard/internal/fetcher"
	"home-energy-dashboard/internal/poller"
	"home-energy-dashboard/internal/suggest"
	"home-energy-dashboard/internal/telemetry"
	"home-energy-dashboard/internal/view"
)

// Snapshot is the fully derived dashboard state for one refresh. Each refresh
// recomputes everything from scratch and replaces the previous snapshot.
type Snapshot struct {
	FetchedAt    time.Time
	Payload      telemetry.Payload
	MinuteSeries aggregate.ChartSeries
	TopDevices   aggregate.ChartSeries
	DeviceTotals map[string]decimal.Decimal
	Filtered     []telemetry.Reading
	Suggestions  []string
}

// Service orchestrates polling, derivation, and anomaly alerting.
type Service struct {
	poller   *poller.Poller
	fetcher  fetcher.PayloadFetcher
	notifier alerting.Notifier
	logger   zerolog.Logger

	state    view.State
	topN     int
	alertsOn bool
	cooldown time.Duration

	mu        sync.RWMutex
	snapshot  *Snapshot
	lastAlert map[string]time.Time

	now func() time.Time
}

// New constructs the watcher service.
func New(cfg *config.Config, p *poller.Poller, f fetcher.PayloadFetcher, notifier alerting.Notifier, logger zerolog.Logger) *Service {
	state := view.DefaultState()
	state.WindowHours = cfg.Display.WindowHours

	return &Service{
		poller:    p,
		fetcher:   f,
		notifier:  notifier,
		logger:    logger.With().Str("component", "service").Logger(),
		state:     state,
		topN:      cfg.Display.TopDevices,
		alertsOn:  cfg.Alerting.Enabled,
		cooldown:  cfg.Alerting.Cooldown,
		lastAlert: make(map[string]time.Time),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Run begins the refresh loop.
func (s *Service) Run(ctx context.Context) error {
	if s.poller == nil {
		return fmt.Errorf("poller not configured")
	}
	return s.poller.Run(ctx, s.Refresh)
}

// Refresh fetches one payload and swaps in a freshly derived snapshot.
func (s *Service) Refresh(ctx context.Context) error {
	payload, err := s.fetcher.FetchPayload(ctx)
	if err != nil {
		return fmt.Errorf("fetch payload: %w", err)
	}

	s.mu.RLock()
	state := s.state
	s.mu.RUnlock()

	now := s.now()
	window := time.Duration(state.WindowHours) * time.Hour

	snap := &Snapshot{
		FetchedAt:    now,
		Payload:      payload,
		MinuteSeries: aggregate.BucketByTime(payload.RecentReadings, now, window),
		TopDevices:   aggregate.TopDevices(payload.RecentReadings, now, window, s.topN),
		DeviceTotals: payload.ConsumptionByDevice,
		Filtered:     view.Derive(payload.RecentReadings, state),
		Suggestions:  payload.SmartSuggestions,
	}
	if len(snap.Suggestions) == 0 {
		snap.Suggestions = suggest.Suggestions(payload.RecentReadings, payload.DailySummaries, now)
	}

	s.mu.Lock()
	s.snapshot = snap
	s.mu.Unlock()

	topDevice := ""
	if snap.TopDevices.Len() > 0 {
		topDevice = snap.TopDevices.Labels[0]
	}
	s.logger.Info().
		Int("readings", len(payload.RecentReadings)).
		Int("buckets", snap.MinuteSeries.Len()).
		Int("anomalies", len(payload.Anomalies)).
		Str("top_device", topDevice).
		Msg("snapshot refreshed")

	s.dispatchAlerts(ctx, payload.Anomalies)
	return nil
}

// Snapshot returns the latest derived state, if any refresh has completed.
func (s *Service) Snapshot() (Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.snapshot == nil {
		return Snapshot{}, false
	}
	return *s.snapshot, true
}

// SetState replaces the view selections; the next refresh derives with them.
func (s *Service) SetState(state view.State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

// dispatchAlerts notifies on anomalies, at most once per device per cooldown.
func (s *Service) dispatchAlerts(ctx context.Context, anomalies []telemetry.Anomaly) {
	if !s.alertsOn || s.notifier == nil {
		return
	}

	now := s.now()
	for _, anomaly := range anomalies {
		s.mu.Lock()
		last, seen := s.lastAlert[anomaly.DeviceID]
		if seen && s.cooldown > 0 && now.Sub(last) < s.cooldown {
			s.mu.Unlock()
			continue
		}
		s.lastAlert[anomaly.DeviceID] = now
		s.mu.Unlock()

		note := alerting.Notification{
			Timestamp:      anomaly.Timestamp,
			DeviceID:       anomaly.DeviceID,
			ConsumptionKWH: anomaly.ConsumptionKWH,
			Message:        anomaly.Message,
		}
		if err := s.notifier.Notify(ctx, note); err != nil {
			s.logger.Error().Err(err).Str("device", anomaly.DeviceID).Msg("failed to dispatch alert")
		}
	}
}
