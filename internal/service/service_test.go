package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"home-energy-dashboard/internal/alerting"
	"home-energy-dashboard/internal/config"
	"home-energy-dashboard/internal/telemetry"
	"home-energy-dashboard/internal/view"
)

type staticFetcher struct {
	payload telemetry.Payload
	err     error
}

func (f *staticFetcher) FetchPayload(ctx context.Context) (telemetry.Payload, error) {
	return f.payload, f.err
}

type recordingNotifier struct {
	notes []alerting.Notification
}

func (n *recordingNotifier) Notify(ctx context.Context, note alerting.Notification) error {
	n.notes = append(n.notes, note)
	return nil
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Display.WindowHours = 24
	cfg.Display.TopDevices = 5
	cfg.Alerting.Enabled = true
	cfg.Alerting.Cooldown = 30 * time.Minute
	return cfg
}

func testPayload(now time.Time) telemetry.Payload {
	return telemetry.Payload{
		RecentReadings: []telemetry.Reading{
			{
				DeviceID:       "Fridge_Main",
				Location:       "Kitchen",
				Timestamp:      now.Add(-2 * time.Minute),
				ConsumptionKWH: decimal.NewFromFloat(0.04),
				Status:         "ON",
			},
			{
				DeviceID:        "HVAC_001",
				Location:        "MainHouse",
				Timestamp:       now.Add(-1 * time.Minute),
				ConsumptionKWH:  decimal.NewFromFloat(9.2),
				Status:          "ANOMALY_SPIKE",
				AnomalyDetected: true,
				AnomalyMessage:  "unusual spike in consumption",
			},
		},
		Anomalies: []telemetry.Anomaly{
			{
				Timestamp:      now.Add(-1 * time.Minute),
				DeviceID:       "HVAC_001",
				Message:        "unusual spike in consumption",
				ConsumptionKWH: decimal.NewFromFloat(9.2),
			},
		},
		SmartSuggestions:    []string{"tip"},
		ConsumptionByDevice: map[string]decimal.Decimal{"HVAC_001": decimal.NewFromFloat(9.2)},
	}
}

func TestRefreshBuildsSnapshot(t *testing.T) {
	now := time.Date(2026, time.August, 31, 12, 0, 0, 0, time.UTC)
	notifier := &recordingNotifier{}
	svc := New(testConfig(), nil, &staticFetcher{payload: testPayload(now)}, notifier, zerolog.Nop())
	svc.now = func() time.Time { return now }

	if _, ok := svc.Snapshot(); ok {
		t.Fatal("snapshot must be empty before the first refresh")
	}

	if err := svc.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh failed: %v", err)
	}

	snap, ok := svc.Snapshot()
	if !ok {
		t.Fatal("snapshot missing after refresh")
	}
	if !snap.FetchedAt.Equal(now) {
		t.Fatalf("FetchedAt = %v, want %v", snap.FetchedAt, now)
	}
	if snap.TopDevices.Len() == 0 || snap.TopDevices.Labels[0] != "HVAC_001" {
		t.Fatalf("expected HVAC_001 on top, got %+v", snap.TopDevices)
	}
	if snap.MinuteSeries.Len() != 2 {
		t.Fatalf("expected 2 minute buckets, got %d", snap.MinuteSeries.Len())
	}
	if len(snap.Filtered) != 2 {
		t.Fatalf("default view should keep both readings, got %d", len(snap.Filtered))
	}
	if len(snap.Suggestions) != 1 || snap.Suggestions[0] != "tip" {
		t.Fatalf("payload suggestions should pass through, got %v", snap.Suggestions)
	}
}

func TestRefreshFallsBackToLocalSuggestions(t *testing.T) {
	now := time.Date(2026, time.August, 31, 12, 0, 0, 0, time.UTC)
	payload := testPayload(now)
	payload.SmartSuggestions = nil

	svc := New(testConfig(), nil, &staticFetcher{payload: payload}, nil, zerolog.Nop())
	svc.now = func() time.Time { return now }

	if err := svc.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	snap, _ := svc.Snapshot()
	if len(snap.Suggestions) == 0 {
		t.Fatal("suggestions must be derived locally when the payload carries none")
	}
}

func TestRefreshPropagatesFetchError(t *testing.T) {
	wantErr := errors.New("boom")
	svc := New(testConfig(), nil, &staticFetcher{err: wantErr}, nil, zerolog.Nop())

	err := svc.Refresh(context.Background())
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected wrapped fetch error, got %v", err)
	}
	if _, ok := svc.Snapshot(); ok {
		t.Fatal("failed refresh must not install a snapshot")
	}
}

func TestSetStateAppliesOnNextRefresh(t *testing.T) {
	now := time.Date(2026, time.August, 31, 12, 0, 0, 0, time.UTC)
	svc := New(testConfig(), nil, &staticFetcher{payload: testPayload(now)}, nil, zerolog.Nop())
	svc.now = func() time.Time { return now }

	state := view.DefaultState()
	state.Mode = view.ModeByAnomaly
	state.WindowHours = 24
	svc.SetState(state)

	if err := svc.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	snap, _ := svc.Snapshot()
	if len(snap.Filtered) != 1 || snap.Filtered[0].DeviceID != "HVAC_001" {
		t.Fatalf("anomaly view should keep only the flagged reading, got %+v", snap.Filtered)
	}
}

func TestAlertCooldownDedupesPerDevice(t *testing.T) {
	now := time.Date(2026, time.August, 31, 12, 0, 0, 0, time.UTC)
	notifier := &recordingNotifier{}
	svc := New(testConfig(), nil, &staticFetcher{payload: testPayload(now)}, notifier, zerolog.Nop())
	svc.now = func() time.Time { return now }

	if err := svc.Refresh(context.Background()); err != nil {
		t.Fatalf("first refresh failed: %v", err)
	}
	if err := svc.Refresh(context.Background()); err != nil {
		t.Fatalf("second refresh failed: %v", err)
	}
	if len(notifier.notes) != 1 {
		t.Fatalf("cooldown should suppress the repeat alert, got %d notifications", len(notifier.notes))
	}
	if notifier.notes[0].DeviceID != "HVAC_001" {
		t.Fatalf("unexpected alert device %q", notifier.notes[0].DeviceID)
	}

	// 冷却期过后同一设备应再次告警
	svc.now = func() time.Time { return now.Add(31 * time.Minute) }
	if err := svc.Refresh(context.Background()); err != nil {
		t.Fatalf("third refresh failed: %v", err)
	}
	if len(notifier.notes) != 2 {
		t.Fatalf("expected a second alert after the cooldown, got %d", len(notifier.notes))
	}
}

func TestAlertsDisabled(t *testing.T) {
	now := time.Date(2026, time.August, 31, 12, 0, 0, 0, time.UTC)
	cfg := testConfig()
	cfg.Alerting.Enabled = false

	notifier := &recordingNotifier{}
	svc := New(cfg, nil, &staticFetcher{payload: testPayload(now)}, notifier, zerolog.Nop())
	svc.now = func() time.Time { return now }

	if err := svc.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	if len(notifier.notes) != 0 {
		t.Fatalf("alerts disabled, expected no notifications, got %d", len(notifier.notes))
	}
}
