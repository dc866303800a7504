package view

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"home-energy-dashboard/internal/telemetry"
)

var baseTime = time.Date(2026, time.August, 31, 12, 0, 0, 0, time.UTC)

func sample(device string, minutesAgo int, kwh float64, anomaly bool) telemetry.Reading {
	return telemetry.Reading{
		DeviceID:        device,
		Timestamp:       baseTime.Add(-time.Duration(minutesAgo) * time.Minute),
		ConsumptionKWH:  decimal.NewFromFloat(kwh),
		AnomalyDetected: anomaly,
	}
}

func TestDeriveByDateSortsDescending(t *testing.T) {
	readings := []telemetry.Reading{
		sample("A", 30, 1, false),
		sample("B", 5, 2, false),
		sample("C", 15, 3, false),
	}

	out := Derive(readings, DefaultState())
	if len(out) != 3 {
		t.Fatalf("expected 3 readings, got %d", len(out))
	}
	if out[0].DeviceID != "B" || out[1].DeviceID != "C" || out[2].DeviceID != "A" {
		t.Fatalf("not sorted most recent first: %v", []string{out[0].DeviceID, out[1].DeviceID, out[2].DeviceID})
	}
	if readings[0].DeviceID != "A" {
		t.Fatal("input slice was reordered")
	}
}

func TestDeriveByAnomalyKeepsOrderAndSubset(t *testing.T) {
	readings := []telemetry.Reading{
		sample("A", 30, 1, true),
		sample("B", 5, 2, false),
		sample("C", 15, 3, true),
	}

	out := Derive(readings, State{Mode: ModeByAnomaly, Tier: TierNone, WindowHours: 1})
	if len(out) != 2 {
		t.Fatalf("expected 2 anomalies, got %d", len(out))
	}
	if out[0].DeviceID != "A" || out[1].DeviceID != "C" {
		t.Fatalf("anomaly mode must preserve input order, got %v", []string{out[0].DeviceID, out[1].DeviceID})
	}
	for _, r := range out {
		if !r.AnomalyDetected {
			t.Fatalf("non-anomalous reading %s in anomaly view", r.DeviceID)
		}
	}
}

func TestDeriveByConsumptionWithHighTier(t *testing.T) {
	readings := []telemetry.Reading{
		sample("low", 1, 1.5, false),
		sample("high2", 2, 6.0, false),
		sample("mid", 3, 3.0, false),
		sample("high1", 4, 9.0, false),
	}

	out := Derive(readings, State{Mode: ModeByConsumption, Tier: TierHigh, WindowHours: 1})
	if len(out) != 2 {
		t.Fatalf("expected 2 high-tier readings, got %d", len(out))
	}
	if out[0].DeviceID != "high1" || out[1].DeviceID != "high2" {
		t.Fatalf("not sorted by consumption descending: %v", []string{out[0].DeviceID, out[1].DeviceID})
	}
}

func TestTierBoundaries(t *testing.T) {
	cases := []struct {
		kwh  float64
		tier Tier
		want bool
	}{
		{5.01, TierHigh, true},
		{5.0, TierHigh, false},
		{5.0, TierMedium, true},
		{2.0, TierMedium, true},
		{1.99, TierMedium, false},
		{1.99, TierLow, true},
		{2.0, TierLow, false},
	}

	for _, tc := range cases {
		got := matchesTier(decimal.NewFromFloat(tc.kwh), tc.tier)
		if got != tc.want {
			t.Fatalf("matchesTier(%v, %s) = %v, want %v", tc.kwh, tc.tier, got, tc.want)
		}
	}
}

func TestTierPersistsAcrossModeChanges(t *testing.T) {
	readings := []telemetry.Reading{
		sample("big", 5, 7, false),
		sample("small", 1, 1, false),
	}

	// Tier was selected in consumption mode, then the mode changed to date.
	state := State{Mode: ModeByConsumption, Tier: TierHigh, WindowHours: 1}
	state.Mode = ModeByDate

	out := Derive(readings, state)
	if len(out) != 1 || out[0].DeviceID != "big" {
		t.Fatalf("tier filter should still apply after mode change, got %+v", out)
	}
}

func TestParseHelpers(t *testing.T) {
	if _, err := ParseMode("consumption"); err != nil {
		t.Fatalf("valid mode rejected: %v", err)
	}
	if _, err := ParseMode("bogus"); err == nil {
		t.Fatal("invalid mode accepted")
	}
	if _, err := ParseTier("medium"); err != nil {
		t.Fatalf("valid tier rejected: %v", err)
	}
	if _, err := ParseTier("huge"); err == nil {
		t.Fatal("invalid tier accepted")
	}
	for _, hours := range AllowedWindowHours {
		if _, err := ParseWindowHours(hours); err != nil {
			t.Fatalf("allowed window %d rejected: %v", hours, err)
		}
	}
	if _, err := ParseWindowHours(2); err == nil {
		t.Fatal("window of 2 hours should be rejected")
	}
}
