package telemetry

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestParsePayloadMissingKeysDefaultToEmpty(t *testing.T) {
	payload, skipped, err := ParsePayload([]byte(`{}`))
	if err != nil {
		t.Fatalf("empty object should parse: %v", err)
	}
	if skipped != 0 {
		t.Fatalf("nothing to skip, got %d", skipped)
	}
	if len(payload.RecentReadings) != 0 || len(payload.DailySummaries) != 0 || len(payload.Anomalies) != 0 {
		t.Fatalf("missing keys should decode as empty collections: %+v", payload)
	}
	if payload.SmartSuggestions == nil || payload.ConsumptionByDevice == nil {
		t.Fatal("collections should be non-nil after decoding")
	}
}

func TestParsePayloadSkipsMalformedRecords(t *testing.T) {
	raw := []byte(`{
		"recentReadings": [
			{"timestamp": "2026-08-31T11:55:00Z", "device_id": "HVAC_001", "location": "MainHouse", "consumption_kwh": 1.2, "status": "COOLING"},
			{"timestamp": "not-a-timestamp", "device_id": "Fridge_Main", "consumption_kwh": 0.1, "status": "ON"},
			{"timestamp": "2026-08-31T11:56:00Z", "device_id": "TV_LivingRoom", "consumption_kwh": "banana", "status": "ON"},
			{"timestamp": "2026-08-31T11:57:00Z", "consumption_kwh": 0.3, "status": "ON"}
		]
	}`)

	payload, skipped, err := ParsePayload(raw)
	if err != nil {
		t.Fatalf("record-level failures must not fail the payload: %v", err)
	}
	if skipped != 3 {
		t.Fatalf("expected 3 skipped records, got %d", skipped)
	}
	if len(payload.RecentReadings) != 1 {
		t.Fatalf("expected 1 surviving reading, got %d", len(payload.RecentReadings))
	}
	if payload.RecentReadings[0].DeviceID != "HVAC_001" {
		t.Fatalf("wrong surviving reading: %+v", payload.RecentReadings[0])
	}
}

func TestParsePayloadFullShape(t *testing.T) {
	raw := []byte(`{
		"recentReadings": [
			{"timestamp": "2026-08-31T11:55:00.123456", "device_id": "HVAC_001", "location": "MainHouse", "consumption_kwh": 2.5, "cost_usd": 0.3, "status": "COOLING", "anomaly_detected": true, "anomaly_message": "HVAC running high during mild weather.", "simulated_outside_temp_f": 65.0, "simulated_season": "Fall"}
		],
		"dailySummaries": [
			{"date": "2026-08-31", "total_consumption_kwh": 12.5, "total_cost_usd": 1.5, "peak_device_daily": "HVAC_001", "peak_device_consumption_daily": 6.1}
		],
		"anomalies": [
			{"timestamp": "2026-08-31T11:55:00Z", "device_id": "HVAC_001", "anomaly_message": "HVAC running high during mild weather.", "consumption_kwh": 2.5}
		],
		"smartSuggestions": ["Check insulation."],
		"consumptionByDevice": {"HVAC_001": 6.1, "Fridge_Main": 1.2}
	}`)

	payload, skipped, err := ParsePayload(raw)
	if err != nil {
		t.Fatalf("full payload should parse: %v", err)
	}
	if skipped != 0 {
		t.Fatalf("no records should be skipped, got %d", skipped)
	}

	r := payload.RecentReadings[0]
	wantTS := time.Date(2026, time.August, 31, 11, 55, 0, 123456000, time.UTC)
	if !r.Timestamp.Equal(wantTS) {
		t.Fatalf("zone-less timestamp should decode as UTC instant %v, got %v", wantTS, r.Timestamp)
	}
	if !r.ConsumptionKWH.Equal(decimal.NewFromFloat(2.5)) {
		t.Fatalf("wrong consumption: %s", r.ConsumptionKWH)
	}
	if !r.AnomalyDetected || r.OutsideTempF == nil || *r.OutsideTempF != 65.0 {
		t.Fatalf("anomaly/temperature fields lost: %+v", r)
	}

	if payload.DailySummaries[0].PeakDevice != "HVAC_001" {
		t.Fatalf("summary decode failed: %+v", payload.DailySummaries[0])
	}
	if payload.Anomalies[0].Message == "" {
		t.Fatalf("anomaly message lost: %+v", payload.Anomalies[0])
	}
	if !payload.ConsumptionByDevice["Fridge_Main"].Equal(decimal.NewFromFloat(1.2)) {
		t.Fatalf("device totals decode failed: %+v", payload.ConsumptionByDevice)
	}
}

func TestMarshalPayloadRoundTrip(t *testing.T) {
	ts, err := ParseTimestamp("2026-08-31T11:55:00Z")
	if err != nil {
		t.Fatalf("parse timestamp: %v", err)
	}

	original := Payload{
		RecentReadings: []Reading{{
			DeviceID:       "Fridge_Main",
			Location:       "Kitchen",
			Timestamp:      ts,
			ConsumptionKWH: decimal.NewFromFloat(0.15),
			CostUSD:        decimal.NewFromFloat(0.018),
			Status:         "ON",
		}},
		SmartSuggestions:    []string{"tip"},
		ConsumptionByDevice: map[string]decimal.Decimal{"Fridge_Main": decimal.NewFromFloat(0.15)},
	}

	raw, err := MarshalPayload(original)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}

	decoded, skipped, err := ParsePayload(raw)
	if err != nil || skipped != 0 {
		t.Fatalf("round trip failed: err=%v skipped=%d", err, skipped)
	}
	if len(decoded.RecentReadings) != 1 {
		t.Fatalf("reading lost in round trip: %+v", decoded)
	}
	if !decoded.RecentReadings[0].Timestamp.Equal(ts) {
		t.Fatalf("timestamp changed in round trip: %v", decoded.RecentReadings[0].Timestamp)
	}
}

func TestEmpty(t *testing.T) {
	if !(Payload{}).Empty() {
		t.Fatal("zero payload should be empty")
	}
	p := Payload{SmartSuggestions: []string{"tip"}}
	if !p.Empty() {
		t.Fatal("suggestions alone do not make a payload non-empty")
	}
	p.RecentReadings = []Reading{{DeviceID: "A"}}
	if p.Empty() {
		t.Fatal("payload with readings should not be empty")
	}
}
