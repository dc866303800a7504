package telemetry

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// timestampLayouts covers the ISO-8601 variants the backend emits: RFC 3339
// with zone, and the zone-less form produced by naive UTC formatters.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
}

type readingWire struct {
	Timestamp       string           `json:"timestamp"`
	DeviceID        string           `json:"device_id"`
	Location        string           `json:"location"`
	ConsumptionKWH  *decimal.Decimal `json:"consumption_kwh"`
	CostUSD         *decimal.Decimal `json:"cost_usd"`
	Status          string           `json:"status"`
	AnomalyDetected bool             `json:"anomaly_detected"`
	AnomalyMessage  string           `json:"anomaly_message"`
	OutsideTempF    *float64         `json:"simulated_outside_temp_f,omitempty"`
	Season          string           `json:"simulated_season,omitempty"`
}

type summaryWire struct {
	Date                  string           `json:"date"`
	TotalConsumptionKWH   *decimal.Decimal `json:"total_consumption_kwh"`
	TotalCostUSD          *decimal.Decimal `json:"total_cost_usd"`
	PeakDevice            string           `json:"peak_device_daily"`
	PeakDeviceConsumption *decimal.Decimal `json:"peak_device_consumption_daily"`
}

type payloadWire struct {
	RecentReadings      []json.RawMessage          `json:"recentReadings"`
	DailySummaries      []summaryWire              `json:"dailySummaries"`
	Anomalies           []json.RawMessage          `json:"anomalies"`
	SmartSuggestions    []string                   `json:"smartSuggestions"`
	ConsumptionByDevice map[string]decimal.Decimal `json:"consumptionByDevice"`
}

// ParsePayload decodes a dashboard payload. Missing top-level keys yield empty
// collections, and individual records that fail validation are dropped rather
// than failing the whole refresh. The second return value counts dropped
// records.
func ParsePayload(raw []byte) (Payload, int, error) {
	var wire payloadWire
	if err := json.Unmarshal(raw, &wire); err != nil {
		return Payload{}, 0, fmt.Errorf("decode payload: %w", err)
	}

	skipped := 0
	payload := Payload{
		RecentReadings:      make([]Reading, 0, len(wire.RecentReadings)),
		DailySummaries:      make([]DailySummary, 0, len(wire.DailySummaries)),
		Anomalies:           make([]Anomaly, 0, len(wire.Anomalies)),
		SmartSuggestions:    wire.SmartSuggestions,
		ConsumptionByDevice: wire.ConsumptionByDevice,
	}
	if payload.SmartSuggestions == nil {
		payload.SmartSuggestions = []string{}
	}
	if payload.ConsumptionByDevice == nil {
		payload.ConsumptionByDevice = map[string]decimal.Decimal{}
	}

	for _, rawReading := range wire.RecentReadings {
		reading, err := decodeReading(rawReading)
		if err != nil {
			skipped++
			continue
		}
		payload.RecentReadings = append(payload.RecentReadings, reading)
	}

	for _, s := range wire.DailySummaries {
		payload.DailySummaries = append(payload.DailySummaries, DailySummary{
			Date:                  s.Date,
			TotalConsumptionKWH:   derefDecimal(s.TotalConsumptionKWH),
			TotalCostUSD:          derefDecimal(s.TotalCostUSD),
			PeakDevice:            s.PeakDevice,
			PeakDeviceConsumption: derefDecimal(s.PeakDeviceConsumption),
		})
	}

	for _, rawAnomaly := range wire.Anomalies {
		reading, err := decodeReading(rawAnomaly)
		if err != nil {
			skipped++
			continue
		}
		payload.Anomalies = append(payload.Anomalies, Anomaly{
			Timestamp:      reading.Timestamp,
			DeviceID:       reading.DeviceID,
			Message:        reading.AnomalyMessage,
			ConsumptionKWH: reading.ConsumptionKWH,
		})
	}

	return payload, skipped, nil
}

func decodeReading(raw json.RawMessage) (Reading, error) {
	var rw readingWire
	if err := json.Unmarshal(raw, &rw); err != nil {
		return Reading{}, fmt.Errorf("decode reading: %w", err)
	}
	if rw.DeviceID == "" {
		return Reading{}, fmt.Errorf("reading missing device_id")
	}
	ts, err := ParseTimestamp(rw.Timestamp)
	if err != nil {
		return Reading{}, err
	}
	return Reading{
		DeviceID:        rw.DeviceID,
		Location:        rw.Location,
		Timestamp:       ts,
		ConsumptionKWH:  derefDecimal(rw.ConsumptionKWH),
		CostUSD:         derefDecimal(rw.CostUSD),
		Status:          rw.Status,
		AnomalyDetected: rw.AnomalyDetected,
		AnomalyMessage:  rw.AnomalyMessage,
		OutsideTempF:    rw.OutsideTempF,
		Season:          rw.Season,
	}, nil
}

// ParseTimestamp parses an ISO-8601 timestamp; zone-less values are read as UTC.
func ParseTimestamp(value string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if ts, err := time.ParseInLocation(layout, value, time.UTC); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable timestamp %q", value)
}

// MarshalPayload encodes a payload in the wire shape the dashboard consumes.
// Decimal figures are emitted as JSON numbers.
func MarshalPayload(p Payload) ([]byte, error) {
	out := map[string]interface{}{
		"recentReadings":      encodeReadings(p.RecentReadings),
		"dailySummaries":      encodeSummaries(p.DailySummaries),
		"anomalies":           encodeAnomalies(p.Anomalies),
		"smartSuggestions":    p.SmartSuggestions,
		"consumptionByDevice": encodeDeviceTotals(p.ConsumptionByDevice),
	}
	return json.Marshal(out)
}

func encodeReadings(readings []Reading) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(readings))
	for _, r := range readings {
		entry := map[string]interface{}{
			"timestamp":        r.Timestamp.UTC().Format(time.RFC3339),
			"device_id":        r.DeviceID,
			"location":         r.Location,
			"consumption_kwh":  r.ConsumptionKWH.InexactFloat64(),
			"cost_usd":         r.CostUSD.InexactFloat64(),
			"status":           r.Status,
			"anomaly_detected": r.AnomalyDetected,
			"anomaly_message":  r.AnomalyMessage,
		}
		if r.OutsideTempF != nil {
			entry["simulated_outside_temp_f"] = *r.OutsideTempF
		}
		if r.Season != "" {
			entry["simulated_season"] = r.Season
		}
		out = append(out, entry)
	}
	return out
}

func encodeSummaries(summaries []DailySummary) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(summaries))
	for _, s := range summaries {
		out = append(out, map[string]interface{}{
			"date":                          s.Date,
			"total_consumption_kwh":         s.TotalConsumptionKWH.InexactFloat64(),
			"total_cost_usd":                s.TotalCostUSD.InexactFloat64(),
			"peak_device_daily":             s.PeakDevice,
			"peak_device_consumption_daily": s.PeakDeviceConsumption.InexactFloat64(),
		})
	}
	return out
}

func encodeAnomalies(anomalies []Anomaly) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(anomalies))
	for _, a := range anomalies {
		out = append(out, map[string]interface{}{
			"timestamp":        a.Timestamp.UTC().Format(time.RFC3339),
			"device_id":        a.DeviceID,
			"anomaly_message":  a.Message,
			"consumption_kwh":  a.ConsumptionKWH.InexactFloat64(),
			"anomaly_detected": true,
		})
	}
	return out
}

func encodeDeviceTotals(totals map[string]decimal.Decimal) map[string]float64 {
	out := make(map[string]float64, len(totals))
	for device, total := range totals {
		out[device] = total.InexactFloat64()
	}
	return out
}

func derefDecimal(d *decimal.Decimal) decimal.Decimal {
	if d == nil {
		return decimal.Zero
	}
	return *d
}
