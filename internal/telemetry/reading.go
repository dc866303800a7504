package telemetry

import (
	"time"

	"github.com/shopspring/decimal"
)

// Reading represents one telemetry sample reported by a device.
type Reading struct {
	DeviceID        string
	Location        string
	Timestamp       time.Time
	ConsumptionKWH  decimal.Decimal
	CostUSD         decimal.Decimal
	Status          string
	AnomalyDetected bool
	AnomalyMessage  string
	OutsideTempF    *float64
	Season          string
}

// DailySummary carries pre-aggregated per-day totals.
type DailySummary struct {
	Date                  string
	TotalConsumptionKWH   decimal.Decimal
	TotalCostUSD          decimal.Decimal
	PeakDevice            string
	PeakDeviceConsumption decimal.Decimal
}

// Anomaly is a flagged irregular reading with a human-readable message.
type Anomaly struct {
	Timestamp      time.Time
	DeviceID       string
	Message        string
	ConsumptionKWH decimal.Decimal
}

// Payload is a full dashboard refresh. Each poll fully replaces the previous
// one; there is no incremental merge.
type Payload struct {
	RecentReadings      []Reading
	DailySummaries      []DailySummary
	Anomalies           []Anomaly
	SmartSuggestions    []string
	ConsumptionByDevice map[string]decimal.Decimal
}

// Empty reports whether the payload carries no data at all.
func (p Payload) Empty() bool {
	return len(p.RecentReadings) == 0 &&
		len(p.DailySummaries) == 0 &&
		len(p.Anomalies) == 0 &&
		len(p.ConsumptionByDevice) == 0
}
