package simulator

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"home-energy-dashboard/internal/telemetry"
)

var (
	hvacMildHigh      = decimal.NewFromFloat(2.5)
	lightsMalfunction = decimal.NewFromFloat(0.005)
	offDrawThreshold  = decimal.NewFromFloat(0.1)
	heaterNightHigh   = decimal.NewFromFloat(1.5)
)

// Detector applies the rule-based anomaly checks and cost accounting the
// ingestion pipeline performs before a reading reaches the dashboard.
type Detector struct {
	costPerKWH decimal.Decimal
}

// NewDetector constructs a detector charging the given $/kWh rate.
func NewDetector(costPerKWH decimal.Decimal) *Detector {
	if costPerKWH.IsZero() {
		costPerKWH = decimal.NewFromFloat(0.12)
	}
	return &Detector{costPerKWH: costPerKWH}
}

// Enrich returns the reading with cost filled in and anomaly fields set
// according to the detection rules.
func (d *Detector) Enrich(r telemetry.Reading) telemetry.Reading {
	r.CostUSD = r.ConsumptionKWH.Mul(d.costPerKWH)
	r.AnomalyDetected, r.AnomalyMessage = d.Check(r)
	return r
}

// Check evaluates the detection rules against a single reading.
func (d *Detector) Check(r telemetry.Reading) (bool, string) {
	kwh := r.ConsumptionKWH
	hour := r.Timestamp.UTC().Hour()

	switch {
	case r.Status == "ANOMALY_SPIKE":
		return true, fmt.Sprintf("Injected anomaly: Device %s had an unusual spike in consumption.", r.DeviceID)

	case r.DeviceID == "HVAC_001" && kwh.GreaterThan(hvacMildHigh) && isMildWeather(r.OutsideTempF):
		return true, "HVAC running high during mild weather."

	case strings.Contains(r.DeviceID, "Lights") && r.Status == "ON" && kwh.LessThan(lightsMalfunction):
		return true, "Very low light consumption while status is ON (possible malfunction)."

	case kwh.GreaterThan(offDrawThreshold) && r.Status == "OFF":
		return true, fmt.Sprintf("Device %s consuming energy while reporting OFF.", r.DeviceID)

	case r.DeviceID == "WaterHeater_Basement" && kwh.GreaterThan(heaterNightHigh) && hour >= 0 && hour < 5:
		return true, "Water heater high consumption in early morning hours."
	}

	return false, ""
}

func isMildWeather(tempF *float64) bool {
	return tempF != nil && *tempF >= 55 && *tempF <= 75
}
