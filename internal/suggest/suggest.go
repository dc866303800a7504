package suggest

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"home-energy-dashboard/internal/telemetry"
)

// Category classifies a consumption value into an advisory band.
type Category string

const (
	HighUsage     Category = "high_usage"
	ModerateUsage Category = "moderate_usage"
	LowUsage      Category = "low_usage"
)

var (
	highFloor     = decimal.NewFromInt(5)
	moderateFloor = decimal.NewFromInt(2)

	nightLightsThreshold = decimal.NewFromInt(1)
	heavyDayThreshold    = decimal.NewFromFloat(15.0)
)

// Classify maps a consumption value to its advisory category. It is total:
// anything below the moderate floor, including negative input, is LowUsage.
func Classify(kwh decimal.Decimal) Category {
	switch {
	case kwh.GreaterThan(highFloor):
		return HighUsage
	case kwh.GreaterThanOrEqual(moderateFloor):
		return ModerateUsage
	default:
		return LowUsage
	}
}

// Advice returns the fixed advisory string for a category.
func (c Category) Advice() string {
	switch c {
	case HighUsage:
		return "This device is a heavy consumer right now. Check whether it needs to be running."
	case ModerateUsage:
		return "Moderate consumption. Worth a look if it stays at this level."
	default:
		return "Low consumption. Nothing to do here."
	}
}

// Suggestions derives dashboard-level advisory messages from the recent
// reading window and the daily summaries. The heuristics look for late-night
// lighting, idle entertainment devices, HVAC waste in mild weather, and a
// refrigerator dominating a heavy day. A non-empty result is guaranteed.
func Suggestions(readings []telemetry.Reading, summaries []telemetry.DailySummary, now time.Time) []string {
	var out []string

	nightLights := decimal.Zero
	tvLateNight := false
	for _, r := range readings {
		hour := r.Timestamp.UTC().Hour()
		if hour >= 23 || hour < 6 {
			if strings.Contains(r.DeviceID, "Lights") {
				nightLights = nightLights.Add(r.ConsumptionKWH)
			} else if r.DeviceID == "TV_LivingRoom" && r.Status == "ON" {
				tvLateNight = true
			}
		}
	}
	if tvLateNight {
		out = append(out, "Consider turning off the living room TV late at night.")
	}
	if nightLights.GreaterThan(nightLightsThreshold) {
		out = append(out, "High light consumption detected during night hours. Remember to turn off unused lights!")
	}

	for _, r := range readings {
		if r.DeviceID == "HVAC_001" && r.AnomalyDetected && strings.Contains(r.AnomalyMessage, "mild weather") {
			out = append(out, "HVAC is consuming more than expected during mild weather. Check insulation or consider smart thermostat settings.")
			break
		}
	}

	today := now.UTC().Format("2006-01-02")
	for _, summary := range summaries {
		if summary.Date != today {
			continue
		}
		if summary.TotalConsumptionKWH.GreaterThan(heavyDayThreshold) && strings.Contains(summary.PeakDevice, "Fridge") {
			out = append(out, "Your refrigerator seems to be a consistent high consumer. Check its seals and temperature settings.")
			break
		}
	}

	if len(out) == 0 {
		out = append(out,
			"No immediate issues detected. Keep monitoring your energy use!",
			"Unplug electronics when not in use to reduce 'vampire' energy draw.",
		)
	}
	return out
}
