package simulator

import (
	"math/rand"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"home-energy-dashboard/internal/telemetry"
)

// Device identifies one simulated appliance.
type Device struct {
	ID       string
	Location string
}

// DefaultDevices is the household fixture set.
var DefaultDevices = []Device{
	{ID: "HVAC_001", Location: "MainHouse"},
	{ID: "Lights_LivingRoom", Location: "LivingRoom"},
	{ID: "Lights_Kitchen", Location: "Kitchen"},
	{ID: "Fridge_Main", Location: "Kitchen"},
	{ID: "WaterHeater_Basement", Location: "Basement"},
	{ID: "TV_LivingRoom", Location: "LivingRoom"},
	{ID: "Computer_Office", Location: "Office"},
	{ID: "Dishwasher_Kitchen", Location: "Kitchen"},
}

// Options parameterise the reading generator.
type Options struct {
	Devices            []Device
	CostPerKWH         decimal.Decimal
	AnomalyProbability float64
	Seed               int64
}

// Generator produces simulated device readings with seasonal behaviour and
// occasional injected anomaly spikes.
type Generator struct {
	opts     Options
	rng      *rand.Rand
	detector *Detector
	logger   zerolog.Logger
}

// NewGenerator constructs a reading generator.
func NewGenerator(opts Options, logger zerolog.Logger) *Generator {
	if len(opts.Devices) == 0 {
		opts.Devices = DefaultDevices
	}
	if opts.CostPerKWH.IsZero() {
		opts.CostPerKWH = decimal.NewFromFloat(0.12)
	}
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	return &Generator{
		opts:     opts,
		rng:      rand.New(rand.NewSource(seed)),
		detector: NewDetector(opts.CostPerKWH),
		logger:   logger.With().Str("component", "simulator").Logger(),
	}
}

// GenerateAt emits one reading per device for the given instant, already run
// through anomaly detection and cost accounting.
func (g *Generator) GenerateAt(now time.Time) []telemetry.Reading {
	now = now.UTC()
	season := seasonFor(now.Month())
	outsideTemp := g.outsideTempFor(season)

	readings := make([]telemetry.Reading, 0, len(g.opts.Devices))
	for _, device := range g.opts.Devices {
		kwh, status := g.profile(device.ID, now.Hour(), outsideTemp)

		if g.rng.Float64() < g.opts.AnomalyProbability {
			kwh = roundTo(g.uniform(5.0, 15.0), 2)
			status = "ANOMALY_SPIKE"
			g.logger.Debug().Str("device", device.ID).Float64("kwh", kwh).Msg("anomaly injected")
		}

		temp := outsideTemp
		reading := telemetry.Reading{
			DeviceID:       device.ID,
			Location:       device.Location,
			Timestamp:      now,
			ConsumptionKWH: decimal.NewFromFloat(kwh),
			Status:         status,
			OutsideTempF:   &temp,
			Season:         season,
		}
		readings = append(readings, g.detector.Enrich(reading))

		now = now.Add(time.Duration(g.uniform(100, 500)) * time.Millisecond)
	}
	return readings
}

// profile returns consumption and status for one device class at one hour.
func (g *Generator) profile(deviceID string, hour int, outsideTemp float64) (float64, string) {
	switch {
	case strings.Contains(deviceID, "HVAC"):
		switch {
		case outsideTemp > 85:
			return roundTo(g.uniform(1.5, 5.0), 2), "COOLING"
		case outsideTemp < 40:
			return roundTo(g.uniform(1.5, 5.0), 2), "HEATING"
		default:
			kwh := roundTo(g.uniform(0.1, 1.0), 2)
			if kwh > 0.1 {
				return kwh, "FAN_ONLY"
			}
			return kwh, "OFF"
		}

	case strings.Contains(deviceID, "Lights"):
		switch {
		case hour >= 18 && hour < 23:
			return roundTo(g.uniform(0.1, 0.5), 2), "ON"
		case hour >= 23 || hour < 6:
			kwh := roundTo(g.uniform(0.01, 0.1), 2)
			if kwh > 0.01 {
				return kwh, "DIM"
			}
			return kwh, "OFF"
		default:
			return roundTo(g.uniform(0.001, 0.005), 3), "OFF"
		}

	case strings.Contains(deviceID, "Fridge"):
		return roundTo(g.uniform(0.05, 0.2), 2), "ON"

	case strings.Contains(deviceID, "WaterHeater"):
		morning := hour >= 6 && hour <= 9 && g.rng.Float64() < 0.6
		evening := hour >= 18 && hour <= 21 && g.rng.Float64() < 0.4
		if morning || evening {
			return roundTo(g.uniform(0.8, 3.0), 2), "HEATING"
		}
		return roundTo(g.uniform(0.02, 0.1), 2), "STANDBY"

	default:
		if g.rng.Float64() < 0.4 {
			return roundTo(g.uniform(0.05, 1.5), 2), "ACTIVE"
		}
		return roundTo(g.uniform(0.001, 0.01), 3), "OFF"
	}
}

func (g *Generator) outsideTempFor(season string) float64 {
	var temp float64
	switch season {
	case "Summer":
		temp = g.uniform(75, 105)
	case "Winter":
		temp = g.uniform(20, 50)
	case "Spring", "Fall":
		temp = g.uniform(50, 80)
	}
	return roundTo(temp, 1)
}

func (g *Generator) uniform(lo, hi float64) float64 {
	return lo + g.rng.Float64()*(hi-lo)
}

func seasonFor(month time.Month) string {
	switch month {
	case time.December, time.January, time.February:
		return "Winter"
	case time.March, time.April, time.May:
		return "Spring"
	case time.June, time.July, time.August:
		return "Summer"
	default:
		return "Fall"
	}
}

func roundTo(v float64, places int32) float64 {
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}
