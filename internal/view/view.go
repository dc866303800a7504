package view

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"home-energy-dashboard/internal/telemetry"
)

// Mode selects how the reading list is filtered or sorted.
type Mode string

const (
	ModeByDate        Mode = "date"
	ModeByConsumption Mode = "consumption"
	ModeByAnomaly     Mode = "anomaly"
)

// Tier is a consumption-magnitude band used as a secondary filter.
type Tier string

const (
	TierNone   Tier = "none"
	TierHigh   Tier = "high"
	TierMedium Tier = "medium"
	TierLow    Tier = "low"
)

var (
	tierHighFloor   = decimal.NewFromFloat(5.0)
	tierMediumFloor = decimal.NewFromFloat(2.0)

	// AllowedWindowHours are the selectable trailing-window sizes.
	AllowedWindowHours = []int{1, 3, 6, 12, 24}
)

// State holds the user's current view selections. The hosting application
// owns a single instance and replaces it wholesale on each interaction; each
// replacement triggers a fresh Derive call. The tier filter is deliberately
// not reset when the mode changes.
type State struct {
	Mode        Mode
	Tier        Tier
	WindowHours int
}

// DefaultState returns the initial view selections.
func DefaultState() State {
	return State{Mode: ModeByDate, Tier: TierNone, WindowHours: 1}
}

// ParseMode resolves a mode name from user input.
func ParseMode(value string) (Mode, error) {
	switch Mode(value) {
	case ModeByDate, ModeByConsumption, ModeByAnomaly:
		return Mode(value), nil
	}
	return "", fmt.Errorf("unknown view mode %q (want date, consumption, or anomaly)", value)
}

// ParseTier resolves a tier name from user input.
func ParseTier(value string) (Tier, error) {
	switch Tier(value) {
	case TierNone, TierHigh, TierMedium, TierLow:
		return Tier(value), nil
	}
	return "", fmt.Errorf("unknown consumption tier %q (want none, high, medium, or low)", value)
}

// ParseWindowHours validates a trailing-window selection.
func ParseWindowHours(hours int) (int, error) {
	for _, allowed := range AllowedWindowHours {
		if hours == allowed {
			return hours, nil
		}
	}
	return 0, fmt.Errorf("window must be one of %v hours, got %d", AllowedWindowHours, hours)
}

// Derive applies the current selections to the raw reading list and returns a
// fresh slice; the input is never mutated. Anomaly mode filters without
// re-sorting, consumption mode sorts by consumption descending, date mode
// sorts by timestamp descending. The tier filter then runs over the processed
// list whenever a tier is selected, regardless of mode.
func Derive(readings []telemetry.Reading, state State) []telemetry.Reading {
	out := make([]telemetry.Reading, 0, len(readings))

	switch state.Mode {
	case ModeByAnomaly:
		for _, r := range readings {
			if r.AnomalyDetected {
				out = append(out, r)
			}
		}
	case ModeByConsumption:
		out = append(out, readings...)
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].ConsumptionKWH.GreaterThan(out[j].ConsumptionKWH)
		})
	default:
		out = append(out, readings...)
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].Timestamp.After(out[j].Timestamp)
		})
	}

	if state.Tier == TierNone || state.Tier == "" {
		return out
	}

	filtered := out[:0:0]
	for _, r := range out {
		if matchesTier(r.ConsumptionKWH, state.Tier) {
			filtered = append(filtered, r)
		}
	}
	return filtered
}

func matchesTier(kwh decimal.Decimal, tier Tier) bool {
	switch tier {
	case TierHigh:
		return kwh.GreaterThan(tierHighFloor)
	case TierMedium:
		return kwh.GreaterThanOrEqual(tierMediumFloor) && kwh.LessThanOrEqual(tierHighFloor)
	case TierLow:
		return kwh.LessThan(tierMediumFloor)
	}
	return true
}
