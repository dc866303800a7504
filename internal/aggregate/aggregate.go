package aggregate

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"home-energy-dashboard/internal/telemetry"
)

// bucketLayout truncates timestamps to whole minutes. Lexicographic order of
// the resulting labels equals chronological order.
const bucketLayout = "2006-01-02T15:04"

// DefaultTopN bounds the device ranking.
const DefaultTopN = 5

// ChartSeries is the presentation contract: parallel label/value slices ready
// for direct binding into a charting layer.
type ChartSeries struct {
	Labels []string
	Values []float64
}

// Len reports the number of points in the series.
func (s ChartSeries) Len() int {
	return len(s.Labels)
}

// ParseBucketLabel converts a series label back into its bucket start time.
func ParseBucketLabel(label string) (time.Time, error) {
	return time.ParseInLocation(bucketLayout, label, time.UTC)
}

// BucketByTime groups readings newer than now-window into per-minute buckets,
// summing consumption per bucket. Readings at or before the cutoff are
// discarded. Buckets are returned in ascending label order.
func BucketByTime(readings []telemetry.Reading, now time.Time, window time.Duration) ChartSeries {
	cutoff := now.Add(-window)

	sums := make(map[string]decimal.Decimal)
	for _, r := range readings {
		if !r.Timestamp.After(cutoff) {
			continue
		}
		key := r.Timestamp.UTC().Format(bucketLayout)
		sums[key] = sums[key].Add(r.ConsumptionKWH)
	}

	labels := make([]string, 0, len(sums))
	for key := range sums {
		labels = append(labels, key)
	}
	sort.Strings(labels)

	series := ChartSeries{Labels: labels, Values: make([]float64, 0, len(labels))}
	for _, label := range labels {
		series.Values = append(series.Values, sums[label].InexactFloat64())
	}
	return series
}

// TopDevices ranks devices by summed consumption inside the window, descending.
// Ties break on device id ascending so the ranking is deterministic. The
// result is truncated to topN entries; topN <= 0 falls back to DefaultTopN.
func TopDevices(readings []telemetry.Reading, now time.Time, window time.Duration, topN int) ChartSeries {
	if topN <= 0 {
		topN = DefaultTopN
	}

	totals := ConsumptionByDevice(readings, now, window)

	devices := make([]string, 0, len(totals))
	for device := range totals {
		devices = append(devices, device)
	}
	sort.Slice(devices, func(i, j int) bool {
		cmp := totals[devices[i]].Cmp(totals[devices[j]])
		if cmp != 0 {
			return cmp > 0
		}
		return devices[i] < devices[j]
	})

	if len(devices) > topN {
		devices = devices[:topN]
	}

	series := ChartSeries{
		Labels: make([]string, 0, len(devices)),
		Values: make([]float64, 0, len(devices)),
	}
	for _, device := range devices {
		series.Labels = append(series.Labels, device)
		series.Values = append(series.Values, totals[device].InexactFloat64())
	}
	return series
}

// ConsumptionByDevice sums consumption per device over the trailing window.
func ConsumptionByDevice(readings []telemetry.Reading, now time.Time, window time.Duration) map[string]decimal.Decimal {
	cutoff := now.Add(-window)

	totals := make(map[string]decimal.Decimal)
	for _, r := range readings {
		if !r.Timestamp.After(cutoff) {
			continue
		}
		totals[r.DeviceID] = totals[r.DeviceID].Add(r.ConsumptionKWH)
	}
	return totals
}

// DailySummaries rolls readings up into per-calendar-day totals with the
// day's peak device, ordered by date ascending.
func DailySummaries(readings []telemetry.Reading) []telemetry.DailySummary {
	type dayAgg struct {
		kwh     decimal.Decimal
		cost    decimal.Decimal
		devices map[string]decimal.Decimal
	}

	days := make(map[string]*dayAgg)
	for _, r := range readings {
		date := r.Timestamp.UTC().Format("2006-01-02")
		agg, ok := days[date]
		if !ok {
			agg = &dayAgg{devices: make(map[string]decimal.Decimal)}
			days[date] = agg
		}
		agg.kwh = agg.kwh.Add(r.ConsumptionKWH)
		agg.cost = agg.cost.Add(r.CostUSD)
		agg.devices[r.DeviceID] = agg.devices[r.DeviceID].Add(r.ConsumptionKWH)
	}

	dates := make([]string, 0, len(days))
	for date := range days {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	summaries := make([]telemetry.DailySummary, 0, len(dates))
	for _, date := range dates {
		agg := days[date]

		peakDevice := ""
		peak := decimal.Zero
		deviceIDs := make([]string, 0, len(agg.devices))
		for device := range agg.devices {
			deviceIDs = append(deviceIDs, device)
		}
		sort.Strings(deviceIDs)
		for _, device := range deviceIDs {
			if agg.devices[device].GreaterThan(peak) {
				peak = agg.devices[device]
				peakDevice = device
			}
		}

		summaries = append(summaries, telemetry.DailySummary{
			Date:                  date,
			TotalConsumptionKWH:   agg.kwh.Round(3),
			TotalCostUSD:          agg.cost.Round(3),
			PeakDevice:            peakDevice,
			PeakDeviceConsumption: peak.Round(3),
		})
	}
	return summaries
}
