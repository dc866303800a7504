package app

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"

	"home-energy-dashboard/internal/aggregate"
	"home-energy-dashboard/internal/telemetry"
	"home-energy-dashboard/internal/view"
)

// Show fetches one payload and prints the filtered reading table plus the
// summary cards and suggestions.
func (a *App) Show(ctx context.Context, opts ShowOptions) error {
	state, err := a.viewState(opts.Mode, opts.Tier, opts.WindowHours)
	if err != nil {
		return err
	}

	payload, err := a.newFetcher().FetchPayload(ctx)
	if err != nil {
		return err
	}
	if payload.Empty() {
		fmt.Fprintln(os.Stdout, "no data yet")
		return nil
	}

	filtered := view.Derive(payload.RecentReadings, state)
	limit := opts.Limit
	if limit <= 0 {
		limit = a.Config.Display.MaxRows
	}
	if len(filtered) > limit {
		filtered = filtered[:limit]
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Time (UTC)\tDevice\tLocation\tkWh\tCost ($)\tStatus\tAnomaly")
	for _, r := range filtered {
		anomaly := ""
		if r.AnomalyDetected {
			anomaly = sanitizeInline(r.AnomalyMessage)
		}
		fmt.Fprintf(
			writer,
			"%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.Timestamp.UTC().Format(time.RFC3339),
			r.DeviceID,
			r.Location,
			formatDecimal(r.ConsumptionKWH, 3),
			formatDecimal(r.CostUSD, 3),
			r.Status,
			anomaly,
		)
	}
	writer.Flush()

	now := time.Now().UTC()
	window := time.Duration(state.WindowHours) * time.Hour
	ranking := aggregate.TopDevices(payload.RecentReadings, now, window, a.Config.Display.TopDevices)

	fmt.Fprintln(os.Stdout)
	printSummaryCards(payload, ranking, now)

	if len(payload.SmartSuggestions) > 0 {
		fmt.Fprintln(os.Stdout, "\nSuggestions:")
		for _, suggestion := range payload.SmartSuggestions {
			fmt.Fprintf(os.Stdout, "  - %s\n", suggestion)
		}
	}
	return nil
}

func printSummaryCards(payload telemetry.Payload, ranking aggregate.ChartSeries, now time.Time) {
	today := now.Format("2006-01-02")
	todayKWH := decimal.Zero
	todayCost := decimal.Zero
	for _, summary := range payload.DailySummaries {
		if summary.Date == today {
			todayKWH = summary.TotalConsumptionKWH
			todayCost = summary.TotalCostUSD
			break
		}
	}

	topDevice := "-"
	if ranking.Len() > 0 {
		topDevice = fmt.Sprintf("%s (%.3f kWh)", ranking.Labels[0], ranking.Values[0])
	}

	fmt.Fprintf(os.Stdout, "Today: %s kWh / $%s\tTop device: %s\tAnomalies (24h): %d\n",
		formatDecimal(todayKWH, 3),
		formatDecimal(todayCost, 2),
		topDevice,
		len(payload.Anomalies),
	)
}

func sanitizeInline(v string) string {
	cleaned := strings.ReplaceAll(v, "\n", " ")
	cleaned = strings.ReplaceAll(cleaned, "\r", " ")
	return cleaned
}

func formatDecimal(d decimal.Decimal, places int32) string {
	return d.StringFixed(places)
}
