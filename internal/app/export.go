package app

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	chart "github.com/wcharczuk/go-chart/v2"

	"home-energy-dashboard/internal/aggregate"
	"home-energy-dashboard/internal/telemetry"
)

// Export fetches one payload and renders the live window as CSV and/or PNG
// charts (minute-bucket consumption trend, top-device ranking).
func (a *App) Export(ctx context.Context, opts ExportOptions) error {
	if opts.CSVPath == "" && opts.TrendPNGPath == "" && opts.RankingPNGPath == "" {
		return errors.New("at least one of --csv, --trend-png, or --ranking-png must be provided")
	}

	windowHours := opts.WindowHours
	if windowHours <= 0 {
		windowHours = a.Config.Display.WindowHours
	}
	opts.MaxPoints = a.Config.ResolveMaxPoints(opts.MaxPoints)

	payload, err := a.newFetcher().FetchPayload(ctx)
	if err != nil {
		return err
	}
	if len(payload.RecentReadings) == 0 {
		a.Logger.Info().Msg("no readings available for export")
		return nil
	}

	now := time.Now().UTC()
	window := time.Duration(windowHours) * time.Hour

	if opts.CSVPath != "" {
		readings := downsampleReadings(payload.RecentReadings, opts.MaxPoints)
		a.Logger.Info().Int("total", len(payload.RecentReadings)).Int("exported", len(readings)).Msg("exporting readings")
		if err := writeReadingsCSV(opts.CSVPath, readings); err != nil {
			return err
		}
	}

	if opts.TrendPNGPath != "" {
		series := aggregate.BucketByTime(payload.RecentReadings, now, window)
		if err := writeTrendPNG(opts.TrendPNGPath, series); err != nil {
			return err
		}
	}

	if opts.RankingPNGPath != "" {
		ranking := aggregate.TopDevices(payload.RecentReadings, now, window, a.Config.Display.TopDevices)
		if err := writeRankingPNG(opts.RankingPNGPath, ranking); err != nil {
			return err
		}
	}

	return nil
}

func downsampleReadings(readings []telemetry.Reading, max int) []telemetry.Reading {
	if max <= 0 || len(readings) <= max {
		return readings
	}

	result := make([]telemetry.Reading, 0, max)
	step := float64(len(readings)-1) / float64(max-1)
	for i := 0; i < max; i++ {
		idx := int(math.Round(step * float64(i)))
		if idx >= len(readings) {
			idx = len(readings) - 1
		}
		result = append(result, readings[idx])
	}
	return result
}

func writeReadingsCSV(path string, readings []telemetry.Reading) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{"timestamp", "device_id", "location", "consumption_kwh", "cost_usd", "status", "anomaly_detected", "anomaly_message"}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, r := range readings {
		record := []string{
			r.Timestamp.UTC().Format(time.RFC3339),
			r.DeviceID,
			r.Location,
			r.ConsumptionKWH.String(),
			r.CostUSD.String(),
			r.Status,
			fmt.Sprintf("%t", r.AnomalyDetected),
			sanitizeInline(r.AnomalyMessage),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	return writer.Error()
}

func writeTrendPNG(path string, series aggregate.ChartSeries) error {
	if series.Len() < 2 {
		return errors.New("not enough buckets in window to render a trend chart")
	}
	if err := ensureDir(path); err != nil {
		return err
	}

	x := make([]time.Time, 0, series.Len())
	for _, label := range series.Labels {
		bucket, err := aggregate.ParseBucketLabel(label)
		if err != nil {
			return fmt.Errorf("parse bucket label: %w", err)
		}
		x = append(x, bucket)
	}

	kwhFormatter := func(v interface{}) string {
		return chart.FloatValueFormatterWithFormat(v, "%.3f")
	}
	graph := chart.Chart{
		Width:  1280,
		Height: 720,
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeMinuteValueFormatter,
		},
		YAxis: chart.YAxis{
			Name:           "Consumption (kWh)",
			ValueFormatter: kwhFormatter,
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    "Consumption",
				XValues: x,
				YValues: series.Values,
			},
		},
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return graph.Render(chart.PNG, file)
}

func writeRankingPNG(path string, ranking aggregate.ChartSeries) error {
	if ranking.Len() == 0 {
		return errors.New("no devices in window to render a ranking chart")
	}
	if err := ensureDir(path); err != nil {
		return err
	}

	bars := make([]chart.Value, 0, ranking.Len())
	for i, label := range ranking.Labels {
		bars = append(bars, chart.Value{Label: label, Value: ranking.Values[i]})
	}

	graph := chart.BarChart{
		Title:    "Top devices by consumption (kWh)",
		Width:    1280,
		Height:   720,
		BarWidth: 80,
		Bars:     bars,
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return graph.Render(chart.PNG, file)
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
