package cli

import (
	"github.com/spf13/cobra"

	"home-energy-dashboard/internal/app"
)

var (
	exportCSVPath     string
	exportTrendPNG    string
	exportRankingPNG  string
	exportWindowHours int
	exportMaxPoints   int
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the live payload window as CSV and/or PNG charts",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := app.ExportOptions{
			CSVPath:        exportCSVPath,
			TrendPNGPath:   exportTrendPNG,
			RankingPNGPath: exportRankingPNG,
			WindowHours:    exportWindowHours,
			MaxPoints:      exportMaxPoints,
		}

		return getApp().Export(cmd.Context(), opts)
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportCSVPath, "csv", "", "Write recent readings to this CSV file")
	exportCmd.Flags().StringVar(&exportTrendPNG, "trend-png", "", "Write the minute-bucket consumption chart to this PNG file")
	exportCmd.Flags().StringVar(&exportRankingPNG, "ranking-png", "", "Write the top-device bar chart to this PNG file")
	exportCmd.Flags().IntVar(&exportWindowHours, "window", 0, "Trailing window in hours (1, 3, 6, 12, or 24)")
	exportCmd.Flags().IntVar(&exportMaxPoints, "max-points", 0, "Maximum rows to export (default from config)")
}
