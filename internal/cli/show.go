package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"home-energy-dashboard/internal/app"
)

var (
	showMode   string
	showTier   string
	showWindow int
	showLimit  int
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Display the current filtered reading table and summary cards",
	RunE: func(cmd *cobra.Command, args []string) error {
		if showLimit <= 0 {
			return fmt.Errorf("--limit must be greater than zero")
		}

		opts := app.ShowOptions{
			Mode:        showMode,
			Tier:        showTier,
			WindowHours: showWindow,
			Limit:       showLimit,
		}

		return getApp().Show(cmd.Context(), opts)
	},
}

func init() {
	showCmd.Flags().StringVar(&showMode, "view", "", "View mode: date, consumption, or anomaly")
	showCmd.Flags().StringVar(&showTier, "tier", "", "Consumption tier filter: none, high, medium, or low")
	showCmd.Flags().IntVar(&showWindow, "window", 0, "Trailing window in hours (1, 3, 6, 12, or 24)")
	showCmd.Flags().IntVar(&showLimit, "limit", 20, "Number of readings to display")
}
