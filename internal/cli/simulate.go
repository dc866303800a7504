package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"home-energy-dashboard/internal/app"
)

var (
	simulateDevice  string
	simulateKWH     float64
	simulateMessage string
)

var simulateCmd = &cobra.Command{
	Use:   "simulate-alert",
	Short: "模拟一条异常读数并触发告警",
	RunE: func(cmd *cobra.Command, args []string) error {
		if simulateDevice == "" {
			return errors.New("--device 必须提供")
		}
		if simulateKWH <= 0 {
			return errors.New("--kwh 必须大于 0")
		}

		opts := app.SimulateOptions{
			DeviceID:       simulateDevice,
			ConsumptionKWH: simulateKWH,
			Message:        simulateMessage,
		}
		return getApp().SimulateAlert(cmd.Context(), opts)
	},
}

func init() {
	simulateCmd.Flags().StringVar(&simulateDevice, "device", "", "异常设备 ID")
	simulateCmd.Flags().Float64Var(&simulateKWH, "kwh", 0, "异常消耗 (kWh)")
	simulateCmd.Flags().StringVar(&simulateMessage, "message", "", "自定义告警文案")
}
