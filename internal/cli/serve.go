package cli

import (
	"github.com/spf13/cobra"

	"home-energy-dashboard/internal/app"
)

var serveListenAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the development payload server with a simulated household",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().Serve(cmd.Context(), app.ServeOptions{ListenAddr: serveListenAddr})
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveListenAddr, "listen", "", "Listen address (default from config)")
}
