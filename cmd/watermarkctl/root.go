package main

import (
	"strings"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "watermarkctl",
	Short: "Watermark images from the command line",
	Long: strings.TrimSpace(`
Apply the watermarker overlays to local files without running the service,
and manage the overlay assets served from object storage.
    `),
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().String("config", "./config/config.yml", "path to the service config file")
}
