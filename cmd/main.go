package main

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// configPath overrides the default configs/config.yml.
	configPath string

	rootCmd = &cobra.Command{
		Use:   "window",
		Short: "Motorized window controller.",
		Long: `Drives a window actuator through two GPIO relays, opens the window
automatically when it is warm and humid, and exposes an HTTP API for manual
open/close commands.

Without a subcommand the controller is served.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serveCmd.RunE(cmd, nil)
		},
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Run the scheduler, the sensor monitor and the HTTP API.",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := loadConfig(viper.New(), configPath)
			if err != nil {
				return err
			}
			return serve(cfg)
		},
	}

	forceCloseCmd = &cobra.Command{
		Use:   "force-close",
		Short: "Close the window, switch the motor off and exit.",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := loadConfig(viper.New(), configPath)
			if err != nil {
				return err
			}
			return forceClose(cfg)
		},
	}

	readSensorCmd = &cobra.Command{
		Use:   "read-sensor",
		Short: "Print one temperature/humidity reading.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(viper.New(), configPath)
			if err != nil {
				return err
			}
			return readSensor(cmd.Context(), cfg, cmd.OutOrStdout())
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to configuration file (default configs/config.yml)")
	rootCmd.AddCommand(serveCmd, forceCloseCmd, readSensorCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
