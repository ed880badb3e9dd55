// Package root implements the command line interface for the setup server.
package root

import (
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/sendwell/cloud-setup/cmd/output"
	"github.com/sendwell/cloud-setup/cmd/runs"
	"github.com/sendwell/cloud-setup/cmd/server"
	"github.com/sendwell/cloud-setup/cmd/steps"
	"github.com/sendwell/cloud-setup/cmd/version"
	"github.com/sendwell/cloud-setup/config"
	"github.com/sendwell/cloud-setup/logging"
)

func Execute() {
	if err := NewCmdRoot().Execute(); err != nil {
		os.Exit(1)
	}
}

func NewCmdRoot() *cobra.Command {
	var configFile string

	cmd := &cobra.Command{
		Use:   "sendwell-setup",
		Short: "Provisioning server for Sendwell cloud installations",
		Long: `sendwell-setup provisions a complete Sendwell installation: it links the
source repository to the deployment platform, creates and migrates the
database, verifies the queue and cache services, and triggers the first
deployment.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cfg, err := config.NewConfig(configFile)
			if err != nil {
				log.Fatalf("Failed to initialize configuration: %s", err)
			}

			// Initialize colors (CLI flag overrides config)
			colorDisabled := !cfg.ColorEnabled
			if output.NoColor.IsSet() {
				colorDisabled = true
			}
			output.InitColors(colorDisabled)

			// Initialize logging (CLI flag overrides config)
			logLevel := cfg.LogLevel
			if logging.LogLevel.IsSet() {
				logLevel = logging.LogLevel.String()
			}
			logging.InitLogging(logLevel)

			server.SetConfig(cfg)
			runs.SetConfig(cfg)
		},
	}

	cmd.PersistentFlags().StringVarP(&configFile, "config", "f", "", "Path to configuration file")
	cmd.PersistentFlags().VarP(logging.LogLevel, "log-level", "l", "Set log verbosity level")
	cmd.PersistentFlags().VarP(output.NoColor, "no-color", "c", "Disable colored terminal output")

	cmd.AddCommand(server.NewCmdServer())
	cmd.AddCommand(steps.NewCmdSteps())
	cmd.AddCommand(runs.NewCmdRuns())
	cmd.AddCommand(version.NewCmdVersion())
	return cmd
}
