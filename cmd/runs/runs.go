// Package runs implements the command that lists recorded setup runs.
package runs

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sendwell/cloud-setup/app"
	"github.com/sendwell/cloud-setup/cmd/output"
	"github.com/sendwell/cloud-setup/config"
)

var cfg *config.Config

// SetConfig injects the configuration resolved by the root command.
func SetConfig(c *config.Config) {
	cfg = c
}

// NewCmdRuns creates the runs command
func NewCmdRuns() *cobra.Command {
	return &cobra.Command{
		Use:   "runs",
		Short: "List recorded setup runs",
		Long:  "Prints the audit log of past setup runs, most recent first.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRuns(cmd)
		},
	}
}

func runRuns(cmd *cobra.Command) error {
	if err := app.InitializeWithConfig(cfg); err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	runs, err := app.GetRunRepository().List()
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	table, err := output.PrintRunList(runs)
	if err != nil {
		return fmt.Errorf("failed to render run list: %w", err)
	}
	cmd.Print(table)
	return nil
}
