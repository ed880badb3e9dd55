// Package steps implements the command that prints the setup step table.
package steps

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sendwell/cloud-setup/cmd/output"
	"github.com/sendwell/cloud-setup/domain"
)

// NewCmdSteps creates the steps command
func NewCmdSteps() *cobra.Command {
	return &cobra.Command{
		Use:   "steps",
		Short: "List the setup pipeline steps",
		Long:  "Prints every step of the provisioning pipeline in execution order, with its progress weight and the wizard screen a failure returns to.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSteps(cmd)
		},
	}
}

func runSteps(cmd *cobra.Command) error {
	table, err := output.PrintStepTable(domain.Steps)
	if err != nil {
		return fmt.Errorf("failed to render step table: %w", err)
	}
	cmd.Print(table)
	cmd.Print(output.PrintMessage(output.Plain, "Total weight: %d", domain.TotalStepWeight()))
	return nil
}
