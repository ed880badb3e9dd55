// Package version provides the version command.
package version

import (
	"github.com/spf13/cobra"

	"github.com/sendwell/cloud-setup/app"
)

// NewCmdVersion creates the version command
func NewCmdVersion() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.Println(app.Version)
			return nil
		},
	}
}
