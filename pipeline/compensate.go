package pipeline

import (
	"context"
	"log/slog"
)

// setupModeKey is the environment variable the deployed product reads to
// decide whether its setup wizard is reachable. The deployment-trigger step
// flips it to "false"; the compensator writes the prior value back when the
// trigger fails, so the wizard stays usable for a retry.
const setupModeKey = "SETUP_ENABLED"

// compensator reverts the setup-mode flag after a failed deployment trigger.
// It is best-effort: its own failure is logged and never masks the original
// trigger error.
type compensator struct {
	deploy     DeployPlatform
	projectID  string
	priorValue string
}

func (c *compensator) revert(ctx context.Context) {
	err := c.deploy.UpsertEnv(ctx, c.projectID, []EnvVar{
		{Key: setupModeKey, Value: c.priorValue},
	})
	if err != nil {
		slog.Warn("Failed to revert setup-mode flag after deployment failure",
			"layer", "pipeline",
			"operation", "compensate_deployment_trigger",
			"project_id", c.projectID,
			"error", err)
		return
	}
	slog.Info("Reverted setup-mode flag after deployment failure",
		"layer", "pipeline",
		"operation", "compensate_deployment_trigger",
		"project_id", c.projectID,
		"value", c.priorValue)
}
