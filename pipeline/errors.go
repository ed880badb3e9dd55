package pipeline

import (
	"fmt"

	"github.com/sendwell/cloud-setup/domain"
)

// StepError attributes a pipeline failure to the step that was executing. It
// carries the human-facing message, the technical detail, and the wizard
// screen responsible for the failing input.
type StepError struct {
	Step    domain.Step
	Message string
	Err     error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s: %v", e.Step.ID, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// userMessages maps step ids to the message shown to the operator. The
// technical detail travels separately.
var userMessages = map[string]string{
	domain.StepRepositoryCheck:      "Could not access the GitHub repository. Check the repository name and token.",
	domain.StepPlatformAuthCheck:    "Vercel rejected the token. Check that it is valid and not expired.",
	domain.StepProjectLink:          "Could not create or link the Vercel project.",
	domain.StepDatabaseAuthCheck:    "Supabase rejected the access token.",
	domain.StepDatabaseCreate:       "Could not create the Supabase database project.",
	domain.StepDatabaseReadyWait:    "The database project did not come online.",
	domain.StepCredentialResolution: "Could not resolve the database credentials.",
	domain.StepQueueAuthCheck:       "QStash rejected the token.",
	domain.StepCacheAuthCheck:       "Could not reach the Upstash Redis endpoint with these credentials.",
	domain.StepEnvironmentUpsert:    "Could not write the environment variables to Vercel.",
	domain.StepSecretMirroring:      "Could not mirror secrets to the GitHub repository.",
	domain.StepSchemaMigration:      "Database migration failed.",
	domain.StepAdminBootstrap:       "Could not create the admin account.",
	domain.StepDeploymentTrigger:    "Could not start the Vercel deployment.",
	domain.StepDeploymentReadyWait:  "The deployment did not become ready.",
}

// newStepError wraps err with the given step's attribution.
func newStepError(step domain.Step, err error) *StepError {
	msg, ok := userMessages[step.ID]
	if !ok {
		msg = fmt.Sprintf("%s failed.", step.Title)
	}
	return &StepError{Step: step, Message: msg, Err: err}
}
