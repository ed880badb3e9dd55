package domain

// Screen identifies the wizard screen responsible for a step's input. Many
// steps map to one screen; a failing run reports the screen so the wizard can
// re-present exactly the form that caused the failure.
type Screen string

const (
	ScreenGitHub   Screen = "github"
	ScreenVercel   Screen = "vercel"
	ScreenSupabase Screen = "supabase"
	ScreenQStash   Screen = "qstash"
	ScreenUpstash  Screen = "upstash"
	ScreenAdmin    Screen = "admin"
)

// Step is a static descriptor of one pipeline stage. The table below is fixed
// at build time and never mutated.
type Step struct {
	ID           string
	Title        string
	Subtitle     string
	Weight       int
	ReturnToStep Screen
}

// Step ids, in pipeline order.
const (
	StepRepositoryCheck      = "repository-check"
	StepPlatformAuthCheck    = "platform-auth-check"
	StepProjectLink          = "project-link"
	StepDatabaseAuthCheck    = "database-auth-check"
	StepDatabaseCreate       = "database-create"
	StepDatabaseReadyWait    = "database-ready-wait"
	StepCredentialResolution = "credential-resolution"
	StepQueueAuthCheck       = "queue-auth-check"
	StepCacheAuthCheck       = "cache-auth-check"
	StepEnvironmentUpsert    = "environment-upsert"
	StepSecretMirroring      = "secret-mirroring"
	StepSchemaMigration      = "schema-migration"
	StepAdminBootstrap       = "admin-bootstrap"
	StepDeploymentTrigger    = "deployment-trigger"
	StepDeploymentReadyWait  = "deployment-ready-wait"
)

// Steps is the ordered pipeline step table. Weights feed the progress model;
// the two readiness waits carry most of the weight because they dominate wall
// clock time.
var Steps = []Step{
	{StepRepositoryCheck, "Checking repository access", "Verifying the GitHub repository is reachable", 5, ScreenGitHub},
	{StepPlatformAuthCheck, "Verifying Vercel token", "Identifying your Vercel account and team", 5, ScreenVercel},
	{StepProjectLink, "Linking Vercel project", "Creating or reusing the deployment project", 5, ScreenVercel},
	{StepDatabaseAuthCheck, "Verifying Supabase token", "Checking database platform access", 5, ScreenSupabase},
	{StepDatabaseCreate, "Creating database project", "Provisioning a fresh Supabase project", 10, ScreenSupabase},
	{StepDatabaseReadyWait, "Waiting for database", "Supabase projects take a few minutes to come online", 25, ScreenSupabase},
	{StepCredentialResolution, "Resolving database credentials", "Fetching API keys and connection details", 5, ScreenSupabase},
	{StepQueueAuthCheck, "Verifying QStash token", "Checking queue service access", 5, ScreenQStash},
	{StepCacheAuthCheck, "Verifying Redis credentials", "Pinging the Upstash Redis endpoint", 5, ScreenUpstash},
	{StepEnvironmentUpsert, "Writing environment variables", "Configuring the Vercel environment", 10, ScreenVercel},
	{StepSecretMirroring, "Mirroring repository secrets", "Copying secrets to GitHub Actions", 5, ScreenGitHub},
	{StepSchemaMigration, "Running database migrations", "Applying the Sendwell schema", 10, ScreenSupabase},
	{StepAdminBootstrap, "Creating admin account", "Bootstrapping the administrator identity", 5, ScreenAdmin},
	{StepDeploymentTrigger, "Starting deployment", "Triggering a production deployment", 10, ScreenVercel},
	{StepDeploymentReadyWait, "Waiting for deployment", "Watching the deployment until it is live", 30, ScreenVercel},
}

// TotalStepWeight returns the sum of all step weights.
func TotalStepWeight() int {
	total := 0
	for _, s := range Steps {
		total += s.Weight
	}
	return total
}

// StepByID looks a step up by id. ok is false for unknown ids.
func StepByID(id string) (Step, bool) {
	for _, s := range Steps {
		if s.ID == id {
			return s, true
		}
	}
	return Step{}, false
}
