package pipeline

import (
	"context"
	"errors"

	"github.com/sendwell/cloud-setup/domain"
)

// ErrNameTaken is returned by DatabasePlatform.CreateProject when the chosen
// project name collides with an existing one, typically because a concurrent
// actor created it between our listing and our create call.
var ErrNameTaken = errors.New("project name already taken")

// EnvVar is one environment variable written into the deployment platform.
type EnvVar struct {
	Key    string
	Value  string
	Secret bool
}

// RepoHost defines the contract for the source repository platform.
type RepoHost interface {
	// CheckRepository verifies the repository exists and the token can read it.
	CheckRepository(ctx context.Context) error
	// PutSecret writes one Actions secret.
	PutSecret(ctx context.Context, name, value string) error
}

// DeployPlatform defines the contract for the deployment platform.
type DeployPlatform interface {
	// Whoami identifies the token's user and, if any, its team.
	Whoami(ctx context.Context) (userID, teamID string, err error)
	// FindProject looks a project up by name.
	FindProject(ctx context.Context, name string) (projectID string, found bool, err error)
	// CreateProject creates a project linked to the given GitHub repository.
	CreateProject(ctx context.Context, name, repo string) (projectID string, err error)
	// UpsertEnv bulk-writes production environment variables.
	UpsertEnv(ctx context.Context, projectID string, vars []EnvVar) error
	// GetEnv reads back one environment variable.
	GetEnv(ctx context.Context, projectID, key string) (value string, found bool, err error)
	// TriggerDeployment starts a production deployment from the repo's default branch.
	TriggerDeployment(ctx context.Context, projectID, repo string) (deploymentID string, err error)
	// DeploymentState returns the platform's state string for a deployment.
	DeploymentState(ctx context.Context, deploymentID string) (string, error)
}

// Deployment states reported by DeployPlatform.DeploymentState.
const (
	DeploymentStateReady    = "READY"
	DeploymentStateError    = "ERROR"
	DeploymentStateCanceled = "CANCELED"
)

// DatabasePlatform defines the contract for the managed database platform.
type DatabasePlatform interface {
	// CheckAuth verifies the token by introspecting the account.
	CheckAuth(ctx context.Context) error
	// ListProjectNames returns the names of all existing database projects.
	ListProjectNames(ctx context.Context) ([]string, error)
	// CreateProject creates a database project and returns its reference.
	// Returns an error wrapping ErrNameTaken on a name collision.
	CreateProject(ctx context.Context, name, dbPassword string) (ref string, err error)
	// ProjectStatus returns the platform's status string for a project.
	ProjectStatus(ctx context.Context, ref string) (string, error)
	// APIKeys resolves the project's anon and service-role API keys.
	APIKeys(ctx context.Context, ref string) (anonKey, serviceRoleKey string, err error)
	// PoolerHost resolves the connection pooler hostname for a project.
	PoolerHost(ctx context.Context, ref string) (string, error)
}

// DatabaseStatusReady is the DatabasePlatform status meaning the project is
// usable.
const DatabaseStatusReady = "ACTIVE_HEALTHY"

// QueueService defines the contract for the message queue platform.
type QueueService interface {
	CheckAuth(ctx context.Context) error
}

// CacheService defines the contract for the cache platform.
type CacheService interface {
	Ping(ctx context.Context) error
}

// Migrator applies the product schema and bootstraps the admin identity
// against the freshly provisioned database.
type Migrator interface {
	// Migrate applies the schema. Returns applied=false when the idempotency
	// probe finds the schema already present.
	Migrate(ctx context.Context, connString string) (applied bool, err error)
	// BootstrapAdmin creates the administrator account if it does not exist.
	BootstrapAdmin(ctx context.Context, connString string, admin domain.AdminConfig) error
}

// RunRecorder persists the audit record of a run. Implemented by
// repository.RunRepository.
type RunRecorder interface {
	Create(run *domain.Run) error
	Update(run *domain.Run) error
}

// Platforms bundles the five external platform clients for one run.
type Platforms struct {
	Repo     RepoHost
	Deploy   DeployPlatform
	Database DatabasePlatform
	Queue    QueueService
	Cache    CacheService
}
