package pipeline

import (
	"context"
	"fmt"

	"github.com/sendwell/cloud-setup/domain"
)

// Fake platform clients for orchestrator tests. Each fake records the calls
// it receives so tests can assert on ordering and payloads.

type fakeRepo struct {
	checkErr error
	putErr   error
	secrets  map[string]string
}

func (f *fakeRepo) CheckRepository(ctx context.Context) error { return f.checkErr }

func (f *fakeRepo) PutSecret(ctx context.Context, name, value string) error {
	if f.putErr != nil {
		return f.putErr
	}
	if f.secrets == nil {
		f.secrets = map[string]string{}
	}
	f.secrets[name] = value
	return nil
}

type envWrite struct {
	projectID string
	vars      []EnvVar
}

type fakeDeploy struct {
	whoamiErr    error
	teamID       string
	projects     map[string]string // name -> id
	createErr    error
	upsertErr    error
	triggerErr   error
	deploymentID string
	states       []string
	stateCalls   int

	ops       []string // call order log
	envWrites []envWrite
	created   []string
}

func (f *fakeDeploy) Whoami(ctx context.Context) (string, string, error) {
	f.ops = append(f.ops, "whoami")
	if f.whoamiErr != nil {
		return "", "", f.whoamiErr
	}
	return "user_1", f.teamID, nil
}

func (f *fakeDeploy) FindProject(ctx context.Context, name string) (string, bool, error) {
	f.ops = append(f.ops, "find_project")
	id, ok := f.projects[name]
	return id, ok, nil
}

func (f *fakeDeploy) CreateProject(ctx context.Context, name, repo string) (string, error) {
	f.ops = append(f.ops, "create_project")
	if f.createErr != nil {
		return "", f.createErr
	}
	f.created = append(f.created, name)
	return "prj_" + name, nil
}

func (f *fakeDeploy) UpsertEnv(ctx context.Context, projectID string, vars []EnvVar) error {
	f.ops = append(f.ops, "upsert_env")
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.envWrites = append(f.envWrites, envWrite{projectID: projectID, vars: vars})
	return nil
}

func (f *fakeDeploy) GetEnv(ctx context.Context, projectID, key string) (string, bool, error) {
	f.ops = append(f.ops, "get_env")
	for i := len(f.envWrites) - 1; i >= 0; i-- {
		for _, v := range f.envWrites[i].vars {
			if v.Key == key {
				return v.Value, true, nil
			}
		}
	}
	return "", false, nil
}

func (f *fakeDeploy) TriggerDeployment(ctx context.Context, projectID, repo string) (string, error) {
	f.ops = append(f.ops, "trigger_deployment")
	if f.triggerErr != nil {
		return "", f.triggerErr
	}
	if f.deploymentID == "" {
		return "dpl_1", nil
	}
	return f.deploymentID, nil
}

func (f *fakeDeploy) DeploymentState(ctx context.Context, deploymentID string) (string, error) {
	f.ops = append(f.ops, "deployment_state")
	if f.stateCalls < len(f.states) {
		s := f.states[f.stateCalls]
		f.stateCalls++
		return s, nil
	}
	return DeploymentStateReady, nil
}

// setEnv seeds a pre-existing environment variable.
func (f *fakeDeploy) setEnv(projectID, key, value string) {
	f.envWrites = append(f.envWrites, envWrite{projectID: projectID, vars: []EnvVar{{Key: key, Value: value}}})
}

// lastValue returns the most recently written value for key.
func (f *fakeDeploy) lastValue(key string) (string, bool) {
	for i := len(f.envWrites) - 1; i >= 0; i-- {
		for _, v := range f.envWrites[i].vars {
			if v.Key == key {
				return v.Value, true
			}
		}
	}
	return "", false
}

type fakeDatabase struct {
	authErr      error
	names        []string
	collisions   int // CreateProject calls that fail with ErrNameTaken
	createErr    error
	createdNames []string
	statuses     []string
	statusCalls  int
	anonKey      string
	serviceKey   string
	poolerHost   string
	poolerErr    error
}

func (f *fakeDatabase) CheckAuth(ctx context.Context) error { return f.authErr }

func (f *fakeDatabase) ListProjectNames(ctx context.Context) ([]string, error) {
	return f.names, nil
}

func (f *fakeDatabase) CreateProject(ctx context.Context, name, dbPassword string) (string, error) {
	if f.createErr != nil {
		return "", f.createErr
	}
	if f.collisions > 0 {
		f.collisions--
		return "", fmt.Errorf("create project: %w", ErrNameTaken)
	}
	f.createdNames = append(f.createdNames, name)
	return "ref_" + name, nil
}

func (f *fakeDatabase) ProjectStatus(ctx context.Context, ref string) (string, error) {
	if f.statusCalls < len(f.statuses) {
		s := f.statuses[f.statusCalls]
		f.statusCalls++
		return s, nil
	}
	return DatabaseStatusReady, nil
}

func (f *fakeDatabase) APIKeys(ctx context.Context, ref string) (string, string, error) {
	return f.anonKey, f.serviceKey, nil
}

func (f *fakeDatabase) PoolerHost(ctx context.Context, ref string) (string, error) {
	return f.poolerHost, f.poolerErr
}

type fakeQueue struct{ err error }

func (f *fakeQueue) CheckAuth(ctx context.Context) error { return f.err }

type fakeCache struct{ err error }

func (f *fakeCache) Ping(ctx context.Context) error { return f.err }

type fakeMigrator struct {
	migrateCalls   int
	alreadyApplied bool
	migrateErr     error
	bootstrapped   []domain.AdminConfig
}

func (f *fakeMigrator) Migrate(ctx context.Context, connString string) (bool, error) {
	f.migrateCalls++
	if f.migrateErr != nil {
		return false, f.migrateErr
	}
	if f.alreadyApplied {
		return false, nil
	}
	f.alreadyApplied = true
	return true, nil
}

func (f *fakeMigrator) BootstrapAdmin(ctx context.Context, connString string, admin domain.AdminConfig) error {
	f.bootstrapped = append(f.bootstrapped, admin)
	return nil
}

type fakeRecorder struct {
	created []domain.Run
	updated []domain.Run
}

func (f *fakeRecorder) Create(run *domain.Run) error {
	f.created = append(f.created, *run)
	return nil
}

func (f *fakeRecorder) Update(run *domain.Run) error {
	f.updated = append(f.updated, *run)
	return nil
}
