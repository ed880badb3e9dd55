// Package pipeline implements the setup orchestrator: a step-sequenced state
// machine that coordinates GitHub, Vercel, Supabase, QStash, and Upstash to
// provision a working Sendwell deployment, reporting progress over a one-way
// event stream.
package pipeline

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sendwell/cloud-setup/domain"
	"github.com/sendwell/cloud-setup/metrics"
	"github.com/sendwell/cloud-setup/poll"
)

// Options holds orchestrator tuning. Zero values are replaced by defaults.
type Options struct {
	// ProjectBaseName seeds database project naming.
	ProjectBaseName string

	DatabaseReadyInterval time.Duration
	DatabaseReadyDeadline time.Duration
	DeployReadyInterval   time.Duration
	DeployReadyDeadline   time.Duration
	PollAttemptTimeout    time.Duration
}

// DefaultOptions returns production defaults.
func DefaultOptions() Options {
	return Options{
		ProjectBaseName:       "sendwell",
		DatabaseReadyInterval: 10 * time.Second,
		DatabaseReadyDeadline: 5 * time.Minute,
		DeployReadyInterval:   10 * time.Second,
		DeployReadyDeadline:   10 * time.Minute,
		PollAttemptTimeout:    15 * time.Second,
	}
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.ProjectBaseName == "" {
		o.ProjectBaseName = def.ProjectBaseName
	}
	if o.DatabaseReadyInterval == 0 {
		o.DatabaseReadyInterval = def.DatabaseReadyInterval
	}
	if o.DatabaseReadyDeadline == 0 {
		o.DatabaseReadyDeadline = def.DatabaseReadyDeadline
	}
	if o.DeployReadyInterval == 0 {
		o.DeployReadyInterval = def.DeployReadyInterval
	}
	if o.DeployReadyDeadline == 0 {
		o.DeployReadyDeadline = def.DeployReadyDeadline
	}
	if o.PollAttemptTimeout == 0 {
		o.PollAttemptTimeout = def.PollAttemptTimeout
	}
	return o
}

// Orchestrator drives one setup run. One instance owns one PipelineState for
// the lifetime of one run; instances are never reused.
type Orchestrator struct {
	req       *domain.SetupRequest
	platforms Platforms
	migrator  Migrator
	stream    *Stream
	recorder  RunRecorder
	opts      Options

	progress *Progress
	state    *domain.PipelineState
	run      *domain.Run
}

// NewOrchestrator builds an orchestrator for one validated request. recorder
// may be nil, in which case no audit record is written.
func NewOrchestrator(
	req *domain.SetupRequest,
	platforms Platforms,
	migrator Migrator,
	stream *Stream,
	recorder RunRecorder,
	opts Options,
) *Orchestrator {
	return &Orchestrator{
		req:       req,
		platforms: platforms,
		migrator:  migrator,
		stream:    stream,
		recorder:  recorder,
		opts:      opts.withDefaults(),
		progress:  NewProgress(domain.Steps),
		state:     &domain.PipelineState{},
		run:       domain.NewRun(),
	}
}

// Run executes all steps in order and terminates the stream with exactly one
// error or complete event. It is designed to run in a detached goroutine and
// runs to completion or failure regardless of the caller.
func (o *Orchestrator) Run(ctx context.Context) {
	metrics.RunsStarted.Inc()
	o.recordCreate()

	slog.Info("Setup run started",
		"layer", "pipeline",
		"operation", "run",
		"run_id", o.run.ID,
		"repo", o.req.GitHub.Repo)

	steps := o.stepFuncs()
	for i, step := range domain.Steps {
		o.state.StepIndex = i
		o.emitProgress(0)

		if err := steps[i](ctx); err != nil {
			o.fail(ctx, step, err)
			return
		}
	}

	o.finish()
}

// stepFuncs returns the step implementations aligned index-for-index with
// domain.Steps.
func (o *Orchestrator) stepFuncs() []func(context.Context) error {
	return []func(context.Context) error{
		o.repositoryCheck,
		o.platformAuthCheck,
		o.projectLink,
		o.databaseAuthCheck,
		o.databaseCreate,
		o.databaseReadyWait,
		o.credentialResolution,
		o.queueAuthCheck,
		o.cacheAuthCheck,
		o.environmentUpsert,
		o.secretMirroring,
		o.schemaMigration,
		o.adminBootstrap,
		o.deploymentTrigger,
		o.deploymentReadyWait,
	}
}

func (o *Orchestrator) repositoryCheck(ctx context.Context) error {
	return o.platforms.Repo.CheckRepository(ctx)
}

func (o *Orchestrator) platformAuthCheck(ctx context.Context) error {
	userID, teamID, err := o.platforms.Deploy.Whoami(ctx)
	if err != nil {
		return err
	}
	o.state.TeamID = teamID
	o.run.TeamID = teamID
	slog.Info("Vercel token verified",
		"layer", "pipeline",
		"operation", "platform_auth_check",
		"run_id", o.run.ID,
		"user_id", userID,
		"team_id", teamID)
	return nil
}

func (o *Orchestrator) projectLink(ctx context.Context) error {
	_, repoName := o.req.RepoOwnerName()
	name := strings.ToLower(repoName)

	projectID, found, err := o.platforms.Deploy.FindProject(ctx, name)
	if err != nil {
		return err
	}
	if !found {
		projectID, err = o.platforms.Deploy.CreateProject(ctx, name, o.req.GitHub.Repo)
		if err != nil {
			return err
		}
	}
	o.state.ProjectID = projectID
	o.run.ProjectID = projectID
	slog.Info("Vercel project linked",
		"layer", "pipeline",
		"operation", "project_link",
		"run_id", o.run.ID,
		"project_id", projectID,
		"reused", found)
	return nil
}

func (o *Orchestrator) databaseAuthCheck(ctx context.Context) error {
	return o.platforms.Database.CheckAuth(ctx)
}

func (o *Orchestrator) databaseCreate(ctx context.Context) error {
	// A fresh project with a fresh password on every run: a retry must never
	// inherit leftover state from a failed attempt.
	password := generateSecret(16)

	namer := NewNamer(o.platforms.Database)
	ref, name, err := namer.CreateProject(ctx, o.opts.ProjectBaseName, password)
	if err != nil {
		return err
	}

	o.state.Database = domain.DatabaseHandle{ProjectRef: ref, Password: password, IsNew: true}
	o.run.DatabaseRef = ref
	slog.Info("Database project created",
		"layer", "pipeline",
		"operation", "database_create",
		"run_id", o.run.ID,
		"project_ref", ref,
		"name", name)
	return nil
}

func (o *Orchestrator) databaseReadyWait(ctx context.Context) error {
	ref := o.state.Database.ProjectRef

	ready, err := poll.Until(ctx, func(ctx context.Context) (bool, error) {
		status, err := o.platforms.Database.ProjectStatus(ctx, ref)
		if err != nil {
			return false, err
		}
		return status == DatabaseStatusReady, nil
	},
		poll.WithInterval(o.opts.DatabaseReadyInterval),
		poll.WithDeadline(o.opts.DatabaseReadyDeadline),
		poll.WithAttemptTimeout(o.opts.PollAttemptTimeout),
		poll.WithProgress(func(f float64) { o.emitProgress(f) }),
	)
	if err != nil {
		return err
	}
	if !ready {
		// Known risk: the run proceeds into credential resolution against a
		// possibly-unready database. See the poller docs.
		slog.Warn("Database not ready before deadline, continuing",
			"layer", "pipeline",
			"operation", "database_ready_wait",
			"run_id", o.run.ID,
			"project_ref", ref)
	}
	return nil
}

func (o *Orchestrator) credentialResolution(ctx context.Context) error {
	ref := o.state.Database.ProjectRef

	anonKey, serviceRoleKey, err := o.platforms.Database.APIKeys(ctx, ref)
	if err != nil {
		return err
	}
	o.state.AnonKey = anonKey
	o.state.ServiceRoleKey = serviceRoleKey
	o.state.ConnString = BuildConnString(ctx, o.platforms.Database, ref, o.state.Database.Password)
	return nil
}

func (o *Orchestrator) queueAuthCheck(ctx context.Context) error {
	return o.platforms.Queue.CheckAuth(ctx)
}

func (o *Orchestrator) cacheAuthCheck(ctx context.Context) error {
	return o.platforms.Cache.Ping(ctx)
}

func (o *Orchestrator) environmentUpsert(ctx context.Context) error {
	o.state.AppSecret = generateSecret(32)

	vars := []EnvVar{
		{Key: "SUPABASE_URL", Value: fmt.Sprintf("https://%s.supabase.co", o.state.Database.ProjectRef)},
		{Key: "SUPABASE_ANON_KEY", Value: o.state.AnonKey},
		{Key: "SUPABASE_SERVICE_ROLE_KEY", Value: o.state.ServiceRoleKey, Secret: true},
		{Key: "QSTASH_TOKEN", Value: o.req.QStash.Token, Secret: true},
		{Key: "UPSTASH_REDIS_REST_URL", Value: o.req.Upstash.URL},
		{Key: "UPSTASH_REDIS_REST_TOKEN", Value: o.req.Upstash.Token, Secret: true},
		{Key: "APP_SECRET", Value: o.state.AppSecret, Secret: true},
		{Key: setupModeKey, Value: "true"},
	}
	if o.state.ConnString != "" {
		vars = append(vars, EnvVar{Key: "DATABASE_URL", Value: o.state.ConnString, Secret: true})
	}

	return o.platforms.Deploy.UpsertEnv(ctx, o.state.ProjectID, vars)
}

func (o *Orchestrator) secretMirroring(ctx context.Context) error {
	// Best-effort: Actions secrets are a convenience for CI, not a
	// prerequisite for the deployment. Failures are warnings.
	secrets := map[string]string{
		"DATABASE_URL":              o.state.ConnString,
		"SUPABASE_SERVICE_ROLE_KEY": o.state.ServiceRoleKey,
		"APP_SECRET":                o.state.AppSecret,
	}
	for name, value := range secrets {
		if value == "" {
			continue
		}
		if err := o.platforms.Repo.PutSecret(ctx, name, value); err != nil {
			slog.Warn("Failed to mirror repository secret",
				"layer", "pipeline",
				"operation", "secret_mirroring",
				"run_id", o.run.ID,
				"secret", name,
				"error", err)
		}
	}
	return nil
}

func (o *Orchestrator) schemaMigration(ctx context.Context) error {
	if o.state.ConnString == "" {
		// No resolved connection string means no way to reach the database.
		slog.Warn("No connection string resolved, skipping schema migration",
			"layer", "pipeline",
			"operation", "schema_migration",
			"run_id", o.run.ID)
		return nil
	}

	applied, err := o.migrator.Migrate(ctx, o.state.ConnString)
	if err != nil {
		return err
	}
	slog.Info("Schema migration finished",
		"layer", "pipeline",
		"operation", "schema_migration",
		"run_id", o.run.ID,
		"applied", applied)
	return nil
}

func (o *Orchestrator) adminBootstrap(ctx context.Context) error {
	if o.state.ConnString == "" {
		slog.Warn("No connection string resolved, skipping admin bootstrap",
			"layer", "pipeline",
			"operation", "admin_bootstrap",
			"run_id", o.run.ID)
		return nil
	}
	return o.migrator.BootstrapAdmin(ctx, o.state.ConnString, o.req.Admin)
}

func (o *Orchestrator) deploymentTrigger(ctx context.Context) error {
	// Remember the flag's prior value for compensation, then disable the
	// setup wizard in the deployed product before triggering the build. The
	// environment was fully written in the environment-upsert step, so the
	// build reads a complete configuration.
	prior, found, err := o.platforms.Deploy.GetEnv(ctx, o.state.ProjectID, setupModeKey)
	if err != nil || !found {
		prior = "true"
	}
	o.state.PriorSetupMode = prior

	if err := o.platforms.Deploy.UpsertEnv(ctx, o.state.ProjectID, []EnvVar{
		{Key: setupModeKey, Value: "false"},
	}); err != nil {
		return err
	}

	deploymentID, err := o.platforms.Deploy.TriggerDeployment(ctx, o.state.ProjectID, o.req.GitHub.Repo)
	if err != nil {
		return err
	}
	o.state.DeploymentID = deploymentID
	slog.Info("Deployment triggered",
		"layer", "pipeline",
		"operation", "deployment_trigger",
		"run_id", o.run.ID,
		"deployment_id", deploymentID)
	return nil
}

func (o *Orchestrator) deploymentReadyWait(ctx context.Context) error {
	if o.state.DeploymentID == "" {
		slog.Warn("No deployment id produced, skipping readiness wait",
			"layer", "pipeline",
			"operation", "deployment_ready_wait",
			"run_id", o.run.ID)
		return nil
	}

	var deployErr error
	ready, err := poll.Until(ctx, func(ctx context.Context) (bool, error) {
		state, err := o.platforms.Deploy.DeploymentState(ctx, o.state.DeploymentID)
		if err != nil {
			return false, err
		}
		switch state {
		case DeploymentStateReady:
			return true, nil
		case DeploymentStateError, DeploymentStateCanceled:
			// An observed terminal failure is not a timeout; stop polling and
			// surface it.
			deployErr = fmt.Errorf("deployment ended in state %s", state)
			return true, nil
		}
		return false, nil
	},
		poll.WithInterval(o.opts.DeployReadyInterval),
		poll.WithDeadline(o.opts.DeployReadyDeadline),
		poll.WithAttemptTimeout(o.opts.PollAttemptTimeout),
		poll.WithProgress(func(f float64) { o.emitProgress(f) }),
	)
	if err != nil {
		return err
	}
	if deployErr != nil {
		return deployErr
	}
	if !ready {
		slog.Warn("Deployment not ready before deadline, continuing",
			"layer", "pipeline",
			"operation", "deployment_ready_wait",
			"run_id", o.run.ID,
			"deployment_id", o.state.DeploymentID)
	}
	return nil
}

// emitProgress sends a progress frame for the current step at the given
// in-step fraction.
func (o *Orchestrator) emitProgress(fraction float64) {
	step := o.state.CurrentStep()
	o.stream.Progress(o.progress.Percent(o.state.StepIndex, fraction), step.Title, step.Subtitle)
}

// fail halts the run permanently: runs the compensating action where one is
// defined, records the failure, and emits the terminal error event.
func (o *Orchestrator) fail(ctx context.Context, step domain.Step, err error) {
	if step.ID == domain.StepDeploymentTrigger && o.state.ProjectID != "" {
		c := &compensator{
			deploy:     o.platforms.Deploy,
			projectID:  o.state.ProjectID,
			priorValue: o.state.PriorSetupMode,
		}
		c.revert(ctx)
	}

	stepErr := newStepError(step, err)
	slog.Error("Setup run failed",
		"layer", "pipeline",
		"operation", "run",
		"run_id", o.run.ID,
		"step", step.ID,
		"error", err)

	metrics.RunsFailed.WithLabelValues(step.ID).Inc()

	now := time.Now().UTC()
	o.run.Status = domain.RunStatusFailed
	o.run.FailedStepID = step.ID
	o.run.ErrorSummary = stepErr.Message
	o.run.FinishedAt = &now
	o.recordUpdate()

	o.stream.Fail(stepErr.Message, stepErr.Err.Error(), step.ReturnToStep)
}

func (o *Orchestrator) finish() {
	slog.Info("Setup run completed",
		"layer", "pipeline",
		"operation", "run",
		"run_id", o.run.ID)

	metrics.RunsCompleted.Inc()

	now := time.Now().UTC()
	o.run.Status = domain.RunStatusCompleted
	o.run.FinishedAt = &now
	o.recordUpdate()

	o.stream.Complete()
}

func (o *Orchestrator) recordCreate() {
	if o.recorder == nil {
		return
	}
	if err := o.recorder.Create(o.run); err != nil {
		slog.Warn("Failed to persist run record",
			"layer", "pipeline",
			"operation", "record_run",
			"run_id", o.run.ID,
			"error", err)
	}
}

func (o *Orchestrator) recordUpdate() {
	if o.recorder == nil {
		return
	}
	if err := o.recorder.Update(o.run); err != nil {
		slog.Warn("Failed to update run record",
			"layer", "pipeline",
			"operation", "record_run",
			"run_id", o.run.ID,
			"error", err)
	}
}

// generateSecret returns n random bytes hex-encoded.
func generateSecret(n int) string {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand failing means the platform's randomness source is
		// broken; there is no meaningful fallback.
		panic(fmt.Sprintf("crypto/rand unavailable: %v", err))
	}
	return hex.EncodeToString(buf)
}
