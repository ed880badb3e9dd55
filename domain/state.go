package domain

// DatabaseHandle describes the Supabase project created for one run. A fresh
// project is created on every run so a retry never inherits leftover state
// from a failed attempt.
type DatabaseHandle struct {
	ProjectRef string
	Password   string
	IsNew      bool
}

// PipelineState is the mutable run-scoped state of one setup run. It is owned
// exclusively by one orchestrator instance and never shared across runs. The
// step index advances monotonically; failure handling reads it to attribute
// the error to the step that was executing.
type PipelineState struct {
	StepIndex int

	// Vercel
	ProjectID    string
	TeamID       string
	DeploymentID string

	// Supabase
	Database       DatabaseHandle
	AnonKey        string
	ServiceRoleKey string
	ConnString     string

	// Generated application secret, written exactly once into the target
	// environment.
	AppSecret string

	// Compensation bookkeeping: value of the setup-mode env var before the
	// deployment-trigger step flipped it.
	PriorSetupMode string
}

// CurrentStep returns the descriptor of the step the run is currently in.
func (s *PipelineState) CurrentStep() Step {
	if s.StepIndex >= len(Steps) {
		return Steps[len(Steps)-1]
	}
	return Steps[s.StepIndex]
}
