// Package app provides the application context for the setup server, managing
// the audit database and per-run orchestrator construction.
package app

import (
	"os"

	"gorm.io/gorm"

	"github.com/sendwell/cloud-setup/config"
	"github.com/sendwell/cloud-setup/db"
	"github.com/sendwell/cloud-setup/domain"
	"github.com/sendwell/cloud-setup/migrate"
	"github.com/sendwell/cloud-setup/pipeline"
	"github.com/sendwell/cloud-setup/platform/github"
	"github.com/sendwell/cloud-setup/platform/qstash"
	"github.com/sendwell/cloud-setup/platform/supabase"
	"github.com/sendwell/cloud-setup/platform/upstash"
	"github.com/sendwell/cloud-setup/platform/vercel"
	"github.com/sendwell/cloud-setup/repository"
)

var (
	// Version is set at build time via -ldflags
	Version = "dev"

	database      *gorm.DB
	runRepository repository.RunRepository
	appConfig     *config.Config
)

// InitializeWithConfig initializes the app with a pre-configured Config
func InitializeWithConfig(cfg *config.Config) error {
	var err error

	appConfig = cfg

	if err := os.MkdirAll(appConfig.DataDir, 0o755); err != nil {
		return err
	}

	database, err = db.InitDB(appConfig.DataDir)
	if err != nil {
		return err
	}

	runRepository = repository.NewRunRepository(database)
	return nil
}

// GetConfig returns the active configuration.
func GetConfig() *config.Config {
	return appConfig
}

// GetRunRepository returns the audit run repository.
func GetRunRepository() repository.RunRepository {
	return runRepository
}

// NewSetupRunner builds an orchestrator for one validated request. Each run
// gets fresh platform clients carrying the tokens from that request only.
func NewSetupRunner(req *domain.SetupRequest, stream *pipeline.Stream) *pipeline.Orchestrator {
	cfg := appConfig

	platforms := pipeline.Platforms{
		Repo:     github.NewClient(req.GitHub.Repo, req.GitHub.Token, cfg.GitTimeout),
		Deploy:   vercel.NewClient(req.Vercel.Token, cfg.HTTPTimeout),
		Database: supabase.NewClient(req.Supabase.Token, cfg.HTTPTimeout),
		Queue:    qstash.NewClient(req.QStash.Token, cfg.HTTPTimeout),
		Cache:    upstash.NewClient(req.Upstash.URL, req.Upstash.Token, cfg.HTTPTimeout),
	}

	opts := pipeline.Options{
		ProjectBaseName:       cfg.ProjectBaseName,
		DatabaseReadyInterval: cfg.DatabaseReadyInterval,
		DatabaseReadyDeadline: cfg.DatabaseReadyDeadline,
		DeployReadyInterval:   cfg.DeployReadyInterval,
		DeployReadyDeadline:   cfg.DeployReadyDeadline,
	}

	return pipeline.NewOrchestrator(req, platforms, migrate.NewService(), stream, runRepository, opts)
}

// SetRunRepositoryForTesting allows overriding the run repository for testing purposes
func SetRunRepositoryForTesting(repo repository.RunRepository) {
	runRepository = repo
}
