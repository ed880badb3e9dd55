package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gosimple/slug"
)

// maxNameAttempts bounds the base, base-v2, base-v3, ... candidate search.
const maxNameAttempts = 10

// Namer creates a database project under an idempotent, collision-tolerant
// name. Existing names are compared case-insensitively. If the create call
// itself hits a name collision (a race with a concurrent actor), exactly one
// retry is made with a timestamp-suffixed name; a second collision aborts.
type Namer struct {
	db  DatabasePlatform
	now func() time.Time
}

// NewNamer creates a Namer over the given database platform.
func NewNamer(db DatabasePlatform) *Namer {
	return &Namer{db: db, now: time.Now}
}

// CreateProject picks the first free candidate name derived from base and
// creates the project. It returns the project reference and the name used.
func (n *Namer) CreateProject(ctx context.Context, base, dbPassword string) (ref, name string, err error) {
	base = slug.Make(base)

	existing, err := n.db.ListProjectNames(ctx)
	if err != nil {
		return "", "", fmt.Errorf("failed to list database projects: %w", err)
	}
	taken := make(map[string]bool, len(existing))
	for _, e := range existing {
		taken[strings.ToLower(e)] = true
	}

	name = base
	for i := 2; taken[strings.ToLower(name)] && i <= maxNameAttempts; i++ {
		name = fmt.Sprintf("%s-v%d", base, i)
	}

	ref, err = n.db.CreateProject(ctx, name, dbPassword)
	if errors.Is(err, ErrNameTaken) {
		// Lost a race with a concurrent actor. One retry with a name that
		// cannot reasonably collide again.
		fallback := fmt.Sprintf("%s-%d", base, n.now().Unix())
		slog.Warn("Database project name collision, retrying once",
			"layer", "pipeline",
			"operation", "create_database_project",
			"name", name,
			"fallback", fallback)
		name = fallback
		ref, err = n.db.CreateProject(ctx, name, dbPassword)
	}
	if err != nil {
		return "", "", fmt.Errorf("failed to create database project %q: %w", name, err)
	}
	return ref, name, nil
}
