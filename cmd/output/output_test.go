package output

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sendwell/cloud-setup/domain"
)

func TestPrintMessagePlain(t *testing.T) {
	InitColors(true)

	msg := PrintMessage(Plain, "hello %s", "world")
	assert.Equal(t, "hello world\n", msg)
}

func TestPrintMessageColorDisabled(t *testing.T) {
	InitColors(true)

	msg := PrintMessage(Error, "failed: %d", 42)
	assert.Equal(t, "failed: 42\n", msg)
}

func TestPrintStepTable(t *testing.T) {
	InitColors(true)

	table, err := PrintStepTable(domain.Steps)
	require.NoError(t, err)

	assert.Contains(t, table, "repository-check")
	assert.Contains(t, table, "deployment-ready-wait")
	assert.Contains(t, table, "Checking repository access")
}

func TestPrintRunListEmpty(t *testing.T) {
	InitColors(true)

	out, err := PrintRunList(nil)
	require.NoError(t, err)
	assert.Contains(t, out, "No setup runs recorded")
}

func TestPrintRunList(t *testing.T) {
	InitColors(true)

	run := domain.NewRun()
	run.Status = domain.RunStatusFailed
	run.FailedStepID = "database-create"
	finished := time.Now().UTC()
	run.FinishedAt = &finished

	out, err := PrintRunList([]*domain.Run{run})
	require.NoError(t, err)
	assert.Contains(t, out, run.ID.String())
	assert.Contains(t, out, "failed")
	assert.Contains(t, out, "database-create")
}
