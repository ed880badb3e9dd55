package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockEnvProvider implements EnvProvider for testing
type mockEnvProvider struct {
	vars    map[string]string
	homeDir string
}

func (m *mockEnvProvider) Getenv(key string) string {
	return m.vars[key]
}

func (m *mockEnvProvider) UserHomeDir() (string, error) {
	return m.homeDir, nil
}

func TestNewConfigDefaults(t *testing.T) {
	env := &mockEnvProvider{vars: map[string]string{}, homeDir: "/home/tester"}

	cfg, err := NewConfigWithEnv(env, "")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join("/home/tester", ".local", "share", "sendwell-setup"), cfg.DataDir)
	assert.Equal(t, filepath.Join(cfg.DataDir, "sendwell-setup.db"), cfg.DatabasePath)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "127.0.0.1", cfg.HTTPHost)
	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.True(t, cfg.SetupEnabled)
	assert.Equal(t, "sendwell", cfg.ProjectBaseName)
	assert.Equal(t, 10*time.Second, cfg.DatabaseReadyInterval)
	assert.Equal(t, 5*time.Minute, cfg.DatabaseReadyDeadline)
}

func TestNewConfigXDGDataHome(t *testing.T) {
	env := &mockEnvProvider{
		vars:    map[string]string{"XDG_DATA_HOME": "/xdg/data"},
		homeDir: "/home/tester",
	}

	cfg, err := NewConfigWithEnv(env, "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/xdg/data", "sendwell-setup"), cfg.DataDir)
}

func TestNewConfigEnvOverrides(t *testing.T) {
	env := &mockEnvProvider{
		vars: map[string]string{
			"SENDWELL_DATA_DIR":          "/var/lib/sendwell",
			"SENDWELL_LOG_LEVEL":         "debug",
			"SENDWELL_HTTP_HOST":         "0.0.0.0",
			"SENDWELL_HTTP_PORT":         "9090",
			"SENDWELL_SETUP_ENABLED":     "false",
			"SENDWELL_GIT_TIMEOUT":       "1m",
			"SENDWELL_DB_READY_DEADLINE": "30s",
			"SENDWELL_PROJECT_BASE_NAME": "acme",
		},
		homeDir: "/home/tester",
	}

	cfg, err := NewConfigWithEnv(env, "")
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/sendwell", cfg.DataDir)
	assert.Equal(t, filepath.Join("/var/lib/sendwell", "sendwell-setup.db"), cfg.DatabasePath)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "0.0.0.0", cfg.HTTPHost)
	assert.Equal(t, 9090, cfg.HTTPPort)
	assert.False(t, cfg.SetupEnabled)
	assert.Equal(t, time.Minute, cfg.GitTimeout)
	assert.Equal(t, 30*time.Second, cfg.DatabaseReadyDeadline)
	assert.Equal(t, "acme", cfg.ProjectBaseName)
}

func TestNewConfigFromFile(t *testing.T) {
	configFile := filepath.Join(t.TempDir(), "config.yaml")
	content := `
log_level: warning
http_port: 8888
setup_enabled: false
project_base_name: fromfile
`
	require.NoError(t, os.WriteFile(configFile, []byte(content), 0o644))

	env := &mockEnvProvider{vars: map[string]string{}, homeDir: "/home/tester"}
	cfg, err := NewConfigWithEnv(env, configFile)
	require.NoError(t, err)

	assert.Equal(t, "warning", cfg.LogLevel)
	assert.Equal(t, 8888, cfg.HTTPPort)
	assert.False(t, cfg.SetupEnabled)
	assert.Equal(t, "fromfile", cfg.ProjectBaseName)
}

func TestNewConfigEnvBeatsFile(t *testing.T) {
	configFile := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configFile, []byte("http_port: 8888\n"), 0o644))

	env := &mockEnvProvider{
		vars:    map[string]string{"SENDWELL_HTTP_PORT": "9999"},
		homeDir: "/home/tester",
	}

	cfg, err := NewConfigWithEnv(env, configFile)
	require.NoError(t, err)
	assert.Equal(t, 9999, cfg.HTTPPort)
}

func TestNewConfigValidation(t *testing.T) {
	tests := []struct {
		name string
		vars map[string]string
	}{
		{
			name: "invalid log level",
			vars: map[string]string{"SENDWELL_LOG_LEVEL": "verbose"},
		},
		{
			name: "invalid port",
			vars: map[string]string{"SENDWELL_HTTP_PORT": "70000"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := &mockEnvProvider{vars: tt.vars, homeDir: "/home/tester"}
			_, err := NewConfigWithEnv(env, "")
			assert.Error(t, err)
		})
	}
}

func TestNewConfigMissingFile(t *testing.T) {
	env := &mockEnvProvider{vars: map[string]string{}, homeDir: "/home/tester"}
	_, err := NewConfigWithEnv(env, "/nonexistent/config.yaml")
	assert.Error(t, err)
}
