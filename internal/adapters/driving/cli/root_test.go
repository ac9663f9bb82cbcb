package cli

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCmd_Use(t *testing.T) {
	assert.Equal(t, "reportrag", rootCmd.Use)
	assert.True(t, rootCmd.SilenceUsage)
}

func TestRootCmd_RegistersCommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	for _, want := range []string{
		"company", "document", "evaluate", "ingest", "mcp", "query", "settings", "tui", "version", "watch",
	} {
		assert.True(t, names[want], "missing command %s", want)
	}
}

func TestRequiredServices(t *testing.T) {
	assert.Equal(t, needsNone, requiredServices(versionCmd))
	assert.Equal(t, needsSettings, requiredServices(settingsCmd))
	assert.Equal(t, needsSettings, requiredServices(settingsSetCmd), "inherited from parent")
	assert.Equal(t, "", requiredServices(evaluateCmd))
	assert.Equal(t, "", requiredServices(&cobra.Command{Use: "orphan"}))
}

func TestSetupServices_SkipsWiringWhenInjected(t *testing.T) {
	ts := injectServices(t)

	require.NoError(t, setupServices(evaluateCmd, nil))

	assert.Same(t, ts.evaluation, evaluationService)
	assert.Nil(t, app)
	assert.NoError(t, teardownServices(evaluateCmd, nil))
	assert.Same(t, ts.evaluation, evaluationService, "injected services are not torn down")
}

func TestSetupServices_VersionNeedsNothing(t *testing.T) {
	require.Nil(t, settingsService)

	require.NoError(t, setupServices(versionCmd, nil))

	assert.Nil(t, settingsService)
}

func TestSetupServices_SettingsOnly(t *testing.T) {
	configDir = t.TempDir()
	t.Cleanup(func() {
		configDir = ""
		settingsService = nil
	})

	require.NoError(t, setupServices(settingsShowCmd, nil))

	assert.NotNil(t, settingsService)
	assert.Nil(t, evaluationService)
	assert.Nil(t, app)
}

func TestSetupServices_RejectsUnconfiguredEmbedding(t *testing.T) {
	configDir = t.TempDir()
	t.Cleanup(func() {
		configDir = ""
		settingsService = nil
	})

	err := setupServices(evaluateCmd, nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "embedding")
	assert.Nil(t, app)
}

func TestPromptDir(t *testing.T) {
	t.Cleanup(func() { configDir = "" })

	configDir = ""
	assert.Equal(t, "", promptDir())

	configDir = "/etc/reportrag"
	assert.Equal(t, "/etc/reportrag/prompts", promptDir())
}
