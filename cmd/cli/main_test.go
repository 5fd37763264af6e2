package main

import (
	"bytes"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/icflow/internal/cli"
	"github.com/vk/icflow/internal/testutil"
)

// writeFlowConfig lays out a minimal working config whose checker tool is the
// shell, so a run exercises the real pipeline end to end.
func writeFlowConfig(t *testing.T, drcScript string) string {
	t.Helper()
	dir := t.TempDir()
	testutil.WriteFiles(t, dir, map[string]string{
		"templates/drc.sh": drcScript,
		"flow.hcl": fmt.Sprintf(`
defaults {
  root_dir   = %q
  timeout_ms = 30000
}

checker "drc" {
  tool_selector = "sh"
  template  = %q
  artifacts = ["{{ cell_name }}.summary"]
}
`,
			filepath.Join(dir, "runs"),
			filepath.Join(dir, "templates", "drc.sh")),
	})
	return filepath.Join(dir, "flow.hcl")
}

func TestRun_HelpExitsCleanly(t *testing.T) {
	var out bytes.Buffer
	err := run(&out, []string{"-h"})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Usage:")
}

func TestRun_UnknownFlagIsUsageError(t *testing.T) {
	var out bytes.Buffer
	err := run(&out, []string{"--bogus"})

	var exitErr *cli.ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 2, exitErr.Code)
}

func TestRun_UnloadableConfigIsRecoveredPanic(t *testing.T) {
	var out bytes.Buffer
	err := run(&out, []string{"-c", "/nonexistent/flow.hcl", "drc:amp1"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "application startup panicked")
}

func TestRun_CleanBatch(t *testing.T) {
	configPath := writeFlowConfig(t, "echo checking {{ cell_name }}\ntouch {{ cell_name }}.summary\n")

	out := &testutil.SafeBuffer{}
	err := run(out, []string{"-c", configPath, "drc:amp1"})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Job result.")
}

func TestRun_DirtyBatchMapsToExitCodeOne(t *testing.T) {
	configPath := writeFlowConfig(t, "echo ERROR: spacing violation\nexit 2\n")

	out := &testutil.SafeBuffer{}
	err := run(out, []string{"-c", configPath, "drc:amp1"})

	var exitErr *cli.ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 1, exitErr.Code)
}
