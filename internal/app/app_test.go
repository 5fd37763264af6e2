package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/icflow/internal/job"
	"github.com/vk/icflow/internal/render"
	"github.com/vk/icflow/internal/testutil"
)

// newTestApp builds an App over a real config whose tools are shell scripts,
// exercising the whole resolve-render-schedule-collect path.
func newTestApp(t *testing.T, drcScript, simScript string) (*App, string) {
	t.Helper()
	dir := t.TempDir()
	testutil.WriteFiles(t, dir, map[string]string{
		"templates/drc.sh": drcScript,
		"templates/sim.sh": simScript,
	})

	flowConfig := fmt.Sprintf(`
defaults {
  root_dir   = %q
  timeout_ms = 30000
}

checker "drc" {
  tool_selector = "sh"
  template  = %q
  artifacts = ["{{ cell_name }}.summary"]
  params = {
    gnd_net = "VSS"
  }
}

simulation {
  command   = "sh"
  template  = %q
  artifacts = ["{{ cell_name }}.raw"]
}
`,
		filepath.Join(dir, "runs"),
		filepath.Join(dir, "templates", "drc.sh"),
		filepath.Join(dir, "templates", "sim.sh"))
	testutil.WriteFiles(t, dir, map[string]string{"flow.hcl": flowConfig})

	cfg, err := NewConfig(Config{
		ConfigPath: filepath.Join(dir, "flow.hcl"),
		LogFormat:  "text",
		LogLevel:   "debug",
	})
	require.NoError(t, err)

	return NewApp(&testutil.SafeBuffer{}, cfg), dir
}

func TestApp_RunBatch(t *testing.T) {
	t.Parallel()
	a, dir := newTestApp(t,
		"echo checking {{ cell_name }} against {{ gnd_net }}\ntouch {{ cell_name }}.summary\n",
		"echo simulating {{ cell_name }} at {{ corner }}\ntouch {{ cell_name }}.raw\n")

	results, err := a.Run(context.Background(), []Request{
		{Kind: job.DesignRuleCheck, Cell: "amp1"},
		{Kind: job.Simulation, Cell: "amp1", Corner: "tt"},
	})
	require.NoError(t, err)
	require.Len(t, results, 2)

	for _, res := range results {
		assert.True(t, res.OK(), "result %s: %v", res.Kind, res.Err)
	}
	assert.True(t, a.Summarize(results))

	// Each job ran in its own directory, named after kind, cell and corner.
	assert.FileExists(t, filepath.Join(dir, "runs", "drc_amp1", "amp1.summary"))
	assert.FileExists(t, filepath.Join(dir, "runs", "sim_amp1_tt", "amp1.raw"))
}

func TestApp_RunRendersControlFilePerCell(t *testing.T) {
	t.Parallel()
	a, dir := newTestApp(t, "touch {{ cell_name }}.summary\n", "exit 0\n")
	a.config.KeepTemporaries = true

	_, err := a.Run(context.Background(), []Request{{Kind: job.DesignRuleCheck, Cell: "buf4"}})
	require.NoError(t, err)

	raw, err := os.ReadFile(filepath.Join(dir, "runs", "drc_buf4", "control.sh"))
	require.NoError(t, err)
	assert.Equal(t, "touch buf4.summary\n", string(raw))
}

func TestApp_DuplicateRequestsKeepExclusiveRunDirs(t *testing.T) {
	t.Parallel()
	a, dir := newTestApp(t, "echo net={{ gnd_net }}\ntouch {{ cell_name }}.summary\n", "exit 0\n")
	a.config.KeepTemporaries = true

	// The same cell twice in one batch, with different parameters: each job
	// must get its own directory and its own control file.
	results, err := a.Run(context.Background(), []Request{
		{Kind: job.DesignRuleCheck, Cell: "amp1"},
		{Kind: job.DesignRuleCheck, Cell: "amp1", Params: map[string]string{"gnd_net": "GNDA"}},
	})
	require.NoError(t, err)
	require.Len(t, results, 2)
	for i, res := range results {
		assert.True(t, res.OK(), "result %d: %v", i, res.Err)
	}

	first, err := os.ReadFile(filepath.Join(dir, "runs", "drc_amp1", "control.sh"))
	require.NoError(t, err)
	second, err := os.ReadFile(filepath.Join(dir, "runs", "drc_amp1_2", "control.sh"))
	require.NoError(t, err)
	assert.Contains(t, string(first), "net=VSS")
	assert.Contains(t, string(second), "net=GNDA")

	firstLog, err := os.ReadFile(filepath.Join(dir, "runs", "drc_amp1", "run.log"))
	require.NoError(t, err)
	secondLog, err := os.ReadFile(filepath.Join(dir, "runs", "drc_amp1_2", "run.log"))
	require.NoError(t, err)
	assert.Contains(t, string(firstLog), "net=VSS")
	assert.Contains(t, string(secondLog), "net=GNDA")
}

func TestApp_RunFailsBeforeLaunchOnBadTemplate(t *testing.T) {
	t.Parallel()
	a, dir := newTestApp(t, "echo {{ undefined_key }}\n", "exit 0\n")

	results, err := a.Run(context.Background(), []Request{
		{Kind: job.DesignRuleCheck, Cell: "amp1"},
	})
	require.Error(t, err)
	assert.Nil(t, results)
	var tplErr *render.TemplateError
	require.ErrorAs(t, err, &tplErr)
	assert.Equal(t, "undefined_key", tplErr.Missing)

	// Nothing launched: the run directory holds no tool log.
	assert.NoFileExists(t, filepath.Join(dir, "runs", "drc_amp1", "run.log"))
}

func TestApp_RunUnconfiguredKindFails(t *testing.T) {
	t.Parallel()
	a, _ := newTestApp(t, "exit 0\n", "exit 0\n")

	_, err := a.Run(context.Background(), []Request{
		{Kind: job.ParasiticExtraction, Cell: "amp1"},
	})
	require.Error(t, err)
}

func TestApp_RequestParamsWinOverConfigured(t *testing.T) {
	t.Parallel()
	a, dir := newTestApp(t, "echo net={{ gnd_net }}\ntouch {{ cell_name }}.summary\n", "exit 0\n")

	results, err := a.Run(context.Background(), []Request{{
		Kind:   job.DesignRuleCheck,
		Cell:   "amp1",
		Params: map[string]string{"gnd_net": "GNDA"},
	}})
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.True(t, results[0].OK())

	raw, err := os.ReadFile(filepath.Join(dir, "runs", "drc_amp1", "run.log"))
	require.NoError(t, err)
	assert.Contains(t, string(raw), "net=GNDA")
}

func TestApp_SummarizeReportsDirtyBatch(t *testing.T) {
	t.Parallel()
	a, _ := newTestApp(t,
		"touch {{ cell_name }}.summary\n",
		"echo ERROR: convergence failure\nexit 1\n")

	results, err := a.Run(context.Background(), []Request{
		{Kind: job.DesignRuleCheck, Cell: "amp1"},
		{Kind: job.Simulation, Cell: "amp1", Corner: "ss"},
	})
	require.NoError(t, err, "a failed job is a result, not a run error")
	require.Len(t, results, 2)

	assert.True(t, results[0].OK())
	assert.Equal(t, job.Failed, results[1].Status)
	assert.Equal(t, 1, results[1].ExitCode)
	assert.Equal(t, 1, results[1].Summary.Errors)
	assert.False(t, a.Summarize(results))
}

func TestApp_RunEmptyBatch(t *testing.T) {
	t.Parallel()
	a, _ := newTestApp(t, "exit 0\n", "exit 0\n")

	results, err := a.Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestNewApp_PanicsOnUnloadableConfig(t *testing.T) {
	t.Parallel()
	cfg, err := NewConfig(Config{ConfigPath: "/nonexistent/flow.hcl"})
	require.NoError(t, err)

	assert.Panics(t, func() { NewApp(&testutil.SafeBuffer{}, cfg) })
}

func TestNewConfig_RequiresConfigPath(t *testing.T) {
	t.Parallel()
	_, err := NewConfig(Config{})
	require.Error(t, err)
}

func TestParseRequest(t *testing.T) {
	t.Parallel()

	req, err := ParseRequest("rcx:amp1")
	require.NoError(t, err)
	assert.Equal(t, Request{Kind: job.ParasiticExtraction, Cell: "amp1"}, req)

	req, err = ParseRequest("sim:amp1:tt")
	require.NoError(t, err)
	assert.Equal(t, Request{Kind: job.Simulation, Cell: "amp1", Corner: "tt"}, req)

	for _, bad := range []string{"amp1", "erc:amp1", "drc:", "sim:amp1:tt:extra"} {
		_, err := ParseRequest(bad)
		assert.Error(t, err, bad)
	}
}
