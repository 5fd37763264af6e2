package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/icflow/internal/job"
)

func TestParse_FullInvocation(t *testing.T) {
	var out bytes.Buffer
	inv, shouldExit, err := Parse([]string{
		"--config", "/proj/flow.hcl",
		"--log-format", "text",
		"--log-level", "debug",
		"--keep-temps",
		"drc:amp1", "sim:amp1:tt",
	}, &out)

	require.NoError(t, err)
	assert.False(t, shouldExit)
	require.NotNil(t, inv)
	assert.Equal(t, "/proj/flow.hcl", inv.Config.ConfigPath)
	assert.Equal(t, "text", inv.Config.LogFormat)
	assert.Equal(t, "debug", inv.Config.LogLevel)
	assert.True(t, inv.Config.KeepTemporaries)

	require.Len(t, inv.Requests, 2)
	assert.Equal(t, job.DesignRuleCheck, inv.Requests[0].Kind)
	assert.Equal(t, "amp1", inv.Requests[0].Cell)
	assert.Equal(t, "tt", inv.Requests[1].Corner)
}

func TestParse_ShorthandConfigFlag(t *testing.T) {
	var out bytes.Buffer
	inv, shouldExit, err := Parse([]string{"-c", "/proj/flow.hcl", "lvs:buf4"}, &out)

	require.NoError(t, err)
	assert.False(t, shouldExit)
	assert.Equal(t, "/proj/flow.hcl", inv.Config.ConfigPath)
}

func TestParse_EvalWithoutRequests(t *testing.T) {
	var out bytes.Buffer
	inv, shouldExit, err := Parse([]string{"-c", "/proj/flow.hcl", "--eval", "(list_cells)"}, &out)

	require.NoError(t, err)
	assert.False(t, shouldExit)
	assert.Equal(t, "(list_cells)", inv.Eval)
	assert.Empty(t, inv.Requests)
}

func TestParse_NoArgsPrintsUsage(t *testing.T) {
	var out bytes.Buffer
	inv, shouldExit, err := Parse(nil, &out)

	require.NoError(t, err)
	assert.True(t, shouldExit)
	assert.Nil(t, inv)
	assert.Contains(t, out.String(), "Usage:")
}

func TestParse_ConfigWithoutRequestsPrintsUsage(t *testing.T) {
	var out bytes.Buffer
	_, shouldExit, err := Parse([]string{"-c", "/proj/flow.hcl"}, &out)

	require.NoError(t, err)
	assert.True(t, shouldExit)
	assert.Contains(t, out.String(), "Usage:")
}

func TestParse_HelpFlag(t *testing.T) {
	var out bytes.Buffer
	_, shouldExit, err := Parse([]string{"-h"}, &out)

	require.NoError(t, err)
	assert.True(t, shouldExit)
	assert.Contains(t, out.String(), "Usage:")
}

func TestParse_InvalidLogFormat(t *testing.T) {
	var out bytes.Buffer
	_, _, err := Parse([]string{"-c", "/f.hcl", "--log-format", "xml", "drc:amp1"}, &out)

	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 2, exitErr.Code)
	assert.Contains(t, exitErr.Message, "log-format")
}

func TestParse_InvalidLogLevel(t *testing.T) {
	var out bytes.Buffer
	_, _, err := Parse([]string{"-c", "/f.hcl", "--log-level", "verbose", "drc:amp1"}, &out)

	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 2, exitErr.Code)
}

func TestParse_MalformedRequest(t *testing.T) {
	var out bytes.Buffer
	_, _, err := Parse([]string{"-c", "/f.hcl", "erc:amp1"}, &out)

	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 2, exitErr.Code)
	assert.Contains(t, exitErr.Message, "erc")
}

func TestParse_UnknownFlag(t *testing.T) {
	var out bytes.Buffer
	_, _, err := Parse([]string{"--bogus"}, &out)

	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 2, exitErr.Code)
}
