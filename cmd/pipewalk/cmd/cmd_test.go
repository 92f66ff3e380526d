package cmd

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deixis/pipewalk"
	"github.com/deixis/pipewalk/internal/pipeline"
)

func workspace(t *testing.T, files map[string]string) {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
	t.Chdir(dir)
}

func TestVersionCmd(t *testing.T) {
	var out bytes.Buffer
	c := NewVersionCmd()
	c.SetArgs([]string{})
	c.SetOut(&out)
	require.NoError(t, c.Execute())
	assert.Equal(t, pipewalk.Version+"\n", out.String())
}

func TestValidateCmd(t *testing.T) {
	workspace(t, map[string]string{
		"pipewalk.yaml": "pipeline:\n  sequence: s\n  children:\n    - task: a\n      run: \"true\"\n",
	})

	var out bytes.Buffer
	c := NewValidateCmd()
	c.SetOut(&out)
	c.SetArgs([]string{})
	require.NoError(t, c.Execute())
	assert.Contains(t, out.String(), "pipewalk.yaml: ok")
	assert.Contains(t, out.String(), "1 tasks, 1 sequences, 0 selectors")
}

func TestValidateCmd_Structural(t *testing.T) {
	workspace(t, map[string]string{"bad.yaml": "pipeline: 7\n"})

	c := NewValidateCmd()
	c.SetArgs([]string{"bad.yaml"})
	c.SetOut(&bytes.Buffer{})
	c.SetErr(&bytes.Buffer{})
	err := c.Execute()
	var se *pipeline.StructuralError
	assert.True(t, errors.As(err, &se), "got %v", err)
}

func TestRunManifest_ExitCodes(t *testing.T) {
	rootOpt.colorMode = colorModeNever
	workspace(t, map[string]string{
		"ok.yaml":   "pipeline:\n  task: a\n  run: \"true\"\n",
		"fail.yaml": "pipeline:\n  task: a\n  run: \"false\"\n",
	})

	require.NoError(t, runManifest(t.Context(), "ok.yaml", &runOpts{}))

	err := runManifest(t.Context(), "fail.yaml", &runOpts{})
	var ee *exitError
	require.True(t, errors.As(err, &ee), "got %v", err)
	assert.Equal(t, pipeline.ExitFailure, ee.code)

	err = runManifest(t.Context(), "missing.yaml", &runOpts{})
	require.True(t, errors.As(err, &ee), "got %v", err)
	assert.Equal(t, pipeline.ExitFailure, ee.code)
}

func TestUseColor(t *testing.T) {
	defer func(mode string) { rootOpt.colorMode = mode }(rootOpt.colorMode)

	rootOpt.colorMode = colorModeAlways
	assert.True(t, useColor(os.Stdout))
	rootOpt.colorMode = colorModeNever
	assert.False(t, useColor(os.Stdout))
}
