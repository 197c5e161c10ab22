package process_test

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/aretw0/layouts/pkg/adapters/process"
	"github.com/aretw0/layouts/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("tests rely on sh")
	}
}

func TestRunner_Hydrator(t *testing.T) {
	requireShell(t)
	runner := process.NewRunner()
	runner.Register("instances", "sh", "-c", `echo "[{\"project\": \"$LAYOUTS_DEP_0\"}]"`)
	runner.Register("stdin", "cat")
	runner.Register("text", "echo", "  hello  ")
	runner.Register("fail", "sh", "-c", "echo boom >&2; exit 3")
	ctx := context.Background()

	t.Run("Decodes JSON output", func(t *testing.T) {
		h, err := runner.Hydrator("instances")
		require.NoError(t, err)
		got, err := h(ctx, "infra")
		require.NoError(t, err)
		assert.Equal(t, []any{map[string]any{"project": "infra"}}, got)
	})

	t.Run("Passes dependencies on stdin", func(t *testing.T) {
		h, err := runner.Hydrator("stdin")
		require.NoError(t, err)
		got, err := h(ctx, map[string]any{"id": "web"}, 2.0)
		require.NoError(t, err)
		assert.Equal(t, []any{map[string]any{"id": "web"}, 2.0}, got)
	})

	t.Run("Falls back to text", func(t *testing.T) {
		h, err := runner.Hydrator("text")
		require.NoError(t, err)
		got, err := h(ctx)
		require.NoError(t, err)
		assert.Equal(t, "hello", got)
	})

	t.Run("Failures carry stderr", func(t *testing.T) {
		h, err := runner.Hydrator("fail")
		require.NoError(t, err)
		_, err = h(ctx)
		var info *domain.Error
		require.ErrorAs(t, err, &info)
		assert.Equal(t, http.StatusBadGateway, info.Status)
		assert.Contains(t, info.Message, "Stderr: boom")
	})

	t.Run("Rejects unregistered tools", func(t *testing.T) {
		_, err := runner.Hydrator("hacker_script")
		assert.ErrorContains(t, err, "not registered")
	})

	assert.Equal(t, []string{"fail", "instances", "stdin", "text"}, runner.Tools())
}

func TestRunner_EnvironmentAndBaseDir(t *testing.T) {
	requireShell(t)
	dir := t.TempDir()
	runner := process.NewRunner(
		process.WithBaseDir(dir),
		process.WithTools(map[string]process.ToolConfig{
			"where": {Command: "sh", Args: []string{"-c", `echo "{\"dir\": \"$(pwd)\", \"region\": \"$REGION\"}"`}, Environment: map[string]string{"REGION": "eu"}},
		}),
	)
	h, err := runner.Hydrator("where")
	require.NoError(t, err)
	got, err := h(context.Background())
	require.NoError(t, err)

	resolved, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)
	m := got.(map[string]any)
	assert.Equal(t, "eu", m["region"])
	assert.Equal(t, resolved, m["dir"])
}

func TestLoadTools(t *testing.T) {
	dir := t.TempDir()

	tools, err := process.LoadTools(filepath.Join(dir, "missing.yaml"))
	require.NoError(t, err)
	assert.Empty(t, tools)

	yamlPath := filepath.Join(dir, "tools.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte(`tools:
  - name: instances
    command: ./list-instances.sh
    args: [--json]
  - name: incomplete
`), 0o644))
	tools, err = process.LoadTools(yamlPath)
	require.NoError(t, err)
	require.Contains(t, tools, "instances")
	assert.NotContains(t, tools, "incomplete")
	assert.Equal(t, []string{"--json"}, tools["instances"].Args)

	jsonPath := filepath.Join(dir, "tools.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`{"tools": [{"name": "x", "command": "true"}]}`), 0o644))
	tools, err = process.LoadTools(jsonPath)
	require.NoError(t, err)
	assert.Equal(t, "true", tools["x"].Command)

	require.NoError(t, os.WriteFile(jsonPath, []byte(`{`), 0o644))
	_, err = process.LoadTools(jsonPath)
	assert.Error(t, err)
}
