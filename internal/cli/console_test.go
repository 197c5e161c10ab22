package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aretw0/layouts"
	"github.com/aretw0/layouts/pkg/adapters/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const workflowYAML = `name: restart-instance
layouts:
  projects:
    hydrator:
      kind: static
      args:
        value: [{id: infra}]
    cache: true
  project: {}
  instances:
    deps: [project]
    hydrator: echo
    transform: {kind: wrap, args: {field: items}}
steps:
  - id: project
    title: Project
    hydrates: [projects]
  - id: instance
    title: Instance
    hydrates: [instances]
  - id: confirm
    title: Confirm
`

func newEngine(t *testing.T, opts ...layouts.Option) *layouts.Engine {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "restart.yaml"), []byte(workflowYAML), 0o644))
	eng, err := layouts.New(dir, opts...)
	require.NoError(t, err)
	return eng
}

func newConsole(t *testing.T, opts ...layouts.Option) (*Console, *bytes.Buffer) {
	t.Helper()
	eng := newEngine(t, opts...)
	ctx := context.Background()
	sess, err := eng.Start(ctx, "restart-instance")
	require.NoError(t, err)
	require.NoError(t, sess.Mounted(ctx))

	var out bytes.Buffer
	return NewConsole(eng.Sessions(), sess, &out, false), &out
}

func TestConsole_Navigation(t *testing.T) {
	c, out := newConsole(t)
	ctx := context.Background()

	require.NoError(t, c.Exec(ctx, "next"))
	assert.Contains(t, out.String(), "hydration failed")
	assert.Contains(t, out.String(), "Step 2/3: Instance")
	assert.Equal(t, 1, c.Session().Wizard.Active())

	require.NoError(t, c.Exec(ctx, "back"))
	assert.Equal(t, 0, c.Session().Wizard.Active())
	require.NoError(t, c.Exec(ctx, "back"))
	assert.Equal(t, 0, c.Session().Wizard.Active(), "back never goes below the first step")

	require.NoError(t, c.Exec(ctx, "goto 2"))
	assert.Equal(t, 2, c.Session().Wizard.Active())
	assert.Error(t, c.Exec(ctx, "goto two"))

	require.NoError(t, c.Exec(ctx, "reset"))
	assert.Equal(t, 0, c.Session().Wizard.Active())
}

func TestConsole_EditLayouts(t *testing.T) {
	c, out := newConsole(t)
	ctx := context.Background()

	require.NoError(t, c.Exec(ctx, `set project {"id": "infra"}`))
	require.NoError(t, c.Exec(ctx, `patch project owner.name "ops"`))
	assert.Equal(t,
		map[string]any{"id": "infra", "owner": map[string]any{"name": "ops"}},
		c.Session().Layouts.Query("project").Value())

	require.NoError(t, c.Exec(ctx, "hydrate instances"))
	items, _ := c.Session().Layouts.Query("instances").Get("items.0.id")
	assert.Equal(t, "infra", items)
	assert.Contains(t, out.String(), "instances (ready)")

	out.Reset()
	require.NoError(t, c.Exec(ctx, "layouts"))
	assert.Contains(t, out.String(), "project")
	assert.Contains(t, out.String(), "ready")

	assert.ErrorContains(t, c.Exec(ctx, "set nope {}"), `unknown layout "nope"`)
	assert.ErrorContains(t, c.Exec(ctx, "set project {oops"), "invalid JSON")
	assert.ErrorContains(t, c.Exec(ctx, "set project"), "missing JSON value")
}

func TestConsole_Warnings(t *testing.T) {
	c, out := newConsole(t)
	ctx := context.Background()

	require.NoError(t, c.Exec(ctx, "warn quota almost reached"))
	assert.Equal(t, []string{"quota almost reached"}, c.Session().Wizard.Warnings())
	assert.Contains(t, out.String(), "quota almost reached")

	require.NoError(t, c.Exec(ctx, "dismiss quota almost reached"))
	assert.Empty(t, c.Session().Wizard.Warnings())
	assert.Error(t, c.Exec(ctx, "dismiss quota almost reached"))
}

func TestConsole_SaveAndGraph(t *testing.T) {
	c, out := newConsole(t)
	ctx := context.Background()
	assert.Error(t, c.Exec(ctx, "save"), "no store configured")

	c, out = newConsole(t, layouts.WithStore(memory.NewStore()))
	require.NoError(t, c.Exec(ctx, "save"))
	assert.Contains(t, out.String(), "saved")
	require.NoError(t, c.Exec(ctx, "save"))
	assert.Contains(t, out.String(), "unchanged")

	out.Reset()
	require.NoError(t, c.Exec(ctx, "graph"))
	assert.True(t, strings.HasPrefix(out.String(), "graph TD"))
}

func TestConsole_UnknownAndQuit(t *testing.T) {
	c, _ := newConsole(t)
	ctx := context.Background()
	assert.NoError(t, c.Exec(ctx, "   "))
	assert.ErrorContains(t, c.Exec(ctx, "dance"), "unknown command")
	assert.ErrorIs(t, c.Exec(ctx, "quit"), errQuit)
}

func TestRunSession(t *testing.T) {
	store := memory.NewStore()
	eng := newEngine(t, layouts.WithStore(store))
	in := strings.NewReader("set project {\"id\": \"web\"}\nnext\nquit\n")
	var out bytes.Buffer

	err := RunSession(context.Background(), eng, RunOptions{AutoSave: true}, in, &out)
	require.NoError(t, err)

	ids, err := store.List(context.Background())
	require.NoError(t, err)
	require.Len(t, ids, 1)
	assert.Contains(t, out.String(), "Step 2/3: Instance")
	assert.Contains(t, out.String(), "Draft '"+ids[0]+"' saved.")

	in = strings.NewReader("show\n")
	out.Reset()
	err = RunSession(context.Background(), eng, RunOptions{SessionID: ids[0]}, in, &out)
	require.NoError(t, err, "EOF ends the console")
	assert.Contains(t, out.String(), "Resuming 'restart-instance' at step 2")
}

func TestRunSession_Cancelled(t *testing.T) {
	eng := newEngine(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r, w := io.Pipe()
	defer w.Close()
	var out bytes.Buffer
	err := RunSession(ctx, eng, RunOptions{Workflow: "restart-instance"}, r, &out)
	assert.NoError(t, err)
	assert.Contains(t, out.String(), "Interrupted at step 1.")
}
