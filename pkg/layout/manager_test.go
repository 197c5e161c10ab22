package layout_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aretw0/layouts/pkg/domain"
	"github.com/aretw0/layouts/pkg/layout"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func wait(t *testing.T, p *layout.Pending) error {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	select {
	case <-p.Done():
		return p.Err()
	case <-ctx.Done():
		t.Fatalf("hydration of %q did not settle", p.Layout())
		return nil
	}
}

func TestNew(t *testing.T) {
	t.Run("seeds loading flags", func(t *testing.T) {
		m, err := layout.New(layout.Definitions{
			"instance": {},
			"details": {
				Deps:     []string{"instance"},
				Hydrator: func(ctx context.Context, deps ...any) (any, error) { return nil, nil },
			},
		})
		require.NoError(t, err)

		assert.False(t, m.Node("instance").IsLoading, "user-entered layouts start idle")
		assert.True(t, m.Node("details").IsLoading, "hydrated layouts start loading")
		assert.Equal(t, map[string]any{}, m.Node("details").Data)
		assert.Equal(t, []string{"details", "instance"}, m.Keys())
	})

	t.Run("unknown dependency fails fast", func(t *testing.T) {
		_, err := layout.New(layout.Definitions{
			"details": {Deps: []string{"instance"}},
		})
		require.Error(t, err)
		assert.ErrorIs(t, err, layout.ErrUnknownDependency)
		assert.Contains(t, err.Error(), `"instance"`)

		assert.Panics(t, func() {
			layout.MustNew(layout.Definitions{"a": {Deps: []string{"b"}}})
		})
	})

	t.Run("custom default", func(t *testing.T) {
		m := layout.MustNew(layout.Definitions{
			"pages": {Default: func() any { return []any{} }},
		})
		assert.Equal(t, []any{}, m.Node("pages").Data)
	})
}

func TestManager_EndToEnd(t *testing.T) {
	var calls atomic.Int32
	var received []any

	m := layout.MustNew(layout.Definitions{
		"a": {},
		"b": {
			Deps: []string{"a"},
			Hydrator: func(ctx context.Context, deps ...any) (any, error) {
				calls.Add(1)
				received = deps
				return map[string]any{"status": "ok"}, nil
			},
		},
	})

	m.Assign("a", map[string]any{"id": 7})
	require.NoError(t, wait(t, m.Hydrate(context.Background(), "b")))

	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, []any{map[string]any{"id": 7}}, received)

	b := m.Node("b")
	assert.Equal(t, map[string]any{"status": "ok"}, b.Data)
	assert.False(t, b.IsLoading)
	assert.NoError(t, b.Err)
}

func TestManager_DependencyGate(t *testing.T) {
	for name, parent := range map[string]any{
		"empty map":   map[string]any{},
		"empty slice": []any{},
		"nil":         nil,
		"empty text":  "",
	} {
		t.Run(name, func(t *testing.T) {
			var called bool
			m := layout.MustNew(layout.Definitions{
				"parent": {},
				"child": {
					Deps: []string{"parent"},
					Hydrator: func(ctx context.Context, deps ...any) (any, error) {
						called = true
						return "x", nil
					},
				},
			})
			m.Update("parent", func(n *layout.NodeState) { n.Data = parent })

			err := wait(t, m.Hydrate(context.Background(), "child"))

			assert.False(t, called, "hydrator must not run")
			require.Error(t, err)
			assert.True(t, domain.IsMissingDependency(err))

			child := m.Node("child")
			assert.False(t, child.IsLoading)
			require.Error(t, child.Err)
			assert.Contains(t, child.Err.Error(), `"child"`)
			assert.Contains(t, child.Err.Error(), `"parent"`)

			var info *domain.Error
			require.ErrorAs(t, child.Err, &info)
			assert.Equal(t, 404, info.Status)
		})
	}
}

func TestManager_ErrorPreservesData(t *testing.T) {
	fail := errors.New("503 upstream")
	m := layout.MustNew(layout.Definitions{
		"quota": {
			Hydrator: func(ctx context.Context, deps ...any) (any, error) {
				return nil, fail
			},
		},
	})
	m.Assign("quota", map[string]any{"cpu": 4})
	before := m.Node("quota").Data

	err := wait(t, m.Hydrate(context.Background(), "quota"))
	assert.ErrorIs(t, err, fail)

	after := m.Node("quota")
	assert.Equal(t, before, after.Data)
	assert.ErrorIs(t, after.Err, fail)
	assert.False(t, after.IsLoading)
}

func TestManager_MergePolicy(t *testing.T) {
	ctx := context.Background()

	t.Run("array accumulation", func(t *testing.T) {
		pages := [][]any{{"a"}, {"b"}}
		var n atomic.Int32
		m := layout.MustNew(layout.Definitions{
			"instances": {
				Hydrator: func(ctx context.Context, deps ...any) (any, error) {
					return pages[n.Add(1)-1], nil
				},
			},
		})

		require.NoError(t, wait(t, m.Hydrate(ctx, "instances")))
		require.NoError(t, wait(t, m.Hydrate(ctx, "instances")))
		assert.Equal(t, []any{"a", "b"}, m.Node("instances").Data)
	})

	t.Run("object patch", func(t *testing.T) {
		m := layout.MustNew(layout.Definitions{
			"draft": {
				Hydrator: func(ctx context.Context, deps ...any) (any, error) {
					return map[string]any{"y": 2}, nil
				},
			},
		})
		m.Assign("draft", map[string]any{"x": 1})

		require.NoError(t, wait(t, m.Hydrate(ctx, "draft")))
		assert.Equal(t, map[string]any{"x": 1, "y": 2}, m.Node("draft").Data)
	})

	t.Run("type mismatch replaces", func(t *testing.T) {
		m := layout.MustNew(layout.Definitions{
			"zones": {
				Hydrator: func(ctx context.Context, deps ...any) (any, error) {
					return []any{"us-east1-b"}, nil
				},
			},
		})

		require.NoError(t, wait(t, m.Hydrate(ctx, "zones")))
		assert.Equal(t, []any{"us-east1-b"}, m.Node("zones").Data)
	})

	t.Run("overwrite", func(t *testing.T) {
		m := layout.MustNew(layout.Definitions{
			"zones": {
				Hydrator: func(ctx context.Context, deps ...any) (any, error) {
					return []any{"b"}, nil
				},
			},
		})
		m.Assign("zones", []any{"a"})

		require.NoError(t, wait(t, m.Hydrate(ctx, "zones", layout.Overwrite())))
		assert.Equal(t, []any{"b"}, m.Node("zones").Data)
	})
}

func TestManager_Transforms(t *testing.T) {
	m := layout.MustNew(layout.Definitions{
		"ok": {
			Hydrator: func(ctx context.Context, deps ...any) (any, error) {
				return map[string]any{"items": []any{1, 2}}, nil
			},
			TransformResponse: func(raw any) any {
				return raw.(map[string]any)["items"]
			},
		},
		"bad": {
			Hydrator: func(ctx context.Context, deps ...any) (any, error) {
				return nil, errors.New("boom")
			},
			TransformError: func(err error) error {
				return domain.NewError(502, "resize failed", err)
			},
		},
	})

	require.NoError(t, wait(t, m.Hydrate(context.Background(), "ok")))
	assert.Equal(t, []any{1, 2}, m.Node("ok").Data)

	err := wait(t, m.Hydrate(context.Background(), "bad"))
	var info *domain.Error
	require.ErrorAs(t, err, &info)
	assert.Equal(t, 502, info.Status)
	assert.Equal(t, "resize failed", info.Message)
}

func TestManager_HydratorPanicBecomesError(t *testing.T) {
	m := layout.MustNew(layout.Definitions{
		"flaky": {
			Hydrator: func(ctx context.Context, deps ...any) (any, error) {
				panic("nil client")
			},
		},
	})

	err := wait(t, m.Hydrate(context.Background(), "flaky"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nil client")
	assert.False(t, m.Node("flaky").IsLoading)
}

func TestManager_ErrorTransformPanicBecomesError(t *testing.T) {
	m := layout.MustNew(layout.Definitions{
		"flaky": {
			Hydrator: func(ctx context.Context, deps ...any) (any, error) {
				return nil, errors.New("boom")
			},
			TransformError: func(err error) error {
				panic("bad mapping")
			},
		},
	})

	err := wait(t, m.Hydrate(context.Background(), "flaky"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad mapping")
	assert.False(t, m.Node("flaky").IsLoading)
	assert.Error(t, m.Node("flaky").Err)
}

func TestManager_RecoveredPatchPanicReleasesLock(t *testing.T) {
	m := layout.MustNew(layout.Definitions{"a": {}})

	assert.Panics(t, func() {
		m.Update("a", func(*layout.NodeState) { panic("bad patch") })
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		m.Assign("a", map[string]any{"ok": true})
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Assign blocked after a recovered panic")
	}
	assert.Equal(t, map[string]any{"ok": true}, m.Node("a").Data)
}

func TestManager_HydrateStartClearsError(t *testing.T) {
	release := make(chan struct{})
	var attempt atomic.Int32
	m := layout.MustNew(layout.Definitions{
		"status": {
			Hydrator: func(ctx context.Context, deps ...any) (any, error) {
				if attempt.Add(1) == 1 {
					return nil, errors.New("first attempt fails")
				}
				<-release
				return map[string]any{"ready": true}, nil
			},
		},
	})

	require.Error(t, wait(t, m.Hydrate(context.Background(), "status")))

	p := m.Hydrate(context.Background(), "status")
	node := m.Node("status")
	assert.True(t, node.IsLoading)
	assert.NoError(t, node.Err, "retry clears the stale error immediately")

	close(release)
	require.NoError(t, wait(t, p))
}

func TestManager_NoHydratorIsNoop(t *testing.T) {
	m := layout.MustNew(layout.Definitions{"selection": {}})
	m.Assign("selection", "i-1")

	p := m.Hydrate(context.Background(), "selection")
	require.NoError(t, wait(t, p))
	assert.Equal(t, "i-1", m.Node("selection").Data)
}

func TestManager_Reset(t *testing.T) {
	m := layout.MustNew(layout.Definitions{
		"instance": {},
		"pages":    {Default: func() any { return []any{} }},
	})
	m.Assign("instance", map[string]any{"id": 7})
	m.Assign("pages", []any{"p1"})
	m.Update("instance", layout.SetError(errors.New("stale")))

	m.Reset()

	for key, node := range m.Snapshot() {
		assert.True(t, node.IsLoading, key)
		assert.NoError(t, node.Err, key)
	}
	assert.Equal(t, map[string]any{}, m.Node("instance").Data)
	assert.Equal(t, []any{}, m.Node("pages").Data)
}

func TestManager_AssignAndUpdate(t *testing.T) {
	m := layout.MustNew(layout.Definitions{"instance": {}})

	m.Update("instance", layout.SetLoading(true))
	m.Assign("instance", map[string]any{"id": 1})
	assert.False(t, m.Node("instance").IsLoading)

	m.Assign("instance", nil)
	assert.Equal(t, map[string]any{}, m.Node("instance").Data, "nil assign stores the empty default")

	m.Assign("instance", map[string]any{"id": 2})
	m.Update("instance", layout.SetData(nil), layout.SetError(errors.New("x")))
	assert.Equal(t, map[string]any{"id": 2}, m.Node("instance").Data)
	assert.Error(t, m.Node("instance").Err)

	m.Update("instance", layout.ClearError())
	assert.NoError(t, m.Node("instance").Err)
}

func TestManager_UnknownKeyPanics(t *testing.T) {
	m := layout.MustNew(layout.Definitions{"a": {}})

	assert.False(t, m.Has("ghost"))
	assert.Panics(t, func() { m.Assign("ghost", 1) })
	assert.Panics(t, func() { m.Hydrate(context.Background(), "ghost") })
	assert.Panics(t, func() { m.Node("ghost") })

	m.Assign("a", map[string]any{"id": 1})
	assert.Equal(t, map[string]any{"id": 1}, m.Node("a").Data)
}

func TestManager_Mount(t *testing.T) {
	var calls atomic.Int32
	hydrator := func(ctx context.Context, deps ...any) (any, error) {
		calls.Add(1)
		return map[string]any{"n": calls.Load()}, nil
	}
	m := layout.MustNew(layout.Definitions{
		"cached":   {Hydrator: hydrator, Cache: true},
		"uncached": {Hydrator: hydrator},
	})
	ctx := context.Background()

	require.NoError(t, m.MountAll(ctx, "cached", "uncached").Wait(ctx))
	assert.Equal(t, int32(2), calls.Load())

	assert.False(t, m.ShouldHydrate("cached"))
	assert.True(t, m.ShouldHydrate("uncached"))

	require.NoError(t, wait(t, m.Mount(ctx, "cached")))
	assert.Equal(t, int32(2), calls.Load(), "cached layout is not hydrated again")

	require.NoError(t, wait(t, m.Hydrate(ctx, "cached")))
	assert.Equal(t, int32(3), calls.Load(), "explicit hydrate still forces it")
}

func TestManager_SubscribeObservesCommitOrder(t *testing.T) {
	m := layout.MustNew(layout.Definitions{"counter": {}})

	var mu sync.Mutex
	var versions []uint64
	cancel := m.Subscribe(func(c layout.Change) {
		mu.Lock()
		defer mu.Unlock()
		versions = append(versions, c.Version)
	})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			m.Assign("counter", n)
		}(i)
	}
	wg.Wait()
	cancel()
	m.Assign("counter", 99)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, versions, 20)
	for i := 1; i < len(versions); i++ {
		assert.Less(t, versions[i-1], versions[i])
	}
	assert.Equal(t, uint64(21), m.Version())
}

func TestManager_LifecycleHooks(t *testing.T) {
	var mu sync.Mutex
	var events []*domain.HydrationEvent
	record := func(ctx context.Context, e *domain.HydrationEvent) {
		mu.Lock()
		defer mu.Unlock()
		events = append(events, e)
	}

	m := layout.MustNew(layout.Definitions{
		"a": {},
		"b": {
			Deps:     []string{"a"},
			Hydrator: func(ctx context.Context, deps ...any) (any, error) { return "ok", nil },
		},
	}, layout.WithLifecycleHooks(domain.LifecycleHooks{
		OnHydrateStart:  record,
		OnHydrateSettle: record,
	}), layout.WithSessionID("s-1"))

	_ = wait(t, m.Hydrate(context.Background(), "b"))
	m.Assign("a", "x")
	_ = wait(t, m.Hydrate(context.Background(), "b"))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, events, 4)
	assert.Equal(t, domain.EventHydrateStart, events[0].Type)
	assert.Equal(t, "missing_dependency", events[1].Outcome())
	assert.Equal(t, "success", events[3].Outcome())
	assert.Equal(t, "s-1", events[3].SessionID)
}

func TestManager_ExportRestore(t *testing.T) {
	defs := layout.Definitions{
		"instance": {},
		"details": {
			Deps:     []string{"instance"},
			Hydrator: func(ctx context.Context, deps ...any) (any, error) { return nil, errors.New("down") },
		},
	}
	src := layout.MustNew(defs)
	src.Assign("instance", map[string]any{"id": 7})
	_ = wait(t, src.Hydrate(context.Background(), "details"))

	exported := src.Export()
	exported["removed"] = domain.LayoutSnapshot{Data: "ignored"}

	dst := layout.MustNew(defs)
	dst.Restore(exported)

	assert.Equal(t, map[string]any{"id": 7}, dst.Node("instance").Data)
	require.Error(t, dst.Node("details").Err)
	assert.Equal(t, "down", domain.AsError(dst.Node("details").Err).Message)
}

func TestBatch_Wait(t *testing.T) {
	fail := errors.New("nope")
	m := layout.MustNew(layout.Definitions{
		"slow": {
			Hydrator: func(ctx context.Context, deps ...any) (any, error) {
				time.Sleep(20 * time.Millisecond)
				return "done", nil
			},
		},
		"bad": {
			Hydrator: func(ctx context.Context, deps ...any) (any, error) { return nil, fail },
		},
	})
	ctx := context.Background()

	batch := layout.Batch{m.Hydrate(ctx, "slow"), m.Hydrate(ctx, "bad"), nil}
	err := batch.Wait(ctx)
	assert.ErrorIs(t, err, fail)
	assert.True(t, batch.Settled(), "Wait returns only after every hydration settled")
	assert.Equal(t, "done", m.Node("slow").Data)
}
