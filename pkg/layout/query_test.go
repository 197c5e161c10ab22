package layout_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/aretw0/layouts/pkg/layout"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type instanceRef struct {
	Zone string
	Name string
}

func (r instanceRef) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]string{"selfLink": r.Zone + "/" + r.Name})
}

type brokenRef struct{}

func (brokenRef) MarshalJSON() ([]byte, error) { return nil, errors.New("no") }

func TestQuery(t *testing.T) {
	m := layout.MustNew(layout.Definitions{
		"instance": {},
		"config": {
			Hydrator: func(ctx context.Context, deps ...any) (any, error) {
				return map[string]any{"replicas": 2}, nil
			},
		},
	})

	t.Run("display value uses json hook", func(t *testing.T) {
		q := m.Query("instance")
		q.Assign(instanceRef{Zone: "us-east1-b", Name: "web-1"})
		assert.Equal(t, map[string]any{"selfLink": "us-east1-b/web-1"}, q.DisplayValue())

		q.Assign(brokenRef{})
		assert.Equal(t, brokenRef{}, q.DisplayValue())

		q.Assign(map[string]any{"id": 1})
		assert.Equal(t, map[string]any{"id": 1}, q.DisplayValue())
	})

	t.Run("update data by path", func(t *testing.T) {
		q := m.Query("config")
		require.NoError(t, q.Hydrate(context.Background()).Wait(context.Background()))
		assert.False(t, q.IsLoading())
		assert.NoError(t, q.Err())

		require.NoError(t, q.UpdateData("spec.containers[0].image", "nginx:1.27"))
		v, ok := q.Get("spec.containers[0].image")
		assert.True(t, ok)
		assert.Equal(t, "nginx:1.27", v)
		assert.Equal(t, 2, q.Value().(map[string]any)["replicas"])

		err := q.UpdateData("replicas.count", 3)
		assert.ErrorIs(t, err, layout.ErrInvalidPath)
		assert.Equal(t, 2, q.Value().(map[string]any)["replicas"], "failed update leaves data untouched")
	})

	t.Run("unknown key", func(t *testing.T) {
		assert.Panics(t, func() { m.Query("ghost") })
	})
}
