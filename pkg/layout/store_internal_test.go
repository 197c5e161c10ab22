package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type bogusAction struct{}

func (bogusAction) actionName() string { return "bogus" }

func TestStore_UnknownActionPanics(t *testing.T) {
	s := newStore(Definitions{"a": {}})
	assert.PanicsWithValue(t, "layout: unknown action layout.bogusAction", func() {
		s.reduce(bogusAction{})
	})
}
