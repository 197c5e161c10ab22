package layout_test

import (
	"testing"

	"github.com/aretw0/layouts/pkg/layout"
	"github.com/stretchr/testify/assert"
)

func TestIsEmpty(t *testing.T) {
	var nilMap map[string]any
	var nilPtr *struct{ ID int }

	tests := []struct {
		name  string
		value any
		want  bool
	}{
		{"nil", nil, true},
		{"nil map", nilMap, true},
		{"nil pointer", nilPtr, true},
		{"empty map", map[string]any{}, true},
		{"empty slice", []any{}, true},
		{"empty string", "", true},
		{"empty struct", struct{}{}, true},
		{"map with key", map[string]any{"id": 7}, false},
		{"slice with item", []string{"a"}, false},
		{"string", "i-123", false},
		{"zero number", 0, false},
		{"false", false, false},
		{"struct with fields", struct{ ID int }{}, false},
		{"pointer to struct", &struct{ ID int }{ID: 1}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, layout.IsEmpty(tt.value))
		})
	}
}
