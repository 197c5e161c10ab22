package middleware

import (
	"context"
	"fmt"
	"regexp"

	"github.com/aretw0/layouts/pkg/domain"
	"github.com/aretw0/layouts/pkg/layout"
	"github.com/aretw0/layouts/pkg/ports"
)

// Mask replaces every value whose key matches a PII pattern.
const Mask = "***"

type piiMiddleware struct {
	next     ports.SnapshotStore
	patterns []*regexp.Regexp
}

// NewPIIMiddleware creates a middleware that masks, in saved drafts, the values
// of object keys matching the patterns. A layout whose own key matches is
// masked as a whole. Masked drafts restore with the mask in place.
func NewPIIMiddleware(patternStrings []string) (Middleware, error) {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid mask pattern %q: %w", p, err)
		}
		patterns[i] = re
	}
	return func(next ports.SnapshotStore) ports.SnapshotStore {
		return &piiMiddleware{next: next, patterns: patterns}
	}, nil
}

func (m *piiMiddleware) Save(ctx context.Context, snapshot *domain.Snapshot) error {
	cloned := *snapshot
	cloned.Layouts = make(map[string]domain.LayoutSnapshot, len(snapshot.Layouts))
	for key, ls := range snapshot.Layouts {
		if m.matches(key) {
			ls.Data = Mask
		} else {
			ls.Data = m.mask(layout.Clone(ls.Data))
		}
		cloned.Layouts[key] = ls
	}
	return m.next.Save(ctx, &cloned)
}

func (m *piiMiddleware) Load(ctx context.Context, sessionID string) (*domain.Snapshot, error) {
	return m.next.Load(ctx, sessionID)
}

func (m *piiMiddleware) Delete(ctx context.Context, sessionID string) error {
	return m.next.Delete(ctx, sessionID)
}

func (m *piiMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

func (m *piiMiddleware) matches(key string) bool {
	for _, p := range m.patterns {
		if p.MatchString(key) {
			return true
		}
	}
	return false
}

// mask rewrites v in place; v must already be a private copy.
func (m *piiMiddleware) mask(v any) any {
	switch c := v.(type) {
	case map[string]any:
		for k, sub := range c {
			if m.matches(k) {
				c[k] = Mask
				continue
			}
			c[k] = m.mask(sub)
		}
	case []any:
		for i, sub := range c {
			c[i] = m.mask(sub)
		}
	}
	return v
}
