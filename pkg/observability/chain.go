package observability

import (
	"context"

	"github.com/aretw0/layouts/pkg/domain"
)

// ChainHooks fans every event out to all hooks, in order. Nil callbacks are skipped.
func ChainHooks(hooks ...domain.LifecycleHooks) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnHydrateStart: func(ctx context.Context, e *domain.HydrationEvent) {
			for _, h := range hooks {
				if h.OnHydrateStart != nil {
					h.OnHydrateStart(ctx, e)
				}
			}
		},
		OnHydrateSettle: func(ctx context.Context, e *domain.HydrationEvent) {
			for _, h := range hooks {
				if h.OnHydrateSettle != nil {
					h.OnHydrateSettle(ctx, e)
				}
			}
		},
		OnStepChange: func(ctx context.Context, e *domain.StepEvent) {
			for _, h := range hooks {
				if h.OnStepChange != nil {
					h.OnStepChange(ctx, e)
				}
			}
		},
		OnSessionStart: func(ctx context.Context, e *domain.SessionEvent) {
			for _, h := range hooks {
				if h.OnSessionStart != nil {
					h.OnSessionStart(ctx, e)
				}
			}
		},
		OnSessionEnd: func(ctx context.Context, e *domain.SessionEvent) {
			for _, h := range hooks {
				if h.OnSessionEnd != nil {
					h.OnSessionEnd(ctx, e)
				}
			}
		},
	}
}
