package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/layouts/pkg/domain"
)

// LogHooks logs every event. Hydration starts and wizard moves are logged at
// debug level, failures at warn.
func LogHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnHydrateStart: func(ctx context.Context, e *domain.HydrationEvent) {
			logger.DebugContext(ctx, "hydrate_start", "session_id", e.SessionID, "layout", e.Layout)
		},
		OnHydrateSettle: func(ctx context.Context, e *domain.HydrationEvent) {
			attrs := []any{
				"session_id", e.SessionID,
				"layout", e.Layout,
				"outcome", e.Outcome(),
				"duration", e.Duration,
			}
			if e.Err != nil {
				logger.WarnContext(ctx, "hydrate_settle", append(attrs, "err", e.Err)...)
				return
			}
			logger.InfoContext(ctx, "hydrate_settle", attrs...)
		},
		OnStepChange: func(ctx context.Context, e *domain.StepEvent) {
			logger.DebugContext(ctx, "step_change",
				"session_id", e.SessionID,
				"action", e.Action,
				"from", e.From,
				"to", e.To,
				"step_id", e.StepID,
			)
		},
		OnSessionStart: func(ctx context.Context, e *domain.SessionEvent) {
			logger.InfoContext(ctx, "session_start", "session_id", e.SessionID, "workflow", e.Workflow)
		},
		OnSessionEnd: func(ctx context.Context, e *domain.SessionEvent) {
			logger.InfoContext(ctx, "session_end", "session_id", e.SessionID, "workflow", e.Workflow)
		},
	}
}
