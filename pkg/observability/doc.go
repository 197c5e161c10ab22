// Package observability turns engine lifecycle events into prometheus metrics
// and structured logs. Both are exposed as domain.LifecycleHooks and can be
// combined with ChainHooks.
package observability
