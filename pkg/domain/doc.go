/*
Package domain contains the shared vocabulary of the layouts engine.

It is kept free of I/O and of the engine mechanics themselves, so that adapters
(HTTP, stores, metrics) can depend on it without pulling in the manager or the wizard.

# Key Entities

  - Error: structured error information attached to a layout (status, text, message).
  - Snapshot: serializable draft of a session (layout data, active step, warnings).
  - LifecycleHooks: observability callbacks for hydrations and wizard transitions.
*/
package domain
