/*
Package ports defines the driven ports (interfaces) of the layouts engine.

These interfaces decouple sessions from the storage backends that keep their
drafts, so the same workflow can run in a single process or across replicas.

# Key Interfaces

  - SnapshotStore: persists and loads session drafts (domain.Snapshot).
  - DistributedLocker: coordinates concurrent access to a session across instances.
*/
package ports
