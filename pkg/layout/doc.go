/*
Package layout implements the data-layout hydration manager.

A screen declares a static map of layouts (Definitions). Each layout holds a piece
of data that is either entered by the user (Assign, Update) or derived from other
layouts by an asynchronous Hydrator once all of its dependencies hold data.

# Hydration

Hydrate resolves only the immediate dependencies of a layout; callers hydrate
dependencies first. When a dependency is empty the hydrator is not invoked and the
layout gets a missing-dependency error instead.

Successful results are merged into the current data:

  - a sequence replacing a non-sequence (or the reverse) replaces the data
  - two sequences are concatenated, which is how paginated layouts load more
  - two maps are shallow-merged, the incoming keys winning

Failures keep the previous data and only set the error.

# Concurrency

The Manager is safe for concurrent use. Mutations are serialized and observed by
subscribers in commit order. Hydrations of the same layout are neither
deduplicated nor cancelled.
*/
package layout
