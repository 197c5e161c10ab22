/*
Package session keeps live wizard sessions and their drafts.

Each session is an independent arena: its own layout manager and wizard
controller opened from a compiled workflow. The manager serializes access per
session with reference-counted local locks, optionally backed by a
distributed lock, and persists drafts through a ports.SnapshotStore.
*/
package session
