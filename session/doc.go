// Package session owns per-session conversation state.
//
// A State is an ordered, windowed sequence of turns: once the configured
// window is exceeded the oldest non-system turns are dropped, so memory and
// prompt size stay bounded no matter how long the conversation runs. The
// system turn, when present, is never evicted. Restart clears a state back
// to just the system turn while keeping the session identifier, which makes
// a restarted session indistinguishable from a fresh one.
//
// The Manager maps session ids to independent states and serializes turns
// within a session; different sessions proceed concurrently without shared
// mutable state. An optional Store (in-memory, SQLite, Postgres or Redis)
// persists snapshots so conversations survive process restarts.
package session
