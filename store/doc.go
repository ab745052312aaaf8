// Package store provides access to the movie knowledge graph.
//
// The graph store is consumed through the narrow Querier interface: a
// read-only Cypher statement in, a tabular Result out. A FalkorDB
// implementation over the Redis protocol is included; it submits statements
// with GRAPH.RO_QUERY so the store itself enforces read-only execution,
// independent of the static validation done in the cypher package.
//
// Executor wraps a Querier with the resource bounds the orchestrator relies
// on: a per-query timeout, a row cap with a truncation flag, and a typed
// ExecutionError (timeout, connection lost, malformed result) so callers can
// degrade without inspecting error strings. The executor never retries; the
// next user turn is the natural retry point.
package store
