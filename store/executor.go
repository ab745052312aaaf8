package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/moviegraph/chat/cypher"
	"github.com/moviegraph/chat/log"
)

// ErrorKind classifies executor failures for the orchestrator's degradation
// policy.
type ErrorKind int

const (
	// KindTimeout means the query exceeded the configured execution deadline.
	KindTimeout ErrorKind = iota

	// KindConnectionLost means the graph store could not be reached or the
	// connection dropped mid-query.
	KindConnectionLost

	// KindMalformedResult means the store replied with something that could
	// not be normalized into a tabular result.
	KindMalformedResult
)

// String returns the string representation of ErrorKind.
func (k ErrorKind) String() string {
	switch k {
	case KindTimeout:
		return "timeout"
	case KindConnectionLost:
		return "connection lost"
	case KindMalformedResult:
		return "malformed result"
	default:
		return fmt.Sprintf("unknown(%d)", k)
	}
}

// ExecutionError is the typed failure returned by the executor.
type ExecutionError struct {
	Kind ErrorKind
	Err  error
}

func (e *ExecutionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("graph execution failed (%s): %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("graph execution failed (%s)", e.Kind)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// Querier is the narrow interface through which the graph store is consumed.
// Implementations must only ever run the statement read-only.
type Querier interface {
	Query(ctx context.Context, query string) (*Result, error)
}

// ErrInvalidQuery is returned when a query that failed validation is handed
// to the executor. The orchestrator is expected to never do this; the check
// exists so the invariant holds even if a caller slips.
var ErrInvalidQuery = errors.New("refusing to execute invalid query")

// Executor runs validated queries against a Querier with a bounded execution
// time and result size. It performs no retries: transient failures surface to
// the caller, which owns the degradation policy.
type Executor struct {
	querier Querier
	timeout time.Duration
	maxRows int
}

// DefaultTimeout bounds a single graph query execution.
const DefaultTimeout = 10 * time.Second

// DefaultMaxRows caps the rows retained from a single query.
const DefaultMaxRows = 50

// NewExecutor creates an executor over the given querier. Zero values for
// timeout and maxRows select the defaults.
func NewExecutor(querier Querier, timeout time.Duration, maxRows int) *Executor {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if maxRows <= 0 {
		maxRows = DefaultMaxRows
	}
	return &Executor{
		querier: querier,
		timeout: timeout,
		maxRows: maxRows,
	}
}

// Execute runs a validated query and returns its normalized result. Rows
// beyond the cap are dropped with Truncated set. Failures are always
// *ExecutionError.
func (e *Executor) Execute(ctx context.Context, query cypher.GeneratedQuery) (*Result, error) {
	if !query.Valid {
		return nil, fmt.Errorf("%w: %s", ErrInvalidQuery, query.Reason)
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	start := time.Now()
	result, err := e.querier.Query(ctx, query.Text)
	if err != nil {
		return nil, e.classify(ctx, err)
	}

	if len(result.Rows) > e.maxRows {
		result.Rows = result.Rows[:e.maxRows]
		result.Truncated = true
	}

	log.Debug("graph query returned %d rows in %s (truncated=%v)",
		result.RowCount(), time.Since(start).Round(time.Millisecond), result.Truncated)
	return result, nil
}

func (e *Executor) classify(ctx context.Context, err error) *ExecutionError {
	var execErr *ExecutionError
	if errors.As(err, &execErr) {
		return execErr
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &ExecutionError{Kind: KindTimeout, Err: err}
	}

	return &ExecutionError{Kind: KindConnectionLost, Err: err}
}
