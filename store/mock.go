package store

import (
	"context"
	"sync"
)

// MockQuerier is an in-memory Querier for tests. It records the queries it
// receives and replies with a fixed result or error.
type MockQuerier struct {
	mu sync.Mutex

	// FixedResult is returned by Query when Err is nil.
	FixedResult *Result

	// Err, when set, is returned by every Query call.
	Err error

	queries []string
}

var _ Querier = (*MockQuerier)(nil)

// Query records the query and returns the configured reply.
func (m *MockQuerier) Query(ctx context.Context, query string) (*Result, error) {
	m.mu.Lock()
	m.queries = append(m.queries, query)
	m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.Err != nil {
		return nil, m.Err
	}
	if m.FixedResult == nil {
		return &Result{}, nil
	}
	return m.FixedResult, nil
}

// Queries returns the queries received so far.
func (m *MockQuerier) Queries() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.queries))
	copy(out, m.queries)
	return out
}
