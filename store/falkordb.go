package store

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/redis/go-redis/v9"
)

// FalkorDB is a Querier over a FalkorDB graph reached through the Redis
// protocol. Statements are submitted with GRAPH.RO_QUERY, the store's
// read-only execution command, so even a query that slipped past validation
// cannot write.
type FalkorDB struct {
	client    redis.UniversalClient
	graphName string
}

var _ Querier = (*FalkorDB)(nil)

// NewFalkorDB creates a querier from a connection string of the form
// falkordb://host:port/graph_name.
func NewFalkorDB(connectionString string) (*FalkorDB, error) {
	u, err := url.Parse(connectionString)
	if err != nil {
		return nil, fmt.Errorf("invalid connection string: %w", err)
	}

	addr := u.Host
	if addr == "" {
		return nil, fmt.Errorf("invalid connection string: missing host")
	}
	graphName := strings.TrimPrefix(u.Path, "/")
	if graphName == "" {
		graphName = "movies"
	}

	client := redis.NewClient(&redis.Options{
		Addr: addr,
	})

	return &FalkorDB{
		client:    client,
		graphName: graphName,
	}, nil
}

// NewFalkorDBWithClient wraps an existing redis client, useful for tests and
// shared connection setups.
func NewFalkorDBWithClient(client redis.UniversalClient, graphName string) *FalkorDB {
	return &FalkorDB{
		client:    client,
		graphName: graphName,
	}
}

// Query executes a read-only graph query and normalizes the reply into a
// tabular Result. The FalkorDB reply is [header, rows, statistics] (the
// statistics segment is dropped); replies in any other shape produce a
// malformed-result error.
func (f *FalkorDB) Query(ctx context.Context, query string) (*Result, error) {
	res, err := f.client.Do(ctx, "GRAPH.RO_QUERY", f.graphName, query).Result()
	if err != nil {
		return nil, err
	}

	reply, ok := res.([]interface{})
	if !ok {
		return nil, &ExecutionError{
			Kind: KindMalformedResult,
			Err:  fmt.Errorf("unexpected response type: %T", res),
		}
	}

	var header, rows []interface{}
	switch len(reply) {
	case 3:
		header, _ = reply[0].([]interface{})
		rows, _ = reply[1].([]interface{})
	case 2:
		// Statement without a projection; nothing tabular to return.
		rows, _ = reply[0].([]interface{})
	default:
		return nil, &ExecutionError{
			Kind: KindMalformedResult,
			Err:  fmt.Errorf("unexpected response length: %d", len(reply)),
		}
	}

	result := &Result{
		Columns: make([]string, len(header)),
	}
	for i, h := range header {
		result.Columns[i] = headerName(h)
	}

	result.Rows = make([]map[string]any, 0, len(rows))
	for _, raw := range rows {
		cells, ok := raw.([]interface{})
		if !ok {
			return nil, &ExecutionError{
				Kind: KindMalformedResult,
				Err:  fmt.Errorf("unexpected row type: %T", raw),
			}
		}

		row := make(map[string]any, len(cells))
		for i, cell := range cells {
			name := fmt.Sprintf("column%d", i)
			if i < len(result.Columns) {
				name = result.Columns[i]
			}
			row[name] = convertValue(cell)
		}
		result.Rows = append(result.Rows, row)
	}

	return result, nil
}

// Close closes the underlying client.
func (f *FalkorDB) Close() error {
	if f.client != nil {
		return f.client.Close()
	}
	return nil
}

// headerName unwraps a header entry. Verbose replies carry plain strings;
// compact ones carry [type, name] pairs.
func headerName(h interface{}) string {
	if pair, ok := h.([]interface{}); ok && len(pair) == 2 {
		return fmt.Sprint(pair[1])
	}
	return fmt.Sprint(h)
}

// convertValue maps a reply value onto the scalar / list-of-scalars model.
// Nested arrays (nodes, edges, collected lists) are converted element-wise.
func convertValue(v interface{}) any {
	switch x := v.(type) {
	case []byte:
		return string(x)
	case []interface{}:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = convertValue(e)
		}
		return out
	default:
		return x
	}
}
