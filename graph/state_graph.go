package graph

import (
	"context"
	"fmt"

	"github.com/moviegraph/chat/log"
)

// StateGraph is a directed graph whose nodes transform a shared state value.
// Routing between nodes is either static (AddEdge) or decided at runtime from
// the state (AddConditionalEdge). Execution is strictly sequential: exactly
// one node runs at a time until END is reached.
type StateGraph struct {
	// nodes is a map of node names to their corresponding Node objects
	nodes map[string]Node

	// edges is a slice of Edge objects representing the connections between nodes
	edges []Edge

	// conditionalEdges maps a "From" node to a function deriving the "To" node
	conditionalEdges map[string]func(ctx context.Context, state any) string

	// entryPoint is the name of the entry point node in the graph
	entryPoint string
}

// NewStateGraph creates a new instance of StateGraph.
func NewStateGraph() *StateGraph {
	return &StateGraph{
		nodes:            make(map[string]Node),
		conditionalEdges: make(map[string]func(ctx context.Context, state any) string),
	}
}

// AddNode adds a new node to the state graph with the given name, description and function
func (g *StateGraph) AddNode(name string, description string, fn func(ctx context.Context, state any) (any, error)) {
	g.nodes[name] = Node{
		Name:        name,
		Description: description,
		Function:    fn,
	}
}

// AddEdge adds a new edge to the state graph between the "from" and "to" nodes
func (g *StateGraph) AddEdge(from, to string) {
	g.edges = append(g.edges, Edge{
		From: from,
		To:   to,
	})
}

// AddConditionalEdge adds a conditional edge where the target node is determined at runtime
func (g *StateGraph) AddConditionalEdge(from string, condition func(ctx context.Context, state any) string) {
	g.conditionalEdges[from] = condition
}

// SetEntryPoint sets the entry point node name for the state graph
func (g *StateGraph) SetEntryPoint(name string) {
	g.entryPoint = name
}

// StateRunnable represents a compiled state graph that can be invoked
type StateRunnable struct {
	graph *StateGraph
}

// Compile compiles the state graph and returns a StateRunnable instance
func (g *StateGraph) Compile() (*StateRunnable, error) {
	if g.entryPoint == "" {
		return nil, ErrEntryPointNotSet
	}
	if _, ok := g.nodes[g.entryPoint]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, g.entryPoint)
	}

	return &StateRunnable{graph: g}, nil
}

// Invoke executes the compiled state graph with the given input state.
// The state returned by each node is passed to the next one; the final state
// is returned when END is reached. Node errors and context cancellation abort
// execution immediately.
func (r *StateRunnable) Invoke(ctx context.Context, initialState any) (any, error) {
	state := initialState
	current := r.graph.entryPoint

	for current != END {
		if err := ctx.Err(); err != nil {
			return state, err
		}

		node, ok := r.graph.nodes[current]
		if !ok {
			return state, fmt.Errorf("%w: %s", ErrNodeNotFound, current)
		}

		log.Debug("executing node %q", node.Name)
		newState, err := node.Function(ctx, state)
		if err != nil {
			return state, fmt.Errorf("node %s: %w", current, err)
		}
		state = newState

		next, err := r.graph.nextNode(ctx, current, state)
		if err != nil {
			return state, err
		}
		current = next
	}

	return state, nil
}

// nextNode resolves the successor of a node, preferring a conditional edge.
func (g *StateGraph) nextNode(ctx context.Context, from string, state any) (string, error) {
	if condition, ok := g.conditionalEdges[from]; ok {
		return condition(ctx, state), nil
	}

	for _, edge := range g.edges {
		if edge.From == from {
			return edge.To, nil
		}
	}

	return "", fmt.Errorf("%w: %s", ErrNoOutgoingEdge, from)
}
