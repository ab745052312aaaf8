// Package graph provides a small state-machine engine for sequencing the
// chatbot's per-turn pipeline.
//
// A StateGraph is a directed graph of named nodes. Each node is a function
// that receives the current state, transforms it and hands it to the next
// node. Edges are either static or conditional; conditional edges inspect the
// state at runtime to pick the successor, which keeps branching (such as
// "skip graph execution when no context is needed") explicit and testable.
//
// # Example
//
//	g := graph.NewStateGraph()
//	g.AddNode("generate", "produce a query", generateFn)
//	g.AddNode("execute", "run the query", executeFn)
//	g.AddNode("synthesize", "produce the reply", synthesizeFn)
//
//	g.AddConditionalEdge("generate", func(ctx context.Context, state any) string {
//		if state.(turnState).query == "" {
//			return "synthesize"
//		}
//		return "execute"
//	})
//	g.AddEdge("execute", "synthesize")
//	g.AddEdge("synthesize", graph.END)
//	g.SetEntryPoint("generate")
//
//	runnable, err := g.Compile()
//	result, err := runnable.Invoke(ctx, initialState)
package graph
