package bot

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"

	"github.com/moviegraph/chat/cypher"
	"github.com/moviegraph/chat/graph"
	"github.com/moviegraph/chat/log"
	"github.com/moviegraph/chat/prompt"
	"github.com/moviegraph/chat/schema"
	"github.com/moviegraph/chat/session"
	"github.com/moviegraph/chat/store"
)

// DefaultSystemPrompt anchors every session's conversation.
const DefaultSystemPrompt = "You are a helpful assistant that answers questions about movies, " +
	"actors and film production using a movie knowledge graph."

// UnavailableMessage is the reply shown when a turn cannot be completed at
// all.
const UnavailableMessage = "I couldn't process that right now. Please try again."

// ErrEmptyInput is returned for a blank user turn.
var ErrEmptyInput = errors.New("empty user input")

const (
	nodeGenerate   = "generate"
	nodeExecute    = "execute"
	nodeSynthesize = "synthesize"

	defaultMaxTokens       = 512
	defaultSummaryRows     = 20
	defaultSummaryValueLen = 200
)

// Config assembles an Engine. Model and Querier are required; everything else
// has a sensible zero-value default.
type Config struct {
	Model   llms.Model
	Querier store.Querier

	// Registry supplies the prompt templates; prompt.Defaults() when nil.
	Registry *prompt.Registry

	// Schema describes the queryable graph; schema.Default() when nil.
	Schema *schema.Graph

	// SessionStore persists conversation state across restarts. Nil keeps
	// sessions in memory only.
	SessionStore session.Store

	// Window bounds the retained turns per session.
	Window int

	SystemPrompt string
	MaxTokens    int

	// QueryTimeout and MaxRows bound a single graph query execution.
	QueryTimeout time.Duration
	MaxRows      int

	// SummaryRows and SummaryValueLen bound the result summary injected into
	// the synthesis prompt.
	SummaryRows     int
	SummaryValueLen int

	// ResultObserver, when set, sees every successful query result before it
	// is summarized. The CLI uses it for verbose output.
	ResultObserver func(query string, result *store.Result)
}

// Engine is the per-turn orchestrator. Each user turn runs through a small
// state machine: generate a query (or decide none is needed), execute it,
// synthesize the reply. Generation and execution failures degrade the turn to
// a context-free answer; only a synthesis failure is fatal.
type Engine struct {
	sessions    *session.Manager
	generator   *QueryGenerator
	synthesizer *Synthesizer
	executor    *store.Executor
	runnable    *graph.StateRunnable

	summaryRows     int
	summaryValueLen int
	resultObserver  func(query string, result *store.Result)
}

// turnState is the value threaded through the state machine for one turn.
type turnState struct {
	userText      string
	history       []session.Turn
	failedQueries []string

	query        cypher.GeneratedQuery
	needsContext bool

	summary string
	answer  string

	// failedQuery, when set, is recorded into the session as feedback for
	// later generations.
	failedQuery string
}

// NewEngine wires an engine from the config.
func NewEngine(cfg Config) (*Engine, error) {
	if cfg.Model == nil {
		return nil, errors.New("bot: model is required")
	}
	if cfg.Querier == nil {
		return nil, errors.New("bot: querier is required")
	}

	registry := cfg.Registry
	if registry == nil {
		registry = prompt.Defaults()
	}
	graphSchema := cfg.Schema
	if graphSchema == nil {
		graphSchema = schema.Default()
	}
	systemPrompt := cfg.SystemPrompt
	if systemPrompt == "" {
		systemPrompt = DefaultSystemPrompt
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	summaryRows := cfg.SummaryRows
	if summaryRows <= 0 {
		summaryRows = defaultSummaryRows
	}
	summaryValueLen := cfg.SummaryValueLen
	if summaryValueLen <= 0 {
		summaryValueLen = defaultSummaryValueLen
	}

	e := &Engine{
		sessions:        session.NewManager(cfg.Window, systemPrompt, cfg.SessionStore),
		generator:       NewQueryGenerator(cfg.Model, registry, graphSchema, maxTokens),
		synthesizer:     NewSynthesizer(cfg.Model, registry, maxTokens),
		executor:        store.NewExecutor(cfg.Querier, cfg.QueryTimeout, cfg.MaxRows),
		summaryRows:     summaryRows,
		summaryValueLen: summaryValueLen,
		resultObserver:  cfg.ResultObserver,
	}

	runnable, err := e.buildGraph()
	if err != nil {
		return nil, err
	}
	e.runnable = runnable
	return e, nil
}

// buildGraph assembles the per-turn state machine:
//
//	generate --(needs valid query)--> execute --> synthesize --> END
//	     \--(no context / invalid)------------------^
func (e *Engine) buildGraph() (*graph.StateRunnable, error) {
	g := graph.NewStateGraph()

	g.AddNode(nodeGenerate, "decide whether the turn needs graph context and generate the query", e.generateNode)
	g.AddNode(nodeExecute, "run the validated query against the graph store", e.executeNode)
	g.AddNode(nodeSynthesize, "produce the final reply", e.synthesizeNode)

	g.SetEntryPoint(nodeGenerate)
	g.AddConditionalEdge(nodeGenerate, func(_ context.Context, state any) string {
		ts := state.(*turnState)
		if ts.needsContext && ts.query.Valid {
			return nodeExecute
		}
		return nodeSynthesize
	})
	g.AddEdge(nodeExecute, nodeSynthesize)
	g.AddEdge(nodeSynthesize, graph.END)

	return g.Compile()
}

func (e *Engine) generateNode(ctx context.Context, state any) (any, error) {
	ts := state.(*turnState)

	query, needsContext, err := e.generator.Generate(ctx, ts.history, ts.userText, ts.failedQueries)
	if err != nil {
		if ctx.Err() != nil {
			return ts, ctx.Err()
		}
		// Degrade to a context-free answer rather than failing the turn.
		log.Warn("query generation failed, answering without graph context: %v", err)
		ts.needsContext = false
		return ts, nil
	}

	ts.query = query
	ts.needsContext = needsContext
	if needsContext && !query.Valid {
		ts.failedQuery = query.Text
	}
	return ts, nil
}

func (e *Engine) executeNode(ctx context.Context, state any) (any, error) {
	ts := state.(*turnState)

	result, err := e.executor.Execute(ctx, ts.query)
	if err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			return ts, ctx.Err()
		}
		log.Warn("graph execution failed, answering without graph context: %v", err)
		ts.failedQuery = ts.query.Text
		return ts, nil
	}

	if e.resultObserver != nil {
		e.resultObserver(ts.query.Text, result)
	}

	ts.summary = result.Summary(e.summaryRows, e.summaryValueLen)
	if ts.summary == "" {
		// An empty result is feedback too: the model should try a different
		// query next time.
		ts.failedQuery = ts.query.Text
	}
	return ts, nil
}

func (e *Engine) synthesizeNode(ctx context.Context, state any) (any, error) {
	ts := state.(*turnState)

	answer, err := e.synthesizer.Synthesize(ctx, ts.userText, ts.history, ts.summary)
	if err != nil {
		return ts, err
	}
	ts.answer = answer
	return ts, nil
}

// HandleTurn processes one user turn in the given session and returns the
// reply. A cancelled context aborts the turn without recording anything; a
// synthesis failure records the user turn and returns a generic reply.
func (e *Engine) HandleTurn(ctx context.Context, sessionID, userText string) (string, error) {
	userText = strings.TrimSpace(userText)
	if userText == "" {
		return "", ErrEmptyInput
	}

	var reply string
	err := e.sessions.WithSession(ctx, sessionID, func(s *session.State) error {
		ts := &turnState{
			userText:      userText,
			history:       s.History(),
			failedQueries: s.FailedQueries(),
		}

		out, invokeErr := e.runnable.Invoke(ctx, ts)
		ts = out.(*turnState)

		if invokeErr != nil {
			if ctx.Err() != nil {
				// Cancellation: the turn never happened.
				return ctx.Err()
			}

			log.Error("turn failed in session %s: %v", sessionID, invokeErr)
			s.Append(session.NewTurn(session.RoleUser, userText))
			if ts.failedQuery != "" {
				s.RecordFailedQuery(ts.failedQuery)
			}
			reply = UnavailableMessage
			return nil
		}

		s.Append(session.NewTurn(session.RoleUser, userText))

		assistant := session.NewTurn(session.RoleAssistant, ts.answer)
		if ts.needsContext && ts.query.Valid {
			assistant.Query = ts.query.Text
			assistant.ResultSummary = ts.summary
		}
		s.Append(assistant)

		if ts.failedQuery != "" {
			s.RecordFailedQuery(ts.failedQuery)
		}

		reply = ts.answer
		return nil
	})
	return reply, err
}

// Restart clears the session's conversation and failed-query feedback while
// keeping its identifier.
func (e *Engine) Restart(ctx context.Context, sessionID string) error {
	return e.sessions.Restart(ctx, sessionID)
}
