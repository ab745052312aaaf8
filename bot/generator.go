package bot

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/tmc/langchaingo/llms"
	lcschema "github.com/tmc/langchaingo/schema"

	"github.com/moviegraph/chat/cypher"
	"github.com/moviegraph/chat/log"
	"github.com/moviegraph/chat/prompt"
	"github.com/moviegraph/chat/schema"
	"github.com/moviegraph/chat/session"
)

// NoContextMarker is the tagged reply the model uses to signal that the turn
// needs no graph data.
const NoContextMarker = "NO_CONTEXT"

const generatorSystemPrompt = "You are an expert Cypher generator for a movie knowledge graph."

// QueryGenerator asks the model whether a turn needs graph context and, if
// so, for a Cypher statement to fetch it. The model's output is never
// trusted: everything it produces goes through static validation before it
// can reach the executor.
type QueryGenerator struct {
	model     llms.Model
	registry  *prompt.Registry
	graph     *schema.Graph
	maxTokens int
}

// NewQueryGenerator creates a generator over the given model, templates and
// schema.
func NewQueryGenerator(model llms.Model, registry *prompt.Registry, graph *schema.Graph, maxTokens int) *QueryGenerator {
	return &QueryGenerator{
		model:     model,
		registry:  registry,
		graph:     graph,
		maxTokens: maxTokens,
	}
}

// Generate performs the combined needs-context decision and query
// generation. It returns needsContext=false when the model signals the turn
// can be answered from conversation alone. failedQueries are earlier queries
// from this session that produced nothing; they are fed back so the model
// does not repeat them.
func (g *QueryGenerator) Generate(ctx context.Context, history []session.Turn, userText string, failedQueries []string) (cypher.GeneratedQuery, bool, error) {
	tmpl, err := g.registry.Get(prompt.TaskGenerate)
	if err != nil {
		return cypher.GeneratedQuery{}, false, err
	}

	userPrompt, err := tmpl.Render(map[string]string{
		"schema":         g.graph.PromptText(),
		"history":        FormatHistory(history),
		"question":       userText,
		"failed_queries": formatFailedQueries(failedQueries),
	})
	if err != nil {
		return cypher.GeneratedQuery{}, false, err
	}

	reply, err := generate(ctx, g.model, generatorSystemPrompt, userPrompt, g.maxTokens)
	if err != nil {
		return cypher.GeneratedQuery{}, false, fmt.Errorf("query generation: %w", err)
	}

	queryText, labels, needsContext := parseGeneratorReply(reply)
	if !needsContext {
		log.Debug("generator: no graph context needed")
		return cypher.GeneratedQuery{}, false, nil
	}

	query := cypher.Validate(g.graph, queryText, labels)
	if !query.Valid {
		log.Warn("generator produced invalid query (%s): %s", query.Reason, query.Text)
	}
	return query, true, nil
}

var (
	codeFenceRegex = regexp.MustCompile("(?s)```[a-z]*\n?(.*?)```")
	queryLineRegex = regexp.MustCompile(`(?s)QUERY:\s*(.+?)\s*(?:LABELS:|$)`)
	labelLineRegex = regexp.MustCompile(`LABELS:\s*(.+)`)
)

// parseGeneratorReply splits the tagged model output into query text and
// declared labels. A reply that carries the no-context marker short-circuits;
// a reply without the QUERY tag is treated as bare query text, which
// validation will judge on its own.
func parseGeneratorReply(reply string) (queryText string, labels []string, needsContext bool) {
	reply = strings.TrimSpace(reply)
	if m := codeFenceRegex.FindStringSubmatch(reply); m != nil {
		reply = strings.TrimSpace(m[1])
	}

	if strings.Contains(reply, NoContextMarker) {
		return "", nil, false
	}

	queryText = reply
	if m := queryLineRegex.FindStringSubmatch(reply); m != nil {
		queryText = strings.TrimSpace(m[1])
	}

	if m := labelLineRegex.FindStringSubmatch(reply); m != nil {
		for _, label := range strings.Split(m[1], ",") {
			if label = strings.TrimSpace(label); label != "" {
				labels = append(labels, label)
			}
		}
	}

	return queryText, labels, true
}

func formatFailedQueries(queries []string) string {
	if len(queries) == 0 {
		return "(none)"
	}
	return "- " + strings.Join(queries, "\n- ")
}

// FormatHistory renders conversation turns for prompt injection. The system
// turn is omitted; it travels as the system message instead.
func FormatHistory(history []session.Turn) string {
	if len(history) == 0 {
		return "(empty)"
	}

	var b strings.Builder
	for _, turn := range history {
		if turn.Role == session.RoleSystem {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		switch turn.Role {
		case session.RoleUser:
			b.WriteString("User: ")
		case session.RoleAssistant:
			b.WriteString("Assistant: ")
		}
		b.WriteString(turn.Text)
	}

	if b.Len() == 0 {
		return "(empty)"
	}
	return b.String()
}

// generate performs a single system+user model call and returns the text of
// the first choice.
func generate(ctx context.Context, model llms.Model, systemPrompt, userPrompt string, maxTokens int) (string, error) {
	messages := []llms.MessageContent{
		llms.TextParts(lcschema.ChatMessageTypeSystem, systemPrompt),
		llms.TextParts(lcschema.ChatMessageTypeHuman, userPrompt),
	}

	resp, err := model.GenerateContent(ctx, messages,
		llms.WithTemperature(0.1),
		llms.WithMaxTokens(maxTokens),
	)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("model returned no choices")
	}
	return resp.Choices[0].Content, nil
}
