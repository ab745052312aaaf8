package bot

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/tmc/langchaingo/llms"

	"github.com/moviegraph/chat/prompt"
	"github.com/moviegraph/chat/session"
)

const synthesizerSystemPrompt = "You are a movie chatbot."

// ErrModelUnavailable marks a synthesis failure. There is no lower-quality
// fallback for producing the reply, so this is the one failure that is fatal
// to a turn.
var ErrModelUnavailable = errors.New("language model unavailable")

// Synthesizer produces the final natural-language reply from the user's
// question, the trimmed history and an optional query-result summary.
type Synthesizer struct {
	model     llms.Model
	registry  *prompt.Registry
	maxTokens int
}

// NewSynthesizer creates a synthesizer over the given model and templates.
func NewSynthesizer(model llms.Model, registry *prompt.Registry, maxTokens int) *Synthesizer {
	return &Synthesizer{
		model:     model,
		registry:  registry,
		maxTokens: maxTokens,
	}
}

// Synthesize generates the reply. contextSummary may be empty, in which case
// the model answers from conversation alone. The reply is whitespace-
// normalized and otherwise returned as-is; factual correctness is not
// validated.
func (s *Synthesizer) Synthesize(ctx context.Context, userText string, history []session.Turn, contextSummary string) (string, error) {
	tmpl, err := s.registry.Get(prompt.TaskSynthesize)
	if err != nil {
		return "", err
	}

	if contextSummary == "" {
		contextSummary = "(empty)"
	}

	userPrompt, err := tmpl.Render(map[string]string{
		"history":  FormatHistory(history),
		"context":  contextSummary,
		"question": userText,
	})
	if err != nil {
		return "", err
	}

	reply, err := generate(ctx, s.model, synthesizerSystemPrompt, userPrompt, s.maxTokens)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}

	return normalizeWhitespace(reply), nil
}

var blankLinesRegex = regexp.MustCompile(`\n{3,}`)

func normalizeWhitespace(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = blankLinesRegex.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
