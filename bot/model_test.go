package bot

import (
	"context"
	"errors"
	"sync"

	"github.com/tmc/langchaingo/llms"
)

// fakeModel replays a script of outputs, one per GenerateContent call, and
// records the prompts it received.
type fakeModel struct {
	mu      sync.Mutex
	outputs []fakeOutput
	prompts []string
}

type fakeOutput struct {
	text string
	err  error
}

var _ llms.Model = (*fakeModel)(nil)

func (m *fakeModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, _ ...llms.CallOption) (*llms.ContentResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.prompts = append(m.prompts, promptText(messages))

	if len(m.outputs) == 0 {
		return nil, errors.New("fakeModel: no scripted output left")
	}
	out := m.outputs[0]
	m.outputs = m.outputs[1:]

	if out.err != nil {
		return nil, out.err
	}
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: out.text}},
	}, nil
}

func (m *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return "", errors.New("fakeModel: Call not supported")
}

func (m *fakeModel) recordedPrompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.prompts))
	copy(out, m.prompts)
	return out
}

func promptText(messages []llms.MessageContent) string {
	var text string
	for _, msg := range messages {
		for _, part := range msg.Parts {
			if tc, ok := part.(llms.TextContent); ok {
				text += tc.Text + "\n"
			}
		}
	}
	return text
}
