// Package prompt holds the chatbot's prompt templates as typed configuration.
//
// Each template declares the exact set of placeholders it requires.
// Rendering with a missing variable fails loudly instead of silently
// producing a malformed prompt, and a template whose text references an
// undeclared placeholder is rejected at registration time. Templates are
// loaded once at startup (built-in defaults, optionally overridden from a
// YAML file) and treated as immutable afterwards.
package prompt

import (
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Template names used by the chatbot.
const (
	// TaskGenerate decides whether graph context is needed and produces a query.
	TaskGenerate = "generate"

	// TaskSynthesize produces the final natural-language reply.
	TaskSynthesize = "synthesize"
)

var placeholderRegex = regexp.MustCompile(`\{([a-z_]+)\}`)

// Template is a prompt template with a declared, validated placeholder set.
type Template struct {
	Name         string
	Text         string
	Placeholders []string
}

// Render substitutes the given variables into the template. Every declared
// placeholder must be present in vars.
func (t *Template) Render(vars map[string]string) (string, error) {
	for _, name := range t.Placeholders {
		if _, ok := vars[name]; !ok {
			return "", fmt.Errorf("template %s: missing placeholder %q", t.Name, name)
		}
	}

	out := t.Text
	for name, value := range vars {
		out = strings.ReplaceAll(out, "{"+name+"}", value)
	}
	return out, nil
}

// Registry maps task names to their templates.
type Registry struct {
	templates map[string]*Template
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{templates: make(map[string]*Template)}
}

// Register adds a template after validating that the placeholders referenced
// in its text exactly match the declared set.
func (r *Registry) Register(t *Template) error {
	if t.Name == "" {
		return fmt.Errorf("template name is required")
	}

	declared := make(map[string]bool, len(t.Placeholders))
	for _, name := range t.Placeholders {
		declared[name] = true
	}

	referenced := make(map[string]bool)
	for _, m := range placeholderRegex.FindAllStringSubmatch(t.Text, -1) {
		referenced[m[1]] = true
	}

	for name := range referenced {
		if !declared[name] {
			return fmt.Errorf("template %s: undeclared placeholder %q", t.Name, name)
		}
	}
	for name := range declared {
		if !referenced[name] {
			return fmt.Errorf("template %s: declared placeholder %q not referenced", t.Name, name)
		}
	}

	r.templates[t.Name] = t
	return nil
}

// Get returns the template registered under the given task name.
func (r *Registry) Get(name string) (*Template, error) {
	t, ok := r.templates[name]
	if !ok {
		return nil, fmt.Errorf("unknown template %q", name)
	}
	return t, nil
}

// Names returns the registered template names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.templates))
	for name := range r.templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// templateFile is the YAML shape of a template override file:
//
//	generate:
//	  text: |
//	    ...
//	  placeholders: [schema, history, question, failed_queries]
type templateFile map[string]struct {
	Text         string   `yaml:"text"`
	Placeholders []string `yaml:"placeholders"`
}

// LoadFile merges templates from a YAML file into the registry, replacing
// any built-in template with the same name.
func (r *Registry) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read templates: %w", err)
	}

	var file templateFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse templates: %w", err)
	}

	for name, entry := range file {
		if err := r.Register(&Template{
			Name:         name,
			Text:         entry.Text,
			Placeholders: entry.Placeholders,
		}); err != nil {
			return err
		}
	}
	return nil
}

// Defaults returns a registry preloaded with the chatbot's built-in
// templates.
func Defaults() *Registry {
	r := NewRegistry()

	// Registration of the built-ins cannot fail; the tests pin that.
	_ = r.Register(&Template{
		Name: TaskGenerate,
		Text: `You answer questions about a movie knowledge graph.

Graph schema:
{schema}

Conversation so far:
{history}

Queries that already failed or returned nothing (do not repeat them):
{failed_queries}

Question: {question}

If the question can be answered from the conversation alone and needs no
graph data, reply with exactly:
NO_CONTEXT

Otherwise reply with exactly two lines:
QUERY: <one read-only Cypher statement using only the schema above>
LABELS: <comma-separated node labels the statement targets>`,
		Placeholders: []string{"schema", "history", "question", "failed_queries"},
	})

	_ = r.Register(&Template{
		Name: TaskSynthesize,
		Text: `Conversation so far:
{history}

Data retrieved from the movie graph (may be empty):
{context}

Question: {question}

Answer the question conversationally. Use the retrieved data when it is
relevant; if it is empty, answer from the conversation alone and say so when
you are unsure.`,
		Placeholders: []string{"history", "context", "question"},
	})

	return r
}
