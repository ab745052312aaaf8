package prompt

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTemplate_Render(t *testing.T) {
	tmpl := &Template{
		Name:         "greet",
		Text:         "Hello {name}, you asked: {question}",
		Placeholders: []string{"name", "question"},
	}

	out, err := tmpl.Render(map[string]string{
		"name":     "Alice",
		"question": "who directed Heat?",
	})
	assert.NoError(t, err)
	assert.Equal(t, "Hello Alice, you asked: who directed Heat?", out)
}

func TestTemplate_Render_MissingPlaceholder(t *testing.T) {
	tmpl := &Template{
		Name:         "greet",
		Text:         "Hello {name}",
		Placeholders: []string{"name"},
	}

	_, err := tmpl.Render(map[string]string{})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), `missing placeholder "name"`)
}

func TestRegistry_Register_Validation(t *testing.T) {
	r := NewRegistry()

	t.Run("undeclared placeholder in text", func(t *testing.T) {
		err := r.Register(&Template{
			Name:         "bad",
			Text:         "uses {secret}",
			Placeholders: []string{},
		})
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "undeclared placeholder")
	})

	t.Run("declared but unreferenced placeholder", func(t *testing.T) {
		err := r.Register(&Template{
			Name:         "bad",
			Text:         "static text",
			Placeholders: []string{"unused"},
		})
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "not referenced")
	})

	t.Run("missing name", func(t *testing.T) {
		err := r.Register(&Template{Text: "x"})
		assert.Error(t, err)
	})
}

func TestRegistry_Get(t *testing.T) {
	r := Defaults()

	_, err := r.Get("nope")
	assert.Error(t, err)

	tmpl, err := r.Get(TaskGenerate)
	require.NoError(t, err)
	assert.Equal(t, TaskGenerate, tmpl.Name)
}

func TestDefaults(t *testing.T) {
	r := Defaults()
	assert.Equal(t, []string{TaskGenerate, TaskSynthesize}, r.Names())

	gen, err := r.Get(TaskGenerate)
	require.NoError(t, err)
	assert.Contains(t, gen.Text, "NO_CONTEXT")
	assert.ElementsMatch(t, []string{"schema", "history", "question", "failed_queries"}, gen.Placeholders)

	syn, err := r.Get(TaskSynthesize)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"history", "context", "question"}, syn.Placeholders)
}

func TestRegistry_LoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "prompts.yaml")

	content := `
synthesize:
  text: |
    Q: {question}
    H: {history}
    C: {context}
  placeholders: [question, history, context]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	r := Defaults()
	require.NoError(t, r.LoadFile(path))

	tmpl, err := r.Get(TaskSynthesize)
	require.NoError(t, err)
	assert.Contains(t, tmpl.Text, "Q: {question}")

	t.Run("bad file", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.yaml")
		require.NoError(t, os.WriteFile(bad, []byte("generate:\n  text: '{mystery}'\n  placeholders: []\n"), 0o644))
		assert.Error(t, Defaults().LoadFile(bad))
	})

	t.Run("missing file", func(t *testing.T) {
		assert.Error(t, Defaults().LoadFile(filepath.Join(dir, "absent.yaml")))
	})
}
