package store

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResult_Summary(t *testing.T) {
	result := &Result{
		Columns: []string{"m.title", "d.name"},
		Rows: []map[string]any{
			{"m.title": "Inception", "d.name": "Christopher Nolan"},
			{"m.title": "Memento", "d.name": "Christopher Nolan"},
		},
	}

	summary := result.Summary(10, 100)
	assert.Contains(t, summary, "1. m.title: Inception, d.name: Christopher Nolan")
	assert.Contains(t, summary, "2. m.title: Memento")
	assert.NotContains(t, summary, "omitted")
}

func TestResult_Summary_Bounds(t *testing.T) {
	result := &Result{
		Columns: []string{"m.overview"},
		Rows: []map[string]any{
			{"m.overview": strings.Repeat("x", 500)},
			{"m.overview": "short"},
			{"m.overview": "short"},
		},
	}

	summary := result.Summary(2, 20)
	assert.Contains(t, summary, strings.Repeat("x", 20)+"...")
	assert.NotContains(t, summary, strings.Repeat("x", 21))
	assert.Contains(t, summary, "(more rows omitted)")
	assert.Equal(t, 2, strings.Count(summary, "m.overview:"))
}

func TestResult_Summary_Empty(t *testing.T) {
	assert.Empty(t, (&Result{}).Summary(10, 100))
}

func TestResult_Summary_TruncatedFlag(t *testing.T) {
	result := &Result{
		Columns:   []string{"m.title"},
		Rows:      []map[string]any{{"m.title": "Heat"}},
		Truncated: true,
	}
	assert.Contains(t, result.Summary(10, 100), "(more rows omitted)")
}

func TestResult_PrettyPrint(t *testing.T) {
	result := &Result{
		Columns: []string{"m.title", "d.name"},
		Rows: []map[string]any{
			{"m.title": "Inception", "d.name": "Christopher Nolan"},
		},
	}

	var buf bytes.Buffer
	result.PrettyPrint(&buf)
	out := buf.String()
	assert.Contains(t, out, "m.title")
	assert.Contains(t, out, "Inception")

	buf.Reset()
	(&Result{}).PrettyPrint(&buf)
	assert.Contains(t, buf.String(), "(no rows)")
}

func TestConvertValue(t *testing.T) {
	assert.Equal(t, "abc", convertValue([]byte("abc")))
	assert.Equal(t, int64(7), convertValue(int64(7)))
	assert.Equal(t, []any{"a", int64(1)}, convertValue([]interface{}{[]byte("a"), int64(1)}))
}

func TestHeaderName(t *testing.T) {
	assert.Equal(t, "m.title", headerName("m.title"))
	assert.Equal(t, "m.title", headerName([]interface{}{int64(1), "m.title"}))
}
