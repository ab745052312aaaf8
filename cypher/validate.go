package cypher

import (
	"regexp"
	"strings"

	"github.com/moviegraph/chat/schema"
)

// Validation failure reasons. These are recorded for observability and are
// never shown to the user verbatim.
const (
	ReasonUnknownLabel   = "unknown label"
	ReasonWriteOperation = "write operation detected"
	ReasonSyntaxError    = "syntax error"
)

// GeneratedQuery is a model-produced graph query together with the outcome of
// static validation. Only queries with Valid=true may ever reach the
// executor.
type GeneratedQuery struct {
	// Text is the raw Cypher statement.
	Text string

	// Labels are the target entity types the generator declared for this query.
	Labels []string

	// Valid reports whether the query passed validation.
	Valid bool

	// Reason holds the validation failure reason when Valid is false.
	Reason string
}

var (
	// writeClauseRegex matches Cypher clauses that mutate the graph. SET and
	// REMOVE are write-only in Cypher, so they are unconditionally rejected
	// regardless of surrounding read clauses. CALL and LOAD are rejected too:
	// procedures can write and there is no safe subset worth whitelisting.
	writeClauseRegex = regexp.MustCompile(`(?i)\b(CREATE|MERGE|DELETE|DETACH|SET|REMOVE|DROP|FOREACH|CALL|LOAD)\b`)

	// readClauseRegex matches the clauses a read-only statement may open with.
	readClauseRegex = regexp.MustCompile(`(?i)^\s*(MATCH|OPTIONAL\s+MATCH|UNWIND|WITH|RETURN)\b`)

	returnClauseRegex = regexp.MustCompile(`(?i)\bRETURN\b`)

	// tokenRegex matches ":Label" / ":REL_TYPE" tokens, including whole
	// alternations like ":ACTED_IN|DIRECTED" and negations like ":!ACTED_IN".
	tokenRegex = regexp.MustCompile(`:!?([A-Za-z_][A-Za-z0-9_]*(?:\s*[|&]\s*!?[A-Za-z_][A-Za-z0-9_]*)*)`)

	// tokenSeparatorRegex splits an alternation token list into its names.
	tokenSeparatorRegex = regexp.MustCompile(`[|&!\s]+`)

	// bracketRegex matches relationship pattern segments like [r:ACTED_IN*1..2 {character: x}].
	bracketRegex = regexp.MustCompile(`\[[^\]]*\]`)
)

// Validate statically checks a generated query against the graph schema and
// the read-only constraint. It never consults the model: this is the
// enforcement point, whatever the generator claimed about its own output.
//
// The checks, in order:
//  1. syntax shape — statement opens with a read clause, contains RETURN,
//     quotes and brackets are balanced;
//  2. read-only — no write clause anywhere in the statement;
//  3. schema whitelist — every node label and relationship type referenced by
//     the query (or declared by the generator) exists in the schema.
func Validate(g *schema.Graph, text string, declaredLabels []string) GeneratedQuery {
	query := GeneratedQuery{
		Text:   strings.TrimSpace(text),
		Labels: declaredLabels,
	}

	stripped, balanced := stripStringLiterals(query.Text)
	if query.Text == "" || !balanced || !balancedBrackets(stripped) ||
		!readClauseRegex.MatchString(stripped) || !returnClauseRegex.MatchString(stripped) {
		query.Reason = ReasonSyntaxError
		return query
	}

	if writeClauseRegex.MatchString(stripped) {
		query.Reason = ReasonWriteOperation
		return query
	}

	// Property maps like {title:x} carry ":token" shapes that are not labels;
	// blank them before the whitelist scans.
	mapless := stripPropertyMaps(stripped)

	for _, relType := range relationshipTypes(mapless) {
		if !g.HasRelationship(relType) {
			query.Reason = ReasonUnknownLabel
			return query
		}
	}

	for _, label := range nodeLabels(mapless) {
		if !g.HasLabel(label) {
			query.Reason = ReasonUnknownLabel
			return query
		}
	}

	for _, label := range declaredLabels {
		if !g.HasLabel(label) {
			query.Reason = ReasonUnknownLabel
			return query
		}
	}

	query.Valid = true
	return query
}

// relationshipTypes extracts ":TYPE" tokens found inside [...] pattern
// segments, expanding alternations so every alternative is checked.
func relationshipTypes(stripped string) []string {
	var types []string
	for _, segment := range bracketRegex.FindAllString(stripped, -1) {
		types = append(types, tokenNames(segment)...)
	}
	return types
}

// nodeLabels extracts ":Label" tokens outside [...] segments. This covers
// node patterns "(m:Movie)", label predicates "WHERE n:Director" and
// alternations "(p:Actor|Director)".
func nodeLabels(stripped string) []string {
	return tokenNames(bracketRegex.ReplaceAllString(stripped, ""))
}

// tokenNames expands every ":Name" token in s, splitting alternation and
// negation operators so each referenced name is whitelisted individually.
func tokenNames(s string) []string {
	var names []string
	for _, m := range tokenRegex.FindAllStringSubmatch(s, -1) {
		for _, name := range tokenSeparatorRegex.Split(m[1], -1) {
			if name != "" {
				names = append(names, name)
			}
		}
	}
	return names
}

// stripPropertyMaps blanks "{...}" property maps so their key:value pairs
// cannot be mistaken for label tokens. Runs on literal-stripped text, where
// braces are already known to be balanced.
func stripPropertyMaps(stripped string) string {
	b := []byte(stripped)
	depth := 0
	for i := 0; i < len(b); i++ {
		switch b[i] {
		case '{':
			depth++
			b[i] = ' '
		case '}':
			if depth > 0 {
				depth--
			}
			b[i] = ' '
		default:
			if depth > 0 {
				b[i] = ' '
			}
		}
	}
	return string(b)
}

// stripStringLiterals blanks out single- and double-quoted literals so that
// keyword and label scans cannot be fooled by quoted text. Returns false if a
// quote is left unterminated.
func stripStringLiterals(text string) (string, bool) {
	var b strings.Builder
	b.Grow(len(text))

	var quote byte
	escaped := false
	for i := 0; i < len(text); i++ {
		c := text[i]
		switch {
		case quote != 0:
			if escaped {
				escaped = false
			} else if c == '\\' {
				escaped = true
			} else if c == quote {
				quote = 0
			}
			b.WriteByte(' ')
		case c == '\'' || c == '"':
			quote = c
			b.WriteByte(' ')
		default:
			b.WriteByte(c)
		}
	}

	return b.String(), quote == 0
}

func balancedBrackets(stripped string) bool {
	var stack []byte
	pairs := map[byte]byte{')': '(', ']': '[', '}': '{'}

	for i := 0; i < len(stripped); i++ {
		switch c := stripped[i]; c {
		case '(', '[', '{':
			stack = append(stack, c)
		case ')', ']', '}':
			if len(stack) == 0 || stack[len(stack)-1] != pairs[c] {
				return false
			}
			stack = stack[:len(stack)-1]
		}
	}

	return len(stack) == 0
}
