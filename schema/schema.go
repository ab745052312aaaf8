// Package schema describes the fixed movie knowledge graph: its node labels,
// relationship types and property hints. The chatbot treats this as a
// read-only reference — generated queries are validated against it, and its
// textual rendering is injected into the query-generation prompt.
package schema

import (
	"sort"
	"strings"
)

// Relationship describes a typed relationship between two node labels.
type Relationship struct {
	// Type is the relationship type, e.g. ACTED_IN.
	Type string

	// From and To are the labels of the source and target nodes.
	From string
	To   string

	// Properties lists relationship property names, if any.
	Properties []string
}

// Graph is the read-only description of the movie graph schema.
type Graph struct {
	labels        map[string][]string // label -> property names
	relationships []Relationship
	relIndex      map[string]struct{}
}

// Default returns the schema of the movie graph as produced by the ingestion
// job: movies connected to people (actors, directors, crew), genres,
// keywords, collections, production companies, countries and languages.
func Default() *Graph {
	g := &Graph{
		labels: map[string][]string{
			"Movie": {
				"id", "title", "original_title", "overview", "release_date",
				"budget", "popularity", "revenue", "runtime", "vote_average",
				"vote_count",
			},
			// Person carries Actor/Director/Crew as additional labels.
			"Person":            {"person_id", "name"},
			"Actor":             {"person_id", "name"},
			"Director":          {"person_id", "name"},
			"Crew":              {"person_id", "name"},
			"Genre":             {"genre_id", "name"},
			"Keyword":           {"keyword_id", "name"},
			"Collection":        {"collection_id", "name"},
			"ProductionCompany": {"company_id", "name"},
			"ProductionCountry": {"country_code", "name"},
			"SpokenLanguage":    {"language_code", "name"},
		},
		relationships: []Relationship{
			{Type: "ACTED_IN", From: "Actor", To: "Movie", Properties: []string{"character"}},
			{Type: "DIRECTED", From: "Director", To: "Movie"},
			{Type: "WORKED_AS", From: "Crew", To: "Movie", Properties: []string{"department", "job"}},
			{Type: "OF_GENRE", From: "Genre", To: "Movie"},
			{Type: "HAS_KEYWORD", From: "Keyword", To: "Movie"},
			{Type: "PART_OF_COLLECTION", From: "Collection", To: "Movie"},
			{Type: "PRODUCED_BY", From: "ProductionCompany", To: "Movie"},
			{Type: "PRODUCED_IN", From: "ProductionCountry", To: "Movie"},
			{Type: "SPOKEN_IN", From: "SpokenLanguage", To: "Movie"},
		},
	}

	g.relIndex = make(map[string]struct{}, len(g.relationships))
	for _, rel := range g.relationships {
		g.relIndex[rel.Type] = struct{}{}
	}

	return g
}

// HasLabel reports whether the given node label exists in the schema.
// Matching is case-sensitive, as labels are in the graph store.
func (g *Graph) HasLabel(label string) bool {
	_, ok := g.labels[label]
	return ok
}

// HasRelationship reports whether the given relationship type exists.
func (g *Graph) HasRelationship(relType string) bool {
	_, ok := g.relIndex[relType]
	return ok
}

// Labels returns all node labels in sorted order.
func (g *Graph) Labels() []string {
	labels := make([]string, 0, len(g.labels))
	for label := range g.labels {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}

// Properties returns the property names of a label, or nil if unknown.
func (g *Graph) Properties(label string) []string {
	props, ok := g.labels[label]
	if !ok {
		return nil
	}
	out := make([]string, len(props))
	copy(out, props)
	return out
}

// Relationships returns all relationship descriptions.
func (g *Graph) Relationships() []Relationship {
	out := make([]Relationship, len(g.relationships))
	copy(out, g.relationships)
	return out
}

// PromptText renders the schema in the compact form used inside the
// query-generation prompt:
//
//	Node properties:
//	Movie {id, title, ...}
//	...
//	Relationships:
//	(:Actor)-[:ACTED_IN {character}]->(:Movie)
func (g *Graph) PromptText() string {
	var b strings.Builder

	b.WriteString("Node properties:\n")
	for _, label := range g.Labels() {
		b.WriteString(label)
		b.WriteString(" {")
		b.WriteString(strings.Join(g.labels[label], ", "))
		b.WriteString("}\n")
	}

	b.WriteString("Relationships:\n")
	for _, rel := range g.relationships {
		b.WriteString("(:")
		b.WriteString(rel.From)
		b.WriteString(")-[:")
		b.WriteString(rel.Type)
		if len(rel.Properties) > 0 {
			b.WriteString(" {")
			b.WriteString(strings.Join(rel.Properties, ", "))
			b.WriteString("}")
		}
		b.WriteString("]->(:")
		b.WriteString(rel.To)
		b.WriteString(")\n")
	}

	return b.String()
}
