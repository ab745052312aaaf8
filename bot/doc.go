// Package bot orchestrates conversational turns over the movie knowledge
// graph. For each user turn the engine asks the model whether graph context
// is needed, generates and validates a Cypher query, executes it bounded, and
// synthesizes the reply from the conversation plus the result summary.
package bot
