package session

// DefaultWindow is the default number of retained turns per session.
const DefaultWindow = 20

// maxFailedQueries bounds the failed-query feedback carried between turns.
const maxFailedQueries = 5

// State is the conversation state of a single session: an ordered, windowed
// sequence of turns plus the failed-query feedback for the generator.
//
// State is not safe for concurrent use; the Manager serializes access per
// session.
type State struct {
	id     string
	window int
	turns  []Turn

	// failedQueries collects queries that failed validation or execution in
	// this session, fed back into the generation prompt so the model does not
	// repeat them. Cleared on restart.
	failedQueries []string
}

// NewState creates a session state. A non-empty systemPrompt becomes the
// initial system turn, which the window never evicts.
func NewState(id string, window int, systemPrompt string) *State {
	if window <= 0 {
		window = DefaultWindow
	}

	s := &State{
		id:     id,
		window: window,
	}
	if systemPrompt != "" {
		s.turns = append(s.turns, NewTurn(RoleSystem, systemPrompt))
	}
	return s
}

// ID returns the session identifier.
func (s *State) ID() string {
	return s.id
}

// WindowSize returns the configured maximum number of retained turns.
func (s *State) WindowSize() int {
	return s.window
}

// Append records a turn, evicting the oldest non-system turns once the
// window is exceeded.
func (s *State) Append(turn Turn) {
	s.turns = append(s.turns, turn)

	for len(s.turns) > s.window {
		evicted := false
		for i, t := range s.turns {
			if t.Role != RoleSystem {
				s.turns = append(s.turns[:i], s.turns[i+1:]...)
				evicted = true
				break
			}
		}
		if !evicted {
			// Window full of system turns; nothing evictable.
			break
		}
	}
}

// History returns the retained turns in insertion order.
func (s *State) History() []Turn {
	out := make([]Turn, len(s.turns))
	copy(out, s.turns)
	return out
}

// Restart clears the conversation back to just the system turn (if any).
// The session identifier is kept, so a restarted state is equivalent to a
// freshly created one.
func (s *State) Restart() {
	var kept []Turn
	for _, t := range s.turns {
		if t.Role == RoleSystem {
			kept = append(kept, t)
			break
		}
	}
	s.turns = kept
	s.failedQueries = nil
}

// RecordFailedQuery remembers a query that failed validation or execution,
// bounded to the most recent few.
func (s *State) RecordFailedQuery(query string) {
	if query == "" {
		return
	}
	s.failedQueries = append(s.failedQueries, query)
	if len(s.failedQueries) > maxFailedQueries {
		s.failedQueries = s.failedQueries[len(s.failedQueries)-maxFailedQueries:]
	}
}

// FailedQueries returns the recorded failed queries, oldest first.
func (s *State) FailedQueries() []string {
	out := make([]string, len(s.failedQueries))
	copy(out, s.failedQueries)
	return out
}

// Snapshot is the serializable form of a State, used by the persistent
// session stores.
type Snapshot struct {
	ID            string   `json:"id"`
	Window        int      `json:"window"`
	Turns         []Turn   `json:"turns"`
	FailedQueries []string `json:"failed_queries,omitempty"`
}

// Snapshot captures the current state.
func (s *State) Snapshot() *Snapshot {
	return &Snapshot{
		ID:            s.id,
		Window:        s.window,
		Turns:         s.History(),
		FailedQueries: s.FailedQueries(),
	}
}

// FromSnapshot reconstructs a State from a snapshot.
func FromSnapshot(snap *Snapshot) *State {
	s := NewState(snap.ID, snap.Window, "")
	s.turns = make([]Turn, len(snap.Turns))
	copy(s.turns, snap.Turns)
	s.failedQueries = make([]string, len(snap.FailedQueries))
	copy(s.failedQueries, snap.FailedQueries)
	return s
}
