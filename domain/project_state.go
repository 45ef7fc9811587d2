package domain

// ProjectState is the single persisted document for one project: unrelated
// sibling workflow state plus the optional discovery session. The whole
// document is replaced on every save; Version is the optimistic concurrency
// counter checked by the store.
type ProjectState struct {
	Workflow         map[string]any `json:"workflow,omitempty"`
	DiscoverySession *Session       `json:"discoverySession,omitempty"`
	Version          int64          `json:"version"`
}

// EmptyProjectState is the documented default a store falls back to when the
// persisted document is missing or unreadable.
func EmptyProjectState() *ProjectState {
	return &ProjectState{Workflow: make(map[string]any)}
}
