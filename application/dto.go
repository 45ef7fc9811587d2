package application

import "compass/domain"

// CompleteStageResult is the outcome of completing a stage.
type CompleteStageResult struct {
	Session *domain.Session
	// NextStage is the immediate successor in canonical order, or "" when
	// the completed stage was the last one.
	NextStage domain.Stage
	// SessionCompleted is true when completing the last stage finished the
	// whole session.
	SessionCompleted bool
}

// ResearchRequest describes one research action to run through a provider.
type ResearchRequest struct {
	Provider  string
	Bucket    string
	QueryType string
	Query     string
}
