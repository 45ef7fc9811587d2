package ports

import (
	"context"

	"compass/domain"
)

// GenerateOptions configures PRD generation.
type GenerateOptions struct {
	TemplateType        string
	IncludeResearchData bool
	OutputPath          string
}

// PRDResult is a generated document plus its section structure.
type PRDResult struct {
	Content   string
	Structure []string
}

// DocumentGenerator turns a completed session into the final PRD artifact.
// Implementations must return domain.ErrRequirementsIncomplete when the
// requirements-synthesis stage is not completed; the session's public
// progress map carries enough information for that check.
type DocumentGenerator interface {
	GeneratePRD(ctx context.Context, session *domain.Session, opts GenerateOptions) (*PRDResult, error)
}

// TextGenerator is the external natural-language generation service,
// consumed through a plain request/response contract. Retry and backoff are
// the implementation's concern, not the caller's.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string, context map[string]any) (string, error)
}
