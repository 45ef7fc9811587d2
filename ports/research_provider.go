package ports

import (
	"context"
	"encoding/json"

	"compass/domain"
)

// Research query types understood by provider adapters.
const (
	QueryTypeMarketOpportunity = "market-opportunity"
	QueryTypeFeasibility       = "feasibility"
	QueryTypeCompetitor        = "competitor"
	QueryTypeGeneral           = "general"
)

// ResearchContext carries the hints an adapter uses to route a uniform call
// onto a provider's native operations.
type ResearchContext struct {
	Stage        domain.Stage
	QueryType    string
	Technologies []string
	Hints        map[string]string
}

// ResearchProvider is the uniform capability every research provider is
// adapted to. Adapters perform no retries and no caching.
type ResearchProvider interface {
	Execute(ctx context.Context, queryType, query string, rctx ResearchContext) (json.RawMessage, error)
	IsAvailable(ctx context.Context, rctx ResearchContext) bool
}

// ProviderSource hands out adapters by provider name. Unknown names yield a
// safe adapter whose Execute always fails and whose IsAvailable is false.
type ProviderSource interface {
	AdapterFor(provider string) ResearchProvider
	Providers() []string
}
