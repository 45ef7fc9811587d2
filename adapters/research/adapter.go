// Package research adapts heterogeneous research providers to the uniform
// two-method capability the orchestrator consumes. Adapters are a pure
// routing/translation shim: no retries, no caching.
package research

import (
	"context"
	"encoding/json"
	"fmt"

	"compass/domain"
	"compass/logging"
	"compass/ports"
)

// Capability interfaces a concrete provider client may implement. A provider
// registers whichever native operations it supports; the adapter routes the
// uniform Execute call to the best match.

// FeasibilityAnalyzer answers technology feasibility questions.
type FeasibilityAnalyzer interface {
	AnalyzeFeasibility(ctx context.Context, technologies []string, query string) (json.RawMessage, error)
}

// MarketAnalyzer answers market opportunity questions.
type MarketAnalyzer interface {
	MarketOpportunity(ctx context.Context, query string) (json.RawMessage, error)
}

// Searcher performs a generic search/lookup.
type Searcher interface {
	Search(ctx context.Context, query string) (json.RawMessage, error)
}

// Pinger reports provider reachability. Optional: providers without it are
// considered available whenever they expose any capability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Adapter wraps one provider's native operations behind the uniform
// ResearchProvider capability.
type Adapter struct {
	name        string
	feasibility FeasibilityAnalyzer
	market      MarketAnalyzer
	search      Searcher
	pinger      Pinger
}

var _ ports.ResearchProvider = (*Adapter)(nil)

// NewAdapter builds an adapter for a named provider, discovering capabilities
// from the interfaces the client implements.
func NewAdapter(name string, client any) *Adapter {
	a := &Adapter{name: name}
	if f, ok := client.(FeasibilityAnalyzer); ok {
		a.feasibility = f
	}
	if m, ok := client.(MarketAnalyzer); ok {
		a.market = m
	}
	if s, ok := client.(Searcher); ok {
		a.search = s
	}
	if p, ok := client.(Pinger); ok {
		a.pinger = p
	}
	return a
}

// Execute routes the uniform call onto the provider's native operations.
// Routing hints, in order: a technology list selects the feasibility call; a
// market-research stage or market query type selects the market-opportunity
// call; anything else falls back to generic search.
func (a *Adapter) Execute(ctx context.Context, queryType, query string, rctx ports.ResearchContext) (json.RawMessage, error) {
	switch {
	case len(rctx.Technologies) > 0 && a.feasibility != nil:
		logging.Logger.Debug("Routing research query to feasibility analysis",
			"provider", a.name, "technologies", rctx.Technologies)
		return a.feasibility.AnalyzeFeasibility(ctx, rctx.Technologies, query)

	case (queryType == ports.QueryTypeMarketOpportunity || rctx.Stage == domain.StageMarketResearch) && a.market != nil:
		logging.Logger.Debug("Routing research query to market opportunity",
			"provider", a.name, "query_type", queryType)
		return a.market.MarketOpportunity(ctx, query)

	case a.search != nil:
		logging.Logger.Debug("Routing research query to generic search",
			"provider", a.name, "query_type", queryType)
		return a.search.Search(ctx, query)

	default:
		return nil, fmt.Errorf("provider %s has no operation for query type %s", a.name, queryType)
	}
}

// IsAvailable reports whether the provider can serve calls in this context.
func (a *Adapter) IsAvailable(ctx context.Context, rctx ports.ResearchContext) bool {
	if a.pinger != nil {
		return a.pinger.Ping(ctx) == nil
	}
	return a.feasibility != nil || a.market != nil || a.search != nil
}

// nullAdapter is the safe default for unknown providers: Execute always
// fails, IsAvailable is always false.
type nullAdapter struct {
	name string
}

var _ ports.ResearchProvider = (*nullAdapter)(nil)

func (n *nullAdapter) Execute(ctx context.Context, queryType, query string, rctx ports.ResearchContext) (json.RawMessage, error) {
	return nil, fmt.Errorf("research provider %q is not registered", n.name)
}

func (n *nullAdapter) IsAvailable(ctx context.Context, rctx ports.ResearchContext) bool {
	return false
}
