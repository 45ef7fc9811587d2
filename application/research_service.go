package application

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"compass/domain"
	"compass/logging"
	"compass/ports"
)

// ResearchService aggregates provider results into session research buckets.
type ResearchService struct {
	sessions  *SessionService
	providers ports.ProviderSource
}

// NewResearchService creates a ResearchService.
func NewResearchService(sessions *SessionService, providers ports.ProviderSource) *ResearchService {
	return &ResearchService{
		sessions:  sessions,
		providers: providers,
	}
}

// BucketForQueryType maps a query type to its research bucket.
func BucketForQueryType(queryType string) string {
	switch queryType {
	case ports.QueryTypeMarketOpportunity:
		return domain.BucketMarketAnalysis
	case ports.QueryTypeFeasibility:
		return domain.BucketTechnicalValidation
	case ports.QueryTypeCompetitor:
		return domain.BucketCompetitiveAnalysis
	default:
		return domain.BucketGeneral
	}
}

// Run executes one research request through its provider adapter and records
// the outcome in the session. Provider failures are recorded as unsuccessful
// queries, not surfaced as errors: research is supplementary.
func (s *ResearchService) Run(ctx context.Context, sessionID string, req ResearchRequest, rctx ports.ResearchContext) (*domain.Session, error) {
	bucket := req.Bucket
	if bucket == "" {
		bucket = BucketForQueryType(req.QueryType)
	}

	record := domain.ResearchQuery{
		Query:     req.Query,
		Provider:  req.Provider,
		QueryType: req.QueryType,
	}

	adapter := s.providers.AdapterFor(req.Provider)
	if !adapter.IsAvailable(ctx, rctx) {
		record.Error = "provider unavailable"
		logging.Logger.Warn("Research provider unavailable", "provider", req.Provider)
		return s.sessions.AddResearchData(ctx, sessionID, bucket, record)
	}

	results, err := adapter.Execute(ctx, req.QueryType, req.Query, rctx)
	if err != nil {
		record.Error = err.Error()
		logging.Logger.Warn("Research query failed",
			"provider", req.Provider, "query_type", req.QueryType, "error", err)
	} else {
		record.Success = true
		record.Results = results
	}

	return s.sessions.AddResearchData(ctx, sessionID, bucket, record)
}

// Probe checks every registered provider's availability concurrently.
func (s *ResearchService) Probe(ctx context.Context, rctx ports.ResearchContext) map[string]bool {
	results := make(map[string]bool)
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	for _, name := range s.providers.Providers() {
		name := name
		g.Go(func() error {
			available := s.providers.AdapterFor(name).IsAvailable(ctx, rctx)
			mu.Lock()
			results[name] = available
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return results
}
