package company

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/symbiose/internal/metrics"
)

// CandidateCache stores eligible-candidate lists for a short TTL.
type CandidateCache interface {
	Get(ctx context.Context, key string) ([]Company, bool)
	Set(ctx context.Context, key string, companies []Company)
}

// CachedProvider serves ListEligible from a CandidateCache and delegates
// everything else to the wrapped Provider.
type CachedProvider struct {
	Provider
	cache CandidateCache
}

// NewCachedProvider wraps p with cache. A nil cache disables caching.
func NewCachedProvider(p Provider, cache CandidateCache) *CachedProvider {
	return &CachedProvider{Provider: p, cache: cache}
}

// ListEligible returns the cached candidate list when present.
func (p *CachedProvider) ListEligible(ctx context.Context, excludeID int64, statuses []string) ([]Company, error) {
	if p.cache == nil {
		return p.Provider.ListEligible(ctx, excludeID, statuses)
	}

	key := candidateKey(excludeID, statuses)
	if cached, ok := p.cache.Get(ctx, key); ok {
		metrics.CandidateCacheRequests.WithLabelValues(metrics.CacheHit).Inc()
		return cached, nil
	}
	metrics.CandidateCacheRequests.WithLabelValues(metrics.CacheMiss).Inc()

	companies, err := p.Provider.ListEligible(ctx, excludeID, statuses)
	if err != nil {
		return nil, err
	}
	p.cache.Set(ctx, key, companies)
	zap.L().Debug("company: cached candidate list",
		zap.Int64("exclude_id", excludeID),
		zap.Int("count", len(companies)),
	)
	return companies, nil
}

// candidateKey builds a cache key that is stable regardless of status order.
func candidateKey(excludeID int64, statuses []string) string {
	sorted := append([]string(nil), statuses...)
	sort.Strings(sorted)
	return fmt.Sprintf("candidates:%d:%s", excludeID, strings.Join(sorted, ","))
}
