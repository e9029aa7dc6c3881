package providers

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/helixir/bibliomatch-service/internal/domain"
)

// Request is one step of a lookup plan.
type Request struct {
	Provider string
	Params   LookupParams
}

// Outcome holds the result of one plan step. Exactly one of Records or Err is
// meaningful; Skipped steps have neither.
type Outcome struct {
	Request  Request
	Records  []*domain.Record
	Err      error
	Skipped  bool
	Duration time.Duration
}

// Registry manages providers and runs lookup plans against them.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[string]Provider),
	}
}

// Register adds a provider, replacing any provider with the same name.
func (r *Registry) Register(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[p.Name()] = p
}

// Get returns a provider by name, or nil if not found.
func (r *Registry) Get(name string) Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.providers[name]
}

// Enabled returns the enabled providers sorted by name.
func (r *Registry) Enabled() []Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Provider, 0, len(r.providers))
	for _, p := range r.providers {
		if p.IsEnabled() {
			out = append(out, p)
		}
	}
	slices.SortFunc(out, func(a, b Provider) int {
		return strings.Compare(a.Name(), b.Name())
	})
	return out
}

// LookupPlan runs every request of plan with at most concurrency lookups in
// flight and returns one Outcome per request, in plan order. Requests naming an
// unknown or disabled provider are skipped. Failures are wrapped in
// *domain.ProviderError and returned, never raised.
func (r *Registry) LookupPlan(ctx context.Context, plan []Request, concurrency int) []Outcome {
	if len(plan) == 0 {
		return nil
	}
	if concurrency <= 0 {
		concurrency = len(plan)
	}

	outcomes := make([]Outcome, len(plan))
	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup

	for i, req := range plan {
		outcomes[i].Request = req

		p := r.Get(req.Provider)
		if p == nil || !p.IsEnabled() {
			outcomes[i].Skipped = true
			continue
		}

		wg.Add(1)
		go func(i int, p Provider, req Request) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				outcomes[i].Err = domain.NewProviderError(req.Provider, string(req.Params.Mode), ctx.Err())
				return
			}
			defer func() { <-sem }()

			start := time.Now()
			records, err := p.Lookup(ctx, req.Params)
			outcomes[i].Duration = time.Since(start)
			if err != nil {
				outcomes[i].Err = domain.NewProviderError(req.Provider, string(req.Params.Mode), err)
				return
			}
			outcomes[i].Records = records
		}(i, p, req)
	}

	wg.Wait()
	return outcomes
}
