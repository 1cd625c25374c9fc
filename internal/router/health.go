package router

import (
	"context"

	"github.com/pmccscan/pmccscan/internal/domain"
)

// StatusSnapshot is one provider's reported status, for the /providers status endpoint.
type StatusSnapshot struct {
	Name          string
	Type          string
	BreakerState  string
	Health        domain.ProviderHealth
}

// HealthCheckAll probes every registered provider directly, bypassing the
// breaker; the result updates the provider's recorded health (which routing
// reads) but not its breaker state. It returns a snapshot per provider for the status API (spec.md §4.9/C-status).
func (r *Router) HealthCheckAll(ctx context.Context) []StatusSnapshot {
	all := r.Providers()
	out := make([]StatusSnapshot, 0, len(all))
	for _, p := range all {
		env := p.HealthCheck(ctx)
		h := env.Data
		if env.Status != domain.StatusOK {
			h = domain.ProviderHealth{Status: domain.HealthUnhealthy, ErrorMessage: "health_check did not return ok"}
		}
		r.recordHealth(p.Name(), h)
		out = append(out, StatusSnapshot{
			Name:         p.Name(),
			Type:         string(p.Type()),
			BreakerState: r.BreakerState(p.Name()),
			Health:       h,
		})
	}
	return out
}
