package router

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/pmccscan/pmccscan/internal/domain"
	"github.com/pmccscan/pmccscan/internal/providers"
)

// Config controls the router's retry/backoff and breaker policy, sourced
// from internal/config.Config's router tunables.
type Config struct {
	MaxRetries              int
	RetryBackoffBase        time.Duration
	CircuitBreakerThreshold int
	CircuitBreakerCooldown  time.Duration
	AdapterConcurrency      int
}

// Router is the single point every component calls through to reach a
// provider: it discovers capability, enforces per-adapter concurrency caps,
// retries transient failures with backoff, and trips a circuit breaker on
// sustained failure (spec.md §4.2).
type Router struct {
	log zerolog.Logger
	cfg Config

	mu        sync.RWMutex
	providers []providers.Provider
	breakers  map[string]*breaker
	sems      map[string]chan struct{}
	health    map[string]domain.ProviderHealth
}

// New builds an empty Router. Adapters are added with Register.
func New(cfg Config, log zerolog.Logger) *Router {
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.AdapterConcurrency <= 0 {
		cfg.AdapterConcurrency = 10
	}
	return &Router{
		log:      log.With().Str("component", "router").Logger(),
		cfg:      cfg,
		breakers: make(map[string]*breaker),
		sems:     make(map[string]chan struct{}),
		health:   make(map[string]domain.ProviderHealth),
	}
}

// Register adds an adapter to the registry and gives it its own breaker and
// concurrency semaphore. Registration order is the routing preference order
// when a caller doesn't name a preferred provider.
func (r *Router) Register(p providers.Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers = append(r.providers, p)
	r.breakers[p.Name()] = newBreaker(r.cfg.CircuitBreakerThreshold, r.cfg.CircuitBreakerCooldown)
	r.sems[p.Name()] = make(chan struct{}, r.cfg.AdapterConcurrency)
}

// Providers returns every registered adapter, for status reporting.
func (r *Router) Providers() []providers.Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]providers.Provider, len(r.providers))
	copy(out, r.providers)
	return out
}

// BreakerState reports a provider's current breaker state for the status API.
func (r *Router) BreakerState(name string) string {
	r.mu.RLock()
	b, ok := r.breakers[name]
	r.mu.RUnlock()
	if !ok {
		return "unknown"
	}
	return b.State()
}

// LastHealth returns the most recently recorded health for a provider.
func (r *Router) LastHealth(name string) (domain.ProviderHealth, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.health[name]
	return h, ok
}

func (r *Router) recordHealth(name string, h domain.ProviderHealth) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.health[name] = h
}

// candidatesFor returns registered providers supporting op, filtered to
// those whose last recorded health is healthy/degraded (spec.md §4.2 step
// 1: candidates must be "healthy or degraded adapters with closed or
// half-open circuits", the circuit half is enforced by Invoke's
// breaker.Allow() check, this is the health half), with the preferred one
// (if any and if it supports the op and is healthy) moved to the front. A
// provider with no recorded health yet (never invoked) is treated as
// healthy rather than excluded.
func (r *Router) candidatesFor(op providers.Operation, preferred string) []providers.Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var preferredProvider providers.Provider
	var rest []providers.Provider
	for _, p := range r.providers {
		if !p.SupportsOperation(op) || !r.isHealthyLocked(p.Name()) {
			continue
		}
		if preferred != "" && p.Name() == preferred {
			preferredProvider = p
			continue
		}
		rest = append(rest, p)
	}
	if preferredProvider == nil {
		return rest
	}
	return append([]providers.Provider{preferredProvider}, rest...)
}

// isHealthyLocked reports whether name's last recorded health allows it to
// be routed to. Must be called with r.mu held.
func (r *Router) isHealthyLocked(name string) bool {
	h, ok := r.health[name]
	if !ok {
		return true
	}
	return h.Status != domain.HealthUnhealthy && h.Status != domain.HealthMaintenance
}

func (r *Router) breakerFor(name string) *breaker {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.breakers[name]
}

func (r *Router) semFor(name string) chan struct{} {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sems[name]
}
