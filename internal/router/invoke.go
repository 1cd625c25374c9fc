package router

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/pmccscan/pmccscan/internal/domain"
	"github.com/pmccscan/pmccscan/internal/providers"
)

// Invoke routes a single operation call through the registry: it walks
// candidate providers in preference order, skipping any whose breaker is
// open, retries a provider's own transient failures with exponential
// backoff, and falls through to the next candidate whenever a provider's
// call still fails after its retries. It is a free function (not a Router
// method) because Go does not allow a type parameter on a method — this is
// the same shape every caller (screener, analyzer, AI augmentor) uses
// regardless of the envelope's payload type.
func Invoke[T any](ctx context.Context, r *Router, op providers.Operation, preferred string, call func(context.Context, providers.Provider) domain.Envelope[T]) domain.Envelope[T] {
	candidates := r.candidatesFor(op, preferred)
	if len(candidates) == 0 {
		return providers.NotSupported[T]("router", op)
	}

	var last domain.Envelope[T]
	haveResult := false

	for _, p := range candidates {
		b := r.breakerFor(p.Name())
		if b != nil && !b.Allow() {
			continue
		}

		env := invokeWithRetry(ctx, r, p, call)
		last = env
		haveResult = true

		if env.Succeeded() {
			return env
		}
		// A failed envelope that exhausted retries falls through to the
		// next candidate; breaker bookkeeping already happened below.
	}

	if haveResult {
		return last
	}
	return providers.NotSupported[T]("router", op)
}

// invokeWithRetry runs a single provider call under the concurrency
// semaphore, retrying transient/rate-limited failures with exponential
// backoff up to cfg.MaxRetries times after the first attempt, and reports
// the outcome to the provider's breaker at most once per call (errors that
// do not count against the breaker are not reported).
func invokeWithRetry[T any](ctx context.Context, r *Router, p providers.Provider, call func(context.Context, providers.Provider) domain.Envelope[T]) domain.Envelope[T] {
	sem := r.semFor(p.Name())
	b := r.breakerFor(p.Name())

	traceID := uuid.New().String()
	log := r.log.With().Str("trace_id", traceID).Str("provider", p.Name()).Logger()
	log.Debug().Msg("invoking provider")

	select {
	case sem <- struct{}{}:
		defer func() { <-sem }()
	case <-ctx.Done():
		return domain.Error[T](&domain.ProviderError{Kind: domain.ErrTransient, Provider: p.Name(), Message: "context canceled waiting for adapter concurrency slot"})
	}

	var env domain.Envelope[T]
	for attempt := 0; attempt <= r.cfg.MaxRetries; attempt++ {
		env = call(ctx, p)

		if env.Status != domain.StatusError {
			if b != nil {
				b.RecordSuccess()
			}
			h := domain.ProviderHealth{Status: domain.HealthHealthy, LastCheck: time.Now()}
			r.recordHealth(p.Name(), h)
			return env
		}

		if env.Err == nil || !env.Err.Retryable() || attempt == r.cfg.MaxRetries {
			break
		}

		log.Debug().Int("attempt", attempt).Err(env.Err).Msg("retrying after transient failure")

		backoff := r.cfg.RetryBackoffBase * time.Duration(1<<uint(attempt))
		if env.Err.Kind == domain.ErrRateLimited && env.Err.RetryAfter > 0 {
			backoff = time.Duration(env.Err.RetryAfter) * time.Second
		}
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return env
		}
	}

	if b != nil && env.Err != nil && env.Err.CountsAgainstBreaker() {
		b.RecordFailure()
	} else if b != nil && env.Err == nil {
		b.RecordSuccess()
	}
	errMsg := ""
	if env.Err != nil {
		errMsg = env.Err.Message
	}
	// Authentication/configuration failures mark the adapter unhealthy until
	// config changes (spec.md §7) and are filtered out of future candidate
	// lists by candidatesFor. Everything else that still counts against the
	// breaker is recorded as degraded rather than unhealthy: the breaker
	// itself is what excludes the adapter once its failure threshold trips,
	// so health tracking doesn't duplicate (and short-circuit) that count.
	status := domain.HealthDegraded
	if env.Err != nil && (env.Err.Kind == domain.ErrAuthentication || env.Err.Kind == domain.ErrConfiguration) {
		status = domain.HealthUnhealthy
	}
	r.recordHealth(p.Name(), domain.ProviderHealth{Status: status, LastCheck: time.Now(), ErrorMessage: errMsg})
	return env
}
