// Package router implements the capability-aware provider registry: it
// tracks per-adapter health and circuit-breaker state and drives
// retry/backoff, so callers never talk to a Provider directly (spec.md
// §4.2). No circuit breaker package appears anywhere in the example corpus,
// so this state machine is hand-rolled; its mutex-guarded-struct shape
// follows internal/work.Processor's own concurrency-safe state (sync.Mutex
// guarding plain maps, no channels needed since there's no background
// loop).
package router

import (
	"sync"
	"time"
)

// breakerState is the circuit breaker's three states (spec.md §4.2, §7).
type breakerState int

const (
	closedState breakerState = iota
	openState
	halfOpenState
)

// breaker tracks one adapter's failure streak and trip state.
type breaker struct {
	mu                sync.Mutex
	state             breakerState
	consecutiveFails  int
	openedAt          time.Time
	threshold         int
	cooldown          time.Duration
	halfOpenInFlight  bool
}

func newBreaker(threshold int, cooldown time.Duration) *breaker {
	return &breaker{threshold: threshold, cooldown: cooldown}
}

// Allow reports whether a call may proceed right now, and if the breaker is
// half-open, reserves the single probe slot (the caller must call RecordX
// exactly once after the probe completes).
func (b *breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case closedState:
		return true
	case openState:
		if time.Since(b.openedAt) >= b.cooldown {
			b.state = halfOpenState
			b.halfOpenInFlight = true
			return true
		}
		return false
	case halfOpenState:
		// Only one probe admitted at a time; concurrent callers are refused
		// until the in-flight probe resolves.
		if b.halfOpenInFlight {
			return false
		}
		b.halfOpenInFlight = true
		return true
	}
	return false
}

// RecordSuccess closes the breaker and resets the failure streak.
func (b *breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = closedState
	b.consecutiveFails = 0
	b.halfOpenInFlight = false
}

// RecordFailure increments the failure streak and trips the breaker once the
// threshold is reached, or re-opens immediately if the half-open probe
// itself failed.
func (b *breaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == halfOpenState {
		b.state = openState
		b.openedAt = time.Now()
		b.halfOpenInFlight = false
		return
	}

	b.consecutiveFails++
	b.halfOpenInFlight = false
	if b.consecutiveFails >= b.threshold {
		b.state = openState
		b.openedAt = time.Now()
	}
}

// State returns the current state for status reporting.
func (b *breaker) State() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch b.state {
	case openState:
		return "open"
	case halfOpenState:
		return "half_open"
	default:
		return "closed"
	}
}
